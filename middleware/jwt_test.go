package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("test-signing-key")

func sign(t *testing.T, key []byte, username string, expires time.Time) string {
	t.Helper()
	claims := &Claims{
		Username: username,
		UserHash: UserHashFromUsername(username, key),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func serve(t *testing.T, target, authHeader string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	e := echo.New()
	var seen string
	e.GET("/p", func(c echo.Context) error {
		seen, _ = c.Get("username").(string)
		return c.NoContent(http.StatusNoContent)
	}, JWT(testKey))

	req := httptest.NewRequest(http.MethodGet, target, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec, seen
}

func TestJWT(t *testing.T) {
	valid := sign(t, testKey, "padraic", time.Now().Add(time.Hour))

	tests := []struct {
		name   string
		target string
		header string
		status int
		user   string
	}{
		{"raw header", "/p", valid, http.StatusNoContent, "padraic"},
		{"bearer header", "/p", "Bearer " + valid, http.StatusNoContent, "padraic"},
		{"query param", "/p?token=" + valid, "", http.StatusNoContent, "padraic"},
		{"missing", "/p", "", http.StatusBadRequest, ""},
		{"garbage", "/p", "not-a-token", http.StatusBadRequest, ""},
		{"wrong key", "/p", sign(t, []byte("other"), "padraic", time.Now().Add(time.Hour)), http.StatusUnauthorized, ""},
		{"expired", "/p", sign(t, testKey, "padraic", time.Now().Add(-time.Hour)), http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, user := serve(t, tt.target, tt.header)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.user, user)
		})
	}
}

func TestJWT_RejectsForgedUserHash(t *testing.T) {
	claims := &Claims{
		Username: "admin",
		UserHash: UserHashFromUsername("someone-else", testKey),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testKey)
	require.NoError(t, err)

	rec, _ := serve(t, "/p", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserHashFromUsername_Normalizes(t *testing.T) {
	assert.Equal(t, UserHashFromUsername("Padraic ", testKey), UserHashFromUsername("padraic", testKey))
	assert.NotEqual(t, UserHashFromUsername("padraic", testKey), UserHashFromUsername("padraic", []byte("x")))
}
