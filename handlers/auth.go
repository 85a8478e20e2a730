package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	mw "github.com/padraicbc/f1sim/middleware"
	"github.com/padraicbc/f1sim/store"
)

const tokenTTL = 30 * 24 * time.Hour

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HashPasswordForUser returns a bcrypt hash for storage. Blank input is
// rejected with store.ErrInvalidInput.
func HashPasswordForUser(username, password string) (string, error) {
	if strings.TrimSpace(username) == "" {
		return "", fmt.Errorf("%w: username is required", store.ErrInvalidInput)
	}
	if strings.TrimSpace(password) == "" {
		return "", fmt.Errorf("%w: password is required", store.ErrInvalidInput)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// signinError hides whether the username or the password was wrong.
func signinError(err error) error {
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return echo.NewHTTPError(http.StatusUnauthorized, "incorrect username or password")
	}
	return httpError(err)
}

func (h *Handler) isAdmin(username string) bool {
	_, ok := h.admins[strings.ToLower(strings.TrimSpace(username))]
	return ok
}

func (h *Handler) issueToken(username string) (string, error) {
	claims := &mw.Claims{
		Username: username,
		UserHash: mw.UserHashFromUsername(username, h.JWTKey),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.JWTKey)
}

// PasswordHash returns a bcrypt hash for manual user registration. Only
// configured admins that still have an account may call it.
func (h *Handler) PasswordHash(c echo.Context) error {
	requester, _ := c.Get("username").(string)
	requester = strings.TrimSpace(requester)
	if requester == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	if _, err := h.users.User(c.Request().Context(), requester); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		return httpError(err)
	}
	if !h.isAdmin(requester) {
		return echo.NewHTTPError(http.StatusForbidden, "admin access required")
	}

	var creds credentials
	if err := c.Bind(&creds); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	hash, err := HashPasswordForUser(creds.Username, creds.Password)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"username":      strings.TrimSpace(creds.Username),
		"password_hash": hash,
	})
}

// Signin checks credentials against the user store and returns a JWT valid
// for 30 days.
func (h *Handler) Signin(c echo.Context) error {
	var creds credentials
	if err := c.Bind(&creds); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	creds.Username = strings.TrimSpace(creds.Username)
	if creds.Username == "" || creds.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username and password are required")
	}

	user, err := h.users.User(c.Request().Context(), creds.Username)
	if err == nil {
		err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password))
	}
	if err != nil {
		h.log.Warn("signin failed", zap.String("username", creds.Username), zap.Error(err))
		return signinError(err)
	}

	token, err := h.issueToken(user.Username)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.log.Info("signed in", zap.String("username", user.Username))
	return c.JSON(http.StatusOK, map[string]string{"token": token})
}
