package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/padraicbc/f1sim/service"
	"github.com/padraicbc/f1sim/sim"
	"github.com/padraicbc/f1sim/store"
)

// Handler holds shared dependencies used by all route handlers.
type Handler struct {
	svc      *service.Service
	users    store.UserStore
	admins   map[string]struct{}
	log      *zap.Logger
	upgrader websocket.Upgrader
	JWTKey   []byte
}

// New creates a Handler. admins lists the usernames allowed to call
// PasswordHash; they are matched case-insensitively.
func New(svc *service.Service, users store.UserStore, admins []string, log *zap.Logger, jwtKey []byte) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	set := make(map[string]struct{}, len(admins))
	for _, a := range admins {
		if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
			set[a] = struct{}{}
		}
	}
	return &Handler{
		svc:    svc,
		users:  users,
		admins: set,
		log:    log,
		JWTKey: jwtKey,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Register mounts the simulation routes on g.
func (h *Handler) Register(g *echo.Group) {
	g.POST("/races", h.Simulate)
	g.POST("/batch", h.SimulateBatch)
	g.GET("/runs", h.Runs)
	g.GET("/runs/:id", h.Run)
	g.GET("/runs/:id/laps", h.RunLaps)
	g.GET("/profiles", h.Profiles)
	g.POST("/profiles", h.SaveProfile)
	g.GET("/circuits", h.Circuits)
	g.POST("/circuits", h.SaveCircuit)
	g.GET("/live", h.Live)
	g.POST("/password-hash", h.PasswordHash)
}

// httpError maps domain errors onto HTTP status codes.
func httpError(err error) error {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, sim.ErrInvalidInput), errors.Is(err, store.ErrInvalidInput):
		code = http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, store.ErrDuplicateKey):
		code = http.StatusConflict
	}
	return echo.NewHTTPError(code, err.Error())
}
