package handlers

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/padraicbc/f1sim/service"
)

const (
	liveReadTimeout  = 30 * time.Second
	liveWriteTimeout = 10 * time.Second
)

type liveMessage struct {
	Type   string             `json:"type"`
	Lap    *service.LapUpdate `json:"lap,omitempty"`
	Result *service.Result    `json:"result,omitempty"`
	Error  string             `json:"error,omitempty"`
}

// Live upgrades to a websocket, reads one RaceRequest and streams a "lap"
// message after every lap followed by a single "result" or "error" message.
func (h *Handler) Live(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return nil
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(liveReadTimeout))
	var req service.RaceRequest
	if err := conn.ReadJSON(&req); err != nil {
		h.writeLive(conn, liveMessage{Type: "error", Error: "invalid race request: " + err.Error()})
		return nil
	}

	res, err := h.svc.Simulate(c.Request().Context(), req, func(u service.LapUpdate) error {
		return h.writeLive(conn, liveMessage{Type: "lap", Lap: &u})
	})
	if err != nil {
		h.log.Info("live race ended early", zap.String("course", req.Course), zap.Error(err))
		h.writeLive(conn, liveMessage{Type: "error", Error: err.Error()})
		return nil
	}

	if err := h.writeLive(conn, liveMessage{Type: "result", Result: res}); err != nil {
		return nil
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(liveWriteTimeout))
	return nil
}

func (h *Handler) writeLive(conn *websocket.Conn, msg liveMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
	if err := conn.WriteJSON(msg); err != nil {
		h.log.Debug("websocket write failed", zap.String("type", msg.Type), zap.Error(err))
		return err
	}
	return nil
}
