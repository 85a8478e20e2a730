package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/padraicbc/f1sim/models"
	"github.com/padraicbc/f1sim/service"
)

type circuitData struct {
	CircuitID int    `json:"circuitID"`
	Ref       string `json:"ref"`
	Name      string `json:"name"`
	Country   string `json:"country,omitempty"`
	Laps      int    `json:"laps"`
}

type saveCircuitRequest struct {
	Ref     string `json:"ref"`
	Name    string `json:"name"`
	Country string `json:"country"`
	Laps    int    `json:"laps"`
}

// Circuits returns all circuits ordered by name.
func (h *Handler) Circuits(c echo.Context) error {
	circuits, err := h.svc.Circuits(c.Request().Context())
	if err != nil {
		return httpError(err)
	}

	result := make([]circuitData, len(circuits))
	for i, cr := range circuits {
		result[i] = toCircuitData(cr)
	}
	return c.JSON(http.StatusOK, result)
}

// SaveCircuit inserts a circuit or updates the one with the same ref.
func (h *Handler) SaveCircuit(c echo.Context) error {
	var req saveCircuitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	req.Ref = service.CourseRef(req.Ref)
	req.Name = strings.TrimSpace(req.Name)
	req.Country = strings.TrimSpace(req.Country)

	if req.Ref == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "ref is required")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	if req.Laps < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "laps must not be negative")
	}

	circuit := &models.Circuit{
		Ref:     req.Ref,
		Name:    req.Name,
		Country: req.Country,
		Laps:    req.Laps,
	}
	if err := h.svc.SaveCircuit(c.Request().Context(), circuit); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, toCircuitData(*circuit))
}

func toCircuitData(c models.Circuit) circuitData {
	return circuitData{
		CircuitID: c.CircuitID,
		Ref:       c.Ref,
		Name:      c.Name,
		Country:   c.Country,
		Laps:      c.Laps,
	}
}
