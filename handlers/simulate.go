package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/padraicbc/f1sim/service"
)

const maxBatch = 64

// Simulate runs one race and returns the final standings.
func (h *Handler) Simulate(c echo.Context) error {
	var req service.RaceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := h.svc.Simulate(c.Request().Context(), req, nil)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, res)
}

// SimulateBatch runs several independent races concurrently.
func (h *Handler) SimulateBatch(c echo.Context) error {
	var reqs []service.RaceRequest
	if err := c.Bind(&reqs); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(reqs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no races given")
	}
	if len(reqs) > maxBatch {
		return echo.NewHTTPError(http.StatusBadRequest, "too many races in one batch, max "+strconv.Itoa(maxBatch))
	}

	results, err := h.svc.SimulateBatch(c.Request().Context(), reqs)
	if err != nil {
		return httpError(err)
	}

	h.log.Info("batch simulated", zap.Int("races", len(results)))
	return c.JSON(http.StatusCreated, results)
}

// Runs lists recent simulations, newest first. Optional limit param, default 50.
func (h *Handler) Runs(c echo.Context) error {
	limit := 50
	if l := c.QueryParam("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}

	runs, err := h.svc.Runs(c.Request().Context(), limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, runs)
}

// Run returns a stored simulation.
func (h *Handler) Run(c echo.Context) error {
	res, err := h.svc.Run(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

// RunLaps returns every lap record of a stored simulation.
func (h *Handler) RunLaps(c echo.Context) error {
	laps, err := h.svc.Laps(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, laps)
}
