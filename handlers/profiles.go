package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/padraicbc/f1sim/models"
	"github.com/padraicbc/f1sim/service"
)

// Profiles returns the fitted profiles for a course and season.
func (h *Handler) Profiles(c echo.Context) error {
	course := service.CourseRef(c.QueryParam("course"))
	if course == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing course param")
	}
	year, err := strconv.Atoi(c.QueryParam("year"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing or invalid year param")
	}

	profiles, err := h.svc.Profiles(c.Request().Context(), course, year)
	if err != nil {
		return httpError(err)
	}
	if profiles == nil {
		profiles = []models.Profile{}
	}
	return c.JSON(http.StatusOK, profiles)
}

// SaveProfile inserts or replaces a fitted profile.
func (h *Handler) SaveProfile(c echo.Context) error {
	var p models.Profile
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p.ID = 0
	p.Driver = strings.TrimSpace(p.Driver)
	p.Constructor = strings.TrimSpace(p.Constructor)

	if err := h.svc.SaveProfile(c.Request().Context(), &p); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, p)
}
