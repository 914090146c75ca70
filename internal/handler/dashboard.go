package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eunhae2004/MakeFinalProject-main/internal/service"
)

type DashboardHandler struct {
	Dashboard *service.DashboardService
}

func NewDashboardHandler(d *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{Dashboard: d}
}

// Summary takes limit_plants (1..50, default 5) and cursor_plants.
func (h *DashboardHandler) Summary(c echo.Context) error {
	limit, cursor, err := paging(c, "limit_plants", "cursor_plants")
	if err != nil {
		return err
	}
	s, err := h.Dashboard.Summary(c.Request().Context(), userID(c), limit, cursor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s)
}

func (h *DashboardHandler) Plants(c echo.Context) error {
	limit, cursor, err := paging(c, "limit", "cursor")
	if err != nil {
		return err
	}
	p, err := h.Dashboard.Plants(c.Request().Context(), userID(c), limit, cursor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}
