package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eunhae2004/MakeFinalProject-main/internal/pagination"
	"github.com/eunhae2004/MakeFinalProject-main/internal/service"
)

type PlantHandler struct {
	Plants *service.PlantService
}

func NewPlantHandler(plants *service.PlantService) *PlantHandler {
	return &PlantHandler{Plants: plants}
}

type plantReq struct {
	Nickname *string `json:"nickname"`
	Species  *string `json:"species"`
	PestID   *string `json:"pest_id"`
	MetOn    *string `json:"met_on"`
	Location *string `json:"location"`
}

type humidityReq struct {
	Humidity   *float64   `json:"humidity"`
	MeasuredAt *time.Time `json:"measured_at"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (h *PlantHandler) Create(c echo.Context) error {
	var req plantReq
	if err := bind(c, &req); err != nil {
		return err
	}
	metOn, err := parseDate("met_on", req.MetOn)
	if err != nil {
		return err
	}
	p, err := h.Plants.Create(c.Request().Context(), userID(c), service.PlantInput{
		Nickname: deref(req.Nickname),
		Species:  deref(req.Species),
		PestID:   deref(req.PestID),
		MetOn:    metOn,
		Location: deref(req.Location),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toPlant(p))
}

// List pages through the caller's plants; limit defaults to 10.
func (h *PlantHandler) List(c echo.Context) error {
	limit, cursor, err := paging(c, "limit", "cursor")
	if err != nil {
		return err
	}
	p, err := h.Plants.List(c.Request().Context(), userID(c), limit, cursor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.MapPage(p, toPlant))
}

func (h *PlantHandler) Get(c echo.Context) error {
	p, err := h.Plants.Owned(c.Request().Context(), userID(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPlant(p))
}

func (h *PlantHandler) Update(c echo.Context) error {
	var req plantReq
	if err := bind(c, &req); err != nil {
		return err
	}
	metOn, err := parseDate("met_on", req.MetOn)
	if err != nil {
		return err
	}
	p, err := h.Plants.Update(c.Request().Context(), userID(c), c.Param("id"), service.PlantPatch{
		Nickname: req.Nickname,
		Species:  req.Species,
		PestID:   req.PestID,
		MetOn:    metOn,
		Location: req.Location,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPlant(p))
}

func (h *PlantHandler) Delete(c echo.Context) error {
	if err := h.Plants.Delete(c.Request().Context(), userID(c), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// RecordHumidity answers 201 for a new reading and 200 when the same
// measured_at was already stored.
func (h *PlantHandler) RecordHumidity(c echo.Context) error {
	var req humidityReq
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Humidity == nil {
		return badRequest("humidity is required")
	}
	r, created, err := h.Plants.RecordHumidity(c.Request().Context(), userID(c), c.Param("id"), req.MeasuredAt, *req.Humidity)
	if err != nil {
		return err
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, toHumidity(r))
}

func (h *PlantHandler) ListHumidity(c echo.Context) error {
	limit, cursor, err := paging(c, "limit", "cursor")
	if err != nil {
		return err
	}
	p, err := h.Plants.ListHumidity(c.Request().Context(), userID(c), c.Param("id"), limit, cursor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.MapPage(p, toHumidity))
}
