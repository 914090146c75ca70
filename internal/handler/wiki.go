package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eunhae2004/MakeFinalProject-main/internal/model"
	"github.com/eunhae2004/MakeFinalProject-main/internal/pagination"
	"github.com/eunhae2004/MakeFinalProject-main/internal/service"
)

// WikiHandler serves the public plant and pest reference and its curation
// endpoints.
type WikiHandler struct {
	Wiki *service.WikiService
}

func NewWikiHandler(wiki *service.WikiService) *WikiHandler {
	return &WikiHandler{Wiki: wiki}
}

type plantWikiReq struct {
	Species    *string `json:"species"`
	WikiImg    *string `json:"wiki_img"`
	Sunlight   *string `json:"sunlight"`
	Watering   *string `json:"watering"`
	Flowering  *string `json:"flowering"`
	Fertilizer *string `json:"fertilizer"`
	Toxic      *string `json:"toxic"`
}

func (r plantWikiReq) apply(w *model.PlantWiki) {
	for _, f := range []struct {
		dst *string
		src *string
	}{
		{&w.Species, r.Species}, {&w.WikiImg, r.WikiImg}, {&w.Sunlight, r.Sunlight},
		{&w.Watering, r.Watering}, {&w.Flowering, r.Flowering}, {&w.Fertilizer, r.Fertilizer},
		{&w.Toxic, r.Toxic},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
}

type pestWikiReq struct {
	PestID *string `json:"pest_id"`
	Cause  *string `json:"cause"`
	Cure   *string `json:"cure"`
}

func (r pestWikiReq) apply(w *model.PestWiki) {
	if r.PestID != nil {
		w.PestID = *r.PestID
	}
	if r.Cause != nil {
		w.Cause = *r.Cause
	}
	if r.Cure != nil {
		w.Cure = *r.Cure
	}
}

// ListPlants lists entries newest first, or looks one up when ?species= is
// given.
func (h *WikiHandler) ListPlants(c echo.Context) error {
	ctx := c.Request().Context()
	if species := strings.TrimSpace(c.QueryParam("species")); species != "" {
		w, err := h.Wiki.PlantBySpecies(ctx, species)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, toPlantWiki(w))
	}
	limit, cursor, err := paging(c, "limit", "cursor")
	if err != nil {
		return err
	}
	p, err := h.Wiki.ListPlants(ctx, limit, cursor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.MapPage(p, toPlantWiki))
}

func (h *WikiHandler) GetPlant(c echo.Context) error {
	id, err := pathInt64(c, "id")
	if err != nil {
		return err
	}
	w, err := h.Wiki.Plant(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPlantWiki(w))
}

func (h *WikiHandler) CreatePlant(c echo.Context) error {
	var req plantWikiReq
	if err := bind(c, &req); err != nil {
		return err
	}
	var w model.PlantWiki
	req.apply(&w)
	w, err := h.Wiki.CreatePlant(c.Request().Context(), w)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toPlantWiki(w))
}

// UpdatePlant applies the fields present in the body to the stored entry.
func (h *WikiHandler) UpdatePlant(c echo.Context) error {
	id, err := pathInt64(c, "id")
	if err != nil {
		return err
	}
	var req plantWikiReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	w, err := h.Wiki.Plant(ctx, id)
	if err != nil {
		return err
	}
	req.apply(&w)
	if w, err = h.Wiki.UpdatePlant(ctx, id, w); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPlantWiki(w))
}

func (h *WikiHandler) DeletePlant(c echo.Context) error {
	id, err := pathInt64(c, "id")
	if err != nil {
		return err
	}
	if err := h.Wiki.DeletePlant(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListPests lists entries newest first, or looks one up when ?pest_id= is
// given.
func (h *WikiHandler) ListPests(c echo.Context) error {
	ctx := c.Request().Context()
	if pestID := strings.TrimSpace(c.QueryParam("pest_id")); pestID != "" {
		w, err := h.Wiki.PestByPestID(ctx, pestID)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, toPestWiki(w))
	}
	limit, cursor, err := paging(c, "limit", "cursor")
	if err != nil {
		return err
	}
	p, err := h.Wiki.ListPests(ctx, limit, cursor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.MapPage(p, toPestWiki))
}

func (h *WikiHandler) GetPest(c echo.Context) error {
	id, err := pathInt64(c, "id")
	if err != nil {
		return err
	}
	w, err := h.Wiki.Pest(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPestWiki(w))
}

func (h *WikiHandler) CreatePest(c echo.Context) error {
	var req pestWikiReq
	if err := bind(c, &req); err != nil {
		return err
	}
	var w model.PestWiki
	req.apply(&w)
	w, err := h.Wiki.CreatePest(c.Request().Context(), w)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toPestWiki(w))
}

func (h *WikiHandler) UpdatePest(c echo.Context) error {
	id, err := pathInt64(c, "id")
	if err != nil {
		return err
	}
	var req pestWikiReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	w, err := h.Wiki.Pest(ctx, id)
	if err != nil {
		return err
	}
	req.apply(&w)
	if w, err = h.Wiki.UpdatePest(ctx, id, w); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPestWiki(w))
}

func (h *WikiHandler) DeletePest(c echo.Context) error {
	id, err := pathInt64(c, "id")
	if err != nil {
		return err
	}
	if err := h.Wiki.DeletePest(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
