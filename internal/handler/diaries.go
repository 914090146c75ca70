package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eunhae2004/MakeFinalProject-main/internal/pagination"
	"github.com/eunhae2004/MakeFinalProject-main/internal/service"
)

type DiaryHandler struct {
	Diaries *service.DiaryService
}

func NewDiaryHandler(diaries *service.DiaryService) *DiaryHandler {
	return &DiaryHandler{Diaries: diaries}
}

type diaryReq struct {
	Title        *string `json:"title"`
	Content      *string `json:"content"`
	Hashtags     *string `json:"hashtags"`
	PlantContent *string `json:"plant_content"`
	Weather      *string `json:"weather"`
}

func (h *DiaryHandler) Create(c echo.Context) error {
	var req diaryReq
	if err := bind(c, &req); err != nil {
		return err
	}
	d, err := h.Diaries.Create(c.Request().Context(), userID(c), service.DiaryInput{
		Title:        deref(req.Title),
		Content:      deref(req.Content),
		Hashtags:     deref(req.Hashtags),
		PlantContent: deref(req.PlantContent),
		Weather:      deref(req.Weather),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toDiary(d))
}

func (h *DiaryHandler) List(c echo.Context) error {
	limit, cursor, err := paging(c, "limit", "cursor")
	if err != nil {
		return err
	}
	p, err := h.Diaries.List(c.Request().Context(), userID(c), limit, cursor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.MapPage(p, toDiary))
}

func (h *DiaryHandler) Get(c echo.Context) error {
	d, err := h.Diaries.Owned(c.Request().Context(), userID(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDiary(d))
}

func (h *DiaryHandler) Update(c echo.Context) error {
	var req diaryReq
	if err := bind(c, &req); err != nil {
		return err
	}
	d, err := h.Diaries.Update(c.Request().Context(), userID(c), c.Param("id"), service.DiaryPatch{
		Title:        req.Title,
		Content:      req.Content,
		Hashtags:     req.Hashtags,
		PlantContent: req.PlantContent,
		Weather:      req.Weather,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDiary(d))
}

func (h *DiaryHandler) Delete(c echo.Context) error {
	if err := h.Diaries.Delete(c.Request().Context(), userID(c), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
