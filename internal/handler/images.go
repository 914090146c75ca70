package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eunhae2004/MakeFinalProject-main/internal/pagination"
	"github.com/eunhae2004/MakeFinalProject-main/internal/service"
)

// ImageHandler serves images attached to one kind of owner (plant or
// diary); the owner id is the :id path parameter.
type ImageHandler struct {
	Images    *service.ImageService
	OwnerKind string
}

func NewImageHandler(images *service.ImageService, ownerKind string) *ImageHandler {
	return &ImageHandler{Images: images, OwnerKind: ownerKind}
}

// Upload expects multipart/form-data with a "file" part and optional
// "type" and "note" fields.
func (h *ImageHandler) Upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return badRequest("file is required")
		}
		return badRequest("invalid multipart body")
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	img, err := h.Images.Upload(c.Request().Context(), userID(c), service.UploadInput{
		OwnerKind: h.OwnerKind,
		OwnerID:   c.Param("id"),
		Filename:  fh.Filename,
		Body:      f,
		Type:      c.FormValue("type"),
		Note:      c.FormValue("note"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toImage(img))
}

func (h *ImageHandler) List(c echo.Context) error {
	limit, cursor, err := paging(c, "limit", "cursor")
	if err != nil {
		return err
	}
	p, err := h.Images.List(c.Request().Context(), userID(c), h.OwnerKind, c.Param("id"), limit, cursor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.MapPage(p, toImage))
}

func (h *ImageHandler) Get(c echo.Context) error {
	img, err := h.Images.Get(c.Request().Context(), userID(c), h.OwnerKind, c.Param("id"), c.Param("image_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toImage(img))
}

func (h *ImageHandler) Delete(c echo.Context) error {
	if err := h.Images.Delete(c.Request().Context(), userID(c), h.OwnerKind, c.Param("id"), c.Param("image_id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
