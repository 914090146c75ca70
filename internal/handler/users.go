package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eunhae2004/MakeFinalProject-main/internal/service"
)

type UserHandler struct {
	Users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{Users: users}
}

type updateMeReq struct {
	Nickname  *string `json:"nickname"`
	AvatarURL *string `json:"avatar_url"`
	Phone     *string `json:"phone"`
	Password  *string `json:"password"`
}

type preferencesReq struct {
	WeatherLocation *weatherLocation `json:"weather_location"`
}

func (h *UserHandler) Me(c echo.Context) error {
	u, err := h.Users.Me(c.Request().Context(), userID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUser(u))
}

func (h *UserHandler) UpdateMe(c echo.Context) error {
	var req updateMeReq
	if err := bind(c, &req); err != nil {
		return err
	}
	u, err := h.Users.UpdateMe(c.Request().Context(), userID(c), service.UserPatch{
		Nickname:  req.Nickname,
		AvatarURL: req.AvatarURL,
		Phone:     req.Phone,
		Password:  req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUser(u))
}

// DeleteMe removes the account with everything it owns.
func (h *UserHandler) DeleteMe(c echo.Context) error {
	if err := h.Users.DeleteMe(c.Request().Context(), userID(c)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *UserHandler) Preferences(c echo.Context) error {
	p, err := h.Users.Preferences(c.Request().Context(), userID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPreferences(p))
}

func (h *UserHandler) UpdatePreferences(c echo.Context) error {
	var req preferencesReq
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.WeatherLocation == nil {
		return badRequest("weather_location requires 'location_code' and 'name'")
	}
	p, err := h.Users.UpdatePreferences(c.Request().Context(), userID(c), req.WeatherLocation.LocationCode, req.WeatherLocation.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPreferences(p))
}
