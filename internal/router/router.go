// Package router assembles the echo instance: global middleware, error
// handling and every route of the API.
package router

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/eunhae2004/MakeFinalProject-main/internal/config"
	"github.com/eunhae2004/MakeFinalProject-main/internal/handler"
	"github.com/eunhae2004/MakeFinalProject-main/internal/metrics"
	"github.com/eunhae2004/MakeFinalProject-main/internal/middleware"
	"github.com/eunhae2004/MakeFinalProject-main/internal/model"
	"github.com/eunhae2004/MakeFinalProject-main/internal/service"
)

// Deps is what the router needs from the process. Redis, Metrics and DB
// may be nil.
type Deps struct {
	Config   *config.Config
	Log      zerolog.Logger
	Services *service.Services
	Tokens   middleware.TokenDecoder
	Metrics  *metrics.Metrics
	Redis    *redis.Client
	DB       handler.Pinger
}

// New builds the HTTP server.
func New(d Deps) *echo.Echo {
	cfg := d.Config
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler(d.Log)

	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.Metrics(d.Metrics))
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomw.Recover())
	// Leave headroom above the upload cap so oversized files are rejected by
	// the media store, which also cleans up the partial file.
	e.Use(echomw.BodyLimit(fmt.Sprintf("%dM", cfg.Media.MaxUploadMB+1)))
	if cfg.RequestTimeout > 0 {
		e.Use(echomw.ContextTimeout(cfg.RequestTimeout))
	}

	health := &handler.HealthHandler{DB: d.DB}
	e.GET("/healthz", health.Health)
	e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	e.Static(cfg.Media.URL, cfg.Media.Root)

	api := e.Group(cfg.APIPrefix)
	api.GET("/healthz", health.Health)

	s := d.Services
	auth := middleware.JWTAuth(d.Tokens)
	limiter := middleware.NewTokenBucket(cfg.RateLimit, d.Redis, d.Log)
	cache := middleware.NewResponseCache(cfg.Cache, d.Redis, d.Log)

	registerAuth(api, handler.NewAuthHandler(s.Auth), limiter.Middleware())
	registerUsers(api, handler.NewUserHandler(s.Users), auth)
	registerPlants(api, handler.NewPlantHandler(s.Plants), handler.NewImageHandler(s.Images, model.OwnerPlant), auth)
	registerDiaries(api, handler.NewDiaryHandler(s.Diaries), handler.NewImageHandler(s.Images, model.OwnerDiary), auth)
	registerWiki(api, handler.NewWikiHandler(s.Wiki), auth, cache.Middleware(), cache.Invalidate())
	registerDashboard(api, handler.NewDashboardHandler(s.Dashboard), auth)
	return e
}
