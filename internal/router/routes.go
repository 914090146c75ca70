package router

import (
	"github.com/labstack/echo/v4"

	"github.com/eunhae2004/MakeFinalProject-main/internal/handler"
)

// registerAuth mounts the unauthenticated token endpoints behind the rate
// limiter.
func registerAuth(api *echo.Group, a *handler.AuthHandler, limit echo.MiddlewareFunc) {
	g := api.Group("/auth", limit)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)
}

func registerUsers(api *echo.Group, u *handler.UserHandler, auth echo.MiddlewareFunc) {
	g := api.Group("/users/me", auth)
	g.GET("", u.Me)
	g.PATCH("", u.UpdateMe)
	g.DELETE("", u.DeleteMe)
	g.GET("/preferences", u.Preferences)
	g.PATCH("/preferences", u.UpdatePreferences)
}

func registerPlants(api *echo.Group, p *handler.PlantHandler, img *handler.ImageHandler, auth echo.MiddlewareFunc) {
	g := api.Group("/plants", auth)
	g.POST("", p.Create)
	g.GET("", p.List)
	g.GET("/:id", p.Get)
	g.PATCH("/:id", p.Update)
	g.DELETE("/:id", p.Delete)

	g.POST("/:id/humidity", p.RecordHumidity)
	g.GET("/:id/humidity", p.ListHumidity)

	g.POST("/:id/images", img.Upload)
	g.GET("/:id/images", img.List)
	g.GET("/:id/images/:image_id", img.Get)
	g.DELETE("/:id/images/:image_id", img.Delete)
}

func registerDiaries(api *echo.Group, d *handler.DiaryHandler, img *handler.ImageHandler, auth echo.MiddlewareFunc) {
	g := api.Group("/diaries", auth)
	g.POST("", d.Create)
	g.GET("", d.List)
	g.GET("/:id", d.Get)
	g.PATCH("/:id", d.Update)
	g.DELETE("/:id", d.Delete)

	g.POST("/:id/images", img.Upload)
	g.GET("/:id/images", img.List)
	g.GET("/:id/images/:image_id", img.Get)
	g.DELETE("/:id/images/:image_id", img.Delete)
}

// registerWiki serves reads publicly through the response cache; curation
// requires a token and empties the cache when it succeeds.
func registerWiki(api *echo.Group, w *handler.WikiHandler, auth, cache, invalidate echo.MiddlewareFunc) {
	pub := api.Group("/wiki", cache)
	pub.GET("/plants", w.ListPlants)
	pub.GET("/plants/:id", w.GetPlant)
	pub.GET("/pests", w.ListPests)
	pub.GET("/pests/:id", w.GetPest)

	cur := api.Group("/wiki", auth, invalidate)
	cur.POST("/plants", w.CreatePlant)
	cur.PATCH("/plants/:id", w.UpdatePlant)
	cur.DELETE("/plants/:id", w.DeletePlant)
	cur.POST("/pests", w.CreatePest)
	cur.PATCH("/pests/:id", w.UpdatePest)
	cur.DELETE("/pests/:id", w.DeletePest)
}

func registerDashboard(api *echo.Group, d *handler.DashboardHandler, auth echo.MiddlewareFunc) {
	g := api.Group("/dashboard", auth)
	g.GET("/summary", d.Summary)
	g.GET("/plants", d.Plants)
}
