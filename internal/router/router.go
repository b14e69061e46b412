// Package router maps HTTP routes to handlers and their middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/silverscreen/movie-booking/internal/handler"
	"github.com/silverscreen/movie-booking/internal/middleware"
	"github.com/silverscreen/movie-booking/internal/model"
)

// RegisterRoutes registers routes with no authentication at all.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the auth endpoints.  Register, login and the
// refresh flows are open; logout-everywhere and /v1/me require a valid
// access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout with a refresh_token in the body needs no access token.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
	auth.POST("/logout", a.Logout)
}

// RegisterPublic registers the unauthenticated browse endpoints.  The
// cache middleware applies to the catalog routes only; the seat
// availability snapshot is always served fresh.
func RegisterPublic(e *echo.Echo, b *handler.BrowseHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/movies", b.ListMovies, cache)
	e.GET("/v1/movies/:id", b.GetMovie, cache)
	e.GET("/v1/movies/:id/shows", b.ListShowsForMovie, cache)
	e.GET("/v1/theatres", b.ListTheatres, cache)
	e.GET("/v1/theatres/:id/screens", b.ListScreens, cache)
	e.GET("/v1/shows", b.ListShows, cache)
	e.GET("/v1/shows/:id", b.GetShow, cache)
	e.GET("/v1/shows/:id/seats", b.GetShowSeats)
}

// RegisterCustomer registers the reservation flow for authenticated
// customers.  The rate limiter shields the contended reserve/confirm
// endpoints.
func RegisterCustomer(e *echo.Echo, bk *handler.BookingHandler, jwtSecret string, ratelimit echo.MiddlewareFunc) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleCustomer, model.RoleAdmin))
	g.POST("/shows/:id/reserve", bk.Reserve, ratelimit)
	g.POST("/shows/:id/confirm", bk.Confirm, ratelimit)
	g.DELETE("/shows/:id/reserve", bk.Release)
	g.GET("/my-bookings", bk.ListMyBookings)
	g.GET("/bookings/:id", bk.GetBooking)
}

// RegisterAdmin registers the catalog and scheduling endpoints, ADMIN
// role only.
func RegisterAdmin(e *echo.Echo, cat *handler.AdminCatalogHandler, shows *handler.AdminShowHandler, jwtSecret string) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleAdmin))
	g.POST("/movies", cat.CreateMovie)
	g.POST("/theatres", cat.CreateTheatre)
	g.POST("/theatres/:id/screens", cat.CreateScreen)
	g.POST("/shows", shows.CreateShow)
	g.GET("/shows/:id/bookings", shows.ListShowBookings)
}
