// Package router registers the HTTP routes of the stall reservation API.
package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bookfair-stall-reservation/internal/auth"
	"github.com/iliyamo/bookfair-stall-reservation/internal/handler"
	"github.com/iliyamo/bookfair-stall-reservation/internal/middleware"
	"github.com/iliyamo/bookfair-stall-reservation/internal/model"
)

// RegisterRoutes registers the unauthenticated operational endpoints.
func RegisterRoutes(e *echo.Echo, health echo.HandlerFunc, metrics http.Handler) {
	e.GET("/healthz", health)
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics))
	}
}

// RegisterAuth registers the token endpoints under /v1/auth and GET /v1/me.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, v auth.Verifier) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh) // rotates the refresh token
	g.POST("/logout", a.Logout)   // refresh_token in body, or bearer for all devices

	e.GET("/v1/me", a.Me,
		middleware.RequireAuth(v),
		middleware.RequireRole(model.RoleOrganizer, model.RolePublisher))
}

// RegisterPublic registers the read-only floor plan and price list.  cache
// wraps the layout endpoints.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	// LayoutPaths must list every cached route here.
	e.GET("/v1/bookfairs/:id/layout", p.Layout, cache)
	e.GET("/v1/bookfairs/:id/layout.svg", p.SVG, cache)
	e.GET("/v1/pricing", p.PriceList)
}

// LayoutPaths lists the cached URLs that show the floor plan of a book fair,
// for purging after its layout or allocations change.
func LayoutPaths(bookFairID string) []string {
	return []string{
		"/v1/bookfairs/" + bookFairID + "/layout",
		"/v1/bookfairs/" + bookFairID + "/layout.svg",
	}
}
