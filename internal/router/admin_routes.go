package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bookfair-stall-reservation/internal/auth"
	"github.com/iliyamo/bookfair-stall-reservation/internal/handler"
	"github.com/iliyamo/bookfair-stall-reservation/internal/middleware"
	"github.com/iliyamo/bookfair-stall-reservation/internal/model"
)

// RegisterAdmin registers the organiser portal endpoints under /v1/admin.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, r *handler.ReservationHandler, v auth.Verifier) {
	g := e.Group("/v1/admin",
		middleware.RequireAuth(v),
		middleware.RequireRole(model.RoleOrganizer),
	)
	g.POST("/sessions/:id/process", a.Process)
	g.POST("/sessions/:id/book", a.Book)
	g.POST("/sessions/:id/clear-held", a.ClearHeld)

	g.GET("/bookfairs/:id/layout", a.GetLayout)
	g.PUT("/bookfairs/:id/layout", a.PutLayout)
	g.GET("/bookfairs/:id/reservations", r.ListByBookFair)
	g.DELETE("/reservations/:id", r.CancelAny)

	g.GET("/users", a.ListUsers)
	g.PATCH("/users/:id", a.SetUserActive)
}
