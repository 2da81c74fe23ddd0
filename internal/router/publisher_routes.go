package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bookfair-stall-reservation/internal/auth"
	"github.com/iliyamo/bookfair-stall-reservation/internal/handler"
	"github.com/iliyamo/bookfair-stall-reservation/internal/middleware"
	"github.com/iliyamo/bookfair-stall-reservation/internal/model"
)

// RegisterPublisher registers the selection workflow and the caller's own
// reservations.  Organisers may use these routes too, e.g. to book on
// behalf of a publisher.
func RegisterPublisher(e *echo.Echo, s *handler.SessionHandler, r *handler.ReservationHandler, v auth.Verifier) {
	g := e.Group("/v1",
		middleware.RequireAuth(v),
		middleware.RequireRole(model.RolePublisher, model.RoleOrganizer),
	)
	g.POST("/sessions", s.Start)
	g.GET("/sessions/:id", s.Get)
	g.DELETE("/sessions/:id", s.End)
	g.POST("/sessions/:id/stalls/:stall/toggle", s.Toggle)
	g.POST("/sessions/:id/stalls/:stall/stage", s.Stage)
	g.POST("/sessions/:id/pending/confirm", s.ConfirmPending)
	g.DELETE("/sessions/:id/pending", s.CancelPending)
	g.GET("/sessions/:id/summary", s.Summary)
	g.POST("/sessions/:id/checkout", s.Checkout)

	g.GET("/my-reservations", r.ListMine)
	g.GET("/my-reservations/:id", r.GetMine)
	g.DELETE("/my-reservations/:id", r.CancelMine)
}
