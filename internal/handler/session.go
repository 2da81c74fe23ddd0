package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bookfair-stall-reservation/internal/floorplan"
	"github.com/iliyamo/bookfair-stall-reservation/internal/model"
	"github.com/iliyamo/bookfair-stall-reservation/internal/pricing"
	"github.com/iliyamo/bookfair-stall-reservation/internal/selection"
	"github.com/iliyamo/bookfair-stall-reservation/internal/session"
)

// SessionHandler exposes the stall selection workflow.  A session is only
// visible to the publisher who started it and to organisers.
type SessionHandler struct {
	Sessions *session.Service
}

type sessionResp struct {
	ID         string                      `json:"id"`
	BookFairID string                      `json:"book_fair_id"`
	ExpiresAt  time.Time                   `json:"expires_at"`
	MaxHeld    int                         `json:"max_held"`
	Width      float64                     `json:"width,omitempty"`
	Height     float64                     `json:"height,omitempty"`
	Shapes     []floorplan.Shape           `json:"shapes,omitempty"`
	Statuses   map[string]selection.Status `json:"statuses"`
	Held       []string                    `json:"held"`
	Pending    string                      `json:"pending,omitempty"`
	Counts     map[selection.Status]int    `json:"counts"`
}

func toSessionResp(s *session.Session, withShapes bool) sessionResp {
	pending, _ := s.Selection.Pending()
	out := sessionResp{
		ID:         s.ID,
		BookFairID: s.BookFairID,
		ExpiresAt:  s.ExpiresAt,
		MaxHeld:    s.Selection.Max(),
		Statuses:   s.Selection.Statuses(),
		Held:       s.Selection.Held(),
		Pending:    pending,
		Counts:     s.Selection.Counts(),
	}
	if withShapes {
		out.Width, out.Height, out.Shapes = s.Layout.Width, s.Layout.Height, s.Layout.Shapes
	}
	return out
}

// Start handles POST /v1/sessions.
func (h *SessionHandler) Start(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	var req struct {
		BookFairID string `json:"book_fair_id"`
	}
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.BookFairID) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "book_fair_id required"})
	}
	ctx, cancel := timeout(c)
	defer cancel()
	s, err := h.Sessions.Start(ctx, strings.TrimSpace(req.BookFairID), p.UserID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, toSessionResp(s, true))
}

// Get handles GET /v1/sessions/:id.
func (h *SessionHandler) Get(c echo.Context) error {
	s, err := h.owned(c)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toSessionResp(s, true))
}

// Toggle handles POST /v1/sessions/:id/stalls/:stall/toggle.
func (h *SessionHandler) Toggle(c echo.Context) error {
	if _, err := h.owned(c); err != nil {
		return fail(c, err)
	}
	ctx, cancel := timeout(c)
	defer cancel()
	s, st, err := h.Sessions.Toggle(ctx, c.Param("id"), c.Param("stall"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"stall": c.Param("stall"), "status": st, "session": toSessionResp(s, false)})
}

// Stage handles POST /v1/sessions/:id/stalls/:stall/stage.
func (h *SessionHandler) Stage(c echo.Context) error {
	if _, err := h.owned(c); err != nil {
		return fail(c, err)
	}
	ctx, cancel := timeout(c)
	defer cancel()
	s, err := h.Sessions.Stage(ctx, c.Param("id"), c.Param("stall"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toSessionResp(s, false))
}

// ConfirmPending handles POST /v1/sessions/:id/pending/confirm.
func (h *SessionHandler) ConfirmPending(c echo.Context) error {
	if _, err := h.owned(c); err != nil {
		return fail(c, err)
	}
	ctx, cancel := timeout(c)
	defer cancel()
	s, stall, err := h.Sessions.Confirm(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"stall": stall, "session": toSessionResp(s, false)})
}

// CancelPending handles DELETE /v1/sessions/:id/pending.
func (h *SessionHandler) CancelPending(c echo.Context) error {
	if _, err := h.owned(c); err != nil {
		return fail(c, err)
	}
	ctx, cancel := timeout(c)
	defer cancel()
	s, stall, err := h.Sessions.Cancel(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"stall": stall, "session": toSessionResp(s, false)})
}

// Summary handles GET /v1/sessions/:id/summary.
func (h *SessionHandler) Summary(c echo.Context) error {
	if _, err := h.owned(c); err != nil {
		return fail(c, err)
	}
	ctx, cancel := timeout(c)
	defer cancel()
	sum, err := h.Sessions.Summary(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, sum)
}

// Checkout handles POST /v1/sessions/:id/checkout.
func (h *SessionHandler) Checkout(c echo.Context) error {
	if _, err := h.owned(c); err != nil {
		return fail(c, err)
	}
	ctx, cancel := timeout(c)
	defer cancel()
	res, sum, err := h.Sessions.Checkout(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, struct {
		Reservation model.Reservation `json:"reservation"`
		Summary     pricing.Summary   `json:"summary"`
	}{res, sum})
}

// End handles DELETE /v1/sessions/:id.
func (h *SessionHandler) End(c echo.Context) error {
	if _, err := h.owned(c); err != nil {
		return fail(c, err)
	}
	ctx, cancel := timeout(c)
	defer cancel()
	if err := h.Sessions.End(ctx, c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// owned loads the session named in the path if the caller may see it.
// Sessions of other publishers are reported as not found.
func (h *SessionHandler) owned(c echo.Context) (*session.Session, error) {
	p, ok := principal(c)
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	ctx, cancel := timeout(c)
	defer cancel()
	s, err := h.Sessions.Get(ctx, c.Param("id"))
	if err != nil {
		return nil, err
	}
	if s.UserID != p.UserID && !p.IsOrganizer() {
		return nil, session.ErrSessionNotFound
	}
	return s, nil
}
