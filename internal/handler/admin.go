package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/bookfair-stall-reservation/internal/floorplan"
	"github.com/iliyamo/bookfair-stall-reservation/internal/model"
	"github.com/iliyamo/bookfair-stall-reservation/internal/session"
)

// LayoutStore keeps organiser-managed layout counts.
type LayoutStore interface {
	Get(ctx context.Context, bookFairID string) (model.BookFairLayout, error)
	Upsert(ctx context.Context, bookFairID string, c floorplan.Counts, updatedBy uint64) error
}

// AdminHandler holds the organiser-only operations on sessions and layouts.
type AdminHandler struct {
	Sessions *session.Service
	Layouts  LayoutStore
	Users    UserDirectory
	Tokens   TokenRevoker // optional
	// Purge drops cached floor plans of a book fair after a layout change.
	Purge func(ctx context.Context, bookFairID string)
}

// Process handles POST /v1/admin/sessions/:id/process.
func (h *AdminHandler) Process(c echo.Context) error {
	ctx, cancel := timeout(c)
	defer cancel()
	moved, err := h.Sessions.MarkProcessing(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"processing": nonNilIDs(moved)})
}

// Book handles POST /v1/admin/sessions/:id/book.  The optional body
// {"stalls": [...]} limits which processing stalls are booked.
func (h *AdminHandler) Book(c echo.Context) error {
	var req struct {
		Stalls []string `json:"stalls"`
	}
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
		}
	}
	ctx, cancel := timeout(c)
	defer cancel()
	moved, err := h.Sessions.MarkBooked(ctx, c.Param("id"), req.Stalls)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"booked": nonNilIDs(moved)})
}

// ClearHeld handles POST /v1/admin/sessions/:id/clear-held.
func (h *AdminHandler) ClearHeld(c echo.Context) error {
	ctx, cancel := timeout(c)
	defer cancel()
	moved, err := h.Sessions.ClearHeld(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"released": nonNilIDs(moved)})
}

// GetLayout handles GET /v1/admin/bookfairs/:id/layout.
func (h *AdminHandler) GetLayout(c echo.Context) error {
	ctx, cancel := timeout(c)
	defer cancel()
	l, err := h.Layouts.Get(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

// PutLayout handles PUT /v1/admin/bookfairs/:id/layout.  The counts are
// validated by generating the layout before they are stored.
func (h *AdminHandler) PutLayout(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	var counts floorplan.Counts
	if err := c.Bind(&counts); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	layout, err := floorplan.Generate(counts)
	if err != nil {
		return fail(c, err)
	}

	id := c.Param("id")
	ctx, cancel := timeout(c)
	defer cancel()
	if err := h.Layouts.Upsert(ctx, id, counts, p.UserID); err != nil {
		return fail(c, err)
	}
	if h.Purge != nil {
		h.Purge(ctx, id)
	}
	log.WithFields(log.Fields{"book_fair_id": id, "stalls": len(layout.Shapes), "user_id": p.UserID}).Info("layout updated")
	return c.JSON(http.StatusOK, echo.Map{"book_fair_id": id, "counts": counts, "stalls": len(layout.Shapes)})
}

func nonNilIDs(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
