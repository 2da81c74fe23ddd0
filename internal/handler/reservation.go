package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/bookfair-stall-reservation/internal/model"
	"github.com/iliyamo/bookfair-stall-reservation/internal/repository"
	"github.com/iliyamo/bookfair-stall-reservation/internal/session"
)

// ReservationStore is the reservation persistence behind the listing and
// cancellation endpoints.
type ReservationStore interface {
	GetByID(ctx context.Context, id uint64) (model.Reservation, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error)
	ListByBookFair(ctx context.Context, bookFairID string) ([]model.Reservation, error)
	Cancel(ctx context.Context, id uint64, userID *uint64) error
}

// ReservationHandler lists and cancels reservations for publishers and
// organisers.
type ReservationHandler struct {
	Reservations ReservationStore
	// Sessions frees cancelled stalls in the session they were checked out
	// from.  Optional.
	Sessions *session.Service
}

// ListMine handles GET /v1/my-reservations.
func (h *ReservationHandler) ListMine(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := timeout(c)
	defer cancel()
	items, err := h.Reservations.ListByUser(ctx, p.UserID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": nonNil(items)})
}

// GetMine handles GET /v1/my-reservations/:id.  Other users' reservations
// are reported as not found.
func (h *ReservationHandler) GetMine(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := timeout(c)
	defer cancel()
	res, err := h.Reservations.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	if res.UserID != p.UserID {
		return fail(c, repository.ErrReservationNotFound)
	}
	return c.JSON(http.StatusOK, res)
}

// CancelMine handles DELETE /v1/my-reservations/:id.
func (h *ReservationHandler) CancelMine(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	return h.cancel(c, &p.UserID)
}

// ListByBookFair handles GET /v1/admin/bookfairs/:id/reservations.
func (h *ReservationHandler) ListByBookFair(c echo.Context) error {
	ctx, cancel := timeout(c)
	defer cancel()
	items, err := h.Reservations.ListByBookFair(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": nonNil(items)})
}

// CancelAny handles DELETE /v1/admin/reservations/:id.
func (h *ReservationHandler) CancelAny(c echo.Context) error {
	return h.cancel(c, nil)
}

func (h *ReservationHandler) cancel(c echo.Context, userID *uint64) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := timeout(c)
	defer cancel()
	err := h.Reservations.Cancel(ctx, id, userID)
	if errors.Is(err, repository.ErrConflict) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation already cancelled"})
	}
	if err != nil {
		return fail(c, err)
	}
	if h.Sessions != nil {
		res, err := h.Reservations.GetByID(ctx, id)
		if err == nil {
			err = h.Sessions.Release(ctx, res)
		}
		if err != nil {
			log.WithError(err).WithField("reservation_id", id).Warn("release cancelled stalls failed")
		}
	}
	return c.NoContent(http.StatusNoContent)
}

func nonNil(items []model.Reservation) []model.Reservation {
	if items == nil {
		return []model.Reservation{}
	}
	return items
}
