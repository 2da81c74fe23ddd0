package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/bookfair-stall-reservation/internal/auth"
	"github.com/iliyamo/bookfair-stall-reservation/internal/floorplan"
	"github.com/iliyamo/bookfair-stall-reservation/internal/layoutsource"
	"github.com/iliyamo/bookfair-stall-reservation/internal/middleware"
	"github.com/iliyamo/bookfair-stall-reservation/internal/pricing"
	"github.com/iliyamo/bookfair-stall-reservation/internal/repository"
	"github.com/iliyamo/bookfair-stall-reservation/internal/selection"
	"github.com/iliyamo/bookfair-stall-reservation/internal/session"
)

const requestTimeout = 5 * time.Second

// fail translates domain errors into JSON error responses.  Anything it
// does not recognise is logged and reported as 500.
func fail(c echo.Context, err error) error {
	var limit *selection.LimitError
	switch {
	case errors.As(err, &limit):
		return c.JSON(http.StatusConflict, echo.Map{"error": limit.Error(), "limit": limit.Max})
	case errors.Is(err, floorplan.ErrInvalidLayout):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	case errors.Is(err, layoutsource.ErrBookFairNotFound),
		errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, selection.ErrUnknownStall),
		errors.Is(err, repository.ErrReservationNotFound),
		errors.Is(err, repository.ErrLayoutNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, pricing.ErrEmptySelection):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, selection.ErrNotAvailable),
		errors.Is(err, selection.ErrNothingPending):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "one or more stalls are already allocated"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, layoutsource.ErrUnavailable):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "layout service unavailable"})
	}
	log.WithError(err).WithFields(log.Fields{
		"method": c.Request().Method,
		"path":   c.Request().URL.Path,
	}).Error("unhandled error")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// principal returns the authenticated caller.
func principal(c echo.Context) (auth.Principal, bool) {
	return middleware.PrincipalFrom(c)
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}

func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

func timeout(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}
