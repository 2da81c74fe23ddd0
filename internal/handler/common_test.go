package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/bookfair-stall-reservation/internal/floorplan"
	"github.com/iliyamo/bookfair-stall-reservation/internal/layoutsource"
	"github.com/iliyamo/bookfair-stall-reservation/internal/pricing"
	"github.com/iliyamo/bookfair-stall-reservation/internal/repository"
	"github.com/iliyamo/bookfair-stall-reservation/internal/selection"
	"github.com/iliyamo/bookfair-stall-reservation/internal/session"
)

func TestFailStatusCodes(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("top: %w", floorplan.ErrInvalidLayout), http.StatusUnprocessableEntity},
		{layoutsource.ErrBookFairNotFound, http.StatusNotFound},
		{session.ErrSessionNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: Z-9", selection.ErrUnknownStall), http.StatusNotFound},
		{&selection.LimitError{Max: 3}, http.StatusConflict},
		{selection.ErrNothingPending, http.StatusConflict},
		{pricing.ErrEmptySelection, http.StatusBadRequest},
		{repository.ErrConflict, http.StatusConflict},
		{repository.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("%w: breaker open", layoutsource.ErrUnavailable), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	e := echo.New()
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		assert.NoError(t, fail(c, tc.err))
		assert.Equal(t, tc.want, rec.Code, tc.err.Error())
	}
}

func TestFailLimitBody(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
	_ = fail(c, &selection.LimitError{Max: 3})
	assert.JSONEq(t, `{"error":"you can select at most 3 stalls","limit":3}`, rec.Body.String())
}

type breaker string

func (b breaker) State() string { return string(b) }

func TestHealthReportsBreaker(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/healthz", nil), rec)
	assert.NoError(t, Health(breaker("open"))(c))
	assert.JSONEq(t, `{"status":"ok","layout_api":"open"}`, rec.Body.String())
}
