// Package layoutsource fetches the layout counts of a book fair, either from
// the external layout API or from organiser-managed rows in MySQL.
package layoutsource

import (
	"context"
	"errors"

	"github.com/iliyamo/bookfair-stall-reservation/internal/floorplan"
	"github.com/iliyamo/bookfair-stall-reservation/internal/metrics"
	"github.com/iliyamo/bookfair-stall-reservation/internal/repository"
)

// ErrBookFairNotFound is returned when no layout exists for a book fair.
var ErrBookFairNotFound = errors.New("book fair not found")

// ErrUnavailable is returned when the layout backend cannot be reached.
var ErrUnavailable = errors.New("layout source unavailable")

// Source returns the layout counts of a book fair.
type Source interface {
	Counts(ctx context.Context, bookFairID string) (floorplan.Counts, error)
}

// Repo adapts the MySQL layout table to Source.
type Repo struct {
	Layouts *repository.LayoutRepo
}

// Counts implements Source.
func (r Repo) Counts(ctx context.Context, bookFairID string) (floorplan.Counts, error) {
	c, err := r.Layouts.Counts(ctx, bookFairID)
	if errors.Is(err, repository.ErrLayoutNotFound) {
		return floorplan.Counts{}, ErrBookFairNotFound
	}
	return c, err
}

// Instrumented records a metric for every fetch of the wrapped source.
type Instrumented struct {
	Name string
	Next Source
}

// Counts implements Source.
func (i Instrumented) Counts(ctx context.Context, bookFairID string) (floorplan.Counts, error) {
	c, err := i.Next.Counts(ctx, bookFairID)
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrBookFairNotFound):
		result = "not_found"
	case errors.Is(err, floorplan.ErrInvalidLayout):
		result = "invalid"
	default:
		result = "error"
	}
	metrics.LayoutFetches.WithLabelValues(i.Name, result).Inc()
	return c, err
}
