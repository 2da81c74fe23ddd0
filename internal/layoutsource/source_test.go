package layoutsource

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/bookfair-stall-reservation/internal/floorplan"
)

type fixed struct {
	c   floorplan.Counts
	err error
}

func (f fixed) Counts(context.Context, string) (floorplan.Counts, error) { return f.c, f.err }

func TestInstrumentedPassesThrough(t *testing.T) {
	want := floorplan.Counts{InnerRing: 4}
	got, err := Instrumented{Name: "test", Next: fixed{c: want}}.Counts(context.Background(), "f")
	assert.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = Instrumented{Name: "test", Next: fixed{err: ErrBookFairNotFound}}.Counts(context.Background(), "f")
	assert.ErrorIs(t, err, ErrBookFairNotFound)
}
