package floorplan

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridRowMajorIdentifiers(t *testing.T) {
	layout, err := Generate(Counts{TopRows: 2, TopCols: 8})
	require.NoError(t, err)
	require.Len(t, layout.Shapes, 16)

	for i, s := range layout.Shapes {
		require.Equal(t, KindRect, s.Kind)
		assert.Equal(t, fmt.Sprintf("T-%d", i+1), s.ID())
		assert.Equal(t, SizeMedium, s.Size())
		assert.Equal(t, "Hall A", s.Hall())
	}

	// first cell of the second row sits one cell height plus the gap below T-1
	first, second := layout.Shapes[0].Rect, layout.Shapes[8].Rect
	assert.Equal(t, 200.0, first.X)
	assert.Equal(t, 40.0, first.Y)
	assert.Equal(t, 69.75, first.Width)
	assert.Equal(t, 57.0, first.Height)
	assert.Equal(t, first.X, second.X)
	assert.Equal(t, 103.0, second.Y)
	assert.Equal(t, 275.75, layout.Shapes[1].Rect.X)
}

func TestGridCountMatchesRowsTimesCols(t *testing.T) {
	for rows := 1; rows <= 5; rows++ {
		for cols := 1; cols <= 7; cols++ {
			shapes, err := Grid(GridSpec{Hall: "H", Prefix: "Z", X: 0, Y: 0, Width: 500, Height: 300, Rows: rows, Cols: cols, GapX: 4, GapY: 4})
			require.NoError(t, err)
			require.Len(t, shapes, rows*cols)
			seen := map[string]bool{}
			for _, s := range shapes {
				require.False(t, seen[s.ID()], "duplicate %s", s.ID())
				seen[s.ID()] = true
			}
			assert.Equal(t, fmt.Sprintf("Z-%d", rows*cols), shapes[len(shapes)-1].ID())
		}
	}
}

func TestGridRejectsMalformedInput(t *testing.T) {
	cases := map[string]GridSpec{
		"negative":      {Hall: "H", Prefix: "Z", Width: 100, Height: 100, Rows: -1, Cols: 2},
		"rows only":     {Hall: "H", Prefix: "Z", Width: 100, Height: 100, Rows: 2},
		"no prefix":     {Hall: "H", Width: 100, Height: 100, Rows: 2, Cols: 2},
		"gaps too wide": {Hall: "H", Prefix: "Z", Width: 100, Height: 100, Rows: 2, Cols: 5, GapX: 30},
	}
	for name, spec := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Grid(spec)
			assert.True(t, errors.Is(err, ErrInvalidLayout), "got %v", err)
		})
	}

	shapes, err := Grid(GridSpec{Hall: "H", Prefix: "Z"})
	require.NoError(t, err)
	assert.Empty(t, shapes)
}

func TestRingQuarterPath(t *testing.T) {
	shapes, err := Ring(RingSpec{Hall: "C", Prefix: "OR", Size: SizeLarge, CX: 500, CY: 420, InnerRadius: 120, OuterRadius: 180, Count: 4})
	require.NoError(t, err)
	require.Len(t, shapes, 4)

	a := shapes[0].Arc
	assert.Equal(t, "OR-1", a.ID)
	assert.Equal(t, -90.0, a.StartAngle)
	assert.Equal(t, 0.0, a.EndAngle)
	assert.Equal(t, "M 500.00 240.00 A 180.00 180.00 0 0 1 680.00 420.00 L 620.00 420.00 A 120.00 120.00 0 0 0 500.00 300.00 Z", a.Path)
	assert.Equal(t, 270.0, shapes[3].Arc.EndAngle)
}

func TestRingLargeArcFlag(t *testing.T) {
	shapes, err := Ring(RingSpec{Hall: "C", Prefix: "X", CX: 0, CY: 0, InnerRadius: 10, OuterRadius: 20, Count: 1, StartAngle: -90, EndAngle: 150})
	require.NoError(t, err)
	require.Len(t, shapes, 1)
	assert.Contains(t, shapes[0].Arc.Path, "A 20.00 20.00 0 1 1")
	assert.Contains(t, shapes[0].Arc.Path, "A 10.00 10.00 0 1 0")
}

func TestRingPartitionsSpanWithoutOverlap(t *testing.T) {
	for _, count := range []int{1, 3, 7, 12, 36} {
		gap := 1.5
		if count == 1 {
			gap = 0
		}
		shapes, err := Ring(RingSpec{Hall: "C", Prefix: "IR", CX: 500, CY: 420, InnerRadius: 60, OuterRadius: 110, Count: count, Gap: gap})
		require.NoError(t, err)
		require.Len(t, shapes, count)

		step := 360.0 / float64(count)
		for i, s := range shapes {
			a := s.Arc
			assert.InDelta(t, step-gap, a.EndAngle-a.StartAngle, 0.02, "stall %s sweep", a.ID)
			assert.InDelta(t, DefaultStartAngle+float64(i)*step+gap/2, a.StartAngle, 0.01)
			if i > 0 {
				prev := shapes[i-1].Arc
				assert.GreaterOrEqual(t, a.StartAngle, prev.EndAngle)
				assert.InDelta(t, gap, a.StartAngle-prev.EndAngle, 0.02)
			}
		}
		assert.LessOrEqual(t, shapes[count-1].Arc.EndAngle, DefaultEndAngle)
	}
}

func TestRingSingleStallWithoutGapIsDrawable(t *testing.T) {
	shapes, err := Ring(RingSpec{Hall: "C", Prefix: "IR", InnerRadius: 1, OuterRadius: 2, Count: 1})
	require.NoError(t, err)
	require.Len(t, shapes, 1)
	a := shapes[0].Arc
	assert.Equal(t, DefaultStartAngle, a.StartAngle)
	assert.Equal(t, DefaultEndAngle, a.EndAngle)
	assert.Equal(t,
		"M 0.00 -2.00 A 2.00 2.00 0 0 1 0.00 2.00 A 2.00 2.00 0 0 1 0.00 -2.00"+
			" L 0.00 -1.00 A 1.00 1.00 0 0 0 0.00 1.00 A 1.00 1.00 0 0 0 0.00 -1.00 Z",
		a.Path)

	// one degree short of a full turn keeps the single large arc form
	assert.Equal(t, 2, strings.Count(ArcPath(0, 0, 1, 2, 0, 359), " A "))
}

func TestRingRejectsMalformedInput(t *testing.T) {
	cases := map[string]RingSpec{
		"negative":   {Hall: "C", Prefix: "IR", InnerRadius: 1, OuterRadius: 2, Count: -1},
		"radii":      {Hall: "C", Prefix: "IR", InnerRadius: 5, OuterRadius: 5, Count: 3},
		"gap":        {Hall: "C", Prefix: "IR", InnerRadius: 1, OuterRadius: 2, Count: 4, Gap: 90},
		"bad span":   {Hall: "C", Prefix: "IR", InnerRadius: 1, OuterRadius: 2, Count: 4, StartAngle: 10, EndAngle: 5},
		"no prefix":  {Hall: "C", InnerRadius: 1, OuterRadius: 2, Count: 4},
		"over 360":   {Hall: "C", Prefix: "IR", InnerRadius: 1, OuterRadius: 2, Count: 4, StartAngle: -90, EndAngle: 400},
	}
	for name, spec := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Ring(spec)
			assert.ErrorIs(t, err, ErrInvalidLayout)
		})
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	counts := Counts{TopRows: 2, TopCols: 8, LeftRows: 6, LeftCols: 2, RightRows: 6, RightCols: 2, BottomRows: 2, BottomCols: 10, InnerRing: 12, OuterRing: 24}
	a, err := Generate(counts)
	require.NoError(t, err)
	b, err := Generate(counts)
	require.NoError(t, err)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("layouts differ (-first +second):\n%s", diff)
	}
	assert.Equal(t, RenderSVG(a, nil, DefaultPalette), RenderSVG(b, nil, DefaultPalette))
	assert.Len(t, a.Shapes, counts.Total())

	ids := a.IDs()
	assert.Equal(t, "T-1", ids[0])
	assert.Equal(t, "L-1", ids[16])
	assert.Equal(t, "IR-1", ids[16+12+12+20])
	assert.Equal(t, "OR-24", ids[len(ids)-1])
}

func TestGenerateRejectsInvalidCounts(t *testing.T) {
	cases := map[string]Counts{
		"empty":          {},
		"negative ring":  {TopRows: 1, TopCols: 1, InnerRing: -2},
		"cols only":      {TopCols: 4},
		"too many rows":  {TopRows: 21, TopCols: 1},
		"too many rings": {OuterRing: 121},
		"side too wide":  {LeftRows: 2, LeftCols: 30},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Generate(c)
			assert.ErrorIs(t, err, ErrInvalidLayout)
		})
	}
}

func TestRenderSVGDispatchesOnKind(t *testing.T) {
	layout, err := Generate(Counts{TopRows: 1, TopCols: 2, InnerRing: 2})
	require.NoError(t, err)
	svg := RenderSVG(layout, map[string]string{"T-2": "held", "IR-1": "booked"}, DefaultPalette)

	assert.True(t, strings.HasPrefix(svg, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 1000.00 800.00">`))
	assert.Equal(t, 2, strings.Count(svg, "<rect "))
	assert.Equal(t, 2, strings.Count(svg, "<path "))
	assert.Contains(t, svg, `id="T-2" data-size="MEDIUM" data-status="held"`)
	assert.Contains(t, svg, `id="IR-1" data-size="LARGE" data-status="booked"`)
	assert.Contains(t, svg, `id="T-1" data-size="MEDIUM" data-status="available"`)
}

func TestLayoutFind(t *testing.T) {
	layout, err := Generate(Counts{InnerRing: 3})
	require.NoError(t, err)
	s, ok := layout.Find("IR-3")
	require.True(t, ok)
	assert.Equal(t, KindArc, s.Kind)
	_, ok = layout.Find("IR-4")
	assert.False(t, ok)
}

func TestParseSize(t *testing.T) {
	s, err := ParseSize(" large ")
	require.NoError(t, err)
	assert.Equal(t, SizeLarge, s)
	_, err = ParseSize("huge")
	assert.Error(t, err)
}
