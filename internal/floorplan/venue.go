package floorplan

import (
	"errors"
	"fmt"
)

// ErrInvalidLayout is returned when layout counts are missing or malformed.
// The layout cannot be drawn and callers should show a blocking error.
var ErrInvalidLayout = errors.New("invalid layout configuration")

// Counts is the per-book-fair layout configuration served by the layout API.
// Rectangular halls are described by rows and columns, the central round hall
// by the number of stalls on its inner and outer ring.
type Counts struct {
	TopRows    int `json:"topRows" yaml:"topRows"`
	TopCols    int `json:"topCols" yaml:"topCols"`
	LeftRows   int `json:"leftRows" yaml:"leftRows"`
	LeftCols   int `json:"leftCols" yaml:"leftCols"`
	RightRows  int `json:"rightRows" yaml:"rightRows"`
	RightCols  int `json:"rightCols" yaml:"rightCols"`
	BottomRows int `json:"bottomRows" yaml:"bottomRows"`
	BottomCols int `json:"bottomCols" yaml:"bottomCols"`
	InnerRing  int `json:"innerRing" yaml:"innerRing"`
	OuterRing  int `json:"outerRing" yaml:"outerRing"`
}

// Total is the number of stalls the counts describe.
func (c Counts) Total() int {
	return c.TopRows*c.TopCols + c.LeftRows*c.LeftCols + c.RightRows*c.RightCols +
		c.BottomRows*c.BottomCols + c.InnerRing + c.OuterRing
}

// Limits caps what a venue can physically hold.
type Limits struct {
	MaxRows      int
	MaxCols      int
	MaxRingStall int
}

// Validate rejects negative counts, counts beyond the limits and empty layouts.
func (c Counts) Validate(l Limits) error {
	grids := []struct {
		name       string
		rows, cols int
	}{
		{"top", c.TopRows, c.TopCols},
		{"left", c.LeftRows, c.LeftCols},
		{"right", c.RightRows, c.RightCols},
		{"bottom", c.BottomRows, c.BottomCols},
	}
	for _, g := range grids {
		if g.rows < 0 || g.cols < 0 {
			return fmt.Errorf("%w: %s hall counts must not be negative", ErrInvalidLayout, g.name)
		}
		if (g.rows == 0) != (g.cols == 0) {
			return fmt.Errorf("%w: %s hall has %d rows but %d cols", ErrInvalidLayout, g.name, g.rows, g.cols)
		}
		if g.rows > l.MaxRows || g.cols > l.MaxCols {
			return fmt.Errorf("%w: %s hall exceeds %dx%d", ErrInvalidLayout, g.name, l.MaxRows, l.MaxCols)
		}
	}
	if c.InnerRing < 0 || c.OuterRing < 0 {
		return fmt.Errorf("%w: ring counts must not be negative", ErrInvalidLayout)
	}
	if c.InnerRing > l.MaxRingStall || c.OuterRing > l.MaxRingStall {
		return fmt.Errorf("%w: ring exceeds %d stalls", ErrInvalidLayout, l.MaxRingStall)
	}
	if c.Total() == 0 {
		return fmt.Errorf("%w: layout has no stalls", ErrInvalidLayout)
	}
	return nil
}

// Venue fixes the physical geometry of the fairground: four rectangular
// halls framing a central round hall with two rings.  Each hall carries a
// single stall size.
type Venue struct {
	Width, Height float64
	Top           GridSpec
	Left          GridSpec
	Right         GridSpec
	Bottom        GridSpec
	InnerRing     RingSpec
	OuterRing     RingSpec
	Limits        Limits
}

// DefaultVenue is the fairground used by both the public site and the admin
// portal.
var DefaultVenue = Venue{
	Width:  1000,
	Height: 800,
	Top: GridSpec{Hall: "Hall A", Prefix: "T", Size: SizeMedium,
		X: 200, Y: 40, Width: 600, Height: 120, GapX: 6, GapY: 6},
	Left: GridSpec{Hall: "Hall B", Prefix: "L", Size: SizeSmall,
		X: 40, Y: 200, Width: 120, Height: 440, GapX: 6, GapY: 6},
	Right: GridSpec{Hall: "Hall C", Prefix: "R", Size: SizeSmall,
		X: 840, Y: 200, Width: 120, Height: 440, GapX: 6, GapY: 6},
	Bottom: GridSpec{Hall: "Hall D", Prefix: "B", Size: SizeMedium,
		X: 200, Y: 640, Width: 600, Height: 120, GapX: 6, GapY: 6},
	InnerRing: RingSpec{Hall: "Central Hall", Prefix: "IR", Size: SizeLarge,
		CX: 500, CY: 420, InnerRadius: 60, OuterRadius: 110, Gap: 2},
	OuterRing: RingSpec{Hall: "Central Hall", Prefix: "OR", Size: SizeMedium,
		CX: 500, CY: 420, InnerRadius: 120, OuterRadius: 180, Gap: 2},
	Limits: Limits{MaxRows: 20, MaxCols: 40, MaxRingStall: 120},
}

// Plan applies the counts to the venue geometry.
func (v Venue) Plan(c Counts) ([]GridSpec, []RingSpec) {
	top, left, right, bottom := v.Top, v.Left, v.Right, v.Bottom
	top.Rows, top.Cols = c.TopRows, c.TopCols
	left.Rows, left.Cols = c.LeftRows, c.LeftCols
	right.Rows, right.Cols = c.RightRows, c.RightCols
	bottom.Rows, bottom.Cols = c.BottomRows, c.BottomCols

	inner, outer := v.InnerRing, v.OuterRing
	inner.Count = c.InnerRing
	outer.Count = c.OuterRing
	return []GridSpec{top, left, right, bottom}, []RingSpec{inner, outer}
}

// Generate validates the counts and produces the full layout: rectangular
// halls first (top, left, right, bottom), then the inner and outer ring.
func (v Venue) Generate(c Counts) (Layout, error) {
	if err := c.Validate(v.Limits); err != nil {
		return Layout{}, err
	}
	grids, rings := v.Plan(c)
	out := Layout{Width: v.Width, Height: v.Height, Shapes: make([]Shape, 0, c.Total())}
	for _, g := range grids {
		shapes, err := Grid(g)
		if err != nil {
			return Layout{}, err
		}
		out.Shapes = append(out.Shapes, shapes...)
	}
	for _, r := range rings {
		shapes, err := Ring(r)
		if err != nil {
			return Layout{}, err
		}
		out.Shapes = append(out.Shapes, shapes...)
	}

	seen := make(map[string]struct{}, len(out.Shapes))
	for _, s := range out.Shapes {
		if _, dup := seen[s.ID()]; dup {
			return Layout{}, fmt.Errorf("%w: duplicate stall id %s", ErrInvalidLayout, s.ID())
		}
		seen[s.ID()] = struct{}{}
	}
	return out, nil
}

// Generate builds a layout on DefaultVenue.
func Generate(c Counts) (Layout, error) { return DefaultVenue.Generate(c) }
