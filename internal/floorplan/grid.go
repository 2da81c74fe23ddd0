package floorplan

import (
	"fmt"
	"math"
)

// GridSpec describes one rectangular hall split into rows × cols stalls.
type GridSpec struct {
	Hall   string
	Prefix string
	Size   Size
	X      float64
	Y      float64
	Width  float64
	Height float64
	Rows   int
	Cols   int
	GapX   float64
	GapY   float64
}

// Count is the number of stalls the grid produces.
func (g GridSpec) Count() int { return g.Rows * g.Cols }

// Grid lays out the stalls of a rectangular hall in row-major order.  Stall
// identifiers are "{prefix}-{n}" with n starting at 1.  A grid with zero rows
// and zero columns is an empty hall and yields no shapes.
func Grid(g GridSpec) ([]Shape, error) {
	if g.Rows < 0 || g.Cols < 0 {
		return nil, fmt.Errorf("%w: hall %s has negative rows/cols", ErrInvalidLayout, g.Hall)
	}
	if (g.Rows == 0) != (g.Cols == 0) {
		return nil, fmt.Errorf("%w: hall %s has %d rows and %d cols", ErrInvalidLayout, g.Hall, g.Rows, g.Cols)
	}
	if g.Rows == 0 {
		return nil, nil
	}
	if g.Prefix == "" {
		return nil, fmt.Errorf("%w: hall %s has no stall prefix", ErrInvalidLayout, g.Hall)
	}
	if g.GapX < 0 || g.GapY < 0 {
		return nil, fmt.Errorf("%w: hall %s has negative gaps", ErrInvalidLayout, g.Hall)
	}
	cellW := (g.Width - g.GapX*float64(g.Cols-1)) / float64(g.Cols)
	cellH := (g.Height - g.GapY*float64(g.Rows-1)) / float64(g.Rows)
	if cellW <= 0 || cellH <= 0 {
		return nil, fmt.Errorf("%w: hall %s is too small for %dx%d stalls", ErrInvalidLayout, g.Hall, g.Rows, g.Cols)
	}

	shapes := make([]Shape, 0, g.Count())
	n := 1
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			shapes = append(shapes, Shape{
				Kind: KindRect,
				Rect: &Rect{
					ID:     stallID(g.Prefix, n),
					Hall:   g.Hall,
					Size:   g.Size,
					X:      round2(g.X + float64(c)*(cellW+g.GapX)),
					Y:      round2(g.Y + float64(r)*(cellH+g.GapY)),
					Width:  round2(cellW),
					Height: round2(cellH),
				},
			})
			n++
		}
	}
	return shapes, nil
}

func stallID(prefix string, n int) string {
	return fmt.Sprintf("%s-%d", prefix, n)
}

// round2 keeps coordinates at a fixed precision so serialised layouts are
// stable across platforms.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
