// Package floorplan turns a venue's layout counts into drawable stall shapes.
// Rectangular halls are laid out as row-major grids and the central round hall
// as annular rings of arc-shaped stalls.  Generation is deterministic: the same
// counts always yield the same identifiers, coordinates and SVG paths.
package floorplan

import (
	"fmt"
	"strings"
)

// Size is the commercial size class of a stall.
type Size string

const (
	SizeSmall  Size = "SMALL"
	SizeMedium Size = "MEDIUM"
	SizeLarge  Size = "LARGE"
)

// Sizes lists every size class in price order.
var Sizes = []Size{SizeSmall, SizeMedium, SizeLarge}

// ParseSize accepts a size name in any case.
func ParseSize(s string) (Size, error) {
	switch Size(strings.ToUpper(strings.TrimSpace(s))) {
	case SizeSmall:
		return SizeSmall, nil
	case SizeMedium:
		return SizeMedium, nil
	case SizeLarge:
		return SizeLarge, nil
	}
	return "", fmt.Errorf("unknown stall size %q", s)
}

// Kind discriminates the Shape variants.
type Kind string

const (
	KindRect Kind = "rect"
	KindArc  Kind = "arc"
)

// Shape is a single stall on the floor plan.  Exactly one of Rect or Arc is
// set, matching Kind.
type Shape struct {
	Kind Kind  `json:"kind"`
	Rect *Rect `json:"rect,omitempty"`
	Arc  *Arc  `json:"arc,omitempty"`
}

// Rect is a rectangular stall anchored at its top-left corner.
type Rect struct {
	ID     string  `json:"id"`
	Hall   string  `json:"hall"`
	Size   Size    `json:"size"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Arc is an annular sector stall.  Angles are in degrees, measured clockwise
// from the positive x axis in SVG coordinates.
type Arc struct {
	ID          string  `json:"id"`
	Hall        string  `json:"hall"`
	Size        Size    `json:"size"`
	CX          float64 `json:"cx"`
	CY          float64 `json:"cy"`
	InnerRadius float64 `json:"inner_radius"`
	OuterRadius float64 `json:"outer_radius"`
	StartAngle  float64 `json:"start_angle"`
	EndAngle    float64 `json:"end_angle"`
	Path        string  `json:"path"`
}

// ID returns the stall identifier regardless of variant.
func (s Shape) ID() string {
	switch s.Kind {
	case KindRect:
		return s.Rect.ID
	case KindArc:
		return s.Arc.ID
	}
	return ""
}

// Size returns the stall size regardless of variant.
func (s Shape) Size() Size {
	switch s.Kind {
	case KindRect:
		return s.Rect.Size
	case KindArc:
		return s.Arc.Size
	}
	return ""
}

// Hall returns the name of the hall the stall belongs to.
func (s Shape) Hall() string {
	switch s.Kind {
	case KindRect:
		return s.Rect.Hall
	case KindArc:
		return s.Arc.Hall
	}
	return ""
}

// Layout is the generated floor plan of one book fair.
type Layout struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Shapes []Shape `json:"shapes"`
}

// Find returns the shape with the given identifier.
func (l Layout) Find(id string) (Shape, bool) {
	for _, s := range l.Shapes {
		if s.ID() == id {
			return s, true
		}
	}
	return Shape{}, false
}

// IDs returns the stall identifiers in generation order.
func (l Layout) IDs() []string {
	ids := make([]string, len(l.Shapes))
	for i, s := range l.Shapes {
		ids[i] = s.ID()
	}
	return ids
}
