package floorplan

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// DefaultStartAngle puts the first ring stall at twelve o'clock.
	DefaultStartAngle = -90.0
	// DefaultEndAngle closes the full circle from DefaultStartAngle.
	DefaultEndAngle = 270.0
)

// RingSpec describes an annular hall split into Count arc stalls.
type RingSpec struct {
	Hall        string
	Prefix      string
	Size        Size
	CX          float64
	CY          float64
	InnerRadius float64
	OuterRadius float64
	Count       int
	// StartAngle and EndAngle bound the span in degrees.  When both are zero
	// the span defaults to DefaultStartAngle..DefaultEndAngle.
	StartAngle float64
	EndAngle   float64
	// Gap is the angular spacing in degrees left between neighbouring stalls.
	Gap float64
}

func (r RingSpec) span() (float64, float64) {
	if r.StartAngle == 0 && r.EndAngle == 0 {
		return DefaultStartAngle, DefaultEndAngle
	}
	return r.StartAngle, r.EndAngle
}

// Ring splits the configured angular span into Count equal steps.  Stall i
// covers [start+i*step+gap/2, start+(i+1)*step-gap/2], so stalls never
// overlap and the gaps are split evenly at both edges.
func Ring(r RingSpec) ([]Shape, error) {
	if r.Count < 0 {
		return nil, fmt.Errorf("%w: ring %s has negative stall count", ErrInvalidLayout, r.Hall)
	}
	if r.Count == 0 {
		return nil, nil
	}
	if r.Prefix == "" {
		return nil, fmt.Errorf("%w: ring %s has no stall prefix", ErrInvalidLayout, r.Hall)
	}
	if r.InnerRadius < 0 || r.OuterRadius <= r.InnerRadius {
		return nil, fmt.Errorf("%w: ring %s radii %.2f/%.2f", ErrInvalidLayout, r.Hall, r.InnerRadius, r.OuterRadius)
	}
	start, end := r.span()
	total := end - start
	if total <= 0 || total > 360 {
		return nil, fmt.Errorf("%w: ring %s span %.2f..%.2f", ErrInvalidLayout, r.Hall, start, end)
	}
	step := total / float64(r.Count)
	if r.Gap < 0 || r.Gap >= step {
		return nil, fmt.Errorf("%w: ring %s gap %.2f leaves no room in %.2f degree step", ErrInvalidLayout, r.Hall, r.Gap, step)
	}

	shapes := make([]Shape, 0, r.Count)
	for i := 0; i < r.Count; i++ {
		a0 := start + float64(i)*step + r.Gap/2
		a1 := start + float64(i+1)*step - r.Gap/2
		shapes = append(shapes, Shape{
			Kind: KindArc,
			Arc: &Arc{
				ID:          stallID(r.Prefix, i+1),
				Hall:        r.Hall,
				Size:        r.Size,
				CX:          r.CX,
				CY:          r.CY,
				InnerRadius: r.InnerRadius,
				OuterRadius: r.OuterRadius,
				StartAngle:  round2(a0),
				EndAngle:    round2(a1),
				Path:        ArcPath(r.CX, r.CY, r.InnerRadius, r.OuterRadius, a0, a1),
			},
		})
	}
	return shapes, nil
}

// ArcPath builds the closed SVG path of an annular sector: outer arc from
// start to end, radial line inwards, inner arc back to start, radial line
// outwards.  A full turn has coincident arc endpoints, which SVG renders as
// nothing, so each circle is then drawn as two half arcs.
func ArcPath(cx, cy, inner, outer, startDeg, endDeg float64) string {
	if endDeg-startDeg >= 360 {
		return fullRingPath(cx, cy, inner, outer, startDeg)
	}
	osx, osy := polar(cx, cy, outer, startDeg)
	oex, oey := polar(cx, cy, outer, endDeg)
	iex, iey := polar(cx, cy, inner, endDeg)
	isx, isy := polar(cx, cy, inner, startDeg)
	large := "0"
	if endDeg-startDeg > 180 {
		large = "1"
	}

	var b strings.Builder
	b.WriteString("M " + num(osx) + " " + num(osy))
	b.WriteString(" A " + num(outer) + " " + num(outer) + " 0 " + large + " 1 " + num(oex) + " " + num(oey))
	b.WriteString(" L " + num(iex) + " " + num(iey))
	b.WriteString(" A " + num(inner) + " " + num(inner) + " 0 " + large + " 0 " + num(isx) + " " + num(isy))
	b.WriteString(" Z")
	return b.String()
}

func fullRingPath(cx, cy, inner, outer, startDeg float64) string {
	osx, osy := polar(cx, cy, outer, startDeg)
	omx, omy := polar(cx, cy, outer, startDeg+180)
	isx, isy := polar(cx, cy, inner, startDeg)
	imx, imy := polar(cx, cy, inner, startDeg+180)
	ro, ri := num(outer), num(inner)

	var b strings.Builder
	b.WriteString("M " + num(osx) + " " + num(osy))
	b.WriteString(" A " + ro + " " + ro + " 0 0 1 " + num(omx) + " " + num(omy))
	b.WriteString(" A " + ro + " " + ro + " 0 0 1 " + num(osx) + " " + num(osy))
	b.WriteString(" L " + num(isx) + " " + num(isy))
	b.WriteString(" A " + ri + " " + ri + " 0 0 0 " + num(imx) + " " + num(imy))
	b.WriteString(" A " + ri + " " + ri + " 0 0 0 " + num(isx) + " " + num(isy))
	b.WriteString(" Z")
	return b.String()
}

func polar(cx, cy, r, deg float64) (float64, float64) {
	rad := deg * math.Pi / 180
	return cx + r*math.Cos(rad), cy + r*math.Sin(rad)
}

// num formats a coordinate with two decimals and no negative zero.
func num(v float64) string {
	v = round2(v)
	if v == 0 {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
