package floorplan

import (
	"html"
	"strings"
)

// Palette maps a stall status name to its fill colour.  Unknown statuses
// are drawn with Default.
type Palette struct {
	Default string
	Fills   map[string]string
}

// DefaultPalette matches the colours used by the booking screens.
var DefaultPalette = Palette{
	Default: "#e5e7eb",
	Fills: map[string]string{
		"available":  "#bbf7d0",
		"held":       "#fde68a",
		"processing": "#bfdbfe",
		"booked":     "#fca5a5",
	},
}

func (p Palette) fill(status string) string {
	if f, ok := p.Fills[status]; ok {
		return f
	}
	return p.Default
}

// RenderSVG draws the layout as a standalone SVG document.  statuses maps a
// stall ID to its status name and may be nil.
func RenderSVG(l Layout, statuses map[string]string, p Palette) string {
	var b strings.Builder
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 ` + num(l.Width) + " " + num(l.Height) + `">`)
	b.WriteString("\n")
	for _, s := range l.Shapes {
		status := statuses[s.ID()]
		if status == "" {
			status = "available"
		}
		id := html.EscapeString(s.ID())
		switch s.Kind {
		case KindRect:
			r := s.Rect
			b.WriteString(`  <rect id="` + id + `" data-size="` + string(r.Size) + `" data-status="` + status +
				`" x="` + num(r.X) + `" y="` + num(r.Y) + `" width="` + num(r.Width) + `" height="` + num(r.Height) +
				`" fill="` + p.fill(status) + `" stroke="#374151"/>`)
		case KindArc:
			a := s.Arc
			b.WriteString(`  <path id="` + id + `" data-size="` + string(a.Size) + `" data-status="` + status +
				`" d="` + a.Path + `" fill="` + p.fill(status) + `" stroke="#374151"/>`)
		default:
			continue
		}
		b.WriteString("\n")
	}
	b.WriteString("</svg>\n")
	return b.String()
}
