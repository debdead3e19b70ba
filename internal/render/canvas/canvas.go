// Package canvas defines the drawing surface the renderers paint on, with a
// raster implementation that produces PNG frames and a recorder that keeps a
// display list of every call.
package canvas

import "image/color"

// Align is the horizontal anchor of a text label relative to its x position.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Point is a position in pixels.
type Point struct {
	X float64
	Y float64
}

// TextStyle controls how a label is drawn. Rotation is in radians, applied
// around the anchor point; negative values turn counter-clockwise.
type TextStyle struct {
	Size     float64
	Bold     bool
	Color    color.Color
	Align    Align
	Rotation float64
}

// GlowStop is one stop of a radial glow: at Offset (0 = centre, 1 = edge)
// the glow color has opacity Alpha.
type GlowStop struct {
	Offset float64
	Alpha  uint8
}

// Surface is a 2D drawing target. Calls paint in order; later calls cover
// earlier ones. A Surface is not safe for concurrent use.
type Surface interface {
	Size() (width, height float64)
	Fill(c color.Color)
	VerticalGradient(top, bottom color.Color)
	FillRect(x, y, w, h float64, c color.Color)
	StrokeRect(x, y, w, h float64, c color.Color, lineWidth float64)
	FillCircle(cx, cy, r float64, c color.Color)
	StrokeCircle(cx, cy, r float64, c color.Color, lineWidth float64)
	Polyline(points []Point, c color.Color, lineWidth float64)
	RadialGlow(cx, cy, r float64, c color.Color, stops []GlowStop)
	Text(s string, x, y float64, style TextStyle)
}

// glowAlpha interpolates the stop opacities at offset t.
func glowAlpha(stops []GlowStop, t float64) uint8 {
	if len(stops) == 0 {
		return 0
	}
	if t <= stops[0].Offset {
		return stops[0].Alpha
	}
	for i := 1; i < len(stops); i++ {
		a, b := stops[i-1], stops[i]
		if t <= b.Offset {
			span := b.Offset - a.Offset
			if span <= 0 {
				return b.Alpha
			}
			f := (t - a.Offset) / span
			return uint8(float64(a.Alpha) + (float64(b.Alpha)-float64(a.Alpha))*f + 0.5)
		}
	}
	return stops[len(stops)-1].Alpha
}
