package canvas

import "image/color"

// OpKind names a recorded drawing call.
type OpKind string

const (
	OpFill         OpKind = "fill"
	OpGradient     OpKind = "gradient"
	OpFillRect     OpKind = "fillRect"
	OpStrokeRect   OpKind = "strokeRect"
	OpFillCircle   OpKind = "fillCircle"
	OpStrokeCircle OpKind = "strokeCircle"
	OpPolyline     OpKind = "polyline"
	OpGlow         OpKind = "glow"
	OpText         OpKind = "text"
)

// Op is one recorded call. Only the fields relevant to Kind are set.
type Op struct {
	Kind      OpKind
	X, Y      float64
	W, H      float64
	Radius    float64
	Points    []Point
	Color     color.Color
	Color2    color.Color
	LineWidth float64
	Stops     []GlowStop
	Text      string
	Style     TextStyle
}

// Recorder is a Surface that keeps a display list instead of pixels.
type Recorder struct {
	width  float64
	height float64
	Ops    []Op
}

// NewRecorder returns an empty recorder reporting the given size.
func NewRecorder(width, height float64) *Recorder {
	return &Recorder{width: width, height: height}
}

// Reset drops every recorded op.
func (r *Recorder) Reset() {
	r.Ops = nil
}

// Filter returns the ops of the given kind in call order.
func (r *Recorder) Filter(kind OpKind) []Op {
	var out []Op
	for _, op := range r.Ops {
		if op.Kind == kind {
			out = append(out, op)
		}
	}
	return out
}

// Count returns how many ops of the given kind were recorded.
func (r *Recorder) Count(kind OpKind) int {
	n := 0
	for _, op := range r.Ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// Texts returns every drawn label in call order.
func (r *Recorder) Texts() []string {
	var out []string
	for _, op := range r.Ops {
		if op.Kind == OpText {
			out = append(out, op.Text)
		}
	}
	return out
}

func (r *Recorder) Size() (float64, float64) {
	return r.width, r.height
}

func (r *Recorder) Fill(c color.Color) {
	r.Ops = append(r.Ops, Op{Kind: OpFill, W: r.width, H: r.height, Color: c})
}

func (r *Recorder) VerticalGradient(top, bottom color.Color) {
	r.Ops = append(r.Ops, Op{Kind: OpGradient, W: r.width, H: r.height, Color: top, Color2: bottom})
}

func (r *Recorder) FillRect(x, y, w, h float64, c color.Color) {
	r.Ops = append(r.Ops, Op{Kind: OpFillRect, X: x, Y: y, W: w, H: h, Color: c})
}

func (r *Recorder) StrokeRect(x, y, w, h float64, c color.Color, lineWidth float64) {
	r.Ops = append(r.Ops, Op{Kind: OpStrokeRect, X: x, Y: y, W: w, H: h, Color: c, LineWidth: lineWidth})
}

func (r *Recorder) FillCircle(cx, cy, radius float64, c color.Color) {
	r.Ops = append(r.Ops, Op{Kind: OpFillCircle, X: cx, Y: cy, Radius: radius, Color: c})
}

func (r *Recorder) StrokeCircle(cx, cy, radius float64, c color.Color, lineWidth float64) {
	r.Ops = append(r.Ops, Op{Kind: OpStrokeCircle, X: cx, Y: cy, Radius: radius, Color: c, LineWidth: lineWidth})
}

func (r *Recorder) Polyline(points []Point, c color.Color, lineWidth float64) {
	pts := make([]Point, len(points))
	copy(pts, points)
	r.Ops = append(r.Ops, Op{Kind: OpPolyline, Points: pts, Color: c, LineWidth: lineWidth})
}

func (r *Recorder) RadialGlow(cx, cy, radius float64, c color.Color, stops []GlowStop) {
	s := make([]GlowStop, len(stops))
	copy(s, stops)
	r.Ops = append(r.Ops, Op{Kind: OpGlow, X: cx, Y: cy, Radius: radius, Color: c, Stops: s})
}

func (r *Recorder) Text(s string, x, y float64, style TextStyle) {
	r.Ops = append(r.Ops, Op{Kind: OpText, X: x, Y: y, Text: s, Style: style})
}
