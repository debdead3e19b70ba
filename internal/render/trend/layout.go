package trend

import (
	"math"
	"time"

	"airwatch-server/internal/render/canvas"
	"airwatch-server/internal/render/colorramp"
)

// Layout is the scale of one chart frame.
type Layout struct {
	Padding float64
	Width   float64 // plotting width
	Height  float64 // plotting height
	Min     float64
	Max     float64

	// Values are the sanitized sample values; Points their positions.
	Values []float64
	Points []canvas.Point
}

// TimeLabel is an x-axis label.
type TimeLabel struct {
	X    float64
	Text string
}

// NewLayout scales samples onto a width x height frame. It reports false
// when there are fewer than two samples.
func NewLayout(samples []Sample, width, height float64) (Layout, bool) {
	n := len(samples)
	if n < 2 {
		return Layout{}, false
	}
	l := Layout{
		Padding: Padding,
		Width:   math.Max(width-2*Padding, 0),
		Height:  math.Max(height-2*Padding, 0),
		Min:     defaultFloor,
		Max:     defaultCeiling,
		Values:  make([]float64, n),
		Points:  make([]canvas.Point, n),
	}
	for i, s := range samples {
		v := s.Value
		if math.IsInf(v, 0) {
			v = 0
		}
		v = colorramp.Sanitize(v)
		l.Values[i] = v
		l.Min = math.Min(l.Min, v)
		l.Max = math.Max(l.Max, v)
	}
	for i, v := range l.Values {
		l.Points[i] = canvas.Point{X: l.X(i, n), Y: l.Y(v)}
	}
	return l, true
}

// X positions sample i of n. Samples are spaced by index, not by time.
func (l Layout) X(i, n int) float64 {
	if n < 2 {
		return l.Padding
	}
	return l.Padding + float64(i)/float64(n-1)*l.Width
}

// Y positions value v, larger values higher up.
func (l Layout) Y(v float64) float64 {
	return l.Padding + l.Height - (v-l.Min)/(l.Max-l.Min)*l.Height
}

// RowLabel returns the value and y of the i-th row label counted from the
// bottom.
func (l Layout) RowLabel(i int) (float64, float64) {
	f := float64(i) / Rows
	return l.Min + f*(l.Max-l.Min), l.Padding + l.Height - f*l.Height
}

// TimeLabels picks up to MaxTimeLabels labels spread evenly over samples.
// With enough samples the labels sit on the grid columns; otherwise each
// sample is labelled under its own point.
func (l Layout) TimeLabels(samples []Sample, loc *time.Location) []TimeLabel {
	n := len(samples)
	if n < 2 {
		return nil
	}
	if n < MaxTimeLabels {
		out := make([]TimeLabel, n)
		for i, s := range samples {
			out[i] = TimeLabel{X: l.X(i, n), Text: FormatTime(s.Time().In(loc))}
		}
		return out
	}
	out := make([]TimeLabel, MaxTimeLabels)
	for j := range out {
		idx := j * (n - 1) / Columns
		out[j] = TimeLabel{
			X:    l.Padding + float64(j)/Columns*l.Width,
			Text: FormatTime(samples[idx].Time().In(loc)),
		}
	}
	return out
}
