// Package trend draws the history line chart: a padded grid, the index
// series as a line with per-point markers, axis labels and a title.
package trend

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/wcharczuk/go-chart/v2/drawing"

	"airwatch-server/internal/render/canvas"
	"airwatch-server/internal/render/colorramp"
)

const (
	Padding = 50.0

	// Rows and Columns count grid cells; there is one more line than cells.
	Rows    = 5
	Columns = 6

	// MaxTimeLabels is the most x-axis labels drawn.
	MaxTimeLabels = Columns + 1

	PlaceholderText = "Collecting historical data..."
	Title           = "AQI Trend (Last 24 Hours)"
	AxisCaption     = "Air Quality Index"

	defaultFloor   = 0.0
	defaultCeiling = 100.0
)

var (
	background       = drawing.ColorFromHex("f8fafc")
	placeholderColor = drawing.ColorFromHex("6b7280")
	gridColor        = drawing.ColorFromHex("e5e7eb")
	lineColor        = drawing.ColorFromHex("3b82f6")
	labelColor       = drawing.ColorFromHex("374151")
	white            = drawing.ColorWhite
)

// Sample is one reading of the history series. Timestamp is in
// milliseconds since the Unix epoch.
type Sample struct {
	Timestamp  int64              `json:"timestamp"`
	Value      float64            `json:"aqi"`
	Pollutants map[string]float64 `json:"pollutants,omitempty"`
}

// Time returns the sample timestamp.
func (s Sample) Time() time.Time {
	return time.UnixMilli(s.Timestamp)
}

// Chart renders history frames.
type Chart struct {
	// Location is used for the time labels; nil means time.Local.
	Location *time.Location
}

// Render redraws s from scratch. Fewer than two samples only draw the
// placeholder.
func (c Chart) Render(s canvas.Surface, samples []Sample) error {
	w, h := s.Size()
	s.Fill(background)

	l, ok := NewLayout(samples, w, h)
	if !ok {
		s.Text(PlaceholderText, w/2, h/2, canvas.TextStyle{
			Size:  16,
			Color: placeholderColor,
			Align: canvas.AlignCenter,
		})
		return nil
	}

	drawGrid(s, l)

	s.Polyline(l.Points, lineColor, 3)
	for i, p := range l.Points {
		s.FillCircle(p.X, p.Y, 5, colorramp.ColorFor(l.Values[i]))
		s.StrokeCircle(p.X, p.Y, 5, white, 2)
	}

	labelStyle := canvas.TextStyle{Size: 12, Color: labelColor, Align: canvas.AlignRight}
	for i := 0; i <= Rows; i++ {
		v, y := l.RowLabel(i)
		s.Text(strconv.Itoa(int(math.Round(v))), Padding-10, y+4, labelStyle)
	}

	labelStyle.Align = canvas.AlignCenter
	for _, tl := range l.TimeLabels(samples, c.location()) {
		s.Text(tl.Text, tl.X, h-Padding+20, labelStyle)
	}

	s.Text(Title, w/2, 25, canvas.TextStyle{
		Size:  16,
		Bold:  true,
		Color: labelColor,
		Align: canvas.AlignCenter,
	})
	s.Text(AxisCaption, 15, h/2, canvas.TextStyle{
		Size:     12,
		Color:    labelColor,
		Align:    canvas.AlignCenter,
		Rotation: -math.Pi / 2,
	})
	return nil
}

func (c Chart) location() *time.Location {
	if c.Location != nil {
		return c.Location
	}
	return time.Local
}

func drawGrid(s canvas.Surface, l Layout) {
	right := l.Padding + l.Width
	bottom := l.Padding + l.Height
	for i := 0; i <= Rows; i++ {
		y := l.Padding + float64(i)/Rows*l.Height
		s.Polyline([]canvas.Point{{X: l.Padding, Y: y}, {X: right, Y: y}}, gridColor, 1)
	}
	for j := 0; j <= Columns; j++ {
		x := l.Padding + float64(j)/Columns*l.Width
		s.Polyline([]canvas.Point{{X: x, Y: l.Padding}, {X: x, Y: bottom}}, gridColor, 1)
	}
}

// FormatTime renders t as H:MM with an unpadded 24-hour clock.
func FormatTime(t time.Time) string {
	return fmt.Sprintf("%d:%02d", t.Hour(), t.Minute())
}
