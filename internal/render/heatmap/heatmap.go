// Package heatmap draws the station map: a soft glow per station colored by
// its index, crisp markers with labels, the current location and a legend.
package heatmap

import (
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/wcharczuk/go-chart/v2/drawing"

	"airwatch-server/internal/render/canvas"
	"airwatch-server/internal/render/colorramp"
	"airwatch-server/internal/render/projection"
)

const (
	Padding = 40.0

	GlowRadius   = 60.0
	MarkerRadius = 8.0

	LoadingText = "Loading air quality map..."
	HereText    = "You are here"
	LegendTitle = "AQI Levels"
)

var (
	backgroundTop    = drawing.ColorFromHex("e0f2fe")
	backgroundBottom = drawing.ColorFromHex("f0f9ff")
	placeholderColor = drawing.ColorFromHex("64748b")
	locatorColor     = drawing.ColorFromHex("3b82f6")
	legendBorder     = drawing.ColorFromHex("e5e7eb")
	legendFill       = color.NRGBA{R: 255, G: 255, B: 255, A: 230}
	labelColor       = drawing.ColorFromHex("1f2937")
	white            = drawing.ColorWhite

	glowStops = []canvas.GlowStop{
		{Offset: 0, Alpha: 0x80},
		{Offset: 0.7, Alpha: 0x40},
		{Offset: 1, Alpha: 0x00},
	}
)

// StationReading is one monitoring station as drawn on the map.
type StationReading struct {
	projection.GeoPoint
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	Index      float64 `json:"aqi"`
	DistanceKm float64 `json:"distance"`
}

// ProjectFunc fits points onto a width x height surface.
type ProjectFunc func(points []projection.GeoPoint, width, height, padding float64) (projection.Transform, error)

// Compositor renders map frames. The zero value is ready to use.
type Compositor struct {
	// Project defaults to projection.ComputeTransform.
	Project ProjectFunc
}

// Render redraws s from scratch. now only drives the locator pulse.
func (c Compositor) Render(s canvas.Surface, current projection.GeoPoint, stations []StationReading, now time.Time) error {
	w, h := s.Size()
	s.VerticalGradient(backgroundTop, backgroundBottom)

	if len(stations) == 0 {
		drawPlaceholder(s, w, h)
		return nil
	}

	t, err := c.project()(Points(current, stations), w, h, Padding)
	if err != nil {
		return fmt.Errorf("heatmap: %w", err)
	}
	c.Draw(s, t, current, stations, now)
	return nil
}

// Draw paints stations, the current location and the legend using a
// transform computed by the caller. The background is not touched.
func (c Compositor) Draw(s canvas.Surface, t projection.Transform, current projection.GeoPoint, stations []StationReading, now time.Time) {
	w, _ := s.Size()

	// Every glow goes down before any marker so no glow covers a marker.
	for _, st := range stations {
		if !st.Valid() {
			continue
		}
		p := t.Project(st.GeoPoint)
		s.RadialGlow(p.X, p.Y, GlowRadius, colorramp.ColorFor(st.Index), glowStops)
	}

	for _, st := range stations {
		if !st.Valid() {
			continue
		}
		drawMarker(s, t.Project(st.GeoPoint), st)
	}

	if current.Valid() {
		drawLocator(s, t.Project(current), now)
	}

	drawLegend(s, w-150, 20)
}

// Layout returns where each station marker and the locator land on a
// width x height frame, in the same order as stations. Skipped stations are
// left out.
func (c Compositor) Layout(current projection.GeoPoint, stations []StationReading, width, height float64) (Layout, error) {
	var l Layout
	if len(stations) == 0 {
		return l, nil
	}
	t, err := c.project()(Points(current, stations), width, height, Padding)
	if err != nil {
		return l, fmt.Errorf("heatmap: %w", err)
	}
	l.Bounds = t.Bounds()
	for _, st := range stations {
		if !st.Valid() {
			continue
		}
		l.Markers = append(l.Markers, Marker{
			StationReading: st,
			Point:          t.Project(st.GeoPoint),
			Color:          colorramp.HexFor(st.Index),
			Level:          colorramp.Level(st.Index),
		})
	}
	if current.Valid() {
		p := t.Project(current)
		l.Current = &p
	}
	return l, nil
}

// Points returns the set the bounding box is fitted to: the current location
// followed by every station.
func Points(current projection.GeoPoint, stations []StationReading) []projection.GeoPoint {
	pts := make([]projection.GeoPoint, 0, len(stations)+1)
	pts = append(pts, current)
	for _, st := range stations {
		pts = append(pts, st.GeoPoint)
	}
	return pts
}

// PulseRadius is the outer locator radius at now.
func PulseRadius(now time.Time) float64 {
	ms := float64(now.UnixMilli())
	return 15 + 3*math.Sin(ms/500)
}

func (c Compositor) project() ProjectFunc {
	if c.Project != nil {
		return c.Project
	}
	return projection.ComputeTransform
}

func drawPlaceholder(s canvas.Surface, w, h float64) {
	s.Text(LoadingText, w/2, h/2, canvas.TextStyle{
		Size:  16,
		Color: placeholderColor,
		Align: canvas.AlignCenter,
	})
}

func drawMarker(s canvas.Surface, p projection.Point, st StationReading) {
	s.FillCircle(p.X, p.Y, MarkerRadius, colorramp.ColorFor(st.Index))
	s.StrokeCircle(p.X, p.Y, MarkerRadius, white, 2)

	s.Text(fmt.Sprintf("%.0f", colorramp.Sanitize(st.Index)), p.X, p.Y-15, canvas.TextStyle{
		Size:  12,
		Bold:  true,
		Color: labelColor,
		Align: canvas.AlignCenter,
	})
	s.Text(st.Name, p.X, p.Y+25, canvas.TextStyle{
		Size:  10,
		Color: labelColor,
		Align: canvas.AlignCenter,
	})
}

func drawLocator(s canvas.Surface, p projection.Point, now time.Time) {
	s.FillCircle(p.X, p.Y, PulseRadius(now), locatorColor)
	s.FillCircle(p.X, p.Y, 8, white)
	s.FillCircle(p.X, p.Y, 4, locatorColor)
	s.Text(HereText, p.X, p.Y-25, canvas.TextStyle{
		Size:  12,
		Bold:  true,
		Color: labelColor,
		Align: canvas.AlignCenter,
	})
}

func drawLegend(s canvas.Surface, x, y float64) {
	s.FillRect(x-10, y-10, 140, 120, legendFill)
	s.StrokeRect(x-10, y-10, 140, 120, legendBorder, 1)

	s.Text(LegendTitle, x, y+10, canvas.TextStyle{Size: 12, Bold: true, Color: labelColor})

	for i, b := range colorramp.Legend() {
		rowY := y + 25 + float64(i)*20
		s.FillRect(x, rowY, 12, 12, b.Color)
		s.Text(b.Range+" - "+b.Level, x+18, rowY+9, canvas.TextStyle{Size: 10, Color: labelColor})
	}
}
