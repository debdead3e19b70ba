// Package projection fits a set of geographic points onto a flat drawing
// surface. It uses an equirectangular approximation, which is good enough for
// the few kilometres a neighbourhood map covers.
package projection

import (
	"errors"
	"math"
)

// Margin is added on every side of the bounding box, in degrees.
const Margin = 0.005

// minSpan replaces a zero span so the scale never divides by zero.
const minSpan = 1e-9

// ErrEmptyInput is returned when asked to fit zero points.
var ErrEmptyInput = errors.New("projection: no points to fit")

// GeoPoint is a WGS84 coordinate in degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether both coordinates are finite numbers.
func (p GeoPoint) Valid() bool {
	return finite(p.Lat) && finite(p.Lng)
}

// Point is a position on the drawing surface in pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BoundingBox is the geographic rectangle mapped onto the surface.
type BoundingBox struct {
	MinLat float64 `json:"minLat"`
	MaxLat float64 `json:"maxLat"`
	MinLng float64 `json:"minLng"`
	MaxLng float64 `json:"maxLng"`
}

// Contains reports whether p lies inside the box, edges included.
func (b BoundingBox) Contains(p GeoPoint) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}

// Transform maps coordinates into pixel space for one render pass. It is
// computed once and reused for every point of the frame.
type Transform struct {
	box     BoundingBox
	padding float64
	width   float64 // drawable width, padding excluded
	height  float64 // drawable height, padding excluded
	latSpan float64
	lngSpan float64
}

// ComputeTransform fits points, expanded by Margin, into the rectangle
// [padding, width-padding] x [padding, height-padding], north up.
// Points with non-finite coordinates are ignored.
func ComputeTransform(points []GeoPoint, width, height, padding float64) (Transform, error) {
	box, ok := bounds(points)
	if !ok {
		return Transform{}, ErrEmptyInput
	}

	box.MinLat -= Margin
	box.MaxLat += Margin
	box.MinLng -= Margin
	box.MaxLng += Margin

	t := Transform{
		box:     box,
		padding: padding,
		width:   math.Max(width-2*padding, 0),
		height:  math.Max(height-2*padding, 0),
		latSpan: box.MaxLat - box.MinLat,
		lngSpan: box.MaxLng - box.MinLng,
	}
	if !(t.latSpan > 0) {
		t.latSpan = minSpan
	}
	if !(t.lngSpan > 0) {
		t.lngSpan = minSpan
	}
	return t, nil
}

func bounds(points []GeoPoint) (BoundingBox, bool) {
	box := BoundingBox{
		MinLat: math.Inf(1),
		MaxLat: math.Inf(-1),
		MinLng: math.Inf(1),
		MaxLng: math.Inf(-1),
	}
	n := 0
	for _, p := range points {
		if !p.Valid() {
			continue
		}
		box.MinLat = math.Min(box.MinLat, p.Lat)
		box.MaxLat = math.Max(box.MaxLat, p.Lat)
		box.MinLng = math.Min(box.MinLng, p.Lng)
		box.MaxLng = math.Max(box.MaxLng, p.Lng)
		n++
	}
	return box, n > 0
}

// Project maps p onto the surface.
func (t Transform) Project(p GeoPoint) Point {
	return Point{
		X: t.padding + (p.Lng-t.box.MinLng)/t.lngSpan*t.width,
		Y: t.padding + (t.box.MaxLat-p.Lat)/t.latSpan*t.height,
	}
}

// Bounds returns the margin-expanded bounding box.
func (t Transform) Bounds() BoundingBox {
	return t.box
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
