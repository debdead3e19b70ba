package heatmap

import "airwatch-server/internal/render/projection"

// Marker is a station placed on the frame.
type Marker struct {
	StationReading
	Point projection.Point `json:"point"`
	Color string           `json:"color"`
	Level string           `json:"level"`
}

// Layout describes where a frame puts things without drawing it.
type Layout struct {
	Bounds  projection.BoundingBox `json:"bounds"`
	Markers []Marker               `json:"markers"`
	Current *projection.Point      `json:"current,omitempty"`
}
