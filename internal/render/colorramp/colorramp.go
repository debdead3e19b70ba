// Package colorramp maps an air quality index onto the six EPA severity bands
// and their display colors. It is shared by the map and the trend chart.
package colorramp

import (
	"math"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Band is one severity band. Upper is inclusive; the last band is unbounded.
type Band struct {
	Upper float64
	Level string
	Range string
	Hex   string
	Color drawing.Color
}

var bands = []Band{
	newBand(50, "Good", "0-50", "#00e400"),
	newBand(100, "Moderate", "51-100", "#ffff00"),
	newBand(150, "Unhealthy for Sensitive Groups", "101-150", "#ff7e00"),
	newBand(200, "Unhealthy", "151-200", "#ff0000"),
	newBand(300, "Very Unhealthy", "201-300", "#8f3f97"),
	newBand(math.Inf(1), "Hazardous", "301+", "#7e0023"),
}

// legend is the short form drawn on the map: four entries, the last one open ended.
var legend = []Band{
	{Upper: 50, Level: "Good", Range: "0-50", Hex: "#00e400", Color: drawing.ColorFromHex("00e400")},
	{Upper: 100, Level: "Moderate", Range: "51-100", Hex: "#ffff00", Color: drawing.ColorFromHex("ffff00")},
	{Upper: 150, Level: "Unhealthy", Range: "101-150", Hex: "#ff7e00", Color: drawing.ColorFromHex("ff7e00")},
	{Upper: math.Inf(1), Level: "Very Unhealthy", Range: "151+", Hex: "#ff0000", Color: drawing.ColorFromHex("ff0000")},
}

func newBand(upper float64, level, rng, hex string) Band {
	return Band{
		Upper: upper,
		Level: level,
		Range: rng,
		Hex:   hex,
		Color: drawing.ColorFromHex(hex[1:]),
	}
}

// Bands returns all six bands in ascending order.
func Bands() []Band {
	out := make([]Band, len(bands))
	copy(out, bands)
	return out
}

// Legend returns the four primary bands shown in the map legend.
func Legend() []Band {
	out := make([]Band, len(legend))
	copy(out, legend)
	return out
}

// Index returns the position of the band v falls into (0 = good, 5 = hazardous).
// NaN and negative values fall into the lowest band.
func Index(v float64) int {
	v = Sanitize(v)
	for i, b := range bands {
		if v <= b.Upper {
			return i
		}
	}
	return len(bands) - 1
}

// BandFor returns the band v falls into.
func BandFor(v float64) Band {
	return bands[Index(v)]
}

// ColorFor returns the display color for v.
func ColorFor(v float64) drawing.Color {
	return bands[Index(v)].Color
}

// HexFor returns the display color for v as a "#rrggbb" string.
func HexFor(v float64) string {
	return bands[Index(v)].Hex
}

// Level returns the display name of the band v falls into.
func Level(v float64) string {
	return bands[Index(v)].Level
}

// Sanitize clamps NaN and negative values to 0. +Inf is kept so it lands in
// the hazardous band.
func Sanitize(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}
