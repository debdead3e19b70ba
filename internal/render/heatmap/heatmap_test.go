package heatmap

import (
	"bytes"
	"errors"
	"math"
	"testing"
	"time"

	"airwatch-server/internal/render/canvas"
	"airwatch-server/internal/render/colorramp"
	"airwatch-server/internal/render/projection"
)

var (
	sanFrancisco = projection.GeoPoint{Lat: 37.7749, Lng: -122.4194}
	fixedNow     = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
)

func scenario() []StationReading {
	return []StationReading{
		{GeoPoint: projection.GeoPoint{Lat: 37.78, Lng: -122.42}, ID: 1, Name: "Station 1", Index: 40},
		{GeoPoint: projection.GeoPoint{Lat: 37.77, Lng: -122.41}, ID: 2, Name: "Station 2", Index: 160},
	}
}

func TestRender_noStationsDrawsPlaceholderOnly(t *testing.T) {
	calls := 0
	c := Compositor{Project: func(points []projection.GeoPoint, w, h, pad float64) (projection.Transform, error) {
		calls++
		return projection.ComputeTransform(points, w, h, pad)
	}}
	rec := canvas.NewRecorder(800, 400)

	if err := c.Render(rec, sanFrancisco, nil, fixedNow); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if calls != 0 {
		t.Errorf("projection called %d times; want 0", calls)
	}
	if len(rec.Ops) != 2 {
		t.Fatalf("recorded %d ops; want background and placeholder only: %+v", len(rec.Ops), rec.Ops)
	}
	if rec.Ops[0].Kind != canvas.OpGradient {
		t.Errorf("first op = %s; want %s", rec.Ops[0].Kind, canvas.OpGradient)
	}
	text := rec.Ops[1]
	if text.Kind != canvas.OpText || text.Text != LoadingText {
		t.Fatalf("second op = %+v; want placeholder text", text)
	}
	if text.X != 400 || text.Y != 200 || text.Style.Align != canvas.AlignCenter {
		t.Errorf("placeholder at (%v,%v) align %v; want centred at (400,200)", text.X, text.Y, text.Style.Align)
	}
}

func TestRender_glowsBeforeMarkers(t *testing.T) {
	rec := canvas.NewRecorder(800, 400)
	if err := (Compositor{}).Render(rec, sanFrancisco, scenario(), fixedNow); err != nil {
		t.Fatalf("Render: %v", err)
	}

	lastGlow, firstMarker := -1, -1
	for i, op := range rec.Ops {
		switch op.Kind {
		case canvas.OpGlow:
			lastGlow = i
		case canvas.OpFillCircle:
			if firstMarker < 0 {
				firstMarker = i
			}
		}
	}
	if lastGlow < 0 || firstMarker < 0 {
		t.Fatalf("missing glows or markers: lastGlow=%d firstMarker=%d", lastGlow, firstMarker)
	}
	if lastGlow > firstMarker {
		t.Errorf("glow at op %d drawn after marker at op %d", lastGlow, firstMarker)
	}

	glows := rec.Filter(canvas.OpGlow)
	if len(glows) != 2 {
		t.Fatalf("got %d glows; want 2", len(glows))
	}
	for _, g := range glows {
		if g.Radius != GlowRadius {
			t.Errorf("glow radius = %v; want %v", g.Radius, GlowRadius)
		}
		if len(g.Stops) != 3 || g.Stops[0].Alpha != 0x80 || g.Stops[2].Alpha != 0 {
			t.Errorf("glow stops = %+v", g.Stops)
		}
	}
}

func TestRender_scenario(t *testing.T) {
	rec := canvas.NewRecorder(800, 400)
	stations := scenario()
	if err := (Compositor{}).Render(rec, sanFrancisco, stations, fixedNow); err != nil {
		t.Fatalf("Render: %v", err)
	}

	// Station markers are the radius-8 circles filled with a ramp color;
	// the locator's white radius-8 circle comes after them.
	var markers []canvas.Op
	for _, op := range rec.Filter(canvas.OpFillCircle) {
		if op.Radius == MarkerRadius && op.Color != white {
			markers = append(markers, op)
		}
	}
	if len(markers) != 2 {
		t.Fatalf("got %d station markers; want 2", len(markers))
	}
	if markers[0].Color != colorramp.ColorFor(0) {
		t.Errorf("station 1 color = %v; want good band", markers[0].Color)
	}
	if markers[1].Color != colorramp.BandFor(175).Color {
		t.Errorf("station 2 color = %v; want unhealthy band", markers[1].Color)
	}
	for _, m := range markers {
		if m.X < Padding || m.X > 800-Padding || m.Y < Padding || m.Y > 400-Padding {
			t.Errorf("marker at (%v,%v) outside padded rectangle", m.X, m.Y)
		}
	}

	var pulse *canvas.Op
	for _, op := range rec.Filter(canvas.OpFillCircle) {
		if op.Radius == PulseRadius(fixedNow) && op.Color == locatorColor {
			pulse = &op
			break
		}
	}
	if pulse == nil {
		t.Fatal("no locator pulse drawn")
	}
	// Station 1 is north-west of the current location, station 2 south-east.
	if !(markers[0].X < pulse.X && pulse.X < markers[1].X) {
		t.Errorf("locator x = %v; want between %v and %v", pulse.X, markers[0].X, markers[1].X)
	}
	if !(markers[0].Y < pulse.Y && pulse.Y < markers[1].Y) {
		t.Errorf("locator y = %v; want between %v and %v", pulse.Y, markers[0].Y, markers[1].Y)
	}

	texts := rec.Texts()
	for _, want := range []string{"40", "160", "Station 1", "Station 2", HereText, LegendTitle} {
		if !contains(texts, want) {
			t.Errorf("missing label %q in %q", want, texts)
		}
	}
}

func TestRender_legendIsFixed(t *testing.T) {
	for _, w := range []float64{400, 800, 1200} {
		rec := canvas.NewRecorder(w, 300)
		if err := (Compositor{}).Render(rec, sanFrancisco, scenario(), fixedNow); err != nil {
			t.Fatalf("Render: %v", err)
		}
		boxes := rec.Filter(canvas.OpStrokeRect)
		if len(boxes) != 1 {
			t.Fatalf("got %d stroked rects; want 1 legend box", len(boxes))
		}
		b := boxes[0]
		if b.X != w-160 || b.Y != 10 || b.W != 140 || b.H != 120 {
			t.Errorf("width %v: legend box = (%v,%v,%v,%v); want (%v,10,140,120)", w, b.X, b.Y, b.W, b.H, w-160)
		}

		var swatches int
		for _, r := range rec.Filter(canvas.OpFillRect) {
			if r.W == 12 && r.H == 12 {
				swatches++
			}
		}
		if swatches != 4 {
			t.Errorf("width %v: got %d swatches; want 4", w, swatches)
		}
	}
}

func TestRender_skipsInvalidStations(t *testing.T) {
	stations := append(scenario(), StationReading{
		GeoPoint: projection.GeoPoint{Lat: math.NaN(), Lng: -122.4},
		ID:       3,
		Name:     "Broken",
		Index:    80,
	})
	rec := canvas.NewRecorder(800, 400)
	if err := (Compositor{}).Render(rec, sanFrancisco, stations, fixedNow); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := rec.Count(canvas.OpGlow); got != 2 {
		t.Errorf("got %d glows; want 2", got)
	}
	if contains(rec.Texts(), "Broken") {
		t.Error("invalid station was labelled")
	}
}

func TestRender_invalidCurrentLocation(t *testing.T) {
	rec := canvas.NewRecorder(800, 400)
	current := projection.GeoPoint{Lat: math.Inf(1), Lng: 0}
	if err := (Compositor{}).Render(rec, current, scenario(), fixedNow); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if contains(rec.Texts(), HereText) {
		t.Error("locator drawn for a non-finite location")
	}
	if got := rec.Count(canvas.OpGlow); got != 2 {
		t.Errorf("got %d glows; want 2", got)
	}
}

func TestRender_projectionError(t *testing.T) {
	rec := canvas.NewRecorder(800, 400)
	stations := []StationReading{{GeoPoint: projection.GeoPoint{Lat: math.NaN(), Lng: math.NaN()}}}
	current := projection.GeoPoint{Lat: math.NaN(), Lng: math.NaN()}
	err := (Compositor{}).Render(rec, current, stations, fixedNow)
	if !errors.Is(err, projection.ErrEmptyInput) {
		t.Fatalf("Render err = %v; want ErrEmptyInput", err)
	}
}

func TestRender_deterministicRaster(t *testing.T) {
	render := func() []byte {
		r, err := canvas.NewRaster(400, 300)
		if err != nil {
			t.Fatalf("NewRaster: %v", err)
		}
		if err := (Compositor{}).Render(r, sanFrancisco, scenario(), fixedNow); err != nil {
			t.Fatalf("Render: %v", err)
		}
		var buf bytes.Buffer
		if err := r.EncodePNG(&buf); err != nil {
			t.Fatalf("EncodePNG: %v", err)
		}
		return buf.Bytes()
	}
	if !bytes.Equal(render(), render()) {
		t.Error("identical input produced different frames")
	}
}

func TestPulseRadius(t *testing.T) {
	for ms := int64(0); ms < 10000; ms += 137 {
		r := PulseRadius(time.UnixMilli(ms))
		if r < 12 || r > 18 {
			t.Fatalf("PulseRadius(%dms) = %v; want within [12,18]", ms, r)
		}
	}
	if got := PulseRadius(time.UnixMilli(0)); got != 15 {
		t.Errorf("PulseRadius(0) = %v; want 15", got)
	}
}

func TestLayout(t *testing.T) {
	l, err := (Compositor{}).Layout(sanFrancisco, scenario(), 800, 400)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if len(l.Markers) != 2 {
		t.Fatalf("got %d markers; want 2", len(l.Markers))
	}
	if l.Markers[0].Level != "Good" || l.Markers[1].Level != "Unhealthy" {
		t.Errorf("levels = %q, %q", l.Markers[0].Level, l.Markers[1].Level)
	}
	if l.Current == nil {
		t.Fatal("Current is nil")
	}
	if !l.Bounds.Contains(sanFrancisco) {
		t.Errorf("bounds %+v do not contain the current location", l.Bounds)
	}

	empty, err := (Compositor{}).Layout(sanFrancisco, nil, 800, 400)
	if err != nil {
		t.Fatalf("Layout(empty): %v", err)
	}
	if len(empty.Markers) != 0 || empty.Current != nil {
		t.Errorf("Layout(empty) = %+v; want zero", empty)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
