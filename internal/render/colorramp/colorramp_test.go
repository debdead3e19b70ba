package colorramp

import (
	"math"
	"testing"
)

func TestBandFor_boundaries(t *testing.T) {
	tests := []struct {
		name  string
		in    float64
		level string
		hex   string
	}{
		{name: "zero", in: 0, level: "Good", hex: "#00e400"},
		{name: "upper good inclusive", in: 50, level: "Good", hex: "#00e400"},
		{name: "just above good", in: 50.5, level: "Moderate", hex: "#ffff00"},
		{name: "51", in: 51, level: "Moderate", hex: "#ffff00"},
		{name: "100", in: 100, level: "Moderate", hex: "#ffff00"},
		{name: "150", in: 150, level: "Unhealthy for Sensitive Groups", hex: "#ff7e00"},
		{name: "160", in: 160, level: "Unhealthy", hex: "#ff0000"},
		{name: "200", in: 200, level: "Unhealthy", hex: "#ff0000"},
		{name: "300", in: 300, level: "Very Unhealthy", hex: "#8f3f97"},
		{name: "301", in: 301, level: "Hazardous", hex: "#7e0023"},
		{name: "huge", in: 1e9, level: "Hazardous", hex: "#7e0023"},
		{name: "+Inf", in: math.Inf(1), level: "Hazardous", hex: "#7e0023"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := BandFor(tt.in)
			if b.Level != tt.level {
				t.Errorf("BandFor(%v).Level = %q; want %q", tt.in, b.Level, tt.level)
			}
			if got := HexFor(tt.in); got != tt.hex {
				t.Errorf("HexFor(%v) = %q; want %q", tt.in, got, tt.hex)
			}
		})
	}
}

func TestColorFor_clampsInvalidToLowestBand(t *testing.T) {
	want := ColorFor(0)
	for _, v := range []float64{-5, -1e-9, math.NaN(), math.Inf(-1)} {
		if got := ColorFor(v); got != want {
			t.Errorf("ColorFor(%v) = %v; want %v", v, got, want)
		}
	}
}

func TestColorFor_changesAcrossBandEdge(t *testing.T) {
	if ColorFor(50) == ColorFor(51) {
		t.Fatal("ColorFor(50) == ColorFor(51); want different bands")
	}
	if Index(50) >= Index(51) {
		t.Errorf("Index(50)=%d Index(51)=%d; want increasing", Index(50), Index(51))
	}
}

func TestIndex_monotonic(t *testing.T) {
	prev := Index(0)
	for v := 0.0; v <= 400; v += 0.5 {
		got := Index(v)
		if got < prev {
			t.Fatalf("Index(%v) = %d < previous %d", v, got, prev)
		}
		prev = got
	}
}

func TestBandColorsMatchHex(t *testing.T) {
	for _, b := range Bands() {
		r, g, bl, a := b.Color.R, b.Color.G, b.Color.B, b.Color.A
		if a != 255 {
			t.Errorf("%s alpha = %d; want 255", b.Level, a)
		}
		if r == 0 && g == 0 && bl == 0 {
			t.Errorf("%s color is black; hex %q not parsed", b.Level, b.Hex)
		}
	}
}

func TestLegend(t *testing.T) {
	l := Legend()
	if len(l) != 4 {
		t.Fatalf("len(Legend()) = %d; want 4", len(l))
	}
	wantRanges := []string{"0-50", "51-100", "101-150", "151+"}
	for i, b := range l {
		if b.Range != wantRanges[i] {
			t.Errorf("Legend()[%d].Range = %q; want %q", i, b.Range, wantRanges[i])
		}
	}
	l[0].Level = "mutated"
	if Legend()[0].Level != "Good" {
		t.Error("Legend() returned shared backing array")
	}
}
