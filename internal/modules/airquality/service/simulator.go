package service

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"airwatch-server/internal/modules/airquality/types"
	"airwatch-server/internal/render/projection"
)

// stationJitter is how far, in degrees, a simulated station may sit from the
// tracked location on each axis.
const stationJitter = 0.01

// Simulator produces mock air quality data around a location. It stands in
// for a real provider and is deterministic for a given seed.
type Simulator struct {
	mu           sync.Mutex
	rng          *rand.Rand
	stationCount int
}

func NewSimulator(seed int64, stationCount int) *Simulator {
	if stationCount < 0 {
		stationCount = 0
	}
	return &Simulator{rng: rand.New(rand.NewSource(seed)), stationCount: stationCount}
}

// Cycle is the output of one simulated fetch.
type Cycle struct {
	Local    types.Reading
	Stations []types.StationReading
}

// Generate simulates one fetch at loc.
func (s *Simulator) Generate(loc projection.GeoPoint, now time.Time) Cycle {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := Cycle{
		Local: types.Reading{
			StationID: types.LocalStationID,
			Time:      now,
			AQI:       float64(s.between(50, 249)),
			Pollutants: types.Pollutants{
				PM25: s.level(10, 59),
				PM10: s.level(20, 99),
				O3:   s.level(30, 129),
				NO2:  s.level(15, 74),
				SO2:  s.level(5, 44),
				CO:   s.level(500, 2499),
			},
		},
		Stations: make([]types.StationReading, 0, s.stationCount),
	}
	for i := 0; i < s.stationCount; i++ {
		id := StationID(i)
		c.Stations = append(c.Stations, types.StationReading{
			Station: types.Station{
				ID:     id,
				Name:   fmt.Sprintf("Station %d", i+1),
				Lat:    loc.Lat + (s.rng.Float64()-0.5)*2*stationJitter,
				Lng:    loc.Lng + (s.rng.Float64()-0.5)*2*stationJitter,
				Source: "simulator",
			},
			Reading: types.Reading{
				StationID: id,
				Time:      now,
				AQI:       float64(s.between(50, 249)),
			},
		})
	}
	return c
}

// StationID names the i-th simulated station. Zero padding keeps the
// lexical order equal to the numeric one.
func StationID(i int) string {
	return fmt.Sprintf("station-%02d", i+1)
}

// between returns an integer in [lo, hi].
func (s *Simulator) between(lo, hi int) int {
	return lo + s.rng.Intn(hi-lo+1)
}

func (s *Simulator) level(lo, hi int) *float64 {
	v := float64(s.between(lo, hi))
	return &v
}
