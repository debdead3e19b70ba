// Package telemetry holds the air quality message exchanged over MQTT.
package telemetry

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Telemetry is one air quality report from a station. Pollutant fields are
// optional; AQI is required.
type Telemetry struct {
	StationID string    `json:"station_id"`
	Name      string    `json:"name,omitempty"`
	Lat       *float64  `json:"lat,omitempty"`
	Lng       *float64  `json:"lng,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	AQI       *float64  `json:"aqi"`
	PM25      *float64  `json:"pm25,omitempty"`
	PM10      *float64  `json:"pm10,omitempty"`
	O3        *float64  `json:"o3,omitempty"`
	NO2       *float64  `json:"no2,omitempty"`
	SO2       *float64  `json:"so2,omitempty"`
	CO        *float64  `json:"co,omitempty"`
	Sequence  *int      `json:"sequence,omitempty"`
}

// Validate reports the first problem that makes t unusable.
func (t Telemetry) Validate() error {
	if t.StationID == "" {
		return errors.New("station_id is required")
	}
	if t.Timestamp.IsZero() {
		return errors.New("timestamp is required")
	}
	if t.AQI == nil {
		return errors.New("aqi is required")
	}
	if (t.Lat == nil) != (t.Lng == nil) {
		return errors.New("lat and lng must be given together")
	}
	if t.Lat != nil {
		if !finite(*t.Lat) || *t.Lat < -90 || *t.Lat > 90 {
			return fmt.Errorf("lat out of range: %v", *t.Lat)
		}
		if !finite(*t.Lng) || *t.Lng < -180 || *t.Lng > 180 {
			return fmt.Errorf("lng out of range: %v", *t.Lng)
		}
	}
	for name, v := range map[string]*float64{
		"aqi": t.AQI, "pm25": t.PM25, "pm10": t.PM10,
		"o3": t.O3, "no2": t.NO2, "so2": t.SO2, "co": t.CO,
	} {
		if v == nil {
			continue
		}
		if !finite(*v) || *v < 0 {
			return fmt.Errorf("%s must be a non-negative number: %v", name, *v)
		}
	}
	return nil
}

// HasLocation reports whether the message carries coordinates.
func (t Telemetry) HasLocation() bool {
	return t.Lat != nil && t.Lng != nil
}

// Float returns a pointer to v, for filling optional fields.
func Float(v float64) *float64 {
	return &v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
