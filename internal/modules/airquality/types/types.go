package types

import "time"

// LocalStationID is the synthetic station holding readings taken at the
// tracked location.
const LocalStationID = "local"

type Station struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Source string  `json:"source"`
}

// Pollutants are concentrations in µg/m³ (CO in ppb). Nil means not reported.
type Pollutants struct {
	PM25 *float64 `json:"pm25,omitempty"`
	PM10 *float64 `json:"pm10,omitempty"`
	O3   *float64 `json:"o3,omitempty"`
	NO2  *float64 `json:"no2,omitempty"`
	SO2  *float64 `json:"so2,omitempty"`
	CO   *float64 `json:"co,omitempty"`
}

// Map returns the reported pollutants keyed by their short name.
func (p Pollutants) Map() map[string]float64 {
	out := make(map[string]float64, 6)
	for name, v := range map[string]*float64{
		"pm25": p.PM25, "pm10": p.PM10, "o3": p.O3,
		"no2": p.NO2, "so2": p.SO2, "co": p.CO,
	} {
		if v != nil {
			out[name] = *v
		}
	}
	return out
}

type Reading struct {
	StationID string    `json:"stationId"`
	Time      time.Time `json:"time"`
	AQI       float64   `json:"aqi"`
	Pollutants
}

// StationReading is a station with its most recent reading.
type StationReading struct {
	Station
	Reading Reading `json:"reading"`
}

// NearbyStation is a StationReading with its distance from the tracked location.
type NearbyStation struct {
	StationReading
	DistanceKm float64 `json:"distanceKm"`
}

type Recommendation struct {
	Type        string `json:"type"`
	Icon        string `json:"icon"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Current is the dashboard summary for the tracked location.
type Current struct {
	Lat        float64  `json:"lat"`
	Lng        float64  `json:"lng"`
	IsFallback bool     `json:"isFallback"`
	Reading    *Reading `json:"reading"`
	Level      string   `json:"level,omitempty"`
	Color      string   `json:"color,omitempty"`
}
