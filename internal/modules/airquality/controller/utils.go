package controller

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"airwatch-server/internal/location"
	"airwatch-server/internal/render/projection"
)

const (
	minFrameSize = 100
	maxFrameSize = 4000
)

// parseFrameSize reads the w and h query parameters, using the defaults when
// a parameter is absent.
func parseFrameSize(r *http.Request, defW, defH int) (width, height int, err error) {
	width, err = parseDimension(r, "w", defW)
	if err != nil {
		return 0, 0, err
	}
	height, err = parseDimension(r, "h", defH)
	if err != nil {
		return 0, 0, err
	}
	return width, height, nil
}

func parseDimension(r *http.Request, key string, def int) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < minFrameSize || n > maxFrameSize {
		return 0, fmt.Errorf("invalid '%s' (expected integer in [%d, %d])", key, minFrameSize, maxFrameSize)
	}
	return n, nil
}

// parsePointQuery reads an optional lat/lng pair. ok is false when neither is set.
func parsePointQuery(r *http.Request) (p projection.GeoPoint, ok bool, err error) {
	q := r.URL.Query()
	latStr, lngStr := q.Get("lat"), q.Get("lng")
	if latStr == "" && lngStr == "" {
		return projection.GeoPoint{}, false, nil
	}
	if latStr == "" || lngStr == "" {
		return projection.GeoPoint{}, false, errors.New("'lat' and 'lng' must be given together")
	}
	lat, err1 := strconv.ParseFloat(latStr, 64)
	lng, err2 := strconv.ParseFloat(lngStr, 64)
	if err1 != nil || err2 != nil {
		return projection.GeoPoint{}, false, errors.New("invalid 'lat'/'lng' (expected numbers)")
	}
	p = projection.GeoPoint{Lat: lat, Lng: lng}
	if err := location.Validate(p); err != nil {
		return projection.GeoPoint{}, false, err
	}
	return p, true, nil
}

// parseAQIQuery reads an optional non-negative aqi parameter.
func parseAQIQuery(r *http.Request) (aqi float64, ok bool, err error) {
	s := r.URL.Query().Get("aqi")
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false, errors.New("invalid 'aqi' (expected non-negative number)")
	}
	return v, true, nil
}
