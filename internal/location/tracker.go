// Package location keeps the position the dashboard is centred on.
package location

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"airwatch-server/internal/render/projection"
)

var (
	// ErrInvalid is returned for coordinates that are not finite or out of range.
	ErrInvalid = errors.New("location: invalid coordinates")
	// ErrThrottled is returned when an update arrives before the throttle window has passed.
	ErrThrottled = errors.New("location: update throttled")
)

// Fix is the tracked position.
type Fix struct {
	projection.GeoPoint
	UpdatedAt  time.Time `json:"updatedAt"`
	IsFallback bool      `json:"isFallback"`
}

// Tracker accepts at most one position update per throttle window. Until the
// first accepted update it reports the fallback point.
type Tracker struct {
	mu       sync.RWMutex
	fallback projection.GeoPoint
	throttle time.Duration
	current  Fix
	now      func() time.Time
}

func NewTracker(fallback projection.GeoPoint, throttle time.Duration) *Tracker {
	return &Tracker{
		fallback: fallback,
		throttle: throttle,
		current:  Fix{GeoPoint: fallback, IsFallback: true},
		now:      time.Now,
	}
}

// Current returns the tracked position and whether it is the fallback.
func (t *Tracker) Current() (projection.GeoPoint, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current.GeoPoint, t.current.IsFallback
}

// Fix returns the full tracked state.
func (t *Tracker) Fix() Fix {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

// Update records p. It fails with ErrInvalid for bad coordinates and with
// ErrThrottled when the previous accepted update is too recent.
func (t *Tracker) Update(p projection.GeoPoint) (Fix, error) {
	if err := Validate(p); err != nil {
		return Fix{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if !t.current.IsFallback && now.Sub(t.current.UpdatedAt) < t.throttle {
		return t.current, ErrThrottled
	}
	t.current = Fix{GeoPoint: p, UpdatedAt: now}
	return t.current, nil
}

// Reset returns to the fallback point, as when acquisition fails.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.current = Fix{GeoPoint: t.fallback, UpdatedAt: t.now(), IsFallback: true}
	t.mu.Unlock()
}

// Validate checks that p is a usable WGS84 coordinate.
func Validate(p projection.GeoPoint) error {
	if !p.Valid() {
		return ErrInvalid
	}
	if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("%w: (%v, %v) out of range", ErrInvalid, p.Lat, p.Lng)
	}
	return nil
}
