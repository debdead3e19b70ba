package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"airwatch-server/internal/location"
	"airwatch-server/internal/modules/airquality/repository"
	"airwatch-server/internal/modules/airquality/types"
	"airwatch-server/internal/render/colorramp"
	"airwatch-server/internal/render/heatmap"
	"airwatch-server/internal/render/projection"
	"airwatch-server/internal/render/trend"
	"airwatch-server/internal/scheduler"
	"airwatch-server/internal/telemetry"
)

// Publisher sends local readings to the broker.
type Publisher interface {
	Publish(t telemetry.Telemetry) error
}

type Options struct {
	// HistorySize is how many local readings are kept for the trend chart.
	HistorySize int
	// NearbyRadiusKm limits Nearby; zero or less disables the filter.
	NearbyRadiusKm float64
	Logger         *slog.Logger
}

// Service acquires air quality data and serves it to the dashboard.
type Service struct {
	repository repository.AirQualityRepository
	simulator  *Simulator
	tracker    *location.Tracker
	scheduler  *scheduler.Scheduler
	opts       Options
	logger     *slog.Logger
	now        func() time.Time

	refreshMu sync.Mutex

	mu        sync.RWMutex
	history   []trend.Sample
	current   *types.Reading
	publisher Publisher
}

func NewService(repo repository.AirQualityRepository, sim *Simulator, tracker *location.Tracker, sched *scheduler.Scheduler, opts Options) *Service {
	if opts.HistorySize < 1 {
		opts.HistorySize = 24
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repository: repo,
		simulator:  sim,
		tracker:    tracker,
		scheduler:  sched,
		opts:       opts,
		logger:     logger.With("component", "airquality"),
		now:        time.Now,
	}
}

// SetPublisher enables publishing of local readings. Nil disables it.
func (s *Service) SetPublisher(p Publisher) {
	s.mu.Lock()
	s.publisher = p
	s.mu.Unlock()
}

// Load restores the history window and the last known location from storage.
func (s *Service) Load(ctx context.Context) error {
	readings, err := s.repository.GetRecentReadings(ctx, types.LocalStationID, s.opts.HistorySize)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	history := make([]trend.Sample, 0, len(readings))
	for _, r := range readings {
		history = append(history, sampleFrom(r))
	}

	s.mu.Lock()
	s.history = history
	if n := len(readings); n > 0 {
		last := readings[n-1]
		s.current = &last
	}
	s.mu.Unlock()

	lat, lng, _, ok, err := s.repository.GetLastLocation(ctx)
	if err != nil {
		return err
	}
	if ok {
		if _, err := s.tracker.Update(projection.GeoPoint{Lat: lat, Lng: lng}); err != nil {
			s.logger.Warn("stored location ignored", "lat", lat, "lng", lng, "error", err)
		}
	}
	s.logger.Info("history loaded", "samples", len(history), "location_restored", ok)
	return nil
}

// Refresh runs one fetch cycle at the tracked location.
func (s *Service) Refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	loc, fallback := s.tracker.Current()
	cycle := s.simulator.Generate(loc, s.now())

	local := types.Station{ID: types.LocalStationID, Name: "Current location", Lat: loc.Lat, Lng: loc.Lng, Source: "local"}
	if err := s.store(ctx, local, cycle.Local); err != nil {
		return err
	}
	for _, st := range cycle.Stations {
		if err := s.store(ctx, st.Station, st.Reading); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.history = appendWindow(s.history, sampleFrom(cycle.Local), s.opts.HistorySize)
	local0 := cycle.Local
	s.current = &local0
	pub := s.publisher
	s.mu.Unlock()

	s.logger.Debug("refresh complete",
		"aqi", cycle.Local.AQI,
		"stations", len(cycle.Stations),
		"fallback_location", fallback,
	)

	if pub != nil {
		s.publish(pub, local, cycle.Local)
	}
	return nil
}

func (s *Service) store(ctx context.Context, st types.Station, r types.Reading) error {
	if err := s.repository.UpsertStation(ctx, st); err != nil {
		return err
	}
	if err := s.repository.InsertReading(ctx, r); err != nil {
		return err
	}
	if _, err := s.repository.PruneReadings(ctx, st.ID, s.opts.HistorySize); err != nil {
		return err
	}
	return nil
}

func (s *Service) publish(pub Publisher, st types.Station, r types.Reading) {
	err := pub.Publish(telemetry.Telemetry{
		StationID: st.ID,
		Name:      st.Name,
		Lat:       telemetry.Float(st.Lat),
		Lng:       telemetry.Float(st.Lng),
		Timestamp: r.Time,
		AQI:       telemetry.Float(r.AQI),
		PM25:      r.PM25,
		PM10:      r.PM10,
		O3:        r.O3,
		NO2:       r.NO2,
		SO2:       r.SO2,
		CO:        r.CO,
	})
	if err != nil {
		s.logger.Warn("publish reading failed", "error", err)
	}
}

// Run refreshes once and then every interval until ctx is done. Each cycle is
// dispatched through the scheduler.
func (s *Service) Run(ctx context.Context, interval time.Duration) error {
	s.logger.Info("acquisition loop started", "interval", interval, "strategy", s.scheduler.Strategy().String())
	s.submitRefresh(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.submitRefresh(ctx)
		}
	}
}

func (s *Service) submitRefresh(ctx context.Context) {
	err := s.scheduler.Submit(ctx, func() {
		if err := s.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("refresh failed", "error", err)
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("refresh not scheduled", "error", err)
	}
}

// UpdateLocation records a new position and schedules a refresh when it is
// accepted.
func (s *Service) UpdateLocation(ctx context.Context, p projection.GeoPoint) (location.Fix, error) {
	fix, err := s.tracker.Update(p)
	if err != nil {
		return fix, err
	}
	if err := s.repository.InsertLocation(ctx, fix.Lat, fix.Lng, fix.UpdatedAt); err != nil {
		s.logger.Error("store location failed", "error", err)
	}
	s.logger.Info("location updated", "lat", fix.Lat, "lng", fix.Lng)
	s.submitRefresh(context.WithoutCancel(ctx))
	return fix, nil
}

// ResetLocation returns to the fallback point, as when the client cannot
// determine its position, and schedules a refresh there.
func (s *Service) ResetLocation(ctx context.Context) location.Fix {
	s.tracker.Reset()
	fix := s.tracker.Fix()
	s.logger.Info("location reset to fallback", "lat", fix.Lat, "lng", fix.Lng)
	s.submitRefresh(context.WithoutCancel(ctx))
	return fix
}

func (s *Service) Location() location.Fix {
	return s.tracker.Fix()
}

// Current summarises the latest local reading at the tracked location.
func (s *Service) Current() types.Current {
	fix := s.tracker.Fix()
	out := types.Current{Lat: fix.Lat, Lng: fix.Lng, IsFallback: fix.IsFallback}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current != nil {
		r := *s.current
		out.Reading = &r
		out.Level = colorramp.Level(r.AQI)
		out.Color = colorramp.HexFor(r.AQI)
	}
	return out
}

// Nearby returns every station other than the local one with its latest
// reading and its distance from the tracked location, within the configured
// radius, ordered by station ID.
func (s *Service) Nearby(ctx context.Context) ([]types.NearbyStation, error) {
	latest, err := s.repository.GetLatestPerStation(ctx)
	if err != nil {
		return nil, err
	}
	loc, _ := s.tracker.Current()

	out := make([]types.NearbyStation, 0, len(latest))
	for _, sr := range latest {
		if sr.ID == types.LocalStationID {
			continue
		}
		d := Haversine(loc.Lat, loc.Lng, sr.Lat, sr.Lng)
		if s.opts.NearbyRadiusKm > 0 && d > s.opts.NearbyRadiusKm {
			continue
		}
		out = append(out, types.NearbyStation{StationReading: sr, DistanceKm: d})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// History returns a copy of the local sample window, oldest first.
func (s *Service) History() []trend.Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]trend.Sample, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Service) Recommendations(aqi float64) []types.Recommendation {
	return Recommendations(aqi)
}

// MapReadings converts nearby stations to the map's input. IDs follow the
// slice order.
func MapReadings(nearby []types.NearbyStation) []heatmap.StationReading {
	out := make([]heatmap.StationReading, 0, len(nearby))
	for i, n := range nearby {
		out = append(out, heatmap.StationReading{
			GeoPoint:   projection.GeoPoint{Lat: n.Lat, Lng: n.Lng},
			ID:         i,
			Name:       n.Name,
			Index:      n.Reading.AQI,
			DistanceKm: n.DistanceKm,
		})
	}
	return out
}

func sampleFrom(r types.Reading) trend.Sample {
	return trend.Sample{
		Timestamp:  r.Time.UnixMilli(),
		Value:      r.AQI,
		Pollutants: r.Pollutants.Map(),
	}
}

// appendWindow appends v and keeps the last size elements.
func appendWindow(window []trend.Sample, v trend.Sample, size int) []trend.Sample {
	window = append(window, v)
	if over := len(window) - size; over > 0 {
		window = append(window[:0:0], window[over:]...)
	}
	return window
}

const earthRadiusKm = 6371.0

// Haversine returns the great-circle distance in kilometres.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
