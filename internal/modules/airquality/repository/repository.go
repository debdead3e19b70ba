package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"airwatch-server/internal/modules/airquality/types"
)

//go:embed sql/upsert-station.sql
var upsertStationSQL string

//go:embed sql/get-stations.sql
var getStationsSQL string

//go:embed sql/get-station.sql
var getStationSQL string

//go:embed sql/insert-reading.sql
var insertReadingSQL string

//go:embed sql/get-latest-readings.sql
var getLatestReadingsSQL string

//go:embed sql/get-recent-readings.sql
var getRecentReadingsSQL string

//go:embed sql/get-latest-per-station.sql
var getLatestPerStationSQL string

//go:embed sql/prune-readings.sql
var pruneReadingsSQL string

//go:embed sql/insert-location.sql
var insertLocationSQL string

//go:embed sql/get-last-location.sql
var getLastLocationSQL string

var ErrStationNotFound = errors.New("station not found")

type AirQualityRepository interface {
	UpsertStation(ctx context.Context, s types.Station) error
	GetStations(ctx context.Context) ([]types.Station, error)
	GetStation(ctx context.Context, id string) (types.Station, error)
	InsertReading(ctx context.Context, r types.Reading) error
	GetLatestReadings(ctx context.Context, stationID string, limit int) ([]types.Reading, error)
	GetRecentReadings(ctx context.Context, stationID string, limit int) ([]types.Reading, error)
	GetLatestPerStation(ctx context.Context) ([]types.StationReading, error)
	PruneReadings(ctx context.Context, stationID string, keep int) (int64, error)
	InsertLocation(ctx context.Context, lat, lng float64, at time.Time) error
	GetLastLocation(ctx context.Context) (lat, lng float64, at time.Time, ok bool, err error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) AirQualityRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) UpsertStation(ctx context.Context, s types.Station) error {
	if s.ID == "" {
		return errors.New("upsert station: empty id")
	}
	source := s.Source
	if source == "" {
		source = "simulator"
	}
	if _, err := r.db.ExecContext(ctx, upsertStationSQL, s.ID, s.Name, s.Lat, s.Lng, source); err != nil {
		return fmt.Errorf("upsert station %q: %w", s.ID, err)
	}
	return nil
}

func (r *repositoryImpl) GetStations(ctx context.Context) ([]types.Station, error) {
	rows, err := r.db.QueryContext(ctx, getStationsSQL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close stations rows", "error", err)
		}
	}()
	var out []types.Station
	for rows.Next() {
		var s types.Station
		if err := rows.Scan(&s.ID, &s.Name, &s.Lat, &s.Lng, &s.Source); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) GetStation(ctx context.Context, id string) (types.Station, error) {
	var s types.Station
	err := r.db.QueryRowContext(ctx, getStationSQL, id).Scan(&s.ID, &s.Name, &s.Lat, &s.Lng, &s.Source)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Station{}, fmt.Errorf("%w: %q", ErrStationNotFound, id)
	}
	if err != nil {
		return types.Station{}, fmt.Errorf("get station %q: %w", id, err)
	}
	return s, nil
}

// InsertReading stores r. It fails with ErrStationNotFound when the station
// has not been registered.
func (r *repositoryImpl) InsertReading(ctx context.Context, rd types.Reading) error {
	res, err := r.db.ExecContext(ctx, insertReadingSQL,
		rd.StationID,
		rd.Time.UnixMilli(),
		rd.AQI,
		nullable(rd.PM25),
		nullable(rd.PM10),
		nullable(rd.O3),
		nullable(rd.NO2),
		nullable(rd.SO2),
		nullable(rd.CO),
		rd.StationID,
	)
	if err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrStationNotFound, rd.StationID)
	}
	return nil
}

// GetLatestReadings returns up to limit readings, newest first.
func (r *repositoryImpl) GetLatestReadings(ctx context.Context, stationID string, limit int) ([]types.Reading, error) {
	rows, err := r.db.QueryContext(ctx, getLatestReadingsSQL, stationID, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close latest readings rows", "error", err)
		}
	}()
	return scanReadings(rows)
}

// GetRecentReadings returns the last limit readings, oldest first.
func (r *repositoryImpl) GetRecentReadings(ctx context.Context, stationID string, limit int) ([]types.Reading, error) {
	rows, err := r.db.QueryContext(ctx, getRecentReadingsSQL, stationID, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close recent readings rows", "error", err)
		}
	}()
	return scanReadings(rows)
}

func (r *repositoryImpl) GetLatestPerStation(ctx context.Context) ([]types.StationReading, error) {
	rows, err := r.db.QueryContext(ctx, getLatestPerStationSQL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close latest per station rows", "error", err)
		}
	}()
	var out []types.StationReading
	for rows.Next() {
		var sr types.StationReading
		var rd readingRow
		if err := rows.Scan(
			&sr.ID, &sr.Name, &sr.Lat, &sr.Lng, &sr.Source,
			&rd.stationID, &rd.recordedAt, &rd.aqi,
			&rd.pm25, &rd.pm10, &rd.o3, &rd.no2, &rd.so2, &rd.co,
		); err != nil {
			return nil, err
		}
		sr.Reading = rd.reading()
		out = append(out, sr)
	}
	return out, rows.Err()
}

// PruneReadings keeps the newest keep readings of a station and deletes the
// rest, returning how many were removed.
func (r *repositoryImpl) PruneReadings(ctx context.Context, stationID string, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := r.db.ExecContext(ctx, pruneReadingsSQL, stationID, stationID, keep)
	if err != nil {
		return 0, fmt.Errorf("prune readings %q: %w", stationID, err)
	}
	return res.RowsAffected()
}

func (r *repositoryImpl) InsertLocation(ctx context.Context, lat, lng float64, at time.Time) error {
	if _, err := r.db.ExecContext(ctx, insertLocationSQL, lat, lng, at.UnixMilli()); err != nil {
		return fmt.Errorf("insert location: %w", err)
	}
	return nil
}

func (r *repositoryImpl) GetLastLocation(ctx context.Context) (float64, float64, time.Time, bool, error) {
	var lat, lng float64
	var ms int64
	err := r.db.QueryRowContext(ctx, getLastLocationSQL).Scan(&lat, &lng, &ms)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, time.Time{}, false, nil
	}
	if err != nil {
		return 0, 0, time.Time{}, false, fmt.Errorf("get last location: %w", err)
	}
	return lat, lng, time.UnixMilli(ms), true, nil
}

type readingRow struct {
	stationID  string
	recordedAt int64
	aqi        float64
	pm25       sql.NullFloat64
	pm10       sql.NullFloat64
	o3         sql.NullFloat64
	no2        sql.NullFloat64
	so2        sql.NullFloat64
	co         sql.NullFloat64
}

func (rr readingRow) reading() types.Reading {
	return types.Reading{
		StationID: rr.stationID,
		Time:      time.UnixMilli(rr.recordedAt),
		AQI:       rr.aqi,
		Pollutants: types.Pollutants{
			PM25: ptr(rr.pm25),
			PM10: ptr(rr.pm10),
			O3:   ptr(rr.o3),
			NO2:  ptr(rr.no2),
			SO2:  ptr(rr.so2),
			CO:   ptr(rr.co),
		},
	}
}

func scanReadings(rows *sql.Rows) ([]types.Reading, error) {
	var out []types.Reading
	for rows.Next() {
		var rr readingRow
		if err := rows.Scan(&rr.stationID, &rr.recordedAt, &rr.aqi,
			&rr.pm25, &rr.pm10, &rr.o3, &rr.no2, &rr.so2, &rr.co); err != nil {
			return nil, err
		}
		out = append(out, rr.reading())
	}
	return out, rows.Err()
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func ptr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
