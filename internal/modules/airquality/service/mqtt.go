package service

import (
	"context"
	"errors"
	"fmt"

	"airwatch-server/internal/modules/airquality/repository"
	"airwatch-server/internal/modules/airquality/types"
	"airwatch-server/internal/mqtt"
	"airwatch-server/internal/telemetry"
)

// Register attaches the telemetry handler. Call before the subscriber connects.
func (s *Service) Register(subscriber mqtt.MQTTSubscriber) {
	subscriber.SetMessageHandler(s.HandleTelemetry)
}

// HandleTelemetry stores a reading from an external station. Unknown stations
// are registered when the message carries coordinates.
func (s *Service) HandleTelemetry(t telemetry.Telemetry) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("invalid telemetry: %w", err)
	}
	if t.StationID == types.LocalStationID {
		return fmt.Errorf("station id %q is reserved", t.StationID)
	}
	ctx := context.Background()

	s.logger.Debug("processing telemetry message",
		"station_id", t.StationID,
		"timestamp", t.Timestamp,
	)

	st, err := s.repository.GetStation(ctx, t.StationID)
	switch {
	case errors.Is(err, repository.ErrStationNotFound):
		if !t.HasLocation() {
			return fmt.Errorf("unknown station %q without coordinates", t.StationID)
		}
		st = types.Station{ID: t.StationID, Name: t.Name, Source: "mqtt"}
		if st.Name == "" {
			st.Name = t.StationID
		}
		s.logger.Info("registering station from telemetry", "station_id", t.StationID)
	case err != nil:
		return err
	}
	if t.HasLocation() {
		st.Lat, st.Lng = *t.Lat, *t.Lng
		if t.Name != "" {
			st.Name = t.Name
		}
		if err := s.repository.UpsertStation(ctx, st); err != nil {
			return err
		}
	}

	reading := types.Reading{
		StationID: t.StationID,
		Time:      t.Timestamp,
		AQI:       *t.AQI,
		Pollutants: types.Pollutants{
			PM25: t.PM25,
			PM10: t.PM10,
			O3:   t.O3,
			NO2:  t.NO2,
			SO2:  t.SO2,
			CO:   t.CO,
		},
	}
	if err := s.repository.InsertReading(ctx, reading); err != nil {
		s.logger.Error("failed to insert reading", "station_id", t.StationID, "error", err)
		return err
	}
	if _, err := s.repository.PruneReadings(ctx, t.StationID, s.opts.HistorySize); err != nil {
		return err
	}

	s.logger.Debug("successfully stored telemetry", "station_id", t.StationID)
	return nil
}
