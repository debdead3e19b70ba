package mqtt

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"airwatch-server/internal/config"
	"airwatch-server/internal/telemetry"
)

func testConfig() config.Config {
	return config.Config{
		MQTTBroker:       "127.0.0.1",
		MQTTPort:         1,
		MQTTClientID:     "test",
		MQTTTopic:        "airwatch/stations/+/telemetry",
		MQTTPublishTopic: "airwatch/stations/+/telemetry",
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSubscriber_handleMessage(t *testing.T) {
	s := NewSubscriber(testConfig(), quietLogger())

	var got []telemetry.Telemetry
	s.SetMessageHandler(func(m telemetry.Telemetry) error {
		got = append(got, m)
		return nil
	})

	payloads := []string{
		`{"station_id":"s1","timestamp":"2026-02-01T12:00:00Z","aqi":42}`,
		`not json`,
		`{"station_id":"","timestamp":"2026-02-01T12:00:00Z","aqi":42}`,
		`{"station_id":"s2","timestamp":"2026-02-01T12:00:00Z"}`,
		`{"station_id":"s3","timestamp":"2026-02-01T12:00:00Z","aqi":88,"lat":37.8,"lng":-122.3,"name":"Pier"}`,
	}
	for _, p := range payloads {
		s.handleMessage("airwatch/stations/x/telemetry", []byte(p))
	}

	if len(got) != 2 {
		t.Fatalf("handler called %d times, want 2", len(got))
	}
	if got[0].StationID != "s1" || got[1].StationID != "s3" {
		t.Errorf("stations = %q, %q", got[0].StationID, got[1].StationID)
	}
	if !got[1].HasLocation() || got[1].Name != "Pier" {
		t.Errorf("second message = %+v", got[1])
	}
}

func TestSubscriber_handlerErrorDoesNotPanic(t *testing.T) {
	s := NewSubscriber(testConfig(), quietLogger())
	calls := 0
	s.SetMessageHandler(func(telemetry.Telemetry) error {
		calls++
		return errors.New("boom")
	})
	s.handleMessage("t", []byte(`{"station_id":"s1","timestamp":"2026-02-01T12:00:00Z","aqi":1}`))
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}

	s.SetMessageHandler(nil)
	s.handleMessage("t", []byte(`{"station_id":"s1","timestamp":"2026-02-01T12:00:00Z","aqi":1}`))
}

func TestSubscriber_connectAfterDisconnect(t *testing.T) {
	s := NewSubscriber(testConfig(), quietLogger())
	s.Disconnect()
	s.Disconnect()

	if err := s.Connect(context.Background()); !errors.Is(err, ErrStopped) {
		t.Fatalf("Connect after Disconnect = %v, want ErrStopped", err)
	}
	if s.IsConnected() {
		t.Error("IsConnected() = true after Disconnect")
	}
}

func TestPublisher_notConnected(t *testing.T) {
	p := NewPublisher(testConfig(), quietLogger())
	defer p.Disconnect()

	err := p.Publish(telemetry.Telemetry{StationID: "local", AQI: telemetry.Float(50)})
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Publish = %v, want ErrNotConnected", err)
	}
}

func TestPublisher_Topic(t *testing.T) {
	p := NewPublisher(testConfig(), quietLogger())
	defer p.Disconnect()

	if got := p.Topic("local"); got != "airwatch/stations/local/telemetry" {
		t.Errorf("Topic = %q", got)
	}
}
