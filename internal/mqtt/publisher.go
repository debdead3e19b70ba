package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"airwatch-server/internal/config"
	"airwatch-server/internal/telemetry"
)

// Publisher sends locally generated readings to the broker so other
// dashboards can pick them up.
type Publisher struct {
	*conn
	topic string
}

// NewPublisher returns a publisher for cfg.MQTTPublishTopic. A "+" in the
// topic is replaced by the station ID of each message.
func NewPublisher(cfg config.Config, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:  newConn(cfg, cfg.MQTTClientID+"-pub", logger, nil),
		topic: cfg.MQTTPublishTopic,
	}
}

func (p *Publisher) Connect(ctx context.Context) error {
	return p.connect(ctx)
}

// Topic returns the topic t is published on.
func (p *Publisher) Topic(stationID string) string {
	return strings.ReplaceAll(p.topic, "+", stationID)
}

// Publish sends t. The timestamp defaults to now.
func (p *Publisher) Publish(t telemetry.Telemetry) error {
	if !p.IsConnected() {
		return ErrNotConnected
	}
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now()
	}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("publish telemetry: %w", err)
	}

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal telemetry: %w", err)
	}

	topic := p.Topic(t.StationID)
	if err := wait(p.client.Publish(topic, 1, false, data), 5*time.Second, "publish "+topic); err != nil {
		p.logger.Error("failed to publish telemetry", "topic", topic, "error", err)
		return err
	}

	p.logger.Debug("published telemetry", "topic", topic, "station_id", t.StationID)
	return nil
}

// Disconnect closes the connection. Safe to call more than once.
func (p *Publisher) Disconnect() {
	p.stop()
	p.logger.Info("mqtt publisher disconnected")
}
