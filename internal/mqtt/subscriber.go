package mqtt

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"airwatch-server/internal/config"
	"airwatch-server/internal/telemetry"
)

// Handler processes one validated telemetry message.
type Handler func(t telemetry.Telemetry) error

// MQTTSubscriber is implemented by anything that can deliver telemetry.
type MQTTSubscriber interface {
	SetMessageHandler(handler Handler)
}

// Subscriber receives station telemetry on the configured topic.
type Subscriber struct {
	*conn
	topic string

	hmu     sync.RWMutex
	handler Handler
}

func NewSubscriber(cfg config.Config, logger *slog.Logger) *Subscriber {
	s := &Subscriber{topic: cfg.MQTTTopic}
	s.conn = newConn(cfg, cfg.MQTTClientID, logger, s.resubscribe)
	return s
}

// SetMessageHandler sets the handler for telemetry messages. Set it before
// Connect: the broker may deliver queued messages right after CONNACK.
func (s *Subscriber) SetMessageHandler(handler Handler) {
	s.hmu.Lock()
	s.handler = handler
	s.hmu.Unlock()
}

// Connect waits for the broker connection. The topic subscription follows
// from the on-connect callback and is repeated after every reconnect.
func (s *Subscriber) Connect(ctx context.Context) error {
	return s.connect(ctx)
}

func (s *Subscriber) resubscribe() {
	token := s.client.Subscribe(s.topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		s.handleMessage(msg.Topic(), msg.Payload())
	})
	if err := wait(token, 5*time.Second, "subscribe "+s.topic); err != nil {
		s.logger.Error("mqtt subscribe failed", "topic", s.topic, "error", err)
		return
	}
	s.logger.Info("subscribed to mqtt topic", "topic", s.topic, "qos", 1)
}

func (s *Subscriber) handleMessage(topic string, payload []byte) {
	s.logger.Debug("received mqtt message", "topic", topic, "size", len(payload))

	var t telemetry.Telemetry
	if err := json.Unmarshal(payload, &t); err != nil {
		s.logger.Warn("failed to parse telemetry message",
			"topic", topic,
			"error", err,
			"payload", string(payload),
		)
		return
	}

	if err := t.Validate(); err != nil {
		s.logger.Warn("invalid telemetry message",
			"topic", topic,
			"station_id", t.StationID,
			"error", err,
		)
		return
	}

	s.hmu.RLock()
	h := s.handler
	s.hmu.RUnlock()
	if h == nil {
		return
	}
	if err := h(t); err != nil {
		s.logger.Error("message handler failed",
			"topic", topic,
			"station_id", t.StationID,
			"error", err,
		)
		return
	}
	s.logger.Debug("processed telemetry message",
		"station_id", t.StationID,
		"timestamp", t.Timestamp,
	)
}

// Disconnect unsubscribes and closes the connection. Safe to call more than
// once.
func (s *Subscriber) Disconnect() {
	if s.IsConnected() {
		s.client.Unsubscribe(s.topic).WaitTimeout(2 * time.Second)
	}
	s.stop()
	s.logger.Info("mqtt subscriber disconnected")
}
