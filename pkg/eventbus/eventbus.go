// Package eventbus publishes directions events to NATS JetStream.
package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/richxcame/map-directions/pkg/config"
	"github.com/richxcame/map-directions/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

const (
	defaultStreamName = "DIRECTIONS"
	streamSubjects    = "directions.>"
	defaultMaxAge     = 24 * time.Hour
	setupTimeout      = 10 * time.Second

	// CorrelationIDHeader carries the originating request ID on every message.
	CorrelationIDHeader = "X-Request-ID"
)

// ErrNotConnected is returned by Ping while the connection is down.
var ErrNotConnected = errors.New("nats not connected")

// Publisher sends events to a subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, event *Event) error
}

// NopPublisher discards every event. It is used when NATS is disabled.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, string, *Event) error { return nil }

// Config holds NATS connection settings.
type Config struct {
	URL        string
	Name       string
	StreamName string
	MaxAge     time.Duration
}

// ConfigFrom builds bus settings from the events configuration. name becomes
// the NATS connection name.
func ConfigFrom(cfg config.EventsConfig, name string) Config {
	c := Config{URL: cfg.URL, Name: name, StreamName: cfg.Stream, MaxAge: defaultMaxAge}
	if c.URL == "" {
		c.URL = nats.DefaultURL
	}
	if c.StreamName == "" {
		c.StreamName = defaultStreamName
	}
	return c
}

// Bus wraps a NATS JetStream connection for publishing.
type Bus struct {
	conn *nats.Conn
	js   jetstream.JetStream
}

var _ Publisher = (*Bus)(nil)

// New connects to NATS and creates or updates the events stream. The
// connection keeps retrying in the background after a disconnect.
func New(cfg Config) (*Bus, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()

	if _, err := js.CreateOrUpdateStream(ctx, streamConfig(cfg)); err != nil {
		nc.Close()
		return nil, fmt.Errorf("create stream %s: %w", cfg.StreamName, err)
	}

	logger.Info("NATS event bus connected",
		zap.String("url", cfg.URL),
		zap.String("stream", cfg.StreamName),
	)
	return &Bus{conn: nc, js: js}, nil
}

func streamConfig(cfg Config) jetstream.StreamConfig {
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = defaultMaxAge
	}
	return jetstream.StreamConfig{
		Name:      cfg.StreamName,
		Subjects:  []string{streamSubjects},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    maxAge,
		Replicas:  1,
	}
}

// newMsg encodes event and stamps it with the correlation ID and trace
// context found in ctx.
func newMsg(ctx context.Context, subject string, event *Event) (*nats.Msg, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}

	msg := nats.NewMsg(subject)
	msg.Data = data
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		msg.Header.Set(CorrelationIDHeader, id)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(http.Header(msg.Header)))
	return msg, nil
}

// Publish sends event with JetStream acknowledgement. The event ID doubles as
// the dedup ID, so a retried publish is stored once.
func (b *Bus) Publish(ctx context.Context, subject string, event *Event) error {
	msg, err := newMsg(ctx, subject, event)
	if err != nil {
		return err
	}

	if _, err := b.js.PublishMsg(ctx, msg, jetstream.WithMsgID(event.ID)); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}

	logger.DebugContext(ctx, "event published",
		zap.String("subject", subject),
		zap.String("event_id", event.ID),
	)
	return nil
}

// Close drains the NATS connection.
func (b *Bus) Close() {
	if b.conn == nil {
		return
	}
	if err := b.conn.Drain(); err != nil {
		logger.Warn("NATS drain failed", zap.Error(err))
	}
	logger.Info("NATS event bus closed")
}

// Ping reports the connection state for health checks.
func (b *Bus) Ping() error {
	if b == nil || b.conn == nil || !b.conn.IsConnected() {
		return ErrNotConnected
	}
	return nil
}
