package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/poimap/internal/core/domain"
	"github.com/samirrijal/poimap/internal/pkg/metrics"
	"github.com/samirrijal/poimap/internal/pkg/telemetry"
)

const (
	// StreamName is the JetStream stream holding POI change events.
	StreamName = "POI_EVENTS"
	// SubjectPrefix precedes the event type: poi.created, poi.updated, poi.deleted.
	SubjectPrefix = "poi."
	// SubjectAll matches every POI event; the WebSocket relay subscribes to it.
	SubjectAll = "poi.>"

	publishTimeout = 5 * time.Second
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and ensures the POI stream exists.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := &nats.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{SubjectAll},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(cfg); err != nil {
		// Stream may already exist; try update
		if _, err := js.UpdateStream(cfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// Subject returns the subject an event of type t is published on.
func Subject(t domain.POIEventType) string {
	return SubjectPrefix + string(t)
}

// PublishPOIEvent publishes e as JSON on poi.<type>.
func (p *Publisher) PublishPOIEvent(ctx context.Context, e domain.POIEvent) error {
	ctx, span := otel.Tracer("poimap/nats").Start(ctx, "nats.PublishPOIEvent")
	defer span.End()
	span.SetAttributes(
		attribute.String(telemetry.AttrEventType, string(e.Type)),
		attribute.String(telemetry.AttrPOIID, e.ID),
	)

	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if _, err := p.js.Publish(Subject(e.Type), data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	metrics.EventsPublished.WithLabelValues(string(e.Type)).Inc()
	return nil
}

// Conn exposes the underlying connection for the WebSocket relay.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("poimap"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
