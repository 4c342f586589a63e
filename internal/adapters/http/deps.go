package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/poimap/internal/core/usecases"
)

// Pinger is a backing store the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	POIs  *usecases.POIService
	NATS  *nats.Conn
	DB    Pinger
	Cache Pinger
}
