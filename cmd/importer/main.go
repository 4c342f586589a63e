// Command importer bulk-loads POIs from CSV or JSON sources into storage.
//
//	importer pois.csv https://example.org/landmarks.json
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	natsadapter "github.com/samirrijal/poimap/internal/adapters/nats"
	"github.com/samirrijal/poimap/internal/adapters/postgres"
	"github.com/samirrijal/poimap/internal/adapters/valkey"
	"github.com/samirrijal/poimap/internal/core/ports"
	"github.com/samirrijal/poimap/internal/core/usecases"
	"github.com/samirrijal/poimap/internal/pkg/config"
	"github.com/samirrijal/poimap/internal/pkg/logging"
)

// maxConcurrentSources bounds parallel downloads and imports.
const maxConcurrentSources = 4

func main() {
	cfg, err := config.Load("poimap-importer")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	sources := os.Args[1:]
	if len(sources) == 0 {
		fmt.Fprintln(os.Stderr, "usage: importer SOURCE [SOURCE...]")
		os.Exit(2)
	}
	if cfg.Storage.Driver != config.DriverPostgres {
		slog.Error("importer requires storage.driver=postgres", "driver", cfg.Storage.Driver)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Cache invalidation and change events are optional, as in the API.
	var cache ports.CacheService
	if cfg.Valkey.Addr != "" {
		if vc, err := valkey.New(cfg.Valkey.Addr); err != nil {
			slog.Warn("valkey unavailable, list cache will expire on its own", "error", err)
		} else {
			defer vc.Close()
			cache = vc
		}
	}
	var publisher ports.EventPublisher
	if cfg.NATS.URL != "" {
		if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
			slog.Warn("nats unavailable, no change events will be published", "error", err)
		} else {
			defer pub.Close()
			publisher = pub
		}
	}

	svc := usecases.NewPOIService(postgres.NewPOIRepo(db), cache, publisher)
	client := &http.Client{Timeout: 120 * time.Second}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	sem := make(chan struct{}, maxConcurrentSources)

	for _, src := range sources {
		wg.Add(1)
		go func(src string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := importSource(ctx, svc, client, src); err != nil {
				slog.Error("import failed", "source", src, "error", err)
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}(src)
	}
	wg.Wait()

	if failed > 0 {
		slog.Error("import finished with failures", "failed_sources", failed, "sources", len(sources))
		os.Exit(1)
	}
	slog.Info("import complete", "sources", len(sources))
}

func importSource(ctx context.Context, svc *usecases.POIService, client *http.Client, src string) error {
	log := slog.With("source", src)
	log.Info("reading source")

	items, bad, err := readSource(ctx, client, src)
	if err != nil {
		return err
	}
	for _, e := range bad {
		log.Warn("skipping unreadable row", "line", e.Line, "error", e.Err)
	}

	res, err := svc.Import(ctx, items)
	if err != nil {
		return err
	}
	for _, r := range res.Rejected {
		log.Warn("skipping invalid POI", "index", r.Index, "title", items[r.Index].Title, "error", r.Err)
	}

	log.Info("source imported",
		slog.Int("created", len(res.Created)),
		slog.Int("rejected", len(res.Rejected)+len(bad)),
	)
	return nil
}
