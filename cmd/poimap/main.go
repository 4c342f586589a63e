package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/chzyer/readline"

	"github.com/samirrijal/poimap/internal/adapters/poiapi"
	"github.com/samirrijal/poimap/internal/client/app"
	"github.com/samirrijal/poimap/internal/client/mapview"
	"github.com/samirrijal/poimap/internal/client/termmap"
	"github.com/samirrijal/poimap/internal/core/domain"
	"github.com/samirrijal/poimap/internal/pkg/config"
	"github.com/samirrijal/poimap/internal/pkg/logging"
)

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "poimap> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init readline: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	out := rl.Stdout()
	log := logging.New(rl.Stderr(), cfg.Log.Level, cfg.Log.Format)

	if err := cfg.Validate(); err != nil {
		log.Warn("running with reduced features", "error", err)
	}

	opts := mapview.DefaultOptions(cfg.Map.AccessToken)
	opts.Style = cfg.Map.Style
	opts.Center = domain.GeoPoint{Lat: cfg.Map.CenterLat, Lon: cfg.Map.CenterLon}
	opts.Zoom = cfg.Map.Zoom

	client := poiapi.New(cfg.API.BaseURL, poiapi.WithTimeout(time.Duration(cfg.API.TimeoutSeconds)*time.Second))
	renderer := termmap.New(out)
	a := app.New(client, renderer, opts, app.NewSlogReporter(log))
	defer a.Close()

	ctx := context.Background()
	if err := a.Start(ctx); err != nil {
		fmt.Fprintf(out, "could not load POIs: %v (type retry)\n", err)
	} else {
		fmt.Fprintf(out, "%d POIs loaded, type help for commands\n", len(a.List().Rows()))
	}

	sh := &shell{app: a, renderer: renderer, out: out}
	if err := run(ctx, rl, sh, log); err != nil {
		log.Error("shell", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, rl *readline.Instance, sh *shell, log *slog.Logger) error {
	for {
		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			fmt.Fprintln(sh.out, "type quit to exit")
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}

		err = sh.exec(ctx, line)
		switch {
		case errors.Is(err, errQuit):
			return nil
		case err != nil:
			log.Debug("command failed", "line", line, "error", err)
			fmt.Fprintf(sh.out, "error: %v\n", err)
		}
	}
}
