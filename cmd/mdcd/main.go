// cmd/mdcd/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/tamzrod/mdc-controller/internal/api"
	"github.com/tamzrod/mdc-controller/internal/config"
	"github.com/tamzrod/mdc-controller/internal/logging"
	"github.com/tamzrod/mdc-controller/internal/monitor"
	"github.com/tamzrod/mdc-controller/internal/registry"
	"github.com/tamzrod/mdc-controller/internal/writer"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if len(os.Args) < 2 {
		zlog.Fatal().Msg("usage: mdcd <config.yaml>")
	}

	cfgPath := os.Args[1]

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		zlog.Fatal().Err(err).Msg("config load failed")
	}

	if err := config.Validate(cfg); err != nil {
		zlog.Fatal().Err(err).Msg("config validation failed")
	}
	config.Normalize(cfg)

	log, err := logging.New(cfg.Log)
	if err != nil {
		zlog.Fatal().Err(err).Msg("logging setup failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --------------------
	// Displays
	// --------------------

	reg, err := registry.Build(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("registry build failed")
	}
	defer func() {
		if err := reg.Close(); err != nil {
			log.Warn().Err(err).Msg("display close")
		}
	}()
	log.Info().Int("displays", len(reg.IDs())).Msg("displays registered")

	// --------------------
	// Status memory (optional)
	// --------------------

	exporter, closeExporter, err := writer.BuildExporter(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("status memory setup failed")
	}
	defer closeExporter()

	if exporter != nil {
		if err := exporter.Reset(); err != nil {
			log.Warn().Err(err).Msg("status block reset failed")
		}
	}

	hub := api.NewHub(log)
	go hub.Run(ctx)

	// --------------------
	// Monitoring (optional)
	// --------------------

	if cfg.Monitoring.IntervalMs > 0 {
		mon, err := monitor.New(monitor.Config{
			Interval: time.Duration(cfg.Monitoring.IntervalMs) * time.Millisecond,
		}, reg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("monitor setup failed")
		}

		sweeps := make(chan monitor.Sweep)
		go mon.Run(ctx, sweeps)
		go consume(ctx, sweeps, exporter, hub, log)
	}

	// --------------------
	// HTTP API (optional)
	// --------------------

	var srv *http.Server
	if cfg.Server.Listen != "" {
		gin.SetMode(gin.ReleaseMode)
		srv = &http.Server{
			Addr:              cfg.Server.Listen,
			Handler:           api.NewServer(reg, hub, log).Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Info().Str("listen", srv.Addr).Msg("http api listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("http server stopped")
				stop()
			}
		}()
	}

	<-ctx.Done()
	log.Info().Msg("shutting down")

	if srv != nil {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Warn().Err(err).Msg("http shutdown")
		}
	}
}

// consume delivers each sweep to status memory and WebSocket clients.
func consume(ctx context.Context, sweeps <-chan monitor.Sweep, exporter *writer.Exporter, hub *api.Hub, log zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-sweeps:
			if exporter != nil {
				if err := exporter.Export(s.Reports); err != nil {
					log.Warn().Err(err).Str("sweep", s.ID).Msg("status export failed")
				}
			}
			hub.Broadcast(api.EventHealthSweep, s)
		}
	}
}
