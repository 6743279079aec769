package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vyvo/trafficlight/pkg/api"
	"github.com/vyvo/trafficlight/pkg/config"
	"github.com/vyvo/trafficlight/pkg/feed"
	"github.com/vyvo/trafficlight/pkg/registry"
	"github.com/vyvo/trafficlight/pkg/telemetry"
)

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hostname, _ := os.Hostname()
	shutdownTracer, err := telemetry.InitTracer(ctx, telemetry.Config{
		ServiceName: cfg.ServiceName,
		Enabled:     cfg.TracingEnabled,
		InstanceID:  hostname,
	})
	if err != nil {
		logger.Error("tracing disabled", "error", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Printf("tracer shutdown error: %v", err)
		}
	}()

	reg := registry.NewSeeded(registry.DefaultSeed())
	hub := feed.NewHub(feed.DefaultBuffer)
	defer hub.Close()

	var publisher feed.Publisher = hub
	if cfg.RedisURL != "" {
		bus, err := feed.NewRedisBus(cfg.RedisURL, cfg.RedisChannel, hub, logger)
		if err != nil {
			log.Fatalf("redis feed init failed: %v", err)
		}
		defer bus.Close()

		ps, err := bus.Subscribe(ctx)
		if err != nil {
			log.Fatalf("redis feed subscribe failed: %v", err)
		}
		go func() {
			err := bus.Relay(ctx, ps, func(e feed.Event) {
				reg.Set(e.JunctionID, e.Junction())
			})
			if err != nil {
				logger.Error("redis relay stopped", "error", err)
			}
		}()
		publisher = bus
		logger.Info("relaying junction updates through redis", "channel", cfg.RedisChannel, "origin", bus.Origin())
	}

	srv := api.NewServer(reg, hub, publisher, api.Options{
		RequestTimeout: cfg.RequestTimeout,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:         logger,
	})

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		// Streams only end once their subscriptions close.
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Printf("trafficlight shutdown error: %v", err)
		}
	}()

	logger.Info("trafficlight listening", "addr", cfg.ListenAddr, "junctions", reg.IDs())
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("trafficlight listen failed: %v", err)
	}

	<-shutdownDone
	log.Println("trafficlight stopped")
}
