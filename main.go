// entry point of the application
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"tokvault/internal/config"
	"tokvault/internal/fetch"
	httprouter "tokvault/internal/infrastructure/delivery/http"
	"tokvault/internal/observability"
	"tokvault/internal/progress"
	"tokvault/internal/proxy"
	"tokvault/internal/render"
	"tokvault/internal/resolve"
	"tokvault/internal/service"
	"tokvault/internal/storage"
	"tokvault/internal/uploader"
	httpserver "tokvault/pkg/http/server"
	"tokvault/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found")
	}

	cfg, err := config.New()
	if err != nil {
		slog.Error("config new", slog.Any("error", err))
		stop()
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("config validate", slog.Any("error", err))
		stop()
		os.Exit(1)
	}

	log, err := logger.New(&logger.Options{
		AddSource: true,
		Level:     cfg.App.LogLevel,
	})
	if err != nil {
		slog.WarnContext(ctx, "logger level invalid; defaulting to info", slog.Any("error", err))
	}

	metrics := observability.New()

	proxyMgr, err := proxy.New(cfg.Proxy.Proxies, cfg.Proxy.HealthCheck, cfg.Proxy.HealthTimeout)
	if err != nil {
		log.Error("proxy new", slog.Any("error", err))
		stop()
		os.Exit(1)
	}

	if proxyMgr.Count() > 0 {
		log.InfoContext(ctx, "proxies configured", slog.Int("proxy_count", proxyMgr.Count()))
	}

	up, err := uploader.NewS3(ctx, log, cfg.Storage)
	if err != nil {
		log.Error("uploader new", slog.Any("error", err))
		stop()
		os.Exit(1)
	}

	fetcher, err := fetch.New(log, cfg.Fetch, proxyMgr, up, metrics)
	if err != nil {
		log.Error("fetch new", slog.Any("error", err))
		stop()
		os.Exit(1)
	}

	renderer := render.NewHTTP(log, cfg.Discover, proxyMgr)
	resolver := resolve.New(log, cfg.Resolve, nil)
	bus := progress.New(log, cfg.Bus, metrics)
	store := storage.New(ctx, log, cfg, metrics)

	// Service
	svc := service.New(cfg, log, renderer, resolver, fetcher, bus, store, metrics)
	svc.Start(ctx)

	// HTTP Server
	router := httprouter.New(log, cfg, svc, store, bus, metrics)

	httpSrv := httpserver.New(router, httpserver.Options{
		Addr:            cfg.HTTP.Port,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
	})

	log.InfoContext(ctx, "tokvault started", slog.String("port", cfg.HTTP.Port))

	// Waiting for shutdown signal or a dead server
	select {
	case <-ctx.Done():
	case err := <-httpSrv.Notify():
		log.Error("http server", slog.Any("error", err))
		stop()
	}

	if err := httpSrv.Shutdown(); err != nil {
		log.Error(err.Error())
	}

	// In-flight jobs observe the canceled context and drain quickly.
	svc.Wait()

	log.InfoContext(ctx, "tokvault shut down gracefully")
}
