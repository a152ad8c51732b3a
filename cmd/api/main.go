package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	server "castro_guide/internal/adapters/http_server"
	"castro_guide/internal/adapters/observability"
	redisad "castro_guide/internal/adapters/redis"
	"castro_guide/internal/app"
	"castro_guide/internal/shared"
	"castro_guide/internal/storage/jsondoc"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := shared.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	// deps
	docs := jsondoc.New(cfg.DataDir)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	if err := cache.Ping(pingCtx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping failed, serving without cache hits")
	} else {
		log.Info().Msg("redis connection ok")
	}
	cancel()

	opts := cfg.Curation()
	q := app.NewQueryService(docs, cache, cfg.CacheTTL, cfg.Hotel.Point(), opts)

	// http
	srv := server.New(15 * time.Second)
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Q: q})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Str("data_dir", cfg.DataDir).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}
