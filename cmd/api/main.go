package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	server "carikemah/internal/adapters/http_server"
	"carikemah/internal/adapters/observability"
	"carikemah/internal/app"
	"carikemah/internal/shared"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "api", cfg.LogLevel)

	reg := observability.InitRegistry()
	metricsSrv := observability.Serve(cfg.MetricsAddr, reg)

	// store
	repo, db, err := shared.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database init failed")
	}
	defer db.Close()
	cache := shared.OpenCache(ctx, cfg)

	// engine: a failed load leaves it not ready; /readyz reports that
	engines := app.NewEngineLoader(cfg.EngineOptions(), repo)
	if _, err := engines.Reload(ctx); err != nil {
		log.Error().Err(err).Msg("initial engine load interrupted")
	}

	places := app.NewPlaceService(repo, cache, cfg.CacheTTL)
	search := app.NewSearchService(engines, places, repo, cache, cfg.SearchOptions())
	scorecards := app.NewScorecardService(engines, repo, cache, cfg.CacheTTL, cfg.Workers)
	if engines.Current().Ready() {
		go func() {
			if n, err := scorecards.Warm(ctx); err == nil {
				log.Info().Int("places", n).Msg("scorecards warmed")
			}
		}()
	}

	// http
	srv := server.New(server.Options{SearchRPS: cfg.RateLimitRPS, SearchBurst: cfg.RateLimitBurst})
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Engines:    engines,
		Search:     search,
		Places:     places,
		Scorecards: scorecards,
		Bookings:   app.NewBookingService(repo, repo),
	})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	// pending history writes finish before the database closes
	search.Drain()
}
