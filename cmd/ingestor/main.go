package main

import (
	"context"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"carikemah/internal/adapters/observability"
	"carikemah/internal/app"
	"carikemah/internal/shared"
)

// readOptional opens path and hands it to read. An empty path yields the
// zero value of T.
func readOptional[T any](path string, read func(io.Reader) (T, error)) T {
	var zero T
	if path == "" {
		return zero
	}
	f, err := os.Open(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("metadata file skipped")
		return zero
	}
	defer f.Close()
	v, err := read(f)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("metadata file unreadable")
		return zero
	}
	return v
}

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "ingestor", cfg.LogLevel)

	log.Info().
		Str("corpus", cfg.CorpusCSV).
		Int("workers", cfg.Workers).
		Msg("ingestor starting")

	repo, db, err := shared.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database init failed")
	}
	defer db.Close()

	f, err := os.Open(cfg.CorpusCSV)
	if err != nil {
		log.Fatal().Err(err).Msg("open corpus failed")
	}
	recs, st, err := app.ReadCorpus(f)
	_ = f.Close()
	if err != nil {
		log.Fatal().Err(err).Msg("read corpus failed")
	}
	log.Info().
		Int("rows", st.Rows).
		Int("kept", st.Kept).
		Int("dropped", st.Dropped).
		Int("skipped", st.Skipped).
		Int("places", len(recs)).
		Msg("corpus read")

	recs = app.MergeRecords(recs,
		readOptional(cfg.PlacesCSV, app.ReadPlaceInfo),
		readOptional(cfg.PricesCSV, app.ReadPrices),
		readOptional(cfg.FacilitiesCSV, app.ReadFacilities),
	)

	cache := shared.OpenCache(ctx, cfg)
	ing := app.NewIngestionService(repo, app.NewPlaceService(repo, cache, cfg.CacheTTL))
	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var wg sync.WaitGroup
	var failed atomic.Int64

	for _, rec := range recs {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, int64(1)); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(rec *app.PlaceRecord) {
			defer wg.Done()
			defer sem.Release(int64(1))

			id, err := ing.IngestPlace(ctx, rec)
			observability.ObserveBackground("ingest", err)
			if err != nil {
				failed.Add(1)
				log.Warn().Str("place", rec.Place.Name).Err(err).Msg("ingest failed")
				return
			}
			log.Debug().Int64("id", id).Str("place", rec.Place.Name).Int("reviews", len(rec.Reviews)).Msg("ingest ok")
		}(rec)
	}

	wg.Wait()
	log.Info().Int("places", len(recs)).Int64("failed", failed.Load()).Msg("ingestion completed")
	if failed.Load() > 0 {
		_ = db.Close()
		os.Exit(1)
	}
}
