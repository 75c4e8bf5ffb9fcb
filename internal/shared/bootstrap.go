package shared

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	redisad "carikemah/internal/adapters/redis"
	"carikemah/internal/app"
	"carikemah/internal/domain"
	"carikemah/internal/ranking"
	"carikemah/internal/storage/sqlrepo"
)

// OpenStore connects to the configured database and applies migrations.
func OpenStore(ctx context.Context, c Config) (*sqlrepo.Repo, *sql.DB, error) {
	d, err := sqlrepo.DialectFor(c.DBDriver)
	if err != nil {
		return nil, nil, err
	}
	db, err := sqlrepo.Open(ctx, d, c.DSN())
	if err != nil {
		return nil, nil, err
	}
	if err := sqlrepo.Migrate(ctx, db, d); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info().Str("driver", d.Name).Msg("database ready")
	return sqlrepo.New(db, d), db, nil
}

// OpenCache returns the Redis cache, or nil when Redis is disabled or
// unreachable; services treat a nil cache as always missing.
func OpenCache(ctx context.Context, c Config) domain.Cache {
	if c.RedisAddr == "" {
		return nil
	}
	rc := redisad.New(c.RedisAddr, c.RedisPass, c.RedisDB)
	pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rc.Ping(pctx); err != nil {
		log.Warn().Err(err).Str("addr", c.RedisAddr).Msg("redis unavailable, caching disabled")
		return nil
	}
	return rc
}

func (c Config) RankingConfig() ranking.Config {
	rc := ranking.DefaultConfig()
	rc.Weights = ranking.Weights{
		Semantic: c.WeightSemantic,
		Keyword:  c.WeightKeyword,
		Recency:  c.WeightRecency,
		Rating:   c.WeightRating,
	}
	rc.MinScore = c.MinScore
	rc.MaxListed = c.SearchMaxTopK
	return rc
}

func (c Config) EngineOptions() app.EngineOptions {
	return app.EngineOptions{
		ModelPath:     c.ModelPath,
		DictDir:       c.DictDir,
		LexiconPath:   c.LexiconPath,
		StopwordsPath: c.StopwordsPath,
		Stemmer:       c.Stemmer,
		Ranking:       c.RankingConfig(),
	}
}

func (c Config) SearchOptions() app.SearchOptions {
	return app.SearchOptions{
		DefaultTopK:    c.SearchTopK,
		MaxTopK:        c.SearchMaxTopK,
		CacheTTL:       c.CacheTTL,
		HistoryTimeout: c.HistoryTimeout,
	}
}
