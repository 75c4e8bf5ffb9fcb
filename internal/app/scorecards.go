package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"carikemah/internal/domain"
	"carikemah/internal/scorecard"
)

// scorecardPage is the first read size for a place's stored reviews; the
// read grows until the store returns fewer rows than asked for.
const scorecardPage = 1000

// ScorecardService builds aspect scorecards from the indexed corpus. Cached
// entries are keyed by engine generation so a reindex invalidates them.
type ScorecardService struct {
	engines  *EngineLoader
	places   domain.PlaceRepository
	cache    domain.Cache
	cacheTTL time.Duration
	workers  int
}

func NewScorecardService(e *EngineLoader, p domain.PlaceRepository, c domain.Cache, ttl time.Duration, workers int) *ScorecardService {
	if c == nil {
		c = noCache{}
	}
	if workers <= 0 {
		workers = 4
	}
	return &ScorecardService{engines: e, places: p, cache: c, cacheTTL: ttl, workers: workers}
}

// All scores every place in the current corpus, keyed by place name.
func (s *ScorecardService) All(ctx context.Context) (map[string]scorecard.Scorecard, error) {
	snap := s.engines.snapshot()
	key := fmt.Sprintf("scorecards:%d", snap.generation)
	var out map[string]scorecard.Scorecard
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}
	out = scorecard.NewGenerator(snap.lexicon).Build(snap.engine.Corpus())
	_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	return out, nil
}

func placeScorecardKey(gen uint64, name string) string {
	return fmt.Sprintf("scorecard:%d:%s", gen, domain.PlaceKey(name))
}

// ForPlace scores one stored place from its full review set. With a ready
// engine the reviews come from the indexed corpus, so the result matches
// the entry All builds for the same place.
func (s *ScorecardService) ForPlace(ctx context.Context, id int64) (scorecard.Scorecard, error) {
	d, err := s.places.GetPlaceDetails(ctx, id)
	if err != nil {
		return scorecard.Scorecard{}, err
	}
	snap := s.engines.snapshot()
	key := placeScorecardKey(snap.generation, d.Info.Name)
	var sc scorecard.Scorecard
	if ok, _ := s.cache.Get(ctx, key, &sc); ok {
		return sc, nil
	}

	texts := corpusTexts(snap.engine.Corpus(), d.Info.Name)
	if len(texts) == 0 {
		if texts, err = s.storedTexts(ctx, id); err != nil {
			return scorecard.Scorecard{}, err
		}
	}
	sc = scorecard.NewGenerator(snap.lexicon).ForPlace(d.Info.Name, texts)
	_ = s.cache.Set(ctx, key, sc, int(s.cacheTTL.Seconds()))
	return sc, nil
}

func reviewText(raw, clean string) string {
	if strings.TrimSpace(raw) == "" {
		return clean
	}
	return raw
}

// corpusTexts picks the review texts of one place out of the indexed corpus.
func corpusTexts(corpus []domain.CorpusRow, name string) []string {
	want := domain.PlaceKey(name)
	var out []string
	for _, r := range corpus {
		if domain.PlaceKey(r.PlaceName) == want {
			out = append(out, reviewText(r.RawText, r.CleanText))
		}
	}
	return out
}

// storedTexts reads every stored review of a place.
func (s *ScorecardService) storedTexts(ctx context.Context, id int64) ([]string, error) {
	limit := scorecardPage
	for {
		rs, err := s.places.ListReviews(ctx, id, limit)
		if err != nil {
			return nil, err
		}
		if len(rs) < limit {
			out := make([]string, 0, len(rs))
			for _, r := range rs {
				out = append(out, reviewText(r.RawText, r.CleanText))
			}
			return out, nil
		}
		limit *= 4
	}
}

// Warm builds all scorecards and stores each under its per-place key so
// single-place reads hit the cache right after a reindex.
func (s *ScorecardService) Warm(ctx context.Context) (int, error) {
	all, err := s.All(ctx)
	if err != nil {
		return 0, err
	}
	gen := s.engines.Generation()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for name, sc := range all {
		g.Go(func() error {
			return s.cache.Set(gctx, placeScorecardKey(gen, name), sc, int(s.cacheTTL.Seconds()))
		})
	}
	if err := g.Wait(); err != nil {
		log.Warn().Err(err).Msg("scorecard warm-up incomplete")
		return 0, err
	}
	return len(all), nil
}
