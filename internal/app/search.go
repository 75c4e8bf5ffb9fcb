package app

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"carikemah/internal/adapters/observability"
	"carikemah/internal/domain"
	"carikemah/internal/query"
	"carikemah/internal/ranking"
)

// Sort orders accepted by Search.
const (
	SortScore  = "score"
	SortRating = "rating"
)

type SearchOptions struct {
	DefaultTopK    int
	MaxTopK        int
	CacheTTL       time.Duration
	HistoryTimeout time.Duration
}

// Hit is a ranked place with its presentation fields.
type Hit struct {
	ranking.Result
	PhotoURL  string `json:"photo_url"`
	MapsLink  string `json:"maps_link,omitempty"`
	OpenHours string `json:"open_hours,omitempty"`
	BasePrice int64  `json:"base_price,omitempty"`
}

type SearchResponse struct {
	Query      string       `json:"query"`
	Ready      bool         `json:"ready"`
	Intent     query.Intent `json:"intent"`
	Region     string       `json:"region,omitempty"`
	Tokens     []string     `json:"tokens"`
	Results    []Hit        `json:"results"`
	Generation uint64       `json:"generation"`
}

type SearchService struct {
	engines *EngineLoader
	places  *PlaceService
	history domain.HistoryRepository
	cache   domain.Cache
	opts    SearchOptions

	pending sync.WaitGroup
}

func NewSearchService(e *EngineLoader, p *PlaceService, h domain.HistoryRepository, c domain.Cache, opts SearchOptions) *SearchService {
	if opts.DefaultTopK <= 0 {
		opts.DefaultTopK = 10
	}
	if opts.MaxTopK <= 0 {
		opts.MaxTopK = 100
	}
	if opts.HistoryTimeout <= 0 {
		opts.HistoryTimeout = 2 * time.Second
	}
	if c == nil {
		c = noCache{}
	}
	return &SearchService{engines: e, places: p, history: h, cache: c, opts: opts}
}

func (s *SearchService) clampTopK(k int) int {
	if k <= 0 {
		return s.opts.DefaultTopK
	}
	return min(k, s.opts.MaxTopK)
}

func searchKey(gen uint64, q string, k int, sortBy string) string {
	sum := sha1.Sum([]byte(domain.PlaceKey(q)))
	return fmt.Sprintf("search:%d:%d:%s:%s", gen, k, sortBy, hex.EncodeToString(sum[:8]))
}

// Search ranks places for q. A not-ready engine yields an empty, non-ready
// response; history is recorded in the background either way.
func (s *SearchService) Search(ctx context.Context, q string, topK int, sortBy string) (SearchResponse, error) {
	start := time.Now()
	q = strings.TrimSpace(q)
	topK = s.clampTopK(topK)
	if sortBy != SortRating {
		sortBy = SortScore
	}

	snap := s.engines.snapshot()
	eng, gen := snap.engine, snap.generation
	a := eng.Analyze(q)
	resp := SearchResponse{
		Query:      q,
		Ready:      eng.Ready(),
		Intent:     a.Intent,
		Region:     a.Region.Code,
		Tokens:     a.Tokens,
		Results:    []Hit{},
		Generation: gen,
	}
	if resp.Tokens == nil {
		resp.Tokens = []string{}
	}

	key := searchKey(gen, q, topK, sortBy)
	var cached []Hit
	if ok, _ := s.cache.Get(ctx, key, &cached); ok {
		resp.Results = cached
	} else if eng.Ready() {
		results := eng.Search(q, topK)
		if sortBy == SortRating {
			sort.SliceStable(results, func(i, j int) bool { return results[i].Rating > results[j].Rating })
		}
		resp.Results = s.enrich(ctx, results)
		_ = s.cache.Set(ctx, key, resp.Results, int(s.opts.CacheTTL.Seconds()))
	}

	dur := time.Since(start)
	observability.ObserveSearch(a.Intent.String(), len(resp.Results), dur)
	s.record(domain.SearchLog{
		CreatedAt:   start.UTC(),
		Query:       q,
		Tokens:      resp.Tokens,
		Intent:      a.Intent.String(),
		Region:      a.Region.Code,
		ResultCount: len(resp.Results),
		Duration:    dur,
	})
	return resp, nil
}

func (s *SearchService) enrich(ctx context.Context, rs []ranking.Result) []Hit {
	out := make([]Hit, 0, len(rs))
	for _, r := range rs {
		h := Hit{Result: r, PhotoURL: domain.Place{Name: r.Place}.Photo()}
		if s.places != nil && r.PlaceID > 0 {
			if pv, err := s.places.Details(ctx, r.PlaceID); err == nil {
				h.PhotoURL = pv.PhotoURL
				h.MapsLink = pv.MapsLink
				h.OpenHours = pv.OpenHours
				h.BasePrice = pv.BasePrice
			} else {
				log.Debug().Err(err).Int64("place_id", r.PlaceID).Msg("place details unavailable")
			}
		}
		out = append(out, h)
	}
	return out
}

// record writes the history row without holding up the caller.
func (s *SearchService) record(l domain.SearchLog) {
	if s.history == nil {
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.HistoryTimeout)
		defer cancel()
		err := s.history.LogSearch(ctx, l)
		observability.ObserveBackground("history", err)
		if err != nil {
			log.Warn().Err(err).Str("query", l.Query).Msg("search history write failed")
		}
	}()
}

// Drain waits for in-flight history writes.
func (s *SearchService) Drain() { s.pending.Wait() }

func (s *SearchService) Analyze(q string) query.Analysis {
	a := s.engines.Current().Analyze(strings.TrimSpace(q))
	if a.Tokens == nil {
		a.Tokens = []string{}
	}
	return a
}

func (s *SearchService) History(ctx context.Context, limit int) ([]domain.SearchLog, error) {
	if s.history == nil {
		return []domain.SearchLog{}, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	out, err := s.history.ListSearches(ctx, limit)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.SearchLog{}
	}
	return out, nil
}
