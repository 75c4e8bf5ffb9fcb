// Package ranking scores review rows against a query and ranks places.
package ranking

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"carikemah/internal/domain"
	"carikemah/internal/embedding"
	"carikemah/internal/lexicon"
	"carikemah/internal/query"
	"carikemah/internal/textproc"
)

// Weights of the combined score. When they sum to more than 1 the combined
// score is divided by the sum.
type Weights struct {
	Semantic float64
	Keyword  float64
	Recency  float64
	Rating   float64
}

type Config struct {
	Weights    Weights
	MinScore   float64 // rows at or below are dropped
	NameScore  float64 // score granted on a name/location hit
	MaxListed  int     // cap for intent listings
	SnippetLen int
	Now        func() time.Time
}

func DefaultConfig() Config {
	return Config{
		Weights:    Weights{Semantic: 0.3, Keyword: 0.7},
		MinScore:   0.15,
		NameScore:  0.99,
		MaxListed:  100,
		SnippetLen: 100,
		Now:        time.Now,
	}
}

const (
	recencyDecay       = 0.001
	unknownAgeDays     = 1825
	minNameQueryLength = 3
)

// Resources are the inputs an Engine is built from. Model and Corpus are
// mandatory; the rest fall back to empty defaults.
type Resources struct {
	Model       embedding.Lookup
	Corpus      []domain.CorpusRow
	Normalizer  *textproc.Normalizer
	Interpreter *query.Interpreter
	Lexicon     *lexicon.Lexicon
}

type Result struct {
	PlaceID    int64        `json:"place_id,omitempty"`
	Place      string       `json:"place"`
	Location   string       `json:"location"`
	Rating     float64      `json:"rating"`
	Score      float64      `json:"score"`
	Semantic   float64      `json:"semantic_score"`
	Keyword    float64      `json:"keyword_score"`
	NameMatch  bool         `json:"name_match"`
	Snippet    string       `json:"snippet,omitempty"`
	Review     string       `json:"review,omitempty"`
	ReviewedAt *time.Time   `json:"reviewed_at,omitempty"`
	Intent     query.Intent `json:"intent"`
}

type document struct {
	row      domain.CorpusRow
	key      string
	text     string // keyword form, see KeywordScorer.Prepare
	name     string
	location string
	vec      []float64
	zero     bool
	recency  float64
	rating   float64
}

// Engine is immutable once built and safe for concurrent searches.
type Engine struct {
	ready   bool
	cfg     Config
	norm    *textproc.Normalizer
	interp  *query.Interpreter
	keyword *KeywordScorer
	vec     *embedding.Vectorizer
	docs    []document
	places  []domain.CorpusRow
	builtAt time.Time
}

// NewEngine precomputes every document vector. The engine is ready only
// when the model has a dimension and the corpus is non-empty.
func NewEngine(res Resources, cfg Config) *Engine {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.MaxListed <= 0 {
		cfg.MaxListed = 100
	}
	if cfg.SnippetLen <= 0 {
		cfg.SnippetLen = 100
	}
	if res.Normalizer == nil {
		res.Normalizer = textproc.NewNormalizer()
	}
	if res.Interpreter == nil {
		res.Interpreter = query.NewInterpreter(nil, nil)
	}

	e := &Engine{
		cfg:     cfg,
		norm:    res.Normalizer,
		interp:  res.Interpreter,
		keyword: NewKeywordScorer(res.Normalizer, res.Lexicon),
		vec:     embedding.NewVectorizer(res.Model, res.Normalizer),
		builtAt: cfg.Now(),
	}
	if res.Model == nil || res.Model.Dimension() <= 0 || len(res.Corpus) == 0 {
		return e
	}

	seen := map[string]struct{}{}
	e.docs = make([]document, 0, len(res.Corpus))
	for _, row := range res.Corpus {
		text := row.CleanText
		if strings.TrimSpace(text) == "" {
			text = row.RawText
		}
		d := document{
			row:      row,
			key:      domain.PlaceKey(row.PlaceName),
			text:     e.keyword.Prepare(text),
			name:     strings.ToLower(row.PlaceName),
			location: strings.ToLower(row.Location),
			vec:      e.vec.VectorizeText(text),
			recency:  e.recency(row.ReviewedAt),
			rating:   clamp01(row.Rating / 5),
		}
		d.zero = embedding.IsZero(d.vec)
		e.docs = append(e.docs, d)

		if _, ok := seen[d.key]; !ok {
			seen[d.key] = struct{}{}
			e.places = append(e.places, row)
		}
	}
	e.ready = true
	return e
}

func (e *Engine) recency(at *time.Time) float64 {
	days := float64(unknownAgeDays)
	if at != nil {
		days = math.Max(0, e.cfg.Now().Sub(*at).Hours()/24)
	}
	return math.Exp(-recencyDecay * days)
}

// Ready reports whether both the model and the corpus were loaded.
func (e *Engine) Ready() bool { return e.ready }

func (e *Engine) BuiltAt() time.Time { return e.builtAt }

// Documents returns the number of indexed review rows.
func (e *Engine) Documents() int { return len(e.docs) }

// Places returns the number of distinct places in the corpus.
func (e *Engine) Places() int { return len(e.places) }

// Corpus returns the indexed rows in load order.
func (e *Engine) Corpus() []domain.CorpusRow {
	out := make([]domain.CorpusRow, len(e.docs))
	for i, d := range e.docs {
		out[i] = d.row
	}
	return out
}

// Analyze exposes query interpretation for debugging and telemetry.
func (e *Engine) Analyze(q string) query.Analysis {
	return e.interp.Analyze(q, e.norm)
}

// Search ranks places for q. It never fails: a not-ready engine or a
// non-positive topK yields an empty result.
func (e *Engine) Search(q string, topK int) []Result {
	if !e.ready || topK <= 0 {
		return []Result{}
	}
	a := e.Analyze(q)

	switch a.Intent {
	case query.IntentAll, query.IntentTopRated, query.IntentBottomRated:
		return e.listPlaces(a, topK)
	case query.IntentNone:
		if len(a.Tokens) == 0 && a.Region.Active() {
			return e.listPlaces(a, topK)
		}
	}
	return e.rank(q, a, topK)
}

func (e *Engine) listPlaces(a query.Analysis, topK int) []Result {
	out := make([]Result, 0, len(e.places))
	for _, p := range e.places {
		if !a.Region.Matches(p.Location) {
			continue
		}
		out = append(out, Result{
			PlaceID:  p.PlaceID,
			Place:    p.PlaceName,
			Location: p.Location,
			Rating:   p.Rating,
			Intent:   a.Intent,
		})
	}
	switch a.Intent {
	case query.IntentTopRated:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	case query.IntentBottomRated:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Rating < out[j].Rating })
	}
	return truncate(out, min(topK, e.cfg.MaxListed))
}

type scored struct {
	doc      int
	final    float64
	semantic float64
	keyword  float64
	name     bool
}

func (e *Engine) rank(raw string, a query.Analysis, topK int) []Result {
	qvec := e.vec.Vectorize(a.Tokens)
	qzero := embedding.IsZero(qvec)
	important := len(e.keyword.Important(a.Tokens)) > 0

	needle := domain.PlaceKey(raw)
	nameable := utf8.RuneCountInString(needle) >= minNameQueryLength

	var cands []scored
	for i := range e.docs {
		d := &e.docs[i]
		if !a.Region.Matches(d.row.Location) {
			continue
		}

		sem := 0.0
		if !qzero && !d.zero {
			sem = (embedding.Cosine(qvec, d.vec) + 1) / 2
		}
		nameHit := nameable && (strings.Contains(d.name, needle) || strings.Contains(d.location, needle))

		kw := e.keyword.Score(a.Tokens, d.text)
		if !nameHit {
			kw *= e.keyword.AntonymPenalty(a.Tokens, d.text)
		}

		combined := e.combine(sem, kw, d)
		if important && kw == 0 {
			combined = 0
		}
		final := math.Min(combined, e.cfg.NameScore)
		if nameHit {
			final = math.Max(combined, e.cfg.NameScore)
		}
		if final <= e.cfg.MinScore {
			continue
		}
		cands = append(cands, scored{doc: i, final: final, semantic: sem, keyword: kw, name: nameHit})
	}

	// equal scores keep corpus row order
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].final > cands[j].final })

	out := make([]Result, 0, min(topK, len(cands)))
	seen := map[string]struct{}{}
	for _, c := range cands {
		d := e.docs[c.doc]
		if _, dup := seen[d.key]; dup {
			continue
		}
		seen[d.key] = struct{}{}
		out = append(out, Result{
			PlaceID:    d.row.PlaceID,
			Place:      d.row.PlaceName,
			Location:   d.row.Location,
			Rating:     d.row.Rating,
			Score:      c.final,
			Semantic:   c.semantic,
			Keyword:    c.keyword,
			NameMatch:  c.name,
			Snippet:    snippet(d.row.RawText, e.cfg.SnippetLen),
			Review:     d.row.RawText,
			ReviewedAt: d.row.ReviewedAt,
			Intent:     a.Intent,
		})
		if len(out) == topK {
			break
		}
	}
	return out
}

func (e *Engine) combine(sem, kw float64, d *document) float64 {
	w := e.cfg.Weights
	s := sem*w.Semantic + kw*w.Keyword + d.recency*w.Recency + d.rating*w.Rating
	if total := w.Semantic + w.Keyword + w.Recency + w.Rating; total > 1 {
		s /= total
	}
	return clamp01(s)
}

func clamp01(f float64) float64 { return math.Max(0, math.Min(1, f)) }

func truncate(rs []Result, n int) []Result {
	if len(rs) > n {
		return rs[:n]
	}
	return rs
}

// snippet returns the first n runes of s, marked with "..." when cut.
func snippet(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
