package app

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"carikemah/internal/adapters/observability"
	"carikemah/internal/domain"
	"carikemah/internal/embedding"
	"carikemah/internal/lexicon"
	"carikemah/internal/query"
	"carikemah/internal/ranking"
	"carikemah/internal/textproc"
)

// CorpusSource supplies the review rows the engine indexes.
type CorpusSource interface {
	LoadCorpus(ctx context.Context) ([]domain.CorpusRow, error)
}

type EngineOptions struct {
	ModelPath     string
	Model         embedding.Lookup // overrides ModelPath when set
	DictDir       string
	LexiconPath   string
	StopwordsPath string
	Stemmer       string
	Ranking       ranking.Config // zero value means ranking.DefaultConfig()
}

// snapshot is one built engine plus what was loaded alongside it.
type snapshot struct {
	engine     *ranking.Engine
	lexicon    *lexicon.Lexicon
	generation uint64
}

// EngineLoader owns the current search engine. Reload builds a fresh engine
// off to the side and swaps it in; readers never see a half-built one.
type EngineLoader struct {
	opts   EngineOptions
	corpus CorpusSource

	mu  sync.Mutex // serializes reloads
	cur atomic.Pointer[snapshot]
}

func NewEngineLoader(opts EngineOptions, corpus CorpusSource) *EngineLoader {
	if opts.Ranking.Weights == (ranking.Weights{}) {
		opts.Ranking = ranking.DefaultConfig()
	}
	l := &EngineLoader{opts: opts, corpus: corpus}
	l.cur.Store(&snapshot{
		engine:  ranking.NewEngine(ranking.Resources{}, opts.Ranking),
		lexicon: lexicon.Default(),
	})
	return l
}

func (l *EngineLoader) snapshot() *snapshot { return l.cur.Load() }

// Current returns the live engine. It is never nil; before the first
// successful Reload it is simply not ready.
func (l *EngineLoader) Current() *ranking.Engine { return l.cur.Load().engine }

func (l *EngineLoader) Lexicon() *lexicon.Lexicon { return l.cur.Load().lexicon }

// Generation increments on every Reload and keys result caches.
func (l *EngineLoader) Generation() uint64 { return l.cur.Load().generation }

// Reload rebuilds from the configured resources. Missing resources leave the
// new engine not ready; that is reported by Ready, not by an error.
func (l *EngineLoader) Reload(ctx context.Context) (*ranking.Engine, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := time.Now()
	lx := l.loadLexicon()
	res := ranking.Resources{
		Model:       l.loadModel(),
		Corpus:      l.loadCorpus(ctx),
		Normalizer:  l.loadNormalizer(),
		Interpreter: l.loadInterpreter(),
		Lexicon:     lx,
	}
	if err := ctx.Err(); err != nil {
		return l.Current(), err
	}
	eng := ranking.NewEngine(res, l.opts.Ranking)

	prev := l.cur.Load()
	l.cur.Store(&snapshot{engine: eng, lexicon: lx, generation: prev.generation + 1})
	observability.SetEngine(eng.Ready(), eng.Documents())

	ev := log.Info()
	if !eng.Ready() {
		ev = log.Error()
	}
	ev.Bool("ready", eng.Ready()).
		Int("documents", eng.Documents()).
		Int("places", eng.Places()).
		Uint64("generation", prev.generation+1).
		Dur("took", time.Since(start)).
		Msg("search engine loaded")
	return eng, nil
}

func (l *EngineLoader) loadModel() embedding.Lookup {
	if l.opts.Model != nil {
		return l.opts.Model
	}
	m, err := embedding.LoadFile(l.opts.ModelPath)
	if err != nil {
		log.Error().Err(err).Str("path", l.opts.ModelPath).Msg("embedding model unavailable")
		return nil
	}
	log.Info().Int("words", m.Len()).Int("dim", m.Dimension()).Msg("embedding model loaded")
	return m
}

func (l *EngineLoader) loadCorpus(ctx context.Context) []domain.CorpusRow {
	if l.corpus == nil {
		return nil
	}
	rows, err := l.corpus.LoadCorpus(ctx)
	if err != nil {
		log.Error().Err(err).Msg("corpus unavailable")
		return nil
	}
	return rows
}

// loadDictionary degrades to an empty mapping on any problem.
func (l *EngineLoader) loadDictionary(name string) map[string]string {
	if l.opts.DictDir == "" {
		return map[string]string{}
	}
	path := filepath.Join(l.opts.DictDir, name)
	m, err := query.LoadDictionary(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("dictionary malformed, ignoring")
		return map[string]string{}
	}
	log.Debug().Str("path", path).Int("entries", len(m)).Msg("dictionary loaded")
	return m
}

func (l *EngineLoader) loadNormalizer() *textproc.Normalizer {
	opts := []textproc.Option{
		textproc.WithPhrases(textproc.NewMatcher(l.loadDictionary(query.PhraseFile))),
	}
	if l.opts.StopwordsPath != "" {
		words, err := textproc.LoadStopwords(l.opts.StopwordsPath)
		if err != nil {
			log.Warn().Err(err).Str("path", l.opts.StopwordsPath).Msg("stopwords unavailable, using defaults")
		} else {
			opts = append(opts, textproc.WithStopwords(words))
		}
	}
	stem, err := textproc.NewStemmer(l.opts.Stemmer)
	if err != nil {
		log.Warn().Err(err).Str("stemmer", l.opts.Stemmer).Msg("unknown stemmer, stemming disabled")
	} else if stem != nil {
		opts = append(opts, textproc.WithStemmer(stem))
	}
	return textproc.NewNormalizer(opts...)
}

func (l *EngineLoader) loadInterpreter() *query.Interpreter {
	return query.NewInterpreter(
		l.loadDictionary(query.IntentFile),
		l.loadDictionary(query.RegionFile),
	)
}

func (l *EngineLoader) loadLexicon() *lexicon.Lexicon {
	if l.opts.LexiconPath == "" {
		return lexicon.Default()
	}
	lx, err := lexicon.Load(l.opts.LexiconPath)
	if err != nil {
		log.Warn().Err(err).Str("path", l.opts.LexiconPath).Msg("lexicon unavailable, using defaults")
		return lexicon.Default()
	}
	return lx
}
