package ranking

import (
	"math"
	"strings"

	"carikemah/internal/lexicon"
	"carikemah/internal/textproc"
)

const (
	negationWindow = 3
	negationFactor = 0.3
	antonymFactor  = 0.1
)

// KeywordScorer computes lexical relevance of a document for query tokens.
type KeywordScorer struct {
	norm     *textproc.Normalizer
	synonyms map[string][]string
	antonyms map[string][]string
}

func NewKeywordScorer(n *textproc.Normalizer, lx *lexicon.Lexicon) *KeywordScorer {
	if n == nil {
		n = textproc.NewNormalizer()
	}
	if lx == nil {
		lx = &lexicon.Lexicon{}
	}
	s := &KeywordScorer{norm: n, synonyms: lx.Synonyms, antonyms: lx.Antonyms}
	if n.Stemming() {
		s.synonyms = s.stemmedMap(lx.Synonyms)
		s.antonyms = s.stemmedMap(lx.Antonyms)
	}
	return s
}

// stemmedMap re-keys a word map by stem so it can be looked up with
// stemmed query tokens. Values are stemmed the same way as documents.
func (s *KeywordScorer) stemmedMap(m map[string][]string) map[string][]string {
	out := make(map[string][]string, len(m))
	for k, vs := range m {
		sk := s.norm.StemText(k)
		for _, v := range vs {
			if sv := s.norm.StemText(v); sv != "" {
				out[sk] = append(out[sk], sv)
			}
		}
	}
	return out
}

// Prepare puts a document into the form Score and AntonymPenalty match
// against: lowercased, and cleaned and stemmed word by word when the
// normalizer stems query tokens.
func (s *KeywordScorer) Prepare(doc string) string {
	if s.norm.Stemming() {
		return s.norm.StemText(doc)
	}
	return strings.ToLower(doc)
}

// Important drops stopwords; when every token is a stopword all of them are kept.
func (s *KeywordScorer) Important(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !s.norm.IsStopword(t) {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return append(out, tokens...)
	}
	return out
}

// Candidates is the token, its synonyms and every phrase that normalizes to it.
// With stemming on, token is already a stem and the expansions are stemmed
// to match prepared documents.
func (s *KeywordScorer) Candidates(token string) []string {
	seen := map[string]struct{}{}
	var out []string
	add := func(ws ...string) {
		for _, w := range ws {
			w = strings.ToLower(strings.TrimSpace(w))
			if w == "" {
				continue
			}
			if _, ok := seen[w]; ok {
				continue
			}
			seen[w] = struct{}{}
			out = append(out, w)
		}
	}
	add(token)
	add(s.synonyms[token]...)
	for _, k := range s.norm.Phrases().KeysFor(token) {
		if s.norm.Stemming() {
			k = s.norm.StemText(k)
		}
		add(k)
	}
	return out
}

// Score returns found/important discounted by 0.3 for every token whose
// match is preceded (within three words) by a negation marker. doc is
// expected in Prepare form.
func (s *KeywordScorer) Score(tokens []string, doc string) float64 {
	important := s.Important(tokens)
	if len(important) == 0 {
		return 0
	}
	doc = strings.ToLower(doc)
	words := strings.Fields(textproc.Clean(doc))

	found, negated := 0, 0
	for _, tok := range important {
		hit, neg := false, false
		for _, c := range s.Candidates(tok) {
			if !strings.Contains(doc, c) {
				continue
			}
			hit = true
			if negatedIn(words, c) {
				neg = true
				break
			}
		}
		if hit {
			found++
			if neg {
				negated++
			}
		}
	}
	base := float64(found) / float64(len(important))
	return base * math.Pow(negationFactor, float64(negated))
}

// negatedIn reports whether any occurrence of cand's first word has a
// negation marker among the three words before it. words are cleaned, so
// punctuation next to a marker ("tidak,") does not hide it.
func negatedIn(words []string, cand string) bool {
	head := strings.Fields(textproc.Clean(cand))
	if len(head) == 0 {
		return false
	}
	for i, w := range words {
		if !strings.Contains(w, head[0]) {
			continue
		}
		for j := max(0, i-negationWindow); j < i; j++ {
			if textproc.IsNegation(words[j]) {
				return true
			}
		}
	}
	return false
}

// AntonymPenalty is the multiplier to apply to a keyword score: 0.1 for
// every important token with an antonym present in doc.
func (s *KeywordScorer) AntonymPenalty(tokens []string, doc string) float64 {
	doc = strings.ToLower(doc)
	mult := 1.0
	for _, tok := range s.Important(tokens) {
		for _, a := range s.antonyms[tok] {
			if a != "" && strings.Contains(doc, a) {
				mult *= antonymFactor
				break
			}
		}
	}
	return mult
}
