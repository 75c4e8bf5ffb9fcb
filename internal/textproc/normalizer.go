// Package textproc turns free review and query text into normalized tokens.
package textproc

import "strings"

type Normalizer struct {
	phrases   *Matcher
	stopwords map[string]struct{}
	stemmer   Stemmer
}

type Option func(*Normalizer)

// WithPhrases sets the phrase -> token substitution dictionary.
func WithPhrases(m *Matcher) Option { return func(n *Normalizer) { n.phrases = m } }

// WithStopwords replaces the default stopword list.
func WithStopwords(words []string) Option {
	return func(n *Normalizer) { n.stopwords = stopSet(words) }
}

// WithStemmer enables root reduction. A nil stemmer disables it.
func WithStemmer(s Stemmer) Option { return func(n *Normalizer) { n.stemmer = s } }

func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{stopwords: stopSet(DefaultStopwords)}
	for _, o := range opts {
		o(n)
	}
	return n
}

func stopSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" || IsNegation(w) {
			continue
		}
		set[w] = struct{}{}
	}
	return set
}

// Phrases returns the substitution dictionary (may be nil).
func (n *Normalizer) Phrases() *Matcher { return n.phrases }

// IsStopword reports whether w is dropped during normalization.
func (n *Normalizer) IsStopword(w string) bool {
	_, ok := n.stopwords[w]
	return ok
}

// Clean lowercases text and replaces everything outside [a-z0-9] with a space.
func Clean(text string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return ' '
	}, strings.ToLower(text))
}

// Normalize runs clean -> phrase substitution -> split -> stopword removal ->
// stemming. Tokens of length <= 1 are dropped before and after stemming.
func (n *Normalizer) Normalize(text string) []string {
	text = n.phrases.Replace(Clean(text))

	fields := strings.Fields(text)
	out := make([]string, 0, len(fields))
	for _, t := range fields {
		if len(t) <= 1 || n.IsStopword(t) {
			continue
		}
		if n.stemmer != nil {
			t = n.stemmer.Stem(t)
			if len(t) <= 1 {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// Stemming reports whether a stemmer is configured.
func (n *Normalizer) Stemming() bool { return n.stemmer != nil }

// StemText cleans text, applies phrase substitution and stems every word.
// Stopwords and negation markers are kept in place, so the result can be
// matched against stemmed query tokens and still carry negation context.
func (n *Normalizer) StemText(text string) string {
	fields := strings.Fields(n.phrases.Replace(Clean(text)))
	if n.stemmer == nil {
		return strings.Join(fields, " ")
	}
	for i, f := range fields {
		if IsNegation(f) {
			continue
		}
		if st := n.stemmer.Stem(f); st != "" {
			fields[i] = st
		}
	}
	return strings.Join(fields, " ")
}

// Tokens normalizes a string, passes a token slice through unchanged, and
// returns an empty sequence for anything else.
func (n *Normalizer) Tokens(v any) []string {
	switch t := v.(type) {
	case string:
		return n.Normalize(t)
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	default:
		return []string{}
	}
}
