package textproc

import (
	"fmt"
	"strings"

	"github.com/kljensen/snowball"
)

// Stemmer reduces a word to its root form.
type Stemmer interface {
	Stem(word string) string
}

// NewStemmer resolves a stemmer by name. "" and "none" return nil (no stemming).
func NewStemmer(name string) (Stemmer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none", "off":
		return nil, nil
	case "id", "indonesian":
		return IndonesianStemmer{}, nil
	default:
		return NewSnowballStemmer(name)
	}
}

// SnowballStemmer delegates to the snowball algorithms for one language.
type SnowballStemmer struct{ language string }

func NewSnowballStemmer(language string) (*SnowballStemmer, error) {
	language = strings.ToLower(strings.TrimSpace(language))
	if _, err := snowball.Stem("testing", language, true); err != nil {
		return nil, fmt.Errorf("snowball %q: %w", language, err)
	}
	return &SnowballStemmer{language: language}, nil
}

func (s *SnowballStemmer) Stem(word string) string {
	out, err := snowball.Stem(word, s.language, true)
	if err != nil {
		return word
	}
	return out
}

// IndonesianStemmer strips common Indonesian affixes without a root
// dictionary. It only cuts when at least minRoot characters remain.
type IndonesianStemmer struct{}

const minRoot = 4

func cutSuffix(w, suffix string, min int) (string, bool) {
	if strings.HasSuffix(w, suffix) && len(w)-len(suffix) >= min {
		return w[:len(w)-len(suffix)], true
	}
	return w, false
}

func isVowel(b byte) bool { return strings.IndexByte("aiueo", b) >= 0 }

func (IndonesianStemmer) Stem(word string) string {
	w := word

	for _, p := range []string{"lah", "kah", "tah", "pun"} {
		if out, ok := cutSuffix(w, p, minRoot+1); ok {
			w = out
			break
		}
	}
	if out, ok := cutSuffix(w, "nya", 3); ok {
		w = out
	} else {
		for _, p := range []string{"ku", "mu"} {
			if out, ok := cutSuffix(w, p, minRoot); ok {
				w = out
				break
			}
		}
	}

	derived := false
	if hasAnyPrefix(w, "me", "di", "ber", "ter", "pe", "ke") {
		if w, derived = cutSuffix(w, "kan", minRoot); !derived {
			w, derived = cutSuffix(w, "an", minRoot)
		}
	} else {
		w, derived = cutSuffix(w, "an", minRoot)
	}

	if root, ok := stripPrefix(w, derived); ok && len(root) >= minRoot {
		return root
	}
	return w
}

func hasAnyPrefix(w string, ps ...string) bool {
	for _, p := range ps {
		if strings.HasPrefix(w, p) {
			return true
		}
	}
	return false
}

// stripPrefix removes one derivational prefix, restoring the elided initial
// consonant of nasalised forms (menulis -> tulis, menyapu -> sapu).
// di-, ke- and se- are only removed as part of a confix (with a suffix).
func stripPrefix(w string, confix bool) (string, bool) {
	after := func(p string) (string, byte, bool) {
		if !strings.HasPrefix(w, p) || len(w) <= len(p) {
			return "", 0, false
		}
		rest := w[len(p):]
		return rest, rest[0], true
	}

	for _, nasal := range []struct{ me, pe string }{{"meng", "peng"}, {"meny", "peny"}, {"mem", "pem"}, {"men", "pen"}} {
		for _, p := range []string{nasal.me, nasal.pe} {
			rest, c, ok := after(p)
			if !ok {
				continue
			}
			switch nasal.me {
			case "meng":
				if isVowel(c) || c == 'g' || c == 'h' || c == 'k' {
					return rest, true
				}
			case "meny":
				if isVowel(c) {
					return "s" + rest, true
				}
			case "mem":
				if c == 'b' || c == 'f' || c == 'v' || c == 'p' {
					return rest, true
				}
				if isVowel(c) {
					return "p" + rest, true
				}
			case "men":
				if c == 'c' || c == 'd' || c == 'j' || c == 'z' || c == 't' {
					return rest, true
				}
				if isVowel(c) {
					return "t" + rest, true
				}
			}
		}
	}
	if rest, c, ok := after("me"); ok && strings.IndexByte("lmnrwy", c) >= 0 {
		return rest, true
	}
	for _, p := range []string{"per", "ber", "ter"} {
		if rest, _, ok := after(p); ok {
			return rest, true
		}
	}
	if rest, c, ok := after("pe"); ok && !isVowel(c) {
		return rest, true
	}
	if confix {
		for _, p := range []string{"di", "ke", "se"} {
			if rest, _, ok := after(p); ok {
				return rest, true
			}
		}
	}
	return "", false
}
