package textproc

import (
	"regexp"
	"sort"
	"strings"
)

// Entry is one dictionary mapping from a surface term to its canonical value.
type Entry struct {
	Key   string
	Value string
}

// Matcher scans a dictionary longest key first. Keys of equal length are
// ordered alphabetically so the scan order never depends on map iteration.
type Matcher struct {
	entries []Entry
	values  map[string]string
	reverse map[string][]string
	re      *regexp.Regexp
}

// NewMatcher builds a matcher from a term -> value mapping. Keys are
// lowercased and trimmed; empty keys are ignored.
func NewMatcher(m map[string]string) *Matcher {
	raw := make([]string, 0, len(m))
	for k := range m {
		raw = append(raw, k)
	}
	sort.Strings(raw)

	mt := &Matcher{
		values:  make(map[string]string, len(m)),
		reverse: make(map[string][]string),
	}
	for _, k := range raw {
		key := strings.ToLower(strings.TrimSpace(k))
		if key == "" {
			continue
		}
		if _, dup := mt.values[key]; dup {
			continue
		}
		val := strings.TrimSpace(m[k])
		mt.values[key] = val
		mt.entries = append(mt.entries, Entry{Key: key, Value: val})
	}
	sort.SliceStable(mt.entries, func(i, j int) bool {
		a, b := mt.entries[i].Key, mt.entries[j].Key
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})

	alts := make([]string, 0, len(mt.entries))
	for _, e := range mt.entries {
		alts = append(alts, regexp.QuoteMeta(e.Key))
		v := strings.ToLower(e.Value)
		mt.reverse[v] = append(mt.reverse[v], e.Key)
	}
	if len(alts) > 0 {
		// alternation is leftmost-first, so the longer key wins at a given position
		mt.re = regexp.MustCompile(`\b(?:` + strings.Join(alts, "|") + `)\b`)
	}
	return mt
}

// Len returns the number of distinct keys.
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Entries returns the dictionary in scan order.
func (m *Matcher) Entries() []Entry {
	if m == nil {
		return nil
	}
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// First returns the first entry, in scan order, whose key is a substring of text.
func (m *Matcher) First(text string) (Entry, bool) {
	if m == nil {
		return Entry{}, false
	}
	text = strings.ToLower(text)
	for _, e := range m.entries {
		if strings.Contains(text, e.Key) {
			return e, true
		}
	}
	return Entry{}, false
}

// Replace substitutes whole-word occurrences of keys with their values.
func (m *Matcher) Replace(text string) string {
	if m == nil || m.re == nil {
		return text
	}
	return m.re.ReplaceAllStringFunc(text, func(s string) string {
		return m.values[s]
	})
}

// KeysFor returns every key mapped to value (the reverse expansion of value).
func (m *Matcher) KeysFor(value string) []string {
	if m == nil {
		return nil
	}
	return m.reverse[strings.ToLower(value)]
}
