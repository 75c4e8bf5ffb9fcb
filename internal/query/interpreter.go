// Package query detects special intents and region filters in raw queries.
package query

import (
	"sort"
	"strings"

	"carikemah/internal/textproc"
)

// Region is an active location filter: the canonical code and every
// synonym a location string may contain.
type Region struct {
	Code  string   `json:"code"`
	Term  string   `json:"term"`
	Terms []string `json:"terms"`
}

func (r Region) Active() bool { return len(r.Terms) > 0 }

// Matches reports whether location contains any synonym. An inactive
// region matches everything.
func (r Region) Matches(location string) bool {
	if !r.Active() {
		return true
	}
	loc := strings.ToLower(location)
	for _, t := range r.Terms {
		if strings.Contains(loc, t) {
			return true
		}
	}
	return false
}

type Interpreter struct {
	intents  *textproc.Matcher
	regions  *textproc.Matcher
	synonyms map[string][]string
}

// NewInterpreter builds an interpreter from intent phrase -> code and region
// term -> region code dictionaries. Intent rows with unknown codes are dropped.
func NewInterpreter(intents, regions map[string]string) *Interpreter {
	valid := make(map[string]string, len(intents))
	for phrase, code := range intents {
		if in, ok := ParseIntent(code); ok && in != IntentNone {
			valid[phrase] = in.String()
		}
	}

	it := &Interpreter{
		intents:  textproc.NewMatcher(valid),
		regions:  textproc.NewMatcher(regions),
		synonyms: make(map[string][]string),
	}
	for _, e := range it.regions.Entries() {
		code := strings.ToLower(e.Value)
		if code == "" {
			continue
		}
		it.synonyms[code] = append(it.synonyms[code], e.Key)
	}
	for code, terms := range it.synonyms {
		if !contains(terms, code) {
			terms = append(terms, code)
		}
		sort.Strings(terms)
		it.synonyms[code] = terms
	}
	return it
}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

// DetectIntent lowercases q, finds the longest matching intent phrase and
// removes it. At most one intent is detected per query.
func (it *Interpreter) DetectIntent(q string) (string, Intent) {
	q = strings.ToLower(q)
	e, ok := it.intents.First(q)
	if !ok {
		return q, IntentNone
	}
	in, _ := ParseIntent(e.Value)
	return strings.ReplaceAll(q, e.Key, " "), in
}

// DetectRegion returns the full synonym set of the region whose term
// (longest first) occurs in q, or an inactive Region.
func (it *Interpreter) DetectRegion(q string) Region {
	e, ok := it.regions.First(strings.ToLower(q))
	if !ok {
		return Region{}
	}
	code := strings.ToLower(e.Value)
	terms := it.synonyms[code]
	if len(terms) == 0 {
		terms = []string{e.Key}
	}
	return Region{Code: code, Term: e.Key, Terms: append([]string(nil), terms...)}
}

// Analysis is the interpreted form of a raw query.
type Analysis struct {
	Raw       string   `json:"raw"`
	Remainder string   `json:"remainder"`
	Tokens    []string `json:"tokens"`
	Intent    Intent   `json:"intent"`
	Region    Region   `json:"region"`
}

// Analyze detects the intent, then the region, and normalizes what is left
// of the query with both the intent phrase and the region term removed.
func (it *Interpreter) Analyze(q string, n *textproc.Normalizer) Analysis {
	rest, intent := it.DetectIntent(q)
	region := it.DetectRegion(rest)
	if region.Active() {
		rest = strings.ReplaceAll(rest, region.Term, " ")
	}
	rest = strings.Join(strings.Fields(rest), " ")
	return Analysis{
		Raw:       q,
		Remainder: rest,
		Tokens:    n.Normalize(rest),
		Intent:    intent,
		Region:    region,
	}
}
