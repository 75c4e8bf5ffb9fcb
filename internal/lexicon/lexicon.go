// Package lexicon holds the static vocabulary: aspects, sentiment words,
// visitor types, synonyms and antonyms.
package lexicon

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

type Aspect struct {
	Key      string   `yaml:"key" json:"key"`
	Label    string   `yaml:"label" json:"label"`
	Icon     string   `yaml:"icon" json:"icon"`
	Keywords []string `yaml:"keywords" json:"-"`
}

type VisitorType struct {
	Key      string   `yaml:"key"`
	Keywords []string `yaml:"keywords"`
}

type Sentiment struct {
	Positive []string `yaml:"positive"`
	Negative []string `yaml:"negative"`
}

type Lexicon struct {
	Aspects      []Aspect            `yaml:"aspects"`
	Sentiment    Sentiment           `yaml:"sentiment"`
	VisitorTypes []VisitorType       `yaml:"visitor_types"`
	Synonyms     map[string][]string `yaml:"synonyms"`
	Antonyms     map[string][]string `yaml:"antonyms"`
}

// Default returns a fresh copy of the embedded vocabulary.
func Default() *Lexicon {
	lx, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded lexicon: %v", err))
	}
	return lx
}

// Parse decodes YAML and lowercases every word.
func Parse(b []byte) (*Lexicon, error) {
	var lx Lexicon
	if err := yaml.Unmarshal(b, &lx); err != nil {
		return nil, err
	}
	lx.normalize()
	return &lx, nil
}

// Load reads path and fills any section it leaves empty from the defaults.
// An empty path returns the defaults.
func Load(path string) (*Lexicon, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lx, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	def := Default()
	if len(lx.Aspects) == 0 {
		lx.Aspects = def.Aspects
	}
	if len(lx.Sentiment.Positive) == 0 && len(lx.Sentiment.Negative) == 0 {
		lx.Sentiment = def.Sentiment
	}
	if len(lx.VisitorTypes) == 0 {
		lx.VisitorTypes = def.VisitorTypes
	}
	if lx.Synonyms == nil {
		lx.Synonyms = def.Synonyms
	}
	if lx.Antonyms == nil {
		lx.Antonyms = def.Antonyms
	}
	return lx, nil
}

func (lx *Lexicon) normalize() {
	for i := range lx.Aspects {
		lx.Aspects[i].Keywords = lower(lx.Aspects[i].Keywords)
	}
	for i := range lx.VisitorTypes {
		lx.VisitorTypes[i].Keywords = lower(lx.VisitorTypes[i].Keywords)
	}
	lx.Sentiment.Positive = lower(lx.Sentiment.Positive)
	lx.Sentiment.Negative = lower(lx.Sentiment.Negative)
	lx.Synonyms = lowerMap(lx.Synonyms)
	lx.Antonyms = lowerMap(lx.Antonyms)
}

func lower(ws []string) []string {
	out := ws[:0]
	for _, w := range ws {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			out = append(out, w)
		}
	}
	return out
}

func lowerMap(m map[string][]string) map[string][]string {
	if m == nil {
		return nil
	}
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[strings.ToLower(strings.TrimSpace(k))] = lower(v)
	}
	return out
}
