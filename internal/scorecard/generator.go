// Package scorecard aggregates review text into per-place aspect scores,
// visitor badges and a short insight.
package scorecard

import (
	"fmt"
	"math"
	"strings"

	"carikemah/internal/domain"
	"carikemah/internal/lexicon"
)

const (
	minMentions     = 2 // aspects need more mentions than this to drive the insight
	minBadgeReviews = 2
	badgeShare      = 0.1
	neutralScore    = 3.0
)

const (
	insightNoData = "Belum cukup data untuk menyimpulkan."
	insightBoth   = "Pengunjung sangat menyukai %s, namun perlu memperhatikan %s."
	insightBest   = "Kekuatan utama tempat ini adalah %s yang sangat memuaskan."
	insightWorst  = "Banyak keluhan mengenai %s, harap persiapkan diri."
)

type AspectScore struct {
	Key      string  `json:"key"`
	Label    string  `json:"label"`
	Icon     string  `json:"icon"`
	Positive int     `json:"pos"`
	Negative int     `json:"neg"`
	Mentions int     `json:"mentions"`
	Score    float64 `json:"score"`
}

type Scorecard struct {
	Place        string        `json:"place"`
	TotalReviews int           `json:"total_reviews"`
	Aspects      []AspectScore `json:"aspects"`
	Badges       []string      `json:"badges"`
	Best         string        `json:"best_aspect,omitempty"`
	Worst        string        `json:"worst_aspect,omitempty"`
	Insight      string        `json:"insight"`
}

// Aspect looks up one aspect by key.
func (s Scorecard) Aspect(key string) (AspectScore, bool) {
	for _, a := range s.Aspects {
		if a.Key == key {
			return a, true
		}
	}
	return AspectScore{}, false
}

// Overall is the mean of the aspects that have a score, rounded to one decimal.
func (s Scorecard) Overall() float64 {
	var sum float64
	n := 0
	for _, a := range s.Aspects {
		if a.Score > 0 {
			sum += a.Score
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return round1(sum / float64(n))
}

// Score maps sentiment counts to 1..5 by the positive ratio; 0 means no data.
func Score(pos, neg int) float64 {
	total := pos + neg
	if total == 0 {
		return 0
	}
	return round1(1 + 4*float64(pos)/float64(total))
}

func round1(f float64) float64 { return math.Round(f*10) / 10 }

type Generator struct {
	aspects  []lexicon.Aspect
	positive []string
	negative []string
	visitors []lexicon.VisitorType
}

func NewGenerator(lx *lexicon.Lexicon) *Generator {
	if lx == nil {
		lx = lexicon.Default()
	}
	return &Generator{
		aspects:  lx.Aspects,
		positive: lx.Sentiment.Positive,
		negative: lx.Sentiment.Negative,
		visitors: lx.VisitorTypes,
	}
}

// Build groups the corpus by place and scores each group. Keys are the
// place name as first seen.
func (g *Generator) Build(corpus []domain.CorpusRow) map[string]Scorecard {
	type group struct {
		name  string
		texts []string
	}
	var order []string
	groups := map[string]*group{}
	for _, r := range corpus {
		key := domain.PlaceKey(r.PlaceName)
		if key == "" {
			continue
		}
		grp, ok := groups[key]
		if !ok {
			grp = &group{name: r.PlaceName}
			groups[key] = grp
			order = append(order, key)
		}
		text := r.RawText
		if strings.TrimSpace(text) == "" {
			text = r.CleanText
		}
		grp.texts = append(grp.texts, text)
	}

	out := make(map[string]Scorecard, len(order))
	for _, key := range order {
		grp := groups[key]
		out[grp.name] = g.ForPlace(grp.name, grp.texts)
	}
	return out
}

// ForPlace scores the full review set of one place. When a single aspect
// qualifies as both best and worst it is reported once: as the strength at
// a neutral score (3) or above, as the complaint below it, so a poorly
// rated aspect is never praised in the insight.
func (g *Generator) ForPlace(place string, reviews []string) Scorecard {
	sc := Scorecard{
		Place:        place,
		TotalReviews: len(reviews),
		Aspects:      make([]AspectScore, len(g.aspects)),
		Badges:       []string{},
	}
	for i, a := range g.aspects {
		sc.Aspects[i] = AspectScore{Key: a.Key, Label: a.Label, Icon: a.Icon}
	}
	badgeCounts := make([]int, len(g.visitors))

	for _, raw := range reviews {
		text := strings.ToLower(raw)
		pos := containsAny(text, g.positive)
		neg := containsAny(text, g.negative)
		for i, a := range g.aspects {
			if !containsAny(text, a.Keywords) {
				continue
			}
			sc.Aspects[i].Mentions++
			switch {
			case pos && !neg:
				sc.Aspects[i].Positive++
			case neg && !pos:
				sc.Aspects[i].Negative++
			}
		}
		for i, v := range g.visitors {
			if containsAny(text, v.Keywords) {
				badgeCounts[i]++
			}
		}
	}

	best, worst := -1, -1
	for i := range sc.Aspects {
		a := &sc.Aspects[i]
		a.Score = Score(a.Positive, a.Negative)
		if a.Mentions <= minMentions || a.Score <= 0 {
			continue
		}
		if best < 0 || a.Score > sc.Aspects[best].Score {
			best = i
		}
		if worst < 0 || a.Score < sc.Aspects[worst].Score {
			worst = i
		}
	}

	// a single qualifying aspect is reported as a strength or a complaint, not both
	if best >= 0 && best == worst {
		if sc.Aspects[best].Score >= neutralScore {
			worst = -1
		} else {
			best = -1
		}
	}

	threshold := math.Max(minBadgeReviews, badgeShare*float64(len(reviews)))
	for i, v := range g.visitors {
		if float64(badgeCounts[i]) >= threshold {
			sc.Badges = append(sc.Badges, v.Key)
		}
	}

	var bestLabel, worstLabel string
	if best >= 0 {
		sc.Best = sc.Aspects[best].Key
		bestLabel = strings.ToLower(sc.Aspects[best].Label)
	}
	if worst >= 0 {
		sc.Worst = sc.Aspects[worst].Key
		worstLabel = strings.ToLower(sc.Aspects[worst].Label)
	}
	sc.Insight = insight(bestLabel, worstLabel)
	return sc
}

func insight(best, worst string) string {
	switch {
	case best != "" && worst != "" && best != worst:
		return fmt.Sprintf(insightBoth, best, worst)
	case best != "":
		return fmt.Sprintf(insightBest, best)
	case worst != "":
		return fmt.Sprintf(insightWorst, worst)
	default:
		return insightNoData
	}
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if w != "" && strings.Contains(text, w) {
			return true
		}
	}
	return false
}
