package scorecard_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carikemah/internal/domain"
	"carikemah/internal/lexicon"
	"carikemah/internal/scorecard"
)

func testLexicon() *lexicon.Lexicon {
	return &lexicon.Lexicon{
		Aspects: []lexicon.Aspect{
			{Key: "toilet", Label: "Kebersihan Toilet", Icon: "T", Keywords: []string{"toilet", "wc"}},
			{Key: "view", Label: "Pemandangan Alam", Icon: "V", Keywords: []string{"pemandangan", "view"}},
			{Key: "akses", Label: "Akses & Parkir", Icon: "A", Keywords: []string{"parkir"}},
		},
		Sentiment: lexicon.Sentiment{
			Positive: []string{"bersih", "indah"},
			Negative: []string{"kotor", "jelek"},
		},
		VisitorTypes: []lexicon.VisitorType{
			{Key: "keluarga", Keywords: []string{"anak", "keluarga"}},
			{Key: "petualang", Keywords: []string{"trekking"}},
		},
	}
}

func TestScore(t *testing.T) {
	assert.Equal(t, 0.0, scorecard.Score(0, 0))
	assert.Equal(t, 5.0, scorecard.Score(3, 0))
	assert.Equal(t, 1.0, scorecard.Score(0, 2))
	assert.Equal(t, 3.0, scorecard.Score(1, 1))
	assert.Equal(t, 3.7, scorecard.Score(2, 1))
	assert.Equal(t, 2.3, scorecard.Score(1, 2))
}

func TestForPlace_CountsScoresBadgesInsight(t *testing.T) {
	g := scorecard.NewGenerator(testLexicon())
	sc := g.ForPlace("Bukit Hijau", []string{
		"Toilet bersih, pemandangan indah, bawa anak",
		"toilet kotor",
		"toilet kotor sekali, pemandangan jelek",
		"pemandangan indah banget, anak senang",
		"WC kotor tapi pemandangan indah",
		"parkir luas",
	})

	assert.Equal(t, 6, sc.TotalReviews)

	toilet, ok := sc.Aspect("toilet")
	require.True(t, ok)
	assert.Equal(t, scorecard.AspectScore{Key: "toilet", Label: "Kebersihan Toilet", Icon: "T",
		Positive: 1, Negative: 2, Mentions: 4, Score: 2.3}, toilet)

	view, _ := sc.Aspect("view")
	assert.Equal(t, 2, view.Positive)
	assert.Equal(t, 1, view.Negative)
	assert.Equal(t, 4, view.Mentions)
	assert.Equal(t, 3.7, view.Score)

	akses, _ := sc.Aspect("akses")
	assert.Equal(t, 1, akses.Mentions)
	assert.Equal(t, 0.0, akses.Score)

	assert.Equal(t, "view", sc.Best)
	assert.Equal(t, "toilet", sc.Worst)
	assert.Equal(t, "Pengunjung sangat menyukai pemandangan alam, namun perlu memperhatikan kebersihan toilet.", sc.Insight)
	assert.Equal(t, []string{"keluarga"}, sc.Badges)
	assert.Equal(t, 3.0, sc.Overall())
}

func TestForPlace_MaterialityFloor(t *testing.T) {
	g := scorecard.NewGenerator(testLexicon())
	sc := g.ForPlace("Kecil", []string{"toilet bersih", "toilet bersih"})

	toilet, _ := sc.Aspect("toilet")
	assert.Equal(t, 5.0, toilet.Score)
	assert.Empty(t, sc.Best)
	assert.Equal(t, "Belum cukup data untuk menyimpulkan.", sc.Insight)
}

func TestForPlace_SingleAspectInsight(t *testing.T) {
	g := scorecard.NewGenerator(testLexicon())

	good := g.ForPlace("A", []string{"toilet bersih", "toilet bersih", "toilet bersih"})
	assert.Equal(t, "Kekuatan utama tempat ini adalah kebersihan toilet yang sangat memuaskan.", good.Insight)

	bad := g.ForPlace("B", []string{"toilet kotor", "toilet kotor", "toilet kotor"})
	assert.Equal(t, "Banyak keluhan mengenai kebersihan toilet, harap persiapkan diri.", bad.Insight)
	assert.Empty(t, bad.Best)
	assert.Equal(t, "toilet", bad.Worst)
}

func TestForPlace_SingleAspectAtNeutralScoreIsStrength(t *testing.T) {
	g := scorecard.NewGenerator(testLexicon())

	sc := g.ForPlace("C", []string{"toilet bersih", "toilet kotor", "toilet bersih", "toilet kotor"})
	toilet, ok := sc.Aspect("toilet")
	require.True(t, ok)
	assert.Equal(t, 3.0, toilet.Score)
	assert.Equal(t, "toilet", sc.Best)
	assert.Empty(t, sc.Worst)
}

func TestForPlace_BadgeThresholdScalesWithVolume(t *testing.T) {
	g := scorecard.NewGenerator(testLexicon())
	reviews := make([]string, 30)
	for i := range reviews {
		reviews[i] = "biasa saja"
	}
	reviews[0], reviews[1] = "bawa anak", "bawa keluarga"
	assert.Empty(t, g.ForPlace("Besar", reviews).Badges)

	reviews[2] = "anak senang"
	assert.Equal(t, []string{"keluarga"}, g.ForPlace("Besar", reviews).Badges)
}

func TestForPlace_Empty(t *testing.T) {
	sc := scorecard.NewGenerator(nil).ForPlace("Kosong", nil)
	assert.Len(t, sc.Aspects, 6)
	assert.NotNil(t, sc.Badges)
	assert.Equal(t, "Belum cukup data untuk menyimpulkan.", sc.Insight)
	for _, a := range sc.Aspects {
		assert.Equal(t, 0.0, a.Score)
	}

	b, err := json.Marshal(sc)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"badges":[]`)
}

func TestBuild_GroupsByPlaceKey(t *testing.T) {
	g := scorecard.NewGenerator(testLexicon())
	out := g.Build([]domain.CorpusRow{
		{PlaceName: "Bukit Hijau", RawText: "toilet bersih"},
		{PlaceName: "Lembah Kabut", RawText: "toilet kotor"},
		{PlaceName: "bukit  HIJAU", CleanText: "pemandangan indah"},
		{PlaceName: "  ", RawText: "ignored"},
	})

	require.Len(t, out, 2)
	assert.Equal(t, 2, out["Bukit Hijau"].TotalReviews)
	view, _ := out["Bukit Hijau"].Aspect("view")
	assert.Equal(t, 1, view.Positive)
	assert.Equal(t, 1, out["Lembah Kabut"].TotalReviews)
}
