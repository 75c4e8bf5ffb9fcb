package query_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carikemah/internal/query"
	"carikemah/internal/textproc"
)

func testInterpreter() *query.Interpreter {
	return query.NewInterpreter(
		map[string]string{
			"semua":           "ALL",
			"lihat semua":     "ALL",
			"terbaik":         "RATING_TOP",
			"rating terendah": "RATING_BOTTOM",
			"paling jelek":    "BOTTOM_RATED",
			"ngawur":          "SOMETHING_ELSE",
		},
		map[string]string{
			"jogja":          "diy",
			"yogyakarta":     "diy",
			"sleman":         "diy",
			"kaliurang":      "diy",
			"jogja istimewa": "special",
			"dieng":          "dieng",
			"wonosobo":       "dieng",
		},
	)
}

func TestDetectIntent(t *testing.T) {
	it := testInterpreter()

	rest, in := it.DetectIntent("Lihat Semua tempat camping")
	assert.Equal(t, query.IntentAll, in)
	assert.Equal(t, "  tempat camping", rest)

	_, in = it.DetectIntent("camping terbaik di dieng")
	assert.Equal(t, query.IntentTopRated, in)

	_, in = it.DetectIntent("rating terendah")
	assert.Equal(t, query.IntentBottomRated, in)

	_, in = it.DetectIntent("ngawur saja")
	assert.Equal(t, query.IntentNone, in)

	rest, in = it.DetectIntent("toilet bersih")
	assert.Equal(t, query.IntentNone, in)
	assert.Equal(t, "toilet bersih", rest)
}

func TestDetectIntent_OnlyFirstMatch(t *testing.T) {
	rest, in := testInterpreter().DetectIntent("terbaik paling jelek")
	assert.Equal(t, query.IntentBottomRated, in)
	assert.Contains(t, rest, "terbaik")
}

func TestDetectIntent_RemovesEveryOccurrence(t *testing.T) {
	rest, in := testInterpreter().DetectIntent("terbaik camping terbaik")
	assert.Equal(t, query.IntentTopRated, in)
	assert.NotContains(t, rest, "terbaik")
	assert.Equal(t, []string{"camping"}, strings.Fields(rest))
}

func TestDetectRegion_ReturnsFullSynonymSet(t *testing.T) {
	r := testInterpreter().DetectRegion("camping sejuk di JOGJA")
	require.True(t, r.Active())
	assert.Equal(t, "diy", r.Code)
	assert.Equal(t, []string{"diy", "jogja", "kaliurang", "sleman", "yogyakarta"}, r.Terms)
	assert.True(t, r.Matches("Kab. Sleman, Daerah Istimewa Yogyakarta"))
	assert.False(t, r.Matches("Wonosobo, Jawa Tengah"))
}

func TestDetectRegion_LongestTermWins(t *testing.T) {
	r := testInterpreter().DetectRegion("jogja istimewa camping")
	assert.Equal(t, "special", r.Code)
}

func TestDetectRegion_NoMatch(t *testing.T) {
	r := testInterpreter().DetectRegion("camping di semarang")
	assert.False(t, r.Active())
	assert.True(t, r.Matches("anything"))
}

func TestAnalyze(t *testing.T) {
	n := textproc.NewNormalizer()
	a := testInterpreter().Analyze("Camping terbaik yang sejuk di Dieng", n)

	assert.Equal(t, query.IntentTopRated, a.Intent)
	assert.Equal(t, "dieng", a.Region.Code)
	assert.Equal(t, []string{"camping", "sejuk"}, a.Tokens)
	assert.Equal(t, "camping yang sejuk di", a.Remainder)
}

func TestAnalyze_RepeatedRegionTerm(t *testing.T) {
	a := testInterpreter().Analyze("dieng sejuk dieng", textproc.NewNormalizer())
	assert.Equal(t, "dieng", a.Region.Code)
	assert.Equal(t, []string{"sejuk"}, a.Tokens)
}

func TestIntentString(t *testing.T) {
	assert.Equal(t, "NONE", query.IntentNone.String())
	assert.Equal(t, "ALL", query.IntentAll.String())
	b, err := query.IntentTopRated.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "TOP_RATED", string(b))
}

func TestReadDictionary(t *testing.T) {
	m, err := query.ReadDictionary(strings.NewReader("# comment\nterm,code\nJogja, diy\n\"kulon progo\",diy\n,skip\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"jogja": "diy", "kulon progo": "diy"}, m)
}

func TestReadDictionary_MissingColumns(t *testing.T) {
	_, err := query.ReadDictionary(strings.NewReader("term,code\njogja\n"))
	assert.Error(t, err)

	_, err = query.ReadDictionary(strings.NewReader("only_one_column\n"))
	assert.Error(t, err)
}

func TestLoadDictionary_DegradesToEmpty(t *testing.T) {
	dir := t.TempDir()

	m, err := query.LoadDictionary(filepath.Join(dir, "missing.csv"))
	assert.NoError(t, err)
	assert.Empty(t, m)

	bad := filepath.Join(dir, query.RegionFile)
	require.NoError(t, os.WriteFile(bad, []byte("term,code\njogja\n"), 0o600))
	m, err = query.LoadDictionary(bad)
	assert.Error(t, err)
	assert.NotNil(t, m)
	assert.Empty(t, m)
}

func TestIntentJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Intent query.Intent `json:"intent"`
	}{query.IntentBottomRated})
	require.NoError(t, err)
	assert.JSONEq(t, `{"intent":"BOTTOM_RATED"}`, string(b))

	var back struct {
		Intent query.Intent `json:"intent"`
	}
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, query.IntentBottomRated, back.Intent)

	assert.Error(t, json.Unmarshal([]byte(`{"intent":"SIDEWAYS"}`), &back))
}
