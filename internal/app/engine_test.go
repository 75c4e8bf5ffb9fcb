package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carikemah/internal/app"
	"carikemah/internal/query"
)

func writeDicts(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	return dir
}

func TestEngineLoader_NotReadyUntilReload(t *testing.T) {
	l := app.NewEngineLoader(app.EngineOptions{Model: testModel(t)}, seedStore(t))
	require.NotNil(t, l.Current())
	assert.False(t, l.Current().Ready())
	assert.Equal(t, uint64(0), l.Generation())

	eng, err := l.Reload(context.Background())
	require.NoError(t, err)
	assert.True(t, eng.Ready())
	assert.Same(t, eng, l.Current())
	assert.Equal(t, 2, eng.Documents())
	assert.Equal(t, uint64(1), l.Generation())

	_, err = l.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), l.Generation())
}

func TestEngineLoader_MissingResourcesDegrade(t *testing.T) {
	store := seedStore(t)
	store.corpusErr = errBoom

	l := app.NewEngineLoader(app.EngineOptions{ModelPath: filepath.Join(t.TempDir(), "missing.txt")}, store)
	eng, err := l.Reload(context.Background())
	require.NoError(t, err)
	assert.False(t, eng.Ready())
	assert.Empty(t, eng.Search("pemandangan", 5))
}

func TestEngineLoader_Dictionaries(t *testing.T) {
	dir := writeDicts(t, map[string]string{
		query.IntentFile: "phrase,code\nterbaik,RATING_TOP\n",
		query.RegionFile: "term,code\nsleman,diy\njogja,diy\n",
		// malformed row: the phrase map degrades to empty
		query.PhraseFile: "phrase,token\nadem\n",
	})
	l := app.NewEngineLoader(app.EngineOptions{Model: testModel(t), DictDir: dir, Stemmer: "klingon"}, seedStore(t))
	eng, err := l.Reload(context.Background())
	require.NoError(t, err)
	require.True(t, eng.Ready())

	a := eng.Analyze("terbaik di jogja")
	assert.Equal(t, query.IntentTopRated, a.Intent)
	assert.Equal(t, "diy", a.Region.Code)

	got := eng.Search("terbaik di jogja", 10)
	require.Len(t, got, 1)
	assert.Equal(t, "Bukit Hijau", got[0].Place)
}

func TestEngineLoader_LexiconOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lexicon.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
aspects:
  - key: kabut
    label: Kabut Pagi
    icon: K
    keywords: [kabut]
`), 0o600))

	l := app.NewEngineLoader(app.EngineOptions{Model: testModel(t), LexiconPath: path}, seedStore(t))
	_, err := l.Reload(context.Background())
	require.NoError(t, err)
	require.Len(t, l.Lexicon().Aspects, 1)
	assert.Equal(t, "kabut", l.Lexicon().Aspects[0].Key)
	assert.NotEmpty(t, l.Lexicon().Sentiment.Positive, "empty sections fall back to defaults")
}
