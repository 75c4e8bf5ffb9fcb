package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carikemah/internal/app"
	"carikemah/internal/domain"
	"carikemah/internal/query"
)

func newSearch(t *testing.T, store *fakeStore, cache domain.Cache) (*app.SearchService, *app.EngineLoader) {
	t.Helper()
	dir := writeDicts(t, map[string]string{
		query.IntentFile: "phrase,code\nterbaik,RATING_TOP\nlihat semua,ALL\n",
		query.RegionFile: "term,code\nsleman,diy\nwonosobo,wonosobo\n",
	})
	loader := app.NewEngineLoader(app.EngineOptions{Model: testModel(t), DictDir: dir}, store)
	_, err := loader.Reload(context.Background())
	require.NoError(t, err)

	places := app.NewPlaceService(store, cache, time.Minute)
	svc := app.NewSearchService(loader, places, store, cache, app.SearchOptions{CacheTTL: time.Minute})
	return svc, loader
}

func TestSearch_RanksAndEnriches(t *testing.T) {
	store := seedStore(t)
	svc, _ := newSearch(t, store, &fakeCache{})

	resp, err := svc.Search(context.Background(), "  pemandangan ", 0, "")
	require.NoError(t, err)
	svc.Drain()

	assert.True(t, resp.Ready)
	assert.Equal(t, "pemandangan", resp.Query)
	assert.Equal(t, []string{"pemandangan"}, resp.Tokens)
	require.Len(t, resp.Results, 1)

	hit := resp.Results[0]
	assert.Equal(t, "Bukit Hijau", hit.Place)
	assert.Equal(t, int64(1), hit.PlaceID)
	assert.Equal(t, int64(15000), hit.BasePrice)
	assert.Equal(t, "https://maps.example/bukit", hit.MapsLink)
	assert.Contains(t, hit.PhotoURL, "text=Bukit+Hijau")

	logs := store.searchLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, "pemandangan", logs[0].Query)
	assert.Equal(t, "NONE", logs[0].Intent)
	assert.Equal(t, 1, logs[0].ResultCount)
}

func TestSearch_CacheKeyedByGeneration(t *testing.T) {
	store := seedStore(t)
	cache := &fakeCache{}
	svc, loader := newSearch(t, store, cache)
	ctx := context.Background()

	_, err := svc.Search(ctx, "pemandangan", 5, "")
	require.NoError(t, err)
	require.Len(t, cache.keys("search:1:"), 1)

	second, err := svc.Search(ctx, "PEMANDANGAN", 5, "")
	require.NoError(t, err)
	require.Len(t, second.Results, 1)
	assert.Equal(t, "Bukit Hijau", second.Results[0].Place)
	assert.Len(t, cache.keys("search:"), 1, "case-insensitive queries share a key")

	_, err = loader.Reload(ctx)
	require.NoError(t, err)
	third, err := svc.Search(ctx, "pemandangan", 5, "")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), third.Generation)
	assert.Len(t, cache.keys("search:2:"), 1)
	svc.Drain()
}

func TestSearch_IntentListingAndSort(t *testing.T) {
	svc, _ := newSearch(t, seedStore(t), &fakeCache{})
	ctx := context.Background()

	all, err := svc.Search(ctx, "lihat semua", 10, "")
	require.NoError(t, err)
	assert.Equal(t, query.IntentAll, all.Intent)
	require.Len(t, all.Results, 2)
	for _, h := range all.Results {
		assert.Equal(t, 0.0, h.Score)
	}

	sorted, err := svc.Search(ctx, "lihat semua", 10, app.SortRating)
	require.NoError(t, err)
	require.Len(t, sorted.Results, 2)
	assert.Equal(t, "Bukit Hijau", sorted.Results[0].Place)

	region, err := svc.Search(ctx, "wonosobo", 10, "")
	require.NoError(t, err)
	assert.Equal(t, "wonosobo", region.Region)
	require.Len(t, region.Results, 1)
	assert.Equal(t, "Lembah Kabut", region.Results[0].Place)
	svc.Drain()
}

func TestSearch_NotReadyAndHistoryFailure(t *testing.T) {
	store := seedStore(t)
	store.historyErr = errBoom
	loader := app.NewEngineLoader(app.EngineOptions{Model: testModel(t)}, store) // never reloaded
	svc := app.NewSearchService(loader, nil, store, nil, app.SearchOptions{})

	resp, err := svc.Search(context.Background(), "pemandangan", 3, "")
	require.NoError(t, err)
	svc.Drain()
	assert.False(t, resp.Ready)
	assert.NotNil(t, resp.Results)
	assert.Empty(t, resp.Results)
	assert.Empty(t, store.searchLogs())
}

func TestSearch_TopKClamped(t *testing.T) {
	svc, _ := newSearch(t, seedStore(t), nil)
	resp, err := svc.Search(context.Background(), "lihat semua", 1, "")
	require.NoError(t, err)
	svc.Drain()
	assert.Len(t, resp.Results, 1)
}

func TestSearch_History(t *testing.T) {
	store := seedStore(t)
	svc, _ := newSearch(t, store, nil)
	ctx := context.Background()

	for _, q := range []string{"pemandangan", "terbaik di sleman", "toilet"} {
		_, err := svc.Search(ctx, q, 5, "")
		require.NoError(t, err)
		svc.Drain()
	}
	logs, err := svc.History(ctx, 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "toilet", logs[0].Query)
	assert.Equal(t, "TOP_RATED", logs[1].Intent)
	assert.Equal(t, "diy", logs[1].Region)
}

func TestAnalyze(t *testing.T) {
	svc, _ := newSearch(t, seedStore(t), nil)
	a := svc.Analyze("terbaik di sleman")
	assert.Equal(t, query.IntentTopRated, a.Intent)
	assert.Equal(t, "diy", a.Region.Code)
	assert.Equal(t, []string{}, a.Tokens)
}
