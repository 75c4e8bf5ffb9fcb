package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"carikemah/internal/domain"
	"carikemah/internal/embedding"
)

// ---- fakes ----

// fakeStore implements every repository port in memory.
type fakeStore struct {
	mu         sync.Mutex
	nextID     int64
	places     map[int64]domain.Place
	reviews    map[int64][]domain.Review
	prices     map[int64][]domain.PriceItem
	facilities map[int64][]string
	searches   []domain.SearchLog
	bookings   map[int64]domain.Booking
	historyErr error
	corpusErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		places:     map[int64]domain.Place{},
		reviews:    map[int64][]domain.Review{},
		prices:     map[int64][]domain.PriceItem{},
		facilities: map[int64][]string{},
		bookings:   map[int64]domain.Booking{},
	}
}

func (f *fakeStore) UpsertPlace(ctx context.Context, p domain.Place) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, cur := range f.places {
		if cur.Name == p.Name {
			p.ID = id
			f.places[id] = p
			return id, nil
		}
	}
	f.nextID++
	p.ID = f.nextID
	f.places[p.ID] = p
	return p.ID, nil
}

func (f *fakeStore) ReplaceReviews(ctx context.Context, id int64, rs []domain.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviews[id] = append([]domain.Review(nil), rs...)
	return nil
}

func (f *fakeStore) ReplacePrices(ctx context.Context, id int64, ps []domain.PriceItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices[id] = append([]domain.PriceItem(nil), ps...)
	return nil
}

func (f *fakeStore) ReplaceFacilities(ctx context.Context, id int64, names []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.facilities[id] = append([]string(nil), names...)
	return nil
}

func (f *fakeStore) GetPlaceByName(ctx context.Context, name string) (domain.Place, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.sortedPlaces() {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(strings.TrimSpace(name))) {
			return p, nil
		}
	}
	return domain.Place{}, domain.ErrNotFound
}

func (f *fakeStore) GetPlaceDetails(ctx context.Context, id int64) (domain.PlaceDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.places[id]
	if !ok {
		return domain.PlaceDetails{}, domain.ErrNotFound
	}
	return domain.PlaceDetails{Info: p, Prices: f.prices[id], Facilities: f.facilities[id]}, nil
}

func (f *fakeStore) sortedPlaces() []domain.Place {
	out := make([]domain.Place, 0, len(f.places))
	for _, p := range f.places {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeStore) ListPlaces(ctx context.Context) ([]domain.Place, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sortedPlaces(), nil
}

func (f *fakeStore) ListReviews(ctx context.Context, id int64, limit int) ([]domain.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rs := f.reviews[id]
	if len(rs) > limit {
		rs = rs[:limit]
	}
	return append([]domain.Review(nil), rs...), nil
}

func (f *fakeStore) LoadCorpus(ctx context.Context) ([]domain.CorpusRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.corpusErr != nil {
		return nil, f.corpusErr
	}
	var out []domain.CorpusRow
	for _, p := range f.sortedPlaces() {
		for _, r := range f.reviews[p.ID] {
			out = append(out, domain.CorpusRow{
				PlaceID: p.ID, PlaceName: p.Name, Location: p.Location, Rating: p.Rating,
				RawText: r.RawText, CleanText: r.CleanText, ReviewedAt: r.ReviewedAt,
			})
		}
	}
	return out, nil
}

func (f *fakeStore) LogSearch(ctx context.Context, l domain.SearchLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.historyErr != nil {
		return f.historyErr
	}
	f.searches = append(f.searches, l)
	return nil
}

func (f *fakeStore) ListSearches(ctx context.Context, limit int) ([]domain.SearchLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.SearchLog, 0, len(f.searches))
	for i := len(f.searches) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.searches[i])
	}
	return out, nil
}

func (f *fakeStore) searchLogs() []domain.SearchLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.SearchLog(nil), f.searches...)
}

func (f *fakeStore) CreateBooking(ctx context.Context, b domain.Booking) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b.ID = int64(len(f.bookings) + 1)
	if p, ok := f.places[b.PlaceID]; ok {
		b.PlaceName = p.Name
	}
	f.bookings[b.ID] = b
	return b.ID, nil
}

func (f *fakeStore) GetBooking(ctx context.Context, id int64) (domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return domain.Booking{}, domain.ErrNotFound
	}
	return b, nil
}

func (f *fakeStore) ListBookings(ctx context.Context, flt domain.BookingFilter) ([]domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Booking
	for id := int64(1); id <= int64(len(f.bookings)); id++ {
		b := f.bookings[id]
		if flt.Customer != "" && b.Customer != flt.Customer {
			continue
		}
		if flt.Status != "" && b.Status != flt.Status {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeStore) UpdateBookingStatus(ctx context.Context, id int64, from, to domain.BookingStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return domain.ErrNotFound
	}
	if b.Status != from {
		return domain.ErrInvalidTransition
	}
	b.Status = to
	f.bookings[id] = b
	return nil
}

// fakeCache stores JSON like the real cache, so cached values round-trip.
type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
	hits  int
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	c.dels = append(c.dels, key)
	return nil
}

func (c *fakeCache) keys(prefix string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for k := range c.store {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

var errBoom = errors.New("boom")

// ---- fixtures ----

func testModel(t *testing.T) *embedding.Model {
	t.Helper()
	m, err := embedding.NewModel(3, map[string][]float64{
		"udara":       {1, 0, 0},
		"sejuk":       {1, 1, 0},
		"pemandangan": {0, 1, 0},
		"indah":       {0, 1, 1},
		"toilet":      {0, 0, 1},
		"kotor":       {-1, 0, 1},
		"bau":         {-1, -1, 1},
		"bersih":      {1, 0, 1},
	})
	require.NoError(t, err)
	return m
}

func ptr[T any](v T) *T { return &v }

// seedStore holds the two-place corpus used across the service tests.
func seedStore(t *testing.T) *fakeStore {
	t.Helper()
	ctx := context.Background()
	s := newFakeStore()

	bukit, _ := s.UpsertPlace(ctx, domain.Place{
		Name: "Bukit Hijau", Location: "Cangkringan, Sleman", Rating: 5, MapsLink: ptr("https://maps.example/bukit"),
	})
	_ = s.ReplaceReviews(ctx, bukit, []domain.Review{
		{RawText: "Udara sejuk dan pemandangan indah", CleanText: "udara sejuk dan pemandangan indah"},
	})
	_ = s.ReplacePrices(ctx, bukit, []domain.PriceItem{
		{Item: "Tiket Masuk", Price: 10000, Category: domain.PriceMandatory},
		{Item: "Parkir Motor", Price: 5000, Category: domain.PriceMandatory},
		{Item: "Sewa Tenda", Price: 75000, Category: domain.PriceBasic},
	})

	lembah, _ := s.UpsertPlace(ctx, domain.Place{Name: "Lembah Kabut", Location: "Wonosobo", Rating: 2})
	_ = s.ReplaceReviews(ctx, lembah, []domain.Review{
		{RawText: "Toilet kotor dan bau", CleanText: "toilet kotor dan bau"},
	})
	return s
}
