package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"carikemah/internal/domain"
)

type PriceView struct {
	Item     string `json:"item"`
	Price    int64  `json:"price"`
	Category string `json:"category"`
}

type PlaceView struct {
	ID         int64       `json:"id"`
	Name       string      `json:"name"`
	Location   string      `json:"location"`
	Rating     float64     `json:"rating"`
	OpenHours  string      `json:"open_hours,omitempty"`
	MapsLink   string      `json:"maps_link,omitempty"`
	PhotoURL   string      `json:"photo_url"`
	BasePrice  int64       `json:"base_price"`
	Prices     []PriceView `json:"prices"`
	Facilities []string    `json:"facilities"`
}

type ReviewView struct {
	ID         int64      `json:"id"`
	Rating     float64    `json:"rating"`
	Text       string     `json:"text"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
}

func toPlaceView(d domain.PlaceDetails) PlaceView {
	v := PlaceView{
		ID:         d.Info.ID,
		Name:       d.Info.Name,
		Location:   d.Info.Location,
		Rating:     d.Info.Rating,
		OpenHours:  deref(d.Info.OpenHours),
		MapsLink:   deref(d.Info.MapsLink),
		PhotoURL:   d.Info.Photo(),
		BasePrice:  d.BasePrice(),
		Prices:     make([]PriceView, 0, len(d.Prices)),
		Facilities: append([]string{}, d.Facilities...),
	}
	for _, p := range d.Prices {
		v.Prices = append(v.Prices, PriceView{Item: p.Item, Price: p.Price, Category: p.Category})
	}
	return v
}

// PlaceService serves place details and reviews with cache-aside reads.
type PlaceService struct {
	repo     domain.PlaceRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewPlaceService(r domain.PlaceRepository, c domain.Cache, ttl time.Duration) *PlaceService {
	if c == nil {
		c = noCache{}
	}
	return &PlaceService{repo: r, cache: c, cacheTTL: ttl}
}

func placeKey(id int64) string { return fmt.Sprintf("place:%d", id) }

func reviewsKey(id int64, limit int) string { return fmt.Sprintf("reviews:%d:%d", id, limit) }

func (s *PlaceService) Details(ctx context.Context, id int64) (PlaceView, error) {
	key := placeKey(id)
	var pv PlaceView
	if ok, _ := s.cache.Get(ctx, key, &pv); ok {
		return pv, nil
	}
	d, err := s.repo.GetPlaceDetails(ctx, id)
	if err != nil {
		return PlaceView{}, err
	}
	pv = toPlaceView(d)
	_ = s.cache.Set(ctx, key, pv, int(s.cacheTTL.Seconds()))
	return pv, nil
}

// FindByName resolves a (partial, case-insensitive) name to full details.
func (s *PlaceService) FindByName(ctx context.Context, name string) (PlaceView, error) {
	p, err := s.repo.GetPlaceByName(ctx, name)
	if err != nil {
		return PlaceView{}, err
	}
	return s.Details(ctx, p.ID)
}

func (s *PlaceService) List(ctx context.Context) ([]PlaceView, error) {
	ps, err := s.repo.ListPlaces(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]PlaceView, 0, len(ps))
	for _, p := range ps {
		out = append(out, PlaceView{
			ID:       p.ID,
			Name:     p.Name,
			Location: p.Location,
			Rating:   p.Rating,
			PhotoURL: p.Photo(),
		})
	}
	return out, nil
}

func (s *PlaceService) Reviews(ctx context.Context, id int64, limit int) ([]ReviewView, error) {
	key := reviewsKey(id, limit)
	var out []ReviewView
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	rs, err := s.repo.ListReviews(ctx, id, limit)
	if err != nil {
		return nil, err
	}
	out = make([]ReviewView, 0, len(rs))
	for _, r := range rs {
		out = append(out, ReviewView{ID: r.ID, Rating: r.UserRating, Text: r.RawText, ReviewedAt: r.ReviewedAt})
	}

	// optional size guard
	if b, _ := json.Marshal(out); len(b) < 1_000_000 {
		_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	}
	return out, nil
}

// reviewLimits are the page sizes the HTTP layer hands out; invalidation
// clears each of them when the cache cannot delete by prefix.
var reviewLimits = []int{20, 50, 100, 200}

type prefixDeleter interface {
	DelPrefix(ctx context.Context, prefix string) (int, error)
}

// Invalidate drops every cached view of one place.
func (s *PlaceService) Invalidate(ctx context.Context, id int64) {
	_ = s.cache.Del(ctx, placeKey(id))
	if pd, ok := s.cache.(prefixDeleter); ok {
		if _, err := pd.DelPrefix(ctx, fmt.Sprintf("reviews:%d:", id)); err == nil {
			return
		}
	}
	for _, lim := range reviewLimits {
		_ = s.cache.Del(ctx, reviewsKey(id, lim))
	}
}

// noCache is used when no cache is configured.
type noCache struct{}

func (noCache) Get(context.Context, string, any) (bool, error) { return false, nil }
func (noCache) Set(context.Context, string, any, int) error    { return nil }
func (noCache) Del(context.Context, string) error              { return nil }

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
