package app

import (
	"context"
	"fmt"
	"strings"

	"carikemah/internal/domain"
)

type IngestionService struct {
	repo   domain.PlaceRepository
	places *PlaceService
}

func NewIngestionService(r domain.PlaceRepository, places *PlaceService) *IngestionService {
	return &IngestionService{repo: r, places: places}
}

// IngestPlace stores one place and fully replaces its reviews. Prices and
// facilities are replaced only when the record carries them, so a corpus-only
// run does not wipe metadata loaded earlier.
func (s *IngestionService) IngestPlace(ctx context.Context, rec *PlaceRecord) (int64, error) {
	if strings.TrimSpace(rec.Place.Name) == "" {
		return 0, fmt.Errorf("ingest: place without a name")
	}

	// Parent upsert first to satisfy FK for reviews/prices/facilities.
	id, err := s.repo.UpsertPlace(ctx, rec.Place)
	if err != nil {
		return 0, err
	}

	// Always invalidate, even when a later step fails, so the cache never
	// outlives a partial write.
	defer func() {
		if s.places != nil {
			s.places.Invalidate(ctx, id)
		}
	}()

	if len(rec.Reviews) > 0 {
		if err := s.repo.ReplaceReviews(ctx, id, rec.Reviews); err != nil {
			return id, fmt.Errorf("replace reviews failed for %q: %w", rec.Place.Name, err)
		}
	}
	if len(rec.Prices) > 0 {
		if err := s.repo.ReplacePrices(ctx, id, rec.Prices); err != nil {
			return id, fmt.Errorf("replace prices failed for %q: %w", rec.Place.Name, err)
		}
	}
	if len(rec.Facilities) > 0 {
		if err := s.repo.ReplaceFacilities(ctx, id, rec.Facilities); err != nil {
			return id, fmt.Errorf("replace facilities failed for %q: %w", rec.Place.Name, err)
		}
	}
	return id, nil
}
