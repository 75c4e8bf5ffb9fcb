package domain

import "context"

type PlaceRepository interface {
	// Write paths
	UpsertPlace(ctx context.Context, p Place) (int64, error)
	ReplaceReviews(ctx context.Context, placeID int64, rs []Review) error
	ReplacePrices(ctx context.Context, placeID int64, ps []PriceItem) error
	ReplaceFacilities(ctx context.Context, placeID int64, names []string) error

	// Read paths
	GetPlaceByName(ctx context.Context, name string) (Place, error)
	GetPlaceDetails(ctx context.Context, id int64) (PlaceDetails, error)
	ListPlaces(ctx context.Context) ([]Place, error)
	ListReviews(ctx context.Context, placeID int64, limit int) ([]Review, error)
	LoadCorpus(ctx context.Context) ([]CorpusRow, error)
}

type HistoryRepository interface {
	LogSearch(ctx context.Context, l SearchLog) error
	ListSearches(ctx context.Context, limit int) ([]SearchLog, error)
}

type BookingRepository interface {
	CreateBooking(ctx context.Context, b Booking) (int64, error)
	GetBooking(ctx context.Context, id int64) (Booking, error)
	ListBookings(ctx context.Context, f BookingFilter) ([]Booking, error)
	// UpdateBookingStatus moves id from -> to; ErrInvalidTransition when the row is not in from.
	UpdateBookingStatus(ctx context.Context, id int64, from, to BookingStatus) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
