package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carikemah/internal/app"
	"carikemah/internal/domain"
)

func newBookings(t *testing.T) (*app.BookingService, *fakeStore) {
	t.Helper()
	store := seedStore(t)
	clock := func() time.Time { return time.Date(2026, 7, 1, 22, 0, 0, 0, time.UTC) }
	n := 0
	codes := func() string {
		n++
		return "BK-" + string(rune('0'+n))
	}
	return app.NewBookingService(store, store, app.WithClock(clock), app.WithCodeGenerator(codes)), store
}

func TestBooking_CreatePricesFromPlace(t *testing.T) {
	svc, _ := newBookings(t)
	ctx := context.Background()

	b, err := svc.Create(ctx, app.CreateBookingRequest{
		Customer: " Sari ", PlaceID: 1, Quantity: 3, CheckIn: "2026-07-01",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), b.ID)
	assert.Equal(t, "BK-1", b.Code)
	assert.Equal(t, "Sari", b.Customer)
	assert.Equal(t, "Bukit Hijau", b.PlaceName)
	assert.Equal(t, "Tiket Masuk", b.Item, "parking is never the default item")
	assert.Equal(t, int64(10000), b.UnitPrice)
	assert.Equal(t, int64(30000), b.Total)
	assert.Equal(t, domain.BookingPending, b.Status)

	tent, err := svc.Create(ctx, app.CreateBookingRequest{
		Customer: "Sari", PlaceName: "bukit", Item: "sewa tenda", Quantity: 2, CheckIn: "2026-07-05",
	})
	require.NoError(t, err)
	assert.Equal(t, "Sewa Tenda", tent.Item)
	assert.Equal(t, int64(150000), tent.Total)
	assert.Equal(t, "BK-2", tent.Code)
}

func TestBooking_DefaultTicketWithoutPrices(t *testing.T) {
	svc, _ := newBookings(t)
	b, err := svc.Create(context.Background(), app.CreateBookingRequest{
		Customer: "Budi", PlaceID: 2, Item: "kayak", Quantity: 1, CheckIn: "2026-08-17",
	})
	require.NoError(t, err)
	assert.Equal(t, "Tiket Masuk", b.Item)
	assert.Equal(t, int64(15000), b.UnitPrice)
}

func TestBooking_CreateValidation(t *testing.T) {
	svc, _ := newBookings(t)
	ctx := context.Background()

	cases := map[string]app.CreateBookingRequest{
		"no customer":   {PlaceID: 1, Quantity: 1, CheckIn: "2026-07-02"},
		"zero quantity": {Customer: "a", PlaceID: 1, CheckIn: "2026-07-02"},
		"bad date":      {Customer: "a", PlaceID: 1, Quantity: 1, CheckIn: "02/07/2026"},
		"past date":     {Customer: "a", PlaceID: 1, Quantity: 1, CheckIn: "2026-06-30"},
		"no place":      {Customer: "a", Quantity: 1, CheckIn: "2026-07-02"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(ctx, req)
			assert.ErrorIs(t, err, domain.ErrInvalidBooking)
		})
	}

	_, err := svc.Create(ctx, app.CreateBookingRequest{Customer: "a", PlaceID: 99, Quantity: 1, CheckIn: "2026-07-02"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBooking_Transitions(t *testing.T) {
	svc, _ := newBookings(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, app.CreateBookingRequest{Customer: "a", PlaceID: 1, Quantity: 1, CheckIn: "2026-07-02"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, app.CreateBookingRequest{Customer: "b", PlaceID: 1, Quantity: 1, CheckIn: "2026-07-02"})
	require.NoError(t, err)

	got, err := svc.Confirm(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, got.Status)

	_, err = svc.Cancel(ctx, a.ID)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))

	got, err = svc.Cancel(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, got.Status)

	_, err = svc.Confirm(ctx, 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	confirmed, err := svc.List(ctx, domain.BookingFilter{Status: domain.BookingConfirmed})
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, "a", confirmed[0].Customer)

	none, err := svc.List(ctx, domain.BookingFilter{Customer: "nobody"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	_, err = svc.List(ctx, domain.BookingFilter{Status: "LOST"})
	assert.ErrorIs(t, err, domain.ErrInvalidBooking)
}
