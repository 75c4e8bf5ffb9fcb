package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"carikemah/internal/domain"
)

const (
	defaultTicketItem  = "Tiket Masuk"
	defaultTicketPrice = 15000
	checkInLayout      = "2006-01-02"
)

type CreateBookingRequest struct {
	Customer  string `json:"customer"`
	PlaceID   int64  `json:"place_id"`
	PlaceName string `json:"place_name"`
	Item      string `json:"item"`
	Quantity  int    `json:"quantity"`
	CheckIn   string `json:"checkin_date"` // YYYY-MM-DD
}

type BookingService struct {
	bookings domain.BookingRepository
	places   domain.PlaceRepository
	now      func() time.Time
	newCode  func() string
}

type BookingOption func(*BookingService)

// WithClock replaces time.Now when validating check-in dates.
func WithClock(now func() time.Time) BookingOption {
	return func(s *BookingService) { s.now = now }
}

func WithCodeGenerator(gen func() string) BookingOption {
	return func(s *BookingService) { s.newCode = gen }
}

func NewBookingService(b domain.BookingRepository, p domain.PlaceRepository, opts ...BookingOption) *BookingService {
	s := &BookingService{
		bookings: b,
		places:   p,
		now:      time.Now,
		newCode:  uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidBooking, fmt.Sprintf(format, args...))
}

func (s *BookingService) resolvePlace(ctx context.Context, req CreateBookingRequest) (domain.PlaceDetails, error) {
	id := req.PlaceID
	if id <= 0 {
		if strings.TrimSpace(req.PlaceName) == "" {
			return domain.PlaceDetails{}, invalid("place_id or place_name is required")
		}
		p, err := s.places.GetPlaceByName(ctx, req.PlaceName)
		if err != nil {
			return domain.PlaceDetails{}, err
		}
		id = p.ID
	}
	return s.places.GetPlaceDetails(ctx, id)
}

// unitPrice picks the named price item, else the cheapest mandatory
// non-parking item, else any mandatory item, else the default ticket.
func unitPrice(prices []domain.PriceItem, item string) (string, int64) {
	if item = strings.TrimSpace(item); item != "" {
		for _, p := range prices {
			if strings.EqualFold(strings.TrimSpace(p.Item), item) && p.Price > 0 {
				return p.Item, p.Price
			}
		}
	}
	var best, fallback *domain.PriceItem
	for i := range prices {
		p := &prices[i]
		if p.Category != domain.PriceMandatory || p.Price <= 0 {
			continue
		}
		if fallback == nil || p.Price < fallback.Price {
			fallback = p
		}
		if strings.Contains(strings.ToLower(p.Item), "parkir") {
			continue
		}
		if best == nil || p.Price < best.Price {
			best = p
		}
	}
	switch {
	case best != nil:
		return best.Item, best.Price
	case fallback != nil:
		return fallback.Item, fallback.Price
	default:
		return defaultTicketItem, defaultTicketPrice
	}
}

func (s *BookingService) Create(ctx context.Context, req CreateBookingRequest) (domain.Booking, error) {
	customer := strings.TrimSpace(req.Customer)
	if customer == "" {
		return domain.Booking{}, invalid("customer is required")
	}
	if req.Quantity < 1 {
		return domain.Booking{}, invalid("quantity must be at least 1")
	}
	now := s.now().UTC()
	checkIn, err := time.Parse(checkInLayout, strings.TrimSpace(req.CheckIn))
	if err != nil {
		return domain.Booking{}, invalid("checkin_date must be YYYY-MM-DD")
	}
	today, _ := time.Parse(checkInLayout, now.Format(checkInLayout))
	if checkIn.Before(today) {
		return domain.Booking{}, invalid("checkin_date %s is in the past", req.CheckIn)
	}

	d, err := s.resolvePlace(ctx, req)
	if err != nil {
		return domain.Booking{}, err
	}
	item, price := unitPrice(d.Prices, req.Item)

	b := domain.Booking{
		Code:      s.newCode(),
		Customer:  customer,
		PlaceID:   d.Info.ID,
		PlaceName: d.Info.Name,
		Item:      item,
		UnitPrice: price,
		Quantity:  req.Quantity,
		Total:     price * int64(req.Quantity),
		CheckIn:   checkIn,
		Status:    domain.BookingPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	id, err := s.bookings.CreateBooking(ctx, b)
	if err != nil {
		return domain.Booking{}, err
	}
	b.ID = id
	return b, nil
}

func (s *BookingService) Get(ctx context.Context, id int64) (domain.Booking, error) {
	return s.bookings.GetBooking(ctx, id)
}

func (s *BookingService) List(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, error) {
	if f.Status != "" {
		switch f.Status {
		case domain.BookingPending, domain.BookingConfirmed, domain.BookingCancelled:
		default:
			return nil, invalid("unknown status %q", f.Status)
		}
	}
	out, err := s.bookings.ListBookings(ctx, f)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Booking{}
	}
	return out, nil
}

func (s *BookingService) Confirm(ctx context.Context, id int64) (domain.Booking, error) {
	return s.transition(ctx, id, domain.BookingConfirmed)
}

func (s *BookingService) Cancel(ctx context.Context, id int64) (domain.Booking, error) {
	return s.transition(ctx, id, domain.BookingCancelled)
}

func (s *BookingService) transition(ctx context.Context, id int64, to domain.BookingStatus) (domain.Booking, error) {
	b, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return domain.Booking{}, err
	}
	if !b.Status.CanTransition(to) {
		return domain.Booking{}, fmt.Errorf("booking %d is %s: %w", id, b.Status, domain.ErrInvalidTransition)
	}
	if err := s.bookings.UpdateBookingStatus(ctx, id, b.Status, to); err != nil {
		return domain.Booking{}, err
	}
	return s.bookings.GetBooking(ctx, id)
}
