package domain

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// CanTransition reports whether a booking may move from s to next.
func (s BookingStatus) CanTransition(next BookingStatus) bool {
	return s == BookingPending && (next == BookingConfirmed || next == BookingCancelled)
}

type Booking struct {
	ID        int64         `json:"id"`
	Code      string        `json:"code"`
	Customer  string        `json:"customer"`
	PlaceID   int64         `json:"place_id"`
	PlaceName string        `json:"place_name,omitempty"`
	Item      string        `json:"item"`
	UnitPrice int64         `json:"unit_price"`
	Quantity  int           `json:"quantity"`
	Total     int64         `json:"total"`
	CheckIn   time.Time     `json:"checkin_date"`
	Status    BookingStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type BookingFilter struct {
	Customer string
	Status   BookingStatus
	Limit    int
}
