package domain

import (
	"net/url"
	"strings"
	"time"
)

type Place struct {
	ID        int64
	Name      string
	Location  string
	Rating    float64 // 0..5, 0 = unknown
	OpenHours *string
	MapsLink  *string
	PhotoURL  *string
	UpdatedAt *time.Time
}

// Price categories used to group a place's price list.
const (
	PriceMandatory = "wajib"
	PriceBasic     = "pokok"
	PriceLuxury    = "mewah"
	PriceService   = "layanan"
)

type PriceItem struct {
	PlaceID  int64
	Item     string
	Price    int64
	Category string
}

type PlaceDetails struct {
	Info       Place
	Prices     []PriceItem
	Facilities []string
}

// PlaceKey is the identity of a place: lowercase, whitespace-collapsed name.
func PlaceKey(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

const placeholderPhoto = "https://placehold.co/400x200/2E8B57/FFFFFF?text=%s&font=poppins"

// Photo returns the stored photo or a generated placeholder carrying the name.
func (p Place) Photo() string {
	if p.PhotoURL != nil && strings.TrimSpace(*p.PhotoURL) != "" {
		return *p.PhotoURL
	}
	return strings.Replace(placeholderPhoto, "%s", url.QueryEscape(p.Name), 1)
}

// BasePrice estimates the entry cost: cheapest ticket plus cheapest parking.
// Returns 0 when no mandatory item is listed.
func (d PlaceDetails) BasePrice() int64 {
	var ticket, parking int64
	for _, p := range d.Prices {
		if p.Category != PriceMandatory || p.Price <= 0 {
			continue
		}
		if strings.Contains(strings.ToLower(p.Item), "parkir") {
			if parking == 0 || p.Price < parking {
				parking = p.Price
			}
			continue
		}
		if ticket == 0 || p.Price < ticket {
			ticket = p.Price
		}
	}
	return ticket + parking
}
