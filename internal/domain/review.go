package domain

import "time"

type Review struct {
	ID         int64
	PlaceID    int64
	UserRating float64 // 0..5, 0 = unknown
	RawText    string
	CleanText  string
	ReviewedAt *time.Time
	ScrapedAt  *time.Time
}

// CorpusRow is one review joined with its place, the unit the search engine indexes.
type CorpusRow struct {
	PlaceID    int64      `json:"place_id,omitempty"`
	PlaceName  string     `json:"place_name"`
	Location   string     `json:"location"`
	Rating     float64    `json:"rating"`
	RawText    string     `json:"raw_text"`
	CleanText  string     `json:"clean_text"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
}
