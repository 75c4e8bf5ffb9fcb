package app

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"carikemah/internal/domain"
)

/********** alias registries (single source of truth) **********/

var corpusAliases = map[string][]string{
	"name":        {"nama_tempat", "name", "place", "place_name", "tempat"},
	"location":    {"lokasi", "location", "alamat", "address"},
	"rating":      {"rating", "rating_tempat", "place_rating", "rating_gmaps"},
	"raw_text":    {"teks_mentah", "raw_text", "review_text", "ulasan", "teks", "text"},
	"clean_text":  {"teks_bersih", "clean_text"},
	"user_rating": {"rating_user", "user_rating", "bintang", "stars"},
	"reviewed_at": {"waktu", "waktu_ulasan", "reviewed_at", "tanggal", "date"},
	"scraped_at":  {"tanggal_scrap", "scraped_at"},
}

var placeAliases = map[string][]string{
	"name":       {"nama_tempat", "name", "place", "place_name"},
	"location":   {"lokasi", "location", "alamat"},
	"rating":     {"rating", "rating_gmaps"},
	"open_hours": {"waktu_buka", "jam_buka", "open_hours"},
	"maps_link":  {"gmaps_link", "link_maps", "maps_link", "maps"},
	"photo_url":  {"photo_url", "foto", "image", "photo"},
}

var priceAliases = map[string][]string{
	"name":     {"nama_tempat", "name", "place"},
	"item":     {"item", "nama_item", "keterangan"},
	"price":    {"harga", "price", "tarif"},
	"category": {"kategori", "category"},
}

var facilityAliases = map[string][]string{
	"name":     {"nama_tempat", "name", "place"},
	"facility": {"fasilitas", "facility", "facilities", "nama_fasilitas"},
}

/********** tiny helpers **********/

// header maps a lowercased column name to its index.
type header map[string]int

func newHeader(cols []string) header {
	h := make(header, len(cols))
	for i, c := range cols {
		c = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(c, "\ufeff")))
		if _, dup := h[c]; !dup {
			h[c] = i
		}
	}
	return h
}

// get returns the first non-empty cell among the aliases of key.
func (h header) get(row []string, aliases map[string][]string, key string) string {
	for _, a := range aliases[key] {
		if i, ok := h[a]; ok && i < len(row) {
			if s := strings.TrimSpace(row[i]); s != "" {
				return s
			}
		}
	}
	return ""
}

func ptrStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// eachRow reads a CSV with a header row and calls fn for every record.
// Rows with a broken quote are skipped and counted, not fatal.
func eachRow(r io.Reader, fn func(h header, row []string)) (skipped int, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	cols, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	h := newHeader(cols)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return skipped, nil
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			skipped++
			continue
		}
		if err != nil {
			return skipped, err
		}
		fn(h, row)
	}
}

/********** field parsers **********/

var ratingRe = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

// ParseRating accepts "4,5", "4.5", "5 bintang" and "4/5". Anything
// unparseable or outside 0..5 reports false.
func ParseRating(s string) (float64, bool) {
	m := ratingRe.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", "."), 64)
	if err != nil || f < 0 || f > 5 {
		return 0, false
	}
	return f, true
}

// ParsePrice reads "Rp 15.000", "15000" or "15,000" as 15000.
func ParsePrice(s string) (int64, bool) {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
}

// ParseTime returns nil for relative or unknown formats ("2 minggu lalu").
func ParseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// CleanText lowercases and collapses whitespace.
func CleanText(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(raw)), " ")
}

const minReviewLength = 15

var ownerPhrases = []string{
	"terima kasih atas ulasan", "terimakasih atas ulasan", "terima kasih", "terimakasih",
	"thank you", "thanks", "response from the owner", "tanggapan dari pemilik",
	"ditunggu kedatangannya", "salam sehat", "matur nuwun", "semoga sehat",
	"berkunjung kembali", "owner", "pengelola", "management", "manajemen",
}

var firstPerson = []string{"saya", "aku", "gue", "kami", "kita", "buat"}

// natureWords keep short reviews that still describe the setting.
var natureWords = []string{
	"dingin", "sejuk", "kabut", "asri", "alami", "pemandangan", "view",
	"gunung", "bukit", "sungai", "hutan", "pinus", "tenda", "camping",
	"kemah", "bintang", "sunrise", "sunset", "jalan", "akses", "tanjakan",
	"adem", "tenang", "damai",
}

// IsQualityReview drops owner replies (an owner phrase with no first-person
// word), text without letters, and short text with no nature context.
func IsQualityReview(raw string) bool {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return false
	}
	if containsAnyWord(text, ownerPhrases) && !containsAnyWord(text, firstPerson) {
		return false
	}
	if !strings.ContainsFunc(text, unicode.IsLetter) {
		return false
	}
	if containsAnyWord(text, natureWords) {
		return true
	}
	return utf8.RuneCountInString(text) >= minReviewLength
}

func containsAnyWord(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

var priceCategories = []struct {
	category string
	keywords []string
}{
	{domain.PriceMandatory, []string{"tiket", "htm", "masuk", "parkir"}},
	{domain.PriceBasic, []string{"tenda", "sewa", "kavling", "kapling"}},
	{domain.PriceLuxury, []string{"glamping", "cabin", "kabin", "villa"}},
}

// CategorizePrice assigns a price item to a category by keyword.
func CategorizePrice(item string) string {
	s := strings.ToLower(item)
	for _, c := range priceCategories {
		if containsAnyWord(s, c.keywords) {
			return c.category
		}
	}
	return domain.PriceService
}

func knownCategory(c string) (string, bool) {
	switch c = strings.ToLower(strings.TrimSpace(c)); c {
	case domain.PriceMandatory, domain.PriceBasic, domain.PriceLuxury, domain.PriceService:
		return c, true
	}
	return "", false
}

/********** record mappers **********/

// PlaceRecord is everything ingested for one place.
type PlaceRecord struct {
	Place      domain.Place
	Reviews    []domain.Review
	Prices     []domain.PriceItem
	Facilities []string
}

type CorpusStats struct {
	Rows    int
	Kept    int
	Dropped int
	Skipped int // unreadable CSV rows
}

// ReadCorpus groups review rows by place identity, keeping the first-seen
// name, location and rating for each place.
func ReadCorpus(r io.Reader) ([]*PlaceRecord, CorpusStats, error) {
	var st CorpusStats
	var order []string
	byKey := map[string]*PlaceRecord{}

	skipped, err := eachRow(r, func(h header, row []string) {
		st.Rows++
		name := h.get(row, corpusAliases, "name")
		key := domain.PlaceKey(name)
		if key == "" {
			st.Dropped++
			return
		}
		rec, ok := byKey[key]
		if !ok {
			rec = &PlaceRecord{Place: domain.Place{Name: strings.Join(strings.Fields(name), " ")}}
			byKey[key] = rec
			order = append(order, key)
		}
		if rec.Place.Location == "" {
			rec.Place.Location = h.get(row, corpusAliases, "location")
		}
		if rec.Place.Rating == 0 {
			if f, ok := ParseRating(h.get(row, corpusAliases, "rating")); ok {
				rec.Place.Rating = f
			}
		}

		raw := h.get(row, corpusAliases, "raw_text")
		if !IsQualityReview(raw) {
			st.Dropped++
			return
		}
		clean := h.get(row, corpusAliases, "clean_text")
		if clean == "" {
			clean = CleanText(raw)
		}
		userRating, _ := ParseRating(h.get(row, corpusAliases, "user_rating"))
		rec.Reviews = append(rec.Reviews, domain.Review{
			UserRating: userRating,
			RawText:    raw,
			CleanText:  clean,
			ReviewedAt: ParseTime(h.get(row, corpusAliases, "reviewed_at")),
			ScrapedAt:  ParseTime(h.get(row, corpusAliases, "scraped_at")),
		})
		st.Kept++
	})
	st.Skipped = skipped
	if err != nil {
		return nil, st, err
	}

	out := make([]*PlaceRecord, 0, len(order))
	for _, k := range order {
		out = append(out, byKey[k])
	}
	return out, st, nil
}

// ReadPlaceInfo reads per-place metadata keyed by place identity.
func ReadPlaceInfo(r io.Reader) (map[string]domain.Place, error) {
	out := map[string]domain.Place{}
	_, err := eachRow(r, func(h header, row []string) {
		name := h.get(row, placeAliases, "name")
		key := domain.PlaceKey(name)
		if key == "" {
			return
		}
		p := out[key]
		p.Name = strings.Join(strings.Fields(name), " ")
		if s := h.get(row, placeAliases, "location"); s != "" {
			p.Location = s
		}
		if f, ok := ParseRating(h.get(row, placeAliases, "rating")); ok {
			p.Rating = f
		}
		if s := ptrStr(h.get(row, placeAliases, "open_hours")); s != nil {
			p.OpenHours = s
		}
		if s := ptrStr(h.get(row, placeAliases, "maps_link")); s != nil {
			p.MapsLink = s
		}
		if s := ptrStr(h.get(row, placeAliases, "photo_url")); s != nil {
			p.PhotoURL = s
		}
		out[key] = p
	})
	return out, err
}

// ReadPrices reads price rows keyed by place identity. A missing or
// unknown category is derived from the item name.
func ReadPrices(r io.Reader) (map[string][]domain.PriceItem, error) {
	out := map[string][]domain.PriceItem{}
	_, err := eachRow(r, func(h header, row []string) {
		key := domain.PlaceKey(h.get(row, priceAliases, "name"))
		item := h.get(row, priceAliases, "item")
		if key == "" || item == "" {
			return
		}
		price, ok := ParsePrice(h.get(row, priceAliases, "price"))
		if !ok {
			log.Debug().Str("place", key).Str("item", item).Msg("price row without amount")
			return
		}
		cat, ok := knownCategory(h.get(row, priceAliases, "category"))
		if !ok {
			cat = CategorizePrice(item)
		}
		out[key] = append(out[key], domain.PriceItem{Item: item, Price: price, Category: cat})
	})
	return out, err
}

// ReadFacilities reads facility rows; a cell may list several facilities
// separated by commas or semicolons.
func ReadFacilities(r io.Reader) (map[string][]string, error) {
	out := map[string][]string{}
	_, err := eachRow(r, func(h header, row []string) {
		key := domain.PlaceKey(h.get(row, facilityAliases, "name"))
		if key == "" {
			return
		}
		cell := h.get(row, facilityAliases, "facility")
		for _, f := range strings.FieldsFunc(cell, func(r rune) bool { return r == ',' || r == ';' }) {
			if f = strings.TrimSpace(f); f != "" {
				out[key] = append(out[key], f)
			}
		}
	})
	return out, err
}

// MergeRecords folds metadata into the corpus records. Metadata for places
// with no reviews still produces a record so the place is stored.
func MergeRecords(recs []*PlaceRecord, info map[string]domain.Place, prices map[string][]domain.PriceItem, facilities map[string][]string) []*PlaceRecord {
	byKey := make(map[string]*PlaceRecord, len(recs))
	for _, r := range recs {
		byKey[domain.PlaceKey(r.Place.Name)] = r
	}
	get := func(key, name string) *PlaceRecord {
		if r, ok := byKey[key]; ok {
			return r
		}
		r := &PlaceRecord{Place: domain.Place{Name: name}}
		byKey[key] = r
		recs = append(recs, r)
		return r
	}

	for key, p := range info {
		r := get(key, p.Name)
		if p.Location != "" && r.Place.Location == "" {
			r.Place.Location = p.Location
		}
		if p.Rating > 0 && r.Place.Rating == 0 {
			r.Place.Rating = p.Rating
		}
		r.Place.OpenHours = p.OpenHours
		r.Place.MapsLink = p.MapsLink
		r.Place.PhotoURL = p.PhotoURL
	}
	for key, ps := range prices {
		r := get(key, key)
		r.Prices = ps
	}
	for key, fs := range facilities {
		r := get(key, key)
		r.Facilities = fs
	}
	return recs
}
