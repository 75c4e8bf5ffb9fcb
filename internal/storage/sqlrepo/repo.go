// Package sqlrepo is the relational store for places, reviews, search
// history and bookings. MySQL and SQLite share every query except the
// place upsert and the schema.
package sqlrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"carikemah/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return p.UTC()
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

type Repo struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

func New(db *sql.DB, d Dialect) *Repo {
	return &Repo{db: db, dialect: d, now: func() time.Time { return time.Now().UTC() }}
}

func (r *Repo) DB() *sql.DB { return r.db }

// withTx runs fn in a transaction, rolling back on error.
func (r *Repo) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

/********** places **********/

func (r *Repo) UpsertPlace(ctx context.Context, p domain.Place) (int64, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return 0, fmt.Errorf("upsert place: empty name")
	}
	updated := r.now()
	if p.UpdatedAt != nil {
		updated = p.UpdatedAt.UTC()
	}
	if _, err := r.db.ExecContext(ctx, r.dialect.upsertPlace,
		name,
		p.Location,
		p.Rating,
		valStr(p.OpenHours),
		valStr(p.MapsLink),
		valStr(p.PhotoURL),
		updated,
	); err != nil {
		return 0, fmt.Errorf("upsert place %q: %w", name, err)
	}
	// LastInsertId is unreliable on the update branch of both dialects.
	var id int64
	if err := r.db.QueryRowContext(ctx, placeIDByNameSQL, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("place id for %q: %w", name, err)
	}
	return id, nil
}

func (r *Repo) ReplaceReviews(ctx context.Context, placeID int64, rs []domain.Review) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, deleteReviewsSQL, placeID); err != nil {
			return err
		}
		if len(rs) == 0 {
			return nil
		}
		stmt, err := tx.PrepareContext(ctx, insertReviewSQL)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, rv := range rs {
			if _, err := stmt.ExecContext(ctx,
				placeID,
				rv.UserRating,
				rv.RawText,
				rv.CleanText,
				valTime(rv.ReviewedAt),
				valTime(rv.ScrapedAt),
			); err != nil {
				return fmt.Errorf("insert review for place %d: %w", placeID, err)
			}
		}
		return nil
	})
}

func (r *Repo) ReplacePrices(ctx context.Context, placeID int64, ps []domain.PriceItem) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, deletePricesSQL, placeID); err != nil {
			return err
		}
		for _, p := range ps {
			if _, err := tx.ExecContext(ctx, insertPriceSQL, placeID, p.Item, p.Price, p.Category); err != nil {
				return fmt.Errorf("insert price for place %d: %w", placeID, err)
			}
		}
		return nil
	})
}

func (r *Repo) ReplaceFacilities(ctx context.Context, placeID int64, names []string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, deleteFacilitiesSQL, placeID); err != nil {
			return err
		}
		for _, n := range names {
			if n = strings.TrimSpace(n); n == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx, insertFacilitySQL, placeID, n); err != nil {
				return fmt.Errorf("insert facility for place %d: %w", placeID, err)
			}
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlace(s rowScanner) (domain.Place, error) {
	var p domain.Place
	var openHours, mapsLink, photoURL sql.NullString
	var updated nullTime
	if err := s.Scan(&p.ID, &p.Name, &p.Location, &p.Rating, &openHours, &mapsLink, &photoURL, &updated); err != nil {
		return domain.Place{}, err
	}
	p.OpenHours = strPtr(openHours)
	p.MapsLink = strPtr(mapsLink)
	p.PhotoURL = strPtr(photoURL)
	p.UpdatedAt = updated.ptr()
	return p, nil
}

// GetPlaceByName matches case-insensitively on a substring of the name.
func (r *Repo) GetPlaceByName(ctx context.Context, name string) (domain.Place, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return domain.Place{}, domain.ErrNotFound
	}
	p, err := scanPlace(r.db.QueryRowContext(ctx, getPlaceByNameSQL, "%"+name+"%"))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Place{}, domain.ErrNotFound
	}
	return p, err
}

func (r *Repo) GetPlaceDetails(ctx context.Context, id int64) (domain.PlaceDetails, error) {
	info, err := scanPlace(r.db.QueryRowContext(ctx, getPlaceByIDSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.PlaceDetails{}, domain.ErrNotFound
		}
		return domain.PlaceDetails{}, err
	}
	out := domain.PlaceDetails{Info: info, Prices: []domain.PriceItem{}, Facilities: []string{}}

	rows, err := r.db.QueryContext(ctx, listPricesSQL, id)
	if err != nil {
		return domain.PlaceDetails{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var pi domain.PriceItem
		if err := rows.Scan(&pi.PlaceID, &pi.Item, &pi.Price, &pi.Category); err != nil {
			return domain.PlaceDetails{}, err
		}
		out.Prices = append(out.Prices, pi)
	}
	if err := rows.Err(); err != nil {
		return domain.PlaceDetails{}, err
	}

	frows, err := r.db.QueryContext(ctx, listFacilitiesSQL, id)
	if err != nil {
		return domain.PlaceDetails{}, err
	}
	defer frows.Close()
	for frows.Next() {
		var n string
		if err := frows.Scan(&n); err != nil {
			return domain.PlaceDetails{}, err
		}
		out.Facilities = append(out.Facilities, n)
	}
	return out, frows.Err()
}

func (r *Repo) ListPlaces(ctx context.Context) ([]domain.Place, error) {
	rows, err := r.db.QueryContext(ctx, listPlacesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Place
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

/********** reviews **********/

func (r *Repo) ListReviews(ctx context.Context, placeID int64, limit int) ([]domain.Review, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, listReviewsSQL, placeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		var rv domain.Review
		var reviewed, scraped nullTime
		if err := rows.Scan(&rv.ID, &rv.PlaceID, &rv.UserRating, &rv.RawText, &rv.CleanText, &reviewed, &scraped); err != nil {
			return nil, err
		}
		rv.ReviewedAt = reviewed.ptr()
		rv.ScrapedAt = scraped.ptr()
		out = append(out, rv)
	}
	return out, rows.Err()
}

func (r *Repo) LoadCorpus(ctx context.Context) ([]domain.CorpusRow, error) {
	rows, err := r.db.QueryContext(ctx, loadCorpusSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CorpusRow
	for rows.Next() {
		var c domain.CorpusRow
		var reviewed nullTime
		if err := rows.Scan(&c.PlaceID, &c.PlaceName, &c.Location, &c.Rating, &c.RawText, &c.CleanText, &reviewed); err != nil {
			return nil, err
		}
		if strings.TrimSpace(c.CleanText) == "" {
			continue
		}
		c.ReviewedAt = reviewed.ptr()
		out = append(out, c)
	}
	return out, rows.Err()
}

/********** search history **********/

func (r *Repo) LogSearch(ctx context.Context, l domain.SearchLog) error {
	tokens := l.Tokens
	if tokens == nil {
		tokens = []string{}
	}
	tj, err := json.Marshal(tokens)
	if err != nil {
		return err
	}
	created := l.CreatedAt
	if created.IsZero() {
		created = r.now()
	}
	_, err = r.db.ExecContext(ctx, insertSearchSQL,
		created.UTC(),
		l.Query,
		string(tj),
		l.Intent,
		l.Region,
		l.ResultCount,
		l.Duration.Milliseconds(),
	)
	return err
}

func (r *Repo) ListSearches(ctx context.Context, limit int) ([]domain.SearchLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, listSearchesSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SearchLog
	for rows.Next() {
		var l domain.SearchLog
		var created nullTime
		var tokens string
		var ms int64
		if err := rows.Scan(&l.ID, &created, &l.Query, &tokens, &l.Intent, &l.Region, &l.ResultCount, &ms); err != nil {
			return nil, err
		}
		l.CreatedAt = created.Time
		l.Duration = time.Duration(ms) * time.Millisecond
		if err := json.Unmarshal([]byte(tokens), &l.Tokens); err != nil {
			l.Tokens = strings.Fields(tokens)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

/********** bookings **********/

func (r *Repo) CreateBooking(ctx context.Context, b domain.Booking) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertBookingSQL,
		b.Code,
		b.Customer,
		b.PlaceID,
		b.Item,
		b.UnitPrice,
		b.Quantity,
		b.Total,
		b.CheckIn.UTC(),
		string(b.Status),
		b.CreatedAt.UTC(),
		b.UpdatedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert booking: %w", err)
	}
	return res.LastInsertId()
}

func scanBooking(s rowScanner) (domain.Booking, error) {
	var b domain.Booking
	var checkIn, created, updated nullTime
	var status string
	if err := s.Scan(
		&b.ID,
		&b.Code,
		&b.Customer,
		&b.PlaceID,
		&b.PlaceName,
		&b.Item,
		&b.UnitPrice,
		&b.Quantity,
		&b.Total,
		&checkIn,
		&status,
		&created,
		&updated,
	); err != nil {
		return domain.Booking{}, err
	}
	b.Status = domain.BookingStatus(status)
	b.CheckIn = checkIn.Time
	b.CreatedAt = created.Time
	b.UpdatedAt = updated.Time
	return b, nil
}

func (r *Repo) GetBooking(ctx context.Context, id int64) (domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, getBookingSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Booking{}, domain.ErrNotFound
	}
	return b, err
}

func (r *Repo) ListBookings(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	status := string(f.Status)
	rows, err := r.db.QueryContext(ctx, listBookingsSQL, f.Customer, f.Customer, status, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repo) UpdateBookingStatus(ctx context.Context, id int64, from, to domain.BookingStatus) error {
	res, err := r.db.ExecContext(ctx, updateBookingStatusSQL, string(to), r.now(), id, string(from))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	var current string
	if err := r.db.QueryRowContext(ctx, bookingExistsSQL, id).Scan(&current); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}
	return fmt.Errorf("booking %d is %s: %w", id, current, domain.ErrInvalidTransition)
}
