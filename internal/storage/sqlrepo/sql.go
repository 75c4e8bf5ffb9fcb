package sqlrepo

// -----------------------------------------------------------------------------
// WRITE QUERIES
// -----------------------------------------------------------------------------

// Places are keyed by name; an upsert never changes the id.
const upsertPlaceMySQL = `
INSERT INTO places
  (name, location, rating, open_hours, maps_link, photo_url, updated_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  location   = VALUES(location),
  rating     = VALUES(rating),
  open_hours = COALESCE(VALUES(open_hours), places.open_hours),
  maps_link  = COALESCE(VALUES(maps_link), places.maps_link),
  photo_url  = COALESCE(VALUES(photo_url), places.photo_url),
  updated_at = VALUES(updated_at)
`

const upsertPlaceSQLite = `
INSERT INTO places
  (name, location, rating, open_hours, maps_link, photo_url, updated_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (name) DO UPDATE SET
  location   = excluded.location,
  rating     = excluded.rating,
  open_hours = COALESCE(excluded.open_hours, places.open_hours),
  maps_link  = COALESCE(excluded.maps_link, places.maps_link),
  photo_url  = COALESCE(excluded.photo_url, places.photo_url),
  updated_at = excluded.updated_at
`

const placeIDByNameSQL = `SELECT id FROM places WHERE name = ?`

const deleteReviewsSQL = `DELETE FROM reviews WHERE place_id = ?`

const insertReviewSQL = `
INSERT INTO reviews (place_id, user_rating, raw_text, clean_text, reviewed_at, scraped_at)
VALUES (?, ?, ?, ?, ?, ?)
`

const deletePricesSQL = `DELETE FROM prices WHERE place_id = ?`

const insertPriceSQL = `INSERT INTO prices (place_id, item, price, category) VALUES (?, ?, ?, ?)`

const deleteFacilitiesSQL = `DELETE FROM facilities WHERE place_id = ?`

const insertFacilitySQL = `INSERT INTO facilities (place_id, name) VALUES (?, ?)`

const insertSearchSQL = `
INSERT INTO search_history (created_at, query_text, tokens, intent, region, result_count, duration_ms)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

const insertBookingSQL = `
INSERT INTO bookings
  (code, customer, place_id, item, unit_price, quantity, total, checkin_date, status, created_at, updated_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// Conditional so that two concurrent transitions cannot both succeed.
const updateBookingStatusSQL = `
UPDATE bookings SET status = ?, updated_at = ?
WHERE id = ? AND status = ?
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const placeColumns = `p.id, p.name, p.location, p.rating, p.open_hours, p.maps_link, p.photo_url, p.updated_at`

const getPlaceByNameSQL = `
SELECT ` + placeColumns + `
FROM places p
WHERE LOWER(p.name) LIKE ?
ORDER BY p.name
LIMIT 1
`

const getPlaceByIDSQL = `
SELECT ` + placeColumns + `
FROM places p
WHERE p.id = ?
`

const listPlacesSQL = `
SELECT ` + placeColumns + `
FROM places p
ORDER BY p.name
`

const listPricesSQL = `
SELECT place_id, item, price, category
FROM prices
WHERE place_id = ?
ORDER BY price, id
`

const listFacilitiesSQL = `SELECT name FROM facilities WHERE place_id = ? ORDER BY id`

const listReviewsSQL = `
SELECT id, place_id, user_rating, raw_text, clean_text, reviewed_at, scraped_at
FROM reviews
WHERE place_id = ?
ORDER BY reviewed_at DESC, id DESC
LIMIT ?
`

// The corpus is every review with usable text, joined with its place.
const loadCorpusSQL = `
SELECT p.id, p.name, p.location, p.rating, r.raw_text, r.clean_text, r.reviewed_at
FROM reviews r
JOIN places p ON p.id = r.place_id
WHERE r.clean_text <> ''
ORDER BY p.id, r.id
`

const listSearchesSQL = `
SELECT id, created_at, query_text, tokens, intent, region, result_count, duration_ms
FROM search_history
ORDER BY created_at DESC, id DESC
LIMIT ?
`

const bookingColumns = `b.id, b.code, b.customer, b.place_id, p.name, b.item, b.unit_price, b.quantity,
  b.total, b.checkin_date, b.status, b.created_at, b.updated_at`

const getBookingSQL = `
SELECT ` + bookingColumns + `
FROM bookings b
JOIN places p ON p.id = b.place_id
WHERE b.id = ?
`

const bookingExistsSQL = `SELECT status FROM bookings WHERE id = ?`

// Filters are optional: an empty string matches every row.
const listBookingsSQL = `
SELECT ` + bookingColumns + `
FROM bookings b
JOIN places p ON p.id = b.place_id
WHERE (? = '' OR b.customer = ?)
  AND (? = '' OR b.status = ?)
ORDER BY b.created_at DESC, b.id DESC
LIMIT ?
`
