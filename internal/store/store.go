// Package store is the durable record of restaurants, bookings and ratings.
// All status transitions go through status-guarded updates so a concurrent
// writer is detected instead of silently overwritten.
package store

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/adamSellers/oakley-bookings/internal/db"
	"github.com/adamSellers/oakley-bookings/internal/domain/booking"
	"github.com/adamSellers/oakley-bookings/internal/internaltypes"
)

type Store struct {
	db *db.DB
}

func New(d *db.DB) *Store { return &Store{db: d} }

// --- restaurants ---

func (s *Store) SaveRestaurant(ctx context.Context, r booking.Restaurant) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO restaurants(place_id,name,address,lat,lng,rating,review_count,price_tier,phone,website,maps_url,cuisine,platform,platform_id,updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,now())
ON CONFLICT (place_id) DO UPDATE SET
  name=EXCLUDED.name, address=EXCLUDED.address, lat=EXCLUDED.lat, lng=EXCLUDED.lng,
  rating=EXCLUDED.rating, review_count=EXCLUDED.review_count, price_tier=EXCLUDED.price_tier,
  phone=EXCLUDED.phone, website=EXCLUDED.website, maps_url=EXCLUDED.maps_url,
  cuisine=EXCLUDED.cuisine, platform=EXCLUDED.platform, platform_id=EXCLUDED.platform_id,
  updated_at=now()`,
		r.PlaceID, r.Name, r.Address, r.Lat, r.Lng, r.Rating, r.ReviewCount, string(r.PriceTier),
		r.Phone, r.Website, r.MapsURL, strings.Join(r.Cuisine, ","), string(r.Platform), r.PlatformID)
	return err
}

func (s *Store) GetRestaurant(ctx context.Context, placeID string) (booking.Restaurant, error) {
	var r booking.Restaurant
	var priceTier, platform, cuisine string
	err := s.db.QueryRow(ctx, `
SELECT place_id,name,address,lat,lng,rating,review_count,price_tier,phone,website,maps_url,cuisine,platform,platform_id
FROM restaurants WHERE place_id=$1`, placeID).
		Scan(&r.PlaceID, &r.Name, &r.Address, &r.Lat, &r.Lng, &r.Rating, &r.ReviewCount, &priceTier,
			&r.Phone, &r.Website, &r.MapsURL, &cuisine, &platform, &r.PlatformID)
	if err != nil {
		return booking.Restaurant{}, db.WrapNotFound(err)
	}
	r.PriceTier = booking.PriceTier(priceTier)
	r.Platform = booking.Platform(platform)
	if cuisine != "" {
		r.Cuisine = strings.Split(cuisine, ",")
	}
	return r, nil
}

// --- bookings ---

const bookingCols = `booking_id,place_id,restaurant_name,restaurant_addr,date,time,party_size,platform,platform_ref,status,maps_url,phone,notes,created_at,updated_at`

func (s *Store) CreateBooking(ctx context.Context, b booking.Booking) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO bookings(booking_id,place_id,restaurant_name,restaurant_addr,date,time,party_size,platform,platform_ref,status,maps_url,phone,notes)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		b.ID, b.PlaceID, b.RestaurantName, b.RestaurantAddr, b.Date, b.Time, b.PartySize,
		string(b.Platform), b.PlatformRef, string(b.Status), b.MapsURL, b.Phone, b.Notes)
	return err
}

func (s *Store) GetBooking(ctx context.Context, bookingID string) (booking.Booking, error) {
	row := s.db.QueryRow(ctx, `SELECT `+bookingCols+` FROM bookings WHERE booking_id=$1`, bookingID)
	b, err := scanBooking(row)
	if err != nil {
		if db.IsNotFound(db.WrapNotFound(err)) {
			return booking.Booking{}, internaltypes.NotFoundError("booking " + bookingID)
		}
		return booking.Booking{}, err
	}
	return b, nil
}

type ListFilter struct {
	Status   booking.Status // empty means all
	Upcoming bool
	Past     bool
	Today    string // YYYY-MM-DD reference date for upcoming/past
	Limit    int
}

func (s *Store) ListBookings(ctx context.Context, f ListFilter) ([]booking.Booking, error) {
	sql := `SELECT ` + bookingCols + ` FROM bookings WHERE 1=1`
	args := make([]any, 0, 3)

	if f.Status != "" {
		args = append(args, string(f.Status))
		sql += ` AND status=$` + itoa(len(args))
	}
	if f.Upcoming {
		args = append(args, f.Today)
		sql += ` AND date>=$` + itoa(len(args)) + ` AND status='confirmed'`
	}
	if f.Past {
		args = append(args, f.Today)
		sql += ` AND date<$` + itoa(len(args))
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit)
	sql += ` ORDER BY date ASC, time ASC LIMIT $` + itoa(len(args))

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []booking.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// TransitionStatus applies a guarded status change. Zero rows means another
// writer already moved the booking past `from`.
func (s *Store) TransitionStatus(ctx context.Context, bookingID string, from, to booking.Status) error {
	n, err := s.db.Exec(ctx,
		`UPDATE bookings SET status=$3, updated_at=now() WHERE booking_id=$1 AND status=$2`,
		bookingID, string(from), string(to))
	if err != nil {
		return err
	}
	if n == 0 {
		return s.conflictOrNotFound(ctx, bookingID)
	}
	return nil
}

// UpdateBookingFields rewrites the mutable fields of a still-confirmed
// booking, guarded the same way as TransitionStatus.
func (s *Store) UpdateBookingFields(ctx context.Context, bookingID string, date, timeStr string, partySize int, platformRef string) error {
	n, err := s.db.Exec(ctx, `
UPDATE bookings SET date=$2, time=$3, party_size=$4, platform_ref=$5, updated_at=now()
WHERE booking_id=$1 AND status='confirmed'`,
		bookingID, date, timeStr, partySize, platformRef)
	if err != nil {
		return err
	}
	if n == 0 {
		return s.conflictOrNotFound(ctx, bookingID)
	}
	return nil
}

func (s *Store) conflictOrNotFound(ctx context.Context, bookingID string) error {
	var status string
	err := s.db.QueryRow(ctx, `SELECT status FROM bookings WHERE booking_id=$1`, bookingID).Scan(&status)
	if db.IsNotFound(db.WrapNotFound(err)) {
		return internaltypes.NotFoundError("booking " + bookingID)
	}
	if err != nil {
		return err
	}
	return internaltypes.StateConflictError("booking " + bookingID + " already " + status)
}

// --- ratings ---

// SaveRating records at most one rating per booking; a second call fails.
func (s *Store) SaveRating(ctx context.Context, r booking.Rating) error {
	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM ratings WHERE booking_id=$1)`, r.BookingID).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return internaltypes.StateConflictError("booking " + r.BookingID + " already rated")
	}
	_, err := s.db.Exec(ctx, `INSERT INTO ratings(booking_id,rating,notes) VALUES ($1,$2,$3)`,
		r.BookingID, r.Score, r.Notes)
	return err
}

// UnratedOn lists confirmed bookings from a given date with no rating yet.
func (s *Store) UnratedOn(ctx context.Context, date string) ([]booking.Booking, error) {
	rows, err := s.db.Query(ctx, `
SELECT `+prefixCols("b")+`
FROM bookings b
LEFT JOIN ratings r ON b.booking_id = r.booking_id
WHERE b.date=$1 AND b.status='confirmed' AND r.id IS NULL
ORDER BY b.time ASC`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []booking.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// --- suggestion inputs ---

type Favourite struct {
	PlaceID        string
	RestaurantName string
	VisitCount     int
	AvgRating      float64
}

// TopRestaurants ranks the most visited restaurants with their average rating.
func (s *Store) TopRestaurants(ctx context.Context, limit int) ([]Favourite, error) {
	rows, err := s.db.Query(ctx, `
SELECT b.place_id, MAX(b.restaurant_name), COUNT(*), COALESCE(AVG(r.rating), 0)
FROM bookings b
LEFT JOIN ratings r ON b.booking_id = r.booking_id
WHERE b.status <> 'cancelled'
GROUP BY b.place_id
ORDER BY COUNT(*) DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Favourite
	for rows.Next() {
		var f Favourite
		if err := rows.Scan(&f.PlaceID, &f.RestaurantName, &f.VisitCount, &f.AvgRating); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// RecentPlaceIDs returns place ids booked on or after a cutoff date, used to
// avoid re-suggesting somewhere just visited.
func (s *Store) RecentPlaceIDs(ctx context.Context, sinceDate string) (map[string]bool, error) {
	rows, err := s.db.Query(ctx,
		`SELECT DISTINCT place_id FROM bookings WHERE date>=$1 AND status <> 'cancelled'`, sinceDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

// PreferredPriceTier returns the most common price tier across the booking
// history, or "" with no history.
func (s *Store) PreferredPriceTier(ctx context.Context) (booking.PriceTier, error) {
	var tier string
	err := s.db.QueryRow(ctx, `
SELECT r.price_tier FROM bookings b
JOIN restaurants r ON b.place_id = r.place_id
WHERE b.status <> 'cancelled'
GROUP BY r.price_tier
ORDER BY COUNT(*) DESC
LIMIT 1`).Scan(&tier)
	if db.IsNotFound(db.WrapNotFound(err)) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return booking.PriceTier(tier), nil
}

func (s *Store) CountBookings(ctx context.Context, status booking.Status) (int, error) {
	var n int
	var err error
	if status == "" {
		err = s.db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings`).Scan(&n)
	} else {
		err = s.db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings WHERE status=$1`, string(status)).Scan(&n)
	}
	return n, err
}

// --- credentials ---

func (s *Store) SaveCredential(ctx context.Context, name, valueEnc string) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO credentials(name,value_enc,updated_at) VALUES ($1,$2,now())
ON CONFLICT (name) DO UPDATE SET value_enc=EXCLUDED.value_enc, updated_at=now()`, name, valueEnc)
	return err
}

func (s *Store) GetCredential(ctx context.Context, name string) (string, error) {
	var v string
	err := s.db.QueryRow(ctx, `SELECT value_enc FROM credentials WHERE name=$1`, name).Scan(&v)
	if db.IsNotFound(db.WrapNotFound(err)) {
		return "", nil
	}
	return v, err
}

// --- helpers ---

func scanBooking(row db.Row) (booking.Booking, error) {
	var b booking.Booking
	var platform, status string
	var created, updated time.Time
	err := row.Scan(&b.ID, &b.PlaceID, &b.RestaurantName, &b.RestaurantAddr, &b.Date, &b.Time,
		&b.PartySize, &platform, &b.PlatformRef, &status, &b.MapsURL, &b.Phone, &b.Notes, &created, &updated)
	if err != nil {
		return booking.Booking{}, err
	}
	b.Platform = booking.Platform(platform)
	b.Status = booking.Status(status)
	b.CreatedAt = created
	b.UpdatedAt = updated
	return b, nil
}

func prefixCols(p string) string {
	cols := strings.Split(bookingCols, ",")
	for i, c := range cols {
		cols[i] = p + "." + c
	}
	return strings.Join(cols, ",")
}

func itoa(n int) string { return strconv.Itoa(n) }
