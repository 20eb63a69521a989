// Package engine composes the platform detector, the strategy set and the
// booking store into the operations the CLI issues.
package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/adamSellers/oakley-bookings/internal/cache"
	"github.com/adamSellers/oakley-bookings/internal/domain/booking"
	"github.com/adamSellers/oakley-bookings/internal/internaltypes"
	"github.com/adamSellers/oakley-bookings/internal/places"
	"github.com/adamSellers/oakley-bookings/internal/platform"
	"github.com/adamSellers/oakley-bookings/internal/store"
	"github.com/adamSellers/oakley-bookings/internal/strategy"
)

// suggestDedupeDays is how long a visited restaurant is kept out of fresh
// suggestions. Two weeks: long enough to vary, short enough to allow repeats.
const suggestDedupeDays = 14

// remindWindow is how far ahead of a booking the remind operation fires.
const remindWindow = 4 * time.Hour

// Store is the slice of the persistence layer the orchestrator uses.
type Store interface {
	SaveRestaurant(ctx context.Context, r booking.Restaurant) error
	GetRestaurant(ctx context.Context, placeID string) (booking.Restaurant, error)
	CreateBooking(ctx context.Context, b booking.Booking) error
	GetBooking(ctx context.Context, bookingID string) (booking.Booking, error)
	ListBookings(ctx context.Context, f store.ListFilter) ([]booking.Booking, error)
	TransitionStatus(ctx context.Context, bookingID string, from, to booking.Status) error
	UpdateBookingFields(ctx context.Context, bookingID, date, timeStr string, partySize int, platformRef string) error
	SaveRating(ctx context.Context, r booking.Rating) error
	UnratedOn(ctx context.Context, date string) ([]booking.Booking, error)
	TopRestaurants(ctx context.Context, limit int) ([]store.Favourite, error)
	RecentPlaceIDs(ctx context.Context, sinceDate string) (map[string]bool, error)
	PreferredPriceTier(ctx context.Context) (booking.PriceTier, error)
	CountBookings(ctx context.Context, status booking.Status) (int, error)
}

// Discovery is the external restaurant search collaborator.
type Discovery interface {
	Search(ctx context.Context, q places.SearchQuery) ([]booking.Restaurant, error)
	Details(ctx context.Context, placeID string) (booking.Restaurant, error)
}

// Detector classifies restaurants into platform variants.
type Detector interface {
	Classify(ctx context.Context, sig platform.Signal) platform.Detection
}

// Calendar receives fire-and-forget events for confirmed bookings.
type Calendar interface {
	PushBooking(ctx context.Context, b booking.Booking)
}

type Options struct {
	DefaultLat     float64
	DefaultLng     float64
	DefaultRadiusM int
	Location       *time.Location   // local time for remind/completed math
	Now            func() time.Time // override in tests
}

type Engine struct {
	store      Store
	strategies *strategy.Set
	detector   Detector
	discovery  Discovery
	cal        Calendar
	cache      *cache.Cache
	log        zerolog.Logger
	opts       Options
}

func New(st Store, strategies *strategy.Set, det Detector, disc Discovery, cal Calendar, c *cache.Cache, log zerolog.Logger, opts Options) *Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.DefaultRadiusM <= 0 {
		opts.DefaultRadiusM = 5000
	}
	return &Engine{
		store:      st,
		strategies: strategies,
		detector:   det,
		discovery:  disc,
		cal:        cal,
		cache:      c,
		log:        log,
		opts:       opts,
	}
}

func (e *Engine) now() time.Time { return e.opts.Now().In(e.opts.Location) }

// resolveRestaurant loads a restaurant from the store, falling back to a
// fresh details fetch plus platform detection; the fresh copy is saved so the
// booking path and the suggestion engine see the same record.
func (e *Engine) resolveRestaurant(ctx context.Context, placeID string) (booking.Restaurant, error) {
	r, err := e.store.GetRestaurant(ctx, placeID)
	if err == nil {
		return r, nil
	}

	r, err = e.fetchDetails(ctx, placeID)
	if err != nil {
		if internaltypes.IsNotFound(err) {
			return booking.Restaurant{}, internaltypes.NotFoundError("restaurant " + placeID)
		}
		return booking.Restaurant{}, err
	}
	if err := e.store.SaveRestaurant(ctx, r); err != nil {
		e.log.Warn().Err(err).Str("place_id", placeID).Msg("restaurant save failed")
	}
	return r, nil
}

// fetchDetails fetches and classifies one place through the details cache.
func (e *Engine) fetchDetails(ctx context.Context, placeID string) (booking.Restaurant, error) {
	key := cache.Key(cache.ClassDetails, "details", placeID)
	return cache.GetOrFetch(ctx, e.cache, cache.ClassDetails, key, func(ctx context.Context) (booking.Restaurant, error) {
		r, err := e.discovery.Details(ctx, placeID)
		if err != nil {
			return booking.Restaurant{}, err
		}
		det := e.detector.Classify(ctx, platform.Signal{Name: r.Name, Lat: r.Lat, Lng: r.Lng, Website: r.Website})
		r.Platform = det.Platform
		r.PlatformID = det.PlatformID
		return r, nil
	})
}
