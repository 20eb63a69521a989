package booking

import (
	"fmt"
	"time"
)

// Platform is a restaurant's detected booking capability.
type Platform string

const (
	PlatformResy      Platform = "resy"
	PlatformOpenTable Platform = "opentable"
	PlatformQuandoo   Platform = "quandoo"
	PlatformPhoneOnly Platform = "phone_only"
)

// Ease is the booking-ease total order used as a search sort key only,
// never as a classification signal. Higher books easier.
func (p Platform) Ease() int {
	switch p {
	case PlatformResy:
		return 4
	case PlatformOpenTable:
		return 3
	case PlatformQuandoo:
		return 2
	default:
		return 1
	}
}

type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
	// StatusModifyFailed flags a resy modify whose cancel leg succeeded but
	// whose rebook leg failed. Terminal until manually resolved.
	StatusModifyFailed Status = "modify_failed"
)

type PriceTier string

const (
	PriceLow    PriceTier = "low"
	PriceMid    PriceTier = "mid"
	PriceHigh   PriceTier = "high"
	PriceLuxury PriceTier = "luxury"
)

type Restaurant struct {
	PlaceID     string
	Name        string
	Address     string
	Lat         float64
	Lng         float64
	Rating      float64
	ReviewCount int
	PriceTier   PriceTier
	Phone       string
	Website     string
	MapsURL     string
	Cuisine     []string

	Platform   Platform
	PlatformID string // resy venue id, opentable rid, quandoo slug
}

// BookingRequest is the ephemeral input to strategy operations. Never persisted.
type BookingRequest struct {
	Restaurant Restaurant
	Date       string // YYYY-MM-DD
	Time       string // HH:MM
	PartySize  int
	Notes      string
}

func (r BookingRequest) Validate() error {
	if r.Restaurant.PlaceID == "" {
		return fmt.Errorf("place_id required")
	}
	if _, err := time.Parse("2006-01-02", r.Date); err != nil {
		return fmt.Errorf("invalid date (want YYYY-MM-DD)")
	}
	if _, err := time.Parse("15:04", r.Time); err != nil {
		return fmt.Errorf("invalid time (want HH:MM)")
	}
	if r.PartySize < 1 {
		return fmt.Errorf("party_size must be >= 1")
	}
	return nil
}

type Booking struct {
	ID             string // BK_<unix-millis>
	PlaceID        string
	RestaurantName string
	RestaurantAddr string
	Date           string
	Time           string
	PartySize      int
	Platform       Platform
	PlatformRef    string // external confirmation id, resy only
	Status         Status
	MapsURL        string
	Phone          string
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewID mints a booking id from wall-clock millis.
func NewID(now time.Time) string {
	return fmt.Sprintf("BK_%d", now.UnixMilli())
}

// StartsAt parses the booking's local date+time.
func (b Booking) StartsAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", b.Date+" "+b.Time, loc)
}

// EffectiveStatus derives completed from the clock. A confirmed booking whose
// start has passed reads as completed; nothing is rewritten in the store.
func (b Booking) EffectiveStatus(now time.Time) Status {
	if b.Status != StatusConfirmed {
		return b.Status
	}
	start, err := b.StartsAt(now.Location())
	if err != nil {
		return b.Status
	}
	if start.Before(now) {
		return StatusCompleted
	}
	return StatusConfirmed
}

type Rating struct {
	BookingID string
	Score     int // 1-5
	Notes     string
	CreatedAt time.Time
}

func (r Rating) Validate() error {
	if r.Score < 1 || r.Score > 5 {
		return fmt.Errorf("rating must be 1-5")
	}
	return nil
}
