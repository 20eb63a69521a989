// Package strategy implements one booking strategy per platform variant
// behind a shared capability interface. Strategies perform the remote legs
// only; all persistence stays with the orchestrator.
package strategy

import (
	"context"

	"github.com/adamSellers/oakley-bookings/internal/domain/booking"
	"github.com/adamSellers/oakley-bookings/internal/resy"
)

// Result is the structured outcome of a strategy operation plus the
// human-readable fields the CLI prints.
type Result struct {
	Preview        bool
	RestaurantName string
	Date           string
	Time           string
	PartySize      int
	Platform       booking.Platform

	PlatformRef string   // external confirmation id (resy confirm only)
	DeepLink    string   // deep-link platforms
	Phone       string   // phone_only
	Slots       []string // availability times (resy check)
	Message     string
}

// ResyAPI is the slice of the Resy client the resy strategy needs.
type ResyAPI interface {
	Availability(ctx context.Context, venueID, date string, partySize int) ([]resy.Slot, error)
	Book(ctx context.Context, slot resy.Slot, date string, partySize int) (resy.Confirmation, error)
	Cancel(ctx context.Context, resyToken string) error
}

// Strategy is the per-platform capability contract. Preview never mutates
// anything anywhere; Confirm/Cancel/Modify perform at most the remote leg for
// their platform and report what the orchestrator should persist.
type Strategy interface {
	Platform() booking.Platform
	Preview(ctx context.Context, req booking.BookingRequest) (Result, error)
	Confirm(ctx context.Context, req booking.BookingRequest) (Result, error)
	Cancel(ctx context.Context, b booking.Booking) (Result, error)
	Modify(ctx context.Context, b booking.Booking, req booking.BookingRequest) (Result, error)
	Check(ctx context.Context, req booking.BookingRequest) (Result, error)
}

// Set holds one strategy per platform variant. Dispatch is by tag.
type Set struct {
	byPlatform map[booking.Platform]Strategy
}

func NewSet(api ResyAPI) *Set {
	s := &Set{byPlatform: make(map[booking.Platform]Strategy)}
	for _, st := range []Strategy{
		NewResy(api),
		NewDeepLink(booking.PlatformOpenTable),
		NewDeepLink(booking.PlatformQuandoo),
		NewPhone(),
	} {
		s.byPlatform[st.Platform()] = st
	}
	return s
}

// For returns the strategy for a platform variant, falling back to the
// phone_only strategy for anything unrecognized.
func (s *Set) For(p booking.Platform) Strategy {
	if st, ok := s.byPlatform[p]; ok {
		return st
	}
	return s.byPlatform[booking.PlatformPhoneOnly]
}
