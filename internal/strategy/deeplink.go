package strategy

import (
	"context"
	"fmt"

	"github.com/adamSellers/oakley-bookings/internal/domain/booking"
	"github.com/adamSellers/oakley-bookings/internal/platform"
)

// DeepLink serves the platforms with no booking API (OpenTable, Quandoo).
// Preview and confirm both produce a pre-filled URL; confirm additionally
// tells the orchestrator to record the booking locally. No remote calls ever.
type DeepLink struct {
	p booking.Platform
}

func NewDeepLink(p booking.Platform) *DeepLink { return &DeepLink{p: p} }

func (s *DeepLink) Platform() booking.Platform { return s.p }

func (s *DeepLink) Preview(ctx context.Context, req booking.BookingRequest) (Result, error) {
	res := s.result(req)
	res.Preview = true
	return res, nil
}

func (s *DeepLink) Confirm(ctx context.Context, req booking.BookingRequest) (Result, error) {
	res := s.result(req)
	res.Message = fmt.Sprintf("Booking recorded. Complete booking via %s: %s", s.p, res.DeepLink)
	return res, nil
}

func (s *DeepLink) Cancel(ctx context.Context, b booking.Booking) (Result, error) {
	return Result{
		RestaurantName: b.RestaurantName,
		Date:           b.Date,
		Time:           b.Time,
		PartySize:      b.PartySize,
		Platform:       s.p,
		Phone:          b.Phone,
		Message:        fmt.Sprintf("Local record cancelled. Also cancel via %s or call the restaurant.", s.p),
	}, nil
}

func (s *DeepLink) Modify(ctx context.Context, b booking.Booking, req booking.BookingRequest) (Result, error) {
	return Result{
		RestaurantName: b.RestaurantName,
		Date:           req.Date,
		Time:           req.Time,
		PartySize:      req.PartySize,
		Platform:       s.p,
		DeepLink:       platform.DeepLink(s.p, req.Restaurant.PlatformID, req.Date, req.Time, req.PartySize),
		Phone:          b.Phone,
		Message:        fmt.Sprintf("Local record updated. Contact %s to confirm the change.", b.RestaurantName),
	}, nil
}

func (s *DeepLink) Check(ctx context.Context, req booking.BookingRequest) (Result, error) {
	res := s.result(req)
	res.Message = fmt.Sprintf("Check availability via %s: %s", s.p, res.DeepLink)
	return res, nil
}

func (s *DeepLink) result(req booking.BookingRequest) Result {
	link := platform.DeepLink(s.p, req.Restaurant.PlatformID, req.Date, req.Time, req.PartySize)
	return Result{
		RestaurantName: req.Restaurant.Name,
		Date:           req.Date,
		Time:           req.Time,
		PartySize:      req.PartySize,
		Platform:       s.p,
		DeepLink:       link,
		Phone:          req.Restaurant.Phone,
		Message:        fmt.Sprintf("Book via %s: %s", s.p, link),
	}
}
