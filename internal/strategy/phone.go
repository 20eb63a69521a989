package strategy

import (
	"context"
	"fmt"

	"github.com/adamSellers/oakley-bookings/internal/domain/booking"
)

// Phone is the terminal fallback: no API, no deep link. Confirm records the
// booking locally for tracking only.
type Phone struct{}

func NewPhone() *Phone { return &Phone{} }

func (s *Phone) Platform() booking.Platform { return booking.PlatformPhoneOnly }

func (s *Phone) Preview(ctx context.Context, req booking.BookingRequest) (Result, error) {
	res := s.result(req)
	res.Preview = true
	return res, nil
}

func (s *Phone) Confirm(ctx context.Context, req booking.BookingRequest) (Result, error) {
	res := s.result(req)
	res.Message = fmt.Sprintf("Booking recorded for tracking. Call %s to book.", phoneOr(req.Restaurant.Phone))
	return res, nil
}

func (s *Phone) Cancel(ctx context.Context, b booking.Booking) (Result, error) {
	return Result{
		RestaurantName: b.RestaurantName,
		Date:           b.Date,
		Time:           b.Time,
		PartySize:      b.PartySize,
		Platform:       booking.PlatformPhoneOnly,
		Phone:          b.Phone,
		Message:        fmt.Sprintf("Local record cancelled. Call %s to cancel with the restaurant.", phoneOr(b.Phone)),
	}, nil
}

func (s *Phone) Modify(ctx context.Context, b booking.Booking, req booking.BookingRequest) (Result, error) {
	return Result{
		RestaurantName: b.RestaurantName,
		Date:           req.Date,
		Time:           req.Time,
		PartySize:      req.PartySize,
		Platform:       booking.PlatformPhoneOnly,
		Phone:          b.Phone,
		Message:        fmt.Sprintf("Local record updated. Call %s to confirm the change.", phoneOr(b.Phone)),
	}, nil
}

func (s *Phone) Check(ctx context.Context, req booking.BookingRequest) (Result, error) {
	res := s.result(req)
	res.Message = fmt.Sprintf("Call to check availability: %s", phoneOr(req.Restaurant.Phone))
	return res, nil
}

func (s *Phone) result(req booking.BookingRequest) Result {
	return Result{
		RestaurantName: req.Restaurant.Name,
		Date:           req.Date,
		Time:           req.Time,
		PartySize:      req.PartySize,
		Platform:       booking.PlatformPhoneOnly,
		Phone:          req.Restaurant.Phone,
		Message:        fmt.Sprintf("Book by phone: call %s", phoneOr(req.Restaurant.Phone)),
	}
}

func phoneOr(p string) string {
	if p == "" {
		return "the restaurant"
	}
	return p
}
