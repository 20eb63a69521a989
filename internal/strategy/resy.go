package strategy

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/adamSellers/oakley-bookings/internal/domain/booking"
	"github.com/adamSellers/oakley-bookings/internal/internaltypes"
	"github.com/adamSellers/oakley-bookings/internal/resy"
)

// slotMatchWindowMin bounds how far a bookable slot may drift from the
// requested time. Beyond this the request fails rather than surprising the
// diner with a very different sitting.
const slotMatchWindowMin = 120

// Resy books through the Resy API: preview computes the intended slot without
// touching the booking endpoint, confirm runs the real flow and returns the
// external confirmation reference.
type Resy struct {
	api ResyAPI
}

func NewResy(api ResyAPI) *Resy { return &Resy{api: api} }

func (s *Resy) Platform() booking.Platform { return booking.PlatformResy }

func (s *Resy) Preview(ctx context.Context, req booking.BookingRequest) (Result, error) {
	slot, err := s.matchSlot(ctx, req)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Preview:        true,
		RestaurantName: req.Restaurant.Name,
		Date:           req.Date,
		Time:           hhmm(slot.Time),
		PartySize:      req.PartySize,
		Platform:       booking.PlatformResy,
		Message:        fmt.Sprintf("Ready to book %s on %s at %s for %d", req.Restaurant.Name, req.Date, hhmm(slot.Time), req.PartySize),
	}, nil
}

func (s *Resy) Confirm(ctx context.Context, req booking.BookingRequest) (Result, error) {
	slot, err := s.matchSlot(ctx, req)
	if err != nil {
		return Result{}, err
	}
	conf, err := s.api.Book(ctx, slot, req.Date, req.PartySize)
	if err != nil {
		return Result{}, err
	}
	return Result{
		RestaurantName: req.Restaurant.Name,
		Date:           req.Date,
		Time:           hhmm(slot.Time),
		PartySize:      req.PartySize,
		Platform:       booking.PlatformResy,
		PlatformRef:    conf.ResyToken,
		Message:        fmt.Sprintf("Booked %s on %s at %s for %d", req.Restaurant.Name, req.Date, hhmm(slot.Time), req.PartySize),
	}, nil
}

func (s *Resy) Cancel(ctx context.Context, b booking.Booking) (Result, error) {
	if b.PlatformRef == "" {
		return Result{}, internaltypes.StateConflictError("resy booking has no confirmation reference")
	}
	if err := s.api.Cancel(ctx, b.PlatformRef); err != nil {
		return Result{}, err
	}
	return Result{
		RestaurantName: b.RestaurantName,
		Date:           b.Date,
		Time:           b.Time,
		PartySize:      b.PartySize,
		Platform:       booking.PlatformResy,
		Message:        fmt.Sprintf("Cancelled: %s on %s at %s", b.RestaurantName, b.Date, b.Time),
	}, nil
}

// Modify is cancel-old plus book-new; Resy has no native modify endpoint.
// When the rebook leg fails after the cancel leg succeeded, the error is a
// PartialFailureError and the orchestrator flags the booking rather than
// rolling it back to a misleading prior status.
func (s *Resy) Modify(ctx context.Context, b booking.Booking, req booking.BookingRequest) (Result, error) {
	if _, err := s.Cancel(ctx, b); err != nil {
		return Result{}, err
	}
	res, err := s.Confirm(ctx, req)
	if err != nil {
		return Result{}, internaltypes.PartialFailureError("rebook", fmt.Sprintf("original booking cancelled but rebooking failed: %v", err))
	}
	res.Message = fmt.Sprintf("Modified: %s now on %s at %s for %d", b.RestaurantName, res.Date, res.Time, res.PartySize)
	return res, nil
}

func (s *Resy) Check(ctx context.Context, req booking.BookingRequest) (Result, error) {
	slots, err := s.api.Availability(ctx, req.Restaurant.PlatformID, req.Date, req.PartySize)
	if err != nil {
		return Result{}, err
	}
	times := make([]string, 0, len(slots))
	for _, sl := range slots {
		if t := hhmm(sl.Time); t != "" {
			times = append(times, t)
		}
	}
	msg := fmt.Sprintf("%d time slots available", len(times))
	if len(times) == 0 {
		msg = "No availability on this date"
	}
	return Result{
		RestaurantName: req.Restaurant.Name,
		Date:           req.Date,
		Time:           req.Time,
		PartySize:      req.PartySize,
		Platform:       booking.PlatformResy,
		Slots:          times,
		Message:        msg,
	}, nil
}

// matchSlot finds the bookable slot closest to the requested time, within the
// match window.
func (s *Resy) matchSlot(ctx context.Context, req booking.BookingRequest) (resy.Slot, error) {
	slots, err := s.api.Availability(ctx, req.Restaurant.PlatformID, req.Date, req.PartySize)
	if err != nil {
		return resy.Slot{}, err
	}
	if len(slots) == 0 {
		return resy.Slot{}, internaltypes.NotFoundError("availability for " + req.Restaurant.Name + " on " + req.Date)
	}

	want, ok := minuteOfDay(req.Time)
	if !ok {
		return slots[0], nil
	}

	type scored struct {
		diff int
		slot resy.Slot
	}
	var candidates []scored
	for _, sl := range slots {
		got, ok := minuteOfDay(sl.Time)
		if !ok {
			continue
		}
		diff := got - want
		if diff < 0 {
			diff = -diff
		}
		if diff <= slotMatchWindowMin {
			candidates = append(candidates, scored{diff: diff, slot: sl})
		}
	}
	if len(candidates) == 0 {
		avail := make([]string, 0, 6)
		for _, sl := range slots {
			if t := hhmm(sl.Time); t != "" && len(avail) < 6 {
				avail = append(avail, t)
			}
		}
		return resy.Slot{}, internaltypes.NotFoundError(
			fmt.Sprintf("slot at %s (available: %s)", req.Time, strings.Join(avail, ", ")))
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].diff < candidates[j].diff })
	return candidates[0].slot, nil
}

func minuteOfDay(t string) (int, bool) {
	parts := strings.Split(t, ":")
	if len(parts) < 2 {
		return 0, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

func hhmm(t string) string {
	if len(t) >= 5 {
		return t[:5]
	}
	return t
}
