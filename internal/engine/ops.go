package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/adamSellers/oakley-bookings/internal/domain/booking"
	"github.com/adamSellers/oakley-bookings/internal/internaltypes"
	"github.com/adamSellers/oakley-bookings/internal/store"
	"github.com/adamSellers/oakley-bookings/internal/strategy"
)

type BookParams struct {
	PlaceID   string
	Date      string
	Time      string
	PartySize int
	Notes     string
	Confirm   bool
}

// BookOutcome carries the strategy result plus the persisted booking id when
// the call was confirmed.
type BookOutcome struct {
	strategy.Result
	BookingID string
}

// Check is a read-only availability probe. It never mutates the store.
// Resy availability goes through the availability-class cache so repeated
// probes within the TTL share one upstream call.
func (e *Engine) Check(ctx context.Context, p BookParams) (strategy.Result, error) {
	req, err := e.buildRequest(ctx, p)
	if err != nil {
		return strategy.Result{}, err
	}
	if req.Restaurant.Platform == booking.PlatformResy {
		times, err := e.availabilityTimes(ctx, req.Restaurant.PlatformID, req.Date, req.PartySize)
		if err != nil {
			return strategy.Result{}, err
		}
		msg := fmt.Sprintf("%d time slots available", len(times))
		if len(times) == 0 {
			msg = "No availability on this date"
		}
		return strategy.Result{
			RestaurantName: req.Restaurant.Name,
			Date:           req.Date,
			Time:           req.Time,
			PartySize:      req.PartySize,
			Platform:       booking.PlatformResy,
			Slots:          times,
			Message:        msg,
		}, nil
	}
	return e.strategies.For(req.Restaurant.Platform).Check(ctx, req)
}

// Book previews or confirms a booking. Without Confirm it is a pure read:
// zero store writes, zero remote booking calls.
func (e *Engine) Book(ctx context.Context, p BookParams) (BookOutcome, error) {
	req, err := e.buildRequest(ctx, p)
	if err != nil {
		return BookOutcome{}, err
	}
	st := e.strategies.For(req.Restaurant.Platform)

	if !p.Confirm {
		res, err := st.Preview(ctx, req)
		return BookOutcome{Result: res}, err
	}

	res, err := st.Confirm(ctx, req)
	if err != nil {
		return BookOutcome{}, err
	}

	b := booking.Booking{
		ID:             booking.NewID(e.now()),
		PlaceID:        req.Restaurant.PlaceID,
		RestaurantName: req.Restaurant.Name,
		RestaurantAddr: req.Restaurant.Address,
		Date:           res.Date,
		Time:           res.Time,
		PartySize:      res.PartySize,
		Platform:       req.Restaurant.Platform,
		PlatformRef:    res.PlatformRef,
		Status:         booking.StatusConfirmed,
		MapsURL:        req.Restaurant.MapsURL,
		Phone:          req.Restaurant.Phone,
		Notes:          p.Notes,
	}
	if err := e.store.CreateBooking(ctx, b); err != nil {
		return BookOutcome{}, fmt.Errorf("booking confirmed remotely but local save failed: %w", err)
	}
	e.cal.PushBooking(ctx, b)
	return BookOutcome{Result: res, BookingID: b.ID}, nil
}

type ListParams struct {
	Status   booking.Status
	Upcoming bool
	Past     bool
	Limit    int
}

// Bookings lists bookings with the completed status derived at read time.
func (e *Engine) Bookings(ctx context.Context, p ListParams) ([]booking.Booking, error) {
	now := e.now()
	f := store.ListFilter{
		Upcoming: p.Upcoming,
		Past:     p.Past,
		Today:    now.Format("2006-01-02"),
		Limit:    p.Limit,
	}
	// completed is a projection over confirmed rows, so both filters read
	// stored status confirmed and narrow afterwards
	wantEffective := p.Status
	if p.Status == booking.StatusCompleted || p.Status == booking.StatusConfirmed {
		f.Status = booking.StatusConfirmed
	} else {
		f.Status = p.Status
	}

	list, err := e.store.ListBookings(ctx, f)
	if err != nil {
		return nil, err
	}

	out := make([]booking.Booking, 0, len(list))
	for _, b := range list {
		b.Status = b.EffectiveStatus(now)
		if wantEffective != "" && b.Status != wantEffective {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// Cancel previews or confirms a cancellation. Only a confirmed booking can be
// cancelled; anything else is a state conflict (or not found).
func (e *Engine) Cancel(ctx context.Context, bookingID string, confirm bool) (strategy.Result, error) {
	b, err := e.store.GetBooking(ctx, bookingID)
	if err != nil {
		return strategy.Result{}, err
	}
	if b.Status != booking.StatusConfirmed {
		return strategy.Result{}, internaltypes.StateConflictError("booking " + bookingID + " already " + string(b.Status))
	}

	st := e.strategies.For(b.Platform)
	if !confirm {
		return strategy.Result{
			Preview:        true,
			RestaurantName: b.RestaurantName,
			Date:           b.Date,
			Time:           b.Time,
			PartySize:      b.PartySize,
			Platform:       b.Platform,
			Message:        fmt.Sprintf("Cancel %s on %s at %s?", b.RestaurantName, b.Date, b.Time),
		}, nil
	}

	// local transition first: only the invocation that wins the guarded
	// update reaches the remote endpoint
	if err := e.store.TransitionStatus(ctx, bookingID, booking.StatusConfirmed, booking.StatusCancelled); err != nil {
		return strategy.Result{}, err
	}
	res, err := st.Cancel(ctx, b)
	if err != nil {
		if rerr := e.store.TransitionStatus(ctx, bookingID, booking.StatusCancelled, booking.StatusConfirmed); rerr != nil {
			e.log.Error().Err(rerr).Str("booking_id", bookingID).Msg("could not restore booking after failed remote cancel")
		}
		return strategy.Result{}, err
	}
	return res, nil
}

type ModifyParams struct {
	BookingID string
	Date      string
	Time      string
	PartySize int
	Confirm   bool
}

// Modify previews or applies a change to a confirmed booking. The resy
// variant rebooks remotely; a rebook failure after a successful cancel leg
// flags the booking as modify_failed rather than rolling it back.
func (e *Engine) Modify(ctx context.Context, p ModifyParams) (strategy.Result, error) {
	b, err := e.store.GetBooking(ctx, p.BookingID)
	if err != nil {
		return strategy.Result{}, err
	}
	if b.Status != booking.StatusConfirmed {
		return strategy.Result{}, internaltypes.StateConflictError("cannot modify booking with status " + string(b.Status))
	}

	date, timeStr, party := b.Date, b.Time, b.PartySize
	if p.Date != "" {
		date = p.Date
	}
	if p.Time != "" {
		timeStr = p.Time
	}
	if p.PartySize > 0 {
		party = p.PartySize
	}

	if !p.Confirm {
		return strategy.Result{
			Preview:        true,
			RestaurantName: b.RestaurantName,
			Date:           date,
			Time:           timeStr,
			PartySize:      party,
			Platform:       b.Platform,
			Message: fmt.Sprintf("Modify %s: %s %s (%dp) -> %s %s (%dp)?",
				b.RestaurantName, b.Date, b.Time, b.PartySize, date, timeStr, party),
		}, nil
	}

	r, err := e.resolveRestaurant(ctx, b.PlaceID)
	if err != nil {
		// fall back to what the booking row knows; deep-link and phone
		// variants do not need a live restaurant record
		r = booking.Restaurant{
			PlaceID: b.PlaceID, Name: b.RestaurantName, Address: b.RestaurantAddr,
			Phone: b.Phone, Platform: b.Platform,
		}
	}
	req := booking.BookingRequest{Restaurant: r, Date: date, Time: timeStr, PartySize: party, Notes: b.Notes}

	res, err := e.strategies.For(b.Platform).Modify(ctx, b, req)
	if err != nil {
		if internaltypes.KindOf(err) == internaltypes.KindPartialFailure {
			if terr := e.store.TransitionStatus(ctx, p.BookingID, booking.StatusConfirmed, booking.StatusModifyFailed); terr != nil {
				e.log.Error().Err(terr).Str("booking_id", p.BookingID).Msg("could not flag partial modify failure")
			}
		}
		return strategy.Result{}, err
	}

	if err := e.store.UpdateBookingFields(ctx, p.BookingID, res.Date, res.Time, res.PartySize, res.PlatformRef); err != nil {
		return strategy.Result{}, err
	}
	return res, nil
}

// Rate records a 1-5 rating for a booking. Only a booking that reads as
// completed can be rated. One rating per booking; a second call fails
// rather than overwriting.
func (e *Engine) Rate(ctx context.Context, bookingID string, score int, notes string) (booking.Booking, error) {
	b, err := e.store.GetBooking(ctx, bookingID)
	if err != nil {
		return booking.Booking{}, err
	}
	if eff := b.EffectiveStatus(e.now()); eff != booking.StatusCompleted {
		return booking.Booking{}, internaltypes.StateConflictError("cannot rate booking with status " + string(eff))
	}
	r := booking.Rating{BookingID: bookingID, Score: score, Notes: notes}
	if err := r.Validate(); err != nil {
		return booking.Booking{}, err
	}
	if err := e.store.SaveRating(ctx, r); err != nil {
		return booking.Booking{}, err
	}
	return b, nil
}

type Reminder struct {
	Booking      booking.Booking
	MinutesUntil int
}

// Remind lists confirmed bookings starting within the next four hours.
// An empty result is the expected quiet case for cron usage.
func (e *Engine) Remind(ctx context.Context) ([]Reminder, error) {
	now := e.now()
	list, err := e.store.ListBookings(ctx, store.ListFilter{
		Status: booking.StatusConfirmed,
		Limit:  100,
	})
	if err != nil {
		return nil, err
	}

	var out []Reminder
	for _, b := range list {
		start, err := b.StartsAt(e.opts.Location)
		if err != nil {
			continue
		}
		until := start.Sub(now)
		if until > 0 && until <= remindWindow {
			out = append(out, Reminder{Booking: b, MinutesUntil: int(until / time.Minute)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MinutesUntil < out[j].MinutesUntil })
	return out, nil
}

// RatePrompt lists yesterday's confirmed bookings that have no rating yet.
// Silent (empty) when there is nothing to prompt for.
func (e *Engine) RatePrompt(ctx context.Context) ([]booking.Booking, error) {
	yesterday := e.now().AddDate(0, 0, -1).Format("2006-01-02")
	return e.store.UnratedOn(ctx, yesterday)
}

func (e *Engine) buildRequest(ctx context.Context, p BookParams) (booking.BookingRequest, error) {
	r, err := e.resolveRestaurant(ctx, p.PlaceID)
	if err != nil {
		return booking.BookingRequest{}, err
	}
	req := booking.BookingRequest{
		Restaurant: r,
		Date:       p.Date,
		Time:       p.Time,
		PartySize:  p.PartySize,
		Notes:      p.Notes,
	}
	if err := req.Validate(); err != nil {
		return booking.BookingRequest{}, err
	}
	return req, nil
}
