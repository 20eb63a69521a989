package strategy_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamSellers/oakley-bookings/internal/domain/booking"
	"github.com/adamSellers/oakley-bookings/internal/internaltypes"
	"github.com/adamSellers/oakley-bookings/internal/resy"
	"github.com/adamSellers/oakley-bookings/internal/strategy"
)

type fakeResyAPI struct {
	slots   []resy.Slot
	availWr error

	bookCalls   int
	bookErr     error
	cancelCalls int
	cancelErr   error
}

func (f *fakeResyAPI) Availability(_ context.Context, venueID, date string, partySize int) ([]resy.Slot, error) {
	return f.slots, f.availWr
}

func (f *fakeResyAPI) Book(_ context.Context, slot resy.Slot, date string, partySize int) (resy.Confirmation, error) {
	f.bookCalls++
	if f.bookErr != nil {
		return resy.Confirmation{}, f.bookErr
	}
	return resy.Confirmation{ReservationID: "55501", ResyToken: "tok_55501"}, nil
}

func (f *fakeResyAPI) Cancel(_ context.Context, resyToken string) error {
	f.cancelCalls++
	return f.cancelErr
}

func resyRequest() booking.BookingRequest {
	return booking.BookingRequest{
		Restaurant: booking.Restaurant{
			PlaceID:    "P1",
			Name:       "Bistro Rex",
			Platform:   booking.PlatformResy,
			PlatformID: "9123",
		},
		Date:      "2026-02-20",
		Time:      "19:30",
		PartySize: 2,
	}
}

func TestResyPreviewDoesNotBook(t *testing.T) {
	api := &fakeResyAPI{slots: []resy.Slot{
		{ConfigID: "1", Token: "t1", Time: "18:45:00"},
		{ConfigID: "2", Token: "t2", Time: "19:30:00"},
	}}
	s := strategy.NewResy(api)

	res, err := s.Preview(context.Background(), resyRequest())
	require.NoError(t, err)

	assert.True(t, res.Preview)
	assert.Equal(t, "19:30", res.Time)
	assert.Equal(t, "Bistro Rex", res.RestaurantName)
	assert.Empty(t, res.PlatformRef)
	assert.Zero(t, api.bookCalls)
}

func TestResyConfirmBooksNearestSlot(t *testing.T) {
	api := &fakeResyAPI{slots: []resy.Slot{
		{ConfigID: "1", Token: "t1", Time: "18:00:00"},
		{ConfigID: "2", Token: "t2", Time: "19:45:00"},
	}}
	s := strategy.NewResy(api)

	res, err := s.Confirm(context.Background(), resyRequest())
	require.NoError(t, err)

	assert.Equal(t, 1, api.bookCalls)
	assert.Equal(t, "tok_55501", res.PlatformRef)
	assert.Equal(t, "19:45", res.Time)
	assert.False(t, res.Preview)
}

func TestResyNoSlotWithinWindow(t *testing.T) {
	api := &fakeResyAPI{slots: []resy.Slot{{ConfigID: "1", Token: "t1", Time: "12:00:00"}}}
	s := strategy.NewResy(api)

	_, err := s.Confirm(context.Background(), resyRequest())
	require.Error(t, err)
	assert.True(t, internaltypes.IsNotFound(err))
	assert.Zero(t, api.bookCalls)
}

func TestResyCancelWithoutRefConflicts(t *testing.T) {
	s := strategy.NewResy(&fakeResyAPI{})
	_, err := s.Cancel(context.Background(), booking.Booking{ID: "BK_1", Platform: booking.PlatformResy})
	assert.True(t, internaltypes.IsStateConflict(err))
}

func TestResyModifyPartialFailure(t *testing.T) {
	api := &fakeResyAPI{
		slots:   []resy.Slot{{ConfigID: "2", Token: "t2", Time: "20:00:00"}},
		bookErr: errors.New("resy 500"),
	}
	s := strategy.NewResy(api)

	old := booking.Booking{
		ID: "BK_1", RestaurantName: "Bistro Rex", Platform: booking.PlatformResy,
		PlatformRef: "tok_old", Date: "2026-02-20", Time: "19:30", PartySize: 2,
	}
	req := resyRequest()
	req.Time = "20:00"

	_, err := s.Modify(context.Background(), old, req)
	require.Error(t, err)
	assert.Equal(t, internaltypes.KindPartialFailure, internaltypes.KindOf(err))
	assert.Equal(t, 1, api.cancelCalls)
	assert.Contains(t, err.Error(), "rebook")
}

func TestDeepLinkConfirmIsLocalOnly(t *testing.T) {
	s := strategy.NewDeepLink(booking.PlatformOpenTable)
	req := booking.BookingRequest{
		Restaurant: booking.Restaurant{
			PlaceID: "P2", Name: "Aria", Platform: booking.PlatformOpenTable, PlatformID: "112233",
		},
		Date: "2026-02-20", Time: "19:30", PartySize: 2,
	}

	res, err := s.Confirm(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, res.DeepLink, "rid=112233")
	assert.Contains(t, res.DeepLink, "datetime=2026-02-20T19:30")
	assert.Empty(t, res.PlatformRef)
}

func TestDeepLinkModifyReturnsInstructions(t *testing.T) {
	s := strategy.NewDeepLink(booking.PlatformOpenTable)
	b := booking.Booking{ID: "BK_2", RestaurantName: "Aria", Platform: booking.PlatformOpenTable, Phone: "+61 2 9000 0000"}
	req := booking.BookingRequest{
		Restaurant: booking.Restaurant{PlaceID: "P2", Name: "Aria", PlatformID: "112233"},
		Date:       "2026-02-20", Time: "20:00", PartySize: 2,
	}

	res, err := s.Modify(context.Background(), b, req)
	require.NoError(t, err)
	assert.Contains(t, res.Message, "Contact Aria")
	assert.Equal(t, "20:00", res.Time)
}

func TestPhoneCheckReturnsNumber(t *testing.T) {
	s := strategy.NewPhone()
	res, err := s.Check(context.Background(), booking.BookingRequest{
		Restaurant: booking.Restaurant{Name: "Corner Noodle Bar", Phone: "+61 2 9111 1111"},
		Date:       "2026-02-20", Time: "19:00", PartySize: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "+61 2 9111 1111", res.Phone)
	assert.Contains(t, res.Message, "+61 2 9111 1111")
}
