package engine_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamSellers/oakley-bookings/internal/cache"
	"github.com/adamSellers/oakley-bookings/internal/domain/booking"
	"github.com/adamSellers/oakley-bookings/internal/engine"
	"github.com/adamSellers/oakley-bookings/internal/internaltypes"
	"github.com/adamSellers/oakley-bookings/internal/places"
	"github.com/adamSellers/oakley-bookings/internal/platform"
	"github.com/adamSellers/oakley-bookings/internal/resy"
	"github.com/adamSellers/oakley-bookings/internal/store"
	"github.com/adamSellers/oakley-bookings/internal/strategy"
)

// --- fakes ---

type fakeStore struct {
	restaurants map[string]booking.Restaurant
	bookings    map[string]booking.Booking
	order       []string
	ratings     map[string]booking.Rating
	writes      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		restaurants: make(map[string]booking.Restaurant),
		bookings:    make(map[string]booking.Booking),
		ratings:     make(map[string]booking.Rating),
	}
}

func (f *fakeStore) SaveRestaurant(_ context.Context, r booking.Restaurant) error {
	f.writes++
	f.restaurants[r.PlaceID] = r
	return nil
}

func (f *fakeStore) GetRestaurant(_ context.Context, placeID string) (booking.Restaurant, error) {
	r, ok := f.restaurants[placeID]
	if !ok {
		return booking.Restaurant{}, internaltypes.NotFoundError("restaurant " + placeID)
	}
	return r, nil
}

func (f *fakeStore) CreateBooking(_ context.Context, b booking.Booking) error {
	f.writes++
	f.bookings[b.ID] = b
	f.order = append(f.order, b.ID)
	return nil
}

func (f *fakeStore) GetBooking(_ context.Context, bookingID string) (booking.Booking, error) {
	b, ok := f.bookings[bookingID]
	if !ok {
		return booking.Booking{}, internaltypes.NotFoundError("booking " + bookingID)
	}
	return b, nil
}

func (f *fakeStore) ListBookings(_ context.Context, fl store.ListFilter) ([]booking.Booking, error) {
	var out []booking.Booking
	for _, id := range f.order {
		b := f.bookings[id]
		if fl.Status != "" && b.Status != fl.Status {
			continue
		}
		if fl.Upcoming && (b.Date < fl.Today || b.Status != booking.StatusConfirmed) {
			continue
		}
		if fl.Past && b.Date >= fl.Today {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeStore) TransitionStatus(_ context.Context, bookingID string, from, to booking.Status) error {
	b, ok := f.bookings[bookingID]
	if !ok {
		return internaltypes.NotFoundError("booking " + bookingID)
	}
	if b.Status != from {
		return internaltypes.StateConflictError("booking " + bookingID + " already " + string(b.Status))
	}
	f.writes++
	b.Status = to
	f.bookings[bookingID] = b
	return nil
}

func (f *fakeStore) UpdateBookingFields(_ context.Context, bookingID, date, timeStr string, partySize int, platformRef string) error {
	b, ok := f.bookings[bookingID]
	if !ok {
		return internaltypes.NotFoundError("booking " + bookingID)
	}
	if b.Status != booking.StatusConfirmed {
		return internaltypes.StateConflictError("booking " + bookingID + " already " + string(b.Status))
	}
	f.writes++
	b.Date, b.Time, b.PartySize, b.PlatformRef = date, timeStr, partySize, platformRef
	f.bookings[bookingID] = b
	return nil
}

func (f *fakeStore) SaveRating(_ context.Context, r booking.Rating) error {
	if _, ok := f.ratings[r.BookingID]; ok {
		return internaltypes.StateConflictError("booking " + r.BookingID + " already rated")
	}
	f.writes++
	f.ratings[r.BookingID] = r
	return nil
}

func (f *fakeStore) UnratedOn(_ context.Context, date string) ([]booking.Booking, error) {
	var out []booking.Booking
	for _, id := range f.order {
		b := f.bookings[id]
		if b.Date != date || b.Status != booking.StatusConfirmed {
			continue
		}
		if _, rated := f.ratings[b.ID]; rated {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeStore) TopRestaurants(_ context.Context, limit int) ([]store.Favourite, error) {
	counts := make(map[string]*store.Favourite)
	for _, b := range f.bookings {
		if b.Status == booking.StatusCancelled {
			continue
		}
		fav, ok := counts[b.PlaceID]
		if !ok {
			fav = &store.Favourite{PlaceID: b.PlaceID, RestaurantName: b.RestaurantName}
			counts[b.PlaceID] = fav
		}
		fav.VisitCount++
		if r, ok := f.ratings[b.ID]; ok {
			fav.AvgRating = float64(r.Score)
		}
	}
	var out []store.Favourite
	for _, fav := range counts {
		out = append(out, *fav)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) RecentPlaceIDs(_ context.Context, sinceDate string) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, b := range f.bookings {
		if b.Date >= sinceDate && b.Status != booking.StatusCancelled {
			out[b.PlaceID] = true
		}
	}
	return out, nil
}

func (f *fakeStore) PreferredPriceTier(_ context.Context) (booking.PriceTier, error) {
	return booking.PriceMid, nil
}

func (f *fakeStore) CountBookings(_ context.Context, status booking.Status) (int, error) {
	if status == "" {
		return len(f.bookings), nil
	}
	n := 0
	for _, b := range f.bookings {
		if b.Status == status {
			n++
		}
	}
	return n, nil
}

type fakeResyAPI struct {
	slots       []resy.Slot
	availCalls  int
	bookCalls   int
	bookErr     error
	cancelCalls int
	cancelErr   error
}

func (f *fakeResyAPI) Availability(_ context.Context, venueID, date string, partySize int) ([]resy.Slot, error) {
	f.availCalls++
	return f.slots, nil
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

type fakeDiscovery struct {
	results []booking.Restaurant
	byID    map[string]booking.Restaurant
}

func (f *fakeDiscovery) Search(_ context.Context, q places.SearchQuery) ([]booking.Restaurant, error) {
	return f.results, nil
}

func (f *fakeDiscovery) Details(_ context.Context, placeID string) (booking.Restaurant, error) {
	if r, ok := f.byID[placeID]; ok {
		return r, nil
	}
	return booking.Restaurant{}, internaltypes.NotFoundError("place")
}

type staticDetector struct{}

func (staticDetector) Classify(_ context.Context, sig platform.Signal) platform.Detection {
	return platform.Detection{Platform: booking.PlatformPhoneOnly}
}

type fakeCalendar struct{ pushed []booking.Booking }

func (f *fakeCalendar) PushBooking(_ context.Context, b booking.Booking) {
	f.pushed = append(f.pushed, b)
}

// --- harness ---

type fixture struct {
	eng   *engine.Engine
	st    *fakeStore
	api   *fakeResyAPI
	cal   *fakeCalendar
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	c := cache.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), zerolog.Nop())

	st := newFakeStore()
	api := &fakeResyAPI{slots: []resy.Slot{
		{ConfigID: "1", Token: "t1", Time: "19:00:00"},
		{ConfigID: "2", Token: "t2", Time: "19:30:00"},
	}}
	cal := &fakeCalendar{}
	clock := time.Date(2026, 2, 19, 12, 0, 0, 0, time.UTC)

	eng := engine.New(st, strategy.NewSet(api), staticDetector{}, &fakeDiscovery{}, cal, c, zerolog.Nop(), engine.Options{
		Location: time.UTC,
		Now:      func() time.Time { return clock },
	})
	return &fixture{eng: eng, st: st, api: api, cal: cal, clock: clock}
}

func (f *fixture) seedResyRestaurant() {
	f.st.restaurants["P1"] = booking.Restaurant{
		PlaceID: "P1", Name: "Bistro Rex", Address: "42 Macleay St",
		Phone: "+61 2 9000 0000", Platform: booking.PlatformResy, PlatformID: "9123",
	}
	f.st.writes = 0
}

func (f *fixture) seedOpenTableBooking(id string) {
	f.st.restaurants["P2"] = booking.Restaurant{
		PlaceID: "P2", Name: "Aria", Platform: booking.PlatformOpenTable, PlatformID: "112233",
	}
	f.st.bookings[id] = booking.Booking{
		ID: id, PlaceID: "P2", RestaurantName: "Aria", Date: "2026-02-25", Time: "19:30",
		PartySize: 2, Platform: booking.PlatformOpenTable, Status: booking.StatusConfirmed,
	}
	f.st.order = append(f.st.order, id)
	f.st.writes = 0
}

func (f *fixture) seedPastBooking(id string) {
	f.st.bookings[id] = booking.Booking{
		ID: id, PlaceID: "P2", RestaurantName: "Aria", Date: "2026-02-10", Time: "19:30",
		PartySize: 2, Platform: booking.PlatformOpenTable, Status: booking.StatusConfirmed,
	}
	f.st.order = append(f.st.order, id)
	f.st.writes = 0
}

// --- tests ---

func TestBookPreviewWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.seedResyRestaurant()

	out, err := f.eng.Book(context.Background(), engine.BookParams{
		PlaceID: "P1", Date: "2026-02-20", Time: "19:30", PartySize: 2,
	})
	require.NoError(t, err)

	assert.True(t, out.Preview)
	assert.Empty(t, out.BookingID)
	assert.Equal(t, "Bistro Rex", out.RestaurantName)
	assert.Equal(t, "2026-02-20", out.Date)
	assert.Equal(t, "19:30", out.Time)
	assert.Equal(t, 2, out.PartySize)

	assert.Zero(t, f.st.writes, "preview must not touch the store")
	assert.Zero(t, f.api.bookCalls, "preview must not hit the booking endpoint")
	assert.Empty(t, f.cal.pushed)
}

func TestBookConfirmResyPersistsAndPushesCalendar(t *testing.T) {
	f := newFixture(t)
	f.seedResyRestaurant()

	out, err := f.eng.Book(context.Background(), engine.BookParams{
		PlaceID: "P1", Date: "2026-02-20", Time: "19:30", PartySize: 2, Confirm: true,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out.BookingID, "BK_"))
	assert.Equal(t, "tok_55501", out.PlatformRef)
	assert.Equal(t, 1, f.api.bookCalls)

	require.Len(t, f.st.bookings, 1)
	b := f.st.bookings[out.BookingID]
	assert.Equal(t, booking.StatusConfirmed, b.Status)
	assert.Equal(t, "tok_55501", b.PlatformRef)
	assert.Equal(t, booking.PlatformResy, b.Platform)
	require.Len(t, f.cal.pushed, 1)
	assert.Equal(t, out.BookingID, f.cal.pushed[0].ID)
}

func TestBookConfirmOpenTableMakesNoRemoteCall(t *testing.T) {
	f := newFixture(t)
	f.st.restaurants["P2"] = booking.Restaurant{
		PlaceID: "P2", Name: "Aria", Platform: booking.PlatformOpenTable, PlatformID: "112233",
	}

	out, err := f.eng.Book(context.Background(), engine.BookParams{
		PlaceID: "P2", Date: "2026-02-20", Time: "19:30", PartySize: 2, Confirm: true,
	})
	require.NoError(t, err)

	assert.Zero(t, f.api.bookCalls)
	assert.Contains(t, out.DeepLink, "rid=112233")
	assert.True(t, strings.HasPrefix(out.BookingID, "BK_"))
	assert.Empty(t, f.st.bookings[out.BookingID].PlatformRef)
}

func TestCancelConfirmedResyThenSecondCancelConflicts(t *testing.T) {
	f := newFixture(t)
	f.seedResyRestaurant()
	f.st.bookings["BK_1"] = booking.Booking{
		ID: "BK_1", PlaceID: "P1", RestaurantName: "Bistro Rex", Date: "2026-02-25", Time: "19:30",
		PartySize: 2, Platform: booking.PlatformResy, PlatformRef: "tok_old", Status: booking.StatusConfirmed,
	}
	f.st.order = append(f.st.order, "BK_1")

	res, err := f.eng.Cancel(context.Background(), "BK_1", true)
	require.NoError(t, err)
	assert.Equal(t, 1, f.api.cancelCalls, "cancellation endpoint called exactly once")
	assert.Contains(t, res.Message, "Cancelled")
	assert.Equal(t, booking.StatusCancelled, f.st.bookings["BK_1"].Status)

	_, err = f.eng.Cancel(context.Background(), "BK_1", true)
	require.Error(t, err)
	assert.True(t, internaltypes.IsStateConflict(err))
	assert.Equal(t, 1, f.api.cancelCalls, "no duplicate remote cancellation")
}

func TestCancelRemoteFailureRestoresBooking(t *testing.T) {
	f := newFixture(t)
	f.seedResyRestaurant()
	f.st.bookings["BK_R"] = booking.Booking{
		ID: "BK_R", PlaceID: "P1", RestaurantName: "Bistro Rex", Date: "2026-02-25", Time: "19:30",
		PartySize: 2, Platform: booking.PlatformResy, PlatformRef: "tok_old", Status: booking.StatusConfirmed,
	}
	f.st.order = append(f.st.order, "BK_R")
	f.api.cancelErr = errors.New("resy 502")

	_, err := f.eng.Cancel(context.Background(), "BK_R", true)
	require.Error(t, err)
	assert.Equal(t, 1, f.api.cancelCalls)
	assert.Equal(t, booking.StatusConfirmed, f.st.bookings["BK_R"].Status, "failed remote cancel leaves the booking confirmed")

	f.api.cancelErr = nil
	_, err = f.eng.Cancel(context.Background(), "BK_R", true)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCancelled, f.st.bookings["BK_R"].Status)
}

func TestCheckSharesCachedAvailability(t *testing.T) {
	f := newFixture(t)
	f.seedResyRestaurant()

	res, err := f.eng.Check(context.Background(), engine.BookParams{
		PlaceID: "P1", Date: "2026-02-20", Time: "19:30", PartySize: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"19:00", "19:30"}, res.Slots)
	assert.Contains(t, res.Message, "2 time slots")

	_, err = f.eng.Check(context.Background(), engine.BookParams{
		PlaceID: "P1", Date: "2026-02-20", Time: "19:30", PartySize: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, f.api.availCalls, "second probe within the TTL is served from cache")
}

func TestCancelPreviewWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.seedOpenTableBooking("BK_2")

	res, err := f.eng.Cancel(context.Background(), "BK_2", false)
	require.NoError(t, err)
	assert.True(t, res.Preview)
	assert.Zero(t, f.st.writes)
	assert.Equal(t, booking.StatusConfirmed, f.st.bookings["BK_2"].Status)
}

func TestModifyOpenTableUpdatesLocalFieldsOnly(t *testing.T) {
	f := newFixture(t)
	f.seedOpenTableBooking("BK_X")

	res, err := f.eng.Modify(context.Background(), engine.ModifyParams{
		BookingID: "BK_X", Time: "20:00", Confirm: true,
	})
	require.NoError(t, err)

	assert.Zero(t, f.api.bookCalls)
	assert.Zero(t, f.api.cancelCalls)
	assert.Contains(t, res.Message, "Contact")

	b := f.st.bookings["BK_X"]
	assert.Equal(t, "20:00", b.Time)
	assert.Equal(t, "2026-02-25", b.Date, "unchanged fields keep their values")
	assert.Equal(t, booking.StatusConfirmed, b.Status)
}

func TestModifyResyPartialFailureFlagsBooking(t *testing.T) {
	f := newFixture(t)
	f.seedResyRestaurant()
	f.st.bookings["BK_3"] = booking.Booking{
		ID: "BK_3", PlaceID: "P1", RestaurantName: "Bistro Rex", Date: "2026-02-25", Time: "19:30",
		PartySize: 2, Platform: booking.PlatformResy, PlatformRef: "tok_old", Status: booking.StatusConfirmed,
	}
	f.st.order = append(f.st.order, "BK_3")
	f.api.bookErr = errors.New("resy 500")

	_, err := f.eng.Modify(context.Background(), engine.ModifyParams{
		BookingID: "BK_3", Time: "19:00", Confirm: true,
	})
	require.Error(t, err)
	assert.Equal(t, internaltypes.KindPartialFailure, internaltypes.KindOf(err))
	assert.Equal(t, booking.StatusModifyFailed, f.st.bookings["BK_3"].Status)
}

func TestModifyPreviewWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.seedOpenTableBooking("BK_4")

	res, err := f.eng.Modify(context.Background(), engine.ModifyParams{
		BookingID: "BK_4", Time: "21:00",
	})
	require.NoError(t, err)
	assert.True(t, res.Preview)
	assert.Zero(t, f.st.writes)
	assert.Equal(t, "19:30", f.st.bookings["BK_4"].Time)
}

func TestRateSecondCallFails(t *testing.T) {
	f := newFixture(t)
	f.seedPastBooking("BK_5")

	_, err := f.eng.Rate(context.Background(), "BK_5", 5, "great duck")
	require.NoError(t, err)

	_, err = f.eng.Rate(context.Background(), "BK_5", 3, "")
	require.Error(t, err)
	assert.True(t, internaltypes.IsStateConflict(err))
	assert.Equal(t, 5, f.st.ratings["BK_5"].Score, "first rating stands")
}

func TestRateRequiresCompletedBooking(t *testing.T) {
	f := newFixture(t)
	f.seedOpenTableBooking("BK_future") // 2026-02-25, has not happened yet

	_, err := f.eng.Rate(context.Background(), "BK_future", 5, "")
	require.Error(t, err)
	assert.True(t, internaltypes.IsStateConflict(err))

	f.seedPastBooking("BK_gone")
	b := f.st.bookings["BK_gone"]
	b.Status = booking.StatusCancelled
	f.st.bookings["BK_gone"] = b

	_, err = f.eng.Rate(context.Background(), "BK_gone", 5, "")
	require.Error(t, err)
	assert.True(t, internaltypes.IsStateConflict(err))
	assert.Empty(t, f.st.ratings)
}

func TestRateUnknownBookingNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.eng.Rate(context.Background(), "BK_missing", 4, "")
	assert.True(t, internaltypes.IsNotFound(err))
}

func TestRemindEmptyWhenNothingSoon(t *testing.T) {
	f := newFixture(t)
	f.seedOpenTableBooking("BK_6") // 2026-02-25, days away

	out, err := f.eng.Remind(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRemindOneQualifyingBooking(t *testing.T) {
	f := newFixture(t)
	// clock is 2026-02-19 12:00 UTC; 14:00 today is inside the window
	f.st.bookings["BK_7"] = booking.Booking{
		ID: "BK_7", PlaceID: "P1", RestaurantName: "Bistro Rex", RestaurantAddr: "42 Macleay St",
		Date: "2026-02-19", Time: "14:00", PartySize: 2,
		Platform: booking.PlatformResy, Status: booking.StatusConfirmed,
	}
	f.st.bookings["BK_8"] = booking.Booking{
		ID: "BK_8", PlaceID: "P1", RestaurantName: "Late Dinner", Date: "2026-02-19", Time: "19:00",
		PartySize: 2, Platform: booking.PlatformResy, Status: booking.StatusConfirmed,
	}
	f.st.order = append(f.st.order, "BK_7", "BK_8")

	out, err := f.eng.Remind(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Bistro Rex", out[0].Booking.RestaurantName)
	assert.Equal(t, 120, out[0].MinutesUntil)
	assert.Equal(t, "42 Macleay St", out[0].Booking.RestaurantAddr)
}

func TestBookingsDerivesCompletedAtReadTime(t *testing.T) {
	f := newFixture(t)
	f.st.bookings["BK_9"] = booking.Booking{
		ID: "BK_9", PlaceID: "P1", RestaurantName: "Bistro Rex", Date: "2026-02-10", Time: "19:00",
		PartySize: 2, Platform: booking.PlatformResy, Status: booking.StatusConfirmed,
	}
	f.st.order = append(f.st.order, "BK_9")

	out, err := f.eng.Bookings(context.Background(), engine.ListParams{Status: booking.StatusCompleted})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, booking.StatusCompleted, out[0].Status)

	// the stored row is untouched
	assert.Equal(t, booking.StatusConfirmed, f.st.bookings["BK_9"].Status)

	out, err = f.eng.Bookings(context.Background(), engine.ListParams{Status: booking.StatusConfirmed})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRatePromptListsYesterdayUnrated(t *testing.T) {
	f := newFixture(t)
	f.st.bookings["BK_10"] = booking.Booking{
		ID: "BK_10", PlaceID: "P1", RestaurantName: "Bistro Rex", Date: "2026-02-18", Time: "19:00",
		PartySize: 2, Platform: booking.PlatformResy, Status: booking.StatusConfirmed,
	}
	f.st.order = append(f.st.order, "BK_10")

	out, err := f.eng.RatePrompt(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "BK_10", out[0].ID)

	_, err = f.eng.Rate(context.Background(), "BK_10", 4, "")
	require.NoError(t, err)

	out, err = f.eng.RatePrompt(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSuggestSkipsRecentlyVisited(t *testing.T) {
	f := newFixture(t)
	f.st.bookings["BK_11"] = booking.Booking{
		ID: "BK_11", PlaceID: "P_recent", RestaurantName: "Just Visited", Date: "2026-02-15",
		Time: "19:00", PartySize: 2, Platform: booking.PlatformResy, Status: booking.StatusConfirmed,
	}
	f.st.order = append(f.st.order, "BK_11")

	disc := &fakeDiscovery{results: []booking.Restaurant{
		{PlaceID: "P_recent", Name: "Just Visited", Rating: 4.8},
		{PlaceID: "P_new", Name: "Fresh Spot", Rating: 4.5},
	}}
	mr := miniredis.RunT(t)
	c := cache.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), zerolog.Nop())
	eng := engine.New(f.st, strategy.NewSet(f.api), staticDetector{}, disc, f.cal, c, zerolog.Nop(), engine.Options{
		Location: time.UTC,
		Now:      func() time.Time { return f.clock },
	})

	out, err := eng.Suggest(context.Background(), "italian", "")
	require.NoError(t, err)

	ids := make([]string, 0, len(out.Fresh))
	for _, r := range out.Fresh {
		ids = append(ids, r.PlaceID)
	}
	assert.Contains(t, ids, "P_new")
	assert.NotContains(t, ids, "P_recent", "visited within the dedupe window")
}
