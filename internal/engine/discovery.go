package engine

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/adamSellers/oakley-bookings/internal/cache"
	"github.com/adamSellers/oakley-bookings/internal/domain/booking"
	"github.com/adamSellers/oakley-bookings/internal/places"
	"github.com/adamSellers/oakley-bookings/internal/platform"
)

// classifyLimit caps how many search hits get platform detection, to bound
// Resy directory lookups per search.
const classifyLimit = 8

type SearchParams struct {
	Query     string
	Date      string
	Time      string
	PartySize int
	PriceTier booking.PriceTier
	MinRating float64
	RadiusM   int
	Sort      string // rating|distance|booking_ease
}

type SearchResult struct {
	booking.Restaurant
	DistanceKm     float64
	AvailableTimes []string
	score          float64
}

// Search queries the discovery client through the search cache, classifies
// the top hits, enriches resy hits with availability and ranks the results.
func (e *Engine) Search(ctx context.Context, p SearchParams) ([]SearchResult, error) {
	if p.PartySize <= 0 {
		p.PartySize = 2
	}
	radius := p.RadiusM
	if radius <= 0 {
		radius = e.opts.DefaultRadiusM
	}

	q := places.SearchQuery{
		Text:      p.Query,
		Lat:       e.opts.DefaultLat,
		Lng:       e.opts.DefaultLng,
		RadiusM:   radius,
		PriceTier: p.PriceTier,
		MinRating: p.MinRating,
	}
	key := cache.Key(cache.ClassSearch, p.Query, string(p.PriceTier),
		strconv.FormatFloat(p.MinRating, 'f', 1, 64), strconv.Itoa(radius))
	found, err := cache.GetOrFetch(ctx, e.cache, cache.ClassSearch, key, func(ctx context.Context) ([]booking.Restaurant, error) {
		return e.discovery.Search(ctx, q)
	})
	if err != nil {
		return nil, err
	}

	limit := classifyLimit
	if len(found) < limit {
		limit = len(found)
	}

	results := make([]SearchResult, 0, limit)
	for _, r := range found[:limit] {
		det := e.detector.Classify(ctx, platform.Signal{Name: r.Name, Lat: r.Lat, Lng: r.Lng, Website: r.Website})
		r.Platform = det.Platform
		r.PlatformID = det.PlatformID

		res := SearchResult{
			Restaurant: r,
			DistanceKm: haversineKm(e.opts.DefaultLat, e.opts.DefaultLng, r.Lat, r.Lng),
		}
		if r.Platform == booking.PlatformResy && p.Date != "" {
			if times, err := e.availabilityTimes(ctx, r.PlatformID, p.Date, p.PartySize); err == nil {
				res.AvailableTimes = times
			}
		}
		if err := e.store.SaveRestaurant(ctx, r); err != nil {
			e.log.Warn().Err(err).Str("place_id", r.PlaceID).Msg("restaurant save failed")
		}
		results = append(results, res)
	}

	rank(results, p.Sort)
	return results, nil
}

// Details returns one restaurant with platform detection applied.
func (e *Engine) Details(ctx context.Context, placeID string) (booking.Restaurant, error) {
	r, err := e.fetchDetails(ctx, placeID)
	if err != nil {
		return booking.Restaurant{}, err
	}
	if err := e.store.SaveRestaurant(ctx, r); err != nil {
		e.log.Warn().Err(err).Str("place_id", placeID).Msg("restaurant save failed")
	}
	return r, nil
}

type Suggestions struct {
	Favourites []Favourite
	Fresh      []SearchResult
}

type Favourite struct {
	PlaceID        string
	RestaurantName string
	VisitCount     int
	AvgRating      float64
}

// Suggest ranks places to eat from booking history plus a fresh search.
// Restaurants visited within the dedupe window are dropped from the fresh
// list so suggestions rotate.
func (e *Engine) Suggest(ctx context.Context, cuisine, occasion string) (Suggestions, error) {
	var out Suggestions

	top, err := e.store.TopRestaurants(ctx, 5)
	if err != nil {
		return Suggestions{}, err
	}
	for _, f := range top {
		if f.AvgRating >= 4 || f.VisitCount > 1 {
			out.Favourites = append(out.Favourites, Favourite{
				PlaceID:        f.PlaceID,
				RestaurantName: f.RestaurantName,
				VisitCount:     f.VisitCount,
				AvgRating:      f.AvgRating,
			})
		}
	}
	sort.SliceStable(out.Favourites, func(i, j int) bool {
		if out.Favourites[i].VisitCount != out.Favourites[j].VisitCount {
			return out.Favourites[i].VisitCount > out.Favourites[j].VisitCount
		}
		return out.Favourites[i].AvgRating > out.Favourites[j].AvgRating
	})

	query := strings.TrimSpace(strings.Join([]string{occasion, cuisine}, " "))
	if query == "" {
		query = "popular restaurant"
	}
	tier, err := e.store.PreferredPriceTier(ctx)
	if err != nil {
		e.log.Warn().Err(err).Msg("price tier preference lookup failed")
		tier = ""
	}

	fresh, err := e.Search(ctx, SearchParams{Query: query, MinRating: 4.0, PriceTier: tier})
	if err != nil {
		// history alone is still a useful answer when discovery is down
		e.log.Warn().Err(err).Msg("fresh suggestions unavailable")
		return out, nil
	}

	cutoff := e.now().AddDate(0, 0, -suggestDedupeDays).Format("2006-01-02")
	recent, err := e.store.RecentPlaceIDs(ctx, cutoff)
	if err != nil {
		return Suggestions{}, err
	}
	for _, r := range fresh {
		if recent[r.PlaceID] {
			continue
		}
		out.Fresh = append(out.Fresh, r)
	}
	sort.SliceStable(out.Fresh, func(i, j int) bool {
		if out.Fresh[i].Rating != out.Fresh[j].Rating {
			return out.Fresh[i].Rating > out.Fresh[j].Rating
		}
		return out.Fresh[i].Platform.Ease() > out.Fresh[j].Platform.Ease()
	})
	return out, nil
}

// availabilityTimes fronts the Resy availability endpoint with the
// availability-class cache.
func (e *Engine) availabilityTimes(ctx context.Context, venueID, date string, partySize int) ([]string, error) {
	st := e.strategies.For(booking.PlatformResy)
	key := cache.Key(cache.ClassAvailability, venueID, date, strconv.Itoa(partySize))
	return cache.GetOrFetch(ctx, e.cache, cache.ClassAvailability, key, func(ctx context.Context) ([]string, error) {
		res, err := st.Check(ctx, booking.BookingRequest{
			Restaurant: booking.Restaurant{Platform: booking.PlatformResy, PlatformID: venueID},
			Date:       date,
			PartySize:  partySize,
		})
		if err != nil {
			return nil, err
		}
		return res.Slots, nil
	})
}

func rank(results []SearchResult, sortBy string) {
	if len(results) == 0 {
		return
	}
	maxReviews := 1
	for _, r := range results {
		if r.ReviewCount > maxReviews {
			maxReviews = r.ReviewCount
		}
	}
	for i := range results {
		r := &results[i]
		proximity := 1 - r.DistanceKm/10
		if proximity < 0 {
			proximity = 0
		}
		r.score = (r.Rating/5)*0.4 +
			(float64(r.ReviewCount)/float64(maxReviews))*0.2 +
			proximity*0.2 +
			(float64(r.Platform.Ease())/4)*0.2
	}

	switch sortBy {
	case "distance":
		sort.SliceStable(results, func(i, j int) bool { return results[i].DistanceKm < results[j].DistanceKm })
	case "booking_ease":
		sort.SliceStable(results, func(i, j int) bool { return results[i].Platform.Ease() > results[j].Platform.Ease() })
	default:
		sort.SliceStable(results, func(i, j int) bool { return results[i].score > results[j].score })
	}
}

func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusKm = 6371
	dLat := rad(lat2 - lat1)
	dLng := rad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func rad(deg float64) float64 { return deg * math.Pi / 180 }

// Score is exported for display; a formatted percentage reads better than the
// raw weighted sum.
func (r SearchResult) Score() string { return fmt.Sprintf("%.0f%%", r.score*100) }
