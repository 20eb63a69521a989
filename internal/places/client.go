// Package places is a Google Places API (New) client covering restaurant
// text search and detail lookups.
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/adamSellers/oakley-bookings/internal/domain/booking"
	"github.com/adamSellers/oakley-bookings/internal/internaltypes"
)

const defaultBaseURL = "https://places.googleapis.com/v1"

var searchFieldMask = strings.Join([]string{
	"places.id",
	"places.displayName",
	"places.formattedAddress",
	"places.rating",
	"places.userRatingCount",
	"places.priceLevel",
	"places.googleMapsUri",
	"places.websiteUri",
	"places.internationalPhoneNumber",
	"places.location",
	"places.primaryType",
}, ",")

var detailsFieldMask = strings.Join([]string{
	"id",
	"displayName",
	"formattedAddress",
	"rating",
	"userRatingCount",
	"priceLevel",
	"googleMapsUri",
	"websiteUri",
	"internationalPhoneNumber",
	"location",
	"primaryType",
	"editorialSummary",
}, ",")

type Client struct {
	hc     *http.Client
	apiKey string
	base   string
}

func New(apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		hc:     &http.Client{Timeout: timeout},
		apiKey: apiKey,
		base:   defaultBaseURL,
	}
}

func (c *Client) WithBaseURL(base string) *Client {
	c.base = strings.TrimRight(base, "/")
	return c
}

func (c *Client) Configured() bool { return c.apiKey != "" }

type SearchQuery struct {
	Text       string
	Lat        float64
	Lng        float64
	RadiusM    int
	PriceTier  booking.PriceTier // empty means all
	MinRating  float64
	MaxResults int
}

type apiPlace struct {
	ID          string `json:"id"`
	DisplayName struct {
		Text string `json:"text"`
	} `json:"displayName"`
	FormattedAddress string  `json:"formattedAddress"`
	Rating           float64 `json:"rating"`
	UserRatingCount  int     `json:"userRatingCount"`
	PriceLevel       string  `json:"priceLevel"`
	GoogleMapsURI    string  `json:"googleMapsUri"`
	WebsiteURI       string  `json:"websiteUri"`
	Phone            string  `json:"internationalPhoneNumber"`
	Location         struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
	PrimaryType      string `json:"primaryType"`
	EditorialSummary struct {
		Text string `json:"text"`
	} `json:"editorialSummary"`
}

// Search runs a Places text search biased to a location circle.
func (c *Client) Search(ctx context.Context, q SearchQuery) ([]booking.Restaurant, error) {
	if !c.Configured() {
		return nil, internaltypes.ConfigError("Google Places API key not configured")
	}
	if q.MaxResults <= 0 {
		q.MaxResults = 10
	}

	body := map[string]any{
		"textQuery": q.Text,
		"locationBias": map[string]any{
			"circle": map[string]any{
				"center": map[string]any{"latitude": q.Lat, "longitude": q.Lng},
				"radius": float64(q.RadiusM),
			},
		},
		"includedType":   "restaurant",
		"maxResultCount": q.MaxResults,
		"languageCode":   "en",
	}
	if levels := priceLevels(q.PriceTier); levels != nil {
		body["priceLevels"] = levels
	}

	var parsed struct {
		Places []apiPlace `json:"places"`
	}
	if err := c.post(ctx, "/places:searchText", searchFieldMask, body, &parsed); err != nil {
		return nil, err
	}

	out := make([]booking.Restaurant, 0, len(parsed.Places))
	for _, p := range parsed.Places {
		if q.MinRating > 0 && p.Rating < q.MinRating {
			continue
		}
		out = append(out, toRestaurant(p))
	}
	return out, nil
}

// Details fetches a single place by id.
func (c *Client) Details(ctx context.Context, placeID string) (booking.Restaurant, error) {
	if !c.Configured() {
		return booking.Restaurant{}, internaltypes.ConfigError("Google Places API key not configured")
	}
	var p apiPlace
	if err := c.get(ctx, "/places/"+placeID, detailsFieldMask, &p); err != nil {
		return booking.Restaurant{}, err
	}
	if p.ID == "" {
		return booking.Restaurant{}, internaltypes.NotFoundError("restaurant " + placeID)
	}
	return toRestaurant(p), nil
}

func toRestaurant(p apiPlace) booking.Restaurant {
	r := booking.Restaurant{
		PlaceID:     p.ID,
		Name:        p.DisplayName.Text,
		Address:     p.FormattedAddress,
		Lat:         p.Location.Latitude,
		Lng:         p.Location.Longitude,
		Rating:      p.Rating,
		ReviewCount: p.UserRatingCount,
		PriceTier:   tierFromLevel(p.PriceLevel),
		Phone:       p.Phone,
		Website:     p.WebsiteURI,
		MapsURL:     p.GoogleMapsURI,
	}
	if p.PrimaryType != "" {
		r.Cuisine = []string{p.PrimaryType}
	}
	return r
}

func priceLevels(t booking.PriceTier) []string {
	switch t {
	case booking.PriceLow:
		return []string{"PRICE_LEVEL_INEXPENSIVE"}
	case booking.PriceMid:
		return []string{"PRICE_LEVEL_MODERATE"}
	case booking.PriceHigh:
		return []string{"PRICE_LEVEL_EXPENSIVE"}
	case booking.PriceLuxury:
		return []string{"PRICE_LEVEL_VERY_EXPENSIVE"}
	default:
		return nil
	}
}

func tierFromLevel(level string) booking.PriceTier {
	switch level {
	case "PRICE_LEVEL_INEXPENSIVE":
		return booking.PriceLow
	case "PRICE_LEVEL_MODERATE":
		return booking.PriceMid
	case "PRICE_LEVEL_EXPENSIVE":
		return booking.PriceHigh
	case "PRICE_LEVEL_VERY_EXPENSIVE":
		return booking.PriceLuxury
	default:
		return booking.PriceMid
	}
}

func (c *Client) post(ctx context.Context, path, fieldMask string, body any, dst any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, fieldMask, b, dst)
}

func (c *Client) get(ctx context.Context, path, fieldMask string, dst any) error {
	return c.do(ctx, http.MethodGet, path, fieldMask, nil, dst)
}

// do issues one request; transport failures get exactly one automatic retry.
func (c *Client) do(ctx context.Context, method, path, fieldMask string, body []byte, dst any) error {
	status, b, err := c.doOnce(ctx, method, path, fieldMask, body)
	if err != nil && ctx.Err() == nil {
		status, b, err = c.doOnce(ctx, method, path, fieldMask, body)
	}
	if err != nil {
		return internaltypes.UpstreamError("google_places", err)
	}
	if status == http.StatusNotFound {
		return internaltypes.NotFoundError("place")
	}
	if status >= 400 {
		return internaltypes.UpstreamError("google_places", fmt.Errorf("status=%d body=%s", status, truncate(b, 200)))
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return internaltypes.UpstreamError("google_places", err)
	}
	return nil
}

func (c *Client) doOnce(ctx context.Context, method, path, fieldMask string, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("content-type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("x-goog-fieldmask", fieldMask)

	res, err := c.hc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, nil, err
	}
	return res.StatusCode, b, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
