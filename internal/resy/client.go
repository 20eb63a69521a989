// Package resy is a minimal Resy API client covering venue lookup,
// availability, booking and cancellation. It requires an API key and auth
// token captured from an authenticated browser session.
package resy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/adamSellers/oakley-bookings/internal/internaltypes"
)

const defaultBaseURL = "https://api.resy.com"

type Credentials struct {
	APIKey    string
	AuthToken string
}

func (c Credentials) Configured() bool { return c.APIKey != "" && c.AuthToken != "" }

type Client struct {
	hc    *http.Client
	creds Credentials
	base  string
}

func New(creds Credentials, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		hc:    &http.Client{Timeout: timeout},
		creds: creds,
		base:  defaultBaseURL,
	}
}

// WithBaseURL points the client at a test server.
func (c *Client) WithBaseURL(base string) *Client {
	c.base = strings.TrimRight(base, "/")
	return c
}

type Slot struct {
	ConfigID string `json:"config_id"`
	Token    string `json:"token"`
	Type     string `json:"type"`
	Time     string `json:"time"` // HH:MM:SS
}

type Confirmation struct {
	ReservationID string `json:"reservation_id"`
	ResyToken     string `json:"resy_token"`
}

func (c *Client) Ping(ctx context.Context) error {
	status, body, err := c.do(ctx, http.MethodGet, "/2/user", nil, nil)
	if err != nil {
		return internaltypes.UpstreamError("resy", err)
	}
	if status >= 400 {
		var r struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(body, &r)
		if r.Message != "" {
			return internaltypes.UpstreamError("resy", fmt.Errorf("%s (status=%d)", r.Message, status))
		}
		return internaltypes.UpstreamError("resy", fmt.Errorf("ping failed (status=%d)", status))
	}
	return nil
}

type findResponse struct {
	Results struct {
		Venues []struct {
			Venue struct {
				ID struct {
					Resy int64 `json:"resy"`
				} `json:"id"`
				Name string `json:"name"`
			} `json:"venue"`
			Slots []struct {
				Config struct {
					ID    json.Number `json:"id"`
					Token string      `json:"token"`
					Type  string      `json:"type"`
				} `json:"config"`
				Date struct {
					Start string `json:"start"` // "2026-02-20 19:30:00"
				} `json:"date"`
			} `json:"slots"`
		} `json:"venues"`
	} `json:"results"`
}

// FindVenue resolves a venue id by name near a location. Returns "" without
// error when nothing matches; callers treat that as "not on Resy".
func (c *Client) FindVenue(ctx context.Context, name string, lat, lng float64) (string, error) {
	params := map[string]string{
		"lat":        strconv.FormatFloat(lat, 'f', -1, 64),
		"long":       strconv.FormatFloat(lng, 'f', -1, 64),
		"day":        time.Now().AddDate(0, 0, 1).Format("2006-01-02"),
		"party_size": "2",
	}
	status, body, err := c.do(ctx, http.MethodGet, "/4/find", params, nil)
	if err != nil {
		return "", internaltypes.UpstreamError("resy", err)
	}
	if status != http.StatusOK {
		return "", internaltypes.UpstreamError("resy", fmt.Errorf("venue search failed (status=%d)", status))
	}
	var res findResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return "", internaltypes.UpstreamError("resy", err)
	}
	want := strings.ToLower(strings.TrimSpace(name))
	for _, v := range res.Results.Venues {
		got := strings.ToLower(v.Venue.Name)
		if got == "" {
			continue
		}
		if strings.Contains(got, want) || strings.Contains(want, got) {
			return strconv.FormatInt(v.Venue.ID.Resy, 10), nil
		}
	}
	return "", nil
}

// Availability lists bookable slots for a venue on a date.
func (c *Client) Availability(ctx context.Context, venueID, date string, partySize int) ([]Slot, error) {
	params := map[string]string{
		"venue_id":   venueID,
		"day":        date,
		"party_size": strconv.Itoa(partySize),
		// deprecated but still required by the endpoint
		"lat":  "0",
		"long": "0",
	}
	status, body, err := c.do(ctx, http.MethodGet, "/4/find", params, nil)
	if err != nil {
		return nil, internaltypes.UpstreamError("resy", err)
	}
	if status != http.StatusOK {
		return nil, internaltypes.UpstreamError("resy", fmt.Errorf("availability failed (status=%d)", status))
	}
	var res findResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, internaltypes.UpstreamError("resy", err)
	}

	var out []Slot
	for _, v := range res.Results.Venues {
		for _, s := range v.Slots {
			out = append(out, Slot{
				ConfigID: s.Config.ID.String(),
				Token:    s.Config.Token,
				Type:     s.Config.Type,
				Time:     timePart(s.Date.Start),
			})
		}
	}
	return out, nil
}

type detailsResponse struct {
	BookToken struct {
		Value string `json:"value"`
	} `json:"book_token"`
}

type bookResponse struct {
	ResyToken     string      `json:"resy_token"`
	ReservationID json.Number `json:"reservation_id"`
}

// Book runs the details -> book token -> book flow for one slot.
func (c *Client) Book(ctx context.Context, slot Slot, date string, partySize int) (Confirmation, error) {
	payload, _ := json.Marshal(map[string]any{
		"config_id":  slot.Token,
		"day":        date,
		"party_size": partySize,
	})
	status, body, err := c.do(ctx, http.MethodPost, "/3/details", nil, payload)
	if err != nil {
		return Confirmation{}, internaltypes.UpstreamError("resy", err)
	}
	if status >= 400 {
		return Confirmation{}, internaltypes.UpstreamError("resy", fmt.Errorf("booking details failed (status=%d)", status))
	}
	var details detailsResponse
	if err := json.Unmarshal(body, &details); err != nil || details.BookToken.Value == "" {
		return Confirmation{}, internaltypes.UpstreamError("resy", fmt.Errorf("no book token in details response"))
	}

	payload, _ = json.Marshal(map[string]any{"book_token": details.BookToken.Value})
	status, body, err = c.do(ctx, http.MethodPost, "/3/book", nil, payload)
	if err != nil {
		return Confirmation{}, internaltypes.UpstreamError("resy", err)
	}
	if status >= 400 {
		return Confirmation{}, internaltypes.UpstreamError("resy", fmt.Errorf("book failed (status=%d)", status))
	}
	var conf bookResponse
	if err := json.Unmarshal(body, &conf); err != nil {
		return Confirmation{}, internaltypes.UpstreamError("resy", err)
	}
	return Confirmation{ReservationID: conf.ReservationID.String(), ResyToken: conf.ResyToken}, nil
}

// Cancel cancels a reservation by its resy token.
func (c *Client) Cancel(ctx context.Context, resyToken string) error {
	payload, _ := json.Marshal(map[string]any{"resy_token": resyToken})
	status, _, err := c.do(ctx, http.MethodPost, "/3/cancel", nil, payload)
	if err != nil {
		return internaltypes.UpstreamError("resy", err)
	}
	if status >= 400 {
		return internaltypes.UpstreamError("resy", fmt.Errorf("cancel failed (status=%d)", status))
	}
	return nil
}

// do issues one request with Resy's required headers. Transport-level
// failures get exactly one automatic retry; HTTP error statuses do not.
func (c *Client) do(ctx context.Context, method, path string, query map[string]string, body []byte) (int, []byte, error) {
	status, b, err := c.doOnce(ctx, method, path, query, body)
	if err != nil && ctx.Err() == nil {
		status, b, err = c.doOnce(ctx, method, path, query, body)
	}
	return status, b, err
}

func (c *Client) doOnce(ctx context.Context, method, path string, query map[string]string, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Add("user-agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36")
	req.Header.Add("origin", "https://resy.com")
	req.Header.Add("referrer", "https://resy.com")
	req.Header.Add("x-origin", "https://resy.com")
	req.Header.Add("cache-control", "no-cache")
	if method == http.MethodPost {
		req.Header.Add("content-type", "application/json")
	}
	req.Header.Add("authorization", fmt.Sprintf(`ResyAPI api_key="%s"`, c.creds.APIKey))
	req.Header.Add("x-resy-auth-token", c.creds.AuthToken)
	req.Header.Add("x-resy-universal-auth", c.creds.AuthToken)

	if query != nil {
		q := req.URL.Query()
		for k, v := range query {
			q.Add(k, v)
		}
		req.URL.RawQuery = q.Encode()
	}

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

func timePart(start string) string {
	pieces := strings.Split(start, " ")
	if len(pieces) < 2 {
		return ""
	}
	return pieces[1]
}
