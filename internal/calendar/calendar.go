// Package calendar pushes confirmed bookings to a calendar webhook.
// Delivery is fire-and-forget: a failure is logged and never rolls back the
// booking that triggered it.
package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/adamSellers/oakley-bookings/internal/domain/booking"
)

type Client struct {
	hc         *http.Client
	webhookURL string
	log        zerolog.Logger
}

func New(webhookURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		hc:         &http.Client{Timeout: timeout},
		webhookURL: webhookURL,
		log:        log,
	}
}

type event struct {
	Title     string `json:"title"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Location  string `json:"location"`
	BookingID string `json:"booking_id"`
}

// PushBooking posts an event for a confirmed booking. Best effort only.
func (c *Client) PushBooking(ctx context.Context, b booking.Booking) {
	if c.webhookURL == "" {
		return
	}
	body, _ := json.Marshal(event{
		Title:     "Dinner: " + b.RestaurantName,
		Date:      b.Date,
		Time:      b.Time,
		Location:  b.RestaurantAddr,
		BookingID: b.ID,
	})

	// one automatic retry on transport failure, then give up quietly
	res, err := c.post(ctx, body)
	if err != nil && ctx.Err() == nil {
		res, err = c.post(ctx, body)
	}
	if err != nil {
		c.log.Warn().Err(err).Str("booking_id", b.ID).Msg("calendar push failed")
		return
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		c.log.Warn().Int("status", res.StatusCode).Str("booking_id", b.ID).Msg("calendar push rejected")
	}
}

func (c *Client) post(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("content-type", "application/json")
	return c.hc.Do(req)
}
