// Package platform classifies restaurants into booking-capability variants
// and builds deep links for the platforms without a booking API.
package platform

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/adamSellers/oakley-bookings/internal/domain/booking"
)

// ResyDirectory resolves a restaurant against the Resy venue directory.
type ResyDirectory interface {
	FindVenue(ctx context.Context, name string, lat, lng float64) (venueID string, err error)
}

type Signal struct {
	Name    string
	Lat     float64
	Lng     float64
	Website string
}

type Detection struct {
	Platform   booking.Platform
	PlatformID string
}

type Detector struct {
	resy ResyDirectory // nil when resy credentials are absent
}

func NewDetector(resy ResyDirectory) *Detector {
	return &Detector{resy: resy}
}

// Classify resolves a restaurant to a platform variant. Policy is
// precision-over-recall: any ambiguous or unmatched signal (including a failed
// Resy lookup) resolves to phone_only, never to an automated variant.
func (d *Detector) Classify(ctx context.Context, sig Signal) Detection {
	if d.resy != nil && sig.Name != "" {
		venueID, err := d.resy.FindVenue(ctx, sig.Name, sig.Lat, sig.Lng)
		if err == nil && venueID != "" {
			return Detection{Platform: booking.PlatformResy, PlatformID: venueID}
		}
	}

	if sig.Website != "" {
		lower := strings.ToLower(sig.Website)
		if strings.Contains(lower, "opentable") {
			if rid := extractOpenTableRID(sig.Website); rid != "" {
				return Detection{Platform: booking.PlatformOpenTable, PlatformID: rid}
			}
		}
		if strings.Contains(lower, "quandoo") {
			if slug := extractQuandooSlug(sig.Website); slug != "" {
				return Detection{Platform: booking.PlatformQuandoo, PlatformID: slug}
			}
		}
	}

	return Detection{Platform: booking.PlatformPhoneOnly}
}

var (
	openTableRID  = regexp.MustCompile(`rid[=:](\d+)`)
	openTablePath = regexp.MustCompile(`opentable\.com(?:\.\w+)?/r/([\w-]+)`)
	quandooPath   = regexp.MustCompile(`quandoo\.com(?:\.\w+)?/place/([\w-]+)`)
)

func extractOpenTableRID(url string) string {
	if m := openTableRID.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	if m := openTablePath.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	return ""
}

func extractQuandooSlug(url string) string {
	if m := quandooPath.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	return ""
}

// DeepLink builds a pre-filled booking URL for the deep-link platforms.
// Returns "" for resy (API-booked) and phone_only.
func DeepLink(p booking.Platform, platformID, date, timeStr string, partySize int) string {
	switch p {
	case booking.PlatformOpenTable:
		if platformID == "" {
			return ""
		}
		link := fmt.Sprintf("https://www.opentable.com.au/restref/client/?rid=%s&covers=%d", platformID, partySize)
		if date != "" && timeStr != "" {
			link += fmt.Sprintf("&datetime=%sT%s", date, timeStr)
		}
		return link
	case booking.PlatformQuandoo:
		if platformID == "" {
			return ""
		}
		link := fmt.Sprintf("https://www.quandoo.com.au/place/%s", platformID)
		params := make([]string, 0, 3)
		if date != "" {
			params = append(params, "date="+date)
		}
		if timeStr != "" {
			params = append(params, "time="+timeStr)
		}
		if partySize > 0 {
			params = append(params, fmt.Sprintf("guests=%d", partySize))
		}
		if len(params) > 0 {
			link += "?" + strings.Join(params, "&")
		}
		return link
	default:
		return ""
	}
}
