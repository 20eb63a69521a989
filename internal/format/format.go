// Package format renders engine results for a messaging channel.
package format

import (
	"fmt"
	"math"
	"strings"

	"github.com/adamSellers/oakley-bookings/internal/domain/booking"
)

// MaxMessageLen matches the delivery channel's hard message cap.
const MaxMessageLen = 4096

func SectionHeader(title string) string {
	return "**" + title + "**\n"
}

// Rating renders like "4.5/5 (1234 reviews)", rounded to the nearest half.
func Rating(rating float64, reviewCount int) string {
	if rating <= 0 {
		return "No rating"
	}
	stars := math.Round(rating*2) / 2
	s := strings.TrimSuffix(fmt.Sprintf("%.1f", stars), ".0")
	if reviewCount > 0 {
		return fmt.Sprintf("%s/5 (%d reviews)", s, reviewCount)
	}
	return s + "/5"
}

func PriceTier(t booking.PriceTier) string {
	switch t {
	case booking.PriceLow:
		return "$"
	case booking.PriceMid:
		return "$$"
	case booking.PriceHigh:
		return "$$$"
	case booking.PriceLuxury:
		return "$$$$"
	default:
		return "Price N/A"
	}
}

func PlatformBadge(p booking.Platform) string {
	switch p {
	case booking.PlatformResy:
		return "RESY"
	case booking.PlatformOpenTable:
		return "OpenTable"
	case booking.PlatformQuandoo:
		return "Quandoo"
	default:
		return "Phone"
	}
}

// Truncate trims to the channel cap on a line boundary when possible.
func Truncate(text string) string {
	return truncateTo(text, MaxMessageLen)
}

func truncateTo(text string, max int) string {
	if len(text) <= max {
		return text
	}
	trimmed := text[:max-30]
	if i := strings.LastIndex(trimmed, "\n"); i > max/2 {
		trimmed = trimmed[:i]
	}
	return trimmed + "\n\n... (truncated)"
}
