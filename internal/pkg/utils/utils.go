package utils

import (
	"fmt"
	"time"
)

// FormatMinutes converts minutes to a display duration string.
// Example: 125 -> "2h 5m"
func FormatMinutes(durationInMinutes int) string {
	h := durationInMinutes / 60
	m := durationInMinutes % 60

	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}

	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}

	return fmt.Sprintf("%dh %dm", h, m)
}

// FormatDepartureTime renders a timestamp the way result cards show it.
// Example: "Thu, 20 Nov 06:00"
func FormatDepartureTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format("Mon, 02 Jan 15:04")
}

// FormatClock renders the time-of-day only.
func FormatClock(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format("15:04")
}
