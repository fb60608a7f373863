package internal

import (
	"fmt"
	"time"
)

const (
	// DisplayTimeFormat is used for expiry columns.
	DisplayTimeFormat = "2006-01-02 15:04:05"
	// LogTimeFormat is the console log timestamp.
	LogTimeFormat = "15:04:05"
)

// FormatExpiry renders t in the local zone.
func FormatExpiry(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(DisplayTimeFormat)
}

// Remaining renders the time left until t, or "expired".
func Remaining(t time.Time, now time.Time) string {
	d := t.Sub(now)
	if d <= 0 {
		return "expired"
	}
	d = d.Round(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
