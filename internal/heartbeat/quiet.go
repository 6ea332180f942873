package heartbeat

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidQuiet indicates a malformed quiet-hours expression.
var ErrInvalidQuiet = errors.New("heartbeat: invalid quiet hours format")

// QuietHours defines a blackout window during which no heartbeats are sent.
// Format: "HH:MM-HH:MM" (24-hour). Supports midnight wrap (e.g., "23:00-07:00").
type QuietHours struct {
	Start time.Duration // offset from midnight
	End   time.Duration
}

// ParseQuietHours parses a "HH:MM-HH:MM" string into QuietHours.
func ParseQuietHours(s string) (QuietHours, error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return QuietHours{}, fmt.Errorf("%w: expected HH:MM-HH:MM, got %q", ErrInvalidQuiet, s)
	}

	start, err := parseTimeOffset(strings.TrimSpace(parts[0]))
	if err != nil {
		return QuietHours{}, fmt.Errorf("%w: start: %w", ErrInvalidQuiet, err)
	}
	end, err := parseTimeOffset(strings.TrimSpace(parts[1]))
	if err != nil {
		return QuietHours{}, fmt.Errorf("%w: end: %w", ErrInvalidQuiet, err)
	}
	return QuietHours{Start: start, End: end}, nil
}

// parseTimeOffset parses "HH:MM" into a Duration from midnight.
func parseTimeOffset(s string) (time.Duration, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}

	var h, m int
	if _, err := fmt.Sscanf(parts[0], "%d", &h); err != nil {
		return 0, fmt.Errorf("invalid hour: %q", parts[0])
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &m); err != nil {
		return 0, fmt.Errorf("invalid minute: %q", parts[1])
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("out of range: %02d:%02d", h, m)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

// IsQuiet reports whether t falls within the quiet window.
// The caller is responsible for converting t to the desired timezone.
func (q QuietHours) IsQuiet(t time.Time) bool {
	offset := time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second

	if q.Start <= q.End {
		return offset >= q.Start && offset < q.End
	}
	// Midnight wrap: e.g., 23:00-07:00
	return offset >= q.Start || offset < q.End
}
