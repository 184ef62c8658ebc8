package signing

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the ISO-8601 UTC layout written to the X-TIMESTAMP header.
const TimestampLayout = "2006-01-02T15:04:05Z"

// FormatTimestamp formats t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses an ISO-8601 timestamp as sent in the X-TIMESTAMP header.
// Fractional seconds and explicit offsets are accepted; the result is in UTC.
func ParseTimestamp(value string) (time.Time, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	if normalized == "" {
		return time.Time{}, fmt.Errorf("%w: missing timestamp", ErrValidation)
	}

	ts, err := time.Parse(time.RFC3339, normalized)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid timestamp %q: %w", ErrValidation, value, err)
	}
	return ts.UTC(), nil
}
