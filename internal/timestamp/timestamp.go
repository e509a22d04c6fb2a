// Package timestamp normalizes the date/time strings found in sensor
// exports and email bodies into UTC instants.
package timestamp

import (
	"fmt"
	"time"
)

// naiveLayouts are the accepted formats without a UTC offset, tried in
// order after RFC 3339. Values in these formats are reinterpreted as UTC;
// no timezone conversion is performed.
var naiveLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02/01/2006 15:04:05",
	"01/02/2006 15:04:05",
}

// Parse converts a timestamp string into a UTC instant. Formats are tried
// in a fixed order: RFC 3339 with offset first, then the naive layouts.
func Parse(value string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts.UTC(), nil
	}

	for _, layout := range naiveLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unsupported timestamp format: %q", value)
}
