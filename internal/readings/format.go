package readings

import (
	"fmt"
	"time"
)

// backend timestamps come with or without a zone
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02T15:04:05",
}

// ParseTime parses a backend timestamp. Zoneless timestamps are UTC.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// FormatTimestamp renders t as "02/01/2006 - 15:04" in loc
func FormatTimestamp(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format("02/01/2006 - 15:04")
}

// FormatBackendTime parses and formats a backend timestamp, returning s unchanged when it can't be parsed
func FormatBackendTime(s string, loc *time.Location) string {
	t, err := ParseTime(s)
	if err != nil {
		return s
	}
	return FormatTimestamp(t, loc)
}
