package scalar

import (
	"time"

	"xmlrpc-binder/internal/diagnostic"
)

// ISO8601 is the compact dateTime.iso8601 layout used on the wire.
const ISO8601 = "20060102T15:04:05"

var timeLayouts = []string{
	time.RFC3339Nano,
	ISO8601,
	"2006-01-02T15:04:05",
	"20060102T15:04:05Z07:00",
	"20060102T150405",
}

// ParseTime accepts RFC 3339 and the dateTime.iso8601 forms. Values without
// a zone are read as UTC.
func ParseTime(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}

		if firstErr == nil {
			firstErr = err
		}
	}

	return time.Time{}, diagnostic.Errorf(diagnostic.CodeConversion, "time.Time", "",
		"cannot parse %q as a date", s).Wrap(firstErr)
}

// FormatISO8601 renders t in the dateTime.iso8601 wire form, in UTC.
func FormatISO8601(t time.Time) string {
	return t.UTC().Format(ISO8601)
}
