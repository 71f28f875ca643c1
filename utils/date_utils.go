package utils

import "time"

// dateFormats are the timestamp layouts accepted from clients, most
// specific first.
var dateFormats = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate parses a date string, trying multiple common formats.
func ParseDate(dateStr string) (time.Time, error) {
	var lastErr error
	for _, format := range dateFormats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, lastErr
}
