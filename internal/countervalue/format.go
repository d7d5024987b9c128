package countervalue

import "time"

const (
	dayLayout  = "2006-01-02"
	hourLayout = "2006-01-02T15"

	day = 24 * time.Hour
)

// FormatDay returns the day key of t. Keys are always computed in UTC.
func FormatDay(t time.Time) string { return t.UTC().Format(dayLayout) }

// FormatHour returns the hour key of t. A day key is a prefix of all the hour
// keys of that day.
func FormatHour(t time.Time) string { return t.UTC().Format(hourLayout) }

// Format returns the key of t at the granularity's precision.
func (g Granularity) Format(t time.Time) string {
	if g == Hourly {
		return FormatHour(t)
	}
	return FormatDay(t)
}

// parseDayPrefix parses the day part of a day or hour key.
func parseDayPrefix(key string) (time.Time, bool) {
	if len(key) < len(dayLayout) {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(dayLayout, key[:len(dayLayout)], time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
