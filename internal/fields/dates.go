package fields

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/nexconsult/pncp-vagas/internal/models"
)

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// DateMillis converts a date value to Unix milliseconds. It accepts 8-digit
// YYYYMMDD strings, ISO strings and time.Time values. Anything else yields 0.
func DateMillis(v interface{}) int64 {
	t, ok := ParseDate(v)
	if !ok {
		return 0
	}
	return t.UnixMilli()
}

// ParseDate is DateMillis returning the parsed time.
func ParseDate(v interface{}) (time.Time, bool) {
	switch d := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return d, !d.IsZero()
	case *time.Time:
		if d == nil || d.IsZero() {
			return time.Time{}, false
		}
		return *d, true
	case json.Number:
		return parseDateString(d.String())
	case float64:
		return parseDateString(strconv.FormatFloat(d, 'f', -1, 64))
	case int:
		return parseDateString(strconv.Itoa(d))
	case int64:
		return parseDateString(strconv.FormatInt(d, 10))
	case string:
		return parseDateString(d)
	}
	return time.Time{}, false
}

func parseDateString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if len(s) == 8 && isDigits(s) {
		t, err := time.ParseInLocation("20060102", s, time.Local)
		return t, err == nil
	}
	for _, layout := range isoLayouts {
		loc := time.Local
		if layout == time.RFC3339Nano {
			loc = time.UTC
		}
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Date resolves a date field to a time. The boolean is false when the field
// is absent or unparseable.
func Date(rec models.Record, f Field) (time.Time, bool) {
	return ParseDate(Value(rec, f))
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
