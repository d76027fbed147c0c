package domain

import (
	"encoding/json"
	"strings"
	"time"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp keeps the backend's textual timestamp. SQLite rows come without an
// offset, so interpretation is deferred until a location is known.
type Timestamp struct {
	Raw string
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Raw: t.Format(time.RFC3339Nano)}
}

// In parses the timestamp; values without an offset are read as wall time in loc.
func (t Timestamp) In(loc *time.Location) (time.Time, bool) {
	raw := strings.TrimSpace(t.Raw)
	if raw == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	if parsed, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return parsed.In(loc), true
	}
	for _, layout := range timestampLayouts[1:] {
		if parsed, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// DatePart returns the YYYY-MM-DD prefix of the raw value, or "-".
func (t Timestamp) DatePart() string {
	raw := strings.TrimSpace(t.Raw)
	if raw == "" {
		return "-"
	}
	if idx := strings.IndexAny(raw, "T "); idx > 0 {
		return raw[:idx]
	}
	return raw
}

func (t Timestamp) IsZero() bool {
	return strings.TrimSpace(t.Raw) == ""
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Raw)
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		t.Raw = ""
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.Raw = raw
	return nil
}

// Flag decodes both JSON booleans and SQLite-style 0/1 integers.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	switch strings.TrimSpace(string(data)) {
	case "true", "1", `"1"`, `"true"`:
		*f = true
	default:
		*f = false
	}
	return nil
}

func (f Flag) MarshalJSON() ([]byte, error) {
	return json.Marshal(bool(f))
}
