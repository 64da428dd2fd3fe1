package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar date format accepted from forms.
const DateLayout = "2006-01-02"

// storageLayout is fixed width so that stored text sorts chronologically.
const storageLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Timestamp is a point in time normalized from any of the shapes a stored
// or submitted date may take. The zero Timestamp means the source value was
// missing or could not be parsed.
type Timestamp struct {
	t time.Time
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t: t}
}

// Time returns the wrapped time. It is the zero time for an invalid Timestamp.
func (ts Timestamp) Time() time.Time {
	return ts.t
}

// IsZero reports whether the timestamp is missing or invalid.
func (ts Timestamp) IsZero() bool {
	return ts.t.IsZero()
}

// Equal reports whether both timestamps denote the same instant.
func (ts Timestamp) Equal(other Timestamp) bool {
	return ts.t.Equal(other.t)
}

// String formats the timestamp as RFC 3339.
func (ts Timestamp) String() string {
	if ts.t.IsZero() {
		return ""
	}
	return ts.t.Format(time.RFC3339Nano)
}

// ParseTimestamp parses a date string. Calendar dates without a time of day
// are interpreted as local midnight.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}, fmt.Errorf("empty date")
	}
	if t, err := time.ParseInLocation(DateLayout, s, time.Local); err == nil {
		return Timestamp{t: t}, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return Timestamp{t: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognized date %q", s)
}

// TimestampFromValue normalizes a raw date value. It understands time values,
// date strings, epoch milliseconds and {seconds, nanoseconds} objects as
// written by document stores. Anything else yields the zero Timestamp.
func TimestampFromValue(v any) Timestamp {
	switch val := v.(type) {
	case nil:
		return Timestamp{}
	case Timestamp:
		return val
	case time.Time:
		return Timestamp{t: val}
	case *time.Time:
		if val == nil {
			return Timestamp{}
		}
		return Timestamp{t: *val}
	case string:
		ts, err := ParseTimestamp(val)
		if err != nil {
			return Timestamp{}
		}
		return ts
	case []byte:
		return TimestampFromValue(string(val))
	case int64:
		return Timestamp{t: time.UnixMilli(val)}
	case int:
		return Timestamp{t: time.UnixMilli(int64(val))}
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return Timestamp{}
		}
		return Timestamp{t: time.UnixMilli(int64(val))}
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return Timestamp{t: time.UnixMilli(n)}
		}
		return Timestamp{}
	case map[string]any:
		return timestampFromObject(val)
	default:
		return Timestamp{}
	}
}

func timestampFromObject(m map[string]any) Timestamp {
	secs, ok := numberField(m, "seconds", "_seconds")
	if !ok {
		return Timestamp{}
	}
	nanos, _ := numberField(m, "nanoseconds", "_nanoseconds")
	return Timestamp{t: time.Unix(secs, nanos)}
}

func numberField(m map[string]any, keys ...string) (int64, bool) {
	for _, k := range keys {
		switch n := m[k].(type) {
		case float64:
			return int64(n), true
		case int64:
			return n, true
		case int:
			return int64(n), true
		case json.Number:
			if i, err := n.Int64(); err == nil {
				return i, true
			}
		case string:
			if i, err := strconv.ParseInt(n, 10, 64); err == nil {
				return i, true
			}
		}
	}
	return 0, false
}

// MarshalJSON encodes the timestamp as an RFC 3339 string, or null when zero.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.t.Format(time.RFC3339Nano))
}

// UnmarshalJSON accepts every shape TimestampFromValue does. Unparseable
// values decode to the zero Timestamp rather than failing the whole document.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*ts = TimestampFromValue(raw)
	return nil
}

// Value implements driver.Valuer.
func (ts Timestamp) Value() (driver.Value, error) {
	if ts.t.IsZero() {
		return nil, nil
	}
	return ts.t.UTC().Format(storageLayout), nil
}

// Scan implements sql.Scanner.
func (ts *Timestamp) Scan(src any) error {
	*ts = TimestampFromValue(src)
	return nil
}
