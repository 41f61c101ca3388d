// Package jsontime provides time types with deterministic JSON
// encodings for API payloads: Unix seconds for timestamps (pass expiry,
// record ages) and duration strings for elapsed times.
package jsontime

import (
	"encoding/json"
	"time"
)

// Unix is a time.Time that serializes to/from Unix seconds in JSON.
type Unix time.Time

// Time returns the underlying time.Time value.
func (u Unix) Time() time.Time {
	return time.Time(u)
}

// Before reports whether u is before t.
func (u Unix) Before(t Unix) bool {
	return time.Time(u).Before(time.Time(t))
}

// After reports whether u is after t.
func (u Unix) After(t Unix) bool {
	return time.Time(u).After(time.Time(t))
}

// IsZero reports whether u represents the zero time instant.
func (u Unix) IsZero() bool {
	return time.Time(u).IsZero()
}

// MarshalJSON implements json.Marshaler.
func (u Unix) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(u).Unix())
}

// UnmarshalJSON implements json.Unmarshaler.
func (u *Unix) UnmarshalJSON(b []byte) error {
	var sec int64
	if err := json.Unmarshal(b, &sec); err != nil {
		return err
	}
	*u = Unix(time.Unix(sec, 0))
	return nil
}

// String returns the time formatted as a string.
func (u Unix) String() string {
	return time.Time(u).String()
}

// Duration is a time.Duration that serializes to a duration string
// (e.g. "1h30m0s") and parses either that form or int64 nanoseconds.
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	if len(b) >= 2 && b[0] == '"' && b[len(b)-1] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		dur, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(dur)
		return nil
	}
	var ns int64
	if err := json.Unmarshal(b, &ns); err != nil {
		return err
	}
	*d = Duration(time.Duration(ns))
	return nil
}

// Duration returns the underlying time.Duration value. Returns 0 if d
// is nil.
func (d *Duration) Duration() time.Duration {
	if d == nil {
		return 0
	}
	return time.Duration(*d)
}

// String returns the duration formatted as a string.
func (d Duration) String() string {
	return time.Duration(d).String()
}
