package hotmart

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// epochMillisThreshold separates second-epochs from millisecond-epochs. The
// provider is inconsistent about units, so any number below 1e12 is treated
// as seconds and scaled up.
const epochMillisThreshold = 1e12

// Timestamp decodes the provider's heterogeneous date encodings: epoch
// seconds, epoch milliseconds, calendar strings, or null. Anything
// unparsable collapses to a nil instant rather than a decode error.
type Timestamp struct {
	t *time.Time
}

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	ts.t = NormalizeDate(b)
	return nil
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.t == nil {
		return []byte("null"), nil
	}
	return json.Marshal(ts.t)
}

// Time returns the canonical instant, or nil when absent/unparsable.
func (ts Timestamp) Time() *time.Time {
	return ts.t
}

// NormalizeDate converts a raw JSON value into a canonical UTC instant.
// Numbers below 1e12 are epoch seconds, at or above are epoch milliseconds.
// Strings are parsed against the calendar layouts the provider has been seen
// sending. null, absent, or unparsable input yields nil.
func NormalizeDate(raw json.RawMessage) *time.Time {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, jsonNull) {
		return nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		return parseDateString(s)
	}

	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	ms := v
	if v < epochMillisThreshold {
		ms = v * 1000
	}
	t := time.UnixMilli(int64(ms)).UTC()
	return &t
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseDateString(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			u := t.UTC()
			return &u
		}
	}
	return nil
}

// NextCycleEstimate returns one calendar month after base, preserving
// time-of-day. Day-of-month overflow rolls into the following month
// (Jan 31 -> Mar 2/3), which is the accepted fallback behavior when the
// provider omits a next-charge date.
func NextCycleEstimate(base time.Time) time.Time {
	return base.UTC().AddDate(0, 1, 0)
}
