package subscription

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind identifies how an expiry value was stored.
type Kind string

// Kind constants
const (
	KindUnset       Kind = ""
	KindInstant     Kind = "instant"
	KindEpochMillis Kind = "epoch_millis"
	KindISOString   Kind = "iso_string"
)

// DateLayout is the coach-facing date format for setting an expiry.
const DateLayout = "2006-01-02"

// ErrInvalidDate is returned when an expiry date cannot be parsed.
var ErrInvalidDate = errors.New("expiry date must be formatted as YYYY-MM-DD")

// Expiry is a subscription expiry in one of its accepted representations.
// The set of implementations is closed: Instant, EpochMillis, ISOString and Unset.
type Expiry interface {
	// Resolve converts the value to an instant. ok is false when the value is
	// absent or cannot be interpreted.
	Resolve() (at time.Time, ok bool)
	// Encode returns the storage form of the value.
	Encode() (Kind, string)
	isExpiry()
}

// Instant is an expiry stored as a point in time.
type Instant struct {
	At time.Time
}

// EpochMillis is an expiry stored as milliseconds since the Unix epoch.
type EpochMillis struct {
	Millis int64
}

// ISOString is an expiry stored as an ISO 8601 string.
type ISOString struct {
	Value string
}

// Unset is the absence of an expiry.
type Unset struct{}

// Resolve implements Expiry.
func (i Instant) Resolve() (time.Time, bool) {
	if i.At.IsZero() {
		return time.Time{}, false
	}
	return i.At, true
}

// Encode implements Expiry.
func (i Instant) Encode() (Kind, string) {
	if i.At.IsZero() {
		return KindUnset, ""
	}
	return KindInstant, i.At.UTC().Format(time.RFC3339Nano)
}

func (Instant) isExpiry() {}

// Resolve implements Expiry. Zero millis reads as absent.
func (e EpochMillis) Resolve() (time.Time, bool) {
	if e.Millis == 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(e.Millis), true
}

// Encode implements Expiry.
func (e EpochMillis) Encode() (Kind, string) {
	return KindEpochMillis, strconv.FormatInt(e.Millis, 10)
}

func (EpochMillis) isExpiry() {}

// isoLayouts are tried in order. Date-only values are read as UTC midnight,
// date-times without an offset as local time.
var isoLayouts = []struct {
	layout string
	local  bool
}{
	{time.RFC3339Nano, false},
	{"2006-01-02T15:04:05.999999999", true},
	{"2006-01-02T15:04", true},
	{DateLayout, false},
}

// Resolve implements Expiry.
func (s ISOString) Resolve() (time.Time, bool) {
	v := strings.TrimSpace(s.Value)
	if v == "" {
		return time.Time{}, false
	}
	for _, l := range isoLayouts {
		var t time.Time
		var err error
		if l.local {
			t, err = time.ParseInLocation(l.layout, v, time.Local)
		} else {
			t, err = time.Parse(l.layout, v)
		}
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Encode implements Expiry.
func (s ISOString) Encode() (Kind, string) {
	return KindISOString, s.Value
}

func (ISOString) isExpiry() {}

// Resolve implements Expiry.
func (Unset) Resolve() (time.Time, bool) {
	return time.Time{}, false
}

// Encode implements Expiry.
func (Unset) Encode() (Kind, string) {
	return KindUnset, ""
}

func (Unset) isExpiry() {}

// Decode rebuilds an Expiry from its storage form. Values that fail to decode
// are kept as ISOString so they still resolve fail-open.
func Decode(kind Kind, raw string) Expiry {
	switch kind {
	case KindInstant:
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return ISOString{Value: raw}
		}
		return Instant{At: t}
	case KindEpochMillis:
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return ISOString{Value: raw}
		}
		return EpochMillis{Millis: ms}
	case KindISOString:
		return ISOString{Value: raw}
	default:
		return Unset{}
	}
}

// IsExpired reports whether the subscription ended strictly before now.
// Absent or unreadable values are never expired.
// PRE: none
// POST: returns true iff raw resolves to an instant before now
func IsExpired(raw Expiry, now time.Time) bool {
	if raw == nil {
		return false
	}
	at, ok := raw.Resolve()
	if !ok {
		return false
	}
	return at.Before(now)
}

// FromDate builds an Instant at midnight of the given YYYY-MM-DD date in loc.
// PRE: loc is non-nil
// POST: returns an Instant or ErrInvalidDate
func FromDate(date string, loc *time.Location) (Instant, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(date), loc)
	if err != nil {
		return Instant{}, ErrInvalidDate
	}
	return Instant{At: t}, nil
}

// Status is the evaluated subscription state shown to coaches and athletes.
type Status struct {
	ExpiresAt *time.Time `json:"expiresAt"`
	Expired   bool       `json:"expired"`
	DaysLeft  int        `json:"daysLeft"`
	Label     string     `json:"label"`
}

// Evaluate summarises raw at now.
// INVARIANT: Expired always equals IsExpired(raw, now)
func Evaluate(raw Expiry, now time.Time) Status {
	var st Status
	if raw == nil {
		return st
	}
	at, ok := raw.Resolve()
	if !ok {
		return st
	}
	st.ExpiresAt = &at
	st.Expired = IsExpired(raw, now)
	if st.Expired {
		st.Label = "expired"
		return st
	}
	st.DaysLeft = int(math.Ceil(at.Sub(now).Hours() / 24))
	switch {
	case st.DaysLeft <= 0:
		st.Label = "expires today"
	case st.DaysLeft == 1:
		st.Label = "1 day left"
	default:
		st.Label = strconv.Itoa(st.DaysLeft) + " days left"
	}
	return st
}
