// Package clock produces the timestamps stored on attendance records.
//
// Every clock-in and clock-out is taken from a Clock so that records written
// by different hosts share one zone, whatever the host's local setting is.
package clock

import (
	"log/slog"
	"time"
)

// DefaultZone is the zone attendance is recorded in.
const DefaultZone = "Asia/Tokyo"

// jst is used when the tz database is missing from the host.
var jst = time.FixedZone("JST", 9*60*60)

// Clock returns the current time in a fixed location.
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

type zoneClock struct {
	loc *time.Location
	now func() time.Time
}

// New returns a Clock for the named zone. Unknown names fall back to
// Asia/Tokyo, and a missing tz database falls back to a fixed +09:00 offset.
func New(zone string) Clock {
	return &zoneClock{loc: LoadLocation(zone), now: time.Now}
}

// NewFixed returns a Clock that always reports t, converted to zone. Used in tests.
func NewFixed(t time.Time, zone string) Clock {
	loc := LoadLocation(zone)
	return &zoneClock{loc: loc, now: func() time.Time { return t }}
}

func (c *zoneClock) Now() time.Time {
	return c.now().In(c.loc)
}

func (c *zoneClock) Location() *time.Location {
	return c.loc
}

// LoadLocation resolves zone, falling back as described on New.
func LoadLocation(zone string) *time.Location {
	if zone == "" {
		zone = DefaultZone
	}
	loc, err := time.LoadLocation(zone)
	if err == nil {
		return loc
	}
	slog.Warn("Unknown timezone, falling back", "zone", zone, "error", err)
	if zone != DefaultZone {
		if loc, err = time.LoadLocation(DefaultZone); err == nil {
			return loc
		}
	}
	return jst
}

// Today truncates t to midnight in its own location.
func Today(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
