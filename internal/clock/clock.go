// Package clock converts between stored UTC instants and calendar dates in a
// user's configured timezone. Every "same day" decision in coinlit goes
// through here; nothing compares instants against UTC midnight.
package clock

import (
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/civil"

	"github.com/julianstephens/coinlit/internal/constants"
	"github.com/julianstephens/coinlit/internal/logger"
)

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// System is the wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fixed always reports the same instant. Used by tests and by commands that
// take an explicit --at flag.
type Fixed struct {
	At time.Time
}

func (f Fixed) Now() time.Time { return f.At }

var locations sync.Map // tz name -> *time.Location

// Location resolves an IANA timezone name. "Local" maps to the host zone, an
// empty name maps to UTC, and an unknown name falls back to UTC so that due
// date computation stays total.
func Location(timezone string) *time.Location {
	switch timezone {
	case "", "UTC":
		return time.UTC
	case "Local":
		return time.Local
	}
	if loc, ok := locations.Load(timezone); ok {
		return loc.(*time.Location)
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		logger.Warn("Invalid timezone, falling back to UTC", "timezone", timezone, "error", err)
		loc = time.UTC
	}
	locations.Store(timezone, loc)
	return loc
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	if timezone == "" || timezone == "Local" {
		return true
	}
	_, err := time.LoadLocation(timezone)
	return err == nil
}

// LocalDateOf returns the calendar date of instant as seen in timezone.
func LocalDateOf(instant time.Time, timezone string) civil.Date {
	return civil.DateOf(instant.In(Location(timezone)))
}

// Today returns the current calendar date in timezone.
func Today(c Clock, timezone string) civil.Date {
	return LocalDateOf(c.Now(), timezone)
}

// ToInstant returns the UTC instant of local midnight on d in timezone.
func ToInstant(d civil.Date, timezone string) time.Time {
	return d.In(Location(timezone)).UTC()
}

// DateTimeToInstant returns the UTC instant of a local wall-clock time.
func DateTimeToInstant(dt civil.DateTime, timezone string) time.Time {
	return dt.In(Location(timezone)).UTC()
}

// SameDay reports whether a and b fall on the same local calendar date.
func SameDay(a, b time.Time, timezone string) bool {
	return LocalDateOf(a, timezone) == LocalDateOf(b, timezone)
}

// ParseInstant parses a stored timestamp. Any RFC3339 offset is accepted;
// the result is normalized to UTC.
func ParseInstant(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid instant %q: %w", s, err)
	}
	return t.UTC(), nil
}

// FormatInstant renders t in the stored UTC form, e.g. 2026-10-17T08:30:00.000Z.
func FormatInstant(t time.Time) string {
	return t.UTC().Format(constants.InstantFormat)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (civil.Date, error) {
	d, err := civil.ParseDate(s)
	if err != nil {
		return civil.Date{}, fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", s)
	}
	return d, nil
}

// Weekday returns the day of the week of d.
func Weekday(d civil.Date) time.Weekday {
	return d.In(time.UTC).Weekday()
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DefaultAnchorIn returns local midnight of the default recurrence anchor in loc.
func DefaultAnchorIn(loc *time.Location) time.Time {
	a := constants.DefaultRuleAnchor
	return time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, loc)
}
