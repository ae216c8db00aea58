package recurrence

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/julianstephens/coinlit/internal/clock"
	"github.com/julianstephens/coinlit/internal/logger"
)

// maxLookback bounds day-by-day scans of fixed frequencies. Every fixed
// keyword schedules at least once per leap year.
const maxLookback = 366

// Options carries the settings that due-ness depends on.
type Options struct {
	Timezone  string
	WeekStart time.Weekday
}

// IsDue reports whether f schedules an occurrence on date. Invalid
// frequencies are never due.
func IsDue(f Frequency, date civil.Date, opts Options) bool {
	switch f.Kind {
	case KindFixed:
		return fixedIsDue(f, date, opts.WeekStart)
	case KindOnce:
		return f.onceDate(opts.Timezone) == date
	case KindCustom:
		loc := clock.Location(opts.Timezone)
		r, err := f.compile(loc)
		if err != nil {
			logger.Warn("Failed to compile recurrence rule", "frequency", f.Raw, "error", err)
			return false
		}
		occ := r.Before(date.AddDays(1).In(loc), false)
		if occ.IsZero() {
			return false
		}
		return civil.DateOf(occ.In(loc)) == date
	default:
		return false
	}
}

// Previous returns the most recent scheduled date strictly before date.
func Previous(f Frequency, date civil.Date, opts Options) (civil.Date, bool) {
	switch f.Kind {
	case KindFixed:
		for i := 1; i <= maxLookback; i++ {
			d := date.AddDays(-i)
			if fixedIsDue(f, d, opts.WeekStart) {
				return d, true
			}
		}
		return civil.Date{}, false
	case KindOnce:
		d := f.onceDate(opts.Timezone)
		return d, d.Before(date)
	case KindCustom:
		loc := clock.Location(opts.Timezone)
		r, err := f.compile(loc)
		if err != nil {
			return civil.Date{}, false
		}
		occ := r.Before(date.In(loc), false)
		if occ.IsZero() {
			return civil.Date{}, false
		}
		return civil.DateOf(occ.In(loc)), true
	default:
		return civil.Date{}, false
	}
}

// HasOccurrence reports whether f schedules anything within p.
func HasOccurrence(f Frequency, p Period, opts Options) bool {
	switch f.Kind {
	case KindFixed:
		for d := p.Start; d.Before(p.End); d = d.AddDays(1) {
			if fixedIsDue(f, d, opts.WeekStart) {
				return true
			}
		}
		return false
	case KindOnce:
		return p.Contains(f.onceDate(opts.Timezone))
	case KindCustom:
		loc := clock.Location(opts.Timezone)
		r, err := f.compile(loc)
		if err != nil {
			return false
		}
		occ := r.After(p.Start.In(loc), true)
		return !occ.IsZero() && occ.Before(p.End.In(loc))
	default:
		return false
	}
}

// fixedIsDue applies the keyword rules: daily every date, weekly on one
// weekday, monthly on one day clamped to the month length, yearly on one
// month and day (Feb 29 clamps to Feb 28 outside leap years).
func fixedIsDue(f Frequency, date civil.Date, weekStart time.Weekday) bool {
	switch f.Bucket {
	case Daily:
		return true
	case Weekly:
		want := weekStart
		if f.Weekday != nil {
			want = *f.Weekday
		}
		return clock.Weekday(date) == want
	case Monthly:
		return date.Day == clampDay(date.Year, date.Month, anchorDay(f.MonthDay))
	case Yearly:
		month := f.Month
		if month == 0 {
			month = time.January
		}
		if date.Month != month {
			return false
		}
		return date.Day == clampDay(date.Year, month, anchorDay(f.MonthDay))
	default:
		return false
	}
}

func anchorDay(day int) int {
	if day < 1 {
		return 1
	}
	return day
}

func clampDay(year int, month time.Month, day int) int {
	if last := clock.DaysIn(year, month); day > last {
		return last
	}
	return day
}

func (f Frequency) onceDate(timezone string) civil.Date {
	if f.OnceInstant != nil {
		return clock.LocalDateOf(*f.OnceInstant, timezone)
	}
	return f.OnceDate
}

// Describe formats a frequency into a human-readable string
func Describe(f Frequency) string {
	switch f.Kind {
	case KindFixed:
		switch {
		case f.Bucket == Weekly && f.Weekday != nil:
			return fmt.Sprintf("weekly on %s", f.Weekday.String()[:3])
		case f.Bucket == Monthly && f.MonthDay > 0:
			return fmt.Sprintf("monthly on day %d", f.MonthDay)
		case f.Bucket == Yearly && f.MonthDay > 0:
			return fmt.Sprintf("yearly on %s %d", f.Month.String()[:3], f.MonthDay)
		}
		return string(f.Bucket)
	case KindCustom:
		return "rule: " + strings.TrimPrefix(strings.TrimSpace(f.Raw), "RRULE:")
	case KindOnce:
		if f.OnceInstant != nil {
			return "once at " + clock.FormatInstant(*f.OnceInstant)
		}
		return "once on " + f.OnceDate.String()
	default:
		return "invalid"
	}
}
