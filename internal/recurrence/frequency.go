// Package recurrence decodes habit frequency strings into a tagged variant and
// answers "is this calendar date a scheduled occurrence".
package recurrence

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/teambition/rrule-go"

	"github.com/julianstephens/coinlit/internal/clock"
)

// Kind tags the Frequency variant.
type Kind int

const (
	KindInvalid Kind = iota
	KindFixed
	KindCustom
	KindOnce
)

func (k Kind) String() string {
	switch k {
	case KindFixed:
		return "fixed"
	case KindCustom:
		return "custom"
	case KindOnce:
		return "once"
	default:
		return "invalid"
	}
}

// Frequency is a decoded habit frequency. The zero value is Invalid.
//
// String forms:
//
//	daily | weekly | monthly | yearly           fixed keyword
//	weekly:fri | monthly:15 | yearly:03-14       fixed keyword with an anchor
//	FREQ=WEEKLY;BYDAY=MO,WE                      RFC 5545 rule (optional DTSTART line)
//	2026-10-16 | 2026-10-16T15:00:00Z            single occurrence
type Frequency struct {
	Kind   Kind
	Raw    string
	Bucket Bucket

	// Fixed anchors. Zero values mean "use the default": the configured week
	// start for weekly, the 1st for monthly, January 1st for yearly.
	Weekday  *time.Weekday
	MonthDay int
	Month    time.Month

	// Once
	OnceDate    civil.Date
	OnceInstant *time.Time

	// Err explains why the frequency is Invalid.
	Err error

	rule *compiledRule
}

type compiledRule struct {
	mu    sync.Mutex
	byLoc map[*time.Location]*rrule.RRule
}

// Parse decodes s. It never fails: unparseable input yields an Invalid
// frequency that keeps Raw so it round-trips through storage untouched.
func Parse(s string) Frequency {
	raw := s
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)

	if b, ok := parseBucket(lower); ok {
		return Frequency{Kind: KindFixed, Raw: raw, Bucket: b}
	}

	if keyword, anchor, ok := strings.Cut(lower, ":"); ok {
		if b, isBucket := parseBucket(keyword); isBucket {
			f, err := parseAnchor(b, anchor)
			if err != nil {
				return invalid(raw, err)
			}
			f.Raw = raw
			return f
		}
	}

	if strings.Contains(strings.ToUpper(s), "FREQ=") {
		opt, err := rrule.StrToROptionInLocation(s, time.UTC)
		if err != nil {
			return invalid(raw, fmt.Errorf("invalid recurrence rule: %w", err))
		}
		if _, err := rrule.NewRRule(*opt); err != nil {
			return invalid(raw, fmt.Errorf("invalid recurrence rule: %w", err))
		}
		// Occurrences are walked from DTSTART, so sub-daily rules cost
		// millions of steps per lookup.
		if opt.Freq > rrule.DAILY {
			return invalid(raw, fmt.Errorf("recurrence rules finer than daily are not supported: %v", opt.Freq))
		}
		return Frequency{
			Kind:   KindCustom,
			Raw:    raw,
			Bucket: bucketForRule(opt.Freq),
			rule:   &compiledRule{byLoc: make(map[*time.Location]*rrule.RRule)},
		}
	}

	if d, err := civil.ParseDate(s); err == nil {
		return Frequency{Kind: KindOnce, Raw: raw, Bucket: Daily, OnceDate: d}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return Frequency{Kind: KindOnce, Raw: raw, Bucket: Daily, OnceInstant: &t}
	}

	return invalid(raw, fmt.Errorf("unrecognized frequency %q", raw))
}

func invalid(raw string, err error) Frequency {
	return Frequency{Kind: KindInvalid, Raw: raw, Bucket: Daily, Err: err}
}

// Fixed returns an unanchored keyword frequency.
func Fixed(b Bucket) Frequency {
	return Parse(string(b))
}

// Valid reports whether f can ever be due.
func (f Frequency) Valid() bool { return f.Kind != KindInvalid }

func (f Frequency) String() string { return f.Raw }

// MarshalJSON writes the original string form.
func (f Frequency) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Raw)
}

// UnmarshalJSON decodes the string form once, at load time.
func (f *Frequency) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("frequency must be a string: %w", err)
	}
	*f = Parse(s)
	return nil
}

func parseAnchor(b Bucket, anchor string) (Frequency, error) {
	f := Frequency{Kind: KindFixed, Bucket: b}
	anchor = strings.TrimSpace(anchor)
	switch b {
	case Weekly:
		wd, err := ParseWeekday(anchor)
		if err != nil {
			return Frequency{}, err
		}
		f.Weekday = &wd
	case Monthly:
		day, err := strconv.Atoi(anchor)
		if err != nil || day < 1 || day > 31 {
			return Frequency{}, fmt.Errorf("invalid day of month: %s", anchor)
		}
		f.MonthDay = day
	case Yearly:
		// Parse against a leap year so 02-29 is accepted
		t, err := time.Parse("2006-01-02", "2028-"+anchor)
		if err != nil {
			return Frequency{}, fmt.Errorf("invalid yearly anchor %q (expected MM-DD)", anchor)
		}
		f.Month = t.Month()
		f.MonthDay = t.Day()
	default:
		return Frequency{}, fmt.Errorf("%s frequency takes no anchor", b)
	}
	return f, nil
}

var weekdayNames = map[string]time.Weekday{
	"sun":       time.Sunday,
	"sunday":    time.Sunday,
	"mon":       time.Monday,
	"monday":    time.Monday,
	"tue":       time.Tuesday,
	"tuesday":   time.Tuesday,
	"wed":       time.Wednesday,
	"wednesday": time.Wednesday,
	"thu":       time.Thursday,
	"thursday":  time.Thursday,
	"fri":       time.Friday,
	"friday":    time.Friday,
	"sat":       time.Saturday,
	"saturday":  time.Saturday,
}

// ParseWeekday accepts a weekday name, a three letter abbreviation, or a
// number (0=Sunday, 6=Saturday).
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if wd, ok := weekdayNames[s]; ok {
		return wd, nil
	}
	num, err := strconv.Atoi(s)
	if err == nil && num >= 0 && num <= 6 {
		return time.Weekday(num), nil
	}
	return 0, fmt.Errorf("invalid weekday: %s", s)
}

// compile builds the rrule for loc, caching per location. Floating DTSTART
// values are read in loc; rules without DTSTART are anchored at local
// midnight of the default anchor date.
func (f Frequency) compile(loc *time.Location) (*rrule.RRule, error) {
	if f.rule == nil {
		return nil, fmt.Errorf("frequency %q is not a rule", f.Raw)
	}
	f.rule.mu.Lock()
	defer f.rule.mu.Unlock()

	if r, ok := f.rule.byLoc[loc]; ok {
		return r, nil
	}
	opt, err := rrule.StrToROptionInLocation(strings.TrimSpace(f.Raw), loc)
	if err != nil {
		return nil, err
	}
	if opt.Dtstart.IsZero() {
		opt.Dtstart = clock.DefaultAnchorIn(loc)
	}
	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, err
	}
	f.rule.byLoc[loc] = r
	return r, nil
}

func bucketForRule(freq rrule.Frequency) Bucket {
	switch freq {
	case rrule.YEARLY:
		return Yearly
	case rrule.MONTHLY:
		return Monthly
	case rrule.WEEKLY:
		return Weekly
	default:
		return Daily
	}
}
