package recurrence

import (
	"time"

	"cloud.google.com/go/civil"

	"github.com/julianstephens/coinlit/internal/clock"
)

// Bucket is the normalized frequency used for due periods and display order.
type Bucket string

const (
	Daily   Bucket = "daily"
	Weekly  Bucket = "weekly"
	Monthly Bucket = "monthly"
	Yearly  Bucket = "yearly"
)

// Buckets in display order.
var Buckets = []Bucket{Daily, Weekly, Monthly, Yearly}

// Rank orders buckets daily first. Unknown buckets sort last.
func (b Bucket) Rank() int {
	for i, candidate := range Buckets {
		if candidate == b {
			return i
		}
	}
	return len(Buckets)
}

func parseBucket(s string) (Bucket, bool) {
	switch Bucket(s) {
	case Daily, Weekly, Monthly, Yearly:
		return Bucket(s), true
	}
	return "", false
}

// Period is a half-open range of calendar dates [Start, End).
type Period struct {
	Bucket Bucket
	Start  civil.Date
	End    civil.Date
}

// PeriodOf returns the due period of bucket b that contains d. Weekly periods
// begin on weekStart.
func PeriodOf(b Bucket, d civil.Date, weekStart time.Weekday) Period {
	switch b {
	case Weekly:
		offset := (int(clock.Weekday(d)) - int(weekStart) + 7) % 7
		start := d.AddDays(-offset)
		return Period{Bucket: b, Start: start, End: start.AddDays(7)}
	case Monthly:
		start := civil.Date{Year: d.Year, Month: d.Month, Day: 1}
		return Period{Bucket: b, Start: start, End: civil.DateOf(start.In(time.UTC).AddDate(0, 1, 0))}
	case Yearly:
		start := civil.Date{Year: d.Year, Month: time.January, Day: 1}
		return Period{Bucket: b, Start: start, End: civil.Date{Year: d.Year + 1, Month: time.January, Day: 1}}
	default:
		return Period{Bucket: Daily, Start: d, End: d.AddDays(1)}
	}
}

// Contains reports whether d falls inside the period.
func (p Period) Contains(d civil.Date) bool {
	return !d.Before(p.Start) && d.Before(p.End)
}

// Prev returns the period immediately before p.
func (p Period) Prev(weekStart time.Weekday) Period {
	return PeriodOf(p.Bucket, p.Start.AddDays(-1), weekStart)
}

// Days returns the number of calendar days in the period.
func (p Period) Days() int {
	return p.End.DaysSince(p.Start)
}

// BucketOf returns the normalized bucket of f. Invalid frequencies report
// daily so they still sort deterministically.
func BucketOf(f Frequency) Bucket {
	if f.Bucket == "" {
		return Daily
	}
	return f.Bucket
}
