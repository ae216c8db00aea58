package habits

import (
	"cloud.google.com/go/civil"

	"github.com/julianstephens/coinlit/internal/models"
	"github.com/julianstephens/coinlit/internal/recurrence"
)

// Streak counts consecutive fully elapsed periods before the one containing
// today that met the target. Periods with no scheduled occurrence and no
// completions are skipped. The walk stops at the first failing period or
// once it passes the first completion.
func Streak(h models.Habit, today civil.Date, opts recurrence.Options) int {
	dates := completionDates(h, opts.Timezone)
	if len(dates) == 0 {
		return 0
	}
	first := dates[0]
	for _, d := range dates[1:] {
		if d.Before(first) {
			first = d
		}
	}

	target := h.Target()
	streak := 0
	for period := CurrentPeriod(h, today, opts).Prev(opts.WeekStart); first.Before(period.End); period = period.Prev(opts.WeekStart) {
		count := countIn(dates, period)
		switch {
		case count >= target:
			streak++
		case count == 0 && !recurrence.HasOccurrence(h.Frequency, period, opts):
			// nothing scheduled, nothing done
		default:
			return streak
		}
	}
	return streak
}

func countIn(dates []civil.Date, p recurrence.Period) int {
	n := 0
	for _, d := range dates {
		if p.Contains(d) {
			n++
		}
	}
	return n
}
