package habits

import (
	"cmp"
	"slices"

	"cloud.google.com/go/civil"

	"github.com/julianstephens/coinlit/internal/models"
	"github.com/julianstephens/coinlit/internal/recurrence"
)

// DueState classifies a habit on a date.
type DueState int

const (
	NotDue DueState = iota
	DueIncomplete
	DueComplete
	Overdue
	// Archived marks habits excluded from the four states above.
	Archived
)

func (s DueState) String() string {
	switch s {
	case DueIncomplete:
		return "due"
	case DueComplete:
		return "done"
	case Overdue:
		return "overdue"
	case Archived:
		return "archived"
	default:
		return "not due"
	}
}

// Evaluate returns the state of h on date. Checks run in order: archived,
// period target met, overdue (tasks only), scheduled on date.
func Evaluate(h models.Habit, date civil.Date, opts recurrence.Options) DueState {
	if h.Archived {
		return Archived
	}
	if CompletionsInPeriod(h, date, opts) >= h.Target() {
		return DueComplete
	}
	if h.IsTask && isOverdue(h, date, opts) {
		return Overdue
	}
	if recurrence.IsDue(h.Frequency, date, opts) {
		return DueIncomplete
	}
	return NotDue
}

// isOverdue reports whether the most recent scheduled date before date has
// no completions between the start of its period and date.
func isOverdue(h models.Habit, date civil.Date, opts recurrence.Options) bool {
	prev, ok := recurrence.Previous(h.Frequency, date, opts)
	if !ok {
		return false
	}
	start := CurrentPeriod(h, prev, opts).Start
	return CompletionsBetween(h, start, date, opts.Timezone) == 0
}

// Entry is a habit with its state on a particular date.
type Entry struct {
	Habit       models.Habit
	State       DueState
	Completions int // in the current period
}

// DueOn lists the habits and tasks visible to userID that are scheduled on
// date or overdue, unsorted.
func DueOn(all []models.Habit, date civil.Date, opts recurrence.Options, userID string) []Entry {
	var out []Entry
	for _, h := range all {
		if !h.VisibleTo(userID) {
			continue
		}
		state := Evaluate(h, date, opts)
		if state == Archived || state == NotDue {
			continue
		}
		if state == DueComplete && !recurrence.IsDue(h.Frequency, date, opts) && CompletionsOnDate(h, date, opts.Timezone) == 0 {
			continue
		}
		out = append(out, Entry{Habit: h, State: state, Completions: CompletionsInPeriod(h, date, opts)})
	}
	return out
}

// CompletedOn returns the visible habits with at least one completion on date.
func CompletedOn(all []models.Habit, date civil.Date, timezone, userID string) []models.Habit {
	var out []models.Habit
	for _, h := range all {
		if h.VisibleTo(userID) && CompletionsOnDate(h, date, timezone) > 0 {
			out = append(out, h)
		}
	}
	return out
}

// Badge returns completed and total counts of due tasks (tasks=true) or
// habits on date.
func Badge(entries []Entry, tasks bool) (completed, total int) {
	for _, e := range entries {
		if e.Habit.IsTask != tasks {
			continue
		}
		total++
		if e.State == DueComplete {
			completed++
		}
	}
	return completed, total
}

// CompletionCache maps a local date (YYYY-MM-DD) to habit id to count.
type CompletionCache map[string]map[string]int

// BuildCompletionCache indexes every completion by local date.
func BuildCompletionCache(all []models.Habit, timezone string) CompletionCache {
	cache := make(CompletionCache)
	for _, h := range all {
		for _, d := range completionDates(h, timezone) {
			key := d.String()
			if cache[key] == nil {
				cache[key] = make(map[string]int)
			}
			cache[key][h.ID]++
		}
	}
	return cache
}

// Count returns the completions of habitID on date.
func (c CompletionCache) Count(date civil.Date, habitID string) int {
	return c[date.String()][habitID]
}

// SortForDisplay orders entries: pinned first, incomplete before complete,
// daily through yearly, higher reward first, then higher target first.
func SortForDisplay(entries []Entry) {
	slices.SortStableFunc(entries, func(a, b Entry) int {
		if a.Habit.Pinned != b.Habit.Pinned {
			if a.Habit.Pinned {
				return -1
			}
			return 1
		}
		aDone, bDone := a.State == DueComplete, b.State == DueComplete
		if aDone != bDone {
			if aDone {
				return 1
			}
			return -1
		}
		if c := cmp.Compare(recurrence.BucketOf(a.Habit.Frequency).Rank(), recurrence.BucketOf(b.Habit.Frequency).Rank()); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Habit.CoinReward, a.Habit.CoinReward); c != 0 {
			return c
		}
		return cmp.Compare(b.Habit.Target(), a.Habit.Target())
	})
}
