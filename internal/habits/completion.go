package habits

import (
	"fmt"
	"slices"
	"time"

	"cloud.google.com/go/civil"

	"github.com/julianstephens/coinlit/internal/clock"
	"github.com/julianstephens/coinlit/internal/constants"
	"github.com/julianstephens/coinlit/internal/models"
	"github.com/julianstephens/coinlit/internal/recurrence"
)

// CurrentPeriod returns the due period of h containing date.
func CurrentPeriod(h models.Habit, date civil.Date, opts recurrence.Options) recurrence.Period {
	return recurrence.PeriodOf(recurrence.BucketOf(h.Frequency), date, opts.WeekStart)
}

// completionDates returns the local date of every parseable completion, in
// stored order. Malformed entries are skipped.
func completionDates(h models.Habit, timezone string) []civil.Date {
	dates := make([]civil.Date, 0, len(h.Completions))
	for _, c := range h.Completions {
		t, err := clock.ParseInstant(c)
		if err != nil {
			continue
		}
		dates = append(dates, clock.LocalDateOf(t, timezone))
	}
	return dates
}

// CompletionsBetween counts completions whose local date is in [from, to].
func CompletionsBetween(h models.Habit, from, to civil.Date, timezone string) int {
	n := 0
	for _, d := range completionDates(h, timezone) {
		if !d.Before(from) && !d.After(to) {
			n++
		}
	}
	return n
}

func completionsIn(h models.Habit, p recurrence.Period, timezone string) int {
	return countIn(completionDates(h, timezone), p)
}

// CompletionsInPeriod counts completions in the due period containing date.
func CompletionsInPeriod(h models.Habit, date civil.Date, opts recurrence.Options) int {
	return completionsIn(h, CurrentPeriod(h, date, opts), opts.Timezone)
}

// CompletionsOnDate counts completions on one local date.
func CompletionsOnDate(h models.Habit, date civil.Date, timezone string) int {
	return CompletionsBetween(h, date, date, timezone)
}

func completionType(h models.Habit) constants.TransactionType {
	if h.IsTask {
		return constants.TxTaskCompletion
	}
	return constants.TxHabitCompletion
}

func undoType(h models.Habit) constants.TransactionType {
	if h.IsTask {
		return constants.TxTaskUndo
	}
	return constants.TxHabitUndo
}

// Complete appends now to the completions of h and returns the reward
// transaction. h itself is not modified.
func Complete(h models.Habit, now time.Time, userID string) (models.Habit, models.CoinTransaction) {
	next := h.Clone()
	next.Completions = append(next.Completions, clock.FormatInstant(now))

	tx := models.NewTransaction(
		h.CoinReward,
		completionType(h),
		fmt.Sprintf("Completed %s: %s", h.Kind(), h.Name),
		h.ID,
		userID,
		now,
	)
	return next, tx
}

// UndoComplete removes the latest completion in the period containing now and
// returns the reversing transaction. With nothing to undo it returns h
// unchanged and a nil transaction.
func UndoComplete(h models.Habit, now time.Time, opts recurrence.Options, userID string) (models.Habit, *models.CoinTransaction) {
	period := CurrentPeriod(h, clock.LocalDateOf(now, opts.Timezone), opts)

	latest := -1
	var latestAt time.Time
	for i, c := range h.Completions {
		t, err := clock.ParseInstant(c)
		if err != nil || !period.Contains(clock.LocalDateOf(t, opts.Timezone)) {
			continue
		}
		if latest == -1 || !t.Before(latestAt) {
			latest, latestAt = i, t
		}
	}
	if latest == -1 {
		return h, nil
	}

	next := h.Clone()
	next.Completions = slices.Delete(next.Completions, latest, latest+1)

	tx := models.NewTransaction(
		-h.CoinReward,
		undoType(h),
		fmt.Sprintf("Undid %s completion: %s", h.Kind(), h.Name),
		h.ID,
		userID,
		now,
	)
	return next, &tx
}
