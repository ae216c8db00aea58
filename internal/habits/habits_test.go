package habits

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/coinlit/internal/clock"
	"github.com/julianstephens/coinlit/internal/constants"
	"github.com/julianstephens/coinlit/internal/models"
	"github.com/julianstephens/coinlit/internal/recurrence"
)

var utcMonday = recurrence.Options{Timezone: "UTC", WeekStart: time.Monday}

func date(s string) civil.Date {
	d, err := civil.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func habit(freq string, reward int, completions ...string) models.Habit {
	h := models.NewHabit("Test", recurrence.Parse(freq), reward)
	h.Completions = append(h.Completions, completions...)
	return h
}

func TestCompletionsUseLocalDates(t *testing.T) {
	// 23:30 UTC on the 16th is already the 17th in Tokyo
	h := habit("daily", 1, "2026-10-16T23:30:00.000Z")

	assert.Equal(t, 1, CompletionsOnDate(h, date("2026-10-16"), "UTC"))
	assert.Equal(t, 0, CompletionsOnDate(h, date("2026-10-17"), "UTC"))
	assert.Equal(t, 1, CompletionsOnDate(h, date("2026-10-17"), "Asia/Tokyo"))
}

func TestMalformedCompletionsAreSkipped(t *testing.T) {
	h := habit("daily", 1, "yesterday-ish", "2026-10-17T08:00:00.000Z")
	assert.Equal(t, 1, CompletionsOnDate(h, date("2026-10-17"), "UTC"))
}

func TestCompletionsInWeeklyPeriod(t *testing.T) {
	h := habit("weekly", 1,
		"2026-10-11T12:00:00.000Z", // Sunday, previous week
		"2026-10-13T12:00:00.000Z",
		"2026-10-18T12:00:00.000Z",
	)

	assert.Equal(t, 2, CompletionsInPeriod(h, date("2026-10-15"), utcMonday))

	sundayStart := recurrence.Options{Timezone: "UTC", WeekStart: time.Sunday}
	assert.Equal(t, 2, CompletionsInPeriod(h, date("2026-10-15"), sundayStart))
	assert.Equal(t, 1, CompletionsInPeriod(h, date("2026-10-18"), sundayStart))
}

func TestCompleteAppendsAndCredits(t *testing.T) {
	h := habit("daily", 5)
	now := at("2026-10-17T09:15:00Z")

	next, tx := Complete(h, now, "u1")

	assert.Empty(t, h.Completions, "input must not change")
	require.Len(t, next.Completions, 1)
	assert.Equal(t, "2026-10-17T09:15:00.000Z", next.Completions[0])
	assert.Equal(t, 5, tx.Amount)
	assert.Equal(t, constants.TxHabitCompletion, tx.Type)
	assert.Equal(t, h.ID, tx.RelatedItemID)
	assert.Equal(t, "u1", tx.UserID)
	assert.Equal(t, "Completed habit: Test", tx.Description)

	task := habit("daily", 3)
	task.IsTask = true
	_, tx = Complete(task, now, "")
	assert.Equal(t, constants.TxTaskCompletion, tx.Type)
}

func TestUndoRemovesLatestInPeriod(t *testing.T) {
	h := habit("daily", 4,
		"2026-10-16T10:00:00.000Z",
		"2026-10-17T11:00:00.000Z",
		"2026-10-17T08:00:00.000Z",
	)

	next, tx := UndoComplete(h, at("2026-10-17T20:00:00Z"), utcMonday, "")
	require.NotNil(t, tx)
	assert.Equal(t, -4, tx.Amount)
	assert.Equal(t, constants.TxHabitUndo, tx.Type)
	assert.True(t, tx.IsUndo())
	assert.Equal(t, []string{"2026-10-16T10:00:00.000Z", "2026-10-17T08:00:00.000Z"}, next.Completions)
}

func TestUndoWithNothingInPeriod(t *testing.T) {
	h := habit("daily", 4, "2026-10-16T10:00:00.000Z")

	next, tx := UndoComplete(h, at("2026-10-17T20:00:00Z"), utcMonday, "")
	assert.Nil(t, tx)
	assert.Equal(t, h.Completions, next.Completions)
}

func TestUndoIsLeftInverse(t *testing.T) {
	h := habit("weekly", 7, "2026-10-12T10:00:00.000Z")
	now := at("2026-10-14T10:00:00Z")

	done, credit := Complete(h, now, "")
	undone, debit := UndoComplete(done, now, utcMonday, "")
	require.NotNil(t, debit)

	assert.Equal(t, h.Completions, undone.Completions)
	assert.Zero(t, credit.Amount+debit.Amount)
}

func TestEvaluateTargetMet(t *testing.T) {
	target := 2
	h := habit("daily", 5)
	h.TargetCompletions = &target
	today := date("2026-10-17")

	assert.Equal(t, DueIncomplete, Evaluate(h, today, utcMonday))

	h, _ = Complete(h, at("2026-10-17T08:00:00Z"), "")
	assert.Equal(t, DueIncomplete, Evaluate(h, today, utcMonday))

	h, _ = Complete(h, at("2026-10-17T18:00:00Z"), "")
	assert.Equal(t, DueComplete, Evaluate(h, today, utcMonday))
	assert.Equal(t, 2, CompletionsOnDate(h, today, "UTC"))
}

func TestEvaluateArchived(t *testing.T) {
	h := habit("daily", 1)
	h.Archived = true
	assert.Equal(t, Archived, Evaluate(h, date("2026-10-17"), utcMonday))
}

func TestEvaluateNotScheduled(t *testing.T) {
	h := habit("weekly:mon", 1)
	assert.Equal(t, NotDue, Evaluate(h, date("2026-10-14"), utcMonday))
	assert.Equal(t, DueIncomplete, Evaluate(h, date("2026-10-12"), utcMonday))
}

func TestEvaluateOverdueTask(t *testing.T) {
	task := habit("weekly:mon", 2)
	task.IsTask = true
	wednesday := date("2026-10-14")

	assert.Equal(t, Overdue, Evaluate(task, wednesday, utcMonday))

	// the plain habit on the same schedule is simply not due
	plain := habit("weekly:mon", 2)
	assert.Equal(t, NotDue, Evaluate(plain, wednesday, utcMonday))

	task, _ = Complete(task, at("2026-10-13T09:00:00Z"), "")
	assert.Equal(t, DueComplete, Evaluate(task, wednesday, utcMonday))
}

func TestEvaluateOverdueOnceTask(t *testing.T) {
	task := habit("2026-10-16", 2)
	task.IsTask = true

	assert.Equal(t, DueIncomplete, Evaluate(task, date("2026-10-16"), utcMonday))
	assert.Equal(t, Overdue, Evaluate(task, date("2026-10-17"), utcMonday))
	assert.Equal(t, NotDue, Evaluate(task, date("2026-10-15"), utcMonday))

	// completing late still clears it
	task, _ = Complete(task, at("2026-10-17T09:00:00Z"), "")
	assert.Equal(t, DueComplete, Evaluate(task, date("2026-10-17"), utcMonday))
}

func TestInvalidFrequencyNeverDue(t *testing.T) {
	h := habit("every other blue moon", 1)
	h.IsTask = true
	assert.Equal(t, NotDue, Evaluate(h, date("2026-10-17"), utcMonday))
}

func TestDueOnFiltersAndVisibility(t *testing.T) {
	today := date("2026-10-14") // Wednesday

	daily := habit("daily", 1)
	monday := habit("weekly:mon", 1)
	archived := habit("daily", 1)
	archived.Archived = true
	private := habit("daily", 1)
	private.UserIDs = []string{"someone-else"}
	weeklyDoneToday := habit("weekly:mon", 1, "2026-10-14T09:00:00.000Z")
	weeklyDoneEarlier := habit("weekly:mon", 1, "2026-10-12T09:00:00.000Z")

	all := []models.Habit{daily, monday, archived, private, weeklyDoneToday, weeklyDoneEarlier}
	entries := DueOn(all, today, utcMonday, "me")

	var ids []string
	for _, e := range entries {
		ids = append(ids, e.Habit.ID)
	}
	assert.ElementsMatch(t, []string{daily.ID, weeklyDoneToday.ID}, ids)

	assert.Len(t, DueOn(all, today, utcMonday, "someone-else"), 3)
}

func TestBadge(t *testing.T) {
	task := habit("daily", 1, "2026-10-17T08:00:00.000Z")
	task.IsTask = true
	openTask := habit("daily", 1, "2026-10-17T08:00:00.000Z")
	openTask.IsTask = true
	target := 2
	openTask.TargetCompletions = &target

	entries := DueOn([]models.Habit{task, openTask, habit("daily", 1)}, date("2026-10-17"), utcMonday, "")

	done, total := Badge(entries, true)
	assert.Equal(t, 1, done)
	assert.Equal(t, 2, total)

	done, total = Badge(entries, false)
	assert.Equal(t, 0, done)
	assert.Equal(t, 1, total)
}

func TestSortForDisplay(t *testing.T) {
	mk := func(name, freq string, reward int, pinned bool, state DueState) Entry {
		h := habit(freq, reward)
		h.Name = name
		h.Pinned = pinned
		return Entry{Habit: h, State: state}
	}

	entries := []Entry{
		mk("done", "daily", 50, false, DueComplete),
		mk("monthly", "monthly", 1, false, DueIncomplete),
		mk("cheap", "daily", 1, false, DueIncomplete),
		mk("rich", "daily", 9, false, DueIncomplete),
		mk("pinned-done", "yearly", 0, true, DueComplete),
	}
	SortForDisplay(entries)

	var names []string
	for _, e := range entries {
		names = append(names, e.Habit.Name)
	}
	assert.Equal(t, []string{"pinned-done", "rich", "cheap", "monthly", "done"}, names)
}

func TestCompletionCache(t *testing.T) {
	a := habit("daily", 1, "2026-10-17T08:00:00.000Z", "2026-10-17T09:00:00.000Z")
	b := habit("daily", 1, "2026-10-16T08:00:00.000Z")

	cache := BuildCompletionCache([]models.Habit{a, b}, "UTC")
	assert.Equal(t, 2, cache.Count(date("2026-10-17"), a.ID))
	assert.Equal(t, 0, cache.Count(date("2026-10-17"), b.ID))
	assert.Equal(t, 1, cache.Count(date("2026-10-16"), b.ID))
	assert.Equal(t, 0, cache.Count(date("2020-01-01"), "missing"))
}

func TestStreakDaily(t *testing.T) {
	h := habit("daily", 1,
		"2026-10-13T08:00:00.000Z",
		"2026-10-14T08:00:00.000Z",
		"2026-10-15T08:00:00.000Z",
		"2026-10-16T08:00:00.000Z",
	)

	assert.Equal(t, 4, Streak(h, date("2026-10-17"), utcMonday))
	// today's completion does not count until the day is over
	h, _ = Complete(h, at("2026-10-17T08:00:00Z"), "")
	assert.Equal(t, 4, Streak(h, date("2026-10-17"), utcMonday))
	assert.Equal(t, 5, Streak(h, date("2026-10-18"), utcMonday))
	// a missed day breaks it
	assert.Equal(t, 0, Streak(h, date("2026-10-19"), utcMonday))
}

func TestStreakSkipsUnscheduledPeriods(t *testing.T) {
	// a monthly rule on the 31st has no occurrence in 30-day months
	h := habit("FREQ=MONTHLY;BYMONTHDAY=31", 1,
		"2026-07-31T08:00:00.000Z",
		"2026-08-31T08:00:00.000Z",
	)
	assert.Equal(t, 2, Streak(h, date("2026-10-15"), utcMonday))
}

func TestStreakRespectsTarget(t *testing.T) {
	target := 2
	h := habit("daily", 1,
		"2026-10-15T08:00:00.000Z",
		"2026-10-15T09:00:00.000Z",
		"2026-10-16T08:00:00.000Z",
	)
	h.TargetCompletions = &target
	assert.Equal(t, 0, Streak(h, date("2026-10-17"), utcMonday))
	assert.Equal(t, 0, Streak(habit("daily", 1), date("2026-10-17"), utcMonday))
}

func TestStreakIsNonNegativeAndBounded(t *testing.T) {
	h := habit("daily", 1, "2026-10-01T08:00:00.000Z", "2026-10-02T08:00:00.000Z")
	today := date("2026-10-17")
	for i := 0; i < 30; i++ {
		d := today.AddDays(-i)
		s := Streak(h, d, utcMonday)
		assert.GreaterOrEqual(t, s, 0)
		assert.LessOrEqual(t, s, len(h.Completions))
	}
}

func TestCurrentPeriodFollowsTimezone(t *testing.T) {
	now := at("2026-10-18T23:30:00Z") // Monday morning in Tokyo
	tokyo := recurrence.Options{Timezone: "Asia/Tokyo", WeekStart: time.Monday}
	p := CurrentPeriod(habit("weekly", 1), clock.LocalDateOf(now, tokyo.Timezone), tokyo)
	assert.Equal(t, date("2026-10-19"), p.Start)
}
