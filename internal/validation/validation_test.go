package validation

import (
	"testing"
	"time"

	"github.com/julianstephens/coinlit/internal/constants"
	"github.com/julianstephens/coinlit/internal/models"
	"github.com/julianstephens/coinlit/internal/recurrence"
)

var now = time.Date(2026, time.October, 17, 9, 0, 0, 0, time.UTC)

func issueTypes(r Result) map[IssueType]int {
	out := make(map[IssueType]int)
	for _, i := range r.Issues {
		out[i.Type]++
	}
	return out
}

func TestValidate_CleanData(t *testing.T) {
	h := models.NewHabit("Read", recurrence.Parse("daily"), 5)
	h.Completions = []string{"2026-10-17T08:00:00.000Z"}
	item := models.NewWishlistItem("Movie", 30)
	tx := models.NewTransaction(5, constants.TxHabitCompletion, "", h.ID, "", now)

	result := New().Validate(Snapshot{
		Habits:   models.HabitsData{Habits: []models.Habit{h}},
		Wishlist: models.WishlistData{Items: []models.WishlistItem{item}},
		Coins:    models.CoinsData{Balance: 5, Transactions: []models.CoinTransaction{tx}},
		Users:    models.DefaultUserData(),
	})

	if len(result.Issues) != 0 {
		t.Errorf("expected no issues, got: %s", result.FormatReport())
	}
	if result.FormatReport() != "No issues detected." {
		t.Errorf("unexpected report %q", result.FormatReport())
	}
}

func TestValidate_HabitProblems(t *testing.T) {
	a := models.NewHabit("Read", recurrence.Parse("daily"), 1)
	b := models.NewHabit("read", recurrence.Parse("fortnightly"), 1)
	b.Completions = []string{"sometime"}
	dup := a

	result := New().Validate(Snapshot{
		Habits: models.HabitsData{Habits: []models.Habit{a, b, dup}},
		Users:  models.DefaultUserData(),
	})

	got := issueTypes(result)
	if got[IssueDuplicateID] != 1 {
		t.Errorf("expected 1 duplicate id, got %d", got[IssueDuplicateID])
	}
	if got[IssueDuplicateName] != 1 {
		t.Errorf("expected 1 duplicate name, got %d", got[IssueDuplicateName])
	}
	if got[IssueInvalidFrequency] != 1 {
		t.Errorf("expected 1 invalid frequency, got %d", got[IssueInvalidFrequency])
	}
	if got[IssueInvalidTimestamp] != 1 {
		t.Errorf("expected 1 invalid timestamp, got %d", got[IssueInvalidTimestamp])
	}
	if !result.HasErrors() {
		t.Error("expected errors")
	}
}

func TestValidate_ArchivedNamesMayRepeat(t *testing.T) {
	a := models.NewHabit("Read", recurrence.Parse("daily"), 1)
	b := models.NewHabit("Read", recurrence.Parse("daily"), 1)
	b.Archived = true

	result := New().Validate(Snapshot{Habits: models.HabitsData{Habits: []models.Habit{a, b}}})
	if issueTypes(result)[IssueDuplicateName] != 0 {
		t.Errorf("archived habit should not count as duplicate: %s", result.FormatReport())
	}
}

func TestValidate_LedgerProblems(t *testing.T) {
	ok := models.NewTransaction(10, constants.TxManualAdjustment, "", "", "", now)
	orphan := models.NewTransaction(-5, constants.TxWishRedemption, "", "deleted-item", "", now)
	broken := models.CoinTransaction{ID: "broken", Amount: 1, Timestamp: "yesterday"}

	result := New().Validate(Snapshot{
		Coins: models.CoinsData{Balance: 100, Transactions: []models.CoinTransaction{ok, orphan, broken, ok}},
	})

	got := issueTypes(result)
	want := map[IssueType]int{
		IssueDuplicateID:       1,
		IssueDanglingReference: 1,
		IssueInvalidTimestamp:  1,
		IssueBalanceMismatch:   1,
	}
	for typ, n := range want {
		if got[typ] != n {
			t.Errorf("%s: expected %d, got %d", typ, n, got[typ])
		}
	}
}

func TestValidate_WishlistAndUsers(t *testing.T) {
	zero := 0
	item := models.NewWishlistItem("Game", 10)
	item.TargetCompletions = &zero
	item.UserIDs = []string{"ghost"}

	h := models.NewHabit("Walk", recurrence.Parse("daily"), 1)
	h.UserIDs = []string{"ghost"}

	result := New().Validate(Snapshot{
		Habits:   models.HabitsData{Habits: []models.Habit{h}},
		Wishlist: models.WishlistData{Items: []models.WishlistItem{item}},
		Users:    models.DefaultUserData(),
	})

	got := issueTypes(result)
	if got[IssueInvalidRedemptions] != 1 {
		t.Errorf("expected redemption limit issue, got %v", got)
	}
	if got[IssueUnknownUser] != 2 {
		t.Errorf("expected 2 unknown user issues, got %v", got)
	}
	if result.HasErrors() {
		t.Errorf("only warnings expected: %s", result.FormatReport())
	}
}
