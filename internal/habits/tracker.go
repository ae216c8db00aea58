package habits

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/julianstephens/coinlit/internal/clock"
	"github.com/julianstephens/coinlit/internal/constants"
	"github.com/julianstephens/coinlit/internal/errs"
	"github.com/julianstephens/coinlit/internal/helpers"
	"github.com/julianstephens/coinlit/internal/logger"
	"github.com/julianstephens/coinlit/internal/models"
	"github.com/julianstephens/coinlit/internal/permission"
	"github.com/julianstephens/coinlit/internal/recurrence"
	"github.com/julianstephens/coinlit/internal/state"
)

// ErrAlreadyComplete is returned when the current period already met its target.
var ErrAlreadyComplete = errors.New("already completed for this period")

// Tracker applies completion and management actions to the habits document
// and records the matching ledger entries.
type Tracker struct {
	store *state.Store
	guard *permission.Guard
	clock clock.Clock
}

func NewTracker(store *state.Store, guard *permission.Guard, clk clock.Clock) *Tracker {
	return &Tracker{store: store, guard: guard, clock: clk}
}

// Options returns the recurrence options from the current settings.
func (t *Tracker) Options() recurrence.Options {
	return t.store.Settings().RecurrenceOptions()
}

// Today returns the current local date.
func (t *Tracker) Today() civil.Date {
	return clock.Today(t.clock, t.Options().Timezone)
}

// Get returns the habit with id.
func (t *Tracker) Get(id string) (models.Habit, error) {
	h, _, ok := t.store.Habits().Find(id)
	if !ok {
		return models.Habit{}, errs.NewNotFoundError(fmt.Sprintf("habit %s not found", id))
	}
	return h, nil
}

// Resolve finds a habit by id, id prefix, or case-insensitive name.
func (t *Tracker) Resolve(ref string) (models.Habit, error) {
	all := t.store.Habits().Habits
	for _, h := range all {
		if h.ID == ref {
			return h, nil
		}
	}
	var matches []models.Habit
	for _, h := range all {
		if strings.EqualFold(h.Name, ref) || (len(ref) >= 4 && strings.HasPrefix(h.ID, ref)) {
			matches = append(matches, h)
		}
	}
	switch len(matches) {
	case 0:
		names := make([]string, 0, len(all))
		for _, h := range all {
			names = append(names, h.Name)
		}
		return models.Habit{}, errs.NewNotFoundError(helpers.NotFoundMessage("habit", ref, names))
	case 1:
		return matches[0], nil
	default:
		return models.Habit{}, errs.NewValidationError(fmt.Sprintf("%q matches %d habits, use the id", ref, len(matches)))
	}
}

// List returns habits (tasks=false) or tasks visible to userID.
func (t *Tracker) List(userID string, tasks, includeArchived bool) []models.Habit {
	var out []models.Habit
	for _, h := range t.store.Habits().Habits {
		if h.IsTask != tasks || !h.VisibleTo(userID) {
			continue
		}
		if h.Archived && !includeArchived {
			continue
		}
		out = append(out, h)
	}
	return out
}

// Due returns the sorted due list for date.
func (t *Tracker) Due(date civil.Date, userID string) []Entry {
	entries := DueOn(t.store.Habits().Habits, date, t.Options(), userID)
	SortForDisplay(entries)
	return entries
}

// Streak returns the streak of habit id as of today.
func (t *Tracker) Streak(id string) (int, error) {
	h, err := t.Get(id)
	if err != nil {
		return 0, err
	}
	return Streak(h, t.Today(), t.Options()), nil
}

func withHabit(d models.HabitsData, idx int, h models.Habit) models.HabitsData {
	next := slices.Clone(d.Habits)
	next[idx] = h
	return models.HabitsData{Habits: next}
}

func (t *Tracker) appendTransaction(ctx context.Context, tx models.CoinTransaction) error {
	_, err := t.store.UpdateCoins(ctx, func(c models.CoinsData) (models.CoinsData, error) {
		txs := make([]models.CoinTransaction, 0, len(c.Transactions)+1)
		txs = append(txs, c.Transactions...)
		txs = append(txs, tx)
		return models.CoinsData{Balance: c.Balance, Transactions: txs}, nil
	})
	return err
}

// Complete records a completion now and credits the reward. The habit is
// written first, then the ledger.
func (t *Tracker) Complete(ctx context.Context, actor *models.User, habitID string) (models.Habit, models.CoinTransaction, error) {
	if err := t.guard.Require(actor, constants.ResourceHabit, constants.ActionInteract); err != nil {
		return models.Habit{}, models.CoinTransaction{}, err
	}

	now := t.clock.Now()
	opts := t.Options()
	today := clock.LocalDateOf(now, opts.Timezone)

	var updated models.Habit
	var tx models.CoinTransaction
	_, err := t.store.UpdateHabits(ctx, func(d models.HabitsData) (models.HabitsData, error) {
		h, idx, ok := d.Find(habitID)
		if !ok {
			return d, errs.NewNotFoundError(fmt.Sprintf("habit %s not found", habitID))
		}
		if h.Archived {
			return d, errs.NewValidationError(fmt.Sprintf("%s %q is archived", h.Kind(), h.Name))
		}
		if CompletionsInPeriod(h, today, opts) >= h.Target() {
			return d, fmt.Errorf("%s %q: %w", h.Kind(), h.Name, ErrAlreadyComplete)
		}
		updated, tx = Complete(h, now, userID(actor))
		return withHabit(d, idx, updated), nil
	})
	if err != nil {
		return models.Habit{}, models.CoinTransaction{}, err
	}

	if err := t.appendTransaction(ctx, tx); err != nil {
		return updated, tx, fmt.Errorf("completion saved but reward was not recorded: %w", err)
	}

	logger.FromContext(ctx).Debug("Completed", "habit", updated.Name, "reward", tx.Amount)
	return updated, tx, nil
}

// Undo removes the latest completion in the current period and debits the
// reward. It returns a nil transaction when there is nothing to undo.
func (t *Tracker) Undo(ctx context.Context, actor *models.User, habitID string) (models.Habit, *models.CoinTransaction, error) {
	if err := t.guard.Require(actor, constants.ResourceHabit, constants.ActionInteract); err != nil {
		return models.Habit{}, nil, err
	}

	now := t.clock.Now()
	opts := t.Options()

	var updated models.Habit
	var tx *models.CoinTransaction
	_, err := t.store.UpdateHabits(ctx, func(d models.HabitsData) (models.HabitsData, error) {
		h, idx, ok := d.Find(habitID)
		if !ok {
			return d, errs.NewNotFoundError(fmt.Sprintf("habit %s not found", habitID))
		}
		updated, tx = UndoComplete(h, now, opts, userID(actor))
		if tx == nil {
			return d, nil
		}
		return withHabit(d, idx, updated), nil
	})
	if err != nil || tx == nil {
		return updated, nil, err
	}

	if err := t.appendTransaction(ctx, *tx); err != nil {
		return updated, tx, fmt.Errorf("undo saved but reversal was not recorded: %w", err)
	}
	return updated, tx, nil
}

func userID(actor *models.User) string {
	if actor == nil {
		return ""
	}
	return actor.ID
}

func validate(h models.Habit) error {
	if strings.TrimSpace(h.Name) == "" {
		return errs.NewValidationError("name is required")
	}
	if h.CoinReward < 0 {
		return errs.NewValidationError("coin reward must not be negative")
	}
	if h.TargetCompletions != nil && *h.TargetCompletions < 1 {
		return errs.NewValidationError("target completions must be at least 1")
	}
	if !h.Frequency.Valid() {
		return errs.NewValidationError(fmt.Sprintf("invalid frequency: %v", h.Frequency.Err))
	}
	return nil
}

// Add creates a habit or task.
func (t *Tracker) Add(ctx context.Context, actor *models.User, h models.Habit) (models.Habit, error) {
	if err := t.guard.Require(actor, constants.ResourceHabit, constants.ActionWrite); err != nil {
		return models.Habit{}, err
	}
	if err := validate(h); err != nil {
		return models.Habit{}, err
	}

	h = h.Clone()
	h.Name = strings.TrimSpace(h.Name)
	if h.ID == "" {
		h.ID = models.NewHabit(h.Name, h.Frequency, h.CoinReward).ID
	}

	_, err := t.store.UpdateHabits(ctx, func(d models.HabitsData) (models.HabitsData, error) {
		if _, _, exists := d.Find(h.ID); exists {
			return d, errs.NewValidationError(fmt.Sprintf("habit %s already exists", h.ID))
		}
		next := make([]models.Habit, 0, len(d.Habits)+1)
		next = append(next, d.Habits...)
		next = append(next, h)
		return models.HabitsData{Habits: next}, nil
	})
	if err != nil {
		return models.Habit{}, err
	}
	return h, nil
}

// Update replaces the editable fields of an existing habit. Completion
// history is never taken from the input.
func (t *Tracker) Update(ctx context.Context, actor *models.User, h models.Habit) (models.Habit, error) {
	if err := t.guard.Require(actor, constants.ResourceHabit, constants.ActionWrite); err != nil {
		return models.Habit{}, err
	}
	if err := validate(h); err != nil {
		return models.Habit{}, err
	}
	return t.modify(ctx, h.ID, func(cur models.Habit) models.Habit {
		next := h.Clone()
		next.Completions = cur.Clone().Completions
		return next
	})
}

func (t *Tracker) modify(ctx context.Context, id string, fn func(models.Habit) models.Habit) (models.Habit, error) {
	var updated models.Habit
	_, err := t.store.UpdateHabits(ctx, func(d models.HabitsData) (models.HabitsData, error) {
		h, idx, ok := d.Find(id)
		if !ok {
			return d, errs.NewNotFoundError(fmt.Sprintf("habit %s not found", id))
		}
		updated = fn(h.Clone())
		return withHabit(d, idx, updated), nil
	})
	if err != nil {
		return models.Habit{}, err
	}
	return updated, nil
}

// SetArchived archives (soft-deletes) or restores a habit.
func (t *Tracker) SetArchived(ctx context.Context, actor *models.User, id string, archived bool) (models.Habit, error) {
	if err := t.guard.Require(actor, constants.ResourceHabit, constants.ActionWrite); err != nil {
		return models.Habit{}, err
	}
	return t.modify(ctx, id, func(h models.Habit) models.Habit {
		h.Archived = archived
		if archived {
			h.Pinned = false
		}
		return h
	})
}

// SetPinned pins or unpins a habit.
func (t *Tracker) SetPinned(ctx context.Context, actor *models.User, id string, pinned bool) (models.Habit, error) {
	if err := t.guard.Require(actor, constants.ResourceHabit, constants.ActionWrite); err != nil {
		return models.Habit{}, err
	}
	return t.modify(ctx, id, func(h models.Habit) models.Habit {
		h.Pinned = pinned
		return h
	})
}

// Delete removes a habit permanently. Its ledger entries are kept.
func (t *Tracker) Delete(ctx context.Context, actor *models.User, id string) error {
	if err := t.guard.Require(actor, constants.ResourceHabit, constants.ActionWrite); err != nil {
		return err
	}
	_, err := t.store.UpdateHabits(ctx, func(d models.HabitsData) (models.HabitsData, error) {
		_, idx, ok := d.Find(id)
		if !ok {
			return d, errs.NewNotFoundError(fmt.Sprintf("habit %s not found", id))
		}
		return models.HabitsData{Habits: slices.Delete(slices.Clone(d.Habits), idx, idx+1)}, nil
	})
	return err
}
