package models

import (
	"slices"

	"github.com/google/uuid"

	"github.com/julianstephens/coinlit/internal/constants"
	"github.com/julianstephens/coinlit/internal/recurrence"
)

// Habit is a recurring trackable activity. Tasks are habits with IsTask set
// and are evaluated with overdue semantics.
type Habit struct {
	ID                string               `json:"id"`
	Name              string               `json:"name"`
	Description       string               `json:"description"`
	Frequency         recurrence.Frequency `json:"frequency"`
	CoinReward        int                  `json:"coinReward"`
	TargetCompletions *int                 `json:"targetCompletions,omitempty"`
	Completions       []string             `json:"completions"` // UTC instants
	IsTask            bool                 `json:"isTask,omitempty"`
	Archived          bool                 `json:"archived,omitempty"`
	Pinned            bool                 `json:"pinned,omitempty"`
	UserIDs           []string             `json:"userIds,omitempty"`
}

// NewHabit returns a habit with a fresh id and no completions.
func NewHabit(name string, frequency recurrence.Frequency, coinReward int) Habit {
	return Habit{
		ID:          uuid.New().String(),
		Name:        name,
		Frequency:   frequency,
		CoinReward:  coinReward,
		Completions: []string{},
	}
}

// Target returns the completions required per period.
func (h Habit) Target() int {
	if h.TargetCompletions == nil || *h.TargetCompletions < 1 {
		return constants.DefaultTargetCompletions
	}
	return *h.TargetCompletions
}

// Kind returns "task" or "habit".
func (h Habit) Kind() string {
	if h.IsTask {
		return "task"
	}
	return "habit"
}

// VisibleTo reports whether userID may see the habit. Habits without owners
// are shared.
func (h Habit) VisibleTo(userID string) bool {
	return len(h.UserIDs) == 0 || userID == "" || slices.Contains(h.UserIDs, userID)
}

// Clone returns a deep copy so callers can mutate without touching a snapshot.
func (h Habit) Clone() Habit {
	c := h
	c.Completions = slices.Clone(h.Completions)
	if c.Completions == nil {
		c.Completions = []string{}
	}
	c.UserIDs = slices.Clone(h.UserIDs)
	if h.TargetCompletions != nil {
		t := *h.TargetCompletions
		c.TargetCompletions = &t
	}
	return c
}

// HabitsData is the persisted habits document.
type HabitsData struct {
	Habits []Habit `json:"habits"`
}

// DefaultHabitsData returns an empty habits document.
func DefaultHabitsData() HabitsData {
	return HabitsData{Habits: []Habit{}}
}

// Find returns the habit with the given id.
func (d HabitsData) Find(id string) (Habit, int, bool) {
	for i, h := range d.Habits {
		if h.ID == id {
			return h, i, true
		}
	}
	return Habit{}, -1, false
}
