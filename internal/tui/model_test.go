package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/coinlit/internal/clock"
	"github.com/julianstephens/coinlit/internal/habits"
	"github.com/julianstephens/coinlit/internal/helpers"
	"github.com/julianstephens/coinlit/internal/ledger"
	"github.com/julianstephens/coinlit/internal/models"
	"github.com/julianstephens/coinlit/internal/permission"
	"github.com/julianstephens/coinlit/internal/recurrence"
	"github.com/julianstephens/coinlit/internal/state"
	"github.com/julianstephens/coinlit/internal/storage"
	"github.com/julianstephens/coinlit/internal/tui/components/duelist"
	"github.com/julianstephens/coinlit/internal/tui/components/wishes"
	"github.com/julianstephens/coinlit/internal/wishlist"
)

func setupModel(t *testing.T) (Model, Services) {
	t.Helper()
	ctx := helpers.TestCtx()
	store := state.New(storage.NewMemoryStore())
	require.NoError(t, store.Reload(ctx))

	guard := permission.NewGuard()
	clk := clock.Fixed{At: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)}
	svc := Services{
		Store:    store,
		Habits:   habits.NewTracker(store, guard, clk),
		Ledger:   ledger.NewService(store, guard, clk, 0),
		Wishlist: wishlist.NewCoordinator(store, guard, clk),
	}
	t.Cleanup(svc.Ledger.Close)

	admin := store.ActiveUser()
	_, err := svc.Habits.Add(ctx, admin, models.NewHabit("Stretch", recurrence.Parse("daily"), 5))
	require.NoError(t, err)
	_, err = svc.Wishlist.Add(ctx, admin, models.NewWishlistItem("Coffee", 5))
	require.NoError(t, err)

	m := NewModel(ctx, svc)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model), svc
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// send delivers msg and feeds every resulting command back into the model.
func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	for cmd != nil {
		out := cmd()
		if out == nil {
			break
		}
		next, cmd = m.Update(out)
		m = next.(Model)
	}
	return m
}

func TestCompleteAndUndoFromDueList(t *testing.T) {
	m, svc := setupModel(t)
	uid := svc.Store.ActiveUser().ID

	m = send(t, m, runes("c"))
	assert.Equal(t, 5, svc.Ledger.Balance(uid))
	assert.False(t, m.statusErr)
	assert.Contains(t, m.status, "Completed Stretch")

	e, ok := m.dueList.Selected()
	require.True(t, ok)
	assert.Equal(t, habits.DueComplete, e.State)

	m = send(t, m, runes("c"))
	assert.Equal(t, "Already done for this period", m.status)
	assert.Equal(t, 5, svc.Ledger.Balance(uid))

	m = send(t, m, runes("u"))
	assert.Equal(t, 0, svc.Ledger.Balance(uid))
	assert.Contains(t, m.status, "Undid Stretch")
}

func TestTabsCycle(t *testing.T) {
	m, _ := setupModel(t)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, StateWishlist, m.state)
	m = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, StateLedger, m.state)
	m = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, StateToday, m.state)
	m = send(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, StateLedger, m.state)
}

func TestRedeemNeedsConfirmation(t *testing.T) {
	m, svc := setupModel(t)
	uid := svc.Store.ActiveUser().ID

	m = send(t, m, runes("c"))
	m = send(t, m, tea.KeyMsg{Type: tea.KeyTab})

	m = send(t, m, runes("r"))
	require.Equal(t, StateConfirmRedeem, m.state)
	assert.Contains(t, m.View(), "Redeem Coffee for 5 coins?")

	m = send(t, m, runes("n"))
	assert.Equal(t, StateWishlist, m.state)
	assert.Equal(t, 5, svc.Ledger.Balance(uid))

	m = send(t, m, runes("r"))
	m = send(t, m, runes("y"))
	assert.Equal(t, StateWishlist, m.state)
	assert.Equal(t, 0, svc.Ledger.Balance(uid))
	assert.Equal(t, "Redeemed Coffee", m.status)
}

func TestRedeemInsufficientBalanceShowsError(t *testing.T) {
	m, svc := setupModel(t)

	m = send(t, m, wishes.RedeemMsg{ID: svc.Wishlist.List("", false)[0].ID, Name: "Coffee", Cost: 5})
	m = send(t, m, runes("y"))

	assert.True(t, m.statusErr)
	assert.Contains(t, m.status, "5 more needed")
}

func TestCompleteMissingHabitShowsError(t *testing.T) {
	m, _ := setupModel(t)

	m = send(t, m, duelist.CompleteMsg{ID: "missing"})
	assert.True(t, m.statusErr)
}

func TestQuit(t *testing.T) {
	m, _ := setupModel(t)

	next, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Empty(t, next.(Model).View())
}
