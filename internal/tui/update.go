package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/coinlit/internal/habits"
	"github.com/julianstephens/coinlit/internal/tui/components/duelist"
	"github.com/julianstephens/coinlit/internal/tui/components/wishes"
	"github.com/julianstephens/coinlit/internal/wishlist"
)

// actionDoneMsg reports the result of an engine call made from a tea.Cmd.
type actionDoneMsg struct {
	status string
	err    error
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resize()
		return m, nil

	case duelist.CompleteMsg:
		return m, m.complete(msg.ID)
	case duelist.UndoMsg:
		return m, m.undo(msg.ID)
	case wishes.RedeemMsg:
		m.pending = &msg
		m.previousState = m.state
		m.state = StateConfirmRedeem
		return m, nil
	case actionDoneMsg:
		m.setStatus(msg.err, "%s", msg.status)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if m.state == StateConfirmRedeem {
			return m.updateConfirm(msg)
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.state = (m.state + 1) % SessionState(len(tabTitles))
			return m, nil
		case key.Matches(msg, m.keys.ShiftTab):
			m.state = (m.state - 1 + SessionState(len(tabTitles))) % SessionState(len(tabTitles))
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			return m, m.reload()
		}
	}

	var cmd tea.Cmd
	switch m.state {
	case StateToday:
		m.dueList, cmd = m.dueList.Update(msg)
	case StateWishlist:
		m.wishModel, cmd = m.wishModel.Update(msg)
	case StateLedger:
		m.ledgerModel, cmd = m.ledgerModel.Update(msg)
	}
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Yes):
		pending := m.pending
		m.pending = nil
		m.state = m.previousState
		if pending == nil {
			return m, nil
		}
		return m, m.redeem(pending.ID)
	case key.Matches(msg, m.keys.No):
		m.pending = nil
		m.state = m.previousState
		m.setStatus(nil, "Redemption cancelled")
	}
	return m, nil
}

func (m Model) complete(id string) tea.Cmd {
	return func() tea.Msg {
		h, tx, err := m.svc.Habits.Complete(m.ctx, m.svc.Store.ActiveUser(), id)
		if errors.Is(err, habits.ErrAlreadyComplete) {
			return actionDoneMsg{status: "Already done for this period"}
		}
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: fmt.Sprintf("Completed %s (+%d)", h.Name, tx.Amount)}
	}
}

func (m Model) undo(id string) tea.Cmd {
	return func() tea.Msg {
		h, tx, err := m.svc.Habits.Undo(m.ctx, m.svc.Store.ActiveUser(), id)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		if tx == nil {
			return actionDoneMsg{status: "Nothing to undo"}
		}
		return actionDoneMsg{status: fmt.Sprintf("Undid %s (%d)", h.Name, tx.Amount)}
	}
}

func (m Model) redeem(id string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.svc.Wishlist.Redeem(m.ctx, m.svc.Store.ActiveUser(), id)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		switch out.Kind {
		case wishlist.OutcomeSuccess:
			return actionDoneMsg{status: fmt.Sprintf("Redeemed %s", out.Item.Name)}
		case wishlist.OutcomeInsufficientBalance:
			return actionDoneMsg{err: fmt.Errorf("not enough coins: %d more needed", out.Shortfall)}
		default:
			return actionDoneMsg{err: errors.New(out.Kind.String())}
		}
	}
}

func (m Model) reload() tea.Cmd {
	return func() tea.Msg {
		if err := m.svc.Store.Reload(m.ctx); err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: "Reloaded"}
	}
}
