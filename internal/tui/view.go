package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/coinlit/internal/habits"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case StateToday:
		content = docStyle.Render(m.dueList.View())
	case StateWishlist:
		content = docStyle.Render(m.wishModel.View())
	case StateLedger:
		content = docStyle.Render(m.ledgerModel.View())
	case StateConfirmRedeem:
		content = m.viewConfirmRedeem()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewHeader(),
		content,
		m.viewStatus(),
		m.help.View(m),
	)
}

func (m Model) viewHeader() string {
	active := m.state
	if active == StateConfirmRedeem {
		active = m.previousState
	}
	var tabs []string
	for i, title := range tabTitles {
		if active == SessionState(i) {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}

	uid := m.userID()
	entries := m.svc.Habits.Due(m.svc.Habits.Today(), uid)
	habitsDone, habitsTotal := habits.Badge(entries, false)
	tasksDone, tasksTotal := habits.Badge(entries, true)
	balance := m.svc.Store.Settings().UI.FormatCoins(m.svc.Ledger.Balance(uid))
	tabs = append(tabs,
		balanceStyle.Render(fmt.Sprintf("🪙 %s", balance)),
		inactiveTabStyle.Render(fmt.Sprintf("habits %d/%d", habitsDone, habitsTotal)),
		inactiveTabStyle.Render(fmt.Sprintf("tasks %d/%d", tasksDone, tasksTotal)),
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewStatus() string {
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return errorStyle.Render(m.status)
	}
	return statusStyle.Render(m.status)
}

func (m Model) viewConfirmRedeem() string {
	name, cost := "", 0
	if m.pending != nil {
		name, cost = m.pending.Name, m.pending.Cost
	}
	return lipgloss.Place(m.width, m.height-4,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render(fmt.Sprintf("Redeem %s for %d coins?", name, cost)),
			"",
			"[y] Yes",
			"[n] No",
		),
	)
}
