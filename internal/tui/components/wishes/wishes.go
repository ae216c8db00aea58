package wishes

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/coinlit/internal/models"
)

type RedeemMsg struct {
	ID   string
	Name string
	Cost int
}

type Item struct {
	Wish       models.WishlistItem
	Affordable bool
}

func (i Item) Title() string {
	if i.Affordable {
		return "✓ " + i.Wish.Name
	}
	return "  " + i.Wish.Name
}

func (i Item) Description() string {
	desc := fmt.Sprintf("%d coins", i.Wish.CoinCost)
	if i.Wish.TargetCompletions != nil {
		desc += fmt.Sprintf(" | %d left", *i.Wish.TargetCompletions)
	}
	if i.Wish.Description != "" {
		desc += " | " + i.Wish.Description
	}
	return desc
}

func (i Item) FilterValue() string { return i.Wish.Name }

type Model struct {
	list   list.Model
	redeem key.Binding
}

func New(width, height int) Model {
	l := list.New(nil, list.NewDefaultDelegate(), width, height)
	l.SetShowTitle(false)
	l.SetShowHelp(false)

	redeem := key.NewBinding(
		key.WithKeys("r", "enter"),
		key.WithHelp("r/enter", "redeem"),
	)
	l.AdditionalShortHelpKeys = func() []key.Binding { return []key.Binding{redeem} }
	return Model{list: l, redeem: redeem}
}

// SetItems replaces the list. balance marks what is affordable.
func (m *Model) SetItems(wishes []models.WishlistItem, balance int) {
	items := make([]list.Item, len(wishes))
	for i, w := range wishes {
		items[i] = Item{Wish: w, Affordable: balance >= w.CoinCost}
	}
	m.list.SetItems(items)
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering && key.Matches(msg, m.redeem) {
		if i, ok := m.list.SelectedItem().(Item); ok {
			return m, func() tea.Msg { return RedeemMsg{ID: i.Wish.ID, Name: i.Wish.Name, Cost: i.Wish.CoinCost} }
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && m.list.FilterState() != list.Filtering {
		return "\n  Your wishlist is empty."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
