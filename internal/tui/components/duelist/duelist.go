package duelist

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/coinlit/internal/habits"
	"github.com/julianstephens/coinlit/internal/recurrence"
)

type CompleteMsg struct {
	ID string
}

type UndoMsg struct {
	ID string
}

type Item struct {
	Entry habits.Entry
}

func (i Item) Title() string {
	var marker string
	switch i.Entry.State {
	case habits.DueComplete:
		marker = "✓ "
	case habits.Overdue:
		marker = "! "
	default:
		marker = "○ "
	}
	title := marker + i.Entry.Habit.Name
	if i.Entry.Habit.Pinned {
		title += " 📌"
	}
	return title
}

func (i Item) Description() string {
	h := i.Entry.Habit
	desc := fmt.Sprintf("%s | %s | +%d", h.Kind(), recurrence.Describe(h.Frequency), h.CoinReward)
	if h.Target() > 1 {
		desc += fmt.Sprintf(" | %d/%d", i.Entry.Completions, h.Target())
	}
	if i.Entry.State == habits.Overdue {
		desc += " | overdue"
	}
	return desc
}

func (i Item) FilterValue() string { return i.Entry.Habit.Name }

type KeyMap struct {
	Complete key.Binding
	Undo     key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Complete: key.NewBinding(
			key.WithKeys("c", "enter"),
			key.WithHelp("c/enter", "complete"),
		),
		Undo: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "undo"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
}

func New(entries []habits.Entry, width, height int) Model {
	l := list.New(items(entries), list.NewDefaultDelegate(), width, height)
	l.SetShowTitle(false)
	l.SetShowHelp(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Complete, keys.Undo}
	}
	return Model{list: l, keys: keys}
}

func items(entries []habits.Entry) []list.Item {
	out := make([]list.Item, len(entries))
	for i, e := range entries {
		out[i] = Item{Entry: e}
	}
	return out
}

func (m *Model) SetEntries(entries []habits.Entry) {
	m.list.SetItems(items(entries))
}

// Selected returns the highlighted entry.
func (m Model) Selected() (habits.Entry, bool) {
	i, ok := m.list.SelectedItem().(Item)
	return i.Entry, ok
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, m.keys.Complete):
			if e, ok := m.Selected(); ok {
				return m, func() tea.Msg { return CompleteMsg{ID: e.Habit.ID} }
			}
			return m, nil
		case key.Matches(msg, m.keys.Undo):
			if e, ok := m.Selected(); ok {
				return m, func() tea.Msg { return UndoMsg{ID: e.Habit.ID} }
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && m.list.FilterState() != list.Filtering {
		return "\n  Nothing due today."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
