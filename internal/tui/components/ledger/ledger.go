package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/coinlit/internal/clock"
	coinledger "github.com/julianstephens/coinlit/internal/ledger"
	"github.com/julianstephens/coinlit/internal/models"
)

var (
	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(18)

	creditStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Width(7)
	debitStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Width(7)

	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

type Model struct {
	viewport viewport.Model
	summary  coinledger.Summary
	txs      []models.CoinTransaction
	timezone string
	format   func(int) string
}

func New(width, height int) Model {
	return Model{
		viewport: viewport.New(width, height),
		format:   func(n int) string { return fmt.Sprint(n) },
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	return m.viewport.View()
}

func (m *Model) SetSize(width, height int) {
	m.viewport.Width = width
	m.viewport.Height = height
	m.Render()
}

// SetData replaces the summary and transactions (newest first) shown.
func (m *Model) SetData(summary coinledger.Summary, txs []models.CoinTransaction, timezone string, format func(int) string) {
	m.summary = summary
	m.txs = txs
	m.timezone = timezone
	if format != nil {
		m.format = format
	}
	m.Render()
}

func (m *Model) Render() {
	var b strings.Builder
	s := m.summary
	fmt.Fprintf(&b, "Earned today %s  Spent today %s  Total earned %s  Total spent %s\n\n",
		m.format(s.EarnedToday), m.format(s.SpentToday), m.format(s.TotalEarned), m.format(s.TotalSpent))

	if len(m.txs) == 0 {
		b.WriteString("No transactions yet.")
	}
	for _, tx := range m.txs {
		when := tx.Timestamp
		if t, err := tx.Instant(); err == nil {
			when = t.In(clock.Location(m.timezone)).Format(time.DateTime[:16])
		}
		amount := debitStyle.Render(m.format(tx.Amount))
		if tx.Amount > 0 {
			amount = creditStyle.Render("+" + m.format(tx.Amount))
		}
		line := fmt.Sprintf("%s %s %s", timeStyle.Render(when), amount, tx.Description)
		if tx.Note != "" {
			line += " " + noteStyle.Render(tx.Note)
		}
		b.WriteString(line + "\n")
	}
	m.viewport.SetContent(b.String())
}
