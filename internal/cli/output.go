package cli

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

var (
	SuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	WarnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	MutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	CoinStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	HeaderStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
)

// Success prints a check-marked line.
func (c *Context) Success(format string, args ...any) {
	c.Println(SuccessStyle.Render("✓ " + fmt.Sprintf(format, args...)))
}

// Warn prints a highlighted warning line.
func (c *Context) Warn(format string, args ...any) {
	c.Println(WarnStyle.Render("⚠ " + fmt.Sprintf(format, args...)))
}

// Coins renders an amount with the coin style, e.g. "1,250 coins".
func (c *Context) Coins(n int) string {
	unit := "coins"
	if n == 1 || n == -1 {
		unit = "coin"
	}
	return CoinStyle.Render(c.FormatCoins(n) + " " + unit)
}

// Confirm asks a yes/no question. assumeYes skips the prompt.
func Confirm(title, description string, assumeYes bool) (bool, error) {
	if assumeYes {
		return true, nil
	}
	confirmed := false
	err := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("Yes").
		Negative("No").
		Value(&confirmed).
		Run()
	if err != nil {
		return false, fmt.Errorf("confirmation prompt failed: %w", err)
	}
	return confirmed, nil
}
