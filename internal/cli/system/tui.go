package system

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/coinlit/internal/cli"
	"github.com/julianstephens/coinlit/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	ctx.PerformAutomaticBackup()

	m := tui.NewModel(ctx.Ctx(), tui.Services{
		Store:    ctx.Store,
		Habits:   ctx.Habits,
		Ledger:   ctx.Ledger,
		Wishlist: ctx.Wishlist,
	})
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("dashboard exited with an error: %w", err)
	}
	return nil
}
