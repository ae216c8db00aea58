package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/julianstephens/coinlit/internal/backup"
	"github.com/julianstephens/coinlit/internal/clock"
	"github.com/julianstephens/coinlit/internal/config"
	"github.com/julianstephens/coinlit/internal/errs"
	"github.com/julianstephens/coinlit/internal/helpers"
	"github.com/julianstephens/coinlit/internal/habits"
	"github.com/julianstephens/coinlit/internal/ledger"
	"github.com/julianstephens/coinlit/internal/logger"
	"github.com/julianstephens/coinlit/internal/models"
	"github.com/julianstephens/coinlit/internal/permission"
	"github.com/julianstephens/coinlit/internal/state"
	"github.com/julianstephens/coinlit/internal/storage"
	"github.com/julianstephens/coinlit/internal/wishlist"
)

// Context is bound to every command's Run method.
type Context struct {
	Config   *config.Config
	Provider storage.Provider
	Clock    clock.Clock
	Store    *state.Store
	Habits   *habits.Tracker
	Ledger   *ledger.Service
	Wishlist *wishlist.Coordinator
	Out      io.Writer

	ctx context.Context
}

// New wires the engine services around provider. Nothing is loaded yet.
func New(ctx context.Context, cfg *config.Config, provider storage.Provider, clk clock.Clock) *Context {
	store := state.New(provider)
	guard := permission.NewGuard()
	return &Context{
		Config:   cfg,
		Provider: provider,
		Clock:    clk,
		Store:    store,
		Habits:   habits.NewTracker(store, guard, clk),
		Ledger:   ledger.NewService(store, guard, clk, cfg.MaxCoinLimit),
		Wishlist: wishlist.NewCoordinator(store, guard, clk),
		Out:      os.Stdout,
		ctx:      ctx,
	}
}

// Ctx returns the context commands pass to the engine.
func (c *Context) Ctx() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// Load opens the provider, reads every document and selects the configured user.
func (c *Context) Load() error {
	if err := c.Provider.Load(); err != nil {
		if errors.Is(err, storage.ErrNotInitialized) {
			return fmt.Errorf("%w: run 'coinlit init' first", err)
		}
		return err
	}
	if err := c.Store.Reload(c.Ctx()); err != nil {
		return fmt.Errorf("failed to load data: %w", err)
	}
	if c.Config.User != "" {
		if err := c.Store.SetActiveUser(c.Config.User); err != nil {
			return err
		}
	}
	return nil
}

// Actor is the user commands act as.
func (c *Context) Actor() *models.User {
	return c.Store.ActiveUser()
}

// ActorID returns the active user's id, or "" when there is none.
func (c *Context) ActorID() string {
	if u := c.Actor(); u != nil {
		return u.ID
	}
	return ""
}

// ResolveUser looks a user up by id or name. An empty ref is the active user.
func (c *Context) ResolveUser(ref string) (models.User, error) {
	if ref == "" {
		if u := c.Actor(); u != nil {
			return *u, nil
		}
		return models.User{}, errs.NewNotFoundError("no active user")
	}
	u, ok := c.Store.Users().Find(ref)
	if !ok {
		var names []string
		for _, u := range c.Store.Users().Users {
			names = append(names, u.Username)
		}
		return models.User{}, errs.NewNotFoundError(helpers.NotFoundMessage("user", ref, names))
	}
	return u, nil
}

// ResolveUsers maps user references to ids. No refs means shared.
func (c *Context) ResolveUsers(refs []string) ([]string, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		u, err := c.ResolveUser(ref)
		if err != nil {
			return nil, err
		}
		ids = append(ids, u.ID)
	}
	return ids, nil
}

// PerformAutomaticBackup snapshots the database when the autoBackupEnabled
// setting is on. Failures are logged and never interrupt the command.
func (c *Context) PerformAutomaticBackup() {
	if !c.Store.Settings().System.AutoBackupEnabled {
		return
	}
	mgr, err := backup.ForProvider(c.Provider, c.Clock)
	if errors.Is(err, backup.ErrUnsupported) {
		return
	}
	if err != nil {
		logger.Warn("Automatic backup failed", "error", err)
		return
	}
	if _, err := mgr.Create(c.Ctx()); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// Close releases the services and the provider.
func (c *Context) Close() error {
	c.Ledger.Close()
	return c.Provider.Close()
}

// Printf writes to the command output.
func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

// Println writes a line to the command output.
func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.Out, args...)
}

// FormatCoins renders n with the user's number formatting settings.
func (c *Context) FormatCoins(n int) string {
	return c.Store.Settings().UI.FormatCoins(n)
}
