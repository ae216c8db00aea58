package system

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/coinlit/internal/cli"
	"github.com/julianstephens/coinlit/internal/constants"
	"github.com/julianstephens/coinlit/internal/storage"
	"github.com/julianstephens/coinlit/internal/storage/backend"
)

type InitCmd struct {
	Force  bool   `help:"Force reset by deleting the existing sqlite database before initialization."`
	Source string `help:"Storage target (path, URI or keyring:<backend>) to copy data from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if err := c.reset(ctx); err != nil {
			return err
		}
	}

	if err := ctx.Provider.Init(); err != nil {
		return err
	}
	ctx.Printf("Initialized coinlit storage at: %s\n", ctx.Provider.GetConfigPath())

	if c.Source != "" {
		ctx.Printf("Migrating data from: %s\n", c.Source)
		if err := migrateData(ctx, c.Source); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		ctx.Println("Migration completed successfully!")
	}

	// Loading writes the default admin when no users exist yet.
	if err := ctx.Load(); err != nil {
		return err
	}
	if u := ctx.Actor(); u != nil {
		ctx.Printf("Active user: %s\n", u.Username)
	}
	return nil
}

func (c *InitCmd) reset(ctx *cli.Context) error {
	dbPath := ctx.Provider.GetConfigPath()
	if c.Source != "" {
		absDB, err := filepath.Abs(dbPath)
		if err == nil {
			dbPath = absDB
		}
		if absSource, err := filepath.Abs(c.Source); err == nil && absSource == dbPath {
			return fmt.Errorf("cannot use --force when source and destination are the same: %s", dbPath)
		}
	}

	info, err := os.Stat(dbPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to access existing database: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("--force only resets file databases, %s is a directory", dbPath)
	}

	if err := ctx.Provider.Close(); err != nil {
		return fmt.Errorf("failed to close existing database: %w", err)
	}
	if err := os.Remove(dbPath); err != nil {
		return fmt.Errorf("failed to delete existing database: %w", err)
	}
	ctx.Printf("Deleted existing database at: %s\n", dbPath)
	return nil
}

// migrateData copies every document from source into the configured provider.
func migrateData(ctx *cli.Context, source string) error {
	src, err := backend.Open(source)
	if err != nil {
		return err
	}
	if err := src.Load(); err != nil {
		return fmt.Errorf("failed to load source storage: %w", err)
	}
	defer src.Close()

	for _, domain := range constants.Domains {
		data, err := src.LoadDocument(ctx.Ctx(), domain)
		if errors.Is(err, storage.ErrNotFound) {
			ctx.Printf("  Skipping %s (not present)\n", domain)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read %s from source: %w", domain, err)
		}
		if err := ctx.Provider.SaveDocument(ctx.Ctx(), domain, data); err != nil {
			return fmt.Errorf("failed to write %s: %w", domain, err)
		}
		ctx.Printf("  Migrated %s\n", domain)
	}
	return nil
}
