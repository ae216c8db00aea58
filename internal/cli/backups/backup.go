package backups

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/coinlit/internal/backup"
	"github.com/julianstephens/coinlit/internal/cli"
	"github.com/julianstephens/coinlit/internal/constants"
)

type BackupCmd struct {
	Create  BackupCreateCmd  `cmd:"" help:"Create a backup now."`
	List    BackupListCmd    `cmd:"" help:"List available backups."`
	Restore BackupRestoreCmd `cmd:"" help:"Restore the database from a backup."`
}

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *cli.Context) error {
	mgr, err := backup.ForProvider(ctx.Provider, ctx.Clock)
	if err != nil {
		return err
	}
	info, err := mgr.Create(ctx.Ctx())
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	ctx.Success("Backup created: %s", filepath.Base(info.Path))
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *cli.Context) error {
	mgr, err := backup.ForProvider(ctx.Provider, ctx.Clock)
	if err != nil {
		return err
	}
	backups, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if len(backups) == 0 {
		ctx.Println("No backups found.")
		ctx.Printf("Backups are stored in: %s\n", mgr.Dir())
		return nil
	}

	ctx.Printf("Available backups (%d total, keeping most recent %d):\n\n", len(backups), constants.MaxBackups)
	for _, b := range backups {
		sizeKB := float64(b.Size) / 1024.0
		ctx.Printf("  %s  %s  (%.1f KB)\n", b.Timestamp.Format("2006-01-02 15:04:05"), filepath.Base(b.Path), sizeKB)
	}
	ctx.Printf("\nBackup directory: %s\n", mgr.Dir())
	return nil
}

type BackupRestoreCmd struct {
	BackupFile string `arg:"" help:"Path or filename of the backup to restore."`
	Yes        bool   `short:"y" help:"Do not ask for confirmation."`
}

func (c *BackupRestoreCmd) Run(ctx *cli.Context) error {
	mgr, err := backup.ForProvider(ctx.Provider, ctx.Clock)
	if err != nil {
		return err
	}

	path := c.BackupFile
	if _, err := os.Stat(path); os.IsNotExist(err) {
		candidate := filepath.Join(mgr.Dir(), filepath.Base(path))
		if _, err := os.Stat(candidate); err != nil {
			return fmt.Errorf("backup file not found: %s", c.BackupFile)
		}
		path = candidate
	}

	ok, err := cli.Confirm(
		"Restore "+filepath.Base(path)+"?",
		"The current database will be replaced. A safety backup is taken first.",
		c.Yes,
	)
	if err != nil {
		return err
	}
	if !ok {
		ctx.Println("Restore cancelled.")
		return nil
	}

	// The database file is replaced, so the open handle must go first.
	if err := ctx.Provider.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	safety, err := mgr.Restore(ctx.Ctx(), path)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	if safety != nil {
		ctx.Printf("Safety backup of the previous database: %s\n", filepath.Base(safety.Path))
	}
	ctx.Success("Restored from %s", filepath.Base(path))
	return nil
}
