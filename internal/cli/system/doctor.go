package system

import (
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/coinlit/internal/backup"
	"github.com/julianstephens/coinlit/internal/cli"
	"github.com/julianstephens/coinlit/internal/clock"
	"github.com/julianstephens/coinlit/internal/validation"
)

// ValidateCmd reports data problems the engine tolerates at runtime.
type ValidateCmd struct{}

func (cmd *ValidateCmd) Run(ctx *cli.Context) error {
	result := validate(ctx)
	ctx.Println(result.FormatReport())
	if result.HasErrors() {
		return errors.New("validation found errors")
	}
	return nil
}

func validate(ctx *cli.Context) validation.Result {
	return validation.New().Validate(validation.Snapshot{
		Habits:   ctx.Store.Habits(),
		Coins:    ctx.Store.Coins(),
		Wishlist: ctx.Store.Wishlist(),
		Users:    ctx.Store.Users(),
	})
}

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	hasError := false
	loaded := true

	if err := ctx.Load(); err != nil {
		ctx.Println("❌ Storage reachable: FAIL")
		ctx.Printf("   Error: %v\n", err)
		hasError = true
		loaded = false
	} else {
		ctx.Println("✓ Storage reachable: OK")
	}

	if loaded {
		result := validate(ctx)
		switch {
		case result.HasErrors():
			ctx.Println("❌ Data validation: FAIL")
			hasError = true
		case len(result.Issues) > 0:
			ctx.Println("⚠ Data validation: WARNING")
		default:
			ctx.Println("✓ Data validation: OK")
		}
		for _, issue := range result.Issues {
			ctx.Printf("   %s\n", issue.Description)
		}

		if dirty := ctx.Store.Dirty(); len(dirty) > 0 {
			ctx.Printf("⚠ Unsaved changes: %v\n", dirty)
		}
	} else {
		ctx.Println("⊘ Data validation: SKIPPED (storage not reachable)")
	}

	if err := checkBackupsPresent(ctx); err != nil {
		ctx.Println("⚠ Backups present: WARNING")
		ctx.Printf("   %v\n", err)
	} else {
		ctx.Println("✓ Backups present: OK")
	}

	if err := checkTimezone(ctx); err != nil {
		ctx.Println("❌ Clock/timezone: FAIL")
		ctx.Printf("   Error: %v\n", err)
		hasError = true
	} else {
		ctx.Println("✓ Clock/timezone: OK")
	}

	ctx.Println()
	if hasError {
		return errors.New("diagnostics found problems")
	}
	ctx.Println("All checks passed.")
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	mgr, err := backup.ForProvider(ctx.Provider, ctx.Clock)
	if errors.Is(err, backup.ErrUnsupported) {
		return fmt.Errorf("automatic backups are not available for this storage backend")
	}
	if err != nil {
		return err
	}
	backups, err := mgr.List()
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found in %s", mgr.Dir())
	}
	if age := ctx.Clock.Now().Sub(backups[0].Timestamp); age > 7*24*time.Hour {
		return fmt.Errorf("latest backup is %d days old", int(age.Hours()/24))
	}
	return nil
}

func checkTimezone(ctx *cli.Context) error {
	tz := ctx.Store.Settings().System.Timezone
	if !clock.ValidateTimezone(tz) {
		return fmt.Errorf("configured timezone %q is not recognised", tz)
	}
	now := ctx.Clock.Now()
	if now.Year() < 2000 {
		return fmt.Errorf("system clock looks wrong: %s", now.Format(time.RFC3339))
	}
	return nil
}
