package settings

import (
	"time"

	"github.com/julianstephens/coinlit/internal/cli"
	"github.com/julianstephens/coinlit/internal/clock"
	"github.com/julianstephens/coinlit/internal/errs"
	"github.com/julianstephens/coinlit/internal/models"
	"github.com/julianstephens/coinlit/internal/recurrence"
)

type SettingsCmd struct {
	List bool `help:"List current settings."`

	Timezone         *string `help:"IANA timezone used for local dates, or Local."`
	WeekStart        *string `help:"First day of the week (e.g. monday, sunday)."`
	AutoBackup       *bool   `help:"Back up the database before changes."`
	NumberFormatting *bool   `help:"Format coin amounts."`
	Grouping         *bool   `help:"Group thousands in coin amounts."`
	Language         *string `help:"Interface language."`
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	if c.List {
		list(ctx, ctx.Store.Settings())
		return nil
	}

	if c.Timezone == nil && c.WeekStart == nil && c.AutoBackup == nil &&
		c.NumberFormatting == nil && c.Grouping == nil && c.Language == nil {
		ctx.Println("No changes specified. Use --list to view settings or flags to update them.")
		return nil
	}

	var weekStart time.Weekday
	if c.WeekStart != nil {
		day, err := recurrence.ParseWeekday(*c.WeekStart)
		if err != nil {
			return errs.NewValidationError(err.Error())
		}
		weekStart = day
	}
	if c.Timezone != nil && !clock.ValidateTimezone(*c.Timezone) {
		return errs.NewValidationError("unknown timezone: " + *c.Timezone)
	}

	_, err := ctx.Store.UpdateSettings(ctx.Ctx(), func(s models.Settings) (models.Settings, error) {
		if c.Timezone != nil {
			s.System.Timezone = *c.Timezone
		}
		if c.WeekStart != nil {
			s.System.WeekStartDay = weekStart
		}
		if c.AutoBackup != nil {
			s.System.AutoBackupEnabled = *c.AutoBackup
		}
		if c.Language != nil {
			s.System.Language = *c.Language
		}
		if c.NumberFormatting != nil {
			s.UI.UseNumberFormatting = *c.NumberFormatting
		}
		if c.Grouping != nil {
			s.UI.UseGrouping = *c.Grouping
		}
		return s, nil
	})
	if err != nil {
		return err
	}

	ctx.Success("Settings updated successfully.")
	return nil
}

func list(ctx *cli.Context, s models.Settings) {
	ctx.Println("Current Settings:")
	ctx.Printf("  Timezone:          %s\n", s.System.Timezone)
	ctx.Printf("  Week Start:        %s\n", s.System.WeekStartDay)
	ctx.Printf("  Auto Backup:       %v\n", s.System.AutoBackupEnabled)
	ctx.Printf("  Language:          %s\n", s.System.Language)
	ctx.Println("\nDisplay Settings:")
	ctx.Printf("  Number Formatting: %v\n", s.UI.UseNumberFormatting)
	ctx.Printf("  Grouping:          %v\n", s.UI.UseGrouping)
}
