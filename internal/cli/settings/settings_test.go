package settings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/coinlit/internal/cli/clitest"
	"github.com/julianstephens/coinlit/internal/errs"
	"github.com/julianstephens/coinlit/internal/helpers"
)

func TestListSettings(t *testing.T) {
	ctx, out, _ := clitest.New(t)

	require.NoError(t, (&SettingsCmd{List: true}).Run(ctx))
	s := out.String()
	assert.Contains(t, s, "Timezone:          UTC")
	assert.Contains(t, s, "Week Start:        Monday")
	assert.Contains(t, s, "Auto Backup:       true")
	assert.Contains(t, s, "Grouping:          true")
}

func TestUpdateSettings(t *testing.T) {
	ctx, out, provider := clitest.New(t)

	cmd := &SettingsCmd{
		Timezone:   helpers.Ptr("Asia/Tokyo"),
		WeekStart:  helpers.Ptr("sunday"),
		AutoBackup: helpers.Ptr(false),
		Grouping:   helpers.Ptr(false),
	}
	require.NoError(t, cmd.Run(ctx))
	assert.Contains(t, out.String(), "Settings updated successfully.")

	s := ctx.Store.Settings()
	assert.Equal(t, "Asia/Tokyo", s.System.Timezone)
	assert.Equal(t, time.Sunday, s.System.WeekStartDay)
	assert.False(t, s.System.AutoBackupEnabled)
	assert.False(t, s.UI.UseGrouping)
	assert.Equal(t, "1000", ctx.FormatCoins(1000))
	assert.Equal(t, 1, provider.SaveCalls("settings"))
}

func TestUpdateSettingsValidation(t *testing.T) {
	ctx, out, _ := clitest.New(t)

	assert.True(t, errs.IsValidation((&SettingsCmd{Timezone: helpers.Ptr("Mars/Olympus")}).Run(ctx)))
	assert.True(t, errs.IsValidation((&SettingsCmd{WeekStart: helpers.Ptr("someday")}).Run(ctx)))
	assert.Equal(t, "UTC", ctx.Store.Settings().System.Timezone)

	out.Reset()
	require.NoError(t, (&SettingsCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "No changes specified.")
}
