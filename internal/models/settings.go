package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/coinlit/internal/clock"
	"github.com/julianstephens/coinlit/internal/constants"
	"github.com/julianstephens/coinlit/internal/recurrence"
)

// Settings is the persisted settings document.
type Settings struct {
	System SystemSettings `json:"system"`
	UI     UISettings     `json:"ui"`
}

type SystemSettings struct {
	Timezone          string       `json:"timezone"`     // IANA timezone name or "Local"
	WeekStartDay      time.Weekday `json:"weekStartDay"` // 0 = Sunday
	AutoBackupEnabled bool         `json:"autoBackupEnabled"`
	Language          string       `json:"language"`
}

type UISettings struct {
	UseNumberFormatting bool `json:"useNumberFormatting"`
	UseGrouping         bool `json:"useGrouping"`
}

// DefaultSettings returns the settings used when no document exists. Stored
// documents are decoded on top of this value so missing fields keep defaults.
func DefaultSettings() Settings {
	return Settings{
		System: SystemSettings{
			Timezone:          constants.DefaultTimezone,
			WeekStartDay:      constants.DefaultWeekStartDay,
			AutoBackupEnabled: constants.DefaultAutoBackup,
			Language:          constants.DefaultLanguage,
		},
		UI: UISettings{
			UseNumberFormatting: constants.DefaultNumberFormatting,
			UseGrouping:         constants.DefaultNumberGrouping,
		},
	}
}

// ApplyDefaultSettings repairs empty or out of range values.
func ApplyDefaultSettings(settings *Settings) {
	if settings.System.Timezone == "" || !clock.ValidateTimezone(settings.System.Timezone) {
		settings.System.Timezone = constants.DefaultTimezone
	}
	if settings.System.WeekStartDay < time.Sunday || settings.System.WeekStartDay > time.Saturday {
		settings.System.WeekStartDay = constants.DefaultWeekStartDay
	}
	if settings.System.Language == "" {
		settings.System.Language = constants.DefaultLanguage
	}
}

// RecurrenceOptions returns the options due-ness is evaluated with.
func (s Settings) RecurrenceOptions() recurrence.Options {
	return recurrence.Options{Timezone: s.System.Timezone, WeekStart: s.System.WeekStartDay}
}

// FormatCoins renders an amount according to the UI settings.
func (u UISettings) FormatCoins(n int) string {
	s := strconv.Itoa(n)
	if !u.UseNumberFormatting || !u.UseGrouping {
		return s
	}

	sign := ""
	if n < 0 {
		sign, s = "-", s[1:]
	}
	if len(s) <= 3 {
		return sign + s
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return sign + b.String()
}
