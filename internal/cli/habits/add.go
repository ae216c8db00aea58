package habits

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/coinlit/internal/cli"
	"github.com/julianstephens/coinlit/internal/errs"
	"github.com/julianstephens/coinlit/internal/helpers"
	"github.com/julianstephens/coinlit/internal/models"
	"github.com/julianstephens/coinlit/internal/recurrence"
)

// itemFlags are shared by habit add and task add.
type itemFlags struct {
	Frequency   string   `short:"f" help:"daily, weekly[:DAY], monthly[:N], yearly[:MM-DD], an RRULE, or a date/time for one-off tasks." default:"daily"`
	Reward      int      `short:"r" help:"Coins earned per completion." default:"1"`
	Target      int      `short:"t" help:"Completions required per period." default:"1"`
	Description string   `short:"d" help:"Optional description."`
	Users       []string `help:"Restrict to these users (id or name)."`
	Pin         bool     `help:"Pin to the top of the due list."`
}

type HabitAddCmd struct {
	Name        string    `arg:"" optional:"" help:"Habit name."`
	Flags       itemFlags `embed:""`
	Task        bool      `help:"Create a task (overdue when missed) instead of a habit."`
	Interactive bool      `short:"i" help:"Fill in the fields with a form."`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	if c.Interactive {
		if err := promptItem(&c.Name, &c.Flags, &c.Task); err != nil {
			return err
		}
	}
	return add(ctx, c.Name, c.Flags, c.Task)
}

type TaskAddCmd struct {
	Name  string    `arg:"" help:"Task name."`
	Flags itemFlags `embed:""`
}

func (c *TaskAddCmd) Run(ctx *cli.Context) error {
	return add(ctx, c.Name, c.Flags, true)
}

func add(ctx *cli.Context, name string, f itemFlags, task bool) error {
	if strings.TrimSpace(name) == "" {
		return errs.NewValidationError("name is required")
	}
	if f.Target < 1 {
		return errs.NewValidationError("target completions must be at least 1")
	}
	userIDs, err := ctx.ResolveUsers(f.Users)
	if err != nil {
		return err
	}

	ctx.PerformAutomaticBackup()

	h := models.Habit{
		Name:        name,
		Description: f.Description,
		Frequency:   recurrence.Parse(f.Frequency),
		CoinReward:  f.Reward,
		Completions: []string{},
		IsTask:      task,
		Pinned:      f.Pin,
		UserIDs:     userIDs,
	}
	if f.Target > 1 {
		h.TargetCompletions = helpers.Ptr(f.Target)
	}

	added, err := ctx.Habits.Add(ctx.Ctx(), ctx.Actor(), h)
	if err != nil {
		return err
	}
	ctx.Success("Added %s: %s (%s, %s per completion)", added.Kind(), added.Name, recurrence.Describe(added.Frequency), ctx.Coins(added.CoinReward))
	ctx.Println(cli.MutedStyle.Render("ID: " + added.ID))
	return nil
}

func promptItem(name *string, f *itemFlags, task *bool) error {
	reward := strconv.Itoa(f.Reward)
	target := strconv.Itoa(f.Target)

	positive := func(s string) error {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || n < 0 {
			return fmt.Errorf("enter a whole number")
		}
		return nil
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(name).Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("name is required")
				}
				return nil
			}),
			huh.NewInput().Title("Description").Value(&f.Description),
			huh.NewInput().
				Title("Frequency").
				Description("daily, weekly:fri, monthly:15, yearly:03-14, FREQ=WEEKLY;BYDAY=MO,WE or 2026-12-24").
				Value(&f.Frequency).
				Validate(func(s string) error {
					if freq := recurrence.Parse(s); !freq.Valid() {
						return freq.Err
					}
					return nil
				}),
			huh.NewInput().Title("Coin reward").Value(&reward).Validate(positive),
			huh.NewInput().Title("Completions per period").Value(&target).Validate(positive),
			huh.NewConfirm().Title("Is this a task?").Value(task),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive form error: %w", err)
	}

	f.Reward, _ = strconv.Atoi(strings.TrimSpace(reward))
	f.Target, _ = strconv.Atoi(strings.TrimSpace(target))
	return nil
}
