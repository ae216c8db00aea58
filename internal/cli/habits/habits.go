package habits

import (
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/julianstephens/coinlit/internal/cli"
	"github.com/julianstephens/coinlit/internal/clock"
	"github.com/julianstephens/coinlit/internal/habits"
	"github.com/julianstephens/coinlit/internal/models"
	"github.com/julianstephens/coinlit/internal/recurrence"
)

type HabitCmd struct {
	Add       HabitAddCmd  `cmd:"" help:"Add a new habit."`
	List      HabitListCmd `cmd:"" help:"List habits."`
	Complete  CompleteCmd  `cmd:"" help:"Record a completion and earn its reward."`
	Undo      UndoCmd      `cmd:"" help:"Undo the latest completion in the current period."`
	Archive   ArchiveCmd   `cmd:"" help:"Archive a habit."`
	Unarchive UnarchiveCmd `cmd:"" help:"Restore an archived habit."`
	Delete    DeleteCmd    `cmd:"" help:"Delete a habit permanently."`
	Pin       PinCmd       `cmd:"" help:"Pin a habit to the top of the due list."`
	Unpin     UnpinCmd     `cmd:"" help:"Unpin a habit."`
	Due       DueCmd       `cmd:"" help:"Show what is due today (or on --date)."`
	Streak    StreakCmd    `cmd:"" help:"Show the current streak."`
}

type TaskCmd struct {
	Add       TaskAddCmd   `cmd:"" help:"Add a new task."`
	List      TaskListCmd  `cmd:"" help:"List tasks."`
	Complete  CompleteCmd  `cmd:"" help:"Complete a task and earn its reward."`
	Undo      UndoCmd      `cmd:"" help:"Undo the latest completion in the current period."`
	Archive   ArchiveCmd   `cmd:"" help:"Archive a task."`
	Unarchive UnarchiveCmd `cmd:"" help:"Restore an archived task."`
	Delete    DeleteCmd    `cmd:"" help:"Delete a task permanently."`
	Pin       PinCmd       `cmd:"" help:"Pin a task."`
	Unpin     UnpinCmd     `cmd:"" help:"Unpin a task."`
	Due       DueCmd       `cmd:"" help:"Show what is due today (or on --date)."`
}

type HabitListCmd struct {
	Archived bool `help:"Include archived habits."`
	Task     bool `help:"List tasks instead of habits."`
}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	return list(ctx, c.Task, c.Archived)
}

type TaskListCmd struct {
	Archived bool `help:"Include archived tasks."`
}

func (c *TaskListCmd) Run(ctx *cli.Context) error {
	return list(ctx, true, c.Archived)
}

func list(ctx *cli.Context, tasks, archived bool) error {
	kind := "habits"
	if tasks {
		kind = "tasks"
	}
	items := ctx.Habits.List(ctx.ActorID(), tasks, archived)
	if len(items) == 0 {
		ctx.Printf("No %s found.\n", kind)
		return nil
	}

	today := ctx.Habits.Today()
	opts := ctx.Habits.Options()
	ctx.Println(cli.HeaderStyle.Render(strings.ToUpper(kind[:1]) + kind[1:]))
	for _, h := range items {
		state := habits.Evaluate(h, today, opts)
		line := fmt.Sprintf("%s %s  %s, %s", marker(state), h.Name, recurrence.Describe(h.Frequency), ctx.Coins(h.CoinReward))
		if h.Target() > 1 {
			line += fmt.Sprintf(", %d/%d this period", habits.CompletionsInPeriod(h, today, opts), h.Target())
		}
		if h.Pinned {
			line += " 📌"
		}
		if !tasks {
			if s := habits.Streak(h, today, opts); s > 0 {
				line += fmt.Sprintf(" 🔥%d", s)
			}
		}
		ctx.Println("  " + line)
		ctx.Println(cli.MutedStyle.Render("      " + shortID(h.ID)))
	}
	return nil
}

func marker(s habits.DueState) string {
	switch s {
	case habits.DueComplete:
		return cli.SuccessStyle.Render("[x]")
	case habits.Overdue:
		return cli.ErrorStyle.Render("[!]")
	case habits.DueIncomplete:
		return "[ ]"
	case habits.Archived:
		return cli.MutedStyle.Render("[a]")
	default:
		return cli.MutedStyle.Render("[-]")
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

type CompleteCmd struct {
	Ref string `arg:"" help:"Name or id."`
}

func (c *CompleteCmd) Run(ctx *cli.Context) error {
	h, err := ctx.Habits.Resolve(c.Ref)
	if err != nil {
		return err
	}
	ctx.PerformAutomaticBackup()

	updated, tx, err := ctx.Habits.Complete(ctx.Ctx(), ctx.Actor(), h.ID)
	if errors.Is(err, habits.ErrAlreadyComplete) {
		ctx.Warn("%s is already done for this period", h.Name)
		return nil
	}
	if err != nil {
		return err
	}

	done := habits.CompletionsInPeriod(updated, ctx.Habits.Today(), ctx.Habits.Options())
	ctx.Success("Completed %s (+%s) %d/%d", updated.Name, ctx.Coins(tx.Amount), done, updated.Target())
	return nil
}

type UndoCmd struct {
	Ref string `arg:"" help:"Name or id."`
}

func (c *UndoCmd) Run(ctx *cli.Context) error {
	h, err := ctx.Habits.Resolve(c.Ref)
	if err != nil {
		return err
	}
	ctx.PerformAutomaticBackup()

	_, tx, err := ctx.Habits.Undo(ctx.Ctx(), ctx.Actor(), h.ID)
	if err != nil {
		return err
	}
	if tx == nil {
		ctx.Println("Nothing to undo in the current period.")
		return nil
	}
	ctx.Success("Undid completion of %s (%s)", h.Name, ctx.Coins(tx.Amount))
	return nil
}

type ArchiveCmd struct {
	Ref string `arg:"" help:"Name or id."`
}

func (c *ArchiveCmd) Run(ctx *cli.Context) error {
	return setArchived(ctx, c.Ref, true)
}

type UnarchiveCmd struct {
	Ref string `arg:"" help:"Name or id."`
}

func (c *UnarchiveCmd) Run(ctx *cli.Context) error {
	return setArchived(ctx, c.Ref, false)
}

func setArchived(ctx *cli.Context, ref string, archived bool) error {
	h, err := ctx.Habits.Resolve(ref)
	if err != nil {
		return err
	}
	ctx.PerformAutomaticBackup()
	if _, err := ctx.Habits.SetArchived(ctx.Ctx(), ctx.Actor(), h.ID, archived); err != nil {
		return err
	}
	verb := "Archived"
	if !archived {
		verb = "Restored"
	}
	ctx.Success("%s %s: %s", verb, h.Kind(), h.Name)
	return nil
}

type PinCmd struct {
	Ref string `arg:"" help:"Name or id."`
}

func (c *PinCmd) Run(ctx *cli.Context) error {
	return setPinned(ctx, c.Ref, true)
}

type UnpinCmd struct {
	Ref string `arg:"" help:"Name or id."`
}

func (c *UnpinCmd) Run(ctx *cli.Context) error {
	return setPinned(ctx, c.Ref, false)
}

func setPinned(ctx *cli.Context, ref string, pinned bool) error {
	h, err := ctx.Habits.Resolve(ref)
	if err != nil {
		return err
	}
	if _, err := ctx.Habits.SetPinned(ctx.Ctx(), ctx.Actor(), h.ID, pinned); err != nil {
		return err
	}
	if pinned {
		ctx.Success("Pinned %s", h.Name)
	} else {
		ctx.Success("Unpinned %s", h.Name)
	}
	return nil
}

type DeleteCmd struct {
	Ref string `arg:"" help:"Name or id."`
	Yes bool   `short:"y" help:"Do not ask for confirmation."`
}

func (c *DeleteCmd) Run(ctx *cli.Context) error {
	h, err := ctx.Habits.Resolve(c.Ref)
	if err != nil {
		return err
	}
	ok, err := cli.Confirm(
		fmt.Sprintf("Delete %s %q?", h.Kind(), h.Name),
		"Completion history is removed. Coins already earned stay in the ledger.",
		c.Yes,
	)
	if err != nil {
		return err
	}
	if !ok {
		ctx.Println("Delete cancelled.")
		return nil
	}

	ctx.PerformAutomaticBackup()
	if err := ctx.Habits.Delete(ctx.Ctx(), ctx.Actor(), h.ID); err != nil {
		return err
	}
	ctx.Success("Deleted %s: %s", h.Kind(), h.Name)
	return nil
}

type DueCmd struct {
	Date string `help:"Date in YYYY-MM-DD format (default: today)."`
}

func (c *DueCmd) Run(ctx *cli.Context) error {
	date := ctx.Habits.Today()
	if c.Date != "" {
		d, err := clock.ParseDate(c.Date)
		if err != nil {
			return err
		}
		date = d
	}

	entries := ctx.Habits.Due(date, ctx.ActorID())
	printDue(ctx, date, entries)
	return nil
}

func printDue(ctx *cli.Context, date civil.Date, entries []habits.Entry) {
	ctx.Println(cli.HeaderStyle.Render("Due on " + date.String()))
	if len(entries) == 0 {
		ctx.Println("Nothing due.")
		return
	}

	for _, section := range []struct {
		title string
		tasks bool
	}{{"Habits", false}, {"Tasks", true}} {
		done, total := habits.Badge(entries, section.tasks)
		if total == 0 {
			continue
		}
		ctx.Printf("\n%s (%d/%d)\n", section.title, done, total)
		for _, e := range entries {
			if e.Habit.IsTask != section.tasks {
				continue
			}
			ctx.Printf("  %s %s%s\n", marker(e.State), e.Habit.Name, progress(e))
		}
	}
}

func progress(e habits.Entry) string {
	if e.Habit.Target() <= 1 {
		return ""
	}
	return cli.MutedStyle.Render(fmt.Sprintf(" (%d/%d)", e.Completions, e.Habit.Target()))
}

type StreakCmd struct {
	Ref string `arg:"" help:"Name or id."`
}

func (c *StreakCmd) Run(ctx *cli.Context) error {
	h, err := ctx.Habits.Resolve(c.Ref)
	if err != nil {
		return err
	}
	streak, err := ctx.Habits.Streak(h.ID)
	if err != nil {
		return err
	}
	ctx.Printf("%s: %d %s\n", h.Name, streak, periodNoun(h, streak))
	return nil
}

func periodNoun(h models.Habit, n int) string {
	noun := map[recurrence.Bucket]string{
		recurrence.Daily:   "day",
		recurrence.Weekly:  "week",
		recurrence.Monthly: "month",
		recurrence.Yearly:  "year",
	}[recurrence.BucketOf(h.Frequency)]
	if n != 1 {
		noun += "s"
	}
	return noun
}
