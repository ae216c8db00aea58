package coins

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/coinlit/internal/cli"
	"github.com/julianstephens/coinlit/internal/clock"
	"github.com/julianstephens/coinlit/internal/errs"
	"github.com/julianstephens/coinlit/internal/models"
)

type CoinsCmd struct {
	Balance CoinsBalanceCmd `cmd:"" default:"1" help:"Show the balance and today's totals."`
	Add     CoinsAddCmd     `cmd:"" help:"Add coins manually."`
	Remove  CoinsRemoveCmd  `cmd:"" help:"Remove coins manually."`
	History CoinsHistoryCmd `cmd:"" help:"Show recent transactions."`
	Note    CoinsNoteCmd    `cmd:"" help:"Attach a note to a transaction."`
}

type CoinsBalanceCmd struct {
	Account string `short:"a" help:"User whose balance is shown (default: active user)."`
}

func (c *CoinsBalanceCmd) Run(ctx *cli.Context) error {
	u, err := ctx.ResolveUser(c.Account)
	if err != nil {
		return err
	}
	s := ctx.Ledger.Summary(u.ID)

	ctx.Println(cli.HeaderStyle.Render("Coins for " + u.Username))
	ctx.Printf("  Balance:       %s\n", ctx.Coins(s.Balance))
	ctx.Printf("  Earned today:  %s\n", ctx.FormatCoins(s.EarnedToday))
	ctx.Printf("  Spent today:   %s\n", ctx.FormatCoins(s.SpentToday))
	ctx.Printf("  Total earned:  %s\n", ctx.FormatCoins(s.TotalEarned))
	ctx.Printf("  Total spent:   %s\n", ctx.FormatCoins(s.TotalSpent))
	ctx.Printf("  Transactions today: %d\n", s.TransactionsToday)
	return nil
}

type adjustFlags struct {
	Account     string `short:"a" help:"User whose coins change (default: active user)."`
	Description string `short:"d" help:"Ledger description."`
	Note        string `short:"n" help:"Optional note."`
}

type CoinsAddCmd struct {
	Amount float64     `arg:"" help:"Amount to add."`
	Flags  adjustFlags `embed:""`
}

func (c *CoinsAddCmd) Run(ctx *cli.Context) error {
	return adjust(ctx, c.Amount, c.Flags, false)
}

type CoinsRemoveCmd struct {
	Amount float64     `arg:"" help:"Amount to remove."`
	Flags  adjustFlags `embed:""`
}

func (c *CoinsRemoveCmd) Run(ctx *cli.Context) error {
	return adjust(ctx, c.Amount, c.Flags, true)
}

func adjust(ctx *cli.Context, amount float64, f adjustFlags, remove bool) error {
	u, err := ctx.ResolveUser(f.Account)
	if err != nil {
		return err
	}

	ctx.PerformAutomaticBackup()

	var tx models.CoinTransaction
	if remove {
		tx, err = ctx.Ledger.Remove(ctx.Ctx(), ctx.Actor(), u.ID, amount, f.Description, f.Note)
	} else {
		tx, err = ctx.Ledger.Add(ctx.Ctx(), ctx.Actor(), u.ID, amount, f.Description, f.Note)
	}
	if err != nil {
		return err
	}

	verb := "Added"
	if remove {
		verb = "Removed"
	}
	abs := tx.Amount
	if abs < 0 {
		abs = -abs
	}
	ctx.Success("%s %s for %s. Balance: %s", verb, ctx.Coins(abs), u.Username, ctx.Coins(ctx.Ledger.Balance(u.ID)))
	return nil
}

type CoinsHistoryCmd struct {
	Account string `short:"a" help:"User whose history is shown (default: active user)."`
	Limit   int    `short:"l" default:"20" help:"Number of transactions to show (0 for all)."`
	Item    string `help:"Only transactions related to this habit or wishlist item id."`
}

func (c *CoinsHistoryCmd) Run(ctx *cli.Context) error {
	var txs []models.CoinTransaction
	if c.Item != "" {
		txs = ctx.Ledger.ForItem(c.Item)
	} else {
		u, err := ctx.ResolveUser(c.Account)
		if err != nil {
			return err
		}
		txs = ctx.Ledger.Transactions(u.ID)
	}

	if len(txs) == 0 {
		ctx.Println("No transactions found.")
		return nil
	}
	if c.Limit > 0 && len(txs) > c.Limit {
		txs = txs[:c.Limit]
	}

	tz := ctx.Store.Settings().System.Timezone
	for _, tx := range txs {
		ctx.Println(formatTransaction(ctx, tx, tz))
	}
	return nil
}

func formatTransaction(ctx *cli.Context, tx models.CoinTransaction, tz string) string {
	when := tx.Timestamp
	if t, err := tx.Instant(); err == nil {
		when = t.In(clock.Location(tz)).Format(time.DateTime)
	}

	amount := ctx.FormatCoins(tx.Amount)
	if tx.Amount > 0 {
		amount = cli.SuccessStyle.Render("+" + amount)
	} else {
		amount = cli.ErrorStyle.Render(amount)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "  %s  %8s  %s", when, amount, tx.Description)
	if tx.Note != "" {
		b.WriteString(cli.MutedStyle.Render(" (" + tx.Note + ")"))
	}
	b.WriteString(cli.MutedStyle.Render("  " + shortID(tx.ID)))
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

type CoinsNoteCmd struct {
	ID   string `arg:"" help:"Transaction id or id prefix."`
	Note string `arg:"" optional:"" help:"Note text. Omit to clear the note."`
}

func (c *CoinsNoteCmd) Run(ctx *cli.Context) error {
	id, err := resolveTransaction(ctx, c.ID)
	if err != nil {
		return err
	}
	tx, err := ctx.Ledger.UpdateNote(ctx.Ctx(), ctx.Actor(), id, c.Note)
	if err != nil {
		return err
	}
	if tx.Note == "" {
		ctx.Success("Cleared note on %s", tx.Description)
	} else {
		ctx.Success("Updated note on %s", tx.Description)
	}
	return nil
}

func resolveTransaction(ctx *cli.Context, ref string) (string, error) {
	var match string
	for _, tx := range ctx.Store.Coins().Transactions {
		if tx.ID == ref {
			return tx.ID, nil
		}
		if len(ref) >= 4 && strings.HasPrefix(tx.ID, ref) {
			if match != "" {
				return "", errs.NewValidationError(fmt.Sprintf("transaction id %q is ambiguous", ref))
			}
			match = tx.ID
		}
	}
	if match == "" {
		return ref, nil
	}
	return match, nil
}
