package wishes

import (
	"fmt"

	"github.com/julianstephens/coinlit/internal/cli"
	"github.com/julianstephens/coinlit/internal/errs"
	"github.com/julianstephens/coinlit/internal/helpers"
	"github.com/julianstephens/coinlit/internal/models"
	"github.com/julianstephens/coinlit/internal/wishlist"
)

type WishCmd struct {
	Add       WishAddCmd       `cmd:"" help:"Add a wishlist item."`
	List      WishListCmd      `cmd:"" help:"List wishlist items."`
	Redeem    WishRedeemCmd    `cmd:"" help:"Spend coins on an item."`
	Edit      WishEditCmd      `cmd:"" help:"Edit a wishlist item."`
	Archive   WishArchiveCmd   `cmd:"" help:"Archive an item."`
	Unarchive WishUnarchiveCmd `cmd:"" help:"Restore an archived item."`
	Delete    WishDeleteCmd    `cmd:"" help:"Delete an item permanently."`
}

type WishAddCmd struct {
	Name        string   `arg:"" help:"Item name."`
	Cost        int      `arg:"" help:"Coin cost."`
	Description string   `short:"d" help:"Optional description."`
	Limit       int      `short:"l" help:"Number of times the item can be redeemed (0 for unlimited)."`
	Link        string   `help:"Optional link."`
	Users       []string `help:"Restrict to these users (id or name)."`
}

func (c *WishAddCmd) Run(ctx *cli.Context) error {
	if c.Limit < 0 {
		return errs.NewValidationError("redemption limit must not be negative")
	}
	userIDs, err := ctx.ResolveUsers(c.Users)
	if err != nil {
		return err
	}

	ctx.PerformAutomaticBackup()

	item := models.WishlistItem{
		Name:        c.Name,
		Description: c.Description,
		CoinCost:    c.Cost,
		Link:        c.Link,
		UserIDs:     userIDs,
	}
	if c.Limit > 0 {
		item.TargetCompletions = helpers.Ptr(c.Limit)
	}

	added, err := ctx.Wishlist.Add(ctx.Ctx(), ctx.Actor(), item)
	if err != nil {
		return err
	}
	ctx.Success("Added wish: %s (%s)", added.Name, ctx.Coins(added.CoinCost))
	ctx.Println(cli.MutedStyle.Render("ID: " + added.ID))
	return nil
}

type WishListCmd struct {
	Archived bool `help:"Include archived items."`
}

func (c *WishListCmd) Run(ctx *cli.Context) error {
	items := ctx.Wishlist.List(ctx.ActorID(), c.Archived)
	if len(items) == 0 {
		ctx.Println("Your wishlist is empty.")
		return nil
	}

	ctx.Println(cli.HeaderStyle.Render("Wishlist"))
	ctx.Printf("Balance: %s\n\n", ctx.Coins(ctx.Ledger.Balance(ctx.ActorID())))
	for _, item := range items {
		mark := "  "
		if ctx.Wishlist.CanRedeem(item.CoinCost, ctx.ActorID()) && !item.Archived {
			mark = cli.SuccessStyle.Render("✓ ")
		}
		line := fmt.Sprintf("%s%s  %s", mark, item.Name, ctx.Coins(item.CoinCost))
		if item.TargetCompletions != nil {
			line += fmt.Sprintf(", %d left", *item.TargetCompletions)
		}
		if item.Archived {
			line += cli.MutedStyle.Render(" (archived)")
		}
		ctx.Println(line)
		if item.Description != "" {
			ctx.Println(cli.MutedStyle.Render("    " + item.Description))
		}
	}
	return nil
}

type WishRedeemCmd struct {
	Ref string `arg:"" help:"Name or id."`
	Yes bool   `short:"y" help:"Do not ask for confirmation."`
}

func (c *WishRedeemCmd) Run(ctx *cli.Context) error {
	item, err := ctx.Wishlist.Resolve(c.Ref)
	if err != nil {
		return err
	}

	ok, err := cli.Confirm(
		fmt.Sprintf("Redeem %q?", item.Name),
		fmt.Sprintf("This spends %s coins.", ctx.FormatCoins(item.CoinCost)),
		c.Yes,
	)
	if err != nil {
		return err
	}
	if !ok {
		ctx.Println("Redemption cancelled.")
		return nil
	}

	ctx.PerformAutomaticBackup()
	outcome, err := ctx.Wishlist.Redeem(ctx.Ctx(), ctx.Actor(), item.ID)
	return report(ctx, outcome, err)
}

func report(ctx *cli.Context, outcome wishlist.Outcome, err error) error {
	// A debit with an error means the item update failed after payment.
	if err != nil && outcome.Transaction == nil {
		return err
	}

	switch outcome.Kind {
	case wishlist.OutcomeSuccess:
		ctx.Success("Redeemed %s for %s. Balance: %s",
			outcome.Item.Name, ctx.Coins(outcome.Item.CoinCost), ctx.Coins(ctx.Ledger.Balance(ctx.ActorID())))
		if outcome.Item.Archived && err == nil {
			ctx.Println(cli.MutedStyle.Render("Redemption limit reached, item archived."))
		}
	case wishlist.OutcomeInsufficientBalance:
		ctx.Warn("Not enough coins for %s: %s more needed", outcome.Item.Name, ctx.Coins(outcome.Shortfall))
	case wishlist.OutcomeLimitReached:
		ctx.Warn("%s has no redemptions left", outcome.Item.Name)
	case wishlist.OutcomePermissionDenied:
		ctx.Warn("You are not allowed to redeem wishlist items")
	}
	return err
}

type WishEditCmd struct {
	Ref         string  `arg:"" help:"Name or id."`
	Name        *string `help:"New name."`
	Cost        *int    `help:"New coin cost."`
	Description *string `short:"d" help:"New description."`
	Limit       *int    `short:"l" help:"New redemption limit (0 for unlimited)."`
	Link        *string `help:"New link."`
}

func (c *WishEditCmd) Run(ctx *cli.Context) error {
	item, err := ctx.Wishlist.Resolve(c.Ref)
	if err != nil {
		return err
	}

	updated := item.Clone()
	changed := false
	if c.Name != nil {
		updated.Name = *c.Name
		changed = true
	}
	if c.Cost != nil {
		updated.CoinCost = *c.Cost
		changed = true
	}
	if c.Description != nil {
		updated.Description = *c.Description
		changed = true
	}
	if c.Link != nil {
		updated.Link = *c.Link
		changed = true
	}
	if c.Limit != nil {
		if *c.Limit < 0 {
			return errs.NewValidationError("redemption limit must not be negative")
		}
		updated.TargetCompletions = nil
		if *c.Limit > 0 {
			updated.TargetCompletions = helpers.Ptr(*c.Limit)
		}
		changed = true
	}
	if !changed {
		ctx.Println("No changes specified.")
		return nil
	}

	ctx.PerformAutomaticBackup()
	if _, err := ctx.Wishlist.Edit(ctx.Ctx(), ctx.Actor(), updated); err != nil {
		return err
	}
	ctx.Success("Updated wish: %s", updated.Name)
	return nil
}

type WishArchiveCmd struct {
	Ref string `arg:"" help:"Name or id."`
}

func (c *WishArchiveCmd) Run(ctx *cli.Context) error {
	return setArchived(ctx, c.Ref, true)
}

type WishUnarchiveCmd struct {
	Ref string `arg:"" help:"Name or id."`
}

func (c *WishUnarchiveCmd) Run(ctx *cli.Context) error {
	return setArchived(ctx, c.Ref, false)
}

func setArchived(ctx *cli.Context, ref string, archived bool) error {
	item, err := ctx.Wishlist.Resolve(ref)
	if err != nil {
		return err
	}
	ctx.PerformAutomaticBackup()
	if _, err := ctx.Wishlist.SetArchived(ctx.Ctx(), ctx.Actor(), item.ID, archived); err != nil {
		return err
	}
	if archived {
		ctx.Success("Archived wish: %s", item.Name)
	} else {
		ctx.Success("Restored wish: %s", item.Name)
	}
	return nil
}

type WishDeleteCmd struct {
	Ref string `arg:"" help:"Name or id."`
	Yes bool   `short:"y" help:"Do not ask for confirmation."`
}

func (c *WishDeleteCmd) Run(ctx *cli.Context) error {
	item, err := ctx.Wishlist.Resolve(c.Ref)
	if err != nil {
		return err
	}
	ok, err := cli.Confirm(fmt.Sprintf("Delete wish %q?", item.Name), "Past redemptions stay in the ledger.", c.Yes)
	if err != nil {
		return err
	}
	if !ok {
		ctx.Println("Delete cancelled.")
		return nil
	}

	ctx.PerformAutomaticBackup()
	if err := ctx.Wishlist.Delete(ctx.Ctx(), ctx.Actor(), item.ID); err != nil {
		return err
	}
	ctx.Success("Deleted wish: %s", item.Name)
	return nil
}
