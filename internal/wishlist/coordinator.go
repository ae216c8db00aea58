// Package wishlist manages wishlist items and redeems them against the coin
// ledger.
package wishlist

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/julianstephens/coinlit/internal/clock"
	"github.com/julianstephens/coinlit/internal/constants"
	"github.com/julianstephens/coinlit/internal/errs"
	"github.com/julianstephens/coinlit/internal/helpers"
	"github.com/julianstephens/coinlit/internal/ledger"
	"github.com/julianstephens/coinlit/internal/logger"
	"github.com/julianstephens/coinlit/internal/models"
	"github.com/julianstephens/coinlit/internal/permission"
	"github.com/julianstephens/coinlit/internal/state"
)

// OutcomeKind is the result of a redemption attempt.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomePermissionDenied
	OutcomeLimitReached
	OutcomeInsufficientBalance
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "redeemed"
	case OutcomePermissionDenied:
		return "permission denied"
	case OutcomeLimitReached:
		return "redemption limit reached"
	case OutcomeInsufficientBalance:
		return "insufficient balance"
	default:
		return "unknown"
	}
}

// Outcome describes a redemption attempt. Shortfall is set only for
// OutcomeInsufficientBalance; Transaction only for OutcomeSuccess.
type Outcome struct {
	Kind        OutcomeKind
	Shortfall   int
	Item        models.WishlistItem
	Transaction *models.CoinTransaction
}

// Coordinator redeems wishlist items and edits the wishlist.
type Coordinator struct {
	store *state.Store
	guard *permission.Guard
	clock clock.Clock
}

func NewCoordinator(store *state.Store, guard *permission.Guard, clk clock.Clock) *Coordinator {
	return &Coordinator{store: store, guard: guard, clock: clk}
}

// CanRedeem reports whether userID can afford cost.
func (c *Coordinator) CanRedeem(cost int, userID string) bool {
	return ledger.Balance(c.store.Coins().Transactions, userID) >= cost
}

// Redeem debits the actor and advances the item's redemption limit. The
// ledger is written first, then the wishlist; a failure of the second write
// leaves the debit in place and is returned.
func (c *Coordinator) Redeem(ctx context.Context, actor *models.User, itemID string) (Outcome, error) {
	if err := c.guard.Require(actor, constants.ResourceWishlist, constants.ActionInteract); err != nil {
		logger.FromContext(ctx).Debug("Redemption denied", "item", itemID)
		return Outcome{Kind: OutcomePermissionDenied}, nil
	}

	item, _, ok := c.store.Wishlist().Find(itemID)
	if !ok {
		return Outcome{}, errs.NewNotFoundError(fmt.Sprintf("wishlist item %s not found", itemID))
	}
	if item.Archived {
		return Outcome{Item: item}, errs.NewValidationError(fmt.Sprintf("wishlist item %q is archived", item.Name))
	}
	if item.TargetCompletions != nil && *item.TargetCompletions <= 0 {
		return Outcome{Kind: OutcomeLimitReached, Item: item}, nil
	}

	tx := models.NewTransaction(
		-item.CoinCost,
		constants.TxWishRedemption,
		fmt.Sprintf("Redeemed reward: %s", item.Name),
		item.ID,
		actor.ID,
		c.clock.Now(),
	)

	shortfall := 0
	_, err := c.store.UpdateCoins(ctx, func(d models.CoinsData) (models.CoinsData, error) {
		balance := ledger.Balance(d.Transactions, actor.ID)
		if balance < item.CoinCost {
			shortfall = item.CoinCost - balance
			return d, errInsufficient
		}
		txs := make([]models.CoinTransaction, 0, len(d.Transactions)+1)
		txs = append(txs, d.Transactions...)
		txs = append(txs, tx)
		return models.CoinsData{Transactions: txs}, nil
	})
	if errors.Is(err, errInsufficient) {
		return Outcome{Kind: OutcomeInsufficientBalance, Shortfall: shortfall, Item: item}, nil
	}
	if err != nil {
		return Outcome{}, err
	}

	if item.TargetCompletions == nil {
		return Outcome{Kind: OutcomeSuccess, Item: item, Transaction: &tx}, nil
	}

	updated, err := c.modify(ctx, item.ID, func(w models.WishlistItem) models.WishlistItem {
		if w.TargetCompletions == nil {
			return w
		}
		remaining := *w.TargetCompletions - 1
		if remaining <= 0 {
			w.TargetCompletions = nil
			w.Archived = true
		} else {
			w.TargetCompletions = &remaining
		}
		return w
	})
	if err != nil {
		return Outcome{Kind: OutcomeSuccess, Item: item, Transaction: &tx}, fmt.Errorf("coins debited but item was not updated: %w", err)
	}

	logger.FromContext(ctx).Debug("Redeemed", "item", updated.Name, "archived", updated.Archived)
	return Outcome{Kind: OutcomeSuccess, Item: updated, Transaction: &tx}, nil
}

var errInsufficient = errors.New("insufficient balance")

// List returns items visible to userID.
func (c *Coordinator) List(userID string, includeArchived bool) []models.WishlistItem {
	var out []models.WishlistItem
	for _, item := range c.store.Wishlist().Items {
		if !item.VisibleTo(userID) || (item.Archived && !includeArchived) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// Resolve finds an item by id, id prefix, or case-insensitive name.
func (c *Coordinator) Resolve(ref string) (models.WishlistItem, error) {
	items := c.store.Wishlist().Items
	if item, _, ok := c.store.Wishlist().Find(ref); ok {
		return item, nil
	}
	var matches []models.WishlistItem
	for _, item := range items {
		if strings.EqualFold(item.Name, ref) || (len(ref) >= 4 && strings.HasPrefix(item.ID, ref)) {
			matches = append(matches, item)
		}
	}
	switch len(matches) {
	case 0:
		names := make([]string, 0, len(items))
		for _, item := range items {
			names = append(names, item.Name)
		}
		return models.WishlistItem{}, errs.NewNotFoundError(helpers.NotFoundMessage("wishlist item", ref, names))
	case 1:
		return matches[0], nil
	default:
		return models.WishlistItem{}, errs.NewValidationError(fmt.Sprintf("%q matches %d items, use the id", ref, len(matches)))
	}
}

func validate(item models.WishlistItem) error {
	if strings.TrimSpace(item.Name) == "" {
		return errs.NewValidationError("name is required")
	}
	if item.CoinCost < 0 {
		return errs.NewValidationError("coin cost must not be negative")
	}
	if item.TargetCompletions != nil && *item.TargetCompletions < 1 {
		return errs.NewValidationError("redemption limit must be at least 1")
	}
	return nil
}

// Add creates an item.
func (c *Coordinator) Add(ctx context.Context, actor *models.User, item models.WishlistItem) (models.WishlistItem, error) {
	if err := c.guard.Require(actor, constants.ResourceWishlist, constants.ActionWrite); err != nil {
		return models.WishlistItem{}, err
	}
	if err := validate(item); err != nil {
		return models.WishlistItem{}, err
	}
	item = item.Clone()
	item.Name = strings.TrimSpace(item.Name)
	if item.ID == "" {
		item.ID = models.NewWishlistItem(item.Name, item.CoinCost).ID
	}

	_, err := c.store.UpdateWishlist(ctx, func(d models.WishlistData) (models.WishlistData, error) {
		if _, _, exists := d.Find(item.ID); exists {
			return d, errs.NewValidationError(fmt.Sprintf("wishlist item %s already exists", item.ID))
		}
		items := make([]models.WishlistItem, 0, len(d.Items)+1)
		items = append(items, d.Items...)
		items = append(items, item)
		return models.WishlistData{Items: items}, nil
	})
	if err != nil {
		return models.WishlistItem{}, err
	}
	return item, nil
}

// Edit replaces an existing item.
func (c *Coordinator) Edit(ctx context.Context, actor *models.User, item models.WishlistItem) (models.WishlistItem, error) {
	if err := c.guard.Require(actor, constants.ResourceWishlist, constants.ActionWrite); err != nil {
		return models.WishlistItem{}, err
	}
	if err := validate(item); err != nil {
		return models.WishlistItem{}, err
	}
	return c.modify(ctx, item.ID, func(models.WishlistItem) models.WishlistItem {
		return item.Clone()
	})
}

// SetArchived archives or restores an item.
func (c *Coordinator) SetArchived(ctx context.Context, actor *models.User, id string, archived bool) (models.WishlistItem, error) {
	if err := c.guard.Require(actor, constants.ResourceWishlist, constants.ActionWrite); err != nil {
		return models.WishlistItem{}, err
	}
	return c.modify(ctx, id, func(w models.WishlistItem) models.WishlistItem {
		w.Archived = archived
		return w
	})
}

// Delete removes an item permanently. Its redemptions stay in the ledger.
func (c *Coordinator) Delete(ctx context.Context, actor *models.User, id string) error {
	if err := c.guard.Require(actor, constants.ResourceWishlist, constants.ActionWrite); err != nil {
		return err
	}
	_, err := c.store.UpdateWishlist(ctx, func(d models.WishlistData) (models.WishlistData, error) {
		_, idx, ok := d.Find(id)
		if !ok {
			return d, errs.NewNotFoundError(fmt.Sprintf("wishlist item %s not found", id))
		}
		return models.WishlistData{Items: slices.Delete(slices.Clone(d.Items), idx, idx+1)}, nil
	})
	return err
}

func (c *Coordinator) modify(ctx context.Context, id string, fn func(models.WishlistItem) models.WishlistItem) (models.WishlistItem, error) {
	var updated models.WishlistItem
	_, err := c.store.UpdateWishlist(ctx, func(d models.WishlistData) (models.WishlistData, error) {
		item, idx, ok := d.Find(id)
		if !ok {
			return d, errs.NewNotFoundError(fmt.Sprintf("wishlist item %s not found", id))
		}
		updated = fn(item.Clone())
		items := slices.Clone(d.Items)
		items[idx] = updated
		return models.WishlistData{Items: items}, nil
	})
	if err != nil {
		return models.WishlistItem{}, err
	}
	return updated, nil
}
