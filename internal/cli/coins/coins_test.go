package coins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/coinlit/internal/cli/clitest"
	"github.com/julianstephens/coinlit/internal/constants"
	"github.com/julianstephens/coinlit/internal/errs"
	"github.com/julianstephens/coinlit/internal/models"
)

func TestAddRemoveAndBalance(t *testing.T) {
	ctx, out, _ := clitest.New(t)

	require.NoError(t, (&CoinsAddCmd{Amount: 999.6, Flags: adjustFlags{Note: " gift "}}).Run(ctx))
	assert.Contains(t, out.String(), "Added 1,000 coins for admin")

	out.Reset()
	require.NoError(t, (&CoinsRemoveCmd{Amount: 250, Flags: adjustFlags{Description: "Snacks"}}).Run(ctx))
	assert.Contains(t, out.String(), "Removed 250 coins")
	assert.Contains(t, out.String(), "Balance: 750 coins")

	out.Reset()
	require.NoError(t, (&CoinsBalanceCmd{}).Run(ctx))
	s := out.String()
	assert.Contains(t, s, "Coins for admin")
	assert.Contains(t, s, "Balance:       750 coins")
	assert.Contains(t, s, "Earned today:  1,000")
	assert.Contains(t, s, "Spent today:   250")
	assert.Contains(t, s, "Transactions today: 2")

	txs := ctx.Store.Coins().Transactions
	require.Len(t, txs, 2)
	assert.Equal(t, "gift", txs[0].Note)
	assert.Equal(t, "Manual coin addition", txs[0].Description)
	assert.Equal(t, "Snacks", txs[1].Description)
}

func TestAdjustRejectsBadAmounts(t *testing.T) {
	ctx, _, _ := clitest.New(t)

	for _, amount := range []float64{0, -3, 0.4, 1000.4, 1000.6} {
		err := (&CoinsAddCmd{Amount: amount}).Run(ctx)
		assert.True(t, errs.IsValidation(err), "amount %v", amount)
	}
	assert.Empty(t, ctx.Store.Coins().Transactions)

	err := (&CoinsAddCmd{Amount: 5, Flags: adjustFlags{Account: "ghost"}}).Run(ctx)
	assert.True(t, errs.IsNotFound(err))
}

func TestHistoryAndNote(t *testing.T) {
	ctx, out, _ := clitest.New(t)

	out.Reset()
	require.NoError(t, (&CoinsHistoryCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "No transactions found.")

	require.NoError(t, (&CoinsAddCmd{Amount: 10, Flags: adjustFlags{Description: "First"}}).Run(ctx))
	require.NoError(t, (&CoinsAddCmd{Amount: 20, Flags: adjustFlags{Description: "Second"}}).Run(ctx))

	out.Reset()
	require.NoError(t, (&CoinsHistoryCmd{Limit: 1}).Run(ctx))
	assert.Contains(t, out.String(), "Second")
	assert.NotContains(t, out.String(), "First")
	assert.Contains(t, out.String(), "2026-10-17 09:00:00")

	id := ctx.Store.Coins().Transactions[0].ID
	require.NoError(t, (&CoinsNoteCmd{ID: id[:8], Note: "birthday"}).Run(ctx))
	assert.Equal(t, "birthday", ctx.Store.Coins().Transactions[0].Note)

	out.Reset()
	require.NoError(t, (&CoinsHistoryCmd{Limit: 0}).Run(ctx))
	assert.Contains(t, out.String(), "(birthday)")

	require.NoError(t, (&CoinsNoteCmd{ID: id}).Run(ctx))
	assert.Empty(t, ctx.Store.Coins().Transactions[0].Note)

	assert.True(t, errs.IsNotFound((&CoinsNoteCmd{ID: "nope", Note: "x"}).Run(ctx)))
}

func TestHistoryForItem(t *testing.T) {
	ctx, out, _ := clitest.New(t)
	_, err := ctx.Store.UpdateCoins(ctx.Ctx(), func(d models.CoinsData) (models.CoinsData, error) {
		d.Transactions = append(d.Transactions,
			models.NewTransaction(5, constants.TxHabitCompletion, "Completed habit: Read", "habit-1", ctx.ActorID(), clitest.Now),
			models.NewTransaction(7, constants.TxHabitCompletion, "Completed habit: Walk", "habit-2", ctx.ActorID(), clitest.Now),
		)
		return d, nil
	})
	require.NoError(t, err)

	require.NoError(t, (&CoinsHistoryCmd{Item: "habit-2"}).Run(ctx))
	assert.Contains(t, out.String(), "Walk")
	assert.NotContains(t, out.String(), "Read")
}
