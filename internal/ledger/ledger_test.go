package ledger

import (
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/coinlit/internal/clock"
	"github.com/julianstephens/coinlit/internal/constants"
	"github.com/julianstephens/coinlit/internal/errs"
	"github.com/julianstephens/coinlit/internal/helpers"
	"github.com/julianstephens/coinlit/internal/models"
	"github.com/julianstephens/coinlit/internal/permission"
	"github.com/julianstephens/coinlit/internal/state"
	"github.com/julianstephens/coinlit/internal/storage"
)

var now = time.Date(2026, time.October, 17, 9, 0, 0, 0, time.UTC)

func tx(amount int, txType constants.TransactionType, userID string, at time.Time) models.CoinTransaction {
	return models.NewTransaction(amount, txType, "test", "", userID, at)
}

func TestBalancePerUser(t *testing.T) {
	txs := []models.CoinTransaction{
		tx(10, constants.TxHabitCompletion, "a", now),
		tx(-4, constants.TxWishRedemption, "a", now),
		tx(7, constants.TxManualAdjustment, "b", now),
	}
	assert.Equal(t, 6, Balance(txs, "a"))
	assert.Equal(t, 7, Balance(txs, "b"))
	assert.Equal(t, 13, Balance(txs, ""))
	assert.Equal(t, 0, Balance(nil, "a"))
}

func TestSummarize(t *testing.T) {
	yesterday := now.Add(-24 * time.Hour)
	txs := []models.CoinTransaction{
		tx(10, constants.TxHabitCompletion, "a", now),
		tx(-10, constants.TxHabitUndo, "a", now),
		tx(5, constants.TxTaskCompletion, "a", now),
		tx(-3, constants.TxWishRedemption, "a", now),
		tx(20, constants.TxManualAdjustment, "a", yesterday),
		tx(-6, constants.TxManualAdjustment, "a", yesterday),
		tx(99, constants.TxManualAdjustment, "b", now),
		{ID: "broken", Amount: 1, Timestamp: "not a time", UserID: "a"},
	}

	got := Summarize(txs, "a", "UTC", civil.DateOf(now))
	assert.Equal(t, Summary{
		Balance:           17,
		EarnedToday:       5,
		SpentToday:        3,
		TotalEarned:       26,
		TotalSpent:        9,
		TransactionsToday: 4,
	}, got)
	assert.Equal(t, Balance(txs, "a"), got.Balance)
}

func TestSummarizeUsesTimezone(t *testing.T) {
	late := time.Date(2026, time.October, 16, 23, 30, 0, 0, time.UTC)
	txs := []models.CoinTransaction{tx(4, constants.TxHabitCompletion, "", late)}

	assert.Equal(t, 0, Summarize(txs, "", "UTC", civil.DateOf(now)).EarnedToday)
	assert.Equal(t, 4, Summarize(txs, "", "Asia/Tokyo", civil.DateOf(now)).EarnedToday)
}

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		in   float64
		want int
		ok   bool
	}{
		{1, 1, true},
		{2.6, 3, true},
		{1000, 1000, true},
		{999.6, 1000, true},
		{1000.4, 0, false},
		{1000.6, 0, false},
		{0.4, 0, false},
		{0, 0, false},
		{-5, 0, false},
		{1000000, 0, false},
		{math.NaN(), 0, false},
		{math.Inf(1), 0, false},
	}
	for _, tt := range tests {
		got, err := ValidateAmount(tt.in, 1000)
		if tt.ok {
			require.NoError(t, err, "amount %v", tt.in)
			assert.Equal(t, tt.want, got)
		} else {
			assert.True(t, errs.IsValidation(err), "amount %v", tt.in)
		}
	}
}

func setupService(t *testing.T) (*Service, *state.Store, *models.User) {
	t.Helper()
	s := state.New(storage.NewMemoryStore())
	require.NoError(t, s.Reload(helpers.TestCtx()))
	svc := NewService(s, permission.NewGuard(), clock.Fixed{At: now}, 0)
	t.Cleanup(svc.Close)
	return svc, s, s.ActiveUser()
}

func TestServiceAddRemove(t *testing.T) {
	ctx := helpers.TestCtx()
	svc, store, admin := setupService(t)

	added, err := svc.Add(ctx, admin, "", 50, "", "birthday")
	require.NoError(t, err)
	assert.Equal(t, 50, added.Amount)
	assert.Equal(t, admin.ID, added.UserID)
	assert.Equal(t, "birthday", added.Note)
	assert.Equal(t, constants.TxManualAdjustment, added.Type)

	removed, err := svc.Remove(ctx, admin, "", 20, "fine", "")
	require.NoError(t, err)
	assert.Equal(t, -20, removed.Amount)

	assert.Equal(t, 30, svc.Balance(admin.ID))
	assert.Equal(t, 30, store.Coins().Balance)
	assert.Equal(t, []string{removed.ID, added.ID}, ids(svc.Transactions(admin.ID)))
}

func TestServiceRemoveOverLimitRejected(t *testing.T) {
	ctx := helpers.TestCtx()
	svc, store, admin := setupService(t)

	_, err := svc.Remove(ctx, admin, "", 1000000, "too much", "")
	assert.True(t, errs.IsValidation(err))
	assert.Empty(t, store.Coins().Transactions)
	assert.Equal(t, constants.MaxCoinLimit, svc.Limit())
}

func TestServicePermissions(t *testing.T) {
	ctx := helpers.TestCtx()
	svc, store, _ := setupService(t)

	viewer := &models.User{ID: "v"}
	_, err := svc.Add(ctx, viewer, "", 5, "", "")
	assert.ErrorIs(t, err, errs.ErrPermissionDenied)
	_, err = svc.UpdateNote(ctx, viewer, "x", "hi")
	assert.ErrorIs(t, err, errs.ErrPermissionDenied)
	assert.Empty(t, store.Coins().Transactions)
}

func TestServiceUpdateNote(t *testing.T) {
	ctx := helpers.TestCtx()
	svc, store, admin := setupService(t)

	added, err := svc.Add(ctx, admin, "", 5, "", "")
	require.NoError(t, err)

	updated, err := svc.UpdateNote(ctx, admin, added.ID, "  for chores  ")
	require.NoError(t, err)
	assert.Equal(t, "for chores", updated.Note)
	assert.Equal(t, added.Amount, updated.Amount)

	updated, err = svc.UpdateNote(ctx, admin, added.ID, "   ")
	require.NoError(t, err)
	assert.Empty(t, updated.Note)
	assert.Empty(t, store.Coins().Transactions[0].Note)

	_, err = svc.UpdateNote(ctx, admin, "missing", "x")
	assert.True(t, errs.IsNotFound(err))
}

func TestServiceSummaryCacheMatchesDirect(t *testing.T) {
	ctx := helpers.TestCtx()
	svc, store, admin := setupService(t)

	_, err := svc.Add(ctx, admin, "", 8, "", "")
	require.NoError(t, err)
	first := svc.Summary(admin.ID)
	assert.Equal(t, 8, first.EarnedToday)

	// a commit invalidates the cached aggregates
	_, err = svc.Remove(ctx, admin, "", 3, "", "")
	require.NoError(t, err)
	cached := svc.Summary(admin.ID)
	direct := Summarize(store.Coins().Transactions, admin.ID, "UTC", civil.DateOf(now))
	assert.Equal(t, direct, cached)
	assert.Equal(t, 3, cached.SpentToday)

	_, err = svc.Add(ctx, admin, "other", 4, "", "")
	require.NoError(t, err)
	assert.Equal(t, 4, svc.Summary("other").Balance)
	assert.Equal(t, 5, svc.Summary(admin.ID).Balance)
}

func TestBalanceUnderConcurrentAdjustments(t *testing.T) {
	ctx := helpers.TestCtx()
	svc, store, admin := setupService(t)

	amounts := make([]int, 40)
	for i := range amounts {
		amounts[i] = rand.Intn(50) + 1
	}

	var wg sync.WaitGroup
	for i, n := range amounts {
		i, n := i, n
		wg.Add(1)
		go func() {
			defer wg.Done()
			var err error
			if i%3 == 0 {
				_, err = svc.Remove(ctx, admin, "", float64(n), "", "")
			} else {
				_, err = svc.Add(ctx, admin, "", float64(n), "", "")
			}
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	want := 0
	for i, n := range amounts {
		if i%3 == 0 {
			want -= n
		} else {
			want += n
		}
	}
	assert.Equal(t, want, svc.Balance(admin.ID))
	assert.Equal(t, want, store.Coins().Balance)
	assert.Len(t, store.Coins().Transactions, len(amounts))
}

func TestForItem(t *testing.T) {
	a := models.NewTransaction(5, constants.TxHabitCompletion, "", "h1", "", now)
	b := models.NewTransaction(-5, constants.TxHabitUndo, "", "h1", "", now)
	c := models.NewTransaction(3, constants.TxHabitCompletion, "", "h2", "", now)

	got := ForItem([]models.CoinTransaction{a, b, c}, "h1")
	assert.Equal(t, []string{a.ID, b.ID}, ids(got))
}

func ids(txs []models.CoinTransaction) []string {
	out := make([]string, 0, len(txs))
	for _, tx := range txs {
		out = append(out, tx.ID)
	}
	return out
}
