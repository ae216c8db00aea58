package state

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/coinlit/internal/constants"
	"github.com/julianstephens/coinlit/internal/helpers"
	"github.com/julianstephens/coinlit/internal/models"
	"github.com/julianstephens/coinlit/internal/recurrence"
	"github.com/julianstephens/coinlit/internal/storage"
)

func newTestStore(t *testing.T) (*Store, *storage.MemoryStore) {
	t.Helper()
	mem := storage.NewMemoryStore()
	s := New(mem)
	require.NoError(t, s.Reload(helpers.TestCtx()))
	return s, mem
}

func addHabit(name string) func(models.HabitsData) (models.HabitsData, error) {
	return func(d models.HabitsData) (models.HabitsData, error) {
		next := append([]models.Habit(nil), d.Habits...)
		next = append(next, models.NewHabit(name, recurrence.Parse("daily"), 1))
		return models.HabitsData{Habits: next}, nil
	}
}

func TestReloadDefaults(t *testing.T) {
	s, mem := newTestStore(t)

	assert.Empty(t, s.Habits().Habits)
	assert.Equal(t, 0, s.Coins().Balance)
	assert.Equal(t, constants.DefaultTimezone, s.Settings().System.Timezone)

	admin := s.ActiveUser()
	require.NotNil(t, admin)
	assert.True(t, admin.IsAdmin)

	// default admin is persisted so its id survives a restart
	_, err := mem.LoadDocument(context.Background(), constants.DomainAuth)
	require.NoError(t, err)
	other := New(mem)
	require.NoError(t, other.Reload(helpers.TestCtx()))
	assert.Equal(t, admin.ID, other.ActiveUser().ID)
}

func TestReloadReconcilesBalance(t *testing.T) {
	mem := storage.NewMemoryStore()
	mem.Put(constants.DomainCoins, []byte(`{"balance":999,"transactions":[{"id":"a","amount":10},{"id":"b","amount":-3}]}`))

	s := New(mem)
	require.NoError(t, s.Reload(helpers.TestCtx()))
	assert.Equal(t, 7, s.Coins().Balance)
}

func TestReloadDecodeError(t *testing.T) {
	mem := storage.NewMemoryStore()
	mem.Put(constants.DomainHabits, []byte(`{not json`))
	assert.Error(t, New(mem).Reload(helpers.TestCtx()))
}

func TestUpdatePersistsAndNotifies(t *testing.T) {
	ctx := helpers.TestCtx()
	s, mem := newTestStore(t)

	var seen []constants.Domain
	unsubscribe := s.Subscribe(func(d constants.Domain) { seen = append(seen, d) })

	before := s.Habits()
	_, err := s.UpdateHabits(ctx, addHabit("Walk"))
	require.NoError(t, err)

	assert.Empty(t, before.Habits, "earlier snapshot must not change")
	assert.Len(t, s.Habits().Habits, 1)
	assert.Contains(t, seen, constants.DomainHabits)

	data, err := mem.LoadDocument(ctx, constants.DomainHabits)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name":"Walk"`)

	unsubscribe()
	seen = nil
	_, err = s.UpdateHabits(ctx, addHabit("Read"))
	require.NoError(t, err)
	assert.Empty(t, seen)
}

func TestUpdateCoinsRecomputesBalance(t *testing.T) {
	ctx := helpers.TestCtx()
	s, _ := newTestStore(t)

	got, err := s.UpdateCoins(ctx, func(c models.CoinsData) (models.CoinsData, error) {
		c.Transactions = append(append([]models.CoinTransaction(nil), c.Transactions...), models.CoinTransaction{ID: "x", Amount: 12})
		c.Balance = 1_000_000
		return c, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 12, got.Balance)
	assert.Equal(t, 12, s.Coins().Balance)
}

func TestUpdateFnErrorLeavesState(t *testing.T) {
	ctx := helpers.TestCtx()
	s, mem := newTestStore(t)
	boom := errors.New("rejected")

	_, err := s.UpdateHabits(ctx, func(models.HabitsData) (models.HabitsData, error) { return models.HabitsData{}, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, mem.SaveCalls(constants.DomainHabits))
}

func TestFailedSaveReverts(t *testing.T) {
	ctx := helpers.TestCtx()
	s, mem := newTestStore(t)
	_, err := s.UpdateHabits(ctx, addHabit("Walk"))
	require.NoError(t, err)

	boom := errors.New("disk full")
	mem.FailSave(constants.DomainHabits, boom)

	_, err = s.UpdateHabits(ctx, addHabit("Read"))
	assert.ErrorIs(t, err, boom)
	assert.Len(t, s.Habits().Habits, 1)
	assert.Empty(t, s.Dirty())
	assert.False(t, s.Pending(constants.DomainHabits))
}

// gatedProvider blocks the first habits save until released.
type gatedProvider struct {
	*storage.MemoryStore
	once    sync.Once
	entered chan struct{}
	release chan struct{}
	err     error
}

func (g *gatedProvider) SaveDocument(ctx context.Context, domain constants.Domain, data []byte) error {
	blocked := false
	if domain == constants.DomainHabits {
		g.once.Do(func() { blocked = true })
	}
	if blocked {
		close(g.entered)
		<-g.release
		return g.err
	}
	return g.MemoryStore.SaveDocument(ctx, domain, data)
}

func TestFailedSaveAfterNewerCommitMarksDirty(t *testing.T) {
	ctx := helpers.TestCtx()
	mem := storage.NewMemoryStore()
	mem.Put(constants.DomainAuth, []byte(`{"users":[{"id":"u1","username":"admin","isAdmin":true}]}`))
	gp := &gatedProvider{
		MemoryStore: mem,
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
		err:         errors.New("network down"),
	}
	s := New(gp)
	require.NoError(t, s.Reload(ctx))

	firstErr := make(chan error, 1)
	go func() {
		_, err := s.UpdateHabits(ctx, addHabit("Walk"))
		firstErr <- err
	}()

	<-gp.entered
	assert.True(t, s.Pending(constants.DomainHabits))

	// second commit reads the optimistic value and succeeds
	_, err := s.UpdateHabits(ctx, addHabit("Read"))
	require.NoError(t, err)
	assert.Len(t, s.Habits().Habits, 2)

	close(gp.release)
	assert.Error(t, <-firstErr)

	assert.Len(t, s.Habits().Habits, 2, "newer commit is not clobbered")
	assert.Equal(t, []constants.Domain{constants.DomainHabits}, s.Dirty())

	require.NoError(t, s.Reload(ctx))
	assert.Empty(t, s.Dirty())
	assert.Len(t, s.Habits().Habits, 2)
}

func TestSetActiveUser(t *testing.T) {
	mem := storage.NewMemoryStore()
	mem.Put(constants.DomainAuth, []byte(`{"users":[{"id":"a","username":"admin","isAdmin":true},{"id":"k","username":"kid"}]}`))
	s := New(mem)
	require.NoError(t, s.Reload(helpers.TestCtx()))

	assert.Equal(t, "a", s.ActiveUser().ID)
	require.NoError(t, s.SetActiveUser("kid"))
	assert.Equal(t, "k", s.ActiveUser().ID)
	assert.Error(t, s.SetActiveUser("nobody"))
}

func TestVersionAdvances(t *testing.T) {
	ctx := helpers.TestCtx()
	s, _ := newTestStore(t)
	v := s.Version(constants.DomainWishlist)
	_, err := s.UpdateWishlist(ctx, func(d models.WishlistData) (models.WishlistData, error) {
		return models.WishlistData{Items: []models.WishlistItem{models.NewWishlistItem("Book", 10)}}, nil
	})
	require.NoError(t, err)
	assert.Greater(t, s.Version(constants.DomainWishlist), v)
}
