package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/coinlit/internal/constants"
	"github.com/julianstephens/coinlit/internal/storage"
)

func setupTestSQLiteStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "coinlit.db"))
	require.NoError(t, store.Init())
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreDocuments(t *testing.T) {
	ctx := context.Background()
	store := setupTestSQLiteStore(t)

	_, err := store.LoadDocument(ctx, constants.DomainCoins)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.SaveDocument(ctx, constants.DomainCoins, []byte(`{"balance":5,"transactions":[]}`)))
	require.NoError(t, store.SaveDocument(ctx, constants.DomainCoins, []byte(`{"balance":7,"transactions":[]}`)))

	got, err := store.LoadDocument(ctx, constants.DomainCoins)
	require.NoError(t, err)
	assert.JSONEq(t, `{"balance":7,"transactions":[]}`, string(got))
}

func TestStoreReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "coinlit.db")

	first := NewStore(path)
	require.NoError(t, first.Init())
	require.NoError(t, first.SaveDocument(ctx, constants.DomainHabits, []byte(`{"habits":[]}`)))
	require.NoError(t, first.Close())

	second := NewStore(path)
	require.NoError(t, second.Load())
	defer second.Close()

	got, err := second.LoadDocument(ctx, constants.DomainHabits)
	require.NoError(t, err)
	assert.JSONEq(t, `{"habits":[]}`, string(got))
	assert.Equal(t, path, second.GetConfigPath())
	assert.NotNil(t, second.GetDB())
}

func TestLoadBeforeInit(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.db"))
	assert.ErrorIs(t, store.Load(), storage.ErrNotInitialized)
}

func TestInitIsIdempotent(t *testing.T) {
	store := setupTestSQLiteStore(t)
	require.NoError(t, store.Init())

	exists, err := store.tableExists(context.Background(), "DOCUMENTS")
	require.NoError(t, err)
	assert.True(t, exists)
}
