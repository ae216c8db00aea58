package firestoredb

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/coinlit/internal/constants"
	"github.com/julianstephens/coinlit/internal/storage"
)

func TestNew(t *testing.T) {
	s := New("firestore://my-project/")
	assert.Equal(t, "my-project", s.projectID)
	assert.Equal(t, "firestore://my-project", s.GetConfigPath())
	assert.True(t, IsTarget("firestore://x"))
	assert.False(t, IsTarget("x.db"))
}

func TestNewWithOptions(t *testing.T) {
	s := New("firestore://my-project?database=coinlit&credentials=/etc/coinlit/sa.json")
	assert.Equal(t, "my-project", s.projectID)
	assert.Equal(t, "coinlit", s.database)
	assert.Equal(t, "/etc/coinlit/sa.json", s.credentials)
	assert.Len(t, s.clientOptions(), 1)
	assert.Equal(t, "firestore://my-project", s.GetConfigPath())

	assert.Empty(t, New("firestore://my-project").clientOptions())
}

func TestMissingProject(t *testing.T) {
	assert.Error(t, New("firestore://").Init())
}

func TestStoreDocumentsEmulator(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	ctx := context.Background()
	s := New("firestore://coinlit-test")
	require.NoError(t, s.Init())
	defer s.Close()

	_, _ = s.collection.Doc(string(constants.DomainSettings)).Delete(ctx)

	_, err := s.LoadDocument(ctx, constants.DomainSettings)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	body := `{"system":{"timezone":"Europe/Berlin","weekStartDay":1,"autoBackupEnabled":true,"language":"en"},"ui":{"useNumberFormatting":true,"useGrouping":false}}`
	require.NoError(t, s.SaveDocument(ctx, constants.DomainSettings, []byte(body)))

	got, err := s.LoadDocument(ctx, constants.DomainSettings)
	require.NoError(t, err)
	assert.JSONEq(t, body, string(got))
}
