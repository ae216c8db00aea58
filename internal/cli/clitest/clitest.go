// Package clitest builds command contexts backed by in-memory storage.
package clitest

import (
	"bytes"
	"testing"
	"time"

	"github.com/julianstephens/coinlit/internal/cli"
	"github.com/julianstephens/coinlit/internal/clock"
	"github.com/julianstephens/coinlit/internal/config"
	"github.com/julianstephens/coinlit/internal/constants"
	"github.com/julianstephens/coinlit/internal/helpers"
	"github.com/julianstephens/coinlit/internal/storage"
)

// Now is the instant New fixes the clock at.
var Now = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

// New returns a loaded context acting as the default admin. Command output
// goes to the returned buffer.
func New(t testing.TB) (*cli.Context, *bytes.Buffer, *storage.MemoryStore) {
	t.Helper()
	provider := storage.NewMemoryStore()
	cfg := &config.Config{
		Storage:      "memory:",
		MaxCoinLimit: constants.MaxCoinLimit,
		ConfigDir:    t.TempDir(),
	}
	ctx := cli.New(helpers.TestCtx(), cfg, provider, &clock.Fixed{At: Now})

	var out bytes.Buffer
	ctx.Out = &out
	if err := ctx.Load(); err != nil {
		t.Fatalf("failed to load context: %v", err)
	}
	t.Cleanup(func() { _ = ctx.Close() })
	return ctx, &out, provider
}
