package logger

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitCreatesLogDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(Config{ConfigDir: dir}))
	t.Cleanup(func() { Logger = nil })

	info, err := os.Stat(filepath.Join(dir, "logs"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, log.WarnLevel, Logger.GetLevel())
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, log.DebugLevel, false)

	ctx := ToContext(context.Background(), l)
	FromContext(ctx).Info("hello", "k", "v")
	assert.Contains(t, buf.String(), "hello")

	scoped, _ := With(ctx, "habit", "h1")
	scoped.Info("scoped")
	assert.True(t, strings.Contains(buf.String(), "habit=h1"))
}

func TestFromContextNeverNil(t *testing.T) {
	prev := Logger
	Logger = nil
	t.Cleanup(func() { Logger = prev })

	assert.NotNil(t, FromContext(context.Background()))
	assert.NotNil(t, FromContext(nil)) //nolint:staticcheck
}
