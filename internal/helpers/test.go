package helpers

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/julianstephens/coinlit/internal/logger"
)

// TestCtx returns a context carrying a discarding logger.
func TestCtx() context.Context {
	return logger.ToContext(context.Background(), logger.New(io.Discard, log.DebugLevel, false))
}
