// Package storage defines the document persistence collaborator. Every
// backend stores one JSON document per domain and is atomic per call only.
package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/julianstephens/coinlit/internal/constants"
)

// ErrNotFound is returned by LoadDocument when a domain was never saved.
var ErrNotFound = errors.New("document not found")

// ErrNotInitialized is returned by Load when the backing store does not exist yet.
var ErrNotInitialized = errors.New("storage not initialized, run 'coinlit init' first")

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Documents
	LoadDocument(ctx context.Context, domain constants.Domain) ([]byte, error)
	SaveDocument(ctx context.Context, domain constants.Domain, data []byte) error

	// Utils
	GetConfigPath() string
}

// SQLProvider is implemented by backends built on database/sql.
type SQLProvider interface {
	Provider
	GetDB() *sql.DB
}
