// Package backend picks a storage.Provider from a configured target string.
package backend

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/julianstephens/coinlit/internal/keyring"
	"github.com/julianstephens/coinlit/internal/storage"
	"github.com/julianstephens/coinlit/internal/storage/firestoredb"
	"github.com/julianstephens/coinlit/internal/storage/mongodb"
	"github.com/julianstephens/coinlit/internal/storage/postgres"
	"github.com/julianstephens/coinlit/internal/storage/sqlite"
)

const (
	jsonScheme    = "json://"
	memoryTarget  = "memory:"
	keyringPrefix = "keyring:"
)

// ErrEmbeddedCredentials is returned for connection strings that carry a
// password outside the keyring.
var ErrEmbeddedCredentials = errors.New("connection strings must not embed passwords; store them with 'coinlit db set-credentials' and use keyring:<backend>")

// Open returns the provider for target:
//
//	~/.config/coinlit/coinlit.db   sqlite file (default)
//	postgres://user@host/db        PostgreSQL
//	mongodb://host/db              MongoDB
//	firestore://project            Cloud Firestore
//	json://~/coinlit-data          one JSON file per domain
//	keyring:postgres               connection string read from the OS keyring
//	memory:                        in-process, nothing persisted
func Open(target string) (storage.Provider, error) {
	target = strings.TrimSpace(target)

	if name, ok := strings.CutPrefix(target, keyringPrefix); ok {
		return openFromKeyring(keyring.Backend(name))
	}

	switch {
	case target == memoryTarget:
		return storage.NewMemoryStore(), nil
	case postgres.IsConnString(target):
		if _, err := postgres.ValidateConnString(target); err != nil {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, ErrEmbeddedCredentials
			}
			return nil, err
		}
		return postgres.New(target), nil
	case mongodb.IsURI(target):
		if hasPassword(target) {
			return nil, ErrEmbeddedCredentials
		}
		return mongodb.New(target), nil
	case firestoredb.IsTarget(target):
		return firestoredb.New(target), nil
	case strings.HasPrefix(target, jsonScheme):
		dir, err := ExpandPath(strings.TrimPrefix(target, jsonScheme))
		if err != nil {
			return nil, err
		}
		return storage.NewJSONStore(dir), nil
	case target == "":
		return nil, fmt.Errorf("no storage target configured")
	default:
		path, err := ExpandPath(target)
		if err != nil {
			return nil, err
		}
		return sqlite.NewStore(path), nil
	}
}

func openFromKeyring(b keyring.Backend) (storage.Provider, error) {
	connStr, err := keyring.GetConnectionString(b)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s credentials: %w", b, err)
	}
	switch b {
	case keyring.Postgres:
		return postgres.New(connStr), nil
	case keyring.MongoDB:
		return mongodb.New(connStr), nil
	default:
		return nil, fmt.Errorf("unsupported keyring backend %q", b)
	}
}

func hasPassword(uri string) bool {
	u, err := url.Parse(uri)
	if err != nil || u.User == nil {
		return false
	}
	_, set := u.User.Password()
	return set
}

// ExpandPath resolves a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
