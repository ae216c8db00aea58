// Package keyring keeps password-bearing connection strings out of config
// files by storing them in the OS keyring.
package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/coinlit/internal/constants"
)

// Backend names a storage backend whose connection string may live in the keyring.
type Backend string

const (
	Postgres Backend = "postgres"
	MongoDB  Backend = "mongodb"
)

var (
	// ErrNotFound is returned when no credentials are stored for a backend
	ErrNotFound = errors.New("credentials not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring cannot be reached
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

func user(b Backend) string {
	return string(b) + "-" + constants.DefaultKeyringUser
}

// GetConnectionString returns the stored connection string for b.
func GetConnectionString(b Backend) (string, error) {
	connStr, err := keyring.Get(constants.AppName, user(b))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return connStr, nil
}

// SetConnectionString stores connStr for b.
func SetConnectionString(b Backend, connStr string) error {
	if connStr == "" {
		return errors.New("connection string cannot be empty")
	}
	if err := keyring.Set(constants.AppName, user(b), connStr); err != nil {
		return fmt.Errorf("failed to store credentials in keyring: %w", err)
	}
	return nil
}

// DeleteConnectionString removes the stored connection string for b.
func DeleteConnectionString(b Backend) error {
	if err := keyring.Delete(constants.AppName, user(b)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete credentials from keyring: %w", err)
	}
	return nil
}

// IsAvailable is a best-effort probe of the OS keyring.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
