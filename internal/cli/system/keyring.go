package system

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/coinlit/internal/cli"
	"github.com/julianstephens/coinlit/internal/keyring"
	"github.com/julianstephens/coinlit/internal/storage/mongodb"
	"github.com/julianstephens/coinlit/internal/storage/postgres"
)

type DBCmd struct {
	SetCredentials   DBSetCredentialsCmd   `cmd:"" help:"Store a database connection string in the OS keyring."`
	ClearCredentials DBClearCredentialsCmd `cmd:"" help:"Remove a stored connection string."`
	Status           DBStatusCmd           `cmd:"" help:"Show keyring availability and stored credentials."`
}

// DBSetCredentialsCmd stores a connection string in the OS keyring
type DBSetCredentialsCmd struct {
	Backend          string `arg:"" enum:"postgres,mongodb" help:"Backend: postgres or mongodb."`
	ConnectionString string `arg:"" help:"Connection string, password included."`
}

func (cmd *DBSetCredentialsCmd) Run(ctx *cli.Context) error {
	b := keyring.Backend(cmd.Backend)
	switch b {
	case keyring.Postgres:
		if !postgres.IsConnString(cmd.ConnectionString) {
			return errors.New("connection string must be a valid PostgreSQL connection string")
		}
	case keyring.MongoDB:
		if !mongodb.IsURI(cmd.ConnectionString) {
			return errors.New("connection string must be a mongodb:// or mongodb+srv:// URI")
		}
	}

	if err := keyring.SetConnectionString(b, cmd.ConnectionString); err != nil {
		return fmt.Errorf("failed to store connection string in keyring: %w", err)
	}

	ctx.Success("Connection string for %s stored in OS keyring", b)
	ctx.Printf("  Use it with --storage keyring:%s\n", b)
	return nil
}

// DBClearCredentialsCmd removes a stored connection string
type DBClearCredentialsCmd struct {
	Backend string `arg:"" enum:"postgres,mongodb" help:"Backend: postgres or mongodb."`
}

func (cmd *DBClearCredentialsCmd) Run(ctx *cli.Context) error {
	err := keyring.DeleteConnectionString(keyring.Backend(cmd.Backend))
	if errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("no %s connection string found in keyring", cmd.Backend)
	}
	if err != nil {
		return err
	}
	ctx.Success("Connection string for %s deleted from OS keyring", cmd.Backend)
	return nil
}

// DBStatusCmd reports keyring availability
type DBStatusCmd struct{}

func (cmd *DBStatusCmd) Run(ctx *cli.Context) error {
	ctx.Printf("Storage: %s\n", maskPassword(ctx.Config.Storage))
	if !keyring.IsAvailable() {
		ctx.Println("❌ OS keyring is not available on this system")
		return errors.New("keyring unavailable")
	}
	ctx.Println("✓ OS keyring is available")

	for _, b := range []keyring.Backend{keyring.Postgres, keyring.MongoDB} {
		connStr, err := keyring.GetConnectionString(b)
		switch {
		case err == nil:
			ctx.Printf("✓ %s: %s\n", b, maskPassword(connStr))
		case errors.Is(err, keyring.ErrNotFound):
			ctx.Printf("ℹ %s: no connection string stored\n", b)
		default:
			ctx.Printf("❌ %s: %v\n", b, err)
		}
	}
	return nil
}

// maskPassword masks passwords in URL and key=value connection strings.
func maskPassword(connStr string) string {
	if idx := strings.Index(connStr, "://"); idx != -1 {
		remaining := connStr[idx+3:]
		if atIdx := strings.LastIndex(remaining, "@"); atIdx != -1 {
			userInfo := remaining[:atIdx]
			if colonIdx := strings.Index(userInfo, ":"); colonIdx != -1 {
				return connStr[:idx+3] + userInfo[:colonIdx] + ":****" + connStr[idx+3+atIdx:]
			}
		}
	}

	if strings.Contains(connStr, "password=") {
		parts := strings.Fields(connStr)
		masked := make([]string, 0, len(parts))
		for _, part := range parts {
			if strings.HasPrefix(part, "password=") {
				masked = append(masked, "password=****")
			} else {
				masked = append(masked, part)
			}
		}
		return strings.Join(masked, " ")
	}

	return connStr
}
