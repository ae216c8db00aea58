// Package backup snapshots the sqlite database into a rotating set of files
// next to it.
package backup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/coinlit/internal/clock"
	"github.com/julianstephens/coinlit/internal/constants"
	"github.com/julianstephens/coinlit/internal/logger"
	"github.com/julianstephens/coinlit/internal/storage"
	"github.com/julianstephens/coinlit/internal/storage/sqlite"
)

const stampLayout = "20060102-150405"

// ErrUnsupported is returned for storage backends that are not a local sqlite file.
var ErrUnsupported = errors.New("backups are only supported for sqlite storage")

type Info struct {
	Path      string
	Timestamp time.Time
	Size      int64
}

// Manager creates, lists and restores backups of one database file.
type Manager struct {
	dbPath    string
	backupDir string
	keep      int
	clock     clock.Clock
}

func NewManager(dbPath string, clk clock.Clock) *Manager {
	return &Manager{
		dbPath:    dbPath,
		backupDir: filepath.Join(filepath.Dir(dbPath), constants.BackupDirName),
		keep:      constants.MaxBackups,
		clock:     clk,
	}
}

// ForProvider returns a manager for p, or ErrUnsupported.
func ForProvider(p storage.Provider, clk clock.Clock) (*Manager, error) {
	store, ok := p.(*sqlite.Store)
	if !ok {
		return nil, ErrUnsupported
	}
	return NewManager(store.GetConfigPath(), clk), nil
}

func (m *Manager) Dir() string {
	return m.backupDir
}

// Create writes a new backup and prunes all but the newest MaxBackups.
func (m *Manager) Create(ctx context.Context) (Info, error) {
	info, err := m.create(ctx)
	if err != nil {
		return Info{}, err
	}
	if err := m.rotate(); err != nil {
		logger.FromContext(ctx).Warn("Failed to rotate old backups", "error", err)
	}
	return info, nil
}

func (m *Manager) create(ctx context.Context) (Info, error) {
	if err := os.MkdirAll(m.backupDir, 0700); err != nil {
		return Info{}, fmt.Errorf("failed to create backup directory: %w", err)
	}
	if _, err := os.Stat(m.dbPath); err != nil {
		return Info{}, fmt.Errorf("database does not exist: %s", m.dbPath)
	}

	now := m.clock.Now().UTC()
	base := constants.BackupFilePrefix + now.Format(stampLayout)
	path := filepath.Join(m.backupDir, base+constants.BackupFileSuffix)
	for n := 1; fileExists(path); n++ {
		if n > 100 {
			return Info{}, fmt.Errorf("failed to generate unique backup filename")
		}
		path = filepath.Join(m.backupDir, fmt.Sprintf("%s-%d%s", base, n, constants.BackupFileSuffix))
	}

	if err := m.vacuumInto(ctx, path); err != nil {
		return Info{}, fmt.Errorf("failed to backup database: %w", err)
	}

	st, err := os.Stat(path)
	if err != nil {
		return Info{}, err
	}
	logger.FromContext(ctx).Debug("Created backup", "path", path)
	return Info{Path: path, Timestamp: now, Size: st.Size()}, nil
}

func (m *Manager) vacuumInto(ctx context.Context, dest string) error {
	db, err := sql.Open("sqlite", "file:"+m.dbPath+"?mode=ro")
	if err != nil {
		return fmt.Errorf("failed to open source database: %w", err)
	}
	defer db.Close()

	if err := verify(ctx, db); err != nil {
		return fmt.Errorf("source database is not usable: %w", err)
	}
	if _, err := db.ExecContext(ctx, "VACUUM INTO ?", dest); err != nil {
		return err
	}
	return nil
}

// List returns the backups newest first. Files that do not carry a valid
// timestamp are ignored.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.backupDir)
	if errors.Is(err, os.ErrNotExist) {
		return []Info{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []Info{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ts, ok := parseName(entry.Name())
		if !ok {
			continue
		}
		st, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, Info{
			Path:      filepath.Join(m.backupDir, entry.Name()),
			Timestamp: ts,
			Size:      st.Size(),
		})
	}

	slices.SortStableFunc(backups, func(a, b Info) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return strings.Compare(b.Path, a.Path)
	})
	return backups, nil
}

// parseName extracts the timestamp of coinlit-YYYYMMDD-HHMMSS[-N].db.
func parseName(name string) (time.Time, bool) {
	stamp, ok := strings.CutPrefix(name, constants.BackupFilePrefix)
	if !ok {
		return time.Time{}, false
	}
	stamp, ok = strings.CutSuffix(stamp, constants.BackupFileSuffix)
	if !ok {
		return time.Time{}, false
	}
	if len(stamp) > len(stampLayout) {
		counter, found := strings.CutPrefix(stamp[len(stampLayout):], "-")
		if _, err := strconv.Atoi(counter); !found || err != nil {
			return time.Time{}, false
		}
		stamp = stamp[:len(stampLayout)]
	}
	ts, err := time.Parse(stampLayout, stamp)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

func (m *Manager) rotate() error {
	backups, err := m.List()
	if err != nil {
		return err
	}
	if len(backups) <= m.keep {
		return nil
	}
	for _, b := range backups[m.keep:] {
		if err := os.Remove(b.Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", b.Path, err)
		}
	}
	return nil
}

// Restore replaces the database with backupPath. The current database is
// backed up first without rotation. Callers must close any open handle on
// the database before restoring and reload state afterwards.
func (m *Manager) Restore(ctx context.Context, backupPath string) (safety *Info, err error) {
	if !fileExists(backupPath) {
		return nil, fmt.Errorf("backup file does not exist: %s", backupPath)
	}
	if err := verifyFile(ctx, backupPath); err != nil {
		return nil, fmt.Errorf("backup file is corrupted or invalid: %w", err)
	}

	if fileExists(m.dbPath) {
		info, err := m.create(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to backup current database before restore: %w", err)
		}
		safety = &info
	}

	tmp := m.dbPath + ".restore.tmp"
	if err := copyFile(backupPath, tmp); err != nil {
		return safety, fmt.Errorf("failed to copy backup file: %w", err)
	}
	if err := os.Rename(tmp, m.dbPath); err != nil {
		if removeErr := os.Remove(tmp); removeErr != nil {
			logger.FromContext(ctx).Warn("Failed to remove temporary file", "path", tmp, "error", removeErr)
		}
		return safety, fmt.Errorf("failed to restore database: %w", err)
	}
	return safety, nil
}

// verify checks that db holds a documents table.
func verify(ctx context.Context, db *sql.DB) error {
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'documents'").Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no documents table")
	}
	return nil
}

func verifyFile(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return err
	}
	defer db.Close()
	return verify(ctx, db)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := out.ReadFrom(in); err != nil {
		return err
	}
	return out.Sync()
}
