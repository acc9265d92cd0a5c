package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	// Import the pure-Go SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/hrygo/chronolog/internal/profile"
	"github.com/hrygo/chronolog/store"
)

// DB is the SQLite store driver.
type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a SQLite database at profile.DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	// WAL lets readers proceed while the single writer holds the lock;
	// busy_timeout waits on that lock instead of failing with SQLITE_BUSY.
	sqliteDB, err := sql.Open("sqlite", profile.DSN+"?_pragma=foreign_keys(0)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	return &DB{
		db:      sqliteDB,
		profile: profile,
	}, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) IsInitialized(ctx context.Context) (bool, error) {
	var exists bool
	err := d.db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = 'log_entry')").Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "failed to check if database is initialized")
	}
	return exists, nil
}
