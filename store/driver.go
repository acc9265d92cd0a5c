package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// LogEntry model related methods.
	CreateLogEntry(ctx context.Context, create *LogEntry) (*LogEntry, error)
	ListLogEntries(ctx context.Context, find *FindLogEntry) ([]*LogEntry, error)
	DeleteLogEntry(ctx context.Context, delete *DeleteLogEntry) error

	// SystemSetting model related methods.
	UpsertSystemSetting(ctx context.Context, upsert *SystemSetting) (*SystemSetting, error)
	ListSystemSettings(ctx context.Context, find *FindSystemSetting) ([]*SystemSetting, error)
}
