package test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hrygo/chronolog/internal/profile"
	"github.com/hrygo/chronolog/store"
	"github.com/hrygo/chronolog/store/db"
)

// getDriverFromEnv returns the driver under test; sqlite unless DRIVER is set.
func getDriverFromEnv() string {
	if driver := os.Getenv("DRIVER"); driver != "" {
		return driver
	}
	return "sqlite"
}

// NewTestingStore opens a migrated store. SQLite runs on a temp file;
// PostgreSQL needs POSTGRES_TEST_DSN and is skipped without it.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	t.Helper()

	p := &profile.Profile{
		Mode:   "prod",
		Driver: getDriverFromEnv(),
	}
	switch p.Driver {
	case "postgres":
		p.DSN = os.Getenv("POSTGRES_TEST_DSN")
		if p.DSN == "" {
			t.Skip("POSTGRES_TEST_DSN not set")
		}
	default:
		p.DSN = filepath.Join(t.TempDir(), "chronolog_test.db")
	}

	driver, err := db.NewDBDriver(p)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}
	ts := store.New(driver, p)
	if err := ts.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	t.Cleanup(func() {
		ts.Close()
	})
	return ts
}
