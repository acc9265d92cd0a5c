package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/chronolog/internal/profile"
)

func TestShouldApplyMigration(t *testing.T) {
	assert.True(t, shouldApplyMigration("0.1.1", "", "0.1.1"))
	assert.True(t, shouldApplyMigration("0.1.1", "0.1.0", "0.2.0"))
	assert.False(t, shouldApplyMigration("0.1.1", "0.1.1", "0.1.1"))
	assert.False(t, shouldApplyMigration("0.2.1", "0.1.0", "0.2.0"))
}

func TestValidateMigrationFileName(t *testing.T) {
	assert.NoError(t, validateMigrationFileName("00__log_entry_calendar_index.sql"))
	assert.Error(t, validateMigrationFileName("log_entry.sql"))
	assert.Error(t, validateMigrationFileName("xx__log_entry.sql"))
}

func TestGetSchemaVersionOfMigrateScript(t *testing.T) {
	s := &Store{profile: &profile.Profile{Mode: "prod", Driver: "sqlite"}}

	got, err := s.getSchemaVersionOfMigrateScript("migration/sqlite/0.1/00__log_entry_calendar_index.sql")
	require.NoError(t, err)
	assert.Equal(t, "0.1.1", got)

	got, err = s.getSchemaVersionOfMigrateScript("migration/sqlite/LATEST.sql")
	require.NoError(t, err)
	assert.Equal(t, "0.1.1", got)

	_, err = s.getSchemaVersionOfMigrateScript("migration/sqlite/0.1/first__x.sql")
	assert.Error(t, err)
}

func TestSplitSQL(t *testing.T) {
	script := `-- leading comment
CREATE TABLE a (x TEXT DEFAULT 'a;b'); -- trailing;
/* block; comment */
CREATE FUNCTION f() RETURNS int AS $$ SELECT 1; $$ LANGUAGE sql;
INSERT INTO a VALUES ('it''s')`

	statements := splitSQL(script)
	require.Len(t, statements, 3)
	assert.Equal(t, "CREATE TABLE a (x TEXT DEFAULT 'a;b');", statements[0])
	assert.Equal(t, "CREATE FUNCTION f() RETURNS int AS $$ SELECT 1; $$ LANGUAGE sql;", statements[1])
	assert.Equal(t, "INSERT INTO a VALUES ('it''s')", statements[2])
}

func TestEmbeddedSchemas(t *testing.T) {
	for _, driver := range []string{"sqlite", "postgres"} {
		_, err := migrationFS.ReadFile("migration/" + driver + "/" + LatestSchemaFileName)
		assert.NoError(t, err, driver)
	}
}
