package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/chronolog/internal/version"
)

// Schema versioning:
//
// - A fresh database gets migration/{driver}/LATEST.sql and the current schema
//   version is recorded in system_setting.
// - In prod mode, incremental files migration/{driver}/{minor}/NN__description.sql
//   newer than the recorded version are applied in one transaction.
// - In demo mode, seed/{driver}/*.sql is applied instead.

//go:embed migration
var migrationFS embed.FS

//go:embed seed
var seedFS embed.FS

const (
	// MigrateFileNameSplit is the split character between the patch version and the description in the migration file name.
	// For example, "1__create_table.sql".
	MigrateFileNameSplit = "__"
	// LatestSchemaFileName is the name of the latest schema file.
	LatestSchemaFileName = "LATEST.sql"

	// defaultSchemaVersion is used when schema version is empty or not set.
	defaultSchemaVersion = "0.0.0"

	modeProd = "prod"
	modeDemo = "demo"
)

func getSchemaVersionOrDefault(schemaVersion string) string {
	if schemaVersion == "" {
		return defaultSchemaVersion
	}
	return schemaVersion
}

func isVersionEmpty(schemaVersion string) bool {
	return schemaVersion == "" || schemaVersion == defaultSchemaVersion
}

// shouldApplyMigration reports whether fileVersion lies in (currentDBVersion, targetVersion].
func shouldApplyMigration(fileVersion, currentDBVersion, targetVersion string) bool {
	currentDBVersionSafe := getSchemaVersionOrDefault(currentDBVersion)
	return version.IsVersionGreaterThan(fileVersion, currentDBVersionSafe) &&
		version.IsVersionGreaterOrEqualThan(targetVersion, fileVersion)
}

// validateMigrationFileName checks the "NN__description.sql" convention.
func validateMigrationFileName(filename string) error {
	if !strings.Contains(filename, MigrateFileNameSplit) {
		return errors.Errorf("invalid migration filename format (missing %s): %s", MigrateFileNameSplit, filename)
	}
	parts := strings.Split(filename, MigrateFileNameSplit)
	if _, err := strconv.Atoi(parts[0]); err != nil {
		return errors.Errorf("migration filename must start with a number: %s", filename)
	}
	return nil
}

// Migrate migrates the database schema to the latest version.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.preMigrate(ctx); err != nil {
		return errors.Wrap(err, "failed to pre-migrate")
	}

	switch s.profile.Mode {
	case modeProd:
		dbSchemaVersion, err := s.GetSchemaVersion(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to get database schema version")
		}
		currentSchemaVersion, err := s.GetCurrentSchemaVersion()
		if err != nil {
			return errors.Wrap(err, "failed to get current schema version")
		}
		if !isVersionEmpty(dbSchemaVersion) && version.IsVersionGreaterThan(dbSchemaVersion, currentSchemaVersion) {
			slog.Error("cannot downgrade schema version",
				slog.String("databaseVersion", dbSchemaVersion),
				slog.String("currentVersion", currentSchemaVersion),
			)
			return errors.Errorf("cannot downgrade schema version from %s to %s", dbSchemaVersion, currentSchemaVersion)
		}
		if isVersionEmpty(dbSchemaVersion) || version.IsVersionGreaterThan(currentSchemaVersion, dbSchemaVersion) {
			if err := s.applyMigrations(ctx, dbSchemaVersion, currentSchemaVersion); err != nil {
				return errors.Wrap(err, "failed to apply migrations")
			}
		}
	case modeDemo:
		if err := s.seed(ctx); err != nil {
			return errors.Wrap(err, "failed to seed")
		}
	default:
	}
	return nil
}

// applyMigrations runs every migration file between the two versions in a single transaction.
func (s *Store) applyMigrations(ctx context.Context, currentSchemaVersion, targetSchemaVersion string) error {
	filePaths, err := fs.Glob(migrationFS, fmt.Sprintf("%s*/*.sql", s.getMigrationBasePath()))
	if err != nil {
		return errors.Wrap(err, "failed to read migration files")
	}
	sort.Strings(filePaths)

	tx, err := s.driver.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()

	slog.Info("start migration",
		slog.String("currentSchemaVersion", getSchemaVersionOrDefault(currentSchemaVersion)),
		slog.String("targetSchemaVersion", targetSchemaVersion))

	migrationsApplied := 0
	for _, filePath := range filePaths {
		fileSchemaVersion, err := s.getSchemaVersionOfMigrateScript(filePath)
		if err != nil {
			return errors.Wrap(err, "failed to get schema version of migrate script")
		}
		if !shouldApplyMigration(fileSchemaVersion, currentSchemaVersion, targetSchemaVersion) {
			continue
		}

		if err := validateMigrationFileName(filepath.Base(filePath)); err != nil {
			slog.Warn("migration file has invalid name but will be applied", slog.String("file", filePath), slog.String("error", err.Error()))
		}
		slog.Info("applying migration", slog.String("file", filePath), slog.String("version", fileSchemaVersion))

		bytes, err := migrationFS.ReadFile(filePath)
		if err != nil {
			return errors.Wrapf(err, "failed to read migration file: %s", filePath)
		}
		if err := s.execute(ctx, tx, string(bytes)); err != nil {
			return errors.Wrapf(err, "failed to execute migration %s", filePath)
		}
		migrationsApplied++
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit migration transaction")
	}
	slog.Info("migration completed", slog.Int("migrationsApplied", migrationsApplied))

	return s.updateCurrentSchemaVersion(ctx, targetSchemaVersion)
}

// preMigrate applies the latest schema to an uninitialized database.
func (s *Store) preMigrate(ctx context.Context) error {
	initialized, err := s.driver.IsInitialized(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to check if database is initialized")
	}
	if initialized {
		return nil
	}

	filePath := s.getMigrationBasePath() + LatestSchemaFileName
	bytes, err := migrationFS.ReadFile(filePath)
	if err != nil {
		return errors.Wrapf(err, "failed to read latest schema file %s", filePath)
	}
	tx, err := s.driver.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()

	slog.Info("initializing new database with latest schema", slog.String("file", filePath))
	if err := s.execute(ctx, tx, string(bytes)); err != nil {
		return errors.Wrapf(err, "failed to execute SQL file %s", filePath)
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}

	schemaVersion, err := s.GetCurrentSchemaVersion()
	if err != nil {
		return errors.Wrap(err, "failed to get current schema version")
	}
	slog.Info("database initialized successfully", slog.String("schemaVersion", schemaVersion))
	return s.updateCurrentSchemaVersion(ctx, schemaVersion)
}

func (s *Store) getMigrationBasePath() string {
	return fmt.Sprintf("migration/%s/", s.profile.Driver)
}

func (s *Store) getSeedBasePath() string {
	return fmt.Sprintf("seed/%s/", s.profile.Driver)
}

// seed applies the demo data files in name order. SQLite only.
func (s *Store) seed(ctx context.Context) error {
	if s.profile.Driver != "sqlite" {
		slog.Warn("seed is only supported for SQLite, skipping for other databases")
		return nil
	}

	filenames, err := fs.Glob(seedFS, fmt.Sprintf("%s*.sql", s.getSeedBasePath()))
	if err != nil {
		return errors.Wrap(err, "failed to read seed files")
	}
	sort.Strings(filenames)

	tx, err := s.driver.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()
	for _, filename := range filenames {
		bytes, err := seedFS.ReadFile(filename)
		if err != nil {
			return errors.Wrapf(err, "failed to read seed file, filename=%s", filename)
		}
		if err := s.execute(ctx, tx, string(bytes)); err != nil {
			return errors.Wrapf(err, "seed error: %s", filename)
		}
	}
	return tx.Commit()
}

// GetCurrentSchemaVersion returns the schema version this binary ships with.
func (s *Store) GetCurrentSchemaVersion() (string, error) {
	currentVersion := version.GetCurrentVersion(s.profile.Mode)
	minorVersion := version.GetMinorVersion(currentVersion)
	filePaths, err := fs.Glob(migrationFS, fmt.Sprintf("%s%s/*.sql", s.getMigrationBasePath(), minorVersion))
	if err != nil {
		return "", errors.Wrap(err, "failed to read migration files")
	}

	sort.Strings(filePaths)
	if len(filePaths) == 0 {
		return fmt.Sprintf("%s.0", minorVersion), nil
	}
	return s.getSchemaVersionOfMigrateScript(filePaths[len(filePaths)-1])
}

// getSchemaVersionOfMigrateScript maps ".../0.1/00__x.sql" to "0.1.1".
func (s *Store) getSchemaVersionOfMigrateScript(filePath string) (string, error) {
	if strings.HasSuffix(filePath, LatestSchemaFileName) {
		return s.GetCurrentSchemaVersion()
	}

	elements := strings.Split(filepath.ToSlash(filePath), "/")
	if len(elements) < 2 {
		return "", errors.Errorf("invalid file path: %s", filePath)
	}
	minorVersion := elements[len(elements)-2]
	rawPatchVersion := strings.Split(elements[len(elements)-1], MigrateFileNameSplit)[0]
	patchVersion, err := strconv.Atoi(rawPatchVersion)
	if err != nil {
		return "", errors.Wrapf(err, "failed to convert patch version to int: %s", rawPatchVersion)
	}
	return fmt.Sprintf("%s.%d", minorVersion, patchVersion+1), nil
}

// execute runs a SQL script inside tx. PostgreSQL gets one statement per call.
func (s *Store) execute(ctx context.Context, tx *sql.Tx, stmt string) error {
	if s.profile.Driver == "postgres" {
		for i, single := range splitSQL(stmt) {
			if _, err := tx.ExecContext(ctx, single); err != nil {
				return errors.Wrapf(err, "failed to execute statement %d: %s", i+1, single)
			}
		}
		return nil
	}
	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return errors.Wrap(err, "failed to execute statement")
	}
	return nil
}

// splitSQL splits a script on semicolons outside quotes, dollar quotes and comments.
func splitSQL(script string) []string {
	var statements []string
	var current strings.Builder
	inSingleQuote, inBlockComment := false, false
	dollarTag := ""

	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	for i := 0; i < len(script); i++ {
		ch := script[i]
		switch {
		case inBlockComment:
			if strings.HasPrefix(script[i:], "*/") {
				inBlockComment = false
				i++
			}
		case dollarTag != "":
			if strings.HasPrefix(script[i:], dollarTag) {
				current.WriteString(dollarTag)
				i += len(dollarTag) - 1
				dollarTag = ""
			} else {
				current.WriteByte(ch)
			}
		case inSingleQuote:
			current.WriteByte(ch)
			if ch == '\'' {
				inSingleQuote = false
			}
		case strings.HasPrefix(script[i:], "--"):
			for i < len(script) && script[i] != '\n' {
				i++
			}
			current.WriteByte('\n')
		case strings.HasPrefix(script[i:], "/*"):
			inBlockComment = true
			i++
		case ch == '\'':
			inSingleQuote = true
			current.WriteByte(ch)
		case ch == '$':
			if end := strings.IndexByte(script[i+1:], '$'); end >= 0 {
				dollarTag = script[i : i+end+2]
				current.WriteString(dollarTag)
				i += end + 1
			} else {
				current.WriteByte(ch)
			}
		case ch == ';':
			current.WriteByte(ch)
			flush()
		default:
			current.WriteByte(ch)
		}
	}
	flush()
	return statements
}

func (s *Store) updateCurrentSchemaVersion(ctx context.Context, schemaVersion string) error {
	if _, err := s.UpsertSystemSetting(ctx, &SystemSetting{
		Name:  systemSettingSchemaVersion,
		Value: schemaVersion,
	}); err != nil {
		return errors.Wrap(err, "failed to upsert schema version")
	}
	return nil
}
