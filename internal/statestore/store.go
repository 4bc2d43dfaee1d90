package statestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const (
	sqliteDriverNameConstant       = "sqlite"
	openFailureTemplateConstant    = "unable to open state store: %w"
	migrateFailureTemplateConstant = "unable to initialize state store schema: %w"
	recordFailureTemplateConstant  = "unable to record last migrated revision: %w"
	lookupFailureTemplateConstant  = "unable to look up last migrated revision: %w"
	markSchemaStatementConstant    = `
	CREATE TABLE IF NOT EXISTS migration_marks (
		migration_identifier   TEXT PRIMARY KEY,
		last_migrated_revision TEXT NOT NULL,
		recorded_at            TEXT NOT NULL
	)`
	recordMarkStatementConstant = `
	INSERT INTO migration_marks (migration_identifier, last_migrated_revision, recorded_at)
	VALUES (?, ?, ?)
	ON CONFLICT(migration_identifier) DO UPDATE SET
		last_migrated_revision = excluded.last_migrated_revision,
		recorded_at            = excluded.recorded_at`
	lookupMarkStatementConstant = `
	SELECT last_migrated_revision FROM migration_marks WHERE migration_identifier = ?`
)

// Store records last migrated revisions in a SQLite database.
type Store struct {
	database *sql.DB
}

// Open opens (or creates) the store at the supplied path and ensures the
// schema exists.
func Open(databasePath string) (*Store, error) {
	database, openError := sql.Open(sqliteDriverNameConstant, databasePath)
	if openError != nil {
		return nil, fmt.Errorf(openFailureTemplateConstant, openError)
	}

	store := &Store{database: database}
	if migrateError := store.migrate(); migrateError != nil {
		database.Close()
		return nil, fmt.Errorf(migrateFailureTemplateConstant, migrateError)
	}
	return store, nil
}

// Close releases the underlying database handle.
func (store *Store) Close() error {
	return store.database.Close()
}

// Record stores the last migrated revision for a migration identifier,
// replacing any previous mark.
func (store *Store) Record(executionContext context.Context, migrationIdentifier string, lastMigratedRevision string) error {
	_, executionError := store.database.ExecContext(
		executionContext,
		recordMarkStatementConstant,
		migrationIdentifier,
		lastMigratedRevision,
		time.Now().UTC().Format(time.RFC3339),
	)
	if executionError != nil {
		return fmt.Errorf(recordFailureTemplateConstant, executionError)
	}
	return nil
}

// Lookup returns the last migrated revision for a migration identifier, or an
// empty string when no mark exists.
func (store *Store) Lookup(executionContext context.Context, migrationIdentifier string) (string, error) {
	row := store.database.QueryRowContext(executionContext, lookupMarkStatementConstant, migrationIdentifier)

	var lastMigratedRevision string
	scanError := row.Scan(&lastMigratedRevision)
	if errors.Is(scanError, sql.ErrNoRows) {
		return "", nil
	}
	if scanError != nil {
		return "", fmt.Errorf(lookupFailureTemplateConstant, scanError)
	}
	return lastMigratedRevision, nil
}

func (store *Store) migrate() error {
	_, executionError := store.database.Exec(markSchemaStatementConstant)
	return executionError
}
