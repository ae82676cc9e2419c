package catalog

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// migrations[i] upgrades a database at user_version i to i+1. Append only.
var migrations = []string{
	schemaSQL,
}

// ErrSchemaTooNew reports a catalog written by a newer clipwatch.
var ErrSchemaTooNew = errors.New("catalog schema is newer than this build")

func (s *Store) migrate(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read catalog version: %w", err)
	}
	if version > len(migrations) {
		return fmt.Errorf("%w: %s has version %d, this build knows %d", ErrSchemaTooNew, s.path, version, len(migrations))
	}

	for next := version; next < len(migrations); next++ {
		if err := s.applyMigration(ctx, next+1, migrations[next]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) applyMigration(ctx context.Context, version int, stmt string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", version, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("apply migration %d: %w", version, err)
	}
	// PRAGMA does not take bind parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		return fmt.Errorf("stamp catalog version %d: %w", version, err)
	}
	return tx.Commit()
}
