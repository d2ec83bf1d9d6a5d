package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SQLite has no row or table locks: its transactions already hold the single
// writer lock (open it with _txlock=immediate), so these helpers only emit
// locking SQL on PostgreSQL.

// ForUpdate returns the row-lock suffix for a SELECT inside tx.
func ForUpdate(tx *sqlx.Tx) string {
	if tx.DriverName() == DriverPostgres {
		return " FOR UPDATE"
	}
	return ""
}

// LockTable blocks other writers to table until tx ends. Readers are not blocked.
func LockTable(ctx context.Context, tx *sqlx.Tx, table string) error {
	if tx.DriverName() != DriverPostgres {
		return nil
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("LOCK TABLE %s IN SHARE ROW EXCLUSIVE MODE", table)); err != nil {
		return fmt.Errorf("failed to lock %s: %w", table, err)
	}
	return nil
}
