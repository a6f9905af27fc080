package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	_ "modernc.org/sqlite" // register sqlite driver
)

// OpenSQLite opens or creates the store database at the given path.
func OpenSQLite(ctx context.Context, dbPath string, log *zap.Logger) (*SQL, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening store db: %w", err)
	}
	// Save reads then writes inside one transaction; a single connection serializes them.
	db.SetMaxOpenConns(1)

	return newSQL(ctx, db, sqliteSchema, "", isSQLiteDuplicate, log)
}

func isSQLiteDuplicate(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
