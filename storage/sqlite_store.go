package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS movies (
		id              TEXT    PRIMARY KEY,
		rank            INTEGER NOT NULL,
		rating          REAL    NOT NULL,
		num_votes       INTEGER NOT NULL,
		weighted_rating REAL    NOT NULL,
		title           TEXT    NOT NULL,
		year            INTEGER NOT NULL,
		runtime         INTEGER,
		genre           TEXT    NOT NULL DEFAULT '',
		summary         TEXT    NOT NULL DEFAULT '',
		country         TEXT    NOT NULL DEFAULT '',
		language        TEXT    NOT NULL DEFAULT '',
		load_batch      TEXT    NOT NULL DEFAULT '',
		loaded_at       TEXT    NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_movies_rank      ON movies(rank);
	CREATE INDEX IF NOT EXISTS idx_movies_year      ON movies(year);
	CREATE INDEX IF NOT EXISTS idx_movies_rating    ON movies(rating);
	CREATE INDEX IF NOT EXISTS idx_movies_num_votes ON movies(num_votes);
`

var sqliteDialect = dialect{
	name:        "sqlite",
	placeholder: func(int) string { return "?" },
	schema:      sqliteSchema,
}

// NewSQLiteStore opens (creating if needed) a SQLite database file and applies
// the schema.
func NewSQLiteStore(ctx context.Context, path string) (MovieStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite: create dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: apply pragma %q: %w", pragma, err)
		}
	}

	s := &sqlStore{db: db, dialect: sqliteDialect}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}
