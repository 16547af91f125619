package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	_ "github.com/lib/pq"

	"imdb-rank/utils"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS movies (
		id              VARCHAR(30)      PRIMARY KEY,
		rank            INTEGER          NOT NULL,
		rating          NUMERIC(3,1)     NOT NULL,
		num_votes       INTEGER          NOT NULL,
		weighted_rating DOUBLE PRECISION NOT NULL,
		title           VARCHAR(200)     NOT NULL,
		year            INTEGER          NOT NULL,
		runtime         INTEGER,
		genre           VARCHAR(200)     NOT NULL DEFAULT '',
		summary         TEXT             NOT NULL DEFAULT '',
		country         VARCHAR(50)      NOT NULL DEFAULT '',
		language        VARCHAR(100)     NOT NULL DEFAULT '',
		load_batch      VARCHAR(36)      NOT NULL DEFAULT '',
		loaded_at       TIMESTAMPTZ      NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_movies_rank      ON movies(rank);
	CREATE INDEX IF NOT EXISTS idx_movies_year      ON movies(year);
	CREATE INDEX IF NOT EXISTS idx_movies_rating    ON movies(rating);
	CREATE INDEX IF NOT EXISTS idx_movies_num_votes ON movies(num_votes);
`

var postgresDialect = dialect{
	name:        "postgres",
	placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	schema:      postgresSchema,
}

// NewPostgresStore opens a connection to PostgreSQL, waits for it to accept
// connections, runs schema migrations, and returns a ready-to-use store.
func NewPostgresStore(ctx context.Context, dsn string, retry *utils.RetryConfig) (MovieStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if retry == nil {
		retry = &utils.RetryConfig{MaxAttempts: 10, BaseDelay: 2 * time.Second}
	}
	if err := retry.Do(ctx, "postgres ping", func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	s := &sqlStore{db: db, dialect: postgresDialect}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}
