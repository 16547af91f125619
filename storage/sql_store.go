package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	"imdb-rank/models"
)

// PageSize is the number of movies per browse page.
const PageSize = 24

// ErrUnknownCategory is returned by Browse for an unsupported sort key.
var ErrUnknownCategory = errors.New("unknown browse category")

// browseOrder maps a browse category to its ORDER BY clause. Every category
// except rank lists the largest values first.
var browseOrder = map[string]string{
	"rank":            "rank ASC",
	"rating":          "rating DESC, rank ASC",
	"num_votes":       "num_votes DESC, rank ASC",
	"weighted_rating": "weighted_rating DESC, rank ASC",
	"year":            "year DESC, rank ASC",
	"runtime":         "runtime DESC, rank ASC",
	"title":           "title DESC, rank ASC",
}

// Page is one browse page.
type Page struct {
	Movies     []*models.Movie
	Page       int
	TotalPages int
	Total      int
}

// SearchFilter mirrors the search form. Zero bounds are open; Limit <= 0
// returns every match.
type SearchFilter struct {
	Title      string
	MinYear    int
	MaxYear    int
	MinRank    int
	MaxRank    int
	MinRating  float64
	MaxRating  float64
	MinVotes   int64
	MaxVotes   int64
	MinRuntime int
	MaxRuntime int
	Limit      int
}

// dialect captures the SQL differences between the supported databases.
type dialect struct {
	name        string
	placeholder func(n int) string
	schema      string
}

// sqlStore implements MovieStore on database/sql for any dialect.
type sqlStore struct {
	db      *sql.DB
	dialect dialect
}

const movieColumns = 13

func (s *sqlStore) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.schema); err != nil {
		return fmt.Errorf("%s: migrate: %w", s.dialect.name, err)
	}
	return nil
}

// Replace upserts movies and prunes rows not loaded by batch, in one
// transaction.
func (s *sqlStore) Replace(ctx context.Context, batch string, movies []*models.Movie) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", s.dialect.name, err)
	}
	defer func() { _ = tx.Rollback() }()

	const batchSize = 50
	for i := 0; i < len(movies); i += batchSize {
		end := i + batchSize
		if end > len(movies) {
			end = len(movies)
		}
		if err := s.insertBatch(ctx, tx, batch, movies[i:end]); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM movies WHERE load_batch <> "+s.dialect.placeholder(1), batch); err != nil {
		return fmt.Errorf("%s: prune: %w", s.dialect.name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", s.dialect.name, err)
	}
	return nil
}

func (s *sqlStore) insertBatch(ctx context.Context, tx *sql.Tx, batch string, movies []*models.Movie) error {
	valueStrings := make([]string, 0, len(movies))
	valueArgs := make([]any, 0, len(movies)*movieColumns)

	for idx, m := range movies {
		base := idx * movieColumns
		ph := make([]string, movieColumns)
		for c := range ph {
			ph[c] = s.dialect.placeholder(base + c + 1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(ph, ",")+")")

		var runtime any
		if m.Runtime != nil {
			runtime = *m.Runtime
		}
		valueArgs = append(valueArgs,
			m.ID, m.Rank, m.Rating, m.NumVotes, m.WeightedRating, m.Title, m.Year, runtime,
			m.Genre, m.Summary, m.Country, m.Language, batch)
	}

	query := fmt.Sprintf(`
		INSERT INTO movies (id, rank, rating, num_votes, weighted_rating, title, year, runtime,
			genre, summary, country, language, load_batch)
		VALUES %s
		ON CONFLICT (id) DO UPDATE SET
			rank = excluded.rank,
			rating = excluded.rating,
			num_votes = excluded.num_votes,
			weighted_rating = excluded.weighted_rating,
			title = excluded.title,
			year = excluded.year,
			runtime = excluded.runtime,
			load_batch = excluded.load_batch,
			loaded_at = CURRENT_TIMESTAMP
	`, strings.Join(valueStrings, ","))

	if _, err := tx.ExecContext(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("%s: insert batch: %w", s.dialect.name, err)
	}
	return nil
}

// Count returns the number of stored movies.
func (s *sqlStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM movies").Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: count: %w", s.dialect.name, err)
	}
	return n, nil
}

// Browse returns one page ordered by category. Pages are 1-based; a page
// past the end is empty.
func (s *sqlStore) Browse(ctx context.Context, category string, page int) (*Page, error) {
	order, ok := browseOrder[strings.ToLower(category)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	if page < 1 {
		page = 1
	}

	total, err := s.Count(ctx)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM movies ORDER BY %s LIMIT %s OFFSET %s",
		selectColumns, order, s.dialect.placeholder(1), s.dialect.placeholder(2))
	movies, err := s.query(ctx, query, PageSize, (page-1)*PageSize)
	if err != nil {
		return nil, err
	}
	return &Page{
		Movies:     movies,
		Page:       page,
		TotalPages: int(math.Ceil(float64(total) / PageSize)),
		Total:      total,
	}, nil
}

// Search returns movies matching every bound in f, best rank first.
func (s *sqlStore) Search(ctx context.Context, f SearchFilter) ([]*models.Movie, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, s.dialect.placeholder(len(args))))
	}

	if t := strings.TrimSpace(f.Title); t != "" {
		add("LOWER(title) LIKE %s", "%"+strings.ToLower(t)+"%")
	}
	if f.MinYear > 0 {
		add("year >= %s", f.MinYear)
	}
	if f.MaxYear > 0 {
		add("year <= %s", f.MaxYear)
	}
	if f.MinRank > 0 {
		add("rank >= %s", f.MinRank)
	}
	if f.MaxRank > 0 {
		add("rank <= %s", f.MaxRank)
	}
	if f.MinRating > 0 {
		add("rating >= %s", f.MinRating)
	}
	if f.MaxRating > 0 {
		add("rating <= %s", f.MaxRating)
	}
	if f.MinVotes > 0 {
		add("num_votes >= %s", f.MinVotes)
	}
	if f.MaxVotes > 0 {
		add("num_votes <= %s", f.MaxVotes)
	}
	if f.MinRuntime > 0 {
		add("runtime >= %s", f.MinRuntime)
	}
	if f.MaxRuntime > 0 {
		add("runtime <= %s", f.MaxRuntime)
	}

	query := "SELECT " + selectColumns + " FROM movies"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY rank ASC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += " LIMIT " + s.dialect.placeholder(len(args))
	}
	return s.query(ctx, query, args...)
}

const selectColumns = `id, rank, rating, num_votes, weighted_rating, title, year, runtime,
	genre, summary, country, language, load_batch`

func (s *sqlStore) query(ctx context.Context, query string, args ...any) ([]*models.Movie, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", s.dialect.name, err)
	}
	defer rows.Close()

	var movies []*models.Movie
	for rows.Next() {
		m := &models.Movie{}
		var runtime sql.NullInt64
		if err := rows.Scan(
			&m.ID, &m.Rank, &m.Rating, &m.NumVotes, &m.WeightedRating, &m.Title, &m.Year, &runtime,
			&m.Genre, &m.Summary, &m.Country, &m.Language, &m.LoadBatch,
		); err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", s.dialect.name, err)
		}
		if runtime.Valid {
			r := int(runtime.Int64)
			m.Runtime = &r
		}
		movies = append(movies, m)
	}
	return movies, rows.Err()
}

// Close closes the database handle.
func (s *sqlStore) Close() error {
	return s.db.Close()
}
