package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imdb-rank/utils"
)

func TestPostgresPlaceholders(t *testing.T) {
	assert.Equal(t, "$1", postgresDialect.placeholder(1))
	assert.Equal(t, "$13", postgresDialect.placeholder(13))
	assert.Equal(t, "?", sqliteDialect.placeholder(13))
}

// Runs only against a live server, e.g.
// POSTGRES_TEST_DSN="host=localhost user=imdb password=imdb dbname=imdb_test sslmode=disable".
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	ctx := context.Background()
	s, err := NewPostgresStore(ctx, dsn, &utils.RetryConfig{MaxAttempts: 2, BaseDelay: 100 * time.Millisecond})
	require.NoError(t, err)
	defer s.Close()

	seed(t, s, 60)
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 60, n)

	p, err := s.Browse(ctx, "weighted_rating", 2)
	require.NoError(t, err)
	require.Len(t, p.Movies, PageSize)
	assert.Equal(t, 25, p.Movies[0].Rank)

	got, err := s.Search(ctx, SearchFilter{Title: "FILM 01", MaxRank: 12})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}
