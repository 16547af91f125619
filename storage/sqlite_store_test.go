package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imdb-rank/models"
)

func newTestStore(t *testing.T) MovieStore {
	t.Helper()
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "db", "movies.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func movie(rank int, title string, year, runtime int, rating float64, votes int64) *models.Movie {
	return &models.Movie{
		ID:             fmt.Sprintf("tt%04d", rank),
		Rank:           rank,
		Rating:         rating,
		NumVotes:       votes,
		WeightedRating: 7 + float64(100-rank)/1000,
		Title:          title,
		Year:           year,
		Runtime:        &runtime,
	}
}

func seed(t *testing.T, s MovieStore, n int) []*models.Movie {
	t.Helper()
	movies := make([]*models.Movie, n)
	for i := range movies {
		movies[i] = movie(i+1, fmt.Sprintf("Film %03d", i+1), 1950+i, 80+i, 5+float64(i%50)/10, int64(1000*(i+1)))
	}
	require.NoError(t, s.Replace(context.Background(), "seed", movies))
	return movies
}

func TestSQLiteReplaceAndCount(t *testing.T) {
	s := newTestStore(t)
	seed(t, s, 120)

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 120, n)
}

func TestSQLiteReplaceUpsertsAndPrunes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seed(t, s, 3)

	updated := movie(2, "Renamed", 2001, 99, 9.1, 42)
	updated.Runtime = nil
	require.NoError(t, s.Replace(ctx, "next", []*models.Movie{updated}))

	all, err := s.Search(ctx, SearchFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	got := all[0]
	assert.Equal(t, "tt0002", got.ID)
	assert.Equal(t, "Renamed", got.Title)
	assert.Nil(t, got.Runtime)
	assert.Equal(t, "next", got.LoadBatch)
}

func TestSQLiteBrowsePages(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seed(t, s, 50)

	p1, err := s.Browse(ctx, "rank", 1)
	require.NoError(t, err)
	assert.Equal(t, 50, p1.Total)
	assert.Equal(t, 3, p1.TotalPages)
	require.Len(t, p1.Movies, PageSize)
	assert.Equal(t, 1, p1.Movies[0].Rank)

	p3, err := s.Browse(ctx, "rank", 3)
	require.NoError(t, err)
	require.Len(t, p3.Movies, 2)
	assert.Equal(t, 49, p3.Movies[0].Rank)

	past, err := s.Browse(ctx, "rank", 9)
	require.NoError(t, err)
	assert.Empty(t, past.Movies)

	zero, err := s.Browse(ctx, "rank", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, zero.Page)
}

func TestSQLiteBrowseCategories(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seed(t, s, 30)

	byYear, err := s.Browse(ctx, "year", 1)
	require.NoError(t, err)
	assert.Equal(t, 1979, byYear.Movies[0].Year)

	byVotes, err := s.Browse(ctx, "NUM_VOTES", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(30000), byVotes.Movies[0].NumVotes)

	_, err = s.Browse(ctx, "genre; DROP TABLE movies", 1)
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestSQLiteSearch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seed(t, s, 40)

	got, err := s.Search(ctx, SearchFilter{MinYear: 1960, MaxYear: 1964})
	require.NoError(t, err)
	require.Len(t, got, 5)
	for i, m := range got {
		assert.Equal(t, 1960+i, m.Year, "results are in rank order")
	}

	got, err = s.Search(ctx, SearchFilter{Title: "film 00", Limit: 3})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Film 001", got[0].Title)

	got, err = s.Search(ctx, SearchFilter{MinRank: 10, MaxRank: 12, MinRuntime: 89, MaxVotes: 11000})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 10, got[0].Rank)
	assert.Equal(t, 11, got[1].Rank)

	got, err = s.Search(ctx, SearchFilter{MinRating: 9.9})
	require.NoError(t, err)
	assert.Empty(t, got)
}
