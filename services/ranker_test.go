package services

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imdb-rank/models"
)

func scored(id string, wr float64, votes int64) *models.ScoredRecord {
	return &models.ScoredRecord{TConst: id, PrimaryTitle: id, WeightedRating: wr, NumVotes: votes, StartYear: 2000, RuntimeMinutes: 90}
}

func TestRankOrdersDescending(t *testing.T) {
	out := Rank([]*models.ScoredRecord{
		scored("tt1", 7.1, 10),
		scored("tt2", 8.4, 10),
		scored("tt3", 6.9, 10),
	}, 10)

	require.Len(t, out, 3)
	assert.Equal(t, []string{"tt2", "tt1", "tt3"}, ids(out))
	for i, r := range out {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, i+1, r.Rank())
	}
}

func TestRankTieBreak(t *testing.T) {
	out := Rank([]*models.ScoredRecord{
		scored("tt3", 7.5, 100),
		scored("tt1", 7.5, 100),
		scored("tt2", 7.5, 500),
	}, 10)

	assert.Equal(t, []string{"tt2", "tt1", "tt3"}, ids(out))
}

func TestRankTruncates(t *testing.T) {
	var in []*models.ScoredRecord
	for i := 0; i < 50; i++ {
		in = append(in, scored(fmt.Sprintf("tt%03d", i), float64(i)/10, 1))
	}

	out := Rank(in, 5)
	require.Len(t, out, 5)
	assert.Equal(t, []string{"tt049", "tt048", "tt047", "tt046", "tt045"}, ids(out))
}

func TestRankIsIndependentOfInputOrder(t *testing.T) {
	var in []*models.ScoredRecord
	for i := 0; i < 200; i++ {
		in = append(in, scored(fmt.Sprintf("tt%04d", i), float64(i%17)/2, int64(i%5)))
	}
	want := ids(Rank(in, 40))

	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 5; round++ {
		shuffled := append([]*models.ScoredRecord(nil), in...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, want, ids(Rank(shuffled, 40)))
	}
}

func TestRankMonotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var in []*models.ScoredRecord
	for i := 0; i < 1000; i++ {
		in = append(in, scored(fmt.Sprintf("tt%05d", i), rng.Float64()*10, rng.Int63n(1000)))
	}

	out := Rank(in, 9999)
	require.Len(t, out, 1000)
	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i-1].WeightedRating, out[i].WeightedRating)
	}
}

func TestRankEmpty(t *testing.T) {
	assert.Empty(t, Rank(nil, 9999))
	assert.Empty(t, Rank([]*models.ScoredRecord{scored("tt1", 7, 1)}, 0))
}

func ids(rs []*models.RankedExportRecord) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.TConst
	}
	return out
}
