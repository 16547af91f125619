package services

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imdb-rank/models"
)

func sampleCleaned() []*models.CleanedRecord {
	noRuntime := cleaned("tt6", 2000, 0, 6.0, 10)
	noRuntime.RuntimeMinutes = nil
	return []*models.CleanedRecord{
		cleaned("tt1", 2000, 100, 8.0, 1000),
		cleaned("tt2", 2000, 120, 6.0, 50000),
		cleaned("tt3", 1950, 90, 7.0, 200),
		cleaned("tt4", 1900, 60, 5.0, 10),
		cleaned("tt5", 2019, 100, 9.0, 90000),
		noRuntime,
		cleaned("tt7", 2000, 400, 4.0, 5),
	}
}

func TestInsightMoviesPerYear(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleCleaned())

	assert.Equal(t, 7, r.TotalMovies)
	assert.Equal(t, []models.YearValue{
		{Year: 1900, Value: 1},
		{Year: 1950, Value: 1},
		{Year: 2000, Value: 4},
	}, r.MoviesPerYear, "2019 is past the count cut-off")
}

func TestInsightMeansPerYear(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleCleaned())

	// 1900 is before the trend window, 2019 after it, tt6 has no runtime.
	require.Len(t, r.RatingPerYear, 2)
	assert.Equal(t, 1950, r.RatingPerYear[0].Year)
	assert.InDelta(t, 7.0, r.RatingPerYear[0].Value, 1e-9)
	assert.Equal(t, 2000, r.RatingPerYear[1].Year)
	assert.InDelta(t, 6.0, r.RatingPerYear[1].Value, 1e-9)

	// tt7 runs 400 minutes and is excluded from runtime means only.
	require.Len(t, r.RuntimePerYear, 2)
	assert.InDelta(t, 110.0, r.RuntimePerYear[1].Value, 1e-9)
}

func TestInsightDensities(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleCleaned())

	require.NotNil(t, r.VotesVsRating)
	assert.Equal(t, 6, r.VotesVsRating.Points, "tt5 has too many votes")
	require.NotNil(t, r.RuntimeVsRating)
	assert.Equal(t, 5, r.RuntimeVsRating.Points)
	require.NotNil(t, r.RuntimeVsVotes)
	assert.Equal(t, 5, r.RuntimeVsVotes.Points)

	var total float64
	for _, row := range r.RuntimeVsRating.Counts {
		for _, c := range row {
			total += c
		}
	}
	assert.Equal(t, 5.0, total)
}

func TestHistogram2D(t *testing.T) {
	d := Histogram2D("h", "x", "y", []float64{0, 0, 10, 5}, []float64{1, 1, 1, 1}, 2)
	require.NotNil(t, d)

	assert.Equal(t, []float64{0, 5, 10}, d.XEdges)
	assert.Equal(t, []float64{0.5, 1, 1.5}, d.YEdges, "degenerate axis widened by 0.5")
	// x=0 twice in the first bin, x=5 and the closed upper edge x=10 in the second.
	assert.Equal(t, [][]float64{{0, 2}, {0, 2}}, d.Counts)

	x, y, c := Peak(d)
	assert.Equal(t, 2.5, x)
	assert.Equal(t, 1.25, y)
	assert.Equal(t, 2.0, c)

	assert.Nil(t, Histogram2D("h", "x", "y", nil, nil, 80))
}

func TestInsightEmptyInput(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(nil)
	assert.Equal(t, 0, r.TotalMovies)
	assert.Nil(t, r.VotesVsRating)

	var buf bytes.Buffer
	svc.Print(&buf, r)
	assert.Contains(t, buf.String(), "Movies analysed: 0")
}

func TestInsightWriteJSON(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleCleaned())

	dir := filepath.Join(t.TempDir(), "static")
	path, err := svc.WriteJSON(r, dir)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var back models.InsightReport
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, r.MoviesPerYear, back.MoviesPerYear)

	var buf bytes.Buffer
	svc.Print(&buf, r)
	assert.Contains(t, buf.String(), "ratings-vs-runtime")
}
