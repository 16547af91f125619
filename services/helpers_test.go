package services

import (
	"io"
	"strings"

	"imdb-rank/models"
	"imdb-rank/utils"
)

func newTestLogger() *utils.Logger {
	return utils.NewLoggerTo(io.Discard, io.Discard, utils.LevelDebug)
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func int64Ptr(n int64) *int64 { return &n }

func floatPtr(f float64) *float64 { return &f }

const basicsHeader = "tconst\ttitleType\tprimaryTitle\toriginalTitle\tisAdult\tstartYear\tendYear\truntimeMinutes\tgenres"

// tsv joins rows under header with tabs already in place.
func tsv(header string, rows ...string) io.Reader {
	return strings.NewReader(header + "\n" + strings.Join(rows, "\n") + "\n")
}

func basicsRow(id, typ, title, adult, year, runtime string) string {
	return strings.Join([]string{id, typ, title, title, adult, year, `\N`, runtime, "Drama"}, "\t")
}

func cleaned(id string, year, runtime int, rating float64, votes int64) *models.CleanedRecord {
	return &models.CleanedRecord{
		TConst:         id,
		PrimaryTitle:   "Title " + id,
		StartYear:      intPtr(year),
		RuntimeMinutes: intPtr(runtime),
		AverageRating:  floatPtr(rating),
		NumVotes:       int64Ptr(votes),
	}
}
