package models

import "time"

// MissingToken is the placeholder the IMDb dumps use for an empty cell.
const MissingToken = `\N`

// RawTitle is one row of title.basics exactly as it appears in the dump.
// Numeric-looking columns stay strings here; coercion happens during cleaning.
// Nil pointers mean the cell was missing.
type RawTitle struct {
	TConst         string
	TitleType      string
	PrimaryTitle   string
	OriginalTitle  string
	IsAdult        *int
	StartYear      *string
	EndYear        *string
	RuntimeMinutes *string
	Genres         []string
}

// RawRating is one row of title.ratings.
type RawRating struct {
	TConst        string
	AverageRating *float64
	NumVotes      *int64
}

// JoinedRecord is a title left-joined with its rating. AverageRating and
// NumVotes are nil when the title had no rating row.
type JoinedRecord struct {
	RawTitle
	AverageRating *float64
	NumVotes      *int64
}

// CleanedRecord is a joined record that survived the adult/type filters, with
// year and runtime coerced. Dropped columns are not carried over.
type CleanedRecord struct {
	TConst         string
	PrimaryTitle   string
	StartYear      *int
	RuntimeMinutes *int
	AverageRating  *float64
	NumVotes       *int64
}

// ScoredRecord has every required field present and a weighted rating.
type ScoredRecord struct {
	TConst         string
	PrimaryTitle   string
	StartYear      int
	RuntimeMinutes int
	AverageRating  float64
	NumVotes       int64
	WeightedRating float64
}

// RankedExportRecord is one data row of the export file. Index is the 0-based
// position in the truncated table; the downstream rank is Index+1.
type RankedExportRecord struct {
	Index          int
	TConst         string
	AverageRating  float64
	NumVotes       int64
	WeightedRating float64
	PrimaryTitle   string
	StartYear      int
	RuntimeMinutes int
}

// Rank returns the 1-based position used by the bulk loader.
func (r *RankedExportRecord) Rank() int {
	return r.Index + 1
}

// Movie is the persisted entity the bulk loader writes, keyed by TConst.
type Movie struct {
	ID             string
	Rank           int
	Rating         float64
	NumVotes       int64
	WeightedRating float64
	Title          string
	Year           int
	Runtime        *int
	Genre          string
	Summary        string
	Country        string
	Language       string
	LoadBatch      string
}

// RunSummary reports what a pipeline run did at each stage.
type RunSummary struct {
	RunID        string
	TitlesRead   int
	RatingsRead  int
	Unrated      int
	DupRatings   int
	DupTitles    int
	Cleaned      int
	Scored       int
	Exported     int
	Coerced      int
	Malformed    int
	DroppedAdult int
	DroppedType  int
	OutputPath   string
	Duration     time.Duration
}
