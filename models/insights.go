package models

// YearValue is one point of a per-year series.
type YearValue struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// Density2D is a 2-D histogram over two numeric fields. Counts[i][j] is the
// number of points with x in [XEdges[i], XEdges[i+1]) and y in
// [YEdges[j], YEdges[j+1]); the last bin on each axis is closed.
type Density2D struct {
	Name   string      `json:"name"`
	XLabel string      `json:"x_label"`
	YLabel string      `json:"y_label"`
	XEdges []float64   `json:"x_edges"`
	YEdges []float64   `json:"y_edges"`
	Counts [][]float64 `json:"counts"`
	Points int         `json:"points"`
}

// InsightReport holds the reporting-only aggregates computed over the cleaned
// dataset.
type InsightReport struct {
	TotalMovies     int         `json:"total_movies"`
	MoviesPerYear   []YearValue `json:"movies_per_year"`
	RatingPerYear   []YearValue `json:"rating_per_year"`
	RuntimePerYear  []YearValue `json:"runtime_per_year"`
	VotesVsRating   *Density2D  `json:"votes_vs_rating,omitempty"`
	RuntimeVsRating *Density2D  `json:"runtime_vs_rating,omitempty"`
	RuntimeVsVotes  *Density2D  `json:"runtime_vs_votes,omitempty"`
}
