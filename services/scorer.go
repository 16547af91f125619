package services

import (
	"github.com/dustin/go-humanize"

	"imdb-rank/models"
	"imdb-rank/utils"
)

// WeightedRating blends rating with the prior, weighting rating by votes
// against priorWeight pseudo-votes at priorRating. With zero votes it returns
// priorRating exactly and it tends to rating as votes grow.
func WeightedRating(rating float64, votes int64, priorRating, priorWeight float64) float64 {
	v := float64(votes)
	return (rating*v + priorRating*priorWeight) / (v + priorWeight)
}

// Scorer keeps fully populated records and attaches their weighted rating.
type Scorer struct {
	logger      *utils.Logger
	priorRating float64
	priorWeight float64
}

// NewScorer creates a Scorer with the given prior.
func NewScorer(logger *utils.Logger, priorRating, priorWeight float64) *Scorer {
	return &Scorer{logger: logger, priorRating: priorRating, priorWeight: priorWeight}
}

// ScoreOne returns the scored record, or false when rating, votes, year,
// runtime or title is missing.
func (s *Scorer) ScoreOne(c *models.CleanedRecord) (*models.ScoredRecord, bool) {
	if c.AverageRating == nil || c.NumVotes == nil || c.StartYear == nil || c.RuntimeMinutes == nil {
		return nil, false
	}
	if *c.NumVotes < 0 || c.PrimaryTitle == "" {
		return nil, false
	}
	return &models.ScoredRecord{
		TConst:         c.TConst,
		PrimaryTitle:   c.PrimaryTitle,
		StartYear:      *c.StartYear,
		RuntimeMinutes: *c.RuntimeMinutes,
		AverageRating:  *c.AverageRating,
		NumVotes:       *c.NumVotes,
		WeightedRating: WeightedRating(*c.AverageRating, *c.NumVotes, s.priorRating, s.priorWeight),
	}, true
}

// Score scores a whole cleaned table, excluding incomplete rows.
func (s *Scorer) Score(cleaned []*models.CleanedRecord) []*models.ScoredRecord {
	result := make([]*models.ScoredRecord, 0, len(cleaned))
	for _, c := range cleaned {
		if rec, ok := s.ScoreOne(c); ok {
			result = append(result, rec)
		}
	}
	s.logger.Info("[scorer] Scored %s of %s cleaned titles (prior %.1f @ %.0f votes)",
		humanize.Comma(int64(len(result))), humanize.Comma(int64(len(cleaned))),
		s.priorRating, s.priorWeight)
	return result
}
