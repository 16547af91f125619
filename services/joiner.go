package services

import (
	"imdb-rank/models"
	"imdb-rank/utils"
)

// RatingIndex maps identifiers to their rating row. When the ratings source
// repeats an identifier the first row wins and later ones are counted.
type RatingIndex struct {
	byID       map[string]*models.RawRating
	duplicates int
}

// NewRatingIndex builds the lookup side of the left join.
func NewRatingIndex(ratings []*models.RawRating, logger *utils.Logger) *RatingIndex {
	idx := &RatingIndex{byID: make(map[string]*models.RawRating, len(ratings))}
	for _, r := range ratings {
		if _, dup := idx.byID[r.TConst]; dup {
			idx.duplicates++
			logger.Debug("[joiner] Duplicate rating row for %s ignored", r.TConst)
			continue
		}
		idx.byID[r.TConst] = r
	}
	if idx.duplicates > 0 {
		logger.Warn("[joiner] %d duplicate rating rows ignored (first row per id kept)", idx.duplicates)
	}
	return idx
}

// Lookup returns the rating for id, or nil.
func (idx *RatingIndex) Lookup(id string) *models.RawRating {
	return idx.byID[id]
}

// Len returns the number of distinct rated identifiers.
func (idx *RatingIndex) Len() int {
	return len(idx.byID)
}

// Duplicates returns how many rating rows were ignored as repeats.
func (idx *RatingIndex) Duplicates() int {
	return idx.duplicates
}

// Joiner left-joins titles with ratings, one record per distinct title id.
type Joiner struct {
	index     *RatingIndex
	seen      *utils.KeySet
	logger    *utils.Logger
	unrated   int
	dupTitles int
}

// NewJoiner creates a Joiner over the given rating index.
func NewJoiner(index *RatingIndex, logger *utils.Logger) *Joiner {
	return &Joiner{index: index, seen: utils.NewKeySet(), logger: logger}
}

// Join returns the joined record for t. The second result is false when t
// repeats an identifier that was already joined.
func (j *Joiner) Join(t *models.RawTitle) (*models.JoinedRecord, bool) {
	if !j.seen.Add(t.TConst) {
		j.dupTitles++
		j.logger.Debug("[joiner] Duplicate title %s skipped", t.TConst)
		return nil, false
	}

	rec := &models.JoinedRecord{RawTitle: *t}
	if r := j.index.Lookup(t.TConst); r != nil {
		rec.AverageRating = r.AverageRating
		rec.NumVotes = r.NumVotes
	} else {
		j.unrated++
	}
	return rec, true
}

// Unrated returns how many joined titles had no rating row.
func (j *Joiner) Unrated() int {
	return j.unrated
}

// DuplicateTitles returns how many repeated title rows were skipped.
func (j *Joiner) DuplicateTitles() int {
	return j.dupTitles
}

// JoinAll joins a fully loaded title table.
func JoinAll(titles []*models.RawTitle, ratings []*models.RawRating, logger *utils.Logger) []*models.JoinedRecord {
	j := NewJoiner(NewRatingIndex(ratings, logger), logger)
	out := make([]*models.JoinedRecord, 0, len(titles))
	for _, t := range titles {
		if rec, ok := j.Join(t); ok {
			out = append(out, rec)
		}
	}
	return out
}
