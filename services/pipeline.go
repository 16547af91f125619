package services

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"imdb-rank/models"
	"imdb-rank/storage"
	"imdb-rank/utils"
)

// PipelineOptions are the constants a run is parameterised by.
type PipelineOptions struct {
	TargetType  string
	PriorRating float64
	PriorWeight float64
	TopN        int
	// KeepCleaned retains every cleaned record in the result so the
	// statistics stage can branch off without a second pass.
	KeepCleaned bool
}

// Result is everything a run produced.
type Result struct {
	Summary *models.RunSummary
	Ranked  []*models.RankedExportRecord
	Cleaned []*models.CleanedRecord
}

// Pipeline turns the two dumps into the ranked export. Each run builds its
// own stage values; nothing is shared between runs.
type Pipeline struct {
	opts   PipelineOptions
	logger *utils.Logger
	loader *Loader
}

// NewPipeline creates a Pipeline.
func NewPipeline(opts PipelineOptions, logger *utils.Logger) *Pipeline {
	return &Pipeline{opts: opts, logger: logger, loader: NewLoader(logger)}
}

// Run reads both dumps from disk, processes them and writes the export
// through w. An empty result still writes a header-only export.
func (p *Pipeline) Run(basicsPath, ratingsPath string, w storage.ExportWriter) (*Result, error) {
	ratings, err := p.loader.Open(ratingsPath)
	if err != nil {
		return nil, err
	}
	defer ratings.Close()

	titles, err := p.loader.Open(basicsPath)
	if err != nil {
		return nil, err
	}
	defer titles.Close()

	res, err := p.Process(titles, ratings)
	if err != nil {
		return nil, err
	}

	if err := w.Write(res.Ranked); err != nil {
		return nil, fmt.Errorf("pipeline: export: %w", err)
	}
	if len(res.Ranked) == 0 {
		p.logger.Warn("[pipeline] No titles survived scoring; wrote header-only export")
	}
	return res, nil
}

// Process runs every stage on already opened sources. Ratings are indexed in
// memory; titles are streamed through join, clean, score and rank one row at
// a time so only the top N scored rows are retained.
func (p *Pipeline) Process(titles, ratings io.Reader) (*Result, error) {
	start := time.Now()
	summary := &models.RunSummary{RunID: uuid.NewString()}
	p.logger.Info("[pipeline] Run %s: target %q, prior %.1f @ %.0f, top %d",
		summary.RunID, p.opts.TargetType, p.opts.PriorRating, p.opts.PriorWeight, p.opts.TopN)

	rawRatings, rStats, err := p.loader.ReadRatings(ratings)
	if err != nil {
		return nil, err
	}
	index := NewRatingIndex(rawRatings, p.logger)

	joiner := NewJoiner(index, p.logger)
	cleaner := NewCleaner(p.logger, p.opts.TargetType)
	scorer := NewScorer(p.logger, p.opts.PriorRating, p.opts.PriorWeight)
	ranker := NewRanker(p.opts.TopN)

	res := &Result{Summary: summary}
	tStats, err := p.loader.ScanTitles(titles, func(t *models.RawTitle) error {
		joined, ok := joiner.Join(t)
		if !ok {
			return nil
		}
		cleaned, reason := cleaner.Clean(joined)
		if reason != Kept {
			return nil
		}
		if p.opts.KeepCleaned {
			res.Cleaned = append(res.Cleaned, cleaned)
		}
		if scored, ok := scorer.ScoreOne(cleaned); ok {
			ranker.Push(scored)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	cleaner.LogSummary()

	res.Ranked = ranker.Result()

	summary.TitlesRead = tStats.Rows
	summary.RatingsRead = rStats.Rows
	summary.Coerced = tStats.Coerced + rStats.Coerced
	summary.Malformed = tStats.Malformed + rStats.Malformed
	summary.DupRatings = index.Duplicates()
	summary.DupTitles = joiner.DuplicateTitles()
	summary.Unrated = joiner.Unrated()
	summary.Cleaned, summary.DroppedAdult, summary.DroppedType = cleaner.Counts()
	summary.Scored = ranker.Seen()
	summary.Exported = len(res.Ranked)
	summary.Duration = time.Since(start)

	p.logger.Info("[pipeline] %s titles → %s cleaned → %s scored → %s exported in %v",
		humanize.Comma(int64(summary.TitlesRead)), humanize.Comma(int64(summary.Cleaned)),
		humanize.Comma(int64(summary.Scored)), humanize.Comma(int64(summary.Exported)),
		summary.Duration.Round(time.Millisecond))
	return res, nil
}
