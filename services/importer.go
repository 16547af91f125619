package services

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"

	"imdb-rank/models"
	"imdb-rank/storage"
	"imdb-rank/utils"
)

// Importer bulk-loads an export file into the movie store.
type Importer struct {
	store   storage.MovieStore
	ranking storage.RankingPublisher
	logger  *utils.Logger
}

// NewImporter creates an Importer. ranking may be nil.
func NewImporter(store storage.MovieStore, ranking storage.RankingPublisher, logger *utils.Logger) *Importer {
	return &Importer{store: store, ranking: ranking, logger: logger}
}

// MoviesFromExport maps export rows to movies. Rank is the row's 1-based
// position in file order. A repeated identifier keeps its first row.
func MoviesFromExport(records []*models.RankedExportRecord, batch string) []*models.Movie {
	seen := utils.NewKeySet()
	movies := make([]*models.Movie, 0, len(records))
	for i, r := range records {
		if !seen.Add(r.TConst) {
			continue
		}
		runtime := r.RuntimeMinutes
		movies = append(movies, &models.Movie{
			ID:             r.TConst,
			Rank:           i + 1,
			Rating:         r.AverageRating,
			NumVotes:       r.NumVotes,
			WeightedRating: r.WeightedRating,
			Title:          r.PrimaryTitle,
			Year:           r.StartYear,
			Runtime:        &runtime,
			LoadBatch:      batch,
		})
	}
	return movies
}

// Import reads the export at path and replaces the store contents with it.
// It returns the number of movies stored.
func (im *Importer) Import(ctx context.Context, path, batch string) (int, error) {
	records, err := storage.ReadExport(path)
	if err != nil {
		return 0, err
	}

	movies := MoviesFromExport(records, batch)
	if skipped := len(records) - len(movies); skipped > 0 {
		im.logger.Warn("[importer] %d repeated ids skipped", skipped)
	}

	if err := im.store.Replace(ctx, batch, movies); err != nil {
		return 0, fmt.Errorf("importer: store: %w", err)
	}
	im.logger.Info("[importer] Stored %s movies (batch %s)", humanize.Comma(int64(len(movies))), batch)

	if im.ranking != nil {
		if err := im.ranking.Publish(ctx, records); err != nil {
			return len(movies), fmt.Errorf("importer: ranking: %w", err)
		}
		im.logger.Info("[importer] Ranking mirror updated")
	}
	return len(movies), nil
}
