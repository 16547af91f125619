package storage

import (
	"context"

	"imdb-rank/models"
)

// ExportWriter persists the ranked export.
type ExportWriter interface {
	Write(records []*models.RankedExportRecord) error
}

// MovieStore is the record store the bulk loader fills and the browsing
// application reads.
type MovieStore interface {
	// Replace upserts movies keyed by ID and removes rows from earlier loads.
	Replace(ctx context.Context, batch string, movies []*models.Movie) error
	Count(ctx context.Context) (int, error)
	Browse(ctx context.Context, category string, page int) (*Page, error)
	Search(ctx context.Context, f SearchFilter) ([]*models.Movie, error)
	Close() error
}

// RankingPublisher mirrors the ranking into a fast lookup structure.
type RankingPublisher interface {
	Publish(ctx context.Context, records []*models.RankedExportRecord) error
	Close() error
}
