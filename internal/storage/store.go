package storage

import (
	"context"

	"morphogen/internal/model"
)

// Store persists genomes, decode reports and batch summaries.
type Store interface {
	Init(ctx context.Context) error
	SaveGenome(ctx context.Context, genome model.GenomeRecord) error
	GetGenome(ctx context.Context, id string) (model.GenomeRecord, bool, error)
	ListGenomes(ctx context.Context) ([]model.GenomeRecord, error)
	DeleteGenome(ctx context.Context, id string) error
	SaveReport(ctx context.Context, report model.DecodeReport) error
	GetReport(ctx context.Context, genomeID string) (model.DecodeReport, bool, error)
	ListReports(ctx context.Context) ([]model.DecodeReport, error)
	SaveBatch(ctx context.Context, batch model.BatchSummary) error
	GetBatch(ctx context.Context, id string) (model.BatchSummary, bool, error)
}
