package storage

import (
	"context"

	"halt/internal/model"
)

// Store defines persistence operations for census runs and their
// per-machine results.
type Store interface {
	Init(ctx context.Context) error
	SaveCensus(ctx context.Context, census model.CensusRecord) error
	GetCensus(ctx context.Context, id string) (model.CensusRecord, bool, error)
	ListCensuses(ctx context.Context) ([]model.CensusRecord, error)
	SaveMachineResults(ctx context.Context, censusID string, results []model.MachineResult) error
	GetMachineResults(ctx context.Context, censusID string) ([]model.MachineResult, bool, error)
}
