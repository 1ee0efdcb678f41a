// Package census runs corpora of machines to halt-or-budget and records
// what they did: whether they halted, after how many steps, and how many
// non-blank cells they left. It is the search/verification layer on top
// of the simulation core.
package census

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"halt/internal/machine"
	"halt/internal/model"
	"halt/internal/run"
	"halt/internal/storage"
	"halt/internal/tape"
)

// Tape backends a census can simulate on. BackendPaired attaches an RLE
// and a flat tape to every run with agreement checking on, the
// cross-validation mode.
const (
	BackendRLE    = "rle"
	BackendFlat   = "flat"
	BackendPaired = "paired"
)

// Runner drives census batches. Store is optional; with one attached,
// every batch is persisted under a fresh census ID.
type Runner struct {
	Store    storage.Store
	Workers  int
	MaxSteps int
	Backend  string
}

// Fixture is a machine with known behavior, used by Verify to cross-check
// the simulator against published results.
type Fixture struct {
	Text    string
	Steps   int
	Nonzero int
}

// Report is the outcome of one census batch.
type Report struct {
	CensusID string
	Results  []model.MachineResult
	Halted   int
}

// Run simulates every machine text in the batch. Individual machines that
// fail to parse are recorded with a per-machine error rather than failing
// the batch; only context cancellation aborts it.
func (r *Runner) Run(ctx context.Context, texts []string) (Report, error) {
	results := make([]model.MachineResult, len(texts))

	g, ctx := errgroup.WithContext(ctx)
	workers := r.Workers
	if workers <= 0 {
		workers = 1
	}
	g.SetLimit(workers)

	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = r.simulate(text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	report := Report{Results: results}
	for _, res := range results {
		if res.Halted {
			report.Halted++
		}
	}

	if r.Store != nil {
		record := model.CensusRecord{
			VersionedRecord: currentVersion(),
			ID:              uuid.NewString(),
			CreatedAtUTC:    time.Now().UTC().Format(time.RFC3339Nano),
			Backend:         r.backend(),
			MaxSteps:        r.maxSteps(),
			Machines:        len(results),
			Halted:          report.Halted,
		}
		if err := r.Store.SaveCensus(ctx, record); err != nil {
			return Report{}, err
		}
		if err := r.Store.SaveMachineResults(ctx, record.ID, results); err != nil {
			return Report{}, err
		}
		report.CensusID = record.ID
	}
	return report, nil
}

// Verify runs fixtures with known step and non-blank counts and marks any
// machine whose observed behavior disagrees. Mismatches are per-machine
// results, not batch errors.
func (r *Runner) Verify(ctx context.Context, fixtures []Fixture) (Report, error) {
	texts := make([]string, len(fixtures))
	for i, f := range fixtures {
		texts[i] = f.Text
	}

	report, err := r.Run(ctx, texts)
	if err != nil {
		return Report{}, err
	}

	for i, f := range fixtures {
		res := &report.Results[i]
		if res.Err != "" {
			continue
		}
		switch {
		case !res.Halted:
			res.Err = fmt.Sprintf("expected halt after %d steps, still running after %d", f.Steps, res.Steps)
		case res.Steps != f.Steps:
			res.Err = fmt.Sprintf("halted after %d steps, want %d", res.Steps, f.Steps)
		case res.Nonzero != f.Nonzero:
			res.Err = fmt.Sprintf("left %d non-blank cells, want %d", res.Nonzero, f.Nonzero)
		}
	}
	return report, nil
}

func (r *Runner) simulate(text string) model.MachineResult {
	result := model.MachineResult{VersionedRecord: currentVersion(), Text: text}

	table, err := machine.Parse(text)
	if err != nil {
		result.Err = err.Error()
		return result
	}

	tapes, err := NewTapes(r.backend(), table.SymBits())
	if err != nil {
		result.Err = err.Error()
		return result
	}

	rn, err := run.New(table, tapes...)
	if err != nil {
		result.Err = err.Error()
		return result
	}
	rn.CheckAgreement = len(tapes) > 1
	defer rn.Free()

	result.Halted = rn.RunFor(r.maxSteps())
	result.Steps = rn.Steps()
	if nonzero, ok := tape.NonzeroCount(tapes[0]); ok {
		result.Nonzero = nonzero
	}
	return result
}

// NewTapes builds the tape set for a census backend name.
func NewTapes(backend string, symBits uint) ([]tape.Tape, error) {
	switch backend {
	case BackendRLE:
		return []tape.Tape{tape.NewRLE(symBits)}, nil
	case BackendFlat:
		return []tape.Tape{tape.NewFlat(64, 32, symBits)}, nil
	case BackendPaired:
		return []tape.Tape{tape.NewRLE(symBits), tape.NewFlat(64, 32, symBits)}, nil
	default:
		return nil, fmt.Errorf("census: unsupported tape backend: %s", backend)
	}
}

func (r *Runner) backend() string {
	if r.Backend == "" {
		return BackendRLE
	}
	return r.Backend
}

func (r *Runner) maxSteps() int {
	if r.MaxSteps <= 0 {
		return 1_000_000
	}
	return r.MaxSteps
}

func currentVersion() model.VersionedRecord {
	return model.VersionedRecord{
		SchemaVersion: storage.CurrentSchemaVersion,
		CodecVersion:  storage.CurrentCodecVersion,
	}
}
