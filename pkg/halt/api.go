// Package halt is the public facade over the simulation core: one-machine
// simulation, macro-table compilation, census batches and their stored
// results.
package halt

import (
	"context"
	"errors"
	"fmt"

	"halt/internal/census"
	"halt/internal/machine"
	"halt/internal/macro"
	"halt/internal/model"
	"halt/internal/run"
	"halt/internal/storage"
	"halt/internal/tape"
)

const defaultDBPath = "halt.db"

type Options struct {
	StoreKind string
	DBPath    string
}

type Client struct {
	store storage.Store
}

type SimulateRequest struct {
	Text     string
	MaxSteps int
	Backend  string
}

type SimulateSummary struct {
	Halted  bool
	Steps   int
	Nonzero int
}

type MacroRequest struct {
	Text    string
	Scale   int
	Workers int
}

type MacroSummary struct {
	Text    string
	NSyms   int
	NStates int
}

type CensusRequest struct {
	Texts    []string
	MaxSteps int
	Workers  int
	Backend  string
}

type CensusSummary struct {
	CensusID string
	Machines int
	Halted   int
}

type CensusesRequest struct {
	Limit int
}

type CensusItem struct {
	CensusID     string
	CreatedAtUTC string
	Backend      string
	MaxSteps     int
	Machines     int
	Halted       int
}

type ResultsRequest struct {
	CensusID string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	return &Client{store: store}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	return c.store.Init(ctx)
}

// Simulate runs one machine to halt or budget on the requested backend.
func (c *Client) Simulate(_ context.Context, req SimulateRequest) (SimulateSummary, error) {
	if req.Text == "" {
		return SimulateSummary{}, errors.New("machine text is required")
	}
	if req.MaxSteps <= 0 {
		req.MaxSteps = 1_000_000
	}
	if req.Backend == "" {
		req.Backend = census.BackendRLE
	}

	table, err := machine.Parse(req.Text)
	if err != nil {
		return SimulateSummary{}, err
	}
	tapes, err := census.NewTapes(req.Backend, table.SymBits())
	if err != nil {
		return SimulateSummary{}, err
	}
	rn, err := run.New(table, tapes...)
	if err != nil {
		return SimulateSummary{}, err
	}
	rn.CheckAgreement = len(tapes) > 1
	defer rn.Free()

	halted := rn.RunFor(req.MaxSteps)
	summary := SimulateSummary{Halted: halted, Steps: rn.Steps()}
	if nonzero, ok := tape.NonzeroCount(tapes[0]); ok {
		summary.Nonzero = nonzero
	}
	return summary, nil
}

// CompileMacro builds the macro table for a 2-symbol machine and returns
// it in the standard text format, or as the grid rendering once the packed
// alphabet outgrows the single-digit format.
func (c *Client) CompileMacro(ctx context.Context, req MacroRequest) (MacroSummary, error) {
	if req.Text == "" {
		return MacroSummary{}, errors.New("machine text is required")
	}
	if req.Scale <= 0 {
		req.Scale = 2
	}
	if req.Workers <= 0 {
		req.Workers = 4
	}

	table, err := machine.Parse(req.Text)
	if err != nil {
		return MacroSummary{}, err
	}
	mm, err := macro.Compile(ctx, table, req.Scale, req.Workers)
	if err != nil {
		return MacroSummary{}, err
	}
	text, err := mm.Format()
	if err != nil {
		text, err = mm.Grid(true)
		if err != nil {
			return MacroSummary{}, err
		}
	}
	return MacroSummary{Text: text, NSyms: mm.NSyms(), NStates: mm.NStates()}, nil
}

// Census runs a batch of machines and persists the results.
func (c *Client) Census(ctx context.Context, req CensusRequest) (CensusSummary, error) {
	if len(req.Texts) == 0 {
		return CensusSummary{}, errors.New("at least one machine text is required")
	}
	if req.Workers <= 0 {
		req.Workers = 4
	}

	if err := c.store.Init(ctx); err != nil {
		return CensusSummary{}, err
	}
	runner := &census.Runner{
		Store:    c.store,
		Workers:  req.Workers,
		MaxSteps: req.MaxSteps,
		Backend:  req.Backend,
	}
	report, err := runner.Run(ctx, req.Texts)
	if err != nil {
		return CensusSummary{}, err
	}
	return CensusSummary{
		CensusID: report.CensusID,
		Machines: len(report.Results),
		Halted:   report.Halted,
	}, nil
}

// Censuses lists stored census runs, newest first.
func (c *Client) Censuses(ctx context.Context, req CensusesRequest) ([]CensusItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	if err := c.store.Init(ctx); err != nil {
		return nil, err
	}
	records, err := c.store.ListCensuses(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) > req.Limit {
		records = records[:req.Limit]
	}

	out := make([]CensusItem, 0, len(records))
	for _, rec := range records {
		out = append(out, CensusItem{
			CensusID:     rec.ID,
			CreatedAtUTC: rec.CreatedAtUTC,
			Backend:      rec.Backend,
			MaxSteps:     rec.MaxSteps,
			Machines:     rec.Machines,
			Halted:       rec.Halted,
		})
	}
	return out, nil
}

// Results returns the per-machine results of one census run.
func (c *Client) Results(ctx context.Context, req ResultsRequest) ([]model.MachineResult, error) {
	if req.CensusID == "" {
		return nil, errors.New("census id is required")
	}

	if err := c.store.Init(ctx); err != nil {
		return nil, err
	}
	results, ok, err := c.store.GetMachineResults(ctx, req.CensusID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("results not found for census id: %s", req.CensusID)
	}
	return results, nil
}
