// Package macro builds macro-machine transition tables: scaled-up tables
// whose symbols each pack k base symbols and whose states remember which
// side of the k-cell window the head entered from. Each entry is derived
// by simulating the base machine on a bounded local window.
package macro

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"halt/internal/machine"
	"halt/internal/run"
	"halt/internal/tape"
)

// MaxScale keeps macro symbols within the one-byte symbol type: 2^8
// packed base bits at most.
const MaxScale = 8

var (
	// ErrUnsupportedBase is returned when the base table's alphabet is
	// not the two-symbol one macro packing assumes.
	ErrUnsupportedBase = errors.New("macro: base table must have exactly 2 symbols")

	// ErrLocalCycle is returned when a window simulation neither halts
	// nor escapes within its finite configuration space, meaning the
	// base machine loops forever inside the window.
	ErrLocalCycle = errors.New("macro: local simulation cycled without escaping")
)

// Compile builds the macro table for a 2-symbol base table and a scale
// factor k >= 1. The result has 2^k symbols and twice the base's states:
// macro state (base<<1)|d encodes base state plus the direction d the head
// entered the window from. Entry derivations are independent, so they are
// fanned out over a pool of workers; workers <= 0 means one.
func Compile(ctx context.Context, base *machine.Table, scale, workers int) (*machine.Table, error) {
	if base.NSyms() != 2 {
		return nil, fmt.Errorf("%w, got %d", ErrUnsupportedBase, base.NSyms())
	}
	if scale < 1 || scale > MaxScale {
		return nil, fmt.Errorf("macro: scale %d out of range 1..%d", scale, MaxScale)
	}

	mm := machine.NewTable(1<<scale, base.NStates()*2)

	type job struct {
		state machine.State
		sym   machine.Symbol
	}
	type result struct {
		state machine.State
		sym   machine.Symbol
		instr machine.Instruction
		err   error
	}

	total := mm.NStates() * mm.NSyms()
	jobs := make(chan job)
	results := make(chan result, total)

	if workers <= 0 {
		workers = 1
	}
	if workers > total {
		workers = total
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				if err := ctx.Err(); err != nil {
					results <- result{state: j.state, sym: j.sym, err: err}
					continue
				}
				instr, err := deriveInstruction(base, scale, j.state, j.sym)
				results <- result{state: j.state, sym: j.sym, instr: instr, err: err}
			}
		}()
	}

	for state := 0; state < mm.NStates(); state++ {
		for sym := 0; sym < mm.NSyms(); sym++ {
			jobs <- job{state: machine.State(state), sym: machine.Symbol(sym)}
		}
	}
	close(jobs)
	wg.Wait()
	close(results)

	var firstErr error
	for res := range results {
		if res.err != nil {
			if firstErr == nil {
				firstErr = res.err
			}
			continue
		}
		mm.Store(res.state, res.sym, res.instr)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return mm, nil
}

// deriveInstruction simulates the base machine over one k-cell window to
// determine a single macro table entry. The window is a flat tape of k+2
// cells whose two edge cells are guards the head may reach but never act
// on: reaching one decides the exit direction.
func deriveInstruction(base *machine.Table, scale int, mmState machine.State, mmSym machine.Symbol) (machine.Instruction, error) {
	inDir := machine.Dir(mmState & 1)
	baseState := mmState >> 1

	// Position 0 is the cell the head enters on: the window's leftmost
	// cell when entering rightward, its rightmost when entering leftward.
	initPos := 1
	if inDir == machine.Left {
		initPos = scale
	}
	window := tape.NewFlat(scale+2, initPos, 1)
	for i := 0; i < scale; i++ {
		// Bit i of the macro symbol is cell scale-1-i of the window, so
		// the leftmost cell carries the highest bit.
		window.SetAt(scale-i-initPos, machine.Symbol(mmSym>>i)&1)
	}

	r, err := run.NewAt(base, baseState, window)
	if err != nil {
		return machine.Instruction{}, err
	}

	// A window of k cells, k+2 head positions and the doubled state count
	// has a finite configuration space; a simulation that outlasts it has
	// revisited a configuration and will never escape.
	budget := base.NStates()*2*(scale+2)<<scale + 1

	outDir := machine.Right
	for steps := 0; ; steps++ {
		if r.Halted() {
			// Exit direction is don't-care: the next macro state halts.
			break
		}
		rel := window.Pos()
		if (inDir == machine.Left && rel <= -scale) || (inDir == machine.Right && rel <= -1) {
			outDir = machine.Left
			break
		}
		if (inDir == machine.Right && rel >= scale) || (inDir == machine.Left && rel >= 1) {
			outDir = machine.Right
			break
		}
		if steps >= budget {
			return machine.Instruction{}, fmt.Errorf(
				"%w: state %d symbol %d exceeded %d steps", ErrLocalCycle, mmState, mmSym, budget)
		}
		r.Step()
	}

	var outSym machine.Symbol
	for i := 0; i < scale; i++ {
		outSym |= window.At(scale-i-initPos) << i
	}

	return machine.Instruction{
		Sym:  outSym,
		Next: r.State()<<1 | machine.State(outDir),
		Dir:  outDir,
	}, nil
}
