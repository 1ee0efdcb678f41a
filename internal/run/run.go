// Package run drives one or more tapes through repeated transition-table
// lookups, producing steps until the machine halts.
package run

import (
	"errors"
	"fmt"

	"halt/internal/machine"
	"halt/internal/tape"
)

// MaxTapes bounds how many tapes one run may drive in lockstep. Extra
// tapes exist only to cross-validate backends against each other.
const MaxTapes = 3

// Run is one execution of a machine: a non-owning reference to a shared,
// immutable transition table, one to three exclusively-owned tapes, the
// current state and a step counter. The first tape is authoritative; with
// CheckAgreement set, every step also asserts that all attached tapes read
// the same symbol.
type Run struct {
	table *machine.Table
	tapes []tape.Tape
	state machine.State
	steps int

	// CheckAgreement makes Step panic if attached tapes disagree on the
	// symbol under the head. A disagreement is a tape-backend bug, not a
	// property of the machine, so it fails loudly.
	CheckAgreement bool
}

// New creates a run starting in state 0 at position 0 with zero steps.
func New(table *machine.Table, tapes ...tape.Tape) (*Run, error) {
	return NewAt(table, 0, tapes...)
}

// NewAt creates a run starting in an arbitrary state. The macro compiler
// uses this to resume the base machine mid-program on a bounded window.
func NewAt(table *machine.Table, state machine.State, tapes ...tape.Tape) (*Run, error) {
	if len(tapes) == 0 {
		return nil, errors.New("run: at least one tape is required")
	}
	if len(tapes) > MaxTapes {
		return nil, fmt.Errorf("run: at most %d tapes are supported, got %d", MaxTapes, len(tapes))
	}
	return &Run{table: table, tapes: tapes, state: state}, nil
}

// Steps is the number of steps taken since the run was created.
func (r *Run) Steps() int { return r.steps }

// State is the current control state; a halt sentinel once halted.
func (r *Run) State() machine.State { return r.state }

// Halted reports whether the run has reached a halt sentinel. Halted is
// terminal: no step leaves it.
func (r *Run) Halted() bool {
	return r.table.Halted(r.state)
}

// Step performs one machine step: read the symbol under the head, look up
// the instruction for (state, symbol), write and move on every attached
// tape, then advance the step counter and state. It reports whether the
// machine has halted. Stepping an already-halted run is a caller bug and
// panics.
func (r *Run) Step() bool {
	if r.Halted() {
		panic("run: step on halted machine")
	}

	sym := r.tapes[0].Read()
	if r.CheckAgreement {
		for i, t := range r.tapes[1:] {
			if got := t.Read(); got != sym {
				panic(fmt.Sprintf("run: tape %d reads %d where tape 0 reads %d at step %d",
					i+1, got, sym, r.steps))
			}
		}
	}

	instr := r.table.Lookup(r.state, sym)
	delta := instr.Dir.Delta()
	for _, t := range r.tapes {
		t.Write(instr.Sym)
		t.Move(delta)
	}

	r.state = instr.Next
	r.steps++
	return r.Halted()
}

// RunFor steps until the machine halts or maxSteps steps have been taken
// by this call, whichever comes first, and reports whether it halted. The
// budget is per call, not cumulative over the run's lifetime.
func (r *Run) RunFor(maxSteps int) bool {
	for taken := 0; taken < maxSteps; taken++ {
		if r.Halted() {
			return true
		}
		r.Step()
	}
	return r.Halted()
}

// Free releases every attached tape. The table is shared and untouched.
func (r *Run) Free() {
	for _, t := range r.tapes {
		t.Free()
	}
	r.tapes = nil
}
