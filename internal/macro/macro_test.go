package macro

import (
	"context"
	"errors"
	"math/bits"
	"testing"

	"halt/internal/machine"
	"halt/internal/run"
	"halt/internal/tape"
)

func parseTable(t *testing.T, text string) *machine.Table {
	t.Helper()
	table, err := machine.Parse(text)
	if err != nil {
		t.Fatalf("parse %q: %v", text, err)
	}
	return table
}

func TestCompileRejectsWideAlphabets(t *testing.T) {
	base := parseTable(t, "1RB2LA1RZ_2LA2RB1LB")
	_, err := Compile(context.Background(), base, 2, 1)
	if !errors.Is(err, ErrUnsupportedBase) {
		t.Fatalf("got %v, want ErrUnsupportedBase", err)
	}
}

func TestCompileRejectsBadScale(t *testing.T) {
	base := parseTable(t, "1RB1LB_1LA1LZ")
	for _, scale := range []int{0, -1, MaxScale + 1} {
		if _, err := Compile(context.Background(), base, scale, 1); err == nil {
			t.Fatalf("scale %d accepted", scale)
		}
	}
}

func TestCompileHonorsCancellation(t *testing.T) {
	base := parseTable(t, "1RB1LB_1LA1LZ")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Compile(ctx, base, 2, 2); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}

// At scale 1 every macro step is exactly one base step, so each macro
// entry must mirror the base instruction with the doubled state encoding:
// macro state (base<<1)|entryDir, next macro state (next<<1)|exitDir.
func TestScaleOneMirrorsBaseTable(t *testing.T) {
	base := parseTable(t, "1RB1LB_1LA1LZ")
	mm, err := Compile(context.Background(), base, 1, 2)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if mm.NSyms() != 2 || mm.NStates() != 4 {
		t.Fatalf("macro table is %dx%d, want 2 symbols x 4 states", mm.NSyms(), mm.NStates())
	}

	for mmState := machine.State(0); mmState < 4; mmState++ {
		baseState := mmState >> 1
		for sym := machine.Symbol(0); sym < 2; sym++ {
			want := base.Lookup(baseState, sym)
			if base.Halted(want.Next) {
				// The exit direction is don't-care once the next state
				// halts; only write and haltedness must carry over.
				got := mm.Lookup(mmState, sym)
				if got.Sym != want.Sym {
					t.Fatalf("state %d sym %d writes %d, want %d", mmState, sym, got.Sym, want.Sym)
				}
				if !mm.Halted(got.Next) {
					t.Fatalf("state %d sym %d does not halt", mmState, sym)
				}
				continue
			}

			wantMacro := machine.Instruction{
				Sym:  want.Sym,
				Next: want.Next<<1 | machine.State(want.Dir),
				Dir:  want.Dir,
			}
			if got := mm.Lookup(mmState, sym); got != wantMacro {
				t.Fatalf("state %d sym %d = %+v, want %+v", mmState, sym, got, wantMacro)
			}
		}
	}
}

// Running the scale-1 macro table from a blank tape must reproduce the
// base machine's behavior step for step.
func TestScaleOneRunMatchesBase(t *testing.T) {
	base := parseTable(t, "1RB1LB_1LA1LZ")
	mm, err := Compile(context.Background(), base, 1, 2)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	baseRun, err := run.New(base, tape.NewRLE(base.SymBits()))
	if err != nil {
		t.Fatalf("base run: %v", err)
	}
	defer baseRun.Free()
	mmRun, err := run.New(mm, tape.NewRLE(mm.SymBits()))
	if err != nil {
		t.Fatalf("macro run: %v", err)
	}
	defer mmRun.Free()

	if !baseRun.RunFor(100) || !mmRun.RunFor(100) {
		t.Fatal("runs did not halt within 100 steps")
	}
	if baseRun.Steps() != mmRun.Steps() {
		t.Fatalf("base halted after %d steps, macro after %d", baseRun.Steps(), mmRun.Steps())
	}
}

// The three-state champion compiled at scale 2 must still halt from a
// blank tape with the same 5 ones, now spread over packed cells.
func TestScaleTwoPreservesChampionOutcome(t *testing.T) {
	base := parseTable(t, "1RB1RZ_1LB0RC_1LC1LA")
	mm, err := Compile(context.Background(), base, 2, 4)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if mm.NSyms() != 4 || mm.NStates() != 6 {
		t.Fatalf("macro table is %dx%d, want 4 symbols x 6 states", mm.NSyms(), mm.NStates())
	}

	window := tape.NewFlat(64, 32, mm.SymBits())
	r, err := run.New(mm, window)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	defer r.Free()

	if !r.RunFor(100) {
		t.Fatal("macro run did not halt within 100 steps")
	}
	if got := r.Steps(); got > 21 {
		t.Fatalf("macro run took %d steps, more than the base's 21", got)
	}

	ones := 0
	for rel := -16; rel <= 16; rel++ {
		ones += bits.OnesCount8(uint8(window.At(rel)))
	}
	if ones != 5 {
		t.Fatalf("unpacked tape holds %d ones, want 5", ones)
	}
}

// State B writes and steps right, state C writes and steps back left, so
// the head ping-pongs inside any window without ever escaping.
func TestCompileDetectsLocalCycle(t *testing.T) {
	base := parseTable(t, "1RB---_1RC1RC_0LB0LB")
	_, err := Compile(context.Background(), base, 2, 2)
	if !errors.Is(err, ErrLocalCycle) {
		t.Fatalf("got %v, want ErrLocalCycle", err)
	}
}
