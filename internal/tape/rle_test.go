package tape

import (
	"testing"

	"halt/internal/machine"
)

// checkRunInvariants walks the run list left to right and verifies that
// every run is non-empty, neighbor links are symmetric, and no two
// adjacent runs share a symbol.
func checkRunInvariants(t *testing.T, tp *RLE) {
	t.Helper()
	prev := noRun
	for i := tp.leftmost(); i != noRun; i = tp.runs[i].right {
		if tp.runs[i].len < 1 {
			t.Fatalf("run %d has length %d", i, tp.runs[i].len)
		}
		if tp.runs[i].left != prev {
			t.Fatalf("run %d left link is %d, want %d", i, tp.runs[i].left, prev)
		}
		if prev != noRun && tp.runs[prev].sym == tp.runs[i].sym {
			t.Fatalf("adjacent runs %d and %d both hold symbol %d", prev, i, tp.runs[i].sym)
		}
		prev = i
	}
}

func countRuns(tp *RLE) int {
	n := 0
	for i := tp.leftmost(); i != noRun; i = tp.runs[i].right {
		n++
	}
	return n
}

func TestRLEBlankTape(t *testing.T) {
	tp := NewRLE(1)
	if got := tp.Read(); got != 0 {
		t.Fatalf("blank tape reads %d, want 0", got)
	}
	if got := tp.CountNonzero(); got != 0 {
		t.Fatalf("blank tape has %d non-blank cells, want 0", got)
	}
	checkRunInvariants(t, tp)
}

func TestRLEWriteSplitsInteriorRun(t *testing.T) {
	tp := NewRLE(1)
	// Lay down 0 1 0 with the head ending on the 1.
	tp.Move(1)
	tp.Write(1)
	if got := tp.Read(); got != 1 {
		t.Fatalf("read %d after write, want 1", got)
	}
	if got := countRuns(tp); got != 2 {
		t.Fatalf("tape has %d runs, want 2", got)
	}
	checkRunInvariants(t, tp)
}

func TestRLEWriteThreeWayMerge(t *testing.T) {
	tp := NewRLE(1)
	// Build 1 0 1 and park the head on the interior 0.
	tp.Write(1)
	tp.Move(1)
	tp.Move(1)
	tp.Write(1)
	tp.Move(-1)
	if got := tp.Read(); got != 0 {
		t.Fatalf("head should sit on the gap, read %d", got)
	}

	// Filling the gap must coalesce all three runs into one.
	tp.Write(1)
	if got := countRuns(tp); got != 1 {
		t.Fatalf("tape has %d runs after merge, want 1", got)
	}
	if got := tp.Read(); got != 1 {
		t.Fatalf("read %d after merge, want 1", got)
	}
	if got := tp.CountNonzero(); got != 3 {
		t.Fatalf("merged tape has %d non-blank cells, want 3", got)
	}
	checkRunInvariants(t, tp)

	// The head must still address the middle cell.
	tp.Move(-1)
	if got := tp.Read(); got != 1 {
		t.Fatalf("left neighbor reads %d, want 1", got)
	}
	tp.Move(1)
	tp.Move(1)
	if got := tp.Read(); got != 1 {
		t.Fatalf("right neighbor reads %d, want 1", got)
	}
}

func TestRLEWriteMergesIntoLeftNeighbor(t *testing.T) {
	tp := NewRLE(1)
	// Build 1 1 0 0 with the head on the first 0.
	tp.Write(1)
	tp.Move(1)
	tp.Write(1)
	tp.Move(1)
	tp.Move(1)
	tp.Move(-1)

	tp.Write(1)
	checkRunInvariants(t, tp)
	if got := tp.CountNonzero(); got != 3 {
		t.Fatalf("tape has %d non-blank cells, want 3", got)
	}
	if got := tp.Read(); got != 1 {
		t.Fatalf("read %d after merge, want 1", got)
	}
}

func TestRLEMoveExtendsBlankEdgeRun(t *testing.T) {
	tp := NewRLE(1)
	for i := 0; i < 5; i++ {
		tp.Move(-1)
	}
	if got := len(tp.runs); got != 1 {
		t.Fatalf("edge moves allocated %d runs, want the original 1", got)
	}
	if got := tp.Pos(); got != -5 {
		t.Fatalf("head at %d, want -5", got)
	}
	checkRunInvariants(t, tp)
}

func TestRLEArenaReusesFreedSlots(t *testing.T) {
	tp := NewRLE(1)
	// Repeatedly split and re-merge the same region; the arena must not
	// grow without bound.
	tp.Write(1)
	tp.Move(1)
	tp.Move(1)
	tp.Write(1)
	tp.Move(-1)
	for i := 0; i < 100; i++ {
		tp.Write(1)
		tp.Write(0)
	}
	if got := len(tp.runs); got > 8 {
		t.Fatalf("arena grew to %d slots across split/merge cycles", got)
	}
	checkRunInvariants(t, tp)
}

func TestBackendsAgreeUnderRandomOps(t *testing.T) {
	rle := NewRLE(2)
	flat := NewFlat(64, 32, 2)
	bit := NewBit(2, 8192, 4096)
	tapes := []Tape{rle, flat, bit}

	// Deterministic LCG drives an identical op sequence on every backend.
	seed := uint64(0x9e3779b97f4a7c15)
	for i := 0; i < 2000; i++ {
		seed = seed*6364136223846793005 + 1442695040888963407
		op := seed >> 60
		switch {
		case op < 6:
			sym := machine.Symbol(seed >> 32 & 3)
			for _, tp := range tapes {
				tp.Write(sym)
			}
		case op < 11:
			for _, tp := range tapes {
				tp.Move(1)
			}
		default:
			for _, tp := range tapes {
				tp.Move(-1)
			}
		}
		want := rle.Read()
		for _, tp := range tapes[1:] {
			if got := tp.Read(); got != want {
				t.Fatalf("op %d: %T reads %d, rle reads %d", i, tp, got, want)
			}
		}
	}
	checkRunInvariants(t, rle)

	if diff, equal := Compare(rle, flat, 200); !equal {
		t.Fatalf("tapes differ at offset %d", diff)
	}
	a, _ := NonzeroCount(rle)
	b, _ := NonzeroCount(flat)
	if a != b {
		t.Fatalf("rle counts %d non-blank cells, flat counts %d", a, b)
	}
}
