// Package tape provides the infinite-tape memory model: three
// interchangeable backends behind one capability interface, plus the
// cross-backend comparison oracle used to verify they agree.
package tape

import (
	"fmt"

	"halt/internal/machine"
)

// Tape is the storage capability shared by all backends. A tape owns its
// storage and a head cursor addressed relative to a fixed logical zero.
// Reading an untouched cell returns the blank symbol; the tape is
// conceptually infinite in both directions. The RLE and flat backends
// extend lazily and Move never fails for them; the bit-packed backend has
// a fixed capacity and panics when moved past it.
type Tape interface {
	// Read returns the symbol under the head. It never fails.
	Read() machine.Symbol
	// Write replaces the symbol under the head. Writing a symbol wider
	// than the tape's symbol width is a caller bug, not a runtime error.
	Write(machine.Symbol)
	// Move shifts the head by delta, which must be -1 or +1.
	Move(delta int)
	// Free releases the tape's storage.
	Free()
}

func checkDelta(delta int) {
	if delta != -1 && delta != 1 {
		panic(fmt.Sprintf("tape: move delta must be -1 or +1, got %d", delta))
	}
}

// NonzeroCount reports how many non-blank cells t holds, when the backend
// supports counting. All backends in this package do; the probe keeps the
// core interface minimal.
func NonzeroCount(t Tape) (int, bool) {
	counter, ok := t.(interface{ CountNonzero() int })
	if !ok {
		return 0, false
	}
	return counter.CountNonzero(), true
}

// Compare walks window cells to the right and then to the left of the
// current head on both tapes, restoring the head afterward through
// matching moves, and reports the signed offset of the first cell where
// the reads disagree. It is a testing oracle: it uses no structural
// knowledge of either backend, and the walk may extend lazily-growing
// tapes beyond what a run would have touched.
func Compare(a, b Tape, window int) (diff int, equal bool) {
	if window < 0 {
		panic(fmt.Sprintf("tape: compare window must be >= 0, got %d", window))
	}

	if a.Read() != b.Read() {
		return 0, false
	}

	found := false
	for _, delta := range []int{1, -1} {
		moved := 0
		for moved < window && !found {
			a.Move(delta)
			b.Move(delta)
			moved++
			if a.Read() != b.Read() {
				diff = delta * moved
				found = true
			}
		}
		for ; moved > 0; moved-- {
			a.Move(-delta)
			b.Move(-delta)
		}
		if found {
			return diff, false
		}
	}
	return 0, true
}
