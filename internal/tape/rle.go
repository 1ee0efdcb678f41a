package tape

import (
	"fmt"

	"halt/internal/machine"
)

// rleRun is one maximal run of a repeated symbol. Runs live in an arena
// and address their neighbors by index; -1 means the infinite blank edge.
type rleRun struct {
	left  int32
	right int32
	len   int32
	sym   machine.Symbol
}

const noRun = int32(-1)

// RLE is a run-length-encoded tape: a doubly-linked list of (symbol,
// length) runs kept maximal, so no two adjacent runs ever share a symbol.
// Nodes are arena slots with a free list instead of heap pointers, which
// keeps splice and merge free of dangling references.
type RLE struct {
	runs    []rleRun
	free    []int32
	curr    int32
	pos     int32 // head offset within the current run
	rel     int   // head position relative to logical zero, for diagnostics
	symBits uint
}

// NewRLE creates a blank RLE tape for symbols of the given bit width.
func NewRLE(symBits uint) *RLE {
	if symBits < 1 || symBits > 8 {
		panic(fmt.Sprintf("tape: rle symbol width %d out of range 1..8", symBits))
	}
	t := &RLE{curr: noRun, symBits: symBits}
	t.curr = t.alloc(0, 1)
	return t
}

// Pos is the head position relative to the starting cell.
func (t *RLE) Pos() int { return t.rel }

func (t *RLE) alloc(sym machine.Symbol, length int32) int32 {
	if n := len(t.free); n > 0 {
		i := t.free[n-1]
		t.free = t.free[:n-1]
		t.runs[i] = rleRun{left: noRun, right: noRun, len: length, sym: sym}
		return i
	}
	t.runs = append(t.runs, rleRun{left: noRun, right: noRun, len: length, sym: sym})
	return int32(len(t.runs) - 1)
}

func (t *RLE) release(i int32) {
	t.runs[i] = rleRun{left: noRun, right: noRun}
	t.free = append(t.free, i)
}

// link joins two runs, either of which may be the blank edge.
func (t *RLE) link(left, right int32) {
	if left != noRun {
		t.runs[left].right = right
	}
	if right != noRun {
		t.runs[right].left = left
	}
}

// shrink removes one cell from run i; a run shrunk to nothing is unlinked
// and its arena slot returned to the free list.
func (t *RLE) shrink(i int32) {
	t.runs[i].len--
	if t.runs[i].len <= 0 {
		t.link(t.runs[i].left, t.runs[i].right)
		t.release(i)
	}
}

func (t *RLE) Read() machine.Symbol {
	return t.runs[t.curr].sym
}

// Write replaces the symbol under the head, restoring run maximality:
// edge writes merge into a matching neighbor in O(1), interior writes
// split the current run into up to three runs.
func (t *RLE) Write(sym machine.Symbol) {
	orig := t.curr
	o := t.runs[orig]
	if o.sym == sym {
		return
	}

	if o.len == 1 {
		mergeLeft := o.left != noRun && t.runs[o.left].sym == sym
		mergeRight := o.right != noRun && t.runs[o.right].sym == sym
		if mergeLeft && mergeRight {
			// The write closes the gap between two same-symbol runs.
			newPos := t.runs[o.left].len
			t.runs[o.left].len += 1 + t.runs[o.right].len
			t.link(o.left, t.runs[o.right].right)
			t.release(orig)
			t.release(o.right)
			t.curr = o.left
			t.pos = newPos
			return
		}
	}

	if t.pos == 0 && o.left != noRun && t.runs[o.left].sym == sym {
		t.curr = o.left
		t.runs[o.left].len++
		t.pos = t.runs[o.left].len - 1
		t.shrink(orig)
		return
	}

	if t.pos == o.len-1 && o.right != noRun && t.runs[o.right].sym == sym {
		t.curr = o.right
		t.runs[o.right].len++
		t.pos = 0
		t.shrink(orig)
		return
	}

	// Split into left remainder, a one-cell run of sym, right remainder.
	mid := t.alloc(sym, 1)
	if leftLen := t.pos; leftLen > 0 {
		newLeft := t.alloc(o.sym, leftLen)
		t.link(o.left, newLeft)
		t.link(newLeft, mid)
	} else {
		t.link(o.left, mid)
	}
	if rightLen := o.len - t.pos - 1; rightLen > 0 {
		newRight := t.alloc(o.sym, rightLen)
		t.link(mid, newRight)
		t.link(newRight, o.right)
	} else {
		t.link(mid, o.right)
	}
	t.curr = mid
	t.pos = 0
	t.release(orig)
}

// Move shifts the head one cell, descending into a neighbor run when
// leaving the current one. At a blank edge run the run itself is extended
// by one cell instead of allocating a singleton, which keeps back-and-forth
// edge traffic amortized O(1) with no allocation.
func (t *RLE) Move(delta int) {
	checkDelta(delta)
	t.rel += delta

	cur := t.curr
	np := t.pos + int32(delta)

	if np < 0 {
		if l := t.runs[cur].left; l != noRun {
			t.curr = l
			t.pos = t.runs[l].len - 1
		} else if t.runs[cur].sym == 0 {
			t.runs[cur].len++
		} else {
			newLeft := t.alloc(0, 1)
			t.link(newLeft, cur)
			t.curr = newLeft
			t.pos = 0
		}
		return
	}

	if np >= t.runs[cur].len {
		if r := t.runs[cur].right; r != noRun {
			t.curr = r
			t.pos = 0
		} else if t.runs[cur].sym == 0 {
			t.runs[cur].len++
			t.pos = np
		} else {
			newRight := t.alloc(0, 1)
			t.link(cur, newRight)
			t.curr = newRight
			t.pos = 0
		}
		return
	}

	t.pos = np
}

func (t *RLE) Free() {
	t.runs = nil
	t.free = nil
	t.curr = noRun
}

// CountNonzero scans every run and totals the non-blank cells.
func (t *RLE) CountNonzero() int {
	nonzero := 0
	for i := t.leftmost(); i != noRun; i = t.runs[i].right {
		if t.runs[i].sym != 0 {
			nonzero += int(t.runs[i].len)
		}
	}
	return nonzero
}

func (t *RLE) leftmost() int32 {
	i := t.curr
	for i != noRun && t.runs[i].left != noRun {
		i = t.runs[i].left
	}
	return i
}
