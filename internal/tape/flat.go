package tape

import (
	"fmt"

	"halt/internal/machine"
)

// Flat is a tape backed by one contiguous symbol buffer with an interior
// offset mapping logical position zero into the buffer. Moving past either
// end doubles the buffer and recenters the contents, so moves stay
// amortized O(1) at the cost of a full copy on each geometrically rare
// growth event.
type Flat struct {
	syms    []machine.Symbol
	relPos  int // head position relative to logical zero
	initPos int // buffer index of logical zero; 0 <= relPos+initPos < len(syms)
	symBits uint
}

// NewFlat creates a zero-filled flat tape of the given initial length with
// logical zero at initPos.
func NewFlat(length, initPos int, symBits uint) *Flat {
	if length < 2 || initPos < 0 || initPos >= length {
		panic(fmt.Sprintf("tape: flat init position %d outside buffer of %d", initPos, length))
	}
	if symBits < 1 || symBits > 8 {
		panic(fmt.Sprintf("tape: flat symbol width %d out of range 1..8", symBits))
	}
	return &Flat{
		syms:    make([]machine.Symbol, length),
		initPos: initPos,
		symBits: symBits,
	}
}

// Pos is the head position relative to the starting cell.
func (t *Flat) Pos() int { return t.relPos }

// Len is the current buffer length.
func (t *Flat) Len() int { return len(t.syms) }

func (t *Flat) Read() machine.Symbol {
	return t.syms[t.relPos+t.initPos]
}

func (t *Flat) Write(sym machine.Symbol) {
	t.syms[t.relPos+t.initPos] = sym
}

// At reads the cell at an arbitrary relative position without moving the
// head. The position must be inside the current buffer.
func (t *Flat) At(relPos int) machine.Symbol {
	return t.syms[t.cell(relPos)]
}

// SetAt writes the cell at an arbitrary relative position without moving
// the head. Used to seed bounded windows; the position must be inside the
// current buffer.
func (t *Flat) SetAt(relPos int, sym machine.Symbol) {
	t.syms[t.cell(relPos)] = sym
}

func (t *Flat) cell(relPos int) int {
	mem := relPos + t.initPos
	if mem < 0 || mem >= len(t.syms) {
		panic(fmt.Sprintf("tape: flat position %d outside buffer of %d", relPos, len(t.syms)))
	}
	return mem
}

// Move shifts the head one cell, growing the buffer first when the new
// position would fall outside it. Growth doubles the length and copies the
// old contents in at half the old length from the start, so the tape gains
// roughly 50% headroom on each side.
func (t *Flat) Move(delta int) {
	checkDelta(delta)

	if mem := t.relPos + t.initPos + delta; mem < 0 || mem >= len(t.syms) {
		oldLen := len(t.syms)
		offset := oldLen / 2
		grown := make([]machine.Symbol, oldLen*2)
		copy(grown[offset:], t.syms)
		t.syms = grown
		t.initPos += offset
	}

	t.relPos += delta
}

func (t *Flat) Free() {
	t.syms = nil
}

// CountNonzero scans the buffer and totals the non-blank cells.
func (t *Flat) CountNonzero() int {
	nonzero := 0
	for _, sym := range t.syms {
		if sym != 0 {
			nonzero++
		}
	}
	return nonzero
}
