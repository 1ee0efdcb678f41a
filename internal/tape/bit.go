package tape

import (
	"fmt"

	"halt/internal/machine"
)

const wordBits = 64

// PackedField is a fixed-capacity array of equal-width bit fields packed
// into 64-bit words. A field may straddle two adjacent words; reads and
// writes then split into a low-word and high-word part whose shift amounts
// sum to the field width.
type PackedField struct {
	words []uint64
	width uint
	n     int
}

// NewPackedField allocates n zeroed fields of the given width (1..63 bits).
func NewPackedField(width uint, n int) *PackedField {
	if width < 1 || width >= wordBits {
		panic(fmt.Sprintf("tape: packed field width %d out of range 1..%d", width, wordBits-1))
	}
	if n < 1 {
		panic(fmt.Sprintf("tape: packed field count %d out of range", n))
	}
	nWords := (n*int(width) + wordBits - 1) / wordBits
	return &PackedField{words: make([]uint64, nWords), width: width, n: n}
}

// Len is the number of fields.
func (f *PackedField) Len() int { return f.n }

func (f *PackedField) span(i int) (wordFrom, wordTo int, shiftLow, shiftHigh uint) {
	if i < 0 || i >= f.n {
		panic(fmt.Sprintf("tape: packed field index %d outside 0..%d", i, f.n-1))
	}
	bitFrom := i * int(f.width)
	bitTo := bitFrom + int(f.width)
	wordFrom = bitFrom / wordBits
	wordTo = (bitTo - 1) / wordBits
	shiftLow = uint(bitFrom % wordBits)
	shiftHigh = uint(bitTo % wordBits)
	return
}

func mask(from, to uint) uint64 {
	return ((1 << (to - from)) - 1) << from
}

// At extracts field i.
func (f *PackedField) At(i int) uint64 {
	wordFrom, wordTo, shiftLow, shiftHigh := f.span(i)
	if wordFrom == wordTo {
		return (f.words[wordFrom] & mask(shiftLow, shiftLow+f.width)) >> shiftLow
	}
	low := f.words[wordFrom] >> shiftLow
	high := f.words[wordTo] & mask(0, shiftHigh)
	return low | high<<(f.width-shiftHigh)
}

// SetAt stores v into field i. Bits of v above the field width must be
// zero; violating that is a caller bug.
func (f *PackedField) SetAt(i int, v uint64) {
	if v&^mask(0, f.width) != 0 {
		panic(fmt.Sprintf("tape: value %d exceeds packed field width %d", v, f.width))
	}
	wordFrom, wordTo, shiftLow, shiftHigh := f.span(i)
	if wordFrom == wordTo {
		m := mask(shiftLow, shiftLow+f.width)
		f.words[wordFrom] = f.words[wordFrom]&^m | v<<shiftLow
		return
	}
	lowBits := f.width - shiftHigh
	f.words[wordFrom] = f.words[wordFrom]&mask(0, shiftLow) | v<<shiftLow
	f.words[wordTo] = f.words[wordTo]&^mask(0, shiftHigh) | v>>lowBits
}

// Bit is a fixed-capacity tape storing symbols bit-packed at the table's
// exact symbol width. It trades the other backends' lazy growth for
// density: moving outside the preallocated extent is a hard fault, so it
// is only safe when a maximum excursion is known up front, e.g. bounded
// verification runs.
type Bit struct {
	field   *PackedField
	relPos  int
	initPos int
}

// NewBit creates a zero-filled bit-packed tape holding capacity cells of
// symBits bits each, with logical zero at initPos.
func NewBit(symBits uint, capacity, initPos int) *Bit {
	if symBits < 1 || symBits > 8 {
		panic(fmt.Sprintf("tape: bit tape symbol width %d out of range 1..8", symBits))
	}
	if capacity < 1 || initPos < 0 || initPos >= capacity {
		panic(fmt.Sprintf("tape: bit tape init position %d outside capacity %d", initPos, capacity))
	}
	return &Bit{field: NewPackedField(symBits, capacity), initPos: initPos}
}

// Pos is the head position relative to the starting cell.
func (t *Bit) Pos() int { return t.relPos }

func (t *Bit) Read() machine.Symbol {
	return machine.Symbol(t.field.At(t.relPos + t.initPos))
}

func (t *Bit) Write(sym machine.Symbol) {
	t.field.SetAt(t.relPos+t.initPos, uint64(sym))
}

// Move shifts the head one cell. Unlike the growing backends this panics
// when the new position leaves the preallocated capacity.
func (t *Bit) Move(delta int) {
	checkDelta(delta)
	mem := t.relPos + t.initPos + delta
	if mem < 0 || mem >= t.field.Len() {
		panic(fmt.Sprintf("tape: bit tape moved to %d but capacity is %d", mem, t.field.Len()))
	}
	t.relPos += delta
}

func (t *Bit) Free() {
	t.field = nil
}

// CountNonzero scans every cell and totals the non-blank ones.
func (t *Bit) CountNonzero() int {
	nonzero := 0
	for i := 0; i < t.field.Len(); i++ {
		if t.field.At(i) != 0 {
			nonzero++
		}
	}
	return nonzero
}
