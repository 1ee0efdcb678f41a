package machine

import (
	"fmt"
	"math/bits"
)

// Symbol is one tape cell's value. Zero is the blank the tape is
// implicitly filled with.
type Symbol uint8

// MaxSyms is the largest alphabet a table can carry; symbols are one byte.
const MaxSyms = 256

// State is the control-unit configuration. Values at or past a table's
// state count are the halt sentinel; Table.Halted tests for that.
type State uint16

// Dir is a move direction. It is a single bit so tables can pack it.
type Dir uint8

const (
	Left  Dir = 0
	Right Dir = 1
)

func (d Dir) String() string {
	if d == Left {
		return "L"
	}
	return "R"
}

// Delta is the head displacement for the direction, -1 or +1.
func (d Dir) Delta() int {
	if d == Left {
		return -1
	}
	return 1
}

// Instruction is the (write symbol, next state, move direction) triple
// selected by a (state, symbol) lookup. When Next is a halt sentinel the
// Sym and Dir fields are don't-care.
type Instruction struct {
	Sym  Symbol
	Next State
	Dir  Dir
}

// Table is a dense transition table mapping (state, symbol) to an
// instruction. It is read-only once built and may be shared by any number
// of concurrent runs. Write symbols and next states are byte-indexed by
// state*nSyms+sym; directions are packed one bit per entry so the table
// stays cache-dense on the per-step lookup path.
type Table struct {
	nSyms   int
	nStates int
	syms    []Symbol
	states  []State
	dirs    []uint64
}

// NewTable allocates a table with every entry halting. Entries are filled
// in with Store before the table is used.
func NewTable(nSyms, nStates int) *Table {
	if nSyms < 1 || nSyms > MaxSyms {
		panic(fmt.Sprintf("machine: table symbol count %d out of range", nSyms))
	}
	if nStates < 1 {
		panic(fmt.Sprintf("machine: table state count %d out of range", nStates))
	}
	n := nSyms * nStates
	t := &Table{
		nSyms:   nSyms,
		nStates: nStates,
		syms:    make([]Symbol, n),
		states:  make([]State, n),
		dirs:    make([]uint64, (n+63)/64),
	}
	for i := range t.states {
		t.states[i] = t.Halt()
	}
	return t
}

func (t *Table) NSyms() int   { return t.nSyms }
func (t *Table) NStates() int { return t.nStates }

// SymBits is the width of one symbol in bits, ceil(log2(nSyms)).
func (t *Table) SymBits() uint {
	return SymBits(t.nSyms)
}

// SymBits reports how many bits a symbol of an nSyms alphabet occupies.
func SymBits(nSyms int) uint {
	b := uint(bits.Len(uint(nSyms - 1)))
	if b == 0 {
		b = 1
	}
	return b
}

// Halt is the canonical halt sentinel for this table. Any state at or past
// the table's state count halts; parsing and the macro compiler always
// produce this canonical value.
func (t *Table) Halt() State {
	return State(t.nStates)
}

// Halted reports whether s is a halt sentinel for this table.
func (t *Table) Halted(s State) bool {
	return int(s) >= t.nStates
}

func (t *Table) index(state State, sym Symbol) int {
	if int(state) >= t.nStates {
		panic(fmt.Sprintf("machine: state %d out of range (table has %d states)", state, t.nStates))
	}
	if int(sym) >= t.nSyms {
		panic(fmt.Sprintf("machine: symbol %d out of range (table has %d symbols)", sym, t.nSyms))
	}
	return int(state)*t.nSyms + int(sym)
}

// Store sets the instruction for (state, sym). The next state is allowed
// to be any sentinel at or past the state count; a halting instruction's
// symbol and direction are kept as given but never read back by a run.
func (t *Table) Store(state State, sym Symbol, instr Instruction) {
	if !t.Halted(instr.Next) && int(instr.Sym) >= t.nSyms {
		panic(fmt.Sprintf("machine: instruction writes symbol %d outside alphabet of %d", instr.Sym, t.nSyms))
	}
	i := t.index(state, sym)
	t.syms[i] = instr.Sym
	t.states[i] = instr.Next
	if instr.Dir == Right {
		t.dirs[i/64] |= 1 << (i % 64)
	} else {
		t.dirs[i/64] &^= 1 << (i % 64)
	}
}

// Lookup returns the instruction for (state, sym). It is total once the
// table is built; out-of-range arguments are a caller bug and panic.
func (t *Table) Lookup(state State, sym Symbol) Instruction {
	i := t.index(state, sym)
	dir := Left
	if t.dirs[i/64]&(1<<(i%64)) != 0 {
		dir = Right
	}
	return Instruction{Sym: t.syms[i], Next: t.states[i], Dir: dir}
}
