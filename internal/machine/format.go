package machine

import (
	"fmt"
	"strings"
)

// Format re-emits the table in the standard text format. Halting entries
// keep their stored write symbol and direction and always use the letter Z,
// so formatting a parsed table is value-equal rather than byte-equal when
// the source used "---" or an H halt letter. The format only has room for
// single-digit symbols and single-letter states.
func (t *Table) Format() (string, error) {
	if t.nSyms > 10 {
		return "", fmt.Errorf("table format supports at most 10 symbols, have %d", t.nSyms)
	}
	if t.nStates > 26 {
		return "", fmt.Errorf("table format supports at most 26 states, have %d", t.nStates)
	}

	var b strings.Builder
	for iState := 0; iState < t.nStates; iState++ {
		if iState > 0 {
			b.WriteByte('_')
		}
		for iSym := 0; iSym < t.nSyms; iSym++ {
			instr := t.Lookup(State(iState), Symbol(iSym))
			stateC := byte('Z')
			if !t.Halted(instr.Next) {
				stateC = byte('A' + instr.Next)
			}
			b.WriteByte('0' + byte(instr.Sym))
			b.WriteString(instr.Dir.String())
			b.WriteByte(stateC)
		}
	}
	return b.String(), nil
}

// Grid renders the table as a human-readable grid, one line per state.
// With directed set, states are shown as (base, entry-direction) pairs the
// way the macro compiler numbers them: "<A" entered moving left, ">A"
// entered moving right.
func (t *Table) Grid(directed bool) (string, error) {
	limit := 26
	if directed {
		limit = 52
	}
	if t.nStates > limit {
		return "", fmt.Errorf("table grid supports at most %d states, have %d", limit, t.nStates)
	}

	var b strings.Builder
	b.WriteString("  ")
	for iSym := 0; iSym < t.nSyms; iSym++ {
		fmt.Fprintf(&b, " %d  ", iSym)
	}
	for iState := 0; iState < t.nStates; iState++ {
		b.WriteByte('\n')
		b.WriteString(stateLabel(State(iState), directed))
		b.WriteByte(' ')
		for iSym := 0; iSym < t.nSyms; iSym++ {
			instr := t.Lookup(State(iState), Symbol(iSym))
			label := "Z "
			if !t.Halted(instr.Next) {
				label = stateLabel(instr.Next, directed)
			}
			fmt.Fprintf(&b, "%d%s%s ", instr.Sym, instr.Dir, label)
		}
	}
	b.WriteByte('\n')
	return b.String(), nil
}

func stateLabel(s State, directed bool) string {
	if !directed {
		return fmt.Sprintf("%c ", 'A'+byte(s))
	}
	base := byte('A' + (s >> 1))
	if Dir(s&1) == Left {
		return fmt.Sprintf("<%c", base)
	}
	return fmt.Sprintf(">%c", base)
}
