package machine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed tags every parse failure of the standard table text format.
var ErrMalformed = errors.New("malformed table text")

// Parse builds a table from the standard text format: one row per state,
// rows joined by "_", each row holding nSyms triples of
// <symbol-digit><L|R><state-letter>, e.g. "1RB1LB_1LA1LZ". A "---" triple
// marks an unused (state, symbol) pair and parses to a halting entry. A
// state letter at or past 'A'+nStates (conventionally Z or H) is the halt
// sentinel.
func Parse(text string) (*Table, error) {
	rows := strings.Split(text, "_")
	if len(rows) == 0 || rows[0] == "" {
		return nil, fmt.Errorf("%w: empty input", ErrMalformed)
	}
	if len(rows[0])%3 != 0 {
		return nil, fmt.Errorf("%w: row width %d not divisible by 3", ErrMalformed, len(rows[0]))
	}
	nSyms := len(rows[0]) / 3
	if nSyms < 1 {
		return nil, fmt.Errorf("%w: empty row", ErrMalformed)
	}
	if nSyms > 10 {
		return nil, fmt.Errorf("%w: %d symbols exceed the single-digit format", ErrMalformed, nSyms)
	}
	nStates := len(rows)

	t := NewTable(nSyms, nStates)
	for iState, row := range rows {
		if len(row) != nSyms*3 {
			return nil, fmt.Errorf("%w: row %d has width %d, want %d", ErrMalformed, iState, len(row), nSyms*3)
		}
		for iSym := 0; iSym < nSyms; iSym++ {
			triple := row[iSym*3 : iSym*3+3]
			if triple == "---" {
				// Unused pair; reads of it halt immediately.
				t.Store(State(iState), Symbol(iSym), Instruction{Next: t.Halt()})
				continue
			}

			symC := triple[0]
			if symC < '0' || int(symC-'0') >= nSyms {
				return nil, fmt.Errorf("%w: invalid symbol %q at row %d col %d, want 0-%c",
					ErrMalformed, symC, iState, iSym, byte('0'+nSyms-1))
			}

			var dir Dir
			switch triple[1] {
			case 'L':
				dir = Left
			case 'R':
				dir = Right
			default:
				return nil, fmt.Errorf("%w: invalid direction %q at row %d col %d",
					ErrMalformed, triple[1], iState, iSym)
			}

			stateC := triple[2]
			if stateC < 'A' || stateC > 'Z' {
				return nil, fmt.Errorf("%w: invalid state %q at row %d col %d",
					ErrMalformed, stateC, iState, iSym)
			}
			next := State(stateC - 'A')
			if int(next) >= nStates {
				// Z, H and anything else past the last row all halt.
				next = t.Halt()
			}

			t.Store(State(iState), Symbol(iSym), Instruction{
				Sym:  Symbol(symC - '0'),
				Next: next,
				Dir:  dir,
			})
		}
	}
	return t, nil
}
