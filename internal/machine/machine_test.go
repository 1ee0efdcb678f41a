package machine

import "testing"

func TestNewTableDefaultsToHalting(t *testing.T) {
	tab := NewTable(2, 3)
	for state := State(0); state < 3; state++ {
		for sym := Symbol(0); sym < 2; sym++ {
			instr := tab.Lookup(state, sym)
			if !tab.Halted(instr.Next) {
				t.Fatalf("entry (%d, %d) should halt before any Store, got next=%d", state, sym, instr.Next)
			}
		}
	}
}

func TestStoreLookupRoundTrip(t *testing.T) {
	tab := NewTable(4, 26)
	// 104 entries, so the packed direction bits span two words.
	for state := State(0); state < 26; state++ {
		for sym := Symbol(0); sym < 4; sym++ {
			want := Instruction{
				Sym:  Symbol((int(state) + int(sym)) % 4),
				Next: State((int(state) + 1) % 26),
				Dir:  Dir((int(state) ^ int(sym)) & 1),
			}
			tab.Store(state, sym, want)
		}
	}
	for state := State(0); state < 26; state++ {
		for sym := Symbol(0); sym < 4; sym++ {
			want := Instruction{
				Sym:  Symbol((int(state) + int(sym)) % 4),
				Next: State((int(state) + 1) % 26),
				Dir:  Dir((int(state) ^ int(sym)) & 1),
			}
			if got := tab.Lookup(state, sym); got != want {
				t.Fatalf("entry (%d, %d): got %+v, want %+v", state, sym, got, want)
			}
		}
	}
}

func TestStoreOverwritesDirectionBit(t *testing.T) {
	tab := NewTable(2, 1)
	tab.Store(0, 0, Instruction{Sym: 1, Next: 0, Dir: Right})
	tab.Store(0, 0, Instruction{Sym: 1, Next: 0, Dir: Left})
	if got := tab.Lookup(0, 0); got.Dir != Left {
		t.Fatalf("direction bit not cleared on overwrite: %+v", got)
	}
}

func TestSymBits(t *testing.T) {
	cases := []struct {
		nSyms int
		want  uint
	}{
		{1, 1},
		{2, 1},
		{3, 2},
		{4, 2},
		{5, 3},
		{8, 3},
		{9, 4},
		{256, 8},
	}
	for _, c := range cases {
		if got := SymBits(c.nSyms); got != c.want {
			t.Fatalf("SymBits(%d) = %d, want %d", c.nSyms, got, c.want)
		}
	}
}

func TestLookupOutOfRangePanics(t *testing.T) {
	tab := NewTable(2, 2)
	assertPanics(t, "state out of range", func() { tab.Lookup(2, 0) })
	assertPanics(t, "symbol out of range", func() { tab.Lookup(0, 2) })
}

func assertPanics(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatalf("%s: expected panic", name)
		}
	}()
	fn()
}
