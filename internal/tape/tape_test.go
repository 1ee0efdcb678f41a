package tape

import "testing"

func TestMoveRejectsBadDelta(t *testing.T) {
	tp := NewRLE(1)
	assertPanics(t, "delta 0", func() { tp.Move(0) })
	assertPanics(t, "delta 2", func() { tp.Move(2) })
}

func TestNonzeroCountSupportedByAllBackends(t *testing.T) {
	for _, tp := range []Tape{NewRLE(1), NewFlat(8, 4, 1), NewBit(1, 8, 4)} {
		tp.Write(1)
		n, ok := NonzeroCount(tp)
		if !ok {
			t.Fatalf("%T does not support counting", tp)
		}
		if n != 1 {
			t.Fatalf("%T counted %d non-blank cells, want 1", tp, n)
		}
	}
}

func TestWriteBackReadIsIdempotent(t *testing.T) {
	for _, tp := range []Tape{NewRLE(1), NewFlat(8, 4, 1), NewBit(1, 8, 4)} {
		tp.Write(1)
		tp.Move(1)
		tp.Move(-1)

		before, _ := NonzeroCount(tp)
		tp.Write(tp.Read())
		after, _ := NonzeroCount(tp)
		if got := tp.Read(); got != 1 || before != after {
			t.Fatalf("%T changed under write(read()): read %d, count %d -> %d", tp, got, before, after)
		}
	}

	// On the RLE backend write(read()) must also leave the run structure
	// alone, not split and re-merge.
	rle := NewRLE(1)
	rle.Write(1)
	rle.Move(1)
	runsBefore := countRuns(rle)
	rle.Write(rle.Read())
	if got := countRuns(rle); got != runsBefore {
		t.Fatalf("run count changed %d -> %d under write(read())", runsBefore, got)
	}
	checkRunInvariants(t, rle)
}

func TestCompareEqualBlankTapes(t *testing.T) {
	a := NewRLE(1)
	b := NewFlat(8, 4, 1)
	if diff, equal := Compare(a, b, 10); !equal {
		t.Fatalf("blank tapes differ at offset %d", diff)
	}
}

func TestCompareFindsInjectedDifference(t *testing.T) {
	cases := []struct {
		name string
		at   int
		want int
	}{
		{"under head", 0, 0},
		{"to the right", 3, 3},
		{"to the left", -2, -2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := NewFlat(16, 8, 1)
			b := NewFlat(16, 8, 1)
			b.SetAt(tc.at, 1)

			diff, equal := Compare(a, b, 5)
			if equal {
				t.Fatal("tapes compare equal despite injected difference")
			}
			if diff != tc.want {
				t.Fatalf("difference reported at %d, want %d", diff, tc.want)
			}
			if a.Pos() != 0 || b.Pos() != 0 {
				t.Fatalf("heads not restored: a at %d, b at %d", a.Pos(), b.Pos())
			}
		})
	}
}

func TestCompareWindowLimitsTheWalk(t *testing.T) {
	a := NewFlat(16, 8, 1)
	b := NewFlat(16, 8, 1)
	b.SetAt(4, 1)

	if diff, equal := Compare(a, b, 3); !equal {
		t.Fatalf("difference at 4 visible through window 3 (offset %d)", diff)
	}
	if _, equal := Compare(a, b, 4); equal {
		t.Fatal("difference at 4 missed through window 4")
	}
}
