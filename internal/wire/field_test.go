package wire

import "testing"

func TestCopyFromPadsAndTruncates(t *testing.T) {
	f := NewField(8, ' ')
	f.CopyFrom([]byte("AAPL"))
	if got := string(f.Fixed()); got != "AAPL    " {
		t.Fatalf("Fixed() = %q, want padded to 8", got)
	}
	f.CopyFrom([]byte("TOOLONGTICKER"))
	if got := string(f.Fixed()); got != "TOOLONGT" {
		t.Fatalf("Fixed() = %q, want truncated to 8", got)
	}
}

func TestCStringStopsAtZero(t *testing.T) {
	f := NewField(8, 0)
	f.CopyFrom([]byte("AB"))
	if got := string(f.CString()); got != "AB" {
		t.Fatalf("CString() = %q, want %q", got, "AB")
	}
	if got := string(f.Fixed()); len(got) != 8 {
		t.Fatalf("Fixed() len = %d, want 8", len(got))
	}
}

func TestTrimmedRespectsMinPayload(t *testing.T) {
	f := NewField(10, ' ')
	f.CopyFrom([]byte("X"))
	if got := string(f.Trimmed(0)); got != "X" {
		t.Fatalf("Trimmed(0) = %q, want %q", got, "X")
	}
	if got := f.Trimmed(4); len(got) != 4 {
		t.Fatalf("Trimmed(4) len = %d, want 4", len(got))
	}
}

func TestCompareFixedIncludesPadding(t *testing.T) {
	a := NewFieldFrom(4, ' ', "AB")
	b := NewFieldFrom(4, ' ', "AB  ")
	if a.Compare(b) != 0 {
		t.Fatalf("Compare() fixed view of identical padded fields should be 0")
	}
	c := NewFieldFrom(4, 0, "AB")
	d := NewFieldFrom(4, ' ', "AB")
	if c.Compare(d) == 0 {
		t.Fatalf("Compare() should differ when filler bytes differ")
	}
	if c.CompareCString(d) >= 0 {
		t.Fatalf("CompareCString() should order \"AB\" before \"AB  \": a space filler is not a terminator")
	}
}

func TestMoveFromOverlap(t *testing.T) {
	f := NewFieldFrom(6, ' ', "ABCDEF")
	f.MoveFrom(f.Fixed()[1:])
	if got := string(f.Fixed()); got != "BCDEF " {
		t.Fatalf("MoveFrom overlap = %q, want %q", got, "BCDEF ")
	}
}
