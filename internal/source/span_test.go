package source

import "testing"

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 4, End: 8}
	b := Span{File: 1, Start: 2, End: 6}
	got := a.Cover(b)
	if got.Start != 2 || got.End != 8 {
		t.Fatalf("Cover = %v", got)
	}
	other := Span{File: 2, Start: 0, End: 100}
	if a.Cover(other) != a {
		t.Fatalf("spans from different files must not merge")
	}
}

func TestSpanLenEmptyContains(t *testing.T) {
	s := Span{Start: 3, End: 7}
	if s.Len() != 4 || s.Empty() {
		t.Fatalf("Len/Empty wrong for %v", s)
	}
	if !s.Contains(3) || s.Contains(7) {
		t.Fatalf("Contains must be half-open")
	}
}
