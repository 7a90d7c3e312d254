package lexer

import (
	"testing"

	"coral/internal/source"
)

func createFile(content string) *source.File {
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.rinha", []byte(content))
	return fs.Get(id)
}

func TestCursorSequentialReading(t *testing.T) {
	c := NewCursor(createFile("a\nb"))
	for _, want := range []byte("a\nb") {
		if c.EOF() {
			t.Fatalf("unexpected EOF before %q", want)
		}
		if got := c.Bump(); got != want {
			t.Fatalf("Bump = %q, want %q", got, want)
		}
	}
	if !c.EOF() || c.Peek() != 0 || c.Bump() != 0 {
		t.Fatalf("expected EOF state")
	}
}

func TestCursorMarkResetSpan(t *testing.T) {
	c := NewCursor(createFile("hello"))
	m := c.Mark()
	c.Bump()
	c.Bump()
	sp := c.SpanFrom(m)
	if sp.Start != 0 || sp.End != 2 {
		t.Fatalf("span = %v", sp)
	}
	c.Reset(m)
	if c.Off != 0 {
		t.Fatalf("reset failed, off=%d", c.Off)
	}
	if !c.Eat('h') || c.Eat('x') {
		t.Fatalf("Eat mismatch")
	}
	if b0, b1, ok := c.Peek2(); !ok || b0 != 'e' || b1 != 'l' {
		t.Fatalf("Peek2 = %q %q %v", b0, b1, ok)
	}
}

func TestCursorEmpty(t *testing.T) {
	c := NewCursor(createFile(""))
	if !c.EOF() {
		t.Fatalf("empty file must be EOF")
	}
	if _, _, ok := c.Peek2(); ok {
		t.Fatalf("Peek2 on empty file must fail")
	}
}
