package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.Add("fib.rinha", []byte("print(1)"), 0)
	id2 := fs.Add("fib.rinha", []byte("print(2)"), 0)
	if id1 != 0 || id2 != 1 {
		t.Fatalf("unexpected ids %d, %d", id1, id2)
	}
	latest, ok := fs.GetLatest("fib.rinha")
	if !ok || latest != id2 {
		t.Fatalf("GetLatest = %d, %v; want %d", latest, ok, id2)
	}
	if got := string(fs.Get(id1).Content); got != "print(1)" {
		t.Fatalf("old version lost: %q", got)
	}
}

func TestAddVirtualLineIdx(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.rinha", []byte("a\nb\n"))
	file := fs.Get(id)

	want := []uint32{1, 3}
	if len(file.LineIdx) != len(want) {
		t.Fatalf("LineIdx = %v, want %v", file.LineIdx, want)
	}
	for i := range want {
		if file.LineIdx[i] != want[i] {
			t.Fatalf("LineIdx = %v, want %v", file.LineIdx, want)
		}
	}
	if file.Flags&FileVirtual == 0 {
		t.Fatalf("expected FileVirtual flag")
	}
}

func TestResolveAndGetLine(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("m.rinha", []byte("let x = 1;\nprint(x + y)\n"))

	start, end := fs.Resolve(Span{File: id, Start: 21, End: 22})
	if start.Line != 2 || start.Col != 11 {
		t.Fatalf("start = %+v, want line 2 col 11", start)
	}
	if end.Col != 12 {
		t.Fatalf("end = %+v", end)
	}
	if got := fs.Get(id).GetLine(2); got != "print(x + y)" {
		t.Fatalf("GetLine(2) = %q", got)
	}
	if got := fs.Get(id).GetLine(9); got != "" {
		t.Fatalf("GetLine(9) = %q, want empty", got)
	}
}

func TestLoadNormalizesCRLFAndBOM(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crlf.rinha")
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("let a = 1;\r\nprint(a)\r\n")...)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	fs := NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	f := fs.Get(id)
	if string(f.Content) != "let a = 1;\nprint(a)\n" {
		t.Fatalf("content not normalized: %q", f.Content)
	}
	if f.Flags&FileHadBOM == 0 || f.Flags&FileNormalizedCRLF == 0 {
		t.Fatalf("flags = %b", f.Flags)
	}
}
