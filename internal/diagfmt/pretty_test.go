package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"coral/internal/diag"
	"coral/internal/source"
)

func TestPathModes(t *testing.T) {
	fs := source.NewFileSetWithBase("/home/user/project")
	content := []byte("let x = \"unterminated string\n")
	fileID := fs.AddVirtual("/home/user/project/src/test.rinha", content)

	bag := diag.NewBag(10)
	bag.Add(diag.New(
		diag.SevError,
		diag.LexUnterminatedString,
		source.Span{File: fileID, Start: 8, End: 28},
		"Unterminated string literal",
	))

	tests := []struct {
		name     string
		mode     PathMode
		contains string
	}{
		{name: "Absolute path", mode: PathModeAbsolute, contains: "/home/user/project/src/test.rinha"},
		{name: "Relative path", mode: PathModeRelative, contains: "src/test.rinha"},
		{name: "Basename only", mode: PathModeBasename, contains: "test.rinha:1:9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Pretty(&buf, bag, fs, PrettyOpts{Context: 1, PathMode: tt.mode})
			output := buf.String()

			if !strings.Contains(output, tt.contains) {
				t.Errorf("Expected output to contain %q, got:\n%s", tt.contains, output)
			}
			if !strings.Contains(output, "ERROR LEX1002: Unterminated string literal") {
				t.Errorf("Expected header line, got:\n%s", output)
			}
		})
	}
}

func TestPathModeAuto(t *testing.T) {
	fs := source.NewFileSet()

	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{name: "Short path - as is", path: "test.rinha", expected: "test.rinha"},
		{name: "Long absolute path - basename", path: "/very/long/absolute/path/to/some/nested/directory/file.rinha", expected: "file.rinha:1:9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fileID := fs.AddVirtual(tt.path, []byte("let x = 42\n"))
			bag := diag.NewBag(10)
			bag.Add(diag.New(diag.SevWarning, diag.LexUnknownChar, source.Span{File: fileID, Start: 8, End: 10}, "Test warning"))

			var buf bytes.Buffer
			Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeAuto})
			if output := buf.String(); !strings.Contains(output, tt.expected) {
				t.Errorf("Expected output to contain %q, got:\n%s", tt.expected, output)
			}
		})
	}
}

func TestPrettyCaretUnderline(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("caret.rinha", []byte("let x = true + 1;\nprint(x)\n"))
	bag := diag.NewBag(4)
	bag.Add(diag.New(diag.SevWarning, diag.SemaAlwaysFails, source.Span{File: fileID, Start: 8, End: 16}, "'+' cannot be applied between bool and int"))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename})
	want := "caret.rinha:1:9: WARNING SEM3004: '+' cannot be applied between bool and int\n" +
		" 1 | let x = true + 1;\n" +
		"   |         ^~~~~~~~\n"
	if got := buf.String(); got != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", got, want)
	}
}

func TestPrettyWideRunes(t *testing.T) {
	fs := source.NewFileSet()
	src := "let s = \"日本\" + true\n"
	fileID := fs.AddVirtual("wide.rinha", []byte(src))
	start := uint32(strings.Index(src, "true"))
	bag := diag.NewBag(4)
	bag.Add(diag.New(diag.SevError, diag.SemaAlwaysFails, source.Span{File: fileID, Start: start, End: start + 4}, "bad"))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename})
	lines := strings.Split(buf.String(), "\n")
	if len(lines) < 3 {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
	// two double-width runes take four cells
	if want := "   | " + strings.Repeat(" ", 17) + "^~~~"; lines[2] != want {
		t.Fatalf("caret line = %q, want %q", lines[2], want)
	}
}

func TestPrettyNotes(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("test.rinha", []byte("let f = fn (a) => a;\nf(1, 2)\n"))

	d := diag.New(diag.SevError, diag.SemaArityMismatch, source.Span{File: fileID, Start: 21, End: 28}, "function expects 1 arguments, but got 2")
	d = d.WithNote(source.Span{File: fileID, Start: 8, End: 19}, "function defined here")
	bag := diag.NewBag(4)
	bag.Add(d)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename, ShowNotes: true})
	output := buf.String()
	for _, want := range []string{
		"test.rinha:2:1: ERROR SEM3003",
		"note test.rinha:1:9: function defined here",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, output)
		}
	}

	buf.Reset()
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename})
	if strings.Contains(buf.String(), "note") {
		t.Errorf("notes printed without ShowNotes:\n%s", buf.String())
	}
}

func TestPrettyColor(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("c.rinha", []byte("x\n"))
	bag := diag.NewBag(4)
	bag.Add(diag.New(diag.SevError, diag.SemaUnresolvedSymbol, source.Span{File: fileID, Start: 0, End: 1}, "unresolved"))

	var plain, colored bytes.Buffer
	Pretty(&plain, bag, fs, PrettyOpts{})
	Pretty(&colored, bag, fs, PrettyOpts{Color: true})
	if strings.Contains(plain.String(), "\x1b[") {
		t.Errorf("plain output has escape codes: %q", plain.String())
	}
	if !strings.Contains(colored.String(), "\x1b[") {
		t.Errorf("colored output has no escape codes: %q", colored.String())
	}
}
