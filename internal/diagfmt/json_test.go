package diagfmt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"coral/internal/diag"
	"coral/internal/source"
	"coral/internal/token"
)

func decode(t *testing.T, buf *bytes.Buffer) DiagnosticsOutput {
	t.Helper()
	var output DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &output); err != nil {
		t.Fatalf("Invalid JSON output: %v\nOutput: %s", err, buf.String())
	}
	return output
}

func TestJSONBasic(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("test.rinha", []byte("let f = fn (x) => {\n\tlet s = \"unterminated\n}"))

	bag := diag.NewBag(10)
	bag.Add(diag.New(diag.SevError, diag.LexUnterminatedString, source.Span{File: fileID, Start: 29, End: 42}, "Unterminated string literal"))

	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true, PathMode: PathModeBasename}); err != nil {
		t.Fatalf("JSON() error: %v", err)
	}
	output := decode(t, &buf)
	if output.Count != 1 || len(output.Diagnostics) != 1 {
		t.Fatalf("Expected 1 diagnostic, got %+v", output)
	}
	d := output.Diagnostics[0]
	if d.Severity != "ERROR" || d.Code != "LEX1002" {
		t.Errorf("unexpected severity/code %s %s", d.Severity, d.Code)
	}
	if d.Location.File != "test.rinha" || d.Location.StartLine != 2 || d.Location.StartCol != 10 {
		t.Errorf("unexpected location %+v", d.Location)
	}
}

func TestJSONWithNotes(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("test.rinha", []byte("let x = 1;\nlet x = 2;\nx"))
	d := diag.New(diag.SevError, diag.SemaDuplicateSymbol, source.Span{File: fileID, Start: 15, End: 16}, "duplicate binding 'x'")
	d = d.WithNote(source.Span{File: fileID, Start: 4, End: 5}, "previous binding")
	bag := diag.NewBag(10)
	bag.Add(d)

	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{IncludeNotes: true}); err != nil {
		t.Fatalf("JSON() error: %v", err)
	}
	output := decode(t, &buf)
	notes := output.Diagnostics[0].Notes
	if len(notes) != 1 || notes[0].Message != "previous binding" {
		t.Fatalf("unexpected notes %+v", notes)
	}
	if notes[0].Location.StartLine != 0 {
		t.Errorf("positions must be omitted unless requested: %+v", notes[0].Location)
	}

	buf.Reset()
	if err := JSON(&buf, bag, fs, JSONOpts{}); err != nil {
		t.Fatalf("JSON() error: %v", err)
	}
	if notes := decode(t, &buf).Diagnostics[0].Notes; len(notes) != 0 {
		t.Errorf("notes included without IncludeNotes: %+v", notes)
	}
}

func TestJSONMaxLimit(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("test.rinha", []byte("a b c d e"))
	bag := diag.NewBag(10)
	for i := range 5 {
		off := uint32(i * 2)
		bag.Add(diag.New(diag.SevError, diag.SemaUnresolvedSymbol, source.Span{File: fileID, Start: off, End: off + 1}, fmt.Sprintf("unresolved %d", i)))
	}

	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{Max: 3}); err != nil {
		t.Fatalf("JSON() error: %v", err)
	}
	if output := decode(t, &buf); output.Count != 3 {
		t.Errorf("Expected count=3, got %d", output.Count)
	}
}

func TestFormatTokens(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("t.rinha", []byte("let x"))
	toks := []token.Token{
		{Kind: token.KwLet, Span: source.Span{File: fileID, Start: 0, End: 3}, Text: "let"},
		{Kind: token.Ident, Span: source.Span{File: fileID, Start: 4, End: 5}, Text: "x", Leading: []token.Trivia{{Kind: token.TriviaSpace}}},
		{Kind: token.EOF, Span: source.Span{File: fileID, Start: 5, End: 5}},
	}

	var buf bytes.Buffer
	if err := FormatTokensPretty(&buf, toks, fs); err != nil {
		t.Fatalf("FormatTokensPretty: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"x" at 1:5-1:6 (leading: space)`)) {
		t.Errorf("unexpected pretty tokens:\n%s", buf.String())
	}

	buf.Reset()
	if err := FormatTokensJSON(&buf, toks); err != nil {
		t.Fatalf("FormatTokensJSON: %v", err)
	}
	var out []TokenOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(out) != 3 || out[1].Leading[0] != "space" || out[2].Kind != "EOF" {
		t.Errorf("unexpected JSON tokens %+v", out)
	}
}
