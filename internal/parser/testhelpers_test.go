package parser

import (
	"fmt"
	"strings"
	"testing"

	"coral/internal/ast"
	"coral/internal/diag"
	"coral/internal/lexer"
	"coral/internal/source"
)

func diagnosticsSummary(bag *diag.Bag) string {
	if bag == nil {
		return "<nil bag>"
	}
	diags := bag.Items()
	if len(diags) == 0 {
		return "<none>"
	}
	lines := make([]string, len(diags))
	for i, d := range diags {
		lines[i] = fmt.Sprintf("[%s] %s", d.Code.ID(), d.Message)
	}
	return strings.Join(lines, "; ")
}

func parseSource(t *testing.T, input string) (*ast.Builder, Result) {
	t.Helper()
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("test.rinha", []byte(input))
	bag := diag.NewBag(50)
	rep := &diag.BagReporter{Bag: bag}
	lx := lexer.New(fs.Get(fileID), lexer.Options{Reporter: rep})
	b := ast.NewBuilder(ast.Hints{})
	return b, ParseFile(fs, lx, b, Options{Reporter: rep, MaxErrors: 50})
}

// mustParse parses input and returns the tree dump of the root.
func mustParse(t *testing.T, input string) string {
	t.Helper()
	b, res := parseSource(t, input)
	if !res.OK || res.Bag.HasErrors() {
		t.Fatalf("parse %q failed: %s", input, diagnosticsSummary(res.Bag))
	}
	return b.Exprs.DumpString(b.Files.Get(res.File).Root)
}

func expectParseError(t *testing.T, input string, code diag.Code) {
	t.Helper()
	_, res := parseSource(t, input)
	if res.OK {
		t.Fatalf("expected %q to fail", input)
	}
	for _, d := range res.Bag.Items() {
		if d.Code == code {
			return
		}
	}
	t.Fatalf("%q: expected %s, got %s", input, code.ID(), diagnosticsSummary(res.Bag))
}

func lines(parts ...string) string {
	return strings.Join(parts, "\n") + "\n"
}
