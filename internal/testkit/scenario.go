package testkit

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Fence languages understood by ParseScenarios.
const (
	FenceProgram     = "rinha"
	FenceOutput      = "output"
	FenceFatal       = "fatal"
	FenceDiagnostics = "diagnostics"
)

// Scenario is one program with its expected behaviour, read from a
// "Test: <name>" heading followed by fenced blocks.
type Scenario struct {
	Name string
	// File and Line locate the heading, for failure messages.
	File string
	Line int

	Program string
	// Output is the expected stdout, compared exactly.
	Output    string
	HasOutput bool
	// Fatal is a substring of the expected runtime failure.
	Fatal string
	// Diagnostics lists expected diagnostic codes in order, e.g. SEM3001.
	Diagnostics []string
}

// ParseScenarios extracts every scenario of a markdown document. Fences
// without a language are ignored; unknown languages are an error.
func ParseScenarios(name string, content []byte) ([]Scenario, error) {
	doc := goldmark.New().Parser().Parse(text.NewReader(content))

	var out []Scenario
	var cur *Scenario
	flush := func() error {
		if cur == nil {
			return nil
		}
		if cur.Program == "" {
			return fmt.Errorf("%s:%d: test %q has no %s fence", name, cur.Line, cur.Name, FenceProgram)
		}
		if !cur.HasOutput && cur.Fatal == "" && cur.Diagnostics == nil {
			return fmt.Errorf("%s:%d: test %q has no expectation", name, cur.Line, cur.Name)
		}
		out = append(out, *cur)
		cur = nil
		return nil
	}

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := node.(type) {
		case *ast.Heading:
			title := nodeText(n, content)
			testName, ok := strings.CutPrefix(title, "Test: ")
			if !ok {
				return ast.WalkContinue, nil
			}
			if err := flush(); err != nil {
				return ast.WalkStop, err
			}
			cur = &Scenario{Name: strings.TrimSpace(testName), File: name, Line: lineOf(n, content)}
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock:
			lang := string(n.Language(content))
			if lang == "" {
				return ast.WalkContinue, nil
			}
			line := lineOf(n, content)
			if cur == nil {
				return ast.WalkStop, fmt.Errorf("%s:%d: %s fence outside of a test", name, line, lang)
			}
			body := blockText(n, content)
			switch lang {
			case FenceProgram:
				if cur.Program != "" {
					return ast.WalkStop, fmt.Errorf("%s:%d: test %q has two programs", name, line, cur.Name)
				}
				cur.Program = body
			case FenceOutput:
				cur.Output = body
				cur.HasOutput = true
			case FenceFatal:
				cur.Fatal = strings.TrimSpace(body)
			case FenceDiagnostics:
				cur.Diagnostics = strings.Fields(body)
				if cur.Diagnostics == nil {
					cur.Diagnostics = []string{}
				}
			default:
				return ast.WalkStop, fmt.Errorf("%s:%d: unknown fence %q in test %q", name, line, lang, cur.Name)
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadScenarios reads every *.md file of dir in name order.
func LoadScenarios(dir string) ([]Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	var all []Scenario
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		sc, err := ParseScenarios(filepath.Base(p), data)
		if err != nil {
			return nil, err
		}
		all = append(all, sc...)
	}
	return all, nil
}

func nodeText(node ast.Node, src []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := n.(*ast.Text); ok && entering {
			buf.Write(t.Segment.Value(src))
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func blockText(block *ast.FencedCodeBlock, src []byte) string {
	var buf bytes.Buffer
	lines := block.Lines()
	for i := range lines.Len() {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
	return buf.String()
}

func lineOf(node ast.Node, src []byte) int {
	var start int
	switch {
	case node.Lines().Len() > 0:
		start = node.Lines().At(0).Start
	case node.Type() == ast.TypeBlock && node.HasChildren():
		if t, ok := node.FirstChild().(*ast.Text); ok {
			start = t.Segment.Start
		}
	}
	return 1 + bytes.Count(src[:min(start, len(src))], []byte{'\n'})
}
