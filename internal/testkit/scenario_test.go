package testkit

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

const doc = "# Arithmetic\n\n" +
	"Some prose that is ignored.\n\n" +
	"## Test: addition\n\n" +
	"```rinha\nprint(1 + 2)\n```\n\n" +
	"```output\n3\n```\n\n" +
	"## Test: division by zero\n\n" +
	"```rinha\nprint(1 / 0)\n```\n\n" +
	"```fatal\nDivisionError: division by zero\n```\n\n" +
	"## Test: unknown name\n\n" +
	"```rinha\nprint(x)\n```\n\n" +
	"```diagnostics\nSEM3001\n```\n"

func TestParseScenarios(t *testing.T) {
	sc, err := ParseScenarios("doc.md", []byte(doc))
	be.Err(t, err, nil)
	if len(sc) != 3 {
		t.Fatalf("expected 3 scenarios, got %d", len(sc))
	}

	be.Equal(t, sc[0].Name, "addition")
	be.Equal(t, sc[0].Program, "print(1 + 2)\n")
	be.Equal(t, sc[0].Output, "3\n")
	be.True(t, sc[0].HasOutput)
	be.Equal(t, sc[0].Line, 5)

	be.Equal(t, sc[1].Fatal, "DivisionError: division by zero")
	be.True(t, !sc[1].HasOutput)

	be.Equal(t, sc[2].Diagnostics, []string{"SEM3001"})
}

func TestParseScenariosErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"fence outside test", "```rinha\nprint(1)\n```\n", "outside of a test"},
		{"no program", "## Test: a\n\n```output\n1\n```\n", "has no rinha fence"},
		{"no expectation", "## Test: a\n\n```rinha\nprint(1)\n```\n", "has no expectation"},
		{"two programs", "## Test: a\n\n```rinha\n1\n```\n\n```rinha\n2\n```\n", "two programs"},
		{"unknown fence", "## Test: a\n\n```python\n1\n```\n", `unknown fence "python"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenarios("bad.md", []byte(tt.doc))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestPlainFencesIgnored(t *testing.T) {
	sc, err := ParseScenarios("doc.md", []byte("```\nnot a test\n```\n\n## Test: a\n\n```rinha\nprint(1)\n```\n\n```output\n1\n```\n"))
	be.Err(t, err, nil)
	be.Equal(t, len(sc), 1)
}
