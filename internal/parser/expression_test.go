package parser

import (
	"testing"

	"coral/internal/diag"
)

func TestPrecedence(t *testing.T) {
	got := mustParse(t, "1 + 2 * 3 == 7 && a || b")
	want := lines(
		"Binary ||",
		"  Binary &&",
		"    Binary ==",
		"      Binary +",
		"        Int 1",
		"        Binary *",
		"          Int 2",
		"          Int 3",
		"      Int 7",
		"    Var a",
		"  Var b",
	)
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestLeftAssociative(t *testing.T) {
	got := mustParse(t, "10 - 3 - 2")
	want := lines("Binary -", "  Binary -", "    Int 10", "    Int 3", "  Int 2")
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestComparisonBindsLooserThanAdd(t *testing.T) {
	got := mustParse(t, "n < 1 + 1")
	want := lines("Binary <", "  Var n", "  Binary +", "    Int 1", "    Int 1")
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestUnaryMinus(t *testing.T) {
	if got := mustParse(t, "-5"); got != "Int -5\n" {
		t.Fatalf("got %q", got)
	}
	if got := mustParse(t, "-9223372036854775808"); got != "Int -9223372036854775808\n" {
		t.Fatalf("got %q", got)
	}
	got := mustParse(t, "-x")
	if got != lines("Binary -", "  Int 0", "  Var x") {
		t.Fatalf("got %q", got)
	}
	got = mustParse(t, "a - -1")
	if got != lines("Binary -", "  Var a", "  Int -1") {
		t.Fatalf("got %q", got)
	}
}

func TestIntOverflowWithoutMinus(t *testing.T) {
	expectParseError(t, "9223372036854775808", diag.LexIntOverflow)
}

func TestLetChain(t *testing.T) {
	got := mustParse(t, `let x = 1; let _ = print(x); x`)
	want := lines(
		"Let x",
		"  Int 1",
		"  Let _",
		"    Print",
		"      Var x",
		"    Var x",
	)
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestFibProgram(t *testing.T) {
	src := `
let fib = fn (n) => {
  if (n < 2) {
    n
  } else {
    fib(n - 1) + fib(n - 2)
  }
};
print(fib(10))
`
	got := mustParse(t, src)
	want := lines(
		"Let fib",
		"  Function (n)",
		"    If",
		"      Binary <",
		"        Var n",
		"        Int 2",
		"      Var n",
		"      Binary +",
		"        Call",
		"          Var fib",
		"          Binary -",
		"            Var n",
		"            Int 1",
		"        Call",
		"          Var fib",
		"          Binary -",
		"            Var n",
		"            Int 2",
		"  Print",
		"    Call",
		"      Var fib",
		"      Int 10",
	)
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestIfWithoutParensAndElseIf(t *testing.T) {
	got := mustParse(t, `if x == 1 { "a" } else if x == 2 { "b" } else { "c" }`)
	want := lines(
		"If",
		"  Binary ==",
		"    Var x",
		"    Int 1",
		"  Str \"a\"",
		"  If",
		"    Binary ==",
		"      Var x",
		"      Int 2",
		"    Str \"b\"",
		"    Str \"c\"",
	)
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestTupleAndBuiltins(t *testing.T) {
	got := mustParse(t, `first((1, "x")) + second((true, 2))`)
	want := lines(
		"Binary +",
		"  First",
		"    Tuple",
		"      Int 1",
		"      Str \"x\"",
		"  Second",
		"    Tuple",
		"      Bool true",
		"      Int 2",
	)
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestCurriedCallsAndZeroArgs(t *testing.T) {
	got := mustParse(t, "f()(1, 2)")
	want := lines("Call", "  Call", "    Var f", "  Int 1", "  Int 2")
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
	got = mustParse(t, "fn () => 1")
	if got != lines("Function ()", "  Int 1") {
		t.Fatalf("got %q", got)
	}
}

func TestStringEscapesDecoded(t *testing.T) {
	b, res := parseSource(t, `"a\tb"`)
	if !res.OK {
		t.Fatalf("parse failed: %s", diagnosticsSummary(res.Bag))
	}
	s, ok := b.Exprs.Str(b.Files.Get(res.File).Root)
	if !ok || s.Value != "a\tb" {
		t.Fatalf("string value = %q", s.Value)
	}
}

func TestSpans(t *testing.T) {
	b, res := parseSource(t, "let a = 1; a + 22")
	if !res.OK {
		t.Fatalf("parse failed")
	}
	root := b.Files.Get(res.File).Root
	let, _ := b.Exprs.Let(root)
	if let.NameSpan.Start != 4 || let.NameSpan.End != 5 {
		t.Fatalf("name span = %v", let.NameSpan)
	}
	if sp := b.Exprs.Get(let.Next).Span; sp.Start != 11 || sp.End != 17 {
		t.Fatalf("binary span = %v", sp)
	}
	if sp := b.Exprs.Get(root).Span; sp.Start != 0 || sp.End != 17 {
		t.Fatalf("let span = %v", sp)
	}
	if _, ok := b.Exprs.Binary(let.Next); !ok {
		t.Fatalf("next is not binary")
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		input string
		code  diag.Code
	}{
		{"let x = 1 x", diag.SynExpectSemicolon},
		{"let = 1; x", diag.SynExpectIdentifier},
		{"let x 1; x", diag.SynExpectAssign},
		{"let x = 1;", diag.SynExpectExpression},
		{"if x { 1 }", diag.SynExpectElse},
		{"if x 1 else 2", diag.SynUnexpectedToken},
		{"fn (x) x", diag.SynExpectFatArrow},
		{"fn (x => x", diag.SynUnclosedParen},
		{"(1, 2, 3)", diag.SynUnexpectedToken},
		{"print(1, 2)", diag.SynUnexpectedToken},
		{"{ 1", diag.SynUnclosedBrace},
		{"1 2", diag.SynTrailingInput},
		{"1 +", diag.SynExpectExpression},
		{")", diag.SynExpectExpression},
		{"", diag.SynExpectExpression},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			expectParseError(t, tc.input, tc.code)
		})
	}
}

func TestLexErrorFailsParse(t *testing.T) {
	expectParseError(t, "1 + @", diag.LexUnknownChar)
}
