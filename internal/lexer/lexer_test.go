package lexer_test

import (
	"fmt"
	"strings"
	"testing"

	"coral/internal/diag"
	"coral/internal/lexer"
	"coral/internal/source"
	"coral/internal/token"
)

// testReporter собирает все диагностики, полученные от лексера
type testReporter struct {
	diagnostics []diag.Diagnostic
}

func (r *testReporter) Report(code diag.Code, sev diag.Severity, primary source.Span, msg string, notes []diag.Note) {
	r.diagnostics = append(r.diagnostics, diag.Diagnostic{
		Severity: sev,
		Code:     code,
		Message:  msg,
		Primary:  primary,
		Notes:    notes,
	})
}

func (r *testReporter) codes() []diag.Code {
	out := make([]diag.Code, 0, len(r.diagnostics))
	for _, d := range r.diagnostics {
		out = append(out, d.Code)
	}
	return out
}

func makeTestLexer(input string) (*lexer.Lexer, *testReporter) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("test.rinha", []byte(input))
	reporter := &testReporter{}
	return lexer.New(fs.Get(fileID), lexer.Options{Reporter: reporter}), reporter
}

func collectAllTokens(lx *lexer.Lexer) []token.Token {
	tokens := make([]token.Token, 0)
	for {
		tok := lx.Next()
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			return tokens
		}
	}
}

func expectTokens(t *testing.T, input string, expected []token.Kind) {
	t.Helper()
	lx, reporter := makeTestLexer(input)
	tokens := collectAllTokens(lx)
	tokens = tokens[:len(tokens)-1]

	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d\ninput: %q\ntokens: %v\ndiags: %v",
			len(expected), len(tokens), input, tokensToString(tokens), reporter.codes())
	}
	for i, tok := range tokens {
		if tok.Kind != expected[i] {
			t.Errorf("token %d: expected %v, got %v (text: %q)", i, expected[i], tok.Kind, tok.Text)
		}
	}
}

func tokensToString(tokens []token.Token) string {
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = fmt.Sprintf("%v(%q)", tok.Kind, tok.Text)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func TestKeywordsAndIdents(t *testing.T) {
	expectTokens(t, "let fib = fn (n) => { if (n < 2) { n } else { fib(n - 1) } };", []token.Kind{
		token.KwLet, token.Ident, token.Assign, token.KwFn, token.LParen, token.Ident, token.RParen,
		token.FatArrow, token.LBrace, token.KwIf, token.LParen, token.Ident, token.Lt, token.IntLit,
		token.RParen, token.LBrace, token.Ident, token.RBrace, token.KwElse, token.LBrace, token.Ident,
		token.LParen, token.Ident, token.Minus, token.IntLit, token.RParen, token.RBrace, token.RBrace,
		token.Semicolon,
	})
}

func TestOperatorsGreedy(t *testing.T) {
	expectTokens(t, "== != <= >= && || => = < > + - * / %", []token.Kind{
		token.EqEq, token.BangEq, token.LtEq, token.GtEq, token.AndAnd, token.OrOr, token.FatArrow,
		token.Assign, token.Lt, token.Gt, token.Plus, token.Minus, token.Star, token.Slash, token.Percent,
	})
}

func TestBuiltinKeywords(t *testing.T) {
	expectTokens(t, "print first second true false", []token.Kind{
		token.KwPrint, token.KwFirst, token.KwSecond, token.KwTrue, token.KwFalse,
	})
	// регистрозависимо
	expectTokens(t, "Print LET", []token.Kind{token.Ident, token.Ident})
}

func TestCommentsAreTrivia(t *testing.T) {
	lx, rep := makeTestLexer("// head\nx /* mid */ + 1")
	toks := collectAllTokens(lx)
	if len(rep.diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics %v", rep.codes())
	}
	if toks[0].Kind != token.Ident || len(toks[0].Leading) != 2 {
		t.Fatalf("ident leading = %+v", toks[0].Leading)
	}
	if toks[0].Leading[0].Kind != token.TriviaLineComment {
		t.Fatalf("expected line comment, got %v", toks[0].Leading[0].Kind)
	}
	plus := toks[1]
	if plus.Kind != token.Plus {
		t.Fatalf("expected Plus, got %v", plus.Kind)
	}
	var sawBlock bool
	for _, tr := range plus.Leading {
		if tr.Kind == token.TriviaBlockComment && tr.Text == "/* mid */" {
			sawBlock = true
		}
	}
	if !sawBlock {
		t.Fatalf("block comment not attached: %+v", plus.Leading)
	}
}

func TestUnterminatedBlockComment(t *testing.T) {
	lx, rep := makeTestLexer("1 /* never closed")
	collectAllTokens(lx)
	if len(rep.diagnostics) != 1 || rep.diagnostics[0].Code != diag.LexUnterminatedBlockComment {
		t.Fatalf("diags = %v", rep.codes())
	}
}

func TestStrings(t *testing.T) {
	lx, rep := makeTestLexer(`"a\n\"b\"" "multi
line"`)
	toks := collectAllTokens(lx)
	if len(rep.diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics %v", rep.codes())
	}
	if toks[0].Kind != token.StringLit || lexer.Unquote(toks[0].Text) != "a\n\"b\"" {
		t.Fatalf("got %v %q", toks[0].Kind, lexer.Unquote(toks[0].Text))
	}
	if lexer.Unquote(toks[1].Text) != "multi\nline" {
		t.Fatalf("multi-line string = %q", lexer.Unquote(toks[1].Text))
	}
}

func TestStringErrors(t *testing.T) {
	cases := []struct {
		input string
		code  diag.Code
	}{
		{`"abc`, diag.LexUnterminatedString},
		{`"a\qb"`, diag.LexBadEscape},
	}
	for _, tc := range cases {
		lx, rep := makeTestLexer(tc.input)
		collectAllTokens(lx)
		if len(rep.diagnostics) != 1 || rep.diagnostics[0].Code != tc.code {
			t.Fatalf("%q: diags = %v, want %v", tc.input, rep.codes(), tc.code)
		}
	}
}

func TestUnquoteNormalizesNFC(t *testing.T) {
	decomposed := "\"e\u0301\""
	if got := lexer.Unquote(decomposed); got != "\u00e9" {
		t.Fatalf("Unquote = %q, want precomposed", got)
	}
}

func TestIdentNFC(t *testing.T) {
	lx, _ := makeTestLexer("cafe\u0301 caf\u00e9")
	a, b := lx.Next(), lx.Next()
	if a.Kind != token.Ident || b.Kind != token.Ident || a.Text != b.Text {
		t.Fatalf("identifiers differ after normalization: %q vs %q", a.Text, b.Text)
	}
}

func TestNumbers(t *testing.T) {
	cases := []struct {
		input string
		kind  token.Kind
		code  diag.Code
	}{
		{"0", token.IntLit, 0},
		{"9223372036854775807", token.IntLit, 0},
		{"9223372036854775808", token.IntLit, 0},
		{"9223372036854775809", token.Invalid, diag.LexIntOverflow},
		{"99999999999999999999999", token.Invalid, diag.LexIntOverflow},
		{"12ab", token.Invalid, diag.LexBadNumber},
	}
	for _, tc := range cases {
		lx, rep := makeTestLexer(tc.input)
		tok := lx.Next()
		if tok.Kind != tc.kind {
			t.Fatalf("%q: kind %v, want %v", tc.input, tok.Kind, tc.kind)
		}
		if tc.code == 0 && len(rep.diagnostics) != 0 {
			t.Fatalf("%q: unexpected diags %v", tc.input, rep.codes())
		}
		if tc.code != 0 && (len(rep.diagnostics) != 1 || rep.diagnostics[0].Code != tc.code) {
			t.Fatalf("%q: diags %v, want %v", tc.input, rep.codes(), tc.code)
		}
	}
}

func TestUnknownChar(t *testing.T) {
	lx, rep := makeTestLexer("a @ b λ")
	toks := collectAllTokens(lx)
	if toks[1].Kind != token.Invalid {
		t.Fatalf("expected Invalid for '@', got %v", toks[1].Kind)
	}
	// λ is a letter and therefore an identifier
	if toks[3].Kind != token.Ident {
		t.Fatalf("expected Ident for λ, got %v", toks[3].Kind)
	}
	if len(rep.diagnostics) != 1 || rep.diagnostics[0].Code != diag.LexUnknownChar {
		t.Fatalf("diags = %v", rep.codes())
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	lx, _ := makeTestLexer("a b")
	if lx.Peek().Text != "a" || lx.Next().Text != "a" || lx.Next().Text != "b" {
		t.Fatalf("peek/next mismatch")
	}
	if lx.Next().Kind != token.EOF || lx.Next().Kind != token.EOF {
		t.Fatalf("EOF must be sticky")
	}
}

func TestTokenizeSpans(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("s.rinha", []byte("let  x"))
	toks := lexer.Tokenize(fs.Get(id), lexer.Options{})
	if len(toks) != 3 {
		t.Fatalf("got %d tokens", len(toks))
	}
	if toks[1].Span.Start != 5 || toks[1].Span.End != 6 {
		t.Fatalf("ident span = %v", toks[1].Span)
	}
}
