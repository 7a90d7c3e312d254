package token

import "testing"

func TestLookupKeyword(t *testing.T) {
	cases := map[string]Kind{
		"let":    KwLet,
		"if":     KwIf,
		"else":   KwElse,
		"fn":     KwFn,
		"true":   KwTrue,
		"false":  KwFalse,
		"print":  KwPrint,
		"first":  KwFirst,
		"second": KwSecond,
	}
	for lexeme, want := range cases {
		got, ok := LookupKeyword(lexeme)
		if !ok || got != want {
			t.Fatalf("LookupKeyword(%q) = %v, %v; want %v", lexeme, got, ok, want)
		}
	}
	for _, lexeme := range []string{"Let", "IF", "fib", "_", "return"} {
		if _, ok := LookupKeyword(lexeme); ok {
			t.Fatalf("LookupKeyword(%q) must fail", lexeme)
		}
	}
}
