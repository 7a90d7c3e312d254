package token

var keywords = map[string]Kind{
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

// LookupKeyword reports whether ident is a keyword. Keywords are case-sensitive.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}
