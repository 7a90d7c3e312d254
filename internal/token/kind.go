package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF

	// Ident represents an identifier token.
	Ident
	// IntLit is a decimal integer literal.
	IntLit
	// StringLit is a double-quoted string literal, quotes included in Text.
	StringLit

	KwLet    // let
	KwIf     // if
	KwElse   // else
	KwFn     // fn
	KwTrue   // true
	KwFalse  // false
	KwPrint  // print
	KwFirst  // first
	KwSecond // second

	Plus     // +
	Minus    // -
	Star     // *
	Slash    // /
	Percent  // %
	Assign   // =
	EqEq     // ==
	BangEq   // !=
	Lt       // <
	LtEq     // <=
	Gt       // >
	GtEq     // >=
	AndAnd   // &&
	OrOr     // ||
	FatArrow // =>

	LParen    // (
	RParen    // )
	LBrace    // {
	RBrace    // }
	Comma     // ,
	Semicolon // ;
)

var kindNames = [...]string{
	Invalid:   "Invalid",
	EOF:       "EOF",
	Ident:     "Ident",
	IntLit:    "IntLit",
	StringLit: "StringLit",
	KwLet:     "KwLet",
	KwIf:      "KwIf",
	KwElse:    "KwElse",
	KwFn:      "KwFn",
	KwTrue:    "KwTrue",
	KwFalse:   "KwFalse",
	KwPrint:   "KwPrint",
	KwFirst:   "KwFirst",
	KwSecond:  "KwSecond",
	Plus:      "Plus",
	Minus:     "Minus",
	Star:      "Star",
	Slash:     "Slash",
	Percent:   "Percent",
	Assign:    "Assign",
	EqEq:      "EqEq",
	BangEq:    "BangEq",
	Lt:        "Lt",
	LtEq:      "LtEq",
	Gt:        "Gt",
	GtEq:      "GtEq",
	AndAnd:    "AndAnd",
	OrOr:      "OrOr",
	FatArrow:  "FatArrow",
	LParen:    "LParen",
	RParen:    "RParen",
	LBrace:    "LBrace",
	RBrace:    "RBrace",
	Comma:     "Comma",
	Semicolon: "Semicolon",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "Kind(?)"
}
