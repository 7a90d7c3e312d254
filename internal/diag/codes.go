package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Lexical
	LexInfo                     Code = 1000
	LexUnknownChar              Code = 1001
	LexUnterminatedString       Code = 1002
	LexUnterminatedBlockComment Code = 1003
	LexBadNumber                Code = 1004
	LexBadEscape                Code = 1005
	LexIntOverflow              Code = 1006

	// Syntax
	SynInfo             Code = 2000
	SynUnexpectedToken  Code = 2001
	SynUnclosedParen    Code = 2002
	SynUnclosedBrace    Code = 2003
	SynExpectSemicolon  Code = 2004
	SynExpectIdentifier Code = 2005
	SynExpectExpression Code = 2006
	SynExpectElse       Code = 2007
	SynExpectFatArrow   Code = 2008
	SynExpectAssign     Code = 2009
	SynTrailingInput    Code = 2010
	SynBadASTNode       Code = 2100
	SynBadASTJSON       Code = 2101

	// Semantic
	SemaInfo             Code = 3000
	SemaDuplicateSymbol  Code = 3001
	SemaUnresolvedSymbol Code = 3002
	SemaArityMismatch    Code = 3003
	SemaAlwaysFails      Code = 3004
	SemaNotCallable      Code = 3005
	SemaInferenceLimit   Code = 3006

	// IO
	IOLoadFileError Code = 4001
	IOCacheError    Code = 4002

	// Observability
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var codeDescription = map[Code]string{
	UnknownCode:                 "Unknown error",
	LexInfo:                     "Lexical information",
	LexUnknownChar:              "Unknown character",
	LexUnterminatedString:       "Unterminated string",
	LexUnterminatedBlockComment: "Unterminated block comment",
	LexBadNumber:                "Bad number",
	LexBadEscape:                "Invalid escape sequence",
	LexIntOverflow:              "Integer literal out of range",
	SynInfo:                     "Syntax information",
	SynUnexpectedToken:          "Unexpected token",
	SynUnclosedParen:            "Unclosed parenthesis",
	SynUnclosedBrace:            "Unclosed brace",
	SynExpectSemicolon:          "Expected semicolon",
	SynExpectIdentifier:         "Expected identifier",
	SynExpectExpression:         "Expected expression",
	SynExpectElse:               "Expected 'else'",
	SynExpectFatArrow:           "Expected '=>'",
	SynExpectAssign:             "Expected '='",
	SynTrailingInput:            "Unexpected input after program",
	SynBadASTNode:               "Malformed AST node",
	SynBadASTJSON:               "Invalid AST JSON",
	SemaInfo:                    "Semantic information",
	SemaDuplicateSymbol:         "Duplicate symbol",
	SemaUnresolvedSymbol:        "Unresolved symbol",
	SemaArityMismatch:           "Arity mismatch",
	SemaAlwaysFails:             "Operation always fails at runtime",
	SemaNotCallable:             "Value is not callable",
	SemaInferenceLimit:          "Inference did not converge",
	IOLoadFileError:             "I/O load file error",
	IOCacheError:                "Compilation cache error",
	ObsInfo:                     "Observability information",
	ObsTimings:                  "Pipeline timings",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
