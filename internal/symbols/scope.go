package symbols

import (
	"coral/internal/ast"
	"coral/internal/source"
)

// ScopeKind enumerates supported scope categories.
type ScopeKind uint8

const (
	ScopeInvalid  ScopeKind = iota
	ScopeFunction           // parameters and the top of a function body
	ScopeBranch             // then/else arm of an if
	ScopeBlock              // any other nested expression
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeFunction:
		return "function"
	case ScopeBranch:
		return "branch"
	case ScopeBlock:
		return "block"
	default:
		return "invalid"
	}
}

// Scope models a lexical scope. A let binding lives in the scope its let
// expression was resolved in and is visible in the let's continuation.
type Scope struct {
	Kind      ScopeKind
	Parent    ScopeID
	Owner     ast.ExprID
	Func      FuncID
	Span      source.Span
	NameIndex map[string]SymbolID
	Symbols   []SymbolID
}
