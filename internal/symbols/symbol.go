package symbols

import (
	"coral/internal/ast"
	"coral/internal/source"
)

// SymbolKind classifies the semantic meaning of a symbol.
type SymbolKind uint8

const (
	SymbolInvalid SymbolKind = iota
	SymbolLet
	SymbolParam
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolLet:
		return "let"
	case SymbolParam:
		return "param"
	default:
		return "invalid"
	}
}

// Symbol describes a named value available in a scope.
type Symbol struct {
	Name  string
	Kind  SymbolKind
	Scope ScopeID
	Span  source.Span
	// Decl is the let expression or the function literal declaring a param.
	Decl ast.ExprID
	// Owner is the function whose frame holds the value.
	Owner FuncID
	// Func is set when a let binds a function literal directly.
	Func FuncID
	// Index is the parameter position for SymbolParam.
	Index int
}
