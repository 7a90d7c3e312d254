package symbols

import (
	"coral/internal/ast"
	"coral/internal/source"
)

// Function collects what later passes need to know about one function.
type Function struct {
	ID     FuncID
	Expr   ast.ExprID // function literal; program root for MainFuncID
	Body   ast.ExprID
	Parent FuncID
	Name   string
	Span   source.Span
	// Self is the let symbol bound to this literal, when there is one.
	Self   SymbolID
	Params []SymbolID
	// Captures are the free symbols of the body, nested functions included,
	// in first-use order. The function's own Self is never captured.
	Captures []SymbolID
	// Escapes is set when the function is used other than as the callee of
	// a direct call (stored, passed, returned, or anonymous).
	Escapes bool
	// CallSites lists direct calls targeting this function.
	CallSites []ast.ExprID
}

// Arity returns the number of parameters.
func (f *Function) Arity() int { return len(f.Params) }

// CaptureIndex returns the position of sym in Captures.
func (f *Function) CaptureIndex(sym SymbolID) (int, bool) {
	for i, c := range f.Captures {
		if c == sym {
			return i, true
		}
	}
	return -1, false
}
