package sema

import (
	"coral/internal/ast"
	"coral/internal/diag"
	"coral/internal/symbols"
	"coral/internal/types"
)

// DefaultMaxRounds bounds the signature fixpoint.
const DefaultMaxRounds = 16

// maxPairDepth caps pair nesting in inferred signatures.
const maxPairDepth = 8

// Options configure a semantic pass over a file.
type Options struct {
	Reporter  diag.Reporter
	Symbols   *symbols.Result
	Types     *types.Interner
	MaxRounds int
}

// Signature is the inferred calling convention of one function.
type Signature struct {
	Params []types.TypeID
	Ret    types.TypeID
}

// Result stores semantic artefacts produced by the checker. Every TypeID in
// it is resolved: Unknown never appears.
type Result struct {
	TypeInterner *types.Interner
	Symbols      *symbols.Result
	// ExprTypes is indexed by ast.ExprID.
	ExprTypes []types.TypeID
	// SymTypes is indexed by symbols.SymbolID.
	SymTypes []types.TypeID
	// Sigs is indexed by symbols.FuncID.
	Sigs []Signature
	// Rounds is the number of inference passes before the signatures settled.
	Rounds int
}

// TypeOf returns the inferred type of an expression.
func (r *Result) TypeOf(id ast.ExprID) types.TypeID {
	if int(id) >= len(r.ExprTypes) {
		return r.TypeInterner.Builtins().Dynamic
	}
	return r.ExprTypes[id]
}

// SymType returns the inferred type of a symbol.
func (r *Result) SymType(id symbols.SymbolID) types.TypeID {
	if int(id) >= len(r.SymTypes) {
		return r.TypeInterner.Builtins().Dynamic
	}
	return r.SymTypes[id]
}

// Sig returns the signature of a function.
func (r *Result) Sig(id symbols.FuncID) Signature {
	return r.Sigs[id]
}

// Check infers a type for every expression of a resolved file and reports
// operations that can only fail at runtime.
func Check(builder *ast.Builder, fileID ast.FileID, opts Options) Result {
	res := Result{
		TypeInterner: opts.Types,
		Symbols:      opts.Symbols,
	}
	if res.TypeInterner == nil {
		res.TypeInterner = types.NewInterner()
	}
	if builder == nil || fileID == ast.NoFileID || opts.Symbols == nil {
		return res
	}
	if opts.MaxRounds <= 0 {
		opts.MaxRounds = DefaultMaxRounds
	}

	checker := newTypeChecker(builder, opts, &res)
	checker.run()
	return res
}
