package symbols

import (
	"coral/internal/ast"
	"coral/internal/diag"
	"coral/internal/source"
)

// ResolverOptions configures resolver construction.
type ResolverOptions struct {
	Reporter diag.Reporter
}

// Resolver drives scope management and declaration/lookup routines.
type Resolver struct {
	table    *Table
	reporter diag.Reporter
	stack    []ScopeID
}

// NewResolver wires a resolver to a table with an empty scope stack.
func NewResolver(table *Table, opts ResolverOptions) *Resolver {
	return &Resolver{
		table:    table,
		reporter: opts.Reporter,
		stack:    make([]ScopeID, 0, 16),
	}
}

// Push opens a child scope of the current one and makes it current.
func (r *Resolver) Push(kind ScopeKind, owner ast.ExprID, fn FuncID, span source.Span) ScopeID {
	id := r.table.Scopes.New(kind, r.Current(), owner, fn, span)
	r.stack = append(r.stack, id)
	return id
}

// Pop closes the current scope.
func (r *Resolver) Pop() {
	if len(r.stack) == 0 {
		return
	}
	r.stack = r.stack[:len(r.stack)-1]
}

// Current returns the innermost open scope.
func (r *Resolver) Current() ScopeID {
	if len(r.stack) == 0 {
		return NoScopeID
	}
	return r.stack[len(r.stack)-1]
}

// Declare adds sym to the current scope. A name already declared in the
// same scope is reported and the new symbol is not indexed.
func (r *Resolver) Declare(sym Symbol) (SymbolID, bool) {
	scopeID := r.Current()
	scope := r.table.Scopes.Get(scopeID)
	sym.Scope = scopeID
	if scope == nil {
		return NoSymbolID, false
	}
	if prev, dup := scope.NameIndex[sym.Name]; dup {
		prevSym := r.table.Symbols.Get(prev)
		diag.ReportError(r.reporter, diag.SemaDuplicateSymbol, sym.Span,
			"'"+sym.Name+"' is already declared in this scope").
			WithNote(prevSym.Span, "previous declaration of '"+sym.Name+"'").
			Emit()
		return r.table.Symbols.New(sym), false
	}
	id := r.table.Symbols.New(sym)
	if scope.NameIndex == nil {
		scope.NameIndex = make(map[string]SymbolID, 4)
	}
	scope.NameIndex[sym.Name] = id
	scope.Symbols = append(scope.Symbols, id)
	return id, true
}

// Lookup finds name in the open scopes, innermost first.
func (r *Resolver) Lookup(name string) (SymbolID, bool) {
	for i := len(r.stack) - 1; i >= 0; i-- {
		scope := r.table.Scopes.Get(r.stack[i])
		if id, ok := scope.NameIndex[name]; ok {
			return id, true
		}
	}
	return NoSymbolID, false
}

// Visible lists every name visible from the current scope, innermost first.
func (r *Resolver) Visible() []string {
	seen := make(map[string]bool)
	out := make([]string, 0, 8)
	for i := len(r.stack) - 1; i >= 0; i-- {
		scope := r.table.Scopes.Get(r.stack[i])
		for _, id := range scope.Symbols {
			name := r.table.Symbols.Get(id).Name
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}
