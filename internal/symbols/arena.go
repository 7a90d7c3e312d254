package symbols

import (
	"fmt"

	"fortio.org/safecast"

	"coral/internal/ast"
	"coral/internal/source"
)

// Scopes stores all allocated scopes in a compact slice-based arena.
type Scopes struct {
	data []Scope
}

// NewScopes creates an arena with optional capacity hint.
func NewScopes(capacity uint32) *Scopes {
	if capacity == 0 {
		capacity = 32
	}
	return &Scopes{
		data: make([]Scope, 1, capacity+1), // index 0 reserved for NoScopeID
	}
}

// New allocates a new scope and returns its ID.
func (s *Scopes) New(kind ScopeKind, parent ScopeID, owner ast.ExprID, fn FuncID, span source.Span) ScopeID {
	value, err := safecast.Conv[uint32](len(s.data))
	if err != nil {
		panic(fmt.Errorf("scopes arena overflow: %w", err))
	}
	s.data = append(s.data, Scope{
		Kind:   kind,
		Parent: parent,
		Owner:  owner,
		Func:   fn,
		Span:   span,
	})
	return ScopeID(value)
}

// Get returns the scope pointer or nil if ID is invalid.
func (s *Scopes) Get(id ScopeID) *Scope {
	if !id.IsValid() || int(id) >= len(s.data) {
		return nil
	}
	return &s.data[id]
}

// Len reports total number of scopes excluding the sentinel.
func (s *Scopes) Len() int { return len(s.data) - 1 }

// Symbols stores declared symbols in a compact arena.
type Symbols struct {
	data []Symbol
}

// NewSymbols creates a symbol arena with optional capacity hint.
func NewSymbols(capacity uint32) *Symbols {
	if capacity == 0 {
		capacity = 64
	}
	return &Symbols{
		data: make([]Symbol, 1, capacity+1), // index 0 reserved for NoSymbolID
	}
}

// New allocates a symbol and returns its ID.
func (s *Symbols) New(sym Symbol) SymbolID {
	value, err := safecast.Conv[uint32](len(s.data))
	if err != nil {
		panic(fmt.Errorf("symbols arena overflow: %w", err))
	}
	s.data = append(s.data, sym)
	return SymbolID(value)
}

// Get returns the symbol pointer or nil if ID is invalid.
func (s *Symbols) Get(id SymbolID) *Symbol {
	if !id.IsValid() || int(id) >= len(s.data) {
		return nil
	}
	return &s.data[id]
}

// Len reports total number of symbols excluding the sentinel.
func (s *Symbols) Len() int { return len(s.data) - 1 }

// Data exposes the underlying slice without the sentinel.
func (s *Symbols) Data() []Symbol {
	if len(s.data) <= 1 {
		return nil
	}
	return s.data[1:]
}

// Funcs stores function records; index 0 is reserved for NoFuncID.
type Funcs struct {
	data []Function
}

func NewFuncs(capacity uint32) *Funcs {
	if capacity == 0 {
		capacity = 8
	}
	return &Funcs{data: make([]Function, 1, capacity+1)}
}

func (f *Funcs) New(fn Function) FuncID {
	value, err := safecast.Conv[uint32](len(f.data))
	if err != nil {
		panic(fmt.Errorf("funcs arena overflow: %w", err))
	}
	id := FuncID(value)
	fn.ID = id
	f.data = append(f.data, fn)
	return id
}

func (f *Funcs) Get(id FuncID) *Function {
	if !id.IsValid() || int(id) >= len(f.data) {
		return nil
	}
	return &f.data[id]
}

func (f *Funcs) Len() int { return len(f.data) - 1 }

// Data exposes functions in FuncID order starting at MainFuncID.
func (f *Funcs) Data() []Function {
	if len(f.data) <= 1 {
		return nil
	}
	return f.data[1:]
}
