package symbols

import (
	"fmt"

	"fortio.org/safecast"
)

// Hints provide optional capacity suggestions for the symbol table arenas.
type Hints struct{ Scopes, Symbols, Funcs uint }

// Table aggregates symbol-related arenas.
type Table struct {
	Scopes  *Scopes
	Symbols *Symbols
	Funcs   *Funcs
}

// NewTable builds a fresh table with optional capacity hints.
func NewTable(h Hints) *Table {
	scopeCap, err := safecast.Conv[uint32](h.Scopes)
	if err != nil {
		panic(fmt.Errorf("scope capacity overflow: %w", err))
	}
	symCap, err := safecast.Conv[uint32](h.Symbols)
	if err != nil {
		panic(fmt.Errorf("symbol capacity overflow: %w", err))
	}
	funcCap, err := safecast.Conv[uint32](h.Funcs)
	if err != nil {
		panic(fmt.Errorf("func capacity overflow: %w", err))
	}
	return &Table{
		Scopes:  NewScopes(scopeCap),
		Symbols: NewSymbols(symCap),
		Funcs:   NewFuncs(funcCap),
	}
}
