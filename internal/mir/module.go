package mir

import (
	"coral/internal/source"
)

// Func is one lowered function. Native functions take the closure as Env
// followed by the flattened locals of their parameters; a dynamic entry
// takes Env and one boxed value per source parameter and adapts them to
// Impl.
type Func struct {
	ID   FuncID
	Name string
	Span source.Span

	Env    LocalID
	Params []LocalID
	// Arity counts source parameters, not flattened locals.
	Arity    int
	Captures int
	Results  []Repr

	Locals []Local
	Blocks []Block
	Entry  BlockID

	ScopeCap int
	// Dyn is the dynamic entry of an escaping function.
	Dyn FuncID
	// Impl is the native function adapted by a dynamic entry.
	Impl FuncID
}

// IsDynEntry reports whether f adapts boxed arguments for Impl.
func (f *Func) IsDynEntry() bool { return f.Impl.IsValid() }

type Module struct {
	Funcs []*Func
	Main  FuncID
	// Source names the program file the module was lowered from.
	Source string
}

// Func returns the function with the given ID, or nil.
func (m *Module) Func(id FuncID) *Func {
	if m == nil || id < 0 || int(id) >= len(m.Funcs) {
		return nil
	}
	return m.Funcs[id]
}
