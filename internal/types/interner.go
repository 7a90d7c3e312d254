package types

import (
	"fmt"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for the primitive types.
type Builtins struct {
	Unknown TypeID
	Dynamic TypeID
	Bool    TypeID
	Int     TypeID
	Str     TypeID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
type Interner struct {
	types    []Type
	index    map[Type]TypeID
	builtins Builtins
}

// NewInterner constructs an interner seeded with built-in primitives.
func NewInterner() *Interner {
	in := &Interner{
		index: make(map[Type]TypeID, 32),
	}
	in.types = append(in.types, Type{Kind: KindInvalid}) // reserve 0
	in.builtins.Unknown = in.Intern(Type{Kind: KindUnknown})
	in.builtins.Dynamic = in.Intern(Type{Kind: KindDynamic})
	in.builtins.Bool = in.Intern(Type{Kind: KindBool})
	in.builtins.Int = in.Intern(Type{Kind: KindInt})
	in.builtins.Str = in.Intern(Type{Kind: KindStr})
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	if id, ok := in.index[t]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(n)
	in.types = append(in.types, t)
	in.index[t] = id
	return id
}

// Pair interns Pair(first, second).
func (in *Interner) Pair(first, second TypeID) TypeID {
	return in.Intern(MakePair(first, second))
}

// Function interns a function type of the given arity.
func (in *Interner) Function(arity int) TypeID {
	a, err := safecast.Conv[uint32](arity)
	if err != nil {
		panic(fmt.Errorf("function arity overflow: %w", err))
	}
	return in.Intern(MakeFunction(a))
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// KindOf returns the kind of id, KindInvalid for unknown ids.
func (in *Interner) KindOf(id TypeID) Kind {
	tt, _ := in.Lookup(id)
	return tt.Kind
}

// Len reports the number of interned types, the reserved slot included.
func (in *Interner) Len() int {
	return len(in.types)
}
