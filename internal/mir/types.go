package mir

import (
	"slices"

	"coral/internal/source"
	"coral/internal/types"
)

type (
	FuncID  int32
	BlockID int32
	LocalID int32
)

const (
	NoFuncID  FuncID  = -1
	NoBlockID BlockID = -1
	NoLocalID LocalID = -1
)

func (id FuncID) IsValid() bool  { return id >= 0 }
func (id LocalID) IsValid() bool { return id >= 0 }

// Repr is the machine representation of one local.
type Repr uint8

const (
	// ReprInt is a native 64-bit integer.
	ReprInt Repr = iota
	// ReprBool is a native 1-bit boolean.
	ReprBool
	// ReprValue is a tagged runtime value, possibly a heap reference.
	ReprValue
)

func (r Repr) String() string {
	switch r {
	case ReprInt:
		return "i64"
	case ReprBool:
		return "i1"
	case ReprValue:
		return "value"
	default:
		return "?"
	}
}

type Local struct {
	Name string
	Repr Repr
	Span source.Span
}

// Layout flattens a static type into the reprs of its locals. A pair is
// unboxed only when neither member is Dynamic.
func Layout(in *types.Interner, id types.TypeID) []Repr {
	return appendLayout(nil, in, id)
}

func appendLayout(dst []Repr, in *types.Interner, id types.TypeID) []Repr {
	tt, ok := in.Lookup(id)
	if !ok {
		return append(dst, ReprValue)
	}
	switch tt.Kind {
	case types.KindInt:
		return append(dst, ReprInt)
	case types.KindBool:
		return append(dst, ReprBool)
	case types.KindPair:
		if Unboxed(in, id) {
			dst = appendLayout(dst, in, tt.First)
			return appendLayout(dst, in, tt.Second)
		}
	}
	return append(dst, ReprValue)
}

// Unboxed reports whether a pair type is kept as separate locals.
func Unboxed(in *types.Interner, id types.TypeID) bool {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != types.KindPair {
		return false
	}
	return !in.IsDynamic(tt.First) && !in.IsDynamic(tt.Second)
}

// Boxed reports whether values of the type live in a single Value local.
func Boxed(in *types.Interner, id types.TypeID) bool {
	return slices.Equal(Layout(in, id), []Repr{ReprValue})
}
