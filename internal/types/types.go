package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates the static types of the language.
type Kind uint8

const (
	KindInvalid Kind = iota
	// KindUnknown is the bottom of the lattice. It exists only while
	// inference runs and never survives into results.
	KindUnknown
	// KindDynamic is the top: the value is boxed and checked at runtime.
	KindDynamic
	KindBool
	KindInt
	KindStr
	KindPair
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindUnknown:
		return "unknown"
	case KindDynamic:
		return "dynamic"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindStr:
		return "string"
	case KindPair:
		return "tuple"
	case KindFunction:
		return "function"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Type is a compact descriptor for any supported type.
type Type struct {
	Kind   Kind
	First  TypeID // KindPair
	Second TypeID // KindPair
	Arity  uint32 // KindFunction
}

// MakePair returns the descriptor of Pair(first, second).
func MakePair(first, second TypeID) Type {
	return Type{Kind: KindPair, First: first, Second: second}
}

// MakeFunction returns the descriptor of a function taking arity arguments.
func MakeFunction(arity uint32) Type {
	return Type{Kind: KindFunction, Arity: arity}
}
