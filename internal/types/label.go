package types

import (
	"strconv"
)

// Label returns a user-facing label such as "Pair(Int, Str)" or "Function/2".
func Label(typesIn *Interner, id TypeID) string {
	return labelDepth(typesIn, id, 0)
}

func labelDepth(typesIn *Interner, id TypeID, depth int) string {
	if typesIn == nil || id == NoTypeID {
		return "?"
	}
	if depth > 8 {
		return "..."
	}
	tt, ok := typesIn.Lookup(id)
	if !ok {
		return "?"
	}
	switch tt.Kind {
	case KindUnknown:
		return "Unknown"
	case KindDynamic:
		return "Dynamic"
	case KindBool:
		return "Bool"
	case KindInt:
		return "Int"
	case KindStr:
		return "Str"
	case KindPair:
		return "Pair(" + labelDepth(typesIn, tt.First, depth+1) + ", " + labelDepth(typesIn, tt.Second, depth+1) + ")"
	case KindFunction:
		return "Function/" + strconv.FormatUint(uint64(tt.Arity), 10)
	}
	return "?"
}

// RuntimeName is the type name the runtime uses in error messages
// (bool, int, string, tuple, function). Dynamic has no runtime name.
func RuntimeName(typesIn *Interner, id TypeID) (string, bool) {
	switch k := typesIn.KindOf(id); k {
	case KindBool, KindInt, KindStr, KindPair, KindFunction:
		return k.String(), true
	}
	return "", false
}
