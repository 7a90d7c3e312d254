package llvm

import (
	"strings"

	"coral/internal/mir"
)

func reprType(r mir.Repr) string {
	switch r {
	case mir.ReprInt:
		return "i64"
	case mir.ReprBool:
		return "i1"
	default:
		return "ptr"
	}
}

// resultType returns void, the single result type, or a literal struct
// for unboxed pairs.
func resultType(rs []mir.Repr) string {
	switch len(rs) {
	case 0:
		return "void"
	case 1:
		return reprType(rs[0])
	}
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = reprType(r)
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}
