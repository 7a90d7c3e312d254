package sema

import (
	"fmt"

	"coral/internal/ast"
	"coral/internal/types"
)

// checkBinary reports binary operations whose operand types guarantee a
// runtime failure. The operation is still compiled to the failing path.
func (tc *typeChecker) checkBinary(id ast.ExprID, data *ast.ExprBinaryData, l, r types.TypeID) {
	lk, rk := tc.in.KindOf(l), tc.in.KindOf(r)
	var bad func(types.Kind) bool
	switch {
	case data.Op == ast.OpAdd:
		bad = func(k types.Kind) bool {
			return k == types.KindBool || k == types.KindPair || k == types.KindFunction
		}
	case data.Op.IsArith(), data.Op.IsCompare():
		bad = func(k types.Kind) bool { return isConcrete(k) && k != types.KindInt }
	case data.Op.IsLogical():
		bad = func(k types.Kind) bool { return isConcrete(k) && k != types.KindBool }
	case data.Op.IsEquality():
		bad = func(k types.Kind) bool { return k == types.KindPair || k == types.KindFunction }
		if !bad(lk) && !bad(rk) && isConcrete(lk) && isConcrete(rk) && lk != rk {
			tc.warn(id, fmt.Sprintf("equality cannot be applied between %s and %s", lk, rk))
			return
		}
	}

	if bad(lk) || bad(rk) {
		tc.warn(id, operandMessage(data.Op, lk, rk, bad))
		return
	}
	if data.Op == ast.OpDiv || data.Op == ast.OpRem {
		if lit, ok := tc.ex.Int(data.Right); ok && lit.Value == 0 {
			tc.warn(id, "division by zero")
		}
	}
}

func operandMessage(op ast.BinaryOp, lk, rk types.Kind, bad func(types.Kind) bool) string {
	what := "'" + op.String() + "'"
	if op.IsEquality() {
		what = "equality"
	}
	if isConcrete(lk) && isConcrete(rk) {
		return fmt.Sprintf("%s cannot be applied between %s and %s", what, lk, rk)
	}
	k := lk
	if !bad(lk) {
		k = rk
	}
	return fmt.Sprintf("%s cannot be applied to a %s operand", what, k)
}

func isConcrete(k types.Kind) bool {
	switch k {
	case types.KindInvalid, types.KindUnknown, types.KindDynamic:
		return false
	}
	return true
}
