package mir

import (
	"fmt"

	"coral/internal/ast"
	"coral/internal/source"
	"coral/internal/types"
)

// coerce converts v to the representation of to. Widening boxes; narrowing
// a boxed value unboxes with a runtime tag check.
func (fl *funcLowerer) coerce(v value, to types.TypeID, span source.Span) value {
	if v.typ == to {
		return v
	}
	in := fl.l.in
	switch {
	case Boxed(in, to):
		return value{ops: []Operand{fl.box(v, span)}, typ: to}
	case to == fl.l.tb.Int:
		b := fl.box(v, span)
		return value{ops: []Operand{fl.fb.EmitRuntime(RtUnboxInt, []Operand{b}, span)}, typ: to}
	case to == fl.l.tb.Bool:
		b := fl.box(v, span)
		return value{ops: []Operand{fl.fb.EmitRuntime(RtUnboxBool, []Operand{b}, span)}, typ: to}
	case Unboxed(in, to):
		tt := in.MustLookup(to)
		var first, second value
		if Unboxed(in, v.typ) {
			first, second = fl.split(v)
		} else {
			b := fl.box(v, span)
			first = value{ops: []Operand{fl.fb.EmitRuntime(RtFirst, []Operand{b}, span)}, typ: fl.l.tb.Dynamic}
			second = value{ops: []Operand{fl.fb.EmitRuntime(RtSecond, []Operand{b}, span)}, typ: fl.l.tb.Dynamic}
		}
		a := fl.coerce(first, tt.First, span)
		c := fl.coerce(second, tt.Second, span)
		return value{ops: append(append([]Operand(nil), a.ops...), c.ops...), typ: to}
	}
	panic(fmt.Sprintf("cannot coerce %s to %s", types.Label(in, v.typ), types.Label(in, to)))
}

// box returns v as a single Value operand, allocating for unboxed pairs.
func (fl *funcLowerer) box(v value, span source.Span) Operand {
	in := fl.l.in
	switch {
	case Boxed(in, v.typ):
		return v.ops[0]
	case v.typ == fl.l.tb.Int:
		return fl.fb.EmitRuntime(RtBoxInt, v.ops, span)
	case v.typ == fl.l.tb.Bool:
		return fl.fb.EmitRuntime(RtBoxBool, v.ops, span)
	case Unboxed(in, v.typ):
		first, second := fl.split(v)
		a := fl.box(first, span)
		b := fl.box(second, span)
		return fl.fb.EmitRuntime(RtNewPair, []Operand{a, b}, span)
	}
	panic(fmt.Sprintf("cannot box %s", types.Label(in, v.typ)))
}

var nativeArith = map[ast.BinaryOp]NativeOp{
	ast.OpAdd: NativeAdd,
	ast.OpSub: NativeSub,
	ast.OpMul: NativeMul,
	ast.OpDiv: NativeDiv,
	ast.OpRem: NativeRem,
	ast.OpLt:  NativeLt,
	ast.OpLte: NativeLe,
	ast.OpGt:  NativeGt,
	ast.OpGte: NativeGe,
	ast.OpEq:  NativeEqInt,
	ast.OpNeq: NativeNeInt,
}

var runtimeBinary = map[ast.BinaryOp]RuntimeOp{
	ast.OpAdd: RtAdd,
	ast.OpSub: RtSub,
	ast.OpMul: RtMul,
	ast.OpDiv: RtDiv,
	ast.OpRem: RtRem,
	ast.OpLt:  RtLt,
	ast.OpLte: RtLe,
	ast.OpGt:  RtGt,
	ast.OpGte: RtGe,
	ast.OpEq:  RtEq,
	ast.OpNeq: RtNe,
	ast.OpAnd: RtAnd,
	ast.OpOr:  RtOr,
}

// binary evaluates both operands, then computes natively when their static
// types allow it and through the runtime otherwise.
func (fl *funcLowerer) binary(id ast.ExprID) value {
	data, _ := fl.l.ex.Binary(id)
	span := fl.span(id)
	l := fl.expr(data.Left)
	r := fl.expr(data.Right)
	if op, ok := fl.nativeOp(data.Op, l.typ, r.typ); ok {
		res := fl.fb.EmitNative(op, []Operand{l.ops[0], r.ops[0]}, span)
		return value{ops: []Operand{res}, typ: fl.resultType(op)}
	}
	lb := fl.box(l, span)
	rb := fl.box(r, span)
	res := fl.fb.EmitRuntime(runtimeBinary[data.Op], []Operand{lb, rb}, span)
	return value{ops: []Operand{res}, typ: fl.l.tb.Dynamic}
}

func (fl *funcLowerer) nativeOp(op ast.BinaryOp, l, r types.TypeID) (NativeOp, bool) {
	tb := fl.l.tb
	switch {
	case l == tb.Int && r == tb.Int:
		n, ok := nativeArith[op]
		return n, ok
	case l == tb.Bool && r == tb.Bool:
		switch op {
		case ast.OpEq:
			return NativeEqBool, true
		case ast.OpNeq:
			return NativeNeBool, true
		case ast.OpAnd:
			return NativeAnd, true
		case ast.OpOr:
			return NativeOr, true
		}
	}
	return 0, false
}

func (fl *funcLowerer) resultType(op NativeOp) types.TypeID {
	if op.Result() == ReprInt {
		return fl.l.tb.Int
	}
	return fl.l.tb.Bool
}
