package ast

import (
	"coral/internal/source"
)

// Exprs manages allocation of expressions.
type Exprs struct {
	Arena     *Arena[Expr]
	Ints      *Arena[ExprIntData]
	Strs      *Arena[ExprStrData]
	Bools     *Arena[ExprBoolData]
	Vars      *Arena[ExprVarData]
	Tuples    *Arena[ExprTupleData]
	Lets      *Arena[ExprLetData]
	Ifs       *Arena[ExprIfData]
	Functions *Arena[ExprFunctionData]
	Calls     *Arena[ExprCallData]
	Binaries  *Arena[ExprBinaryData]
	Builtins  *Arena[ExprBuiltinData]
}

// NewExprs creates per-kind arenas preallocated with capHint slots
// (1<<8 when capHint is 0).
func NewExprs(capHint uint) *Exprs {
	if capHint == 0 {
		capHint = 1 << 8
	}
	return &Exprs{
		Arena:     NewArena[Expr](capHint),
		Ints:      NewArena[ExprIntData](capHint),
		Strs:      NewArena[ExprStrData](capHint / 4),
		Bools:     NewArena[ExprBoolData](capHint / 4),
		Vars:      NewArena[ExprVarData](capHint),
		Tuples:    NewArena[ExprTupleData](capHint / 4),
		Lets:      NewArena[ExprLetData](capHint / 2),
		Ifs:       NewArena[ExprIfData](capHint / 4),
		Functions: NewArena[ExprFunctionData](capHint / 4),
		Calls:     NewArena[ExprCallData](capHint / 2),
		Binaries:  NewArena[ExprBinaryData](capHint),
		Builtins:  NewArena[ExprBuiltinData](capHint / 4),
	}
}

func (e *Exprs) new(kind ExprKind, span source.Span, payload uint32) ExprID {
	return ExprID(e.Arena.Allocate(Expr{
		Kind:    kind,
		Span:    span,
		Payload: PayloadID(payload),
	}))
}

// Get returns the expression with the given ID.
func (e *Exprs) Get(id ExprID) *Expr {
	return e.Arena.Get(uint32(id))
}

// Len returns the number of allocated expressions; valid IDs are 1..Len.
func (e *Exprs) Len() uint32 {
	return e.Arena.Len()
}

func (e *Exprs) payload(id ExprID, kind ExprKind) (uint32, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != kind {
		return 0, false
	}
	return uint32(expr.Payload), true
}

func (e *Exprs) NewInt(span source.Span, v int64) ExprID {
	return e.new(ExprInt, span, e.Ints.Allocate(ExprIntData{Value: v}))
}

func (e *Exprs) Int(id ExprID) (*ExprIntData, bool) {
	p, ok := e.payload(id, ExprInt)
	if !ok {
		return nil, false
	}
	return e.Ints.Get(p), true
}

func (e *Exprs) NewStr(span source.Span, v string) ExprID {
	return e.new(ExprStr, span, e.Strs.Allocate(ExprStrData{Value: v}))
}

func (e *Exprs) Str(id ExprID) (*ExprStrData, bool) {
	p, ok := e.payload(id, ExprStr)
	if !ok {
		return nil, false
	}
	return e.Strs.Get(p), true
}

func (e *Exprs) NewBool(span source.Span, v bool) ExprID {
	return e.new(ExprBool, span, e.Bools.Allocate(ExprBoolData{Value: v}))
}

func (e *Exprs) Bool(id ExprID) (*ExprBoolData, bool) {
	p, ok := e.payload(id, ExprBool)
	if !ok {
		return nil, false
	}
	return e.Bools.Get(p), true
}

func (e *Exprs) NewVar(span source.Span, name string) ExprID {
	return e.new(ExprVar, span, e.Vars.Allocate(ExprVarData{Name: name}))
}

func (e *Exprs) Var(id ExprID) (*ExprVarData, bool) {
	p, ok := e.payload(id, ExprVar)
	if !ok {
		return nil, false
	}
	return e.Vars.Get(p), true
}

func (e *Exprs) NewTuple(span source.Span, first, second ExprID) ExprID {
	return e.new(ExprTuple, span, e.Tuples.Allocate(ExprTupleData{First: first, Second: second}))
}

func (e *Exprs) Tuple(id ExprID) (*ExprTupleData, bool) {
	p, ok := e.payload(id, ExprTuple)
	if !ok {
		return nil, false
	}
	return e.Tuples.Get(p), true
}

func (e *Exprs) NewLet(span source.Span, name string, nameSpan source.Span, value, next ExprID) ExprID {
	return e.new(ExprLet, span, e.Lets.Allocate(ExprLetData{
		Name:     name,
		NameSpan: nameSpan,
		Value:    value,
		Next:     next,
	}))
}

func (e *Exprs) Let(id ExprID) (*ExprLetData, bool) {
	p, ok := e.payload(id, ExprLet)
	if !ok {
		return nil, false
	}
	return e.Lets.Get(p), true
}

func (e *Exprs) NewIf(span source.Span, cond, then, els ExprID) ExprID {
	return e.new(ExprIf, span, e.Ifs.Allocate(ExprIfData{Cond: cond, Then: then, Else: els}))
}

func (e *Exprs) If(id ExprID) (*ExprIfData, bool) {
	p, ok := e.payload(id, ExprIf)
	if !ok {
		return nil, false
	}
	return e.Ifs.Get(p), true
}

func (e *Exprs) NewFunction(span source.Span, params []Param, body ExprID) ExprID {
	return e.new(ExprFunction, span, e.Functions.Allocate(ExprFunctionData{Params: params, Body: body}))
}

func (e *Exprs) Function(id ExprID) (*ExprFunctionData, bool) {
	p, ok := e.payload(id, ExprFunction)
	if !ok {
		return nil, false
	}
	return e.Functions.Get(p), true
}

func (e *Exprs) NewCall(span source.Span, callee ExprID, args []ExprID) ExprID {
	return e.new(ExprCall, span, e.Calls.Allocate(ExprCallData{Callee: callee, Args: args}))
}

func (e *Exprs) Call(id ExprID) (*ExprCallData, bool) {
	p, ok := e.payload(id, ExprCall)
	if !ok {
		return nil, false
	}
	return e.Calls.Get(p), true
}

func (e *Exprs) NewBinary(span source.Span, op BinaryOp, left, right ExprID) ExprID {
	return e.new(ExprBinary, span, e.Binaries.Allocate(ExprBinaryData{Op: op, Left: left, Right: right}))
}

func (e *Exprs) Binary(id ExprID) (*ExprBinaryData, bool) {
	p, ok := e.payload(id, ExprBinary)
	if !ok {
		return nil, false
	}
	return e.Binaries.Get(p), true
}

// NewBuiltin creates a print, first or second expression.
func (e *Exprs) NewBuiltin(kind ExprKind, span source.Span, arg ExprID) ExprID {
	switch kind {
	case ExprPrint, ExprFirst, ExprSecond:
	default:
		panic("ast: NewBuiltin with non-builtin kind " + kind.String())
	}
	return e.new(kind, span, e.Builtins.Allocate(ExprBuiltinData{Arg: arg}))
}

// Builtin returns the operand of print, first or second.
func (e *Exprs) Builtin(id ExprID) (*ExprBuiltinData, bool) {
	expr := e.Get(id)
	if expr == nil {
		return nil, false
	}
	switch expr.Kind {
	case ExprPrint, ExprFirst, ExprSecond:
		return e.Builtins.Get(uint32(expr.Payload)), true
	}
	return nil, false
}
