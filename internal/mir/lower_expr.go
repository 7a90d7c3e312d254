package mir

import (
	"fmt"

	"coral/internal/ast"
	"coral/internal/source"
	"coral/internal/symbols"
	"coral/internal/types"
)

func (fl *funcLowerer) span(id ast.ExprID) source.Span {
	if e := fl.l.ex.Get(id); e != nil {
		return e.Span
	}
	return fl.fn.Span
}

// tail lowers an expression in tail position and ends every path it opens.
func (fl *funcLowerer) tail(id ast.ExprID) {
	e := fl.l.ex.Get(id)
	switch e.Kind {
	case ast.ExprLet:
		data, _ := fl.l.ex.Let(id)
		fl.let(id, data)
		fl.tail(data.Next)
		return
	case ast.ExprIf:
		data, _ := fl.l.ex.If(id)
		cond := fl.cond(data.Cond)
		then, els := fl.fb.NewBlock(), fl.fb.NewBlock()
		fl.fb.EmitBranch(cond, then, els, e.Span)
		fl.fb.SetBlock(then)
		fl.tail(data.Then)
		fl.fb.SetBlock(els)
		fl.tail(data.Else)
		return
	case ast.ExprCall:
		if fl.tailCall(id) {
			return
		}
	}
	v := fl.expr(id)
	ret := fl.coerce(v, fl.sig.Ret, e.Span)
	fl.fb.EmitReturn(ret.ops, e.Span)
}

// expr lowers id and returns its value in the representation of its
// inferred type.
func (fl *funcLowerer) expr(id ast.ExprID) value {
	e := fl.l.ex.Get(id)
	want := fl.l.sem.TypeOf(id)
	var v value
	switch e.Kind {
	case ast.ExprInt:
		data, _ := fl.l.ex.Int(id)
		v = value{ops: []Operand{IntConst(data.Value)}, typ: fl.l.tb.Int}
	case ast.ExprBool:
		data, _ := fl.l.ex.Bool(id)
		v = value{ops: []Operand{BoolConst(data.Value)}, typ: fl.l.tb.Bool}
	case ast.ExprStr:
		data, _ := fl.l.ex.Str(id)
		v = value{ops: []Operand{fl.fb.EmitString(data.Value, e.Span)}, typ: fl.l.tb.Str}
	case ast.ExprVar:
		v = fl.symValue(fl.l.syms.Uses[id], e.Span)
	case ast.ExprTuple:
		v = fl.tuple(id, want)
	case ast.ExprLet:
		data, _ := fl.l.ex.Let(id)
		fl.let(id, data)
		v = fl.expr(data.Next)
	case ast.ExprIf:
		v = fl.ifExpr(id, want)
	case ast.ExprFunction:
		v = fl.closure(fl.l.syms.FuncOf[id], e.Span)
	case ast.ExprCall:
		v = fl.call(id)
	case ast.ExprBinary:
		v = fl.binary(id)
	case ast.ExprPrint:
		data, _ := fl.l.ex.Builtin(id)
		v = fl.expr(data.Arg)
		fl.fb.EmitRuntime(RtPrint, []Operand{fl.box(v, e.Span)}, e.Span)
	case ast.ExprFirst, ast.ExprSecond:
		v = fl.project(id, e.Kind)
	default:
		panic(fmt.Sprintf("unexpected %s expression", e.Kind))
	}
	return fl.coerce(v, want, e.Span)
}

func (fl *funcLowerer) let(id ast.ExprID, data *ast.ExprLetData) {
	v := fl.expr(data.Value)
	if sym := fl.l.syms.Binds[id]; sym.IsValid() {
		fl.bind[sym] = fl.coerce(v, fl.l.sem.SymType(sym), fl.span(id)).ops
	}
}

// symValue loads a symbol: the closure itself for a self reference, a
// local for symbols this function owns, otherwise a captured value.
func (fl *funcLowerer) symValue(sym symbols.SymbolID, span source.Span) value {
	typ := fl.l.sem.SymType(sym)
	if sym == fl.fn.Self && fl.fn.Self.IsValid() {
		return value{ops: []Operand{LocalOperand(fl.fb.f.Env)}, typ: fl.l.in.Function(fl.fn.Arity())}
	}
	if ops, ok := fl.bind[sym]; ok {
		return value{ops: ops, typ: typ}
	}
	idx, ok := fl.fn.CaptureIndex(sym)
	if !ok {
		panic(fmt.Sprintf("symbol %d is neither local nor captured in %s", sym, fl.fn.Name))
	}
	loaded := fl.fb.EmitCapture(idx, span)
	return fl.coerce(value{ops: []Operand{loaded}, typ: fl.l.tb.Dynamic}, typ, span)
}

func (fl *funcLowerer) tuple(id ast.ExprID, want types.TypeID) value {
	data, _ := fl.l.ex.Tuple(id)
	span := fl.span(id)
	first := fl.expr(data.First)
	second := fl.expr(data.Second)
	if Unboxed(fl.l.in, want) {
		ops := append(append([]Operand(nil), first.ops...), second.ops...)
		return value{ops: ops, typ: fl.l.in.Pair(first.typ, second.typ)}
	}
	a := fl.box(first, span)
	b := fl.box(second, span)
	return value{ops: []Operand{fl.fb.EmitRuntime(RtNewPair, []Operand{a, b}, span)}, typ: want}
}

func (fl *funcLowerer) cond(id ast.ExprID) Operand {
	v := fl.expr(id)
	return fl.coerce(v, fl.l.tb.Bool, fl.span(id)).ops[0]
}

func (fl *funcLowerer) ifExpr(id ast.ExprID, want types.TypeID) value {
	data, _ := fl.l.ex.If(id)
	span := fl.span(id)
	cond := fl.cond(data.Cond)
	then, els, join := fl.fb.NewBlock(), fl.fb.NewBlock(), fl.fb.NewBlock()
	fl.fb.EmitBranch(cond, then, els, span)

	reprs := Layout(fl.l.in, want)
	out := make([]Operand, len(reprs))
	for i, r := range reprs {
		out[i] = LocalOperand(fl.fb.NewLocal("", r))
	}
	for _, arm := range [...]struct {
		block BlockID
		expr  ast.ExprID
	}{{then, data.Then}, {els, data.Else}} {
		fl.fb.SetBlock(arm.block)
		v := fl.coerce(fl.expr(arm.expr), want, span)
		for i, op := range v.ops {
			fl.fb.EmitAssign(out[i].Local, op, span)
		}
		fl.fb.EmitGoto(join, span)
	}
	fl.fb.SetBlock(join)
	return value{ops: out, typ: want}
}

// closure allocates the function value of a literal. Captures are boxed;
// the runtime takes a reference to each.
func (fl *funcLowerer) closure(fid symbols.FuncID, span source.Span) value {
	fn := fl.l.syms.Func(fid)
	caps := make([]Operand, len(fn.Captures))
	for i, sym := range fn.Captures {
		caps[i] = fl.box(fl.symValue(sym, span), span)
	}
	op := fl.fb.EmitClosure(fl.l.native(fid), fl.l.dynEntry(fid), fn.Arity(), caps, span)
	return value{ops: []Operand{op}, typ: fl.l.in.Function(fn.Arity())}
}

func (fl *funcLowerer) project(id ast.ExprID, kind ast.ExprKind) value {
	data, _ := fl.l.ex.Builtin(id)
	span := fl.span(id)
	v := fl.expr(data.Arg)
	if Unboxed(fl.l.in, v.typ) {
		first, second := fl.split(v)
		if kind == ast.ExprFirst {
			return first
		}
		return second
	}
	op := RtFirst
	if kind == ast.ExprSecond {
		op = RtSecond
	}
	res := fl.fb.EmitRuntime(op, []Operand{fl.box(v, span)}, span)
	return value{ops: []Operand{res}, typ: fl.l.tb.Dynamic}
}

// split divides an unboxed pair into its members.
func (fl *funcLowerer) split(v value) (value, value) {
	tt := fl.l.in.MustLookup(v.typ)
	n := len(Layout(fl.l.in, tt.First))
	return value{ops: v.ops[:n], typ: tt.First}, value{ops: v.ops[n:], typ: tt.Second}
}
