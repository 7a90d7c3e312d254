package mir

import (
	"coral/internal/ast"
	"coral/internal/symbols"
	"coral/internal/types"
)

// call lowers a non-tail call. Direct calls pass the closure and the
// arguments in the callee's native signature; anything else goes through
// the boxed calling convention.
func (fl *funcLowerer) call(id ast.ExprID) value {
	data, _ := fl.l.ex.Call(id)
	span := fl.span(id)
	if target := fl.l.syms.Direct[id]; target.IsValid() {
		callee, args := fl.directArgs(data, target)
		sig := fl.l.sem.Sig(target)
		res := fl.fb.EmitCall(callee, args, Layout(fl.l.in, sig.Ret), span)
		return value{ops: res, typ: sig.Ret}
	}
	callee, args := fl.dynamicArgs(data)
	res := fl.fb.EmitCall(callee, args, []Repr{ReprValue}, span)
	return value{ops: res, typ: fl.l.tb.Dynamic}
}

func (fl *funcLowerer) directArgs(data *ast.ExprCallData, target symbols.FuncID) (Callee, []Operand) {
	span := fl.span(data.Callee)
	env := fl.box(fl.symValue(fl.l.syms.Uses[data.Callee], span), span)
	sig := fl.l.sem.Sig(target)
	var args []Operand
	for i, arg := range data.Args {
		v := fl.expr(arg)
		args = append(args, fl.coerce(v, sig.Params[i], fl.span(arg)).ops...)
	}
	return Callee{Kind: CalleeDirect, Func: fl.l.native(target), Env: env}, args
}

func (fl *funcLowerer) dynamicArgs(data *ast.ExprCallData) (Callee, []Operand) {
	fn := fl.box(fl.expr(data.Callee), fl.span(data.Callee))
	args := make([]Operand, len(data.Args))
	for i, arg := range data.Args {
		args[i] = fl.box(fl.expr(arg), fl.span(arg))
	}
	return Callee{Kind: CalleeDynamic, Value: fn}, args
}

// tailCall emits a call in tail position as a frame-replacing tail call
// when that is sound, and reports whether it did.
//
// A direct tail call borrows the callee's closure past the release of the
// current scope, so the closure must be owned by someone else: the frame's
// own closure or one of its captures. The callee's results are forwarded
// unchanged, so they must already have the current function's layout.
func (fl *funcLowerer) tailCall(id ast.ExprID) bool {
	data, _ := fl.l.ex.Call(id)
	span := fl.span(id)
	if target := fl.l.syms.Direct[id]; target.IsValid() {
		sym := fl.l.syms.Uses[data.Callee]
		_, captured := fl.fn.CaptureIndex(sym)
		self := sym == fl.fn.Self && fl.fn.Self.IsValid()
		if !self && !captured {
			return false
		}
		if !fl.sameRepr(fl.l.sem.Sig(target).Ret) {
			return false
		}
		callee, args := fl.directArgs(data, target)
		fl.fb.EmitTailCall(callee, args, span)
		return true
	}
	if !Boxed(fl.l.in, fl.sig.Ret) {
		return false
	}
	callee, args := fl.dynamicArgs(data)
	fl.fb.EmitTailCall(callee, args, span)
	return true
}

func (fl *funcLowerer) sameRepr(ret types.TypeID) bool {
	return ret == fl.sig.Ret || (Boxed(fl.l.in, ret) && Boxed(fl.l.in, fl.sig.Ret))
}
