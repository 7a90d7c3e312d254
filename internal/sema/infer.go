package sema

import (
	"fmt"
	"slices"

	"coral/internal/ast"
	"coral/internal/diag"
	"coral/internal/symbols"
	"coral/internal/types"
)

type typeChecker struct {
	builder   *ast.Builder
	ex        *ast.Exprs
	syms      *symbols.Result
	in        *types.Interner
	b         types.Builtins
	reporter  diag.Reporter
	result    *Result
	maxRounds int

	exprTypes []types.TypeID
	symTypes  []types.TypeID
	sigs      []Signature
	// next accumulates the argument types seen at direct call sites during
	// the current pass.
	next   [][]types.TypeID
	pinned []bool
	// frozen is set for the final pass: signatures are read, never updated,
	// and diagnostics are reported.
	frozen bool
}

func newTypeChecker(builder *ast.Builder, opts Options, res *Result) *typeChecker {
	in := res.TypeInterner
	return &typeChecker{
		builder:   builder,
		ex:        builder.Exprs,
		syms:      opts.Symbols,
		in:        in,
		b:         in.Builtins(),
		reporter:  opts.Reporter,
		result:    res,
		maxRounds: opts.MaxRounds,
	}
}

func (tc *typeChecker) run() {
	nf := tc.syms.Table.Funcs.Len()
	tc.sigs = make([]Signature, nf+1)
	tc.next = make([][]types.TypeID, nf+1)
	tc.pinned = make([]bool, nf+1)
	for i := 1; i <= nf; i++ {
		fid := symbols.FuncID(i)
		fn := tc.syms.Func(fid)
		params := make([]types.TypeID, fn.Arity())
		for j := range params {
			params[j] = tc.initialParam(fn)
		}
		tc.sigs[fid] = Signature{Params: params, Ret: tc.b.Unknown}
	}

	rounds := 0
	for {
		changed := tc.pass()
		rounds++
		if len(changed) == 0 {
			break
		}
		switch {
		case rounds == tc.maxRounds:
			for _, fid := range changed {
				tc.pin(fid, rounds)
			}
		case rounds >= 2*tc.maxRounds:
			for i := 1; i <= nf; i++ {
				tc.pin(symbols.FuncID(i), rounds)
			}
		}
	}

	for i := 1; i <= nf; i++ {
		sig := &tc.sigs[i]
		for j, p := range sig.Params {
			sig.Params[j] = tc.in.Resolve(p)
		}
		sig.Ret = tc.in.Resolve(sig.Ret)
	}
	tc.frozen = true
	tc.pass()

	for i, t := range tc.exprTypes {
		tc.exprTypes[i] = tc.in.Resolve(t)
	}
	for i, t := range tc.symTypes {
		tc.symTypes[i] = tc.in.Resolve(t)
	}
	tc.result.ExprTypes = tc.exprTypes
	tc.result.SymTypes = tc.symTypes
	tc.result.Sigs = tc.sigs
	tc.result.Rounds = rounds
}

// initialParam is Dynamic for functions whose callers are not all known.
func (tc *typeChecker) initialParam(fn *symbols.Function) types.TypeID {
	if fn.Escapes || len(fn.CallSites) == 0 {
		return tc.b.Dynamic
	}
	return tc.b.Unknown
}

func (tc *typeChecker) inferParams(fid symbols.FuncID) bool {
	fn := tc.syms.Func(fid)
	return !tc.pinned[fid] && !fn.Escapes && len(fn.CallSites) > 0
}

// pass walks the whole program once and returns the functions whose
// signature changed.
func (tc *typeChecker) pass() []symbols.FuncID {
	tc.exprTypes = make([]types.TypeID, tc.ex.Len()+1)
	tc.symTypes = make([]types.TypeID, tc.syms.Table.Symbols.Len()+1)

	before := make([]Signature, len(tc.sigs))
	for i, sig := range tc.sigs {
		before[i] = Signature{Params: slices.Clone(sig.Params), Ret: sig.Ret}
		tc.next[i] = nil
		if i > 0 && !tc.frozen && tc.inferParams(symbols.FuncID(i)) {
			tc.next[i] = make([]types.TypeID, len(sig.Params))
			for j := range tc.next[i] {
				tc.next[i][j] = tc.b.Unknown
			}
		}
	}

	tc.function(symbols.MainFuncID)
	if tc.frozen {
		return nil
	}

	var changed []symbols.FuncID
	for i := 1; i < len(tc.sigs); i++ {
		sig := &tc.sigs[i]
		if next := tc.next[i]; next != nil {
			for j, t := range next {
				sig.Params[j] = tc.in.Widen(tc.in.Join(sig.Params[j], t), maxPairDepth)
			}
		}
		if sig.Ret != before[i].Ret || !slices.Equal(sig.Params, before[i].Params) {
			changed = append(changed, symbols.FuncID(i))
		}
	}
	return changed
}

func (tc *typeChecker) pin(fid symbols.FuncID, rounds int) {
	if tc.pinned[fid] {
		return
	}
	tc.pinned[fid] = true
	sig := &tc.sigs[fid]
	for j := range sig.Params {
		sig.Params[j] = tc.b.Dynamic
	}
	sig.Ret = tc.b.Dynamic
	if fid == symbols.MainFuncID {
		return
	}
	fn := tc.syms.Func(fid)
	diag.NewReportBuilder(tc.reporter, diag.SevInfo, diag.SemaInferenceLimit, fn.Span,
		fmt.Sprintf("signature of '%s' did not settle after %d rounds; using Dynamic", fn.Name, rounds)).
		Emit()
}

func (tc *typeChecker) function(fid symbols.FuncID) types.TypeID {
	fn := tc.syms.Func(fid)
	sig := &tc.sigs[fid]
	for i, p := range fn.Params {
		tc.symTypes[p] = sig.Params[i]
	}
	body := tc.expr(fn.Body)
	if !tc.frozen && !tc.pinned[fid] {
		sig.Ret = tc.in.Widen(tc.in.Join(sig.Ret, body), maxPairDepth)
	}
	return body
}

func (tc *typeChecker) expr(id ast.ExprID) types.TypeID {
	e := tc.ex.Get(id)
	if e == nil {
		return tc.b.Dynamic
	}
	var t types.TypeID
	switch e.Kind {
	case ast.ExprInt:
		t = tc.b.Int
	case ast.ExprStr:
		t = tc.b.Str
	case ast.ExprBool:
		t = tc.b.Bool
	case ast.ExprVar:
		t = tc.varType(id)
	case ast.ExprTuple:
		data, _ := tc.ex.Tuple(id)
		first := tc.expr(data.First)
		t = tc.in.Pair(first, tc.expr(data.Second))
	case ast.ExprLet:
		t = tc.let(id)
	case ast.ExprIf:
		t = tc.ifExpr(id)
	case ast.ExprFunction:
		fid := tc.syms.FuncOf[id]
		tc.function(fid)
		t = tc.in.Function(tc.syms.Func(fid).Arity())
	case ast.ExprCall:
		t = tc.call(id)
	case ast.ExprBinary:
		t = tc.binary(id)
	case ast.ExprPrint:
		data, _ := tc.ex.Builtin(id)
		t = tc.expr(data.Arg)
	case ast.ExprFirst, ast.ExprSecond:
		t = tc.project(id, e.Kind)
	default:
		t = tc.b.Dynamic
	}
	tc.exprTypes[id] = t
	return t
}

func (tc *typeChecker) varType(id ast.ExprID) types.TypeID {
	sym := tc.syms.Uses[id]
	if !sym.IsValid() {
		return tc.b.Dynamic
	}
	if t := tc.symTypes[sym]; t != types.NoTypeID {
		return t
	}
	return tc.b.Unknown
}

func (tc *typeChecker) let(id ast.ExprID) types.TypeID {
	data, _ := tc.ex.Let(id)
	sym := tc.syms.Binds[id]
	if fn, isFn := tc.ex.Function(data.Value); isFn && sym.IsValid() {
		// visible inside its own body
		tc.symTypes[sym] = tc.in.Function(len(fn.Params))
	}
	vt := tc.expr(data.Value)
	if sym.IsValid() {
		tc.symTypes[sym] = vt
	}
	return tc.expr(data.Next)
}

func (tc *typeChecker) ifExpr(id ast.ExprID) types.TypeID {
	data, _ := tc.ex.If(id)
	cond := tc.expr(data.Cond)
	if tc.frozen && tc.known(cond) && tc.in.KindOf(cond) != types.KindBool {
		tc.warn(data.Cond, "expected a bool, but got "+tc.in.KindOf(cond).String())
	}
	then := tc.expr(data.Then)
	return tc.in.Join(then, tc.expr(data.Else))
}

func (tc *typeChecker) call(id ast.ExprID) types.TypeID {
	data, _ := tc.ex.Call(id)
	callee := tc.expr(data.Callee)
	argTypes := make([]types.TypeID, len(data.Args))
	for i, arg := range data.Args {
		argTypes[i] = tc.expr(arg)
	}

	if target := tc.syms.Direct[id]; target.IsValid() {
		if next := tc.next[target]; next != nil {
			for i, at := range argTypes {
				next[i] = tc.in.Join(next[i], at)
			}
		}
		return tc.sigs[target].Ret
	}

	tt, _ := tc.in.Lookup(callee)
	switch tt.Kind {
	case types.KindUnknown:
		return tc.b.Unknown
	case types.KindDynamic:
	case types.KindFunction:
		if tc.frozen && int(tt.Arity) != len(data.Args) {
			tc.warn(id, fmt.Sprintf("function expects %d arguments, but got %d", tt.Arity, len(data.Args)))
		}
	default:
		if tc.frozen {
			diag.ReportWarning(tc.reporter, diag.SemaNotCallable, tc.ex.Get(id).Span,
				tt.Kind.String()+" is not a callable").Emit()
		}
	}
	return tc.b.Dynamic
}

func (tc *typeChecker) binary(id ast.ExprID) types.TypeID {
	data, _ := tc.ex.Binary(id)
	l := tc.expr(data.Left)
	r := tc.expr(data.Right)
	if tc.frozen {
		tc.checkBinary(id, data, l, r)
	}
	switch {
	case data.Op == ast.OpAdd:
		return tc.addType(l, r)
	case data.Op.IsArith():
		return tc.b.Int
	default:
		return tc.b.Bool
	}
}

// addType: '+' concatenates as soon as one side is a string.
func (tc *typeChecker) addType(l, r types.TypeID) types.TypeID {
	switch {
	case l == tc.b.Str || r == tc.b.Str:
		return tc.b.Str
	case l == tc.b.Unknown || r == tc.b.Unknown:
		return tc.b.Unknown
	case l == tc.b.Int && r == tc.b.Int:
		return tc.b.Int
	default:
		return tc.b.Dynamic
	}
}

func (tc *typeChecker) project(id ast.ExprID, kind ast.ExprKind) types.TypeID {
	data, _ := tc.ex.Builtin(id)
	at := tc.expr(data.Arg)
	tt, _ := tc.in.Lookup(at)
	switch tt.Kind {
	case types.KindPair:
		if kind == ast.ExprFirst {
			return tt.First
		}
		return tt.Second
	case types.KindUnknown:
		return tc.b.Unknown
	case types.KindDynamic:
	default:
		if tc.frozen {
			name := "first"
			if kind == ast.ExprSecond {
				name = "second"
			}
			tc.warn(id, fmt.Sprintf("'%s' cannot be applied to %s", name, tt.Kind))
		}
	}
	return tc.b.Dynamic
}

// known reports whether t names a concrete runtime kind.
func (tc *typeChecker) known(t types.TypeID) bool {
	return isConcrete(tc.in.KindOf(t))
}

func (tc *typeChecker) warn(at ast.ExprID, msg string) {
	diag.ReportWarning(tc.reporter, diag.SemaAlwaysFails, tc.ex.Get(at).Span, msg).Emit()
}
