package mir

import (
	"errors"
	"fmt"
	"strconv"

	"coral/internal/ast"
	"coral/internal/sema"
	"coral/internal/symbols"
	"coral/internal/trace"
	"coral/internal/types"
)

type LowerOptions struct {
	Tracer trace.Tracer
	// ParentSpan links the per-function trace spans to the caller's span.
	ParentSpan uint64
}

// Lower translates a checked file into MIR. Every function gets a native
// body following its inferred signature; escaping functions also get a
// boxed dynamic entry.
func Lower(builder *ast.Builder, fileID ast.FileID, sem *sema.Result, opts LowerOptions) (mod *Module, err error) {
	if builder == nil || sem == nil || sem.Symbols == nil {
		return nil, errors.New("mir: lowering needs a checked file")
	}
	file := builder.Files.Get(fileID)
	if file == nil {
		return nil, fmt.Errorf("mir: unknown file %d", fileID)
	}
	defer func() {
		if r := recover(); r != nil {
			mod = nil
			err = fmt.Errorf("mir: lowering %s: %v", file.Name, r)
		}
	}()

	l := newLowerer(builder, sem, file.Name, opts)
	l.declare()
	for i := 1; i <= sem.Symbols.Table.Funcs.Len(); i++ {
		fid := symbols.FuncID(i)
		sp := trace.Begin(opts.Tracer, trace.ScopeModule, "lower:"+l.funcs[fid].f.Name, opts.ParentSpan)
		l.lowerFunc(fid)
		if dyn := l.dyns[fid]; dyn != nil {
			l.lowerDyn(fid)
		}
		sp.End("")
	}
	return l.b.Module(), nil
}

type lowerer struct {
	ex   *ast.Exprs
	sem  *sema.Result
	syms *symbols.Result
	in   *types.Interner
	tb   types.Builtins
	b    *Builder
	opts LowerOptions

	// funcs and dyns are indexed by symbols.FuncID.
	funcs []*FuncBuilder
	dyns  []*FuncBuilder
}

func newLowerer(builder *ast.Builder, sem *sema.Result, name string, opts LowerOptions) *lowerer {
	return &lowerer{
		ex:   builder.Exprs,
		sem:  sem,
		syms: sem.Symbols,
		in:   sem.TypeInterner,
		tb:   sem.TypeInterner.Builtins(),
		b:    NewBuilder(name),
		opts: opts,
	}
}

// declare reserves every native function first, then the dynamic entries,
// so native IDs follow source order.
func (l *lowerer) declare() {
	n := l.syms.Table.Funcs.Len()
	l.funcs = make([]*FuncBuilder, n+1)
	l.dyns = make([]*FuncBuilder, n+1)
	for i := 1; i <= n; i++ {
		fn := l.syms.Func(symbols.FuncID(i))
		name := fn.Name
		if symbols.FuncID(i) == symbols.MainFuncID {
			name = "main"
		}
		l.funcs[i] = l.b.DeclareFunc(name, fn.Arity(), len(fn.Captures), fn.Span)
	}
	l.b.SetMain(l.funcs[symbols.MainFuncID].ID())
	for i := 1; i <= n; i++ {
		fn := l.syms.Func(symbols.FuncID(i))
		if !fn.Escapes || symbols.FuncID(i) == symbols.MainFuncID {
			continue
		}
		dyn := l.b.DeclareFunc(l.funcs[i].f.Name+".dyn", fn.Arity(), len(fn.Captures), fn.Span)
		dyn.SetImpl(l.funcs[i].ID())
		l.funcs[i].SetDyn(dyn.ID())
		l.dyns[i] = dyn
	}
}

func (l *lowerer) native(fid symbols.FuncID) FuncID { return l.funcs[fid].ID() }

func (l *lowerer) dynEntry(fid symbols.FuncID) FuncID {
	if dyn := l.dyns[fid]; dyn != nil {
		return dyn.ID()
	}
	return NoFuncID
}

func (l *lowerer) lowerFunc(fid symbols.FuncID) {
	fb := l.funcs[fid]
	fn := l.syms.Func(fid)
	sig := l.sem.Sig(fid)
	fl := &funcLowerer{l: l, fb: fb, fid: fid, fn: fn, sig: sig, bind: make(map[symbols.SymbolID][]Operand)}

	main := fid == symbols.MainFuncID
	if !main {
		fb.SetEnv()
	}
	for i, p := range fn.Params {
		name := l.syms.Table.Symbols.Get(p).Name
		reprs := Layout(l.in, sig.Params[i])
		ops := make([]Operand, len(reprs))
		for j, r := range reprs {
			local := name
			if len(reprs) > 1 {
				local = name + "." + strconv.Itoa(j)
			}
			ops[j] = LocalOperand(fb.AddParam(local, r))
		}
		fl.bind[p] = ops
	}
	if !main {
		fb.SetResults(Layout(l.in, sig.Ret))
	}
	fb.OpenScope()

	if main {
		fl.expr(fn.Body)
		fb.EmitReturn(nil, fn.Span)
	} else {
		fl.tail(fn.Body)
	}
	fb.Finish()
}

// lowerDyn builds the boxed entry used by Function.call: it unboxes the
// arguments to the native signature and boxes the result.
func (l *lowerer) lowerDyn(fid symbols.FuncID) {
	fb := l.dyns[fid]
	fn := l.syms.Func(fid)
	sig := l.sem.Sig(fid)
	fl := &funcLowerer{l: l, fb: fb, fid: fid, fn: fn, sig: sig, bind: make(map[symbols.SymbolID][]Operand)}

	env := fb.SetEnv()
	params := make([]Operand, fn.Arity())
	for i, p := range fn.Params {
		params[i] = LocalOperand(fb.AddParam(l.syms.Table.Symbols.Get(p).Name, ReprValue))
	}
	fb.SetResults([]Repr{ReprValue})
	fb.OpenScope()

	var args []Operand
	for i, p := range params {
		args = append(args, fl.coerce(value{ops: []Operand{p}, typ: l.tb.Dynamic}, sig.Params[i], fn.Span).ops...)
	}
	callee := Callee{Kind: CalleeDirect, Func: l.native(fid), Env: LocalOperand(env)}
	if Boxed(l.in, sig.Ret) {
		fb.EmitTailCall(callee, args, fn.Span)
	} else {
		res := fb.EmitCall(callee, args, Layout(l.in, sig.Ret), fn.Span)
		boxed := fl.box(value{ops: res, typ: sig.Ret}, fn.Span)
		fb.EmitReturn([]Operand{boxed}, fn.Span)
	}
	fb.Finish()
}

// value is a lowered expression: its locals follow Layout(typ).
type value struct {
	ops []Operand
	typ types.TypeID
}

type funcLowerer struct {
	l   *lowerer
	fb  *FuncBuilder
	fid symbols.FuncID
	fn  *symbols.Function
	sig sema.Signature
	// bind maps symbols owned by this function to their locals.
	bind map[symbols.SymbolID][]Operand
}
