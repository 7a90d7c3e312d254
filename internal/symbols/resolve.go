package symbols

import (
	"fmt"

	"coral/internal/ast"
	"coral/internal/diag"
	"coral/internal/source"
)

// ResolveOptions configures ResolveFile.
type ResolveOptions struct {
	Reporter diag.Reporter
	Hints    Hints
}

// Result holds the resolution artefacts. Per-expression slices are indexed
// by ast.ExprID and sized Exprs.Len()+1.
type Result struct {
	Table *Table
	Root  ast.ExprID
	// Uses maps a Var expression to the symbol it names.
	Uses []SymbolID
	// Direct maps a call expression to its statically known target function.
	Direct []FuncID
	// Tail marks expressions whose value is the result of their function.
	Tail []bool
	// FuncOf maps a function literal to its FuncID.
	FuncOf []FuncID
	// Binds maps a Let expression to the symbol it declares.
	Binds []SymbolID
	OK     bool
}

// Symbol returns the symbol named by the Var expression id.
func (r *Result) Symbol(id ast.ExprID) (*Symbol, SymbolID) {
	sym := r.Uses[id]
	return r.Table.Symbols.Get(sym), sym
}

// Func returns the function record for id.
func (r *Result) Func(id FuncID) *Function {
	return r.Table.Funcs.Get(id)
}

type walker struct {
	ex        *ast.Exprs
	r         *Resolver
	table     *Table
	res       *Result
	reporter  diag.Reporter
	funcStack []FuncID
	lambdas   int
	errors    int
}

// ResolveFile binds identifiers, computes captures, direct call targets,
// escape flags and tail positions for one parsed program.
func ResolveFile(builder *ast.Builder, fileID ast.FileID, opts ResolveOptions) Result {
	table := NewTable(opts.Hints)
	file := builder.Files.Get(fileID)
	if file == nil {
		return Result{Table: table}
	}
	n := int(builder.Exprs.Len()) + 1
	res := Result{
		Table:  table,
		Root:   file.Root,
		Uses:   make([]SymbolID, n),
		Direct: make([]FuncID, n),
		Tail:   make([]bool, n),
		FuncOf: make([]FuncID, n),
		Binds:  make([]SymbolID, n),
	}
	w := &walker{
		ex:       builder.Exprs,
		table:    table,
		res:      &res,
		reporter: opts.Reporter,
	}
	w.r = NewResolver(table, ResolverOptions{Reporter: w})

	mainID := table.Funcs.New(Function{
		Expr: file.Root,
		Body: file.Root,
		Name: "main",
		Span: file.Span,
	})
	w.walkFunction(mainID, nil)
	res.OK = w.errors == 0
	return res
}

// Report counts errors before forwarding, so the resolver can report
// through the walker.
func (w *walker) Report(code diag.Code, sev diag.Severity, primary source.Span, msg string, notes []diag.Note) {
	if sev == diag.SevError {
		w.errors++
	}
	if w.reporter != nil {
		w.reporter.Report(code, sev, primary, msg, notes)
	}
}

func (w *walker) currentFunc() FuncID {
	return w.funcStack[len(w.funcStack)-1]
}

func (w *walker) newFunc(expr ast.ExprID, name string) FuncID {
	fn, _ := w.ex.Function(expr)
	if name == "" {
		w.lambdas++
		name = fmt.Sprintf("lambda%d", w.lambdas)
	}
	id := w.table.Funcs.New(Function{
		Expr:   expr,
		Body:   fn.Body,
		Parent: w.currentFunc(),
		Name:   name,
		Span:   w.ex.Get(expr).Span,
	})
	w.res.FuncOf[expr] = id
	return id
}

func (w *walker) walkFunction(id FuncID, params []ast.Param) {
	fn := w.table.Funcs.Get(id)
	body := fn.Body
	w.r.Push(ScopeFunction, fn.Expr, id, fn.Span)
	w.funcStack = append(w.funcStack, id)

	paramIDs := make([]SymbolID, 0, len(params))
	for i, p := range params {
		sym := Symbol{Name: p.Name, Kind: SymbolParam, Span: p.Span, Decl: fn.Expr, Owner: id, Index: i}
		if p.Name == "_" {
			sym.Scope = w.r.Current()
			paramIDs = append(paramIDs, w.table.Symbols.New(sym))
			continue
		}
		symID, _ := w.r.Declare(sym)
		paramIDs = append(paramIDs, symID)
	}
	w.table.Funcs.Get(id).Params = paramIDs

	w.walk(body, true)

	w.funcStack = w.funcStack[:len(w.funcStack)-1]
	w.r.Pop()
}

// walkNested resolves a sub-expression that must not leak bindings into the
// current scope.
func (w *walker) walkNested(id ast.ExprID, tail bool) {
	if expr := w.ex.Get(id); expr != nil && expr.Kind == ast.ExprLet {
		w.r.Push(ScopeBlock, id, w.currentFunc(), expr.Span)
		w.walk(id, tail)
		w.r.Pop()
		return
	}
	w.walk(id, tail)
}

func (w *walker) walk(id ast.ExprID, tail bool) {
	expr := w.ex.Get(id)
	if expr == nil {
		return
	}
	w.res.Tail[id] = tail

	switch expr.Kind {
	case ast.ExprInt, ast.ExprStr, ast.ExprBool:

	case ast.ExprVar:
		if sym, ok := w.resolveVar(id); ok {
			if s := w.table.Symbols.Get(sym); s.Func.IsValid() {
				w.table.Funcs.Get(s.Func).Escapes = true
			}
		}

	case ast.ExprLet:
		w.walkLet(id, tail)

	case ast.ExprIf:
		data, _ := w.ex.If(id)
		w.walkNested(data.Cond, false)
		w.walkBranch(data.Then, tail)
		w.walkBranch(data.Else, tail)

	case ast.ExprFunction:
		data, _ := w.ex.Function(id)
		fid := w.newFunc(id, "")
		w.table.Funcs.Get(fid).Escapes = true
		w.walkFunction(fid, data.Params)

	case ast.ExprCall:
		w.walkCall(id)

	default:
		for _, child := range w.ex.Children(id) {
			w.walkNested(child, false)
		}
	}
}

func (w *walker) walkBranch(id ast.ExprID, tail bool) {
	w.r.Push(ScopeBranch, id, w.currentFunc(), w.ex.Get(id).Span)
	w.walk(id, tail)
	w.r.Pop()
}

func (w *walker) walkLet(id ast.ExprID, tail bool) {
	data, _ := w.ex.Let(id)
	name, nameSpan, value, next := data.Name, data.NameSpan, data.Value, data.Next
	discard := name == "_"

	if fnData, isFn := w.ex.Function(value); isFn && !discard {
		// the binding is visible inside the function body
		fid := w.newFunc(value, name)
		sym, _ := w.r.Declare(Symbol{
			Name: name, Kind: SymbolLet, Span: nameSpan, Decl: id,
			Owner: w.currentFunc(), Func: fid,
		})
		w.res.Binds[id] = sym
		w.table.Funcs.Get(fid).Self = sym
		w.res.Tail[value] = false
		w.walkFunction(fid, fnData.Params)
	} else {
		w.walkNested(value, false)
		if !discard {
			w.res.Binds[id], _ = w.r.Declare(Symbol{
				Name: name, Kind: SymbolLet, Span: nameSpan, Decl: id,
				Owner: w.currentFunc(),
			})
		}
	}
	w.walk(next, tail)
}

func (w *walker) walkCall(id ast.ExprID) {
	data, _ := w.ex.Call(id)
	callee, args := data.Callee, data.Args

	if _, isVar := w.ex.Var(callee); isVar {
		// calling a let-bound function by name does not make it escape
		w.res.Tail[callee] = false
		if sym, ok := w.resolveVar(callee); ok {
			if s := w.table.Symbols.Get(sym); s.Func.IsValid() {
				w.linkDirect(id, s, len(args))
			}
		}
	} else {
		w.walkNested(callee, false)
	}
	for _, arg := range args {
		w.walkNested(arg, false)
	}
}

func (w *walker) linkDirect(call ast.ExprID, s *Symbol, argc int) {
	target := w.table.Funcs.Get(s.Func)
	if target.Arity() != argc {
		diag.ReportError(w, diag.SemaArityMismatch, w.ex.Get(call).Span,
			fmt.Sprintf("function '%s' expects %d arguments, but got %d", s.Name, target.Arity(), argc)).
			WithNote(target.Span, "'"+s.Name+"' is defined here").
			Emit()
		return
	}
	w.res.Direct[call] = s.Func
	target.CallSites = append(target.CallSites, call)
}

// resolveVar binds a Var expression and records captures along the way.
func (w *walker) resolveVar(id ast.ExprID) (SymbolID, bool) {
	data, _ := w.ex.Var(id)
	sym, ok := w.r.Lookup(data.Name)
	if !ok {
		w.reportUnresolved(id, data.Name)
		return NoSymbolID, false
	}
	w.res.Uses[id] = sym
	w.noteCapture(sym)
	return sym, true
}

// noteCapture adds sym to the captures of every function between the use
// and the function owning sym.
func (w *walker) noteCapture(sym SymbolID) {
	s := w.table.Symbols.Get(sym)
	for i := len(w.funcStack) - 1; i >= 0; i-- {
		fid := w.funcStack[i]
		if fid == s.Owner {
			return
		}
		fn := w.table.Funcs.Get(fid)
		if fn.Self == sym {
			continue
		}
		if _, seen := fn.CaptureIndex(sym); !seen {
			fn.Captures = append(fn.Captures, sym)
		}
	}
}

func (w *walker) reportUnresolved(id ast.ExprID, name string) {
	b := diag.ReportError(w, diag.SemaUnresolvedSymbol, w.ex.Get(id).Span, "unknown identifier '"+name+"'")
	if best := closestName(name, w.r.Visible()); best != "" {
		b.WithNote(w.ex.Get(id).Span, "did you mean '"+best+"'?")
	}
	b.Emit()
}
