package mir

import (
	"fmt"
	"strconv"

	"fortio.org/safecast"

	"coral/internal/source"
)

// FuncState tracks where a function is in its construction. Every exit
// closes the scope, so a function alternates between Emitting and
// ClosingScope once per path.
type FuncState uint8

const (
	// StateInferring: the signature is still being assembled.
	StateInferring FuncState = iota
	// StateScopeOpen: the entry scope is open, nothing emitted yet.
	StateScopeOpen
	StateEmitting
	// StateClosingScope: the current path released its scope and ended.
	StateClosingScope
	StateDone
)

func (s FuncState) String() string {
	switch s {
	case StateInferring:
		return "inferring"
	case StateScopeOpen:
		return "scope-open"
	case StateEmitting:
		return "emitting"
	case StateClosingScope:
		return "closing-scope"
	case StateDone:
		return "done"
	default:
		return "?"
	}
}

// Builder assembles a module. Functions are declared up front so that
// closures and calls can name functions whose bodies come later.
type Builder struct {
	mod   *Module
	names map[string]int
}

func NewBuilder(sourceName string) *Builder {
	return &Builder{
		mod:   &Module{Main: NoFuncID, Source: sourceName},
		names: make(map[string]int),
	}
}

// DeclareFunc reserves a function. Names are made unique within the module.
func (b *Builder) DeclareFunc(name string, arity, captures int, span source.Span) *FuncBuilder {
	if n := b.names[name]; n > 0 {
		b.names[name] = n + 1
		name = name + "." + strconv.Itoa(n)
	} else {
		b.names[name] = 1
	}
	f := &Func{
		ID:       mustID[FuncID](len(b.mod.Funcs)),
		Name:     name,
		Span:     span,
		Env:      NoLocalID,
		Arity:    arity,
		Captures: captures,
		Entry:    NoBlockID,
		Dyn:      NoFuncID,
		Impl:     NoFuncID,
	}
	b.mod.Funcs = append(b.mod.Funcs, f)
	return &FuncBuilder{f: f, cur: NoBlockID}
}

// SetMain marks the program entry.
func (b *Builder) SetMain(id FuncID) { b.mod.Main = id }

func (b *Builder) Module() *Module { return b.mod }

// FuncBuilder emits the body of one function. Misuse of the state machine
// is a compiler bug and panics.
type FuncBuilder struct {
	f     *Func
	state FuncState
	cur   BlockID
}

func (fb *FuncBuilder) Func() *Func      { return fb.f }
func (fb *FuncBuilder) ID() FuncID       { return fb.f.ID }
func (fb *FuncBuilder) State() FuncState { return fb.state }

func (fb *FuncBuilder) expect(op string, states ...FuncState) {
	for _, s := range states {
		if fb.state == s {
			return
		}
	}
	panic(fmt.Sprintf("mir: %s on %s in state %s", op, fb.f.Name, fb.state))
}

// SetEnv adds the closure parameter.
func (fb *FuncBuilder) SetEnv() LocalID {
	fb.expect("SetEnv", StateInferring)
	fb.f.Env = fb.NewLocal("env", ReprValue)
	return fb.f.Env
}

func (fb *FuncBuilder) AddParam(name string, r Repr) LocalID {
	fb.expect("AddParam", StateInferring)
	id := fb.NewLocal(name, r)
	fb.f.Params = append(fb.f.Params, id)
	return id
}

func (fb *FuncBuilder) SetResults(rs []Repr) {
	fb.expect("SetResults", StateInferring)
	fb.f.Results = append([]Repr(nil), rs...)
}

func (fb *FuncBuilder) SetDyn(id FuncID)  { fb.f.Dyn = id }
func (fb *FuncBuilder) SetImpl(id FuncID) { fb.f.Impl = id }

// OpenScope creates the entry block, opens the frame scope and tracks the
// boxed parameters, which the callee owns.
func (fb *FuncBuilder) OpenScope() {
	fb.expect("OpenScope", StateInferring)
	fb.f.Entry = fb.NewBlock()
	fb.cur = fb.f.Entry
	fb.state = StateScopeOpen
	fb.push(Instr{Kind: InstrOpenScope, Span: fb.f.Span})
	for _, p := range fb.f.Params {
		if fb.f.Locals[p].Repr == ReprValue {
			fb.push(Instr{Kind: InstrTrack, Span: fb.f.Span, Scope: ScopeInstr{Value: LocalOperand(p)}})
		}
	}
}

func (fb *FuncBuilder) NewLocal(name string, r Repr) LocalID {
	id := mustID[LocalID](len(fb.f.Locals))
	fb.f.Locals = append(fb.f.Locals, Local{Name: name, Repr: r})
	return id
}

func (fb *FuncBuilder) NewBlock() BlockID {
	id := mustID[BlockID](len(fb.f.Blocks))
	fb.f.Blocks = append(fb.f.Blocks, Block{ID: id})
	return id
}

// SetBlock continues emission in an unterminated block.
func (fb *FuncBuilder) SetBlock(id BlockID) {
	fb.expect("SetBlock", StateScopeOpen, StateEmitting, StateClosingScope)
	if fb.f.Blocks[id].Terminated() {
		panic(fmt.Sprintf("mir: block bb%d of %s is already terminated", id, fb.f.Name))
	}
	fb.cur = id
	if fb.state == StateClosingScope {
		fb.state = StateEmitting
	}
}

func (fb *FuncBuilder) Current() BlockID { return fb.cur }

func (fb *FuncBuilder) push(in Instr) {
	bb := &fb.f.Blocks[fb.cur]
	bb.Instrs = append(bb.Instrs, in)
}

func (fb *FuncBuilder) emit(op string, in Instr) {
	fb.expect(op, StateScopeOpen, StateEmitting)
	fb.state = StateEmitting
	fb.push(in)
}

func (fb *FuncBuilder) terminate(term Terminator) {
	bb := &fb.f.Blocks[fb.cur]
	if bb.Terminated() {
		panic(fmt.Sprintf("mir: block bb%d of %s terminated twice", fb.cur, fb.f.Name))
	}
	bb.Term = term
}

// Track registers a possibly heap-allocated value with the frame scope.
func (fb *FuncBuilder) Track(v Operand, span source.Span) {
	if v.Kind != OperandLocal || v.Repr(fb.f) != ReprValue {
		return
	}
	fb.emit("Track", Instr{Kind: InstrTrack, Span: span, Scope: ScopeInstr{Value: v}})
}

func (fb *FuncBuilder) incref(v Operand, span source.Span) {
	if v.Kind != OperandLocal || v.Repr(fb.f) != ReprValue {
		return
	}
	fb.emit("Incref", Instr{Kind: InstrIncref, Span: span, Scope: ScopeInstr{Value: v}})
}

func (fb *FuncBuilder) promote(v Operand, span source.Span) {
	if v.Kind != OperandLocal || v.Repr(fb.f) != ReprValue {
		return
	}
	fb.emit("Promote", Instr{Kind: InstrPromote, Span: span, Scope: ScopeInstr{Value: v}})
}

func (fb *FuncBuilder) EmitAssign(dst LocalID, src Operand, span source.Span) {
	fb.emit("EmitAssign", Instr{Kind: InstrAssign, Span: span, Assign: AssignInstr{Dst: dst, Src: src}})
}

// EmitNative computes op on native operands into a fresh local.
func (fb *FuncBuilder) EmitNative(op NativeOp, args []Operand, span source.Span) Operand {
	dst := fb.NewLocal("", op.Result())
	fb.emit("EmitNative", Instr{Kind: InstrNative, Span: span, Native: NativeInstr{Dst: dst, Op: op, Args: args}})
	return LocalOperand(dst)
}

// EmitRuntime calls a runtime operation. Owned results are tracked.
func (fb *FuncBuilder) EmitRuntime(op RuntimeOp, args []Operand, span source.Span) Operand {
	return fb.runtime(RuntimeInstr{Op: op, Args: args, Func: NoFuncID, Entry: NoFuncID}, span)
}

// EmitString allocates a string literal.
func (fb *FuncBuilder) EmitString(s string, span source.Span) Operand {
	return fb.runtime(RuntimeInstr{Op: RtNewString, Str: s, Func: NoFuncID, Entry: NoFuncID}, span)
}

// EmitClosure allocates a function value for fn capturing the given boxed
// values. entry is the dynamic entry, or NoFuncID when fn never escapes.
func (fb *FuncBuilder) EmitClosure(fn, entry FuncID, arity int, captures []Operand, span source.Span) Operand {
	return fb.runtime(RuntimeInstr{
		Op:    RtNewFunction,
		Args:  captures,
		Func:  fn,
		Entry: entry,
		Arity: arity,
	}, span)
}

func (fb *FuncBuilder) runtime(ri RuntimeInstr, span source.Span) Operand {
	ri.Dst = NoLocalID
	if ri.Op.HasResult() {
		ri.Dst = fb.NewLocal("", ri.Op.Result())
	}
	fb.emit("EmitRuntime", Instr{Kind: InstrRuntime, Span: span, Runtime: ri})
	if !ri.Dst.IsValid() {
		return Operand{Kind: OperandLocal, Local: NoLocalID}
	}
	out := LocalOperand(ri.Dst)
	if ri.Op.Owned() {
		fb.Track(out, span)
	}
	return out
}

// EmitCapture borrows a captured value from the closure environment.
func (fb *FuncBuilder) EmitCapture(index int, span source.Span) Operand {
	dst := fb.NewLocal("", ReprValue)
	fb.emit("EmitCapture", Instr{Kind: InstrLoadCapture, Span: span, Capture: CaptureInstr{Dst: dst, Index: index}})
	return LocalOperand(dst)
}

// EmitCall performs a non-tail call. The callee consumes its boxed
// arguments (and the function value of a dynamic call), so each gets an
// extra reference; boxed results are tracked.
func (fb *FuncBuilder) EmitCall(callee Callee, args []Operand, results []Repr, span source.Span) []Operand {
	fb.expect("EmitCall", StateScopeOpen, StateEmitting)
	if callee.Kind == CalleeDynamic {
		fb.incref(callee.Value, span)
	}
	for _, a := range args {
		fb.incref(a, span)
	}
	dsts := make([]LocalID, len(results))
	out := make([]Operand, len(results))
	for i, r := range results {
		dsts[i] = fb.NewLocal("", r)
		out[i] = LocalOperand(dsts[i])
	}
	fb.emit("EmitCall", Instr{Kind: InstrCall, Span: span, Call: CallInstr{Dsts: dsts, Callee: callee, Args: args}})
	for _, o := range out {
		fb.Track(o, span)
	}
	return out
}

// EmitTailCall ends the current path with a tail call: arguments are
// promoted out of the scope, the scope is released, then control transfers.
func (fb *FuncBuilder) EmitTailCall(callee Callee, args []Operand, span source.Span) {
	fb.expect("EmitTailCall", StateScopeOpen, StateEmitting)
	if callee.Kind == CalleeDynamic {
		fb.promote(callee.Value, span)
	}
	for _, a := range args {
		fb.promote(a, span)
	}
	fb.release(span)
	fb.terminate(Terminator{Kind: TermTailCall, Span: span, TailCall: CallInstr{Callee: callee, Args: args}})
}

// EmitReturn promotes the returned values, releases the scope and returns.
func (fb *FuncBuilder) EmitReturn(values []Operand, span source.Span) {
	fb.expect("EmitReturn", StateScopeOpen, StateEmitting)
	for _, v := range values {
		fb.promote(v, span)
	}
	fb.release(span)
	fb.terminate(Terminator{Kind: TermReturn, Span: span, Return: ReturnTerm{Values: values}})
}

func (fb *FuncBuilder) release(span source.Span) {
	fb.emit("ReleaseScope", Instr{Kind: InstrReleaseScope, Span: span})
	fb.state = StateClosingScope
}

func (fb *FuncBuilder) EmitBranch(cond Operand, then, els BlockID, span source.Span) {
	fb.expect("EmitBranch", StateScopeOpen, StateEmitting)
	fb.terminate(Terminator{Kind: TermIf, Span: span, If: IfTerm{Cond: cond, Then: then, Else: els}})
}

func (fb *FuncBuilder) EmitGoto(target BlockID, span source.Span) {
	fb.expect("EmitGoto", StateScopeOpen, StateEmitting)
	fb.terminate(Terminator{Kind: TermGoto, Span: span, Goto: GotoTerm{Target: target}})
}

// Finish checks every block is terminated and sizes the scope by the
// number of track sites.
func (fb *FuncBuilder) Finish() *Func {
	fb.expect("Finish", StateClosingScope)
	tracks := 0
	for i := range fb.f.Blocks {
		bb := &fb.f.Blocks[i]
		if !bb.Terminated() {
			panic(fmt.Sprintf("mir: block bb%d of %s has no terminator", i, fb.f.Name))
		}
		for j := range bb.Instrs {
			if bb.Instrs[j].Kind == InstrTrack {
				tracks++
			}
		}
	}
	fb.f.ScopeCap = tracks
	open := &fb.f.Blocks[fb.f.Entry].Instrs[0]
	open.Scope.Capacity = tracks
	fb.state = StateDone
	return fb.f
}

func mustID[T FuncID | BlockID | LocalID](n int) T {
	id, err := safecast.Conv[T](n)
	if err != nil {
		panic(fmt.Sprintf("mir: id overflow: %v", err))
	}
	return id
}
