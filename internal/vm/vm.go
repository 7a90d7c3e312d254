package vm

import (
	"fmt"

	"coral/internal/mir"
	"coral/internal/runtime"
	"coral/internal/source"
	"coral/internal/trace"
)

// DefaultMaxFrames bounds the call stack.
const DefaultMaxFrames = 100_000

// Options configures VM execution.
type Options struct {
	MaxFrames int
	// LeakCheck fails the run when heap objects outlive the program.
	LeakCheck bool
	Tracer    trace.Tracer
	// ParentSpan links VM trace events to the caller's span.
	ParentSpan uint64
}

// Stats summarises one run.
type Stats struct {
	Steps     uint64
	Calls     uint64
	TailCalls uint64
	// PeakFrames is the deepest the call stack got.
	PeakFrames int
	// PeakScopeEntries is the largest number of tracked values across all
	// live frames at any point.
	PeakScopeEntries int
	Heap             runtime.Stats
}

// VM is a direct MIR interpreter.
type VM struct {
	M     *mir.Module
	RT    *runtime.Runtime
	Files *source.FileSet
	Stack []Frame

	opts    Options
	stats   Stats
	entries int // tracked values across live frames
	started bool
	Halted  bool

	eb *errorBuilder // for creating errors with backtrace
}

// New creates a new VM for executing the given MIR module.
func New(m *mir.Module, rt *runtime.Runtime, files *source.FileSet, opts Options) *VM {
	if rt == nil {
		rt = runtime.New(nil)
	}
	if opts.MaxFrames <= 0 {
		opts.MaxFrames = DefaultMaxFrames
	}
	if opts.Tracer == nil {
		opts.Tracer = trace.Nop
	}
	vm := &VM{
		M:     m,
		RT:    rt,
		Files: files,
		opts:  opts,
	}
	vm.eb = &errorBuilder{vm: vm}
	if opts.Tracer.Enabled() && opts.Tracer.Level().ShouldEmit(trace.ScopeNode) {
		rt.SetObserver(&heapTracer{vm: vm})
	}
	return vm
}

// Stats returns the counters collected so far.
func (vm *VM) Stats() Stats {
	s := vm.stats
	s.Heap = vm.RT.Stats()
	return s
}

// Run executes main to completion.
// Returns a VMError if execution fails, nil on successful completion.
func (vm *VM) Run() (vmErr *VMError) {
	defer vm.traceExit()
	if vmErr := vm.Start(); vmErr != nil {
		return vmErr
	}
	for !vm.Halted && len(vm.Stack) > 0 {
		if stepErr := vm.Step(); stepErr != nil {
			return stepErr
		}
	}
	if vm.opts.LeakCheck {
		return vm.guard(vm.RT.CheckLeaks)
	}
	return nil
}

// Start pushes the main frame.
func (vm *VM) Start() *VMError {
	if vm.started {
		return nil
	}
	vm.started = true
	main := vm.M.Func(vm.M.Main)
	if main == nil {
		vm.Halted = true
		return vm.eb.unimplemented("module has no main function")
	}
	vm.push(NewFrame(main))
	return nil
}

// Step executes exactly one instruction or terminator transition.
// It returns a VMError if execution fails.
func (vm *VM) Step() (vmErr *VMError) {
	if vm.Halted || len(vm.Stack) == 0 {
		return nil
	}
	return vm.guard(vm.step)
}

// guard converts runtime failures raised by fn into a VMError.
func (vm *VM) guard(fn func()) (vmErr *VMError) {
	defer func() {
		if r := recover(); r != nil {
			switch e := r.(type) {
			case *runtime.Fatal:
				vmErr = vm.eb.fatal(e)
			case *VMError:
				vmErr = e
			default:
				panic(r)
			}
			vm.Halted = true
		}
	}()
	fn()
	return nil
}

func (vm *VM) step() {
	vm.stats.Steps++
	frame := &vm.Stack[len(vm.Stack)-1]
	block := frame.CurrentBlock()
	if block == nil {
		panic(vm.eb.unimplemented(fmt.Sprintf("invalid block id: %d", frame.BB)))
	}
	if frame.AtTerminator() {
		frame.Span = block.Term.Span
		vm.execTerminator(frame, &block.Term)
		return
	}
	instr := frame.CurrentInstr()
	frame.Span = instr.Span
	frame.IP++
	vm.execInstr(frame, instr)
}

func (vm *VM) push(f *Frame) {
	if len(vm.Stack) >= vm.opts.MaxFrames {
		runtime.Fatalf(runtime.FatalStackOverflow, "maximum call depth %d exceeded", vm.opts.MaxFrames)
	}
	vm.Stack = append(vm.Stack, *f)
	vm.stats.PeakFrames = max(vm.stats.PeakFrames, len(vm.Stack))
}

// scopeOp runs fn on the frame scope and keeps the live entry count.
func (vm *VM) scopeOp(frame *Frame, fn func(s *runtime.Scope)) {
	if frame.Scope == nil {
		runtime.Fatalf(runtime.FatalScope, "scope operation before the scope was opened in %s", frame.Func.Name)
	}
	before := frame.Scope.Len()
	fn(frame.Scope)
	vm.entries += frame.Scope.Len() - before
	vm.stats.PeakScopeEntries = max(vm.stats.PeakScopeEntries, vm.entries)
}
