package vm

import (
	"fmt"

	"coral/internal/mir"
	"coral/internal/runtime"
)

// execTerminator executes a block terminator.
func (vm *VM) execTerminator(frame *Frame, term *mir.Terminator) {
	switch term.Kind {
	case mir.TermReturn:
		vm.execReturn(frame, &term.Return)
	case mir.TermGoto:
		frame.jump(term.Goto.Target)
	case mir.TermIf:
		cond := vm.eval(frame, term.If.Cond)
		if cond.Tag != runtime.TagBool {
			runtime.Fatalf(runtime.FatalType, "%s", runtime.ExpectedMessage("bool", cond.TypeName()))
		}
		if cond.Bool() {
			frame.jump(term.If.Then)
		} else {
			frame.jump(term.If.Else)
		}
	case mir.TermTailCall:
		vm.execTailCall(frame, &term.TailCall)
	case mir.TermUnreachable:
		panic(vm.eb.unimplemented("reached unreachable block in " + frame.Func.Name))
	default:
		panic(vm.eb.unimplemented(fmt.Sprintf("terminator kind %d", term.Kind)))
	}
}

// execReturn pops the frame and hands the results to the caller. The
// scope was released before the terminator, so only the owner remains.
func (vm *VM) execReturn(frame *Frame, ret *mir.ReturnTerm) {
	if frame.Scope != nil && !frame.Scope.Released() {
		runtime.Fatalf(runtime.FatalScope, "%s returns with its scope open", frame.Func.Name)
	}
	results := vm.evalAll(frame, ret.Values)
	owner, dsts := frame.Owner, frame.Ret

	vm.Stack = vm.Stack[:len(vm.Stack)-1]
	vm.RT.Decref(owner)
	if len(vm.Stack) == 0 {
		vm.Halted = true
		return
	}
	if len(dsts) != len(results) {
		panic(vm.eb.unimplemented(fmt.Sprintf("return of %d values into %d locals", len(results), len(dsts))))
	}
	caller := &vm.Stack[len(vm.Stack)-1]
	for i, dst := range dsts {
		caller.Locals[dst] = results[i]
	}
}

// execTailCall replaces the current activation. A direct tail call keeps
// the owner of the environment it borrows; a dynamic one takes ownership
// of the called function value and drops the previous owner.
func (vm *VM) execTailCall(frame *Frame, call *mir.CallInstr) {
	next := vm.enter(frame, call)
	next.Ret = frame.Ret
	prevOwner := frame.Owner
	if call.Callee.Kind == mir.CalleeDirect {
		next.Owner = prevOwner
	}
	vm.stats.TailCalls++
	vm.traceCall("tailcall", frame.Func, next.Func)

	vm.Stack[len(vm.Stack)-1] = *next
	if call.Callee.Kind == mir.CalleeDynamic {
		vm.RT.Decref(prevOwner)
	}
}
