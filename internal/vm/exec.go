package vm

import (
	"fmt"

	"coral/internal/mir"
	"coral/internal/runtime"
)

// execInstr executes a single instruction.
func (vm *VM) execInstr(frame *Frame, instr *mir.Instr) {
	switch instr.Kind {
	case mir.InstrNop:
	case mir.InstrAssign:
		frame.Locals[instr.Assign.Dst] = vm.eval(frame, instr.Assign.Src)
	case mir.InstrNative:
		vm.execNative(frame, &instr.Native)
	case mir.InstrRuntime:
		vm.execRuntime(frame, &instr.Runtime)
	case mir.InstrCall:
		vm.execCall(frame, &instr.Call)
	case mir.InstrLoadCapture:
		env := vm.env(frame)
		frame.Locals[instr.Capture.Dst] = vm.RT.Capture(env, instr.Capture.Index)
	case mir.InstrIncref:
		vm.RT.Incref(vm.eval(frame, instr.Scope.Value))
	case mir.InstrOpenScope:
		if frame.Scope != nil {
			runtime.Fatalf(runtime.FatalScope, "scope of %s opened twice", frame.Func.Name)
		}
		frame.Scope = vm.RT.OpenScope(instr.Scope.Capacity)
	case mir.InstrTrack:
		v := vm.eval(frame, instr.Scope.Value)
		vm.scopeOp(frame, func(s *runtime.Scope) { s.Track(v) })
	case mir.InstrPromote:
		v := vm.eval(frame, instr.Scope.Value)
		vm.scopeOp(frame, func(s *runtime.Scope) { s.Promote(v) })
	case mir.InstrReleaseScope:
		vm.scopeOp(frame, (*runtime.Scope).ReleaseAll)
	default:
		panic(vm.eb.unimplemented(fmt.Sprintf("instruction kind %d", instr.Kind)))
	}
}

// eval reads an operand. Constants become inline values.
func (vm *VM) eval(frame *Frame, op mir.Operand) runtime.Value {
	if op.Kind == mir.OperandConst {
		if op.Const.Repr == mir.ReprBool {
			return runtime.BoolValue(op.Const.Bool)
		}
		return runtime.IntValue(op.Const.Int)
	}
	if !op.Local.IsValid() || int(op.Local) >= len(frame.Locals) {
		panic(vm.eb.unimplemented(fmt.Sprintf("invalid local %d in %s", op.Local, frame.Func.Name)))
	}
	return frame.Locals[op.Local]
}

func (vm *VM) evalAll(frame *Frame, ops []mir.Operand) []runtime.Value {
	out := make([]runtime.Value, len(ops))
	for i, op := range ops {
		out[i] = vm.eval(frame, op)
	}
	return out
}

func (vm *VM) env(frame *Frame) runtime.Value {
	if !frame.Func.Env.IsValid() {
		panic(vm.eb.unimplemented(frame.Func.Name + " has no closure environment"))
	}
	return frame.Locals[frame.Func.Env]
}

func (vm *VM) execNative(frame *Frame, in *mir.NativeInstr) {
	a, b := vm.eval(frame, in.Args[0]), vm.eval(frame, in.Args[1])
	var out runtime.Value
	switch in.Op {
	case mir.NativeAdd:
		out = runtime.IntValue(a.N + b.N)
	case mir.NativeSub:
		out = runtime.IntValue(a.N - b.N)
	case mir.NativeMul:
		out = runtime.IntValue(a.N * b.N)
	case mir.NativeDiv:
		out = runtime.IntValue(runtime.DivInt(a.N, b.N))
	case mir.NativeRem:
		out = runtime.IntValue(runtime.RemInt(a.N, b.N))
	case mir.NativeLt:
		out = runtime.BoolValue(a.N < b.N)
	case mir.NativeLe:
		out = runtime.BoolValue(a.N <= b.N)
	case mir.NativeGt:
		out = runtime.BoolValue(a.N > b.N)
	case mir.NativeGe:
		out = runtime.BoolValue(a.N >= b.N)
	case mir.NativeEqInt, mir.NativeEqBool:
		out = runtime.BoolValue(a.N == b.N)
	case mir.NativeNeInt, mir.NativeNeBool:
		out = runtime.BoolValue(a.N != b.N)
	case mir.NativeAnd:
		out = runtime.BoolValue(a.Bool() && b.Bool())
	case mir.NativeOr:
		out = runtime.BoolValue(a.Bool() || b.Bool())
	default:
		panic(vm.eb.unimplemented(fmt.Sprintf("native op %s", in.Op)))
	}
	frame.Locals[in.Dst] = out
}

func (vm *VM) execRuntime(frame *Frame, in *mir.RuntimeInstr) {
	rt := vm.RT
	args := vm.evalAll(frame, in.Args)
	var out runtime.Value
	switch in.Op {
	case mir.RtNewString:
		out = rt.NewString(in.Str, false)
	case mir.RtBoxInt, mir.RtBoxBool:
		out = args[0]
	case mir.RtUnboxInt:
		out = runtime.IntValue(rt.UnboxInt(args[0]))
	case mir.RtUnboxBool:
		out = runtime.BoolValue(rt.UnboxBool(args[0]))
	case mir.RtNewPair:
		out = rt.NewPair(args[0], args[1])
	case mir.RtNewFunction:
		out = rt.NewFunction(in.Arity, int32(in.Entry), args)
	case mir.RtAdd:
		out = rt.Add(args[0], args[1])
	case mir.RtSub:
		out = rt.Sub(args[0], args[1])
	case mir.RtMul:
		out = rt.Mul(args[0], args[1])
	case mir.RtDiv:
		out = rt.Div(args[0], args[1])
	case mir.RtRem:
		out = rt.Mod(args[0], args[1])
	case mir.RtLt:
		out = rt.Lt(args[0], args[1])
	case mir.RtLe:
		out = rt.Le(args[0], args[1])
	case mir.RtGt:
		out = rt.Gt(args[0], args[1])
	case mir.RtGe:
		out = rt.Ge(args[0], args[1])
	case mir.RtEq:
		out = rt.Eq(args[0], args[1])
	case mir.RtNe:
		out = rt.Ne(args[0], args[1])
	case mir.RtAnd:
		out = rt.And(args[0], args[1])
	case mir.RtOr:
		out = rt.Or(args[0], args[1])
	case mir.RtFirst:
		out = rt.First(args[0])
	case mir.RtSecond:
		out = rt.Second(args[0])
	case mir.RtPrint:
		rt.Print(args[0])
		return
	default:
		panic(vm.eb.unimplemented(fmt.Sprintf("runtime op %s", in.Op)))
	}
	frame.Locals[in.Dst] = out
}

// execCall pushes the callee frame. The caller resumes after the call
// instruction once the callee returns into call.Dsts.
func (vm *VM) execCall(frame *Frame, call *mir.CallInstr) {
	callee := vm.enter(frame, call)
	callee.Ret = call.Dsts
	vm.stats.Calls++
	vm.traceCall("call", frame.Func, callee.Func)
	vm.push(callee)
}

// enter builds the activation for call with its arguments bound. A
// dynamic callee owns the function value it was called through.
func (vm *VM) enter(frame *Frame, call *mir.CallInstr) *Frame {
	args := vm.evalAll(frame, call.Args)
	var (
		target *mir.Func
		env    runtime.Value
		owner  runtime.Value
	)
	switch call.Callee.Kind {
	case mir.CalleeDirect:
		target = vm.M.Func(call.Callee.Func)
		if target == nil {
			panic(vm.eb.unimplemented(fmt.Sprintf("call to unknown function %d", call.Callee.Func)))
		}
		if target.Env.IsValid() {
			env = vm.eval(frame, call.Callee.Env)
		}
	case mir.CalleeDynamic:
		env = vm.eval(frame, call.Callee.Value)
		obj := vm.RT.CheckCall(env, len(args))
		target = vm.M.Func(mir.FuncID(obj.Entry))
		if target == nil || !target.IsDynEntry() {
			panic(vm.eb.unimplemented(fmt.Sprintf("function value without a dynamic entry (entry %d)", obj.Entry)))
		}
		owner = env
	}
	if len(args) != len(target.Params) {
		panic(vm.eb.unimplemented(fmt.Sprintf("%s takes %d locals, got %d", target.Name, len(target.Params), len(args))))
	}

	callee := NewFrame(target)
	if target.Env.IsValid() {
		callee.Locals[target.Env] = env
	}
	for i, p := range target.Params {
		callee.Locals[p] = args[i]
	}
	callee.Owner = owner
	return callee
}
