package llvm

import (
	"fmt"
	"strings"

	"coral/internal/mir"
)

func (fe *funcEmitter) emitInstr(ins *mir.Instr) error {
	switch ins.Kind {
	case mir.InstrNop:
		return nil
	case mir.InstrAssign:
		val, _, err := fe.emitOperand(ins.Assign.Src)
		if err != nil {
			return err
		}
		fe.store(ins.Assign.Dst, val)
		return nil
	case mir.InstrNative:
		return fe.emitNative(&ins.Native)
	case mir.InstrRuntime:
		return fe.emitRuntime(&ins.Runtime)
	case mir.InstrCall:
		return fe.emitCall(&ins.Call)
	case mir.InstrLoadCapture:
		env, err := fe.env()
		if err != nil {
			return err
		}
		tmp := fe.nextTemp()
		fe.printf("  %s = call ptr @coral_capture(ptr %s, i64 %d)\n", tmp, env, ins.Capture.Index)
		fe.store(ins.Capture.Dst, tmp)
		return nil
	case mir.InstrIncref:
		val, _, err := fe.emitOperand(ins.Scope.Value)
		if err != nil {
			return err
		}
		fe.printf("  call void @coral_incref(ptr %s)\n", val)
		return nil
	case mir.InstrOpenScope:
		fe.printf("  %%scope = call ptr @coral_scope_open(i64 %d)\n", ins.Scope.Capacity)
		return nil
	case mir.InstrTrack, mir.InstrPromote:
		val, _, err := fe.emitOperand(ins.Scope.Value)
		if err != nil {
			return err
		}
		fn := "coral_scope_track"
		if ins.Kind == mir.InstrPromote {
			fn = "coral_scope_promote"
		}
		fe.printf("  call void @%s(ptr %%scope, ptr %s)\n", fn, val)
		return nil
	case mir.InstrReleaseScope:
		fe.printf("  call void @coral_scope_release(ptr %%scope)\n")
		return nil
	}
	return fmt.Errorf("unsupported instruction kind %d", ins.Kind)
}

func (fe *funcEmitter) env() (string, error) {
	if !fe.f.Env.IsValid() {
		return "", fmt.Errorf("%s has no closure environment", fe.f.Name)
	}
	val, _, err := fe.emitOperand(mir.LocalOperand(fe.f.Env))
	return val, err
}

var nativeInstrs = map[mir.NativeOp]string{
	mir.NativeAdd:    "add i64",
	mir.NativeSub:    "sub i64",
	mir.NativeMul:    "mul i64",
	mir.NativeLt:     "icmp slt i64",
	mir.NativeLe:     "icmp sle i64",
	mir.NativeGt:     "icmp sgt i64",
	mir.NativeGe:     "icmp sge i64",
	mir.NativeEqInt:  "icmp eq i64",
	mir.NativeNeInt:  "icmp ne i64",
	mir.NativeEqBool: "icmp eq i1",
	mir.NativeNeBool: "icmp ne i1",
	mir.NativeAnd:    "and i1",
	mir.NativeOr:     "or i1",
}

func (fe *funcEmitter) emitNative(in *mir.NativeInstr) error {
	a, _, err := fe.emitOperand(in.Args[0])
	if err != nil {
		return err
	}
	b, _, err := fe.emitOperand(in.Args[1])
	if err != nil {
		return err
	}
	tmp := fe.nextTemp()
	switch in.Op {
	case mir.NativeDiv:
		fe.printf("  %s = call i64 @coral_div_int(i64 %s, i64 %s)\n", tmp, a, b)
	case mir.NativeRem:
		fe.printf("  %s = call i64 @coral_rem_int(i64 %s, i64 %s)\n", tmp, a, b)
	default:
		instr, ok := nativeInstrs[in.Op]
		if !ok {
			return fmt.Errorf("unsupported native op %s", in.Op)
		}
		fe.printf("  %s = %s %s, %s\n", tmp, instr, a, b)
	}
	fe.store(in.Dst, tmp)
	return nil
}

func (fe *funcEmitter) emitRuntime(in *mir.RuntimeInstr) error {
	var args []string
	switch in.Op {
	case mir.RtNewString:
		c := fe.emitter.ensureStringConst(in.Str)
		args = []string{"ptr @" + c.globalName, fmt.Sprintf("i64 %d", len(c.bytes)-1)}
	case mir.RtNewFunction:
		return fe.emitClosure(in)
	default:
		var err error
		if args, err = fe.emitArgs(in.Args); err != nil {
			return err
		}
	}
	sig := fe.emitter.runtimeSigs[in.Op.Symbol()]
	if sig.ret == "void" {
		fe.printf("  call void @%s(%s)\n", in.Op.Symbol(), strings.Join(args, ", "))
		return nil
	}
	tmp := fe.nextTemp()
	fe.printf("  %s = call %s @%s(%s)\n", tmp, sig.ret, in.Op.Symbol(), strings.Join(args, ", "))
	if in.Dst.IsValid() {
		fe.store(in.Dst, tmp)
	}
	return nil
}

// emitClosure allocates the function object, then stores each capture.
func (fe *funcEmitter) emitClosure(in *mir.RuntimeInstr) error {
	entry := "null"
	if in.Entry.IsValid() {
		name, ok := fe.emitter.funcNames[in.Entry]
		if !ok {
			return fmt.Errorf("unknown dynamic entry %d", in.Entry)
		}
		entry = name
	}
	fn := fe.nextTemp()
	fe.printf("  %s = call ptr @%s(i64 %d, ptr %s, i64 %d)\n", fn, in.Op.Symbol(), in.Arity, entry, len(in.Args))
	for i, arg := range in.Args {
		val, _, err := fe.emitOperand(arg)
		if err != nil {
			return err
		}
		fe.printf("  call void @coral_set_capture(ptr %s, i64 %d, ptr %s)\n", fn, i, val)
	}
	fe.store(in.Dst, fn)
	return nil
}
