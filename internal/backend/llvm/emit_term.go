package llvm

import (
	"fmt"

	"coral/internal/mir"
)

func (fe *funcEmitter) emitTerminator(term *mir.Terminator) error {
	switch term.Kind {
	case mir.TermReturn:
		return fe.emitReturn(term.Return.Values)
	case mir.TermGoto:
		fe.printf("  br label %%bb%d\n", term.Goto.Target)
		return nil
	case mir.TermIf:
		cond, ty, err := fe.emitOperand(term.If.Cond)
		if err != nil {
			return err
		}
		if ty == "ptr" {
			unboxed := fe.nextTemp()
			fe.printf("  %s = call i1 @coral_as_bool(ptr %s)\n", unboxed, cond)
			cond = unboxed
		}
		fe.printf("  br i1 %s, label %%bb%d, label %%bb%d\n", cond, term.If.Then, term.If.Else)
		return nil
	case mir.TermTailCall:
		return fe.emitTailCall(&term.TailCall)
	case mir.TermUnreachable:
		fe.printf("  unreachable\n")
		return nil
	}
	return fmt.Errorf("block has no terminator")
}

func (fe *funcEmitter) emitReturn(values []mir.Operand) error {
	ret := resultType(fe.f.Results)
	if len(values) != len(fe.f.Results) {
		return fmt.Errorf("return of %d values from function with %d results", len(values), len(fe.f.Results))
	}
	switch len(values) {
	case 0:
		fe.printf("  ret void\n")
		return nil
	case 1:
		val, ty, err := fe.emitOperand(values[0])
		if err != nil {
			return err
		}
		fe.printf("  ret %s %s\n", ty, val)
		return nil
	}
	agg := "undef"
	for i, v := range values {
		val, ty, err := fe.emitOperand(v)
		if err != nil {
			return err
		}
		tmp := fe.nextTemp()
		fe.printf("  %s = insertvalue %s %s, %s %s, %d\n", tmp, ret, agg, ty, val, i)
		agg = tmp
	}
	fe.printf("  ret %s %s\n", ret, agg)
	return nil
}

// emitTailCall forwards the callee's results. Self calls share the exact
// signature and become musttail, so deep recursion runs in constant stack.
func (fe *funcEmitter) emitTailCall(call *mir.CallInstr) error {
	site, err := fe.prepareCall(call)
	if err != nil {
		return err
	}
	ret := resultType(fe.f.Results)
	if site.ret != ret {
		return fmt.Errorf("tail call returns %s, function returns %s", site.ret, ret)
	}
	marker := "tail"
	if call.Callee.Kind == mir.CalleeDirect && call.Callee.Func == fe.f.ID {
		marker = "musttail"
	}
	if site.fnValue != "" {
		// the function value must stay alive across the call
		marker = ""
	}
	res := fe.emitInvoke(site, marker)
	if site.fnValue != "" {
		fe.printf("  call void @coral_decref(ptr %s)\n", site.fnValue)
	}
	if res == "" {
		fe.printf("  ret void\n")
		return nil
	}
	fe.printf("  ret %s %s\n", ret, res)
	return nil
}
