package llvm

import (
	"fmt"
	"strings"

	"coral/internal/mir"
)

// callSite is a rendered call before its result is consumed.
type callSite struct {
	ret     string
	callee  string
	args    []string
	fnValue string
	results []mir.Repr
}

func (fe *funcEmitter) prepareCall(call *mir.CallInstr) (*callSite, error) {
	switch call.Callee.Kind {
	case mir.CalleeDirect:
		target := fe.emitter.mod.Func(call.Callee.Func)
		if target == nil {
			return nil, fmt.Errorf("call to unknown function %d", call.Callee.Func)
		}
		var args []string
		if target.Env.IsValid() {
			env, _, err := fe.emitOperand(call.Callee.Env)
			if err != nil {
				return nil, err
			}
			args = append(args, "ptr "+env)
		}
		rest, err := fe.emitArgs(call.Args)
		if err != nil {
			return nil, err
		}
		return &callSite{
			ret:     resultType(target.Results),
			callee:  fe.emitter.funcNames[target.ID],
			args:    append(args, rest...),
			results: target.Results,
		}, nil
	case mir.CalleeDynamic:
		fn, _, err := fe.emitOperand(call.Callee.Value)
		if err != nil {
			return nil, err
		}
		entry := fe.nextTemp()
		fe.printf("  %s = call ptr @coral_check_call(ptr %s, i64 %d)\n", entry, fn, len(call.Args))
		rest, err := fe.emitArgs(call.Args)
		if err != nil {
			return nil, err
		}
		return &callSite{
			ret:     "ptr",
			callee:  entry,
			args:    append([]string{"ptr " + fn}, rest...),
			fnValue: fn,
			results: []mir.Repr{mir.ReprValue},
		}, nil
	}
	return nil, fmt.Errorf("unsupported callee kind %d", call.Callee.Kind)
}

// emitInvoke writes the call and returns its SSA result, if any.
func (fe *funcEmitter) emitInvoke(site *callSite, marker string) string {
	if marker != "" {
		marker += " "
	}
	args := strings.Join(site.args, ", ")
	if site.ret == "void" {
		fe.printf("  %scall void %s(%s)\n", marker, site.callee, args)
		return ""
	}
	tmp := fe.nextTemp()
	fe.printf("  %s = %scall %s %s(%s)\n", tmp, marker, site.ret, site.callee, args)
	return tmp
}

func (fe *funcEmitter) emitCall(call *mir.CallInstr) error {
	site, err := fe.prepareCall(call)
	if err != nil {
		return err
	}
	res := fe.emitInvoke(site, "")
	if site.fnValue != "" {
		fe.printf("  call void @coral_decref(ptr %s)\n", site.fnValue)
	}
	return fe.storeResults(call.Dsts, site, res)
}

func (fe *funcEmitter) storeResults(dsts []mir.LocalID, site *callSite, res string) error {
	if res == "" {
		return nil
	}
	if len(site.results) == 1 {
		if len(dsts) > 0 && dsts[0].IsValid() {
			fe.store(dsts[0], res)
		}
		return nil
	}
	if len(dsts) > len(site.results) {
		return fmt.Errorf("call stores %d results, callee returns %d", len(dsts), len(site.results))
	}
	for i, dst := range dsts {
		if !dst.IsValid() {
			continue
		}
		tmp := fe.nextTemp()
		fe.printf("  %s = extractvalue %s %s, %d\n", tmp, site.ret, res, i)
		fe.store(dst, tmp)
	}
	return nil
}
