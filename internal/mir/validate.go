package mir

import (
	"errors"
	"fmt"
	"slices"
)

// Validate checks MIR module invariants.
// Returns error if any invariant is violated.
func Validate(m *Module) error {
	if m == nil {
		return nil
	}
	var errs []error
	if m.Func(m.Main) == nil {
		errs = append(errs, errors.New("module has no main function"))
	}
	for _, f := range m.Funcs {
		if f == nil {
			continue
		}
		if err := validateFunc(m, f); err != nil {
			errs = append(errs, fmt.Errorf("function %s: %w", f.Name, err))
		}
	}
	return errors.Join(errs...)
}

func validateFunc(m *Module, f *Func) error {
	var errs []error

	// 1. Check all blocks terminated
	if err := validateBlocksTerminated(f); err != nil {
		errs = append(errs, err)
	}

	// 2. Check block targets exist
	if err := validateBlockTargets(f); err != nil {
		errs = append(errs, err)
	}

	// 3. Check local IDs and operand reprs
	if err := validateOperands(m, f); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	// 4. Check scope discipline along every path
	if err := validateScopes(f); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// validateBlocksTerminated checks that every block ends with a terminator.
func validateBlocksTerminated(f *Func) error {
	var errs []error
	if len(f.Blocks) == 0 {
		return errors.New("no blocks")
	}
	for i := range f.Blocks {
		if f.Blocks[i].Term.Kind == TermNone {
			errs = append(errs, fmt.Errorf("bb%d: unterminated block", i))
		}
	}
	return errors.Join(errs...)
}

func validateBlockTargets(f *Func) error {
	var errs []error
	valid := func(id BlockID) bool { return id >= 0 && int(id) < len(f.Blocks) }
	if !valid(f.Entry) {
		errs = append(errs, fmt.Errorf("invalid entry bb%d", f.Entry))
	}
	for i := range f.Blocks {
		for _, succ := range f.Blocks[i].Term.Successors() {
			if !valid(succ) {
				errs = append(errs, fmt.Errorf("bb%d: jump to missing bb%d", i, succ))
			}
		}
	}
	return errors.Join(errs...)
}

type operandChecker struct {
	m    *Module
	f    *Func
	errs []error
}

func (c *operandChecker) fail(bb int, format string, args ...any) {
	c.errs = append(c.errs, fmt.Errorf("bb%d: %s", bb, fmt.Sprintf(format, args...)))
}

func (c *operandChecker) local(bb int, id LocalID) bool {
	if id < 0 || int(id) >= len(c.f.Locals) {
		c.fail(bb, "unknown local L%d", id)
		return false
	}
	return true
}

func (c *operandChecker) operand(bb int, op Operand, want Repr) {
	if op.Kind == OperandLocal && !c.local(bb, op.Local) {
		return
	}
	if got := op.Repr(c.f); got != want {
		c.fail(bb, "operand %s is %s, want %s", formatOperand(c.f, op), got, want)
	}
}

func (c *operandChecker) dst(bb int, id LocalID, want Repr) {
	if c.local(bb, id) && c.f.Locals[id].Repr != want {
		c.fail(bb, "L%d is %s, want %s", id, c.f.Locals[id].Repr, want)
	}
}

// call checks arguments and results against the callee. A dynamic call
// passes one boxed value per argument and yields one boxed value.
func (c *operandChecker) call(bb int, call *CallInstr, results []Repr) {
	switch call.Callee.Kind {
	case CalleeDirect:
		target := c.m.Func(call.Callee.Func)
		if target == nil {
			c.fail(bb, "call to unknown function %d", call.Callee.Func)
			return
		}
		c.operand(bb, call.Callee.Env, ReprValue)
		if len(call.Args) != len(target.Params) {
			c.fail(bb, "%s takes %d locals, got %d", target.Name, len(target.Params), len(call.Args))
			return
		}
		for i, a := range call.Args {
			c.operand(bb, a, target.Locals[target.Params[i]].Repr)
		}
		if !slices.Equal(target.Results, results) {
			c.fail(bb, "%s returns %v, caller expects %v", target.Name, target.Results, results)
		}
	case CalleeDynamic:
		c.operand(bb, call.Callee.Value, ReprValue)
		for _, a := range call.Args {
			c.operand(bb, a, ReprValue)
		}
		if !slices.Equal([]Repr{ReprValue}, results) {
			c.fail(bb, "dynamic call yields one value, caller expects %v", results)
		}
	}
}

func validateOperands(m *Module, f *Func) error {
	c := &operandChecker{m: m, f: f}
	if f.Env.IsValid() {
		c.dst(0, f.Env, ReprValue)
	}
	for i := range f.Blocks {
		bb := &f.Blocks[i]
		for j := range bb.Instrs {
			in := &bb.Instrs[j]
			switch in.Kind {
			case InstrAssign:
				if c.local(i, in.Assign.Dst) {
					c.operand(i, in.Assign.Src, f.Locals[in.Assign.Dst].Repr)
				}
			case InstrNative:
				c.dst(i, in.Native.Dst, in.Native.Op.Result())
				if len(in.Native.Args) != 2 {
					c.fail(i, "%s takes 2 operands", in.Native.Op)
					continue
				}
				for _, a := range in.Native.Args {
					c.operand(i, a, in.Native.Op.Operands())
				}
			case InstrRuntime:
				ri := &in.Runtime
				if ri.Op.HasResult() {
					c.dst(i, ri.Dst, ri.Op.Result())
				}
				if n := ri.Op.Arity(); n >= 0 && len(ri.Args) != n {
					c.fail(i, "%s takes %d operands, got %d", ri.Op, n, len(ri.Args))
					continue
				}
				for k, a := range ri.Args {
					c.operand(i, a, ri.Op.Args(k))
				}
				if ri.Op == RtNewFunction {
					if target := m.Func(ri.Func); target == nil || len(ri.Args) != target.Captures {
						c.fail(i, "closure of function %d has wrong captures", ri.Func)
					}
				}
			case InstrCall:
				results := make([]Repr, 0, len(in.Call.Dsts))
				for _, d := range in.Call.Dsts {
					if c.local(i, d) {
						results = append(results, f.Locals[d].Repr)
					}
				}
				c.call(i, &in.Call, results)
			case InstrLoadCapture:
				c.dst(i, in.Capture.Dst, ReprValue)
				if in.Capture.Index < 0 || in.Capture.Index >= f.Captures {
					c.fail(i, "capture %d out of range", in.Capture.Index)
				}
			case InstrTrack, InstrPromote, InstrIncref:
				c.operand(i, in.Scope.Value, ReprValue)
			}
		}
		switch bb.Term.Kind {
		case TermIf:
			c.operand(i, bb.Term.If.Cond, ReprBool)
		case TermReturn:
			vals := bb.Term.Return.Values
			if len(vals) != len(f.Results) {
				c.fail(i, "returns %d values, want %d", len(vals), len(f.Results))
				continue
			}
			for k, v := range vals {
				c.operand(i, v, f.Results[k])
			}
		case TermTailCall:
			c.call(i, &bb.Term.TailCall, f.Results)
		}
	}
	return errors.Join(c.errs...)
}

// validateScopes checks that the entry opens the scope exactly once, that
// every path releases it exactly once right before leaving the function,
// and that nothing touches the scope after the release. Bodies are
// acyclic, so paths are explored exhaustively with memoization.
func validateScopes(f *Func) error {
	var errs []error
	entry := &f.Blocks[f.Entry]
	if len(entry.Instrs) == 0 || entry.Instrs[0].Kind != InstrOpenScope {
		errs = append(errs, errors.New("entry does not open the scope"))
	} else if entry.Instrs[0].Scope.Capacity != f.ScopeCap {
		errs = append(errs, fmt.Errorf("scope capacity %d disagrees with %d", entry.Instrs[0].Scope.Capacity, f.ScopeCap))
	}

	tracks := 0
	for i := range f.Blocks {
		for j := range f.Blocks[i].Instrs {
			in := &f.Blocks[i].Instrs[j]
			if in.Kind == InstrOpenScope && (BlockID(i) != f.Entry || j != 0) {
				errs = append(errs, fmt.Errorf("bb%d: scope opened twice", i))
			}
			if in.Kind == InstrTrack {
				tracks++
			}
		}
	}
	if tracks > f.ScopeCap {
		errs = append(errs, fmt.Errorf("%d track sites exceed capacity %d", tracks, f.ScopeCap))
	}

	const (
		unvisited = iota
		active
		done
	)
	state := make([]uint8, len(f.Blocks))
	var visit func(id BlockID)
	visit = func(id BlockID) {
		switch state[id] {
		case active:
			errs = append(errs, fmt.Errorf("bb%d: control flow cycle", id))
			return
		case done:
			return
		}
		state[id] = active
		bb := &f.Blocks[id]
		released := false
		for j := range bb.Instrs {
			in := &bb.Instrs[j]
			if released {
				errs = append(errs, fmt.Errorf("bb%d: %s after scope release", id, instrName(in.Kind)))
				break
			}
			if in.Kind == InstrReleaseScope {
				released = true
			}
		}
		switch {
		case bb.Term.IsExit() && !released:
			errs = append(errs, fmt.Errorf("bb%d: exit without scope release", id))
		case !bb.Term.IsExit() && released:
			errs = append(errs, fmt.Errorf("bb%d: scope released before a jump", id))
		}
		for _, succ := range bb.Term.Successors() {
			visit(succ)
		}
		state[id] = done
	}
	visit(f.Entry)
	return errors.Join(errs...)
}
