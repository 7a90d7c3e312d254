package mir

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// DumpOptions configures MIR module dumping.
type DumpOptions struct {
	// Spans appends the source span of each instruction.
	Spans bool
}

// DumpModule writes a human-readable representation of a MIR module.
func DumpModule(w io.Writer, m *Module, opts DumpOptions) error {
	if w == nil || m == nil {
		return nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "module %q main=%s funcs=%d\n", m.Source, funcName(m, m.Main), len(m.Funcs))
	for _, f := range m.Funcs {
		if f == nil {
			continue
		}
		sb.WriteByte('\n')
		dumpFunc(&sb, m, f, opts)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// DumpFunc renders a single function.
func DumpFunc(m *Module, f *Func) string {
	var sb strings.Builder
	dumpFunc(&sb, m, f, DumpOptions{})
	return sb.String()
}

func dumpFunc(sb *strings.Builder, m *Module, f *Func, opts DumpOptions) {
	params := make([]string, 0, len(f.Params)+1)
	if f.Env.IsValid() {
		params = append(params, "env "+f.Locals[f.Env].Repr.String())
	}
	for _, p := range f.Params {
		params = append(params, fmt.Sprintf("L%d %s", p, f.Locals[p].Repr))
	}
	results := make([]string, len(f.Results))
	for i, r := range f.Results {
		results[i] = r.String()
	}
	fmt.Fprintf(sb, "fn %s(%s) -> (%s) scope=%d", f.Name, strings.Join(params, ", "), strings.Join(results, ", "), f.ScopeCap)
	if f.Dyn.IsValid() {
		fmt.Fprintf(sb, " dyn=%s", funcName(m, f.Dyn))
	}
	if f.Impl.IsValid() {
		fmt.Fprintf(sb, " impl=%s", funcName(m, f.Impl))
	}
	sb.WriteString(" {\n")
	for i := range f.Locals {
		l := f.Locals[i]
		if l.Name != "" {
			fmt.Fprintf(sb, "  L%d: %s %s\n", i, l.Repr, l.Name)
		}
	}
	for i := range f.Blocks {
		bb := &f.Blocks[i]
		entry := ""
		if bb.ID == f.Entry {
			entry = " (entry)"
		}
		fmt.Fprintf(sb, "bb%d%s:\n", bb.ID, entry)
		for j := range bb.Instrs {
			in := &bb.Instrs[j]
			sb.WriteString("  ")
			sb.WriteString(formatInstr(m, f, in))
			if opts.Spans {
				fmt.Fprintf(sb, "  @%d:%d", in.Span.Start, in.Span.End)
			}
			sb.WriteByte('\n')
		}
		sb.WriteString("  ")
		sb.WriteString(formatTerm(m, f, &bb.Term))
		sb.WriteByte('\n')
	}
	sb.WriteString("}\n")
}

func funcName(m *Module, id FuncID) string {
	if f := m.Func(id); f != nil {
		return f.Name
	}
	return "<none>"
}

func instrName(k InstrKind) string {
	switch k {
	case InstrAssign:
		return "assign"
	case InstrNative:
		return "native"
	case InstrRuntime:
		return "runtime"
	case InstrCall:
		return "call"
	case InstrLoadCapture:
		return "capture"
	case InstrIncref:
		return "incref"
	case InstrOpenScope:
		return "open_scope"
	case InstrTrack:
		return "track"
	case InstrPromote:
		return "promote"
	case InstrReleaseScope:
		return "release_scope"
	default:
		return "nop"
	}
}

func formatOperand(f *Func, op Operand) string {
	if op.Kind == OperandConst {
		if op.Const.Repr == ReprBool {
			return strconv.FormatBool(op.Const.Bool)
		}
		return strconv.FormatInt(op.Const.Int, 10)
	}
	if op.Local == f.Env && f.Env.IsValid() {
		return "env"
	}
	return fmt.Sprintf("L%d", op.Local)
}

func formatOperands(f *Func, ops []Operand) string {
	parts := make([]string, len(ops))
	for i, op := range ops {
		parts[i] = formatOperand(f, op)
	}
	return strings.Join(parts, ", ")
}

func formatCall(m *Module, f *Func, call *CallInstr) string {
	if call.Callee.Kind == CalleeDirect {
		return fmt.Sprintf("%s[%s](%s)", funcName(m, call.Callee.Func), formatOperand(f, call.Callee.Env), formatOperands(f, call.Args))
	}
	return fmt.Sprintf("dyn %s(%s)", formatOperand(f, call.Callee.Value), formatOperands(f, call.Args))
}

func formatInstr(m *Module, f *Func, in *Instr) string {
	switch in.Kind {
	case InstrAssign:
		return fmt.Sprintf("L%d = %s", in.Assign.Dst, formatOperand(f, in.Assign.Src))
	case InstrNative:
		return fmt.Sprintf("L%d = %s %s", in.Native.Dst, in.Native.Op, formatOperands(f, in.Native.Args))
	case InstrRuntime:
		ri := &in.Runtime
		var rhs string
		switch ri.Op {
		case RtNewString:
			rhs = "new_string " + strconv.Quote(ri.Str)
		case RtNewFunction:
			rhs = fmt.Sprintf("new_function %s/%d entry=%s [%s]", funcName(m, ri.Func), ri.Arity, funcName(m, ri.Entry), formatOperands(f, ri.Args))
		default:
			rhs = fmt.Sprintf("%s %s", ri.Op, formatOperands(f, ri.Args))
		}
		if ri.Dst.IsValid() {
			return fmt.Sprintf("L%d = rt.%s", ri.Dst, rhs)
		}
		return "rt." + rhs
	case InstrCall:
		dsts := make([]string, len(in.Call.Dsts))
		for i, d := range in.Call.Dsts {
			dsts[i] = fmt.Sprintf("L%d", d)
		}
		lhs := ""
		if len(dsts) > 0 {
			lhs = strings.Join(dsts, ", ") + " = "
		}
		return lhs + "call " + formatCall(m, f, &in.Call)
	case InstrLoadCapture:
		return fmt.Sprintf("L%d = capture %d", in.Capture.Dst, in.Capture.Index)
	case InstrOpenScope:
		return fmt.Sprintf("open_scope %d", in.Scope.Capacity)
	case InstrTrack, InstrPromote, InstrIncref:
		return instrName(in.Kind) + " " + formatOperand(f, in.Scope.Value)
	case InstrReleaseScope:
		return "release_scope"
	default:
		return "nop"
	}
}

func formatTerm(m *Module, f *Func, t *Terminator) string {
	switch t.Kind {
	case TermReturn:
		return "return " + formatOperands(f, t.Return.Values)
	case TermGoto:
		return fmt.Sprintf("goto bb%d", t.Goto.Target)
	case TermIf:
		return fmt.Sprintf("if %s then bb%d else bb%d", formatOperand(f, t.If.Cond), t.If.Then, t.If.Else)
	case TermTailCall:
		return "tail " + formatCall(m, f, &t.TailCall)
	case TermUnreachable:
		return "unreachable"
	default:
		return "<unterminated>"
	}
}
