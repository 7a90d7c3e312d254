package llvm

import (
	"fmt"
	"strings"

	"coral/internal/mir"
)

func (e *Emitter) emitFunction(f *mir.Func) error {
	name := e.funcNames[f.ID]
	sig, ok := e.funcSigs[f.ID]
	if !ok {
		return fmt.Errorf("missing function signature")
	}
	paramLocals := f.Params
	if f.Env.IsValid() {
		paramLocals = append([]mir.LocalID{f.Env}, f.Params...)
	}
	paramNames := make([]string, len(paramLocals))
	for i := range paramLocals {
		paramNames[i] = fmt.Sprintf("%s %%p%d", sig.params[i], i)
	}
	fmt.Fprintf(&e.buf, "define %s %s(%s) {\n", sig.ret, name, strings.Join(paramNames, ", "))

	fe := &funcEmitter{
		emitter:     e,
		f:           f,
		localAlloca: make(map[mir.LocalID]string, len(f.Locals)),
	}
	for i := range f.Locals {
		fe.localAlloca[mir.LocalID(i)] = fmt.Sprintf("%%l%d", i)
	}

	for _, bb := range fe.blockOrder() {
		fmt.Fprintf(&e.buf, "bb%d:\n", bb.ID)
		if bb.ID == f.Entry {
			fe.emitAllocas()
			fe.emitParamStores(paramLocals)
		}
		for i := range bb.Instrs {
			if err := fe.emitInstr(&bb.Instrs[i]); err != nil {
				return fmt.Errorf("bb%d: %w", bb.ID, err)
			}
		}
		if err := fe.emitTerminator(&bb.Term); err != nil {
			return fmt.Errorf("bb%d: %w", bb.ID, err)
		}
	}
	e.buf.WriteString("}\n\n")
	return nil
}

// blockOrder puts the entry block first; LLVM requires it.
func (fe *funcEmitter) blockOrder() []*mir.Block {
	ordered := make([]*mir.Block, 0, len(fe.f.Blocks))
	if int(fe.f.Entry) >= 0 && int(fe.f.Entry) < len(fe.f.Blocks) {
		ordered = append(ordered, &fe.f.Blocks[fe.f.Entry])
	}
	for i := range fe.f.Blocks {
		if fe.f.Blocks[i].ID != fe.f.Entry {
			ordered = append(ordered, &fe.f.Blocks[i])
		}
	}
	return ordered
}

func (fe *funcEmitter) emitAllocas() {
	for i, local := range fe.f.Locals {
		fe.printf("  %s = alloca %s\n", fe.localAlloca[mir.LocalID(i)], reprType(local.Repr))
	}
}

func (fe *funcEmitter) emitParamStores(params []mir.LocalID) {
	for i, id := range params {
		fe.printf("  store %s %%p%d, ptr %s\n", reprType(fe.f.Locals[id].Repr), i, fe.localAlloca[id])
	}
}

func (fe *funcEmitter) emitOperand(op mir.Operand) (val, ty string, err error) {
	switch op.Kind {
	case mir.OperandConst:
		if op.Const.Repr == mir.ReprBool {
			return boolValue(op.Const.Bool), "i1", nil
		}
		return fmt.Sprintf("%d", op.Const.Int), "i64", nil
	case mir.OperandLocal:
		ptr, ok := fe.localAlloca[op.Local]
		if !ok {
			return "", "", fmt.Errorf("unknown local %d", op.Local)
		}
		ty = reprType(fe.f.Locals[op.Local].Repr)
		tmp := fe.nextTemp()
		fe.printf("  %s = load %s, ptr %s\n", tmp, ty, ptr)
		return tmp, ty, nil
	}
	return "", "", fmt.Errorf("unsupported operand kind %d", op.Kind)
}

// emitArgs renders operands as a typed argument list.
func (fe *funcEmitter) emitArgs(ops []mir.Operand) ([]string, error) {
	out := make([]string, len(ops))
	for i, op := range ops {
		val, ty, err := fe.emitOperand(op)
		if err != nil {
			return nil, err
		}
		out[i] = ty + " " + val
	}
	return out, nil
}

func (fe *funcEmitter) store(dst mir.LocalID, val string) {
	fe.printf("  store %s %s, ptr %s\n", reprType(fe.f.Locals[dst].Repr), val, fe.localAlloca[dst])
}
