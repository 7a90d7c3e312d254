// Package llvm emits textual LLVM IR for a MIR module. Boxed values are
// opaque pointers handled by the C runtime; native locals are i64 and i1.
package llvm

import (
	"fmt"
	"sort"
	"strings"

	"coral/internal/mir"
)

type funcSig struct {
	ret    string
	params []string
}

type stringConst struct {
	bytes      []byte
	globalName string
}

// Options configures emission.
type Options struct {
	// Triple is written as the module target triple when set.
	Triple string
	// LeakCheck makes the generated main abort when objects outlive the
	// program.
	LeakCheck bool
}

type Emitter struct {
	mod          *mir.Module
	opts         Options
	buf          strings.Builder
	stringConsts map[string]*stringConst
	stringOrder  []*stringConst
	funcNames    map[mir.FuncID]string
	funcSigs     map[mir.FuncID]funcSig
	runtimeSigs  map[string]funcSig
}

type funcEmitter struct {
	emitter     *Emitter
	f           *mir.Func
	tmpID       int
	localAlloca map[mir.LocalID]string
}

// EmitModule renders mod as LLVM IR.
func EmitModule(mod *mir.Module, opts Options) (string, error) {
	if mod == nil {
		return "", fmt.Errorf("llvm: missing module")
	}
	if mod.Func(mod.Main) == nil {
		return "", fmt.Errorf("llvm: module %s has no main function", mod.Source)
	}
	e := &Emitter{
		mod:          mod,
		opts:         opts,
		stringConsts: make(map[string]*stringConst),
		funcNames:    make(map[mir.FuncID]string),
		funcSigs:     make(map[mir.FuncID]funcSig),
		runtimeSigs:  runtimeSigMap(),
	}
	e.collectStringConsts()
	if err := e.prepareFunctions(); err != nil {
		return "", err
	}
	e.emitPreamble()
	e.emitRuntimeDecls()
	e.emitStringConsts()
	if err := e.emitFunctions(); err != nil {
		return "", err
	}
	e.emitEntryPoint()
	return e.buf.String(), nil
}

func (e *Emitter) emitPreamble() {
	fmt.Fprintf(&e.buf, "; ModuleID = %s\n", llvmQuote(e.mod.Source))
	fmt.Fprintf(&e.buf, "source_filename = %s\n", llvmQuote(e.mod.Source))
	if e.opts.Triple != "" {
		fmt.Fprintf(&e.buf, "target triple = %s\n", llvmQuote(e.opts.Triple))
	}
	e.buf.WriteString("\n")
}

func (e *Emitter) emitRuntimeDecls() {
	for _, decl := range runtimeDecls() {
		fmt.Fprintf(&e.buf, "declare %s @%s(%s)\n", decl.ret, decl.name, strings.Join(decl.params, ", "))
	}
	e.buf.WriteString("\n")
}

func (e *Emitter) collectStringConsts() {
	for _, f := range e.mod.Funcs {
		for i := range f.Blocks {
			bb := &f.Blocks[i]
			for j := range bb.Instrs {
				ins := &bb.Instrs[j]
				if ins.Kind == mir.InstrRuntime && ins.Runtime.Op == mir.RtNewString {
					e.ensureStringConst(ins.Runtime.Str)
				}
			}
		}
	}
}

func (e *Emitter) ensureStringConst(s string) *stringConst {
	if c, ok := e.stringConsts[s]; ok {
		return c
	}
	c := &stringConst{
		bytes:      append([]byte(s), 0),
		globalName: fmt.Sprintf(".str.%d", len(e.stringOrder)),
	}
	e.stringConsts[s] = c
	e.stringOrder = append(e.stringOrder, c)
	return c
}

func (e *Emitter) emitStringConsts() {
	if len(e.stringOrder) == 0 {
		return
	}
	for _, c := range e.stringOrder {
		fmt.Fprintf(&e.buf, "@%s = private unnamed_addr constant [%d x i8] %s, align 1\n",
			c.globalName, len(c.bytes), formatLLVMBytes(c.bytes))
	}
	e.buf.WriteString("\n")
}

func (e *Emitter) prepareFunctions() error {
	for _, f := range e.mod.Funcs {
		e.funcNames[f.ID] = "@" + llvmQuote("coral."+f.Name)
		params := make([]string, 0, len(f.Params)+1)
		if f.Env.IsValid() {
			params = append(params, "ptr")
		}
		for _, p := range f.Params {
			if int(p) < 0 || int(p) >= len(f.Locals) {
				return fmt.Errorf("llvm: invalid param local %d in %s", p, f.Name)
			}
			params = append(params, reprType(f.Locals[p].Repr))
		}
		e.funcSigs[f.ID] = funcSig{ret: resultType(f.Results), params: params}
	}
	return nil
}

func (e *Emitter) emitFunctions() error {
	funcs := append([]*mir.Func(nil), e.mod.Funcs...)
	sort.Slice(funcs, func(i, j int) bool {
		return funcs[i].ID < funcs[j].ID
	})
	for _, f := range funcs {
		if err := e.emitFunction(f); err != nil {
			return fmt.Errorf("llvm: %s: %w", f.Name, err)
		}
	}
	return nil
}

// emitEntryPoint defines the C main that runs the program.
func (e *Emitter) emitEntryPoint() {
	leak := "false"
	if e.opts.LeakCheck {
		leak = "true"
	}
	e.buf.WriteString("define i32 @main() {\n")
	e.buf.WriteString("entry:\n")
	fmt.Fprintf(&e.buf, "  call void %s()\n", e.funcNames[e.mod.Main])
	fmt.Fprintf(&e.buf, "  %%code = call i32 @coral_finish(i1 %s)\n", leak)
	e.buf.WriteString("  ret i32 %code\n")
	e.buf.WriteString("}\n")
}
