package vm

import (
	"coral/internal/mir"
	"coral/internal/runtime"
	"coral/internal/source"
)

// Frame represents a function activation record on the call stack.
type Frame struct {
	Func   *mir.Func       // The function being executed
	BB     mir.BlockID     // Current basic block
	IP     int             // Instruction pointer within BB.Instrs
	Locals []runtime.Value // Native locals are stored inline
	Span   source.Span     // Current instruction span for error reporting
	Scope  *runtime.Scope

	// Owner is the function reference consumed by the dynamic call that
	// created this activation. It keeps the environment alive and is
	// released when the activation ends.
	Owner runtime.Value
	// Ret receives the results in the caller frame.
	Ret []mir.LocalID
}

// NewFrame creates a new frame for executing the given function.
func NewFrame(fn *mir.Func) *Frame {
	return &Frame{
		Func:   fn,
		BB:     fn.Entry,
		IP:     0,
		Locals: make([]runtime.Value, len(fn.Locals)),
		Span:   fn.Span,
	}
}

// CurrentBlock returns the current basic block being executed.
func (f *Frame) CurrentBlock() *mir.Block {
	if int(f.BB) < 0 || int(f.BB) >= len(f.Func.Blocks) {
		return nil
	}
	return &f.Func.Blocks[f.BB]
}

// CurrentInstr returns the current instruction, or nil if at terminator.
func (f *Frame) CurrentInstr() *mir.Instr {
	block := f.CurrentBlock()
	if block == nil || f.IP >= len(block.Instrs) {
		return nil
	}
	return &block.Instrs[f.IP]
}

// AtTerminator returns true if the IP is past all instructions (at terminator).
func (f *Frame) AtTerminator() bool {
	block := f.CurrentBlock()
	if block == nil {
		return true
	}
	return f.IP >= len(block.Instrs)
}

func (f *Frame) jump(bb mir.BlockID) {
	f.BB = bb
	f.IP = 0
}
