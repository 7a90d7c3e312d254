package mir

import (
	"coral/internal/source"
)

type OperandKind uint8

const (
	OperandLocal OperandKind = iota
	OperandConst
)

// Const is an immediate native value.
type Const struct {
	Repr Repr
	Int  int64
	Bool bool
}

type Operand struct {
	Kind  OperandKind
	Local LocalID
	Const Const
}

func LocalOperand(id LocalID) Operand { return Operand{Kind: OperandLocal, Local: id} }

func IntConst(v int64) Operand {
	return Operand{Kind: OperandConst, Local: NoLocalID, Const: Const{Repr: ReprInt, Int: v}}
}

func BoolConst(v bool) Operand {
	return Operand{Kind: OperandConst, Local: NoLocalID, Const: Const{Repr: ReprBool, Bool: v}}
}

// Repr returns the representation of the operand inside f.
func (op Operand) Repr(f *Func) Repr {
	if op.Kind == OperandConst {
		return op.Const.Repr
	}
	return f.Locals[op.Local].Repr
}

// NativeOp is an operation on native locals.
type NativeOp uint8

const (
	NativeAdd NativeOp = iota
	NativeSub
	NativeMul
	NativeDiv
	NativeRem
	NativeLt
	NativeLe
	NativeGt
	NativeGe
	NativeEqInt
	NativeNeInt
	NativeEqBool
	NativeNeBool
	NativeAnd
	NativeOr
)

var nativeOpNames = [...]string{
	NativeAdd:    "add",
	NativeSub:    "sub",
	NativeMul:    "mul",
	NativeDiv:    "div",
	NativeRem:    "rem",
	NativeLt:     "lt",
	NativeLe:     "le",
	NativeGt:     "gt",
	NativeGe:     "ge",
	NativeEqInt:  "eq",
	NativeNeInt:  "ne",
	NativeEqBool: "eq.i1",
	NativeNeBool: "ne.i1",
	NativeAnd:    "and",
	NativeOr:     "or",
}

func (op NativeOp) String() string {
	if int(op) < len(nativeOpNames) {
		return nativeOpNames[op]
	}
	return "?"
}

// Operands returns the repr both operands must have.
func (op NativeOp) Operands() Repr {
	switch op {
	case NativeEqBool, NativeNeBool, NativeAnd, NativeOr:
		return ReprBool
	default:
		return ReprInt
	}
}

// Result returns the repr of the produced local.
func (op NativeOp) Result() Repr {
	if op <= NativeRem {
		return ReprInt
	}
	return ReprBool
}

// RuntimeOp is a call into the runtime on boxed values.
type RuntimeOp uint8

const (
	RtNewString RuntimeOp = iota
	RtBoxInt
	RtBoxBool
	RtUnboxInt
	RtUnboxBool
	RtNewPair
	RtNewFunction
	RtAdd
	RtSub
	RtMul
	RtDiv
	RtRem
	RtLt
	RtLe
	RtGt
	RtGe
	RtEq
	RtNe
	RtAnd
	RtOr
	RtFirst
	RtSecond
	RtPrint
)

var runtimeOpInfo = [...]struct {
	name   string
	symbol string
	args   int
	result Repr
	owned  bool
}{
	RtNewString:   {"new_string", "coral_new_string", 0, ReprValue, true},
	RtBoxInt:      {"box_int", "coral_new_int", 1, ReprValue, false},
	RtBoxBool:     {"box_bool", "coral_new_bool", 1, ReprValue, false},
	RtUnboxInt:    {"unbox_int", "coral_as_int", 1, ReprInt, false},
	RtUnboxBool:   {"unbox_bool", "coral_as_bool", 1, ReprBool, false},
	RtNewPair:     {"new_pair", "coral_new_pair", 2, ReprValue, true},
	RtNewFunction: {"new_function", "coral_new_function", -1, ReprValue, true},
	RtAdd:         {"add", "coral_add", 2, ReprValue, true},
	RtSub:         {"sub", "coral_sub", 2, ReprValue, false},
	RtMul:         {"mul", "coral_mul", 2, ReprValue, false},
	RtDiv:         {"div", "coral_div", 2, ReprValue, false},
	RtRem:         {"rem", "coral_rem", 2, ReprValue, false},
	RtLt:          {"lt", "coral_lt", 2, ReprValue, false},
	RtLe:          {"le", "coral_le", 2, ReprValue, false},
	RtGt:          {"gt", "coral_gt", 2, ReprValue, false},
	RtGe:          {"ge", "coral_ge", 2, ReprValue, false},
	RtEq:          {"eq", "coral_eq", 2, ReprValue, false},
	RtNe:          {"ne", "coral_ne", 2, ReprValue, false},
	RtAnd:         {"and", "coral_and", 2, ReprValue, false},
	RtOr:          {"or", "coral_or", 2, ReprValue, false},
	RtFirst:       {"first", "coral_first", 1, ReprValue, true},
	RtSecond:      {"second", "coral_second", 1, ReprValue, true},
	RtPrint:       {"print", "coral_print", 1, ReprValue, false},
}

func (op RuntimeOp) String() string {
	if int(op) < len(runtimeOpInfo) {
		return runtimeOpInfo[op].name
	}
	return "?"
}

// Symbol is the C runtime entry point implementing op.
func (op RuntimeOp) Symbol() string { return runtimeOpInfo[op].symbol }

// Arity is the number of operands, or -1 when variadic.
func (op RuntimeOp) Arity() int { return runtimeOpInfo[op].args }

// Result is the repr of the produced local. Print produces nothing.
func (op RuntimeOp) Result() Repr { return runtimeOpInfo[op].result }

// HasResult reports whether the op defines a local.
func (op RuntimeOp) HasResult() bool { return op != RtPrint }

// Owned reports whether the result may be a fresh heap reference that the
// current scope must track.
func (op RuntimeOp) Owned() bool { return runtimeOpInfo[op].owned }

// Args returns the repr of operand i.
func (op RuntimeOp) Args(i int) Repr {
	switch op {
	case RtBoxInt:
		return ReprInt
	case RtBoxBool:
		return ReprBool
	default:
		return ReprValue
	}
}

type InstrKind uint8

const (
	InstrNop InstrKind = iota
	InstrAssign
	InstrNative
	InstrRuntime
	InstrCall
	InstrLoadCapture
	InstrIncref
	InstrOpenScope
	InstrTrack
	InstrPromote
	InstrReleaseScope
)

type Instr struct {
	Kind InstrKind
	Span source.Span

	Assign  AssignInstr
	Native  NativeInstr
	Runtime RuntimeInstr
	Call    CallInstr
	Capture CaptureInstr
	Scope   ScopeInstr
}

type AssignInstr struct {
	Dst LocalID
	Src Operand
}

type NativeInstr struct {
	Dst  LocalID
	Op   NativeOp
	Args []Operand
}

// RuntimeInstr calls the runtime. Str carries the literal of NewString;
// Func, Entry and Arity describe the closure built by NewFunction, whose
// Args are its captured values.
type RuntimeInstr struct {
	Dst   LocalID
	Op    RuntimeOp
	Args  []Operand
	Str   string
	Func  FuncID
	Entry FuncID
	Arity int
}

type CalleeKind uint8

const (
	// CalleeDirect calls a known function, passing the closure as Env.
	CalleeDirect CalleeKind = iota
	// CalleeDynamic calls a boxed function value through its dynamic entry.
	CalleeDynamic
)

type Callee struct {
	Kind  CalleeKind
	Func  FuncID
	Env   Operand
	Value Operand
}

type CallInstr struct {
	Dsts   []LocalID
	Callee Callee
	Args   []Operand
}

// CaptureInstr borrows captured value Index from the closure environment.
type CaptureInstr struct {
	Dst   LocalID
	Index int
}

// ScopeInstr is shared by the scope operations: Capacity for OpenScope,
// Value for Track, Promote and Incref.
type ScopeInstr struct {
	Capacity int
	Value    Operand
}

// IsScopeOp reports whether the instruction touches the frame scope.
func (in *Instr) IsScopeOp() bool {
	switch in.Kind {
	case InstrOpenScope, InstrTrack, InstrPromote, InstrReleaseScope:
		return true
	}
	return false
}
