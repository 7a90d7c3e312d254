package ast

import (
	"coral/internal/source"
)

type ExprKind uint8

const (
	ExprInt ExprKind = iota
	ExprStr
	ExprBool
	ExprVar
	ExprTuple
	ExprLet
	ExprIf
	ExprFunction
	ExprCall
	ExprBinary
	ExprPrint
	ExprFirst
	ExprSecond
)

var exprKindNames = [...]string{
	ExprInt:      "Int",
	ExprStr:      "Str",
	ExprBool:     "Bool",
	ExprVar:      "Var",
	ExprTuple:    "Tuple",
	ExprLet:      "Let",
	ExprIf:       "If",
	ExprFunction: "Function",
	ExprCall:     "Call",
	ExprBinary:   "Binary",
	ExprPrint:    "Print",
	ExprFirst:    "First",
	ExprSecond:   "Second",
}

// String returns the node kind name used by the rinha JSON format.
func (k ExprKind) String() string {
	if int(k) < len(exprKindNames) {
		return exprKindNames[k]
	}
	return "Unknown"
}

type Expr struct {
	Kind    ExprKind
	Span    source.Span
	Payload PayloadID
}

type ExprIntData struct {
	Value int64
}

type ExprStrData struct {
	Value string
}

type ExprBoolData struct {
	Value bool
}

type ExprVarData struct {
	Name string
}

type ExprTupleData struct {
	First  ExprID
	Second ExprID
}

// ExprLetData is `let Name = Value; Next`. Name "_" binds nothing.
type ExprLetData struct {
	Name     string
	NameSpan source.Span
	Value    ExprID
	Next     ExprID
}

type ExprIfData struct {
	Cond ExprID
	Then ExprID
	Else ExprID
}

type Param struct {
	Name string
	Span source.Span
}

type ExprFunctionData struct {
	Params []Param
	Body   ExprID
}

type ExprCallData struct {
	Callee ExprID
	Args   []ExprID
}

type ExprBinaryData struct {
	Op    BinaryOp
	Left  ExprID
	Right ExprID
}

// ExprBuiltinData is the operand of print, first and second.
type ExprBuiltinData struct {
	Arg ExprID
}
