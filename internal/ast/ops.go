package ast

import "coral/internal/token"

type BinaryOp uint8

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpRem
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpAnd
	OpOr
)

var binaryOpInfo = [...]struct {
	name   string
	symbol string
}{
	OpAdd: {"Add", "+"},
	OpSub: {"Sub", "-"},
	OpMul: {"Mul", "*"},
	OpDiv: {"Div", "/"},
	OpRem: {"Rem", "%"},
	OpEq:  {"Eq", "=="},
	OpNeq: {"Neq", "!="},
	OpLt:  {"Lt", "<"},
	OpLte: {"Lte", "<="},
	OpGt:  {"Gt", ">"},
	OpGte: {"Gte", ">="},
	OpAnd: {"And", "&&"},
	OpOr:  {"Or", "||"},
}

// String returns the source symbol of the operator.
func (op BinaryOp) String() string {
	if int(op) < len(binaryOpInfo) {
		return binaryOpInfo[op].symbol
	}
	return "?"
}

// Name returns the rinha JSON operator name ("Add", "Lte", ...).
func (op BinaryOp) Name() string {
	if int(op) < len(binaryOpInfo) {
		return binaryOpInfo[op].name
	}
	return ""
}

// BinaryOpByName is the inverse of Name.
func BinaryOpByName(name string) (BinaryOp, bool) {
	for i, info := range binaryOpInfo {
		if info.name == name {
			return BinaryOp(i), true
		}
	}
	return 0, false
}

// IsArith reports whether op is + - * / %.
func (op BinaryOp) IsArith() bool { return op <= OpRem }

// IsCompare reports whether op is an ordering comparison.
func (op BinaryOp) IsCompare() bool { return op >= OpLt && op <= OpGte }

// IsEquality reports whether op is == or !=.
func (op BinaryOp) IsEquality() bool { return op == OpEq || op == OpNeq }

// IsLogical reports whether op is && or ||.
func (op BinaryOp) IsLogical() bool { return op == OpAnd || op == OpOr }

// BinaryOpFromToken maps an operator token to its BinaryOp.
func BinaryOpFromToken(k token.Kind) (BinaryOp, bool) {
	switch k {
	case token.Plus:
		return OpAdd, true
	case token.Minus:
		return OpSub, true
	case token.Star:
		return OpMul, true
	case token.Slash:
		return OpDiv, true
	case token.Percent:
		return OpRem, true
	case token.EqEq:
		return OpEq, true
	case token.BangEq:
		return OpNeq, true
	case token.Lt:
		return OpLt, true
	case token.LtEq:
		return OpLte, true
	case token.Gt:
		return OpGt, true
	case token.GtEq:
		return OpGte, true
	case token.AndAnd:
		return OpAnd, true
	case token.OrOr:
		return OpOr, true
	}
	return 0, false
}
