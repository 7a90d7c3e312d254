package runtime

import (
	"strconv"
	"strings"
)

func typePair(op string, a, b Value) {
	Fatalf(FatalType, "'%s' cannot be applied between %s and %s", op, a.TypeName(), b.TypeName())
}

func bothInts(a, b Value) bool { return a.Tag == TagInt && b.Tag == TagInt }

// Add sums ints and concatenates as soon as one side is a string.
func (rt *Runtime) Add(a, b Value) Value {
	switch {
	case bothInts(a, b):
		return IntValue(a.N + b.N)
	case (a.Tag == TagStr || a.Tag == TagInt) && (b.Tag == TagStr || b.Tag == TagInt):
		return rt.NewString(rt.text(a)+rt.text(b), true)
	}
	Fatalf(FatalType, "'+' cannot be applied between %s and %s", a.TypeName(), b.TypeName())
	return Undefined
}

// text is the concatenation form: decimal for ints, raw bytes for strings.
func (rt *Runtime) text(v Value) string {
	if v.Tag == TagInt {
		return strconv.FormatInt(v.N, 10)
	}
	return rt.Get(v).Str
}

func (rt *Runtime) Sub(a, b Value) Value {
	if !bothInts(a, b) {
		typePair("-", a, b)
	}
	return IntValue(a.N - b.N)
}

func (rt *Runtime) Mul(a, b Value) Value {
	if !bothInts(a, b) {
		typePair("*", a, b)
	}
	return IntValue(a.N * b.N)
}

// Div truncates toward zero.
func (rt *Runtime) Div(a, b Value) Value {
	if !bothInts(a, b) {
		typePair("/", a, b)
	}
	return IntValue(DivInt(a.N, b.N))
}

// Mod satisfies a == b*(a/b) + a%b.
func (rt *Runtime) Mod(a, b Value) Value {
	if !bothInts(a, b) {
		typePair("%", a, b)
	}
	return IntValue(RemInt(a.N, b.N))
}

// DivInt is the checked native division. MinInt64 / -1 wraps.
func DivInt(a, b int64) int64 {
	if b == 0 {
		Fatalf(FatalDivision, "division by zero")
	}
	if b == -1 {
		return -a
	}
	return a / b
}

// RemInt is the checked native remainder.
func RemInt(a, b int64) int64 {
	if b == 0 {
		Fatalf(FatalDivision, "division by zero")
	}
	if b == -1 {
		return 0
	}
	return a % b
}

func (rt *Runtime) compare(op string, a, b Value, ok func(x, y int64) bool) Value {
	if !bothInts(a, b) {
		typePair(op, a, b)
	}
	return BoolValue(ok(a.N, b.N))
}

func (rt *Runtime) Lt(a, b Value) Value {
	return rt.compare("<", a, b, func(x, y int64) bool { return x < y })
}

func (rt *Runtime) Le(a, b Value) Value {
	return rt.compare("<=", a, b, func(x, y int64) bool { return x <= y })
}

func (rt *Runtime) Gt(a, b Value) Value {
	return rt.compare(">", a, b, func(x, y int64) bool { return x > y })
}

func (rt *Runtime) Ge(a, b Value) Value {
	return rt.compare(">=", a, b, func(x, y int64) bool { return x >= y })
}

// Eq compares ints, bools and strings; anything else is a type error.
func (rt *Runtime) Eq(a, b Value) Value {
	switch {
	case bothInts(a, b), a.Tag == TagBool && b.Tag == TagBool:
		return BoolValue(a.N == b.N)
	case a.Tag == TagStr && b.Tag == TagStr:
		sa, sb := rt.Get(a).Str, rt.Get(b).Str
		return BoolValue(len(sa) == len(sb) && sa == sb)
	}
	Fatalf(FatalType, "equality cannot be applied between %s and %s", a.TypeName(), b.TypeName())
	return Undefined
}

func (rt *Runtime) Ne(a, b Value) Value {
	return BoolValue(!rt.Eq(a, b).Bool())
}

func (rt *Runtime) And(a, b Value) Value {
	if a.Tag != TagBool || b.Tag != TagBool {
		typePair("&&", a, b)
	}
	return BoolValue(a.Bool() && b.Bool())
}

func (rt *Runtime) Or(a, b Value) Value {
	if a.Tag != TagBool || b.Tag != TagBool {
		typePair("||", a, b)
	}
	return BoolValue(a.Bool() || b.Bool())
}

// First returns a new owned reference to the first member.
func (rt *Runtime) First(v Value) Value {
	if v.Tag != TagPair {
		Fatalf(FatalType, "'first' cannot be applied to %s", v.TypeName())
	}
	m := rt.Get(v).First
	rt.Incref(m)
	return m
}

// Second returns a new owned reference to the second member.
func (rt *Runtime) Second(v Value) Value {
	if v.Tag != TagPair {
		Fatalf(FatalType, "'second' cannot be applied to %s", v.TypeName())
	}
	m := rt.Get(v).Second
	rt.Incref(m)
	return m
}

// UnboxInt checks the tag and returns the payload.
func (rt *Runtime) UnboxInt(v Value) int64 {
	if v.Tag != TagInt {
		Fatalf(FatalType, "%s", ExpectedMessage("int", v.TypeName()))
	}
	return v.N
}

// UnboxBool checks the tag and returns the payload.
func (rt *Runtime) UnboxBool(v Value) bool {
	if v.Tag != TagBool {
		Fatalf(FatalType, "%s", ExpectedMessage("bool", v.TypeName()))
	}
	return v.Bool()
}

// CheckCall validates a dynamic call and returns the callee object.
func (rt *Runtime) CheckCall(fn Value, argc int) *Object {
	if fn.Tag != TagFunction {
		Fatalf(FatalType, "%s is not a callable", fn.TypeName())
	}
	obj := rt.Get(fn)
	if obj.Arity != argc {
		Fatalf(FatalArity, "function expects %d arguments, but got %d", obj.Arity, argc)
	}
	return obj
}

// Capture borrows captured slot i of a closure.
func (rt *Runtime) Capture(fn Value, i int) Value {
	obj := rt.Get(fn)
	if i < 0 || i >= len(obj.Captured) {
		Fatalf(FatalScope, "capture %d out of range for closure with %d slots", i, len(obj.Captured))
	}
	return obj.Captured[i]
}

// Repr renders v the way print shows it.
func (rt *Runtime) Repr(v Value) string {
	var sb strings.Builder
	rt.repr(&sb, v)
	return sb.String()
}

func (rt *Runtime) repr(sb *strings.Builder, v Value) {
	switch v.Tag {
	case TagInt:
		sb.WriteString(strconv.FormatInt(v.N, 10))
	case TagBool:
		sb.WriteString(strconv.FormatBool(v.Bool()))
	case TagStr:
		sb.WriteByte('"')
		sb.WriteString(rt.Get(v).Str)
		sb.WriteByte('"')
	case TagPair:
		obj := rt.Get(v)
		sb.WriteByte('(')
		rt.repr(sb, obj.First)
		sb.WriteString(", ")
		rt.repr(sb, obj.Second)
		sb.WriteByte(')')
	case TagFunction:
		sb.WriteString("<#closure>")
	default:
		sb.WriteString("undefined")
	}
}
