package runtime

import "fmt"

// FatalKind classifies runtime failures. Codes are stable.
type FatalKind uint8

const (
	FatalType FatalKind = iota + 1
	FatalArity
	FatalDivision
	FatalDoubleFree
	FatalUseAfterFree
	FatalScope
	FatalLeak
	FatalStackOverflow
	FatalIO
)

// Code is the numeric code reported by the interpreter (VM1001 and so on).
func (k FatalKind) Code() int {
	return 1000 + int(k)
}

func (k FatalKind) prefix() string {
	switch k {
	case FatalType:
		return "TypeError"
	case FatalArity:
		return "ArityError"
	case FatalDivision:
		return "DivisionError"
	case FatalDoubleFree, FatalUseAfterFree, FatalLeak:
		return "MemoryError"
	case FatalStackOverflow:
		return "RecursionError"
	case FatalIO:
		return "IOError"
	default:
		return "InternalError"
	}
}

// Fatal is the panic value of every runtime failure.
type Fatal struct {
	Kind FatalKind
	Msg  string
}

func (f *Fatal) Error() string {
	return f.Kind.prefix() + ": " + f.Msg
}

// Fatalf panics with a *Fatal.
func Fatalf(kind FatalKind, format string, args ...any) {
	panic(&Fatal{Kind: kind, Msg: fmt.Sprintf(format, args...)})
}

func article(name string) string {
	switch name {
	case "int", "undefined":
		return "an " + name
	}
	return "a " + name
}

// ExpectedMessage is the text of a failed checked unbox.
func ExpectedMessage(want, got string) string {
	return "expected " + article(want) + ", but got " + got
}
