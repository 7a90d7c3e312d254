package vm

import (
	"fmt"
	"strings"

	"coral/internal/runtime"
	"coral/internal/source"
)

// PanicCode identifies the type of VM panic.
type PanicCode int

// Stable panic codes - do not change values. Runtime failures use
// 1000 + runtime.FatalKind.
const (
	PanicTypeError     = PanicCode(1000 + int(runtime.FatalType))         // VM1001
	PanicArityError    = PanicCode(1000 + int(runtime.FatalArity))        // VM1002
	PanicDivision      = PanicCode(1000 + int(runtime.FatalDivision))     // VM1003
	PanicDoubleFree    = PanicCode(1000 + int(runtime.FatalDoubleFree))   // VM1004
	PanicUseAfterFree  = PanicCode(1000 + int(runtime.FatalUseAfterFree)) // VM1005
	PanicScope         = PanicCode(1000 + int(runtime.FatalScope))        // VM1006
	PanicLeak          = PanicCode(1000 + int(runtime.FatalLeak))         // VM1007
	PanicStackOverflow = PanicCode(1000 + int(runtime.FatalStackOverflow))
	PanicIO            = PanicCode(1000 + int(runtime.FatalIO))
	PanicUnimplemented PanicCode = 1999 // VM1999: malformed MIR
)

// String returns the code as "VM1001" format.
func (c PanicCode) String() string {
	return fmt.Sprintf("VM%d", c)
}

// BacktraceFrame represents one frame in the panic backtrace.
type BacktraceFrame struct {
	FuncName string
	Span     source.Span
}

// VMError represents a runtime failure of the program.
type VMError struct {
	Code PanicCode
	// Message is what the program reports, e.g. "DivisionError: division by zero".
	Message   string
	Span      source.Span      // Location where panic occurred
	Backtrace []BacktraceFrame // Stack frames from top to bottom
}

// Error implements the error interface.
func (p *VMError) Error() string {
	return fmt.Sprintf("panic %s: %s", p.Code, p.Message)
}

// FormatWithFiles formats the panic with resolved file:line:col information.
func (p *VMError) FormatWithFiles(files *source.FileSet) string {
	var sb strings.Builder

	// Header: panic VM1003: DivisionError: division by zero
	fmt.Fprintf(&sb, "panic %s: %s\n", p.Code, p.Message)

	sb.WriteString("at ")
	sb.WriteString(formatSpan(p.Span, files))
	sb.WriteString("\n")

	if len(p.Backtrace) > 0 {
		sb.WriteString("backtrace:\n")
		for i, frame := range p.Backtrace {
			fmt.Fprintf(&sb, "  %d: %s at %s\n", i, frame.FuncName, formatSpan(frame.Span, files))
		}
	}

	return sb.String()
}

// formatSpan formats a span as "file:line:col" or "<no-span>" if empty.
func formatSpan(span source.Span, files *source.FileSet) string {
	if files == nil || (span.Start == 0 && span.End == 0) {
		return "<no-span>"
	}

	file := files.Get(span.File)
	if file == nil {
		return "<no-span>"
	}

	start, _ := files.Resolve(span)
	return fmt.Sprintf("%s:%d:%d", file.Path, start.Line, start.Col)
}

// errorBuilder helps construct VMError values.
type errorBuilder struct {
	vm *VM
}

func (eb *errorBuilder) makeError(code PanicCode, msg string) *VMError {
	e := &VMError{
		Code:    code,
		Message: msg,
	}
	stack := eb.vm.Stack

	if len(stack) > 0 {
		e.Span = stack[len(stack)-1].Span
	}

	// top to bottom
	e.Backtrace = make([]BacktraceFrame, len(stack))
	for i := len(stack) - 1; i >= 0; i-- {
		frame := &stack[i]
		e.Backtrace[len(stack)-1-i] = BacktraceFrame{
			FuncName: frame.Func.Name,
			Span:     frame.Span,
		}
	}

	return e
}

func (eb *errorBuilder) fatal(f *runtime.Fatal) *VMError {
	return eb.makeError(PanicCode(f.Kind.Code()), f.Error())
}

func (eb *errorBuilder) unimplemented(what string) *VMError {
	return eb.makeError(PanicUnimplemented, fmt.Sprintf("unimplemented: %s", what))
}
