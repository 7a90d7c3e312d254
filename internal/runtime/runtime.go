package runtime

import (
	"io"
	"os"
)

// Runtime bundles the heap with the program's output stream.
type Runtime struct {
	*Heap
	out io.Writer
}

// New creates a runtime printing to out (stdout when nil).
func New(out io.Writer) *Runtime {
	if out == nil {
		out = os.Stdout
	}
	return &Runtime{Heap: NewHeap(), out: out}
}

// Print writes the repr of v and a newline. Each call is one write.
func (rt *Runtime) Print(v Value) {
	line := rt.Repr(v) + "\n"
	if _, err := io.WriteString(rt.out, line); err != nil {
		Fatalf(FatalIO, "print: %v", err)
	}
}
