package mir

import "coral/internal/source"

type TermKind uint8

const (
	TermNone TermKind = iota
	TermReturn
	TermGoto
	TermIf
	// TermTailCall ends the frame and forwards the callee's results.
	TermTailCall
	TermUnreachable
)

type Terminator struct {
	Kind TermKind
	Span source.Span

	Return   ReturnTerm
	Goto     GotoTerm
	If       IfTerm
	TailCall CallInstr
}

type ReturnTerm struct {
	Values []Operand
}

type GotoTerm struct {
	Target BlockID
}

type IfTerm struct {
	Cond Operand
	Then BlockID
	Else BlockID
}

// IsExit reports whether the terminator leaves the function.
func (t *Terminator) IsExit() bool {
	return t.Kind == TermReturn || t.Kind == TermTailCall
}

// Successors returns the blocks control may reach next.
func (t *Terminator) Successors() []BlockID {
	switch t.Kind {
	case TermGoto:
		return []BlockID{t.Goto.Target}
	case TermIf:
		return []BlockID{t.If.Then, t.If.Else}
	default:
		return nil
	}
}
