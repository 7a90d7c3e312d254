package ast

import (
	"coral/internal/source"
)

type Hints struct{ Files, Exprs uint }

type Builder struct {
	Files *Files
	Exprs *Exprs
}

func NewBuilder(hints Hints) *Builder {
	if hints.Files == 0 {
		hints.Files = 1 << 2
	}
	if hints.Exprs == 0 {
		hints.Exprs = 1 << 8
	}
	return &Builder{
		Files: NewFiles(hints.Files),
		Exprs: NewExprs(hints.Exprs),
	}
}

func (b *Builder) NewFile(name string, sp source.Span, root ExprID) FileID {
	return b.Files.New(name, sp, root)
}
