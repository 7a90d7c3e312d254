package ast

import (
	"coral/internal/source"
)

// File is one program: a single root expression.
type File struct {
	Name   string
	Source source.FileID
	Span   source.Span
	Root   ExprID
}

type Files struct {
	Arena *Arena[File]
}

func NewFiles(capHint uint) *Files {
	return &Files{
		Arena: NewArena[File](capHint),
	}
}

func (f *Files) New(name string, sp source.Span, root ExprID) FileID {
	return FileID(f.Arena.Allocate(File{
		Name:   name,
		Source: sp.File,
		Span:   sp,
		Root:   root,
	}))
}

func (f *Files) Get(id FileID) *File {
	return f.Arena.Get(uint32(id))
}
