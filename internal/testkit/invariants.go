// Package testkit holds helpers shared by package tests: span invariants
// over parsed programs and markdown-driven program scenarios.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"coral/internal/ast"
	"coral/internal/source"
)

// CheckSpanInvariants checks the spans of a parsed file:
// the file span lies within the content, the root expression is non-empty
// and inside the file span, and every expression of the file is inside
// the file span with Start <= End.
func CheckSpanInvariants(b *ast.Builder, fileID ast.FileID, sf *source.File) error {
	if b == nil || sf == nil {
		return fmt.Errorf("nil builder or file")
	}
	f := b.Files.Get(fileID)
	if f == nil {
		return fmt.Errorf("file node not found")
	}

	if f.Span.End <= f.Span.Start {
		return fmt.Errorf("file span is empty: %v", f.Span)
	}
	if f.Span.File != sf.ID {
		return fmt.Errorf("file span points to different file id: got=%d want=%d", f.Span.File, sf.ID)
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	if f.Span.End > lenContent {
		return fmt.Errorf("file span end beyond content: %d > %d", f.Span.End, lenContent)
	}

	root := b.Exprs.Get(f.Root)
	if root == nil {
		return fmt.Errorf("file has no root expression")
	}
	if root.Span.End <= root.Span.Start {
		return fmt.Errorf("empty root span: %v", root.Span)
	}

	for id := uint32(1); id <= b.Exprs.Len(); id++ {
		e := b.Exprs.Get(ast.ExprID(id))
		if e == nil || e.Span.File != sf.ID {
			continue
		}
		sp := e.Span
		if sp.End < sp.Start {
			return fmt.Errorf("inverted span for expr %d: %v", id, sp)
		}
		if sp.Start < f.Span.Start || sp.End > f.Span.End {
			return fmt.Errorf("expr %d span %v is outside file span %v", id, sp, f.Span)
		}
	}
	return nil
}
