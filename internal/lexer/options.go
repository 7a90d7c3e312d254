package lexer

import (
	"coral/internal/diag"
	"coral/internal/source"
)

type Options struct {
	Reporter diag.Reporter // nil drops diagnostics, lexing continues
}

func (lx *Lexer) errLex(code diag.Code, sp source.Span, msg string) {
	if lx.opts.Reporter != nil {
		lx.opts.Reporter.Report(code, diag.SevError, sp, msg, nil)
	}
}
