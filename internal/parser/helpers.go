package parser

import (
	"coral/internal/diag"
	"coral/internal/source"
	"coral/internal/token"
)

// advance consumes the next token and remembers its span.
func (p *Parser) advance() token.Token {
	tok := p.lx.Next()
	if tok.Kind != token.EOF && tok.Kind != token.Invalid {
		p.lastSpan = tok.Span
	}
	return tok
}

// getDiagnosticSpan points at the next token, or just after the last
// consumed one when the next token is EOF.
func (p *Parser) getDiagnosticSpan() source.Span {
	peek := p.lx.Peek()
	if peek.Kind == token.EOF && p.lastSpan.End > 0 {
		return source.Span{File: p.lastSpan.File, Start: p.lastSpan.End, End: p.lastSpan.End}
	}
	return peek.Span
}

// expect consumes a token of kind k or reports code with msg.
func (p *Parser) expect(k token.Kind, code diag.Code, msg string) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	diagSpan := p.getDiagnosticSpan()
	p.report(code, diag.SevError, diagSpan, msg+", got "+describe(p.lx.Peek()))
	return token.Token{Kind: token.Invalid, Span: diagSpan, Text: p.lx.Peek().Text}, false
}

func (p *Parser) err(code diag.Code, msg string) bool {
	return p.report(code, diag.SevError, p.getDiagnosticSpan(), msg)
}

func (p *Parser) report(code diag.Code, sev diag.Severity, sp source.Span, msg string) bool {
	if sev == diag.SevError {
		p.opts.CurrentErrors++
	}
	if p.opts.Reporter == nil {
		return false
	}
	if sev == diag.SevError && p.opts.MaxErrors > 0 && p.opts.CurrentErrors > p.opts.MaxErrors {
		return false
	}
	p.opts.Reporter.Report(code, sev, sp, msg, nil)
	return true
}

func (p *Parser) reportWithNote(code diag.Code, sp source.Span, msg string, noteSpan source.Span, note string) {
	p.opts.CurrentErrors++
	if p.opts.Reporter == nil {
		return
	}
	p.opts.Reporter.Report(code, diag.SevError, sp, msg, []diag.Note{{Span: noteSpan, Msg: note}})
}
