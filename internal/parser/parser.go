package parser

import (
	"slices"

	"coral/internal/ast"
	"coral/internal/diag"
	"coral/internal/lexer"
	"coral/internal/source"
	"coral/internal/token"
)

type Options struct {
	MaxErrors     uint
	CurrentErrors uint
	Reporter      diag.Reporter
}

// Enough reports whether the error limit has been reached.
func (o *Options) Enough() bool {
	if o.MaxErrors == 0 {
		return false
	}
	return o.CurrentErrors >= o.MaxErrors
}

type Result struct {
	File ast.FileID
	Bag  *diag.Bag
	OK   bool
}

// Parser holds the state for one file.
type Parser struct {
	lx       *lexer.Lexer
	arenas   *ast.Builder
	fs       *source.FileSet
	opts     Options
	lastSpan source.Span // span of the last consumed token, for diagnostics at EOF
}

// ParseFile parses a whole program: exactly one expression followed by EOF.
func ParseFile(fs *source.FileSet, lx *lexer.Lexer, arenas *ast.Builder, opts Options) Result {
	p := Parser{
		lx:     lx,
		arenas: arenas,
		fs:     fs,
		opts:   opts,
	}
	p.lastSpan = source.Span{File: lx.File().ID}

	startSpan := p.lx.Peek().Span
	root, ok := p.parseExpr()
	if ok && !p.at(token.EOF) {
		p.err(diag.SynTrailingInput, "unexpected "+describe(p.lx.Peek())+" after end of program")
		ok = false
	}

	var bag *diag.Bag
	if br, isBag := opts.Reporter.(*diag.BagReporter); isBag {
		bag = br.Bag
	}
	res := Result{Bag: bag, OK: ok && p.opts.CurrentErrors == 0}
	if !ok {
		return res
	}
	span := startSpan.Cover(p.arenas.Exprs.Get(root).Span)
	res.File = arenas.NewFile(lx.File().Path, span, root)
	return res
}

func (p *Parser) at(k token.Kind) bool {
	return p.lx.Peek().Kind == k
}

func (p *Parser) atOr(kinds ...token.Kind) bool {
	return slices.Contains(kinds, p.lx.Peek().Kind)
}

func (p *Parser) exprSpan(id ast.ExprID) source.Span {
	return p.arenas.Exprs.Get(id).Span
}

func describe(tok token.Token) string {
	switch tok.Kind {
	case token.EOF:
		return "end of file"
	case token.Ident:
		return "identifier '" + tok.Text + "'"
	case token.IntLit, token.StringLit:
		return "literal " + tok.Text
	}
	return "'" + tok.Text + "'"
}
