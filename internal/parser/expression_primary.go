package parser

import (
	"strconv"

	"coral/internal/ast"
	"coral/internal/diag"
	"coral/internal/lexer"
	"coral/internal/token"
)

func (p *Parser) parsePrimary() (ast.ExprID, bool) {
	ex := p.arenas.Exprs
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.IntLit:
		p.advance()
		v, ok := parseIntLiteral(tok.Text, false)
		if !ok {
			p.report(diag.LexIntOverflow, diag.SevError, tok.Span, "integer literal "+tok.Text+" overflows a 64-bit integer")
			return ast.NoExprID, false
		}
		return ex.NewInt(tok.Span, v), true

	case token.StringLit:
		p.advance()
		return ex.NewStr(tok.Span, lexer.Unquote(tok.Text)), true

	case token.KwTrue, token.KwFalse:
		p.advance()
		return ex.NewBool(tok.Span, tok.Kind == token.KwTrue), true

	case token.Ident:
		p.advance()
		return ex.NewVar(tok.Span, tok.Text), true

	case token.KwPrint, token.KwFirst, token.KwSecond:
		return p.parseBuiltin()

	case token.LParen:
		return p.parseParenOrTuple()

	case token.LBrace:
		return p.parseBlock()

	case token.KwLet, token.KwIf, token.KwFn:
		// let/if/fn are terms; as operands they need braces or parentheses
		return p.parseExpr()

	case token.Invalid:
		// the lexer has already reported it
		p.advance()
		p.opts.CurrentErrors++
		return ast.NoExprID, false
	}
	p.err(diag.SynExpectExpression, "expected an expression, got "+describe(tok))
	return ast.NoExprID, false
}

// parseBuiltin: print(e) | first(e) | second(e)
func (p *Parser) parseBuiltin() (ast.ExprID, bool) {
	kw := p.advance()
	kind := map[token.Kind]ast.ExprKind{
		token.KwPrint:  ast.ExprPrint,
		token.KwFirst:  ast.ExprFirst,
		token.KwSecond: ast.ExprSecond,
	}[kw.Kind]
	if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after '"+kw.Text+"'"); !ok {
		return ast.NoExprID, false
	}
	arg, ok := p.parseExpr()
	if !ok {
		return ast.NoExprID, false
	}
	if p.at(token.Comma) {
		p.err(diag.SynUnexpectedToken, "'"+kw.Text+"' takes exactly one argument")
		return ast.NoExprID, false
	}
	closeTok, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' after '"+kw.Text+"' argument")
	if !ok {
		return ast.NoExprID, false
	}
	return p.arenas.Exprs.NewBuiltin(kind, kw.Span.Cover(closeTok.Span), arg), true
}

// parseParenOrTuple: (e) groups, (a, b) builds a pair.
func (p *Parser) parseParenOrTuple() (ast.ExprID, bool) {
	open := p.advance()
	first, ok := p.parseExpr()
	if !ok {
		return ast.NoExprID, false
	}
	if !p.at(token.Comma) {
		if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')'"); !ok {
			p.reportNoteOnly(open)
			return ast.NoExprID, false
		}
		return first, true
	}
	p.advance()
	second, ok := p.parseExpr()
	if !ok {
		return ast.NoExprID, false
	}
	if p.at(token.Comma) {
		p.err(diag.SynUnexpectedToken, "tuples have exactly two elements")
		return ast.NoExprID, false
	}
	closeTok, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' to close the tuple")
	if !ok {
		return ast.NoExprID, false
	}
	return p.arenas.Exprs.NewTuple(open.Span.Cover(closeTok.Span), first, second), true
}

// parseIntLiteral converts a decimal literal; negative allows the magnitude
// of the minimum int64.
func parseIntLiteral(text string, negative bool) (int64, bool) {
	if negative {
		v, err := strconv.ParseInt("-"+text, 10, 64)
		return v, err == nil
	}
	v, err := strconv.ParseInt(text, 10, 64)
	return v, err == nil
}
