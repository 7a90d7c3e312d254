package parser

import (
	"coral/internal/ast"
	"coral/internal/diag"
	"coral/internal/token"
)

// parseLet: let name = value; next
func (p *Parser) parseLet() (ast.ExprID, bool) {
	letTok := p.advance()
	nameTok, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected a name after 'let'")
	if !ok {
		return ast.NoExprID, false
	}
	if _, ok := p.expect(token.Assign, diag.SynExpectAssign, "expected '=' after let name"); !ok {
		return ast.NoExprID, false
	}
	value, ok := p.parseExpr()
	if !ok {
		return ast.NoExprID, false
	}
	if _, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after let value"); !ok {
		return ast.NoExprID, false
	}
	if p.atOr(token.EOF, token.RBrace, token.RParen) {
		p.reportWithNote(diag.SynExpectExpression, p.getDiagnosticSpan(),
			"expected an expression after the let binding", nameTok.Span, "'"+nameTok.Text+"' is bound here")
		return ast.NoExprID, false
	}
	next, ok := p.parseExpr()
	if !ok {
		return ast.NoExprID, false
	}
	span := letTok.Span.Cover(p.exprSpan(next))
	return p.arenas.Exprs.NewLet(span, nameTok.Text, nameTok.Span, value, next), true
}

// parseIf: if cond { then } else { otherwise } | else if ...
// Parentheses around the condition are ordinary grouping.
func (p *Parser) parseIf() (ast.ExprID, bool) {
	ifTok := p.advance()
	cond, ok := p.parseExpr()
	if !ok {
		return ast.NoExprID, false
	}
	if !p.at(token.LBrace) {
		p.err(diag.SynUnexpectedToken, "expected '{' after if condition, got "+describe(p.lx.Peek()))
		return ast.NoExprID, false
	}
	then, ok := p.parseBlock()
	if !ok {
		return ast.NoExprID, false
	}
	if !p.at(token.KwElse) {
		p.reportWithNote(diag.SynExpectElse, p.getDiagnosticSpan(),
			"expected 'else': every if is an expression and needs both branches", ifTok.Span, "if starts here")
		return ast.NoExprID, false
	}
	p.advance()

	var els ast.ExprID
	switch {
	case p.at(token.KwIf):
		els, ok = p.parseIf()
	case p.at(token.LBrace):
		els, ok = p.parseBlock()
	default:
		p.err(diag.SynUnexpectedToken, "expected '{' or 'if' after 'else', got "+describe(p.lx.Peek()))
		return ast.NoExprID, false
	}
	if !ok {
		return ast.NoExprID, false
	}
	return p.arenas.Exprs.NewIf(ifTok.Span.Cover(p.exprSpan(els)), cond, then, els), true
}

// parseFn: fn (a, b) => body
func (p *Parser) parseFn() (ast.ExprID, bool) {
	fnTok := p.advance()
	if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after 'fn'"); !ok {
		return ast.NoExprID, false
	}
	params := make([]ast.Param, 0, 2)
	for !p.at(token.RParen) {
		nameTok, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected parameter name")
		if !ok {
			return ast.NoExprID, false
		}
		params = append(params, ast.Param{Name: nameTok.Text, Span: nameTok.Span})
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' after parameters"); !ok {
		return ast.NoExprID, false
	}
	if _, ok := p.expect(token.FatArrow, diag.SynExpectFatArrow, "expected '=>' after parameter list"); !ok {
		return ast.NoExprID, false
	}
	body, ok := p.parseExpr()
	if !ok {
		return ast.NoExprID, false
	}
	return p.arenas.Exprs.NewFunction(fnTok.Span.Cover(p.exprSpan(body)), params, body), true
}

// parseBlock: { expr }. The block is transparent: its value is the inner
// expression, with the span widened to the braces.
func (p *Parser) parseBlock() (ast.ExprID, bool) {
	open := p.advance()
	inner, ok := p.parseExpr()
	if !ok {
		return ast.NoExprID, false
	}
	if _, ok := p.expect(token.RBrace, diag.SynUnclosedBrace, "expected '}'"); !ok {
		p.reportNoteOnly(open)
		return ast.NoExprID, false
	}
	return inner, true
}

func (p *Parser) reportNoteOnly(open token.Token) {
	if p.opts.Reporter == nil {
		return
	}
	p.opts.Reporter.Report(diag.SynInfo, diag.SevInfo, open.Span, "unclosed '"+open.Text+"' opened here", nil)
}
