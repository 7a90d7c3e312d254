package parser

import (
	"coral/internal/ast"
	"coral/internal/diag"
	"coral/internal/token"
)

// parseExpr parses a term: let, if, fn or a binary expression.
func (p *Parser) parseExpr() (ast.ExprID, bool) {
	switch p.lx.Peek().Kind {
	case token.KwLet:
		return p.parseLet()
	case token.KwIf:
		return p.parseIf()
	case token.KwFn:
		return p.parseFn()
	}
	return p.parseBinaryExpr(0)
}

// parseBinaryExpr is precedence climbing over op_table.
func (p *Parser) parseBinaryExpr(minPrec int) (ast.ExprID, bool) {
	left, ok := p.parseUnaryExpr()
	if !ok {
		return ast.NoExprID, false
	}

	for {
		prec := binaryPrec(p.lx.Peek().Kind)
		if prec < minPrec || prec < 0 {
			break
		}
		opTok := p.advance()

		right, ok := p.parseBinaryExpr(prec + 1)
		if !ok {
			return ast.NoExprID, false
		}
		op, _ := ast.BinaryOpFromToken(opTok.Kind)
		span := p.exprSpan(left).Cover(p.exprSpan(right))
		left = p.arenas.Exprs.NewBinary(span, op, left, right)
	}
	return left, true
}

// parseUnaryExpr handles prefix minus: a literal is negated in place,
// anything else becomes 0 - operand.
func (p *Parser) parseUnaryExpr() (ast.ExprID, bool) {
	if !p.at(token.Minus) {
		return p.parsePostfixExpr()
	}
	minus := p.advance()
	if p.at(token.IntLit) {
		lit := p.advance()
		v, ok := parseIntLiteral(lit.Text, true)
		if !ok {
			p.report(diag.LexIntOverflow, diag.SevError, minus.Span.Cover(lit.Span), "integer literal -"+lit.Text+" overflows a 64-bit integer")
			return ast.NoExprID, false
		}
		return p.parsePostfixFrom(p.arenas.Exprs.NewInt(minus.Span.Cover(lit.Span), v))
	}
	operand, ok := p.parseUnaryExpr()
	if !ok {
		return ast.NoExprID, false
	}
	zero := p.arenas.Exprs.NewInt(minus.Span, 0)
	return p.arenas.Exprs.NewBinary(minus.Span.Cover(p.exprSpan(operand)), ast.OpSub, zero, operand), true
}

func (p *Parser) parsePostfixExpr() (ast.ExprID, bool) {
	base, ok := p.parsePrimary()
	if !ok {
		return ast.NoExprID, false
	}
	return p.parsePostfixFrom(base)
}

// parsePostfixFrom parses call suffixes: f(a)(b).
func (p *Parser) parsePostfixFrom(callee ast.ExprID) (ast.ExprID, bool) {
	for p.at(token.LParen) {
		p.advance()
		args, ok := p.parseArgs()
		if !ok {
			return ast.NoExprID, false
		}
		closeTok, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' to close the argument list")
		if !ok {
			return ast.NoExprID, false
		}
		callee = p.arenas.Exprs.NewCall(p.exprSpan(callee).Cover(closeTok.Span), callee, args)
	}
	return callee, true
}

func (p *Parser) parseArgs() ([]ast.ExprID, bool) {
	args := make([]ast.ExprID, 0, 2)
	if p.at(token.RParen) {
		return args, true
	}
	for {
		arg, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		args = append(args, arg)
		if !p.at(token.Comma) {
			return args, true
		}
		p.advance()
	}
}
