package lexer

import (
	"strconv"

	"coral/internal/diag"
	"coral/internal/token"
)

// scanNumber scans a decimal integer literal. The value must fit in a
// signed 64-bit integer; a leading '-' is handled by the parser.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()
	for isDec(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}

	// "12abc" is one bad literal, not two tokens
	if isIdentStartByte(lx.cursor.Peek()) {
		for isIdentContinueByte(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
		sp := lx.cursor.SpanFrom(start)
		text := string(lx.file.Content[sp.Start:sp.End])
		lx.errLex(diag.LexBadNumber, sp, "invalid digit in number literal "+strconv.Quote(text))
		return token.Token{Kind: token.Invalid, Span: sp, Text: text}
	}

	sp := lx.cursor.SpanFrom(start)
	text := string(lx.file.Content[sp.Start:sp.End])
	if _, err := strconv.ParseUint(text, 10, 64); err != nil || !fitsInt64(text) {
		// 9223372036854775808 is accepted so that -9223372036854775808 parses
		if text != minInt64Magnitude {
			lx.errLex(diag.LexIntOverflow, sp, "integer literal "+text+" overflows a 64-bit integer")
			return token.Token{Kind: token.Invalid, Span: sp, Text: text}
		}
	}
	return token.Token{Kind: token.IntLit, Span: sp, Text: text}
}

const minInt64Magnitude = "9223372036854775808"

func fitsInt64(text string) bool {
	_, err := strconv.ParseInt(text, 10, 64)
	return err == nil
}
