package lexer

import (
	"fmt"
	"strings"

	"coral/internal/diag"
	"coral/internal/token"

	"golang.org/x/text/unicode/norm"
)

// scanString scans a double-quoted literal. Token.Text keeps the raw source
// including quotes; escapes are validated here and decoded by Unquote.
// Literals may span lines.
func (lx *Lexer) scanString() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump() // opening '"'
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		if b == '"' {
			lx.cursor.Bump()
			sp := lx.cursor.SpanFrom(start)
			return token.Token{Kind: token.StringLit, Span: sp, Text: string(lx.file.Content[sp.Start:sp.End])}
		}
		if b == '\\' {
			escStart := lx.cursor.Mark()
			lx.cursor.Bump()
			if lx.cursor.EOF() {
				break
			}
			esc, _ := lx.peekRune()
			lx.bumpRune()
			if _, ok := escapeValue(esc); !ok {
				lx.errLex(diag.LexBadEscape, lx.cursor.SpanFrom(escStart), fmt.Sprintf("invalid escape sequence '\\%c'", esc))
			}
			continue
		}
		lx.cursor.Bump()
	}
	sp := lx.cursor.SpanFrom(start)
	lx.errLex(diag.LexUnterminatedString, sp, "unterminated string literal")
	return token.Token{Kind: token.Invalid, Span: sp, Text: string(lx.file.Content[sp.Start:sp.End])}
}

func escapeValue(r rune) (byte, bool) {
	switch r {
	case 'n':
		return '\n', true
	case 't':
		return '\t', true
	case 'r':
		return '\r', true
	case '"':
		return '"', true
	case '\\':
		return '\\', true
	case '0':
		return 0, true
	}
	return 0, false
}

// Unquote decodes the body of a StringLit token text and returns the
// NFC-normalized value. Unknown escapes are kept verbatim; the lexer has
// already reported them.
func Unquote(text string) string {
	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' {
		text = text[1 : len(text)-1]
	}
	if !strings.ContainsRune(text, '\\') {
		return norm.NFC.String(text)
	}
	var sb strings.Builder
	sb.Grow(len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '\\' || i+1 >= len(text) {
			sb.WriteByte(c)
			continue
		}
		i++
		if v, ok := escapeValue(rune(text[i])); ok {
			sb.WriteByte(v)
			continue
		}
		sb.WriteByte('\\')
		sb.WriteByte(text[i])
	}
	return norm.NFC.String(sb.String())
}
