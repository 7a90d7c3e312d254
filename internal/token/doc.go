// Package token defines lexical token kinds and trivia for the coral front end.
// Invariants:
//   - Token.Text is the exact source slice of the token.
//   - Token.Span covers Text exactly.
//   - Whitespace and comments never appear in the token stream; they are
//     attached to the following token as leading Trivia.
//   - print, first and second are keywords: they are builtin forms, not
//     callable values.
package token
