// Package rinhajson reads and writes the rinha JSON AST format:
//
//	{"name": "fib.rinha", "expression": {"kind": "Let", ...}, "location": {...}}
//
// Every node carries a "location" with byte offsets into the original
// source file. Load maps those offsets onto the FileID given in Options so
// diagnostics for JSON programs still point at real source when it is
// available.
package rinhajson
