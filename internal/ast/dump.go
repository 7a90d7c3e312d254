package ast

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Dump writes an indented tree of id, one node per line.
func (e *Exprs) Dump(w io.Writer, id ExprID) error {
	var sb strings.Builder
	e.dump(&sb, id, 0)
	_, err := io.WriteString(w, sb.String())
	return err
}

// DumpString is Dump into a string.
func (e *Exprs) DumpString(id ExprID) string {
	var sb strings.Builder
	e.dump(&sb, id, 0)
	return sb.String()
}

func (e *Exprs) dump(sb *strings.Builder, id ExprID, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	expr := e.Get(id)
	if expr == nil {
		sb.WriteString("<missing>\n")
		return
	}
	sb.WriteString(expr.Kind.String())
	switch expr.Kind {
	case ExprInt:
		d, _ := e.Int(id)
		fmt.Fprintf(sb, " %d", d.Value)
	case ExprStr:
		d, _ := e.Str(id)
		sb.WriteString(" " + strconv.Quote(d.Value))
	case ExprBool:
		d, _ := e.Bool(id)
		fmt.Fprintf(sb, " %t", d.Value)
	case ExprVar:
		d, _ := e.Var(id)
		sb.WriteString(" " + d.Name)
	case ExprLet:
		d, _ := e.Let(id)
		sb.WriteString(" " + d.Name)
	case ExprFunction:
		d, _ := e.Function(id)
		names := make([]string, len(d.Params))
		for i, p := range d.Params {
			names[i] = p.Name
		}
		sb.WriteString(" (" + strings.Join(names, ", ") + ")")
	case ExprBinary:
		d, _ := e.Binary(id)
		sb.WriteString(" " + d.Op.String())
	}
	sb.WriteByte('\n')
	for _, child := range e.Children(id) {
		e.dump(sb, child, depth+1)
	}
}
