package ast

// Children returns the direct sub-expressions of id in evaluation order.
func (e *Exprs) Children(id ExprID) []ExprID {
	expr := e.Get(id)
	if expr == nil {
		return nil
	}
	switch expr.Kind {
	case ExprTuple:
		t, _ := e.Tuple(id)
		return []ExprID{t.First, t.Second}
	case ExprLet:
		l, _ := e.Let(id)
		return []ExprID{l.Value, l.Next}
	case ExprIf:
		i, _ := e.If(id)
		return []ExprID{i.Cond, i.Then, i.Else}
	case ExprFunction:
		f, _ := e.Function(id)
		return []ExprID{f.Body}
	case ExprCall:
		c, _ := e.Call(id)
		out := make([]ExprID, 0, len(c.Args)+1)
		out = append(out, c.Callee)
		return append(out, c.Args...)
	case ExprBinary:
		b, _ := e.Binary(id)
		return []ExprID{b.Left, b.Right}
	case ExprPrint, ExprFirst, ExprSecond:
		b, _ := e.Builtin(id)
		return []ExprID{b.Arg}
	}
	return nil
}

// Walk visits id and its descendants in pre-order. Returning false from
// visit skips the children of that node.
func (e *Exprs) Walk(id ExprID, visit func(ExprID) bool) {
	if !id.IsValid() || !visit(id) {
		return
	}
	for _, child := range e.Children(id) {
		e.Walk(child, visit)
	}
}
