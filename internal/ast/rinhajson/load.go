package rinhajson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"coral/internal/ast"
	"coral/internal/diag"
	"coral/internal/source"

	"golang.org/x/text/unicode/norm"
)

type Options struct {
	Reporter diag.Reporter
	// Source is the file node locations refer to. When the original source
	// is unavailable this is the JSON file itself.
	Source source.FileID
	// Name overrides the "name" field of the document.
	Name string
}

type location struct {
	Start    uint32 `json:"start"`
	End      uint32 `json:"end"`
	Line     uint32 `json:"line,omitempty"`
	Filename string `json:"filename"`
}

type param struct {
	Text     string   `json:"text"`
	Location location `json:"location"`
}

type node struct {
	Kind       string          `json:"kind"`
	Value      json.RawMessage `json:"value"`
	Text       string          `json:"text"`
	Name       *param          `json:"name"`
	Next       *node           `json:"next"`
	First      *node           `json:"first"`
	Second     *node           `json:"second"`
	Condition  *node           `json:"condition"`
	Then       *node           `json:"then"`
	Otherwise  *node           `json:"otherwise"`
	Parameters []param         `json:"parameters"`
	Callee     *node           `json:"callee"`
	Arguments  []*node         `json:"arguments"`
	Lhs        *node           `json:"lhs"`
	Op         string          `json:"op"`
	Rhs        *node           `json:"rhs"`
	Location   location        `json:"location"`
}

type document struct {
	Name       string   `json:"name"`
	Expression *node    `json:"expression"`
	Location   location `json:"location"`
}

type loader struct {
	b    *ast.Builder
	opts Options
	ok   bool
}

// Load decodes a rinha JSON document into b and returns the new file.
// Malformed input is reported through opts.Reporter; ok is false when
// anything was reported.
func Load(data []byte, b *ast.Builder, opts Options) (ast.FileID, bool) {
	l := &loader{b: b, opts: opts, ok: true}

	var doc document
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		l.errorf(diag.SynBadASTJSON, source.Span{File: opts.Source}, "invalid AST JSON: %v", err)
		return ast.NoFileID, false
	}
	if doc.Expression == nil {
		l.errorf(diag.SynBadASTJSON, source.Span{File: opts.Source}, "AST JSON has no \"expression\"")
		return ast.NoFileID, false
	}
	root := l.expr(doc.Expression)
	if !l.ok {
		return ast.NoFileID, false
	}
	name := doc.Name
	if opts.Name != "" {
		name = opts.Name
	}
	fileSpan := b.Exprs.Get(root).Span
	if doc.Location.End > 0 {
		fileSpan = l.span(doc.Location)
	}
	return b.NewFile(name, fileSpan, root), true
}

func (l *loader) errorf(code diag.Code, sp source.Span, format string, args ...any) {
	l.ok = false
	if l.opts.Reporter != nil {
		l.opts.Reporter.Report(code, diag.SevError, sp, fmt.Sprintf(format, args...), nil)
	}
}

func (l *loader) span(loc location) source.Span {
	end := loc.End
	if end < loc.Start {
		end = loc.Start
	}
	return source.Span{File: l.opts.Source, Start: loc.Start, End: end}
}

func (l *loader) missing(parent *node, field string) ast.ExprID {
	l.errorf(diag.SynBadASTNode, l.span(parent.Location), "%s node is missing %q", parent.Kind, field)
	return ast.NoExprID
}

func (l *loader) child(parent *node, field string, n *node) ast.ExprID {
	if n == nil {
		return l.missing(parent, field)
	}
	return l.expr(n)
}

func (l *loader) valueNode(n *node) *node {
	if len(n.Value) == 0 {
		return nil
	}
	var inner node
	if err := json.Unmarshal(n.Value, &inner); err != nil {
		l.errorf(diag.SynBadASTNode, l.span(n.Location), "%s.value: %v", n.Kind, err)
		return nil
	}
	return &inner
}

func (l *loader) expr(n *node) ast.ExprID {
	ex := l.b.Exprs
	sp := l.span(n.Location)
	switch n.Kind {
	case "Int":
		v, err := strconv.ParseInt(string(bytes.TrimSpace(n.Value)), 10, 64)
		if err != nil {
			l.errorf(diag.SynBadASTNode, sp, "Int.value %s is not a 64-bit integer", n.Value)
			return ast.NoExprID
		}
		return ex.NewInt(sp, v)

	case "Str":
		var s string
		if err := json.Unmarshal(n.Value, &s); err != nil {
			l.errorf(diag.SynBadASTNode, sp, "Str.value: %v", err)
			return ast.NoExprID
		}
		return ex.NewStr(sp, norm.NFC.String(s))

	case "Bool":
		var v bool
		if err := json.Unmarshal(n.Value, &v); err != nil {
			l.errorf(diag.SynBadASTNode, sp, "Bool.value: %v", err)
			return ast.NoExprID
		}
		return ex.NewBool(sp, v)

	case "Var":
		if n.Text == "" {
			return l.missing(n, "text")
		}
		return ex.NewVar(sp, norm.NFC.String(n.Text))

	case "Tuple":
		first := l.child(n, "first", n.First)
		second := l.child(n, "second", n.Second)
		return ex.NewTuple(sp, first, second)

	case "Let":
		if n.Name == nil {
			return l.missing(n, "name")
		}
		value := l.child(n, "value", l.valueNode(n))
		next := l.child(n, "next", n.Next)
		return ex.NewLet(sp, norm.NFC.String(n.Name.Text), l.span(n.Name.Location), value, next)

	case "If":
		cond := l.child(n, "condition", n.Condition)
		then := l.child(n, "then", n.Then)
		els := l.child(n, "otherwise", n.Otherwise)
		return ex.NewIf(sp, cond, then, els)

	case "Function":
		params := make([]ast.Param, 0, len(n.Parameters))
		for _, p := range n.Parameters {
			params = append(params, ast.Param{Name: norm.NFC.String(p.Text), Span: l.span(p.Location)})
		}
		body := l.child(n, "value", l.valueNode(n))
		return ex.NewFunction(sp, params, body)

	case "Call":
		callee := l.child(n, "callee", n.Callee)
		args := make([]ast.ExprID, 0, len(n.Arguments))
		for _, a := range n.Arguments {
			args = append(args, l.child(n, "arguments", a))
		}
		return ex.NewCall(sp, callee, args)

	case "Binary":
		op, ok := ast.BinaryOpByName(n.Op)
		if !ok {
			l.errorf(diag.SynBadASTNode, sp, "unknown binary operator %q", n.Op)
			return ast.NoExprID
		}
		lhs := l.child(n, "lhs", n.Lhs)
		rhs := l.child(n, "rhs", n.Rhs)
		return ex.NewBinary(sp, op, lhs, rhs)

	case "Print", "First", "Second":
		kind := map[string]ast.ExprKind{"Print": ast.ExprPrint, "First": ast.ExprFirst, "Second": ast.ExprSecond}[n.Kind]
		arg := l.child(n, "value", l.valueNode(n))
		return ex.NewBuiltin(kind, sp, arg)
	}
	l.errorf(diag.SynBadASTNode, sp, "unknown node kind %q", n.Kind)
	return ast.NoExprID
}
