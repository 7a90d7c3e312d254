package rinhajson

import (
	"encoding/json"
	"io"

	"coral/internal/ast"
	"coral/internal/source"
)

type dumper struct {
	ex       *ast.Exprs
	fs       *source.FileSet
	filename string
}

// Dump writes file as an indented rinha JSON document. fs may be nil, in
// which case locations carry offsets but no line numbers.
func Dump(w io.Writer, b *ast.Builder, file ast.FileID, fs *source.FileSet) error {
	f := b.Files.Get(file)
	d := &dumper{ex: b.Exprs, fs: fs, filename: f.Name}
	doc := map[string]any{
		"name":       f.Name,
		"expression": d.node(f.Root),
		"location":   d.loc(f.Span),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(doc)
}

func (d *dumper) loc(sp source.Span) location {
	loc := location{Start: sp.Start, End: sp.End, Filename: d.filename}
	if d.fs != nil {
		start, _ := d.fs.Resolve(sp)
		loc.Line = start.Line
	}
	return loc
}

func (d *dumper) node(id ast.ExprID) map[string]any {
	expr := d.ex.Get(id)
	out := map[string]any{
		"kind":     expr.Kind.String(),
		"location": d.loc(expr.Span),
	}
	switch expr.Kind {
	case ast.ExprInt:
		v, _ := d.ex.Int(id)
		out["value"] = v.Value
	case ast.ExprStr:
		v, _ := d.ex.Str(id)
		out["value"] = v.Value
	case ast.ExprBool:
		v, _ := d.ex.Bool(id)
		out["value"] = v.Value
	case ast.ExprVar:
		v, _ := d.ex.Var(id)
		out["text"] = v.Name
	case ast.ExprTuple:
		v, _ := d.ex.Tuple(id)
		out["first"] = d.node(v.First)
		out["second"] = d.node(v.Second)
	case ast.ExprLet:
		v, _ := d.ex.Let(id)
		out["name"] = param{Text: v.Name, Location: d.loc(v.NameSpan)}
		out["value"] = d.node(v.Value)
		out["next"] = d.node(v.Next)
	case ast.ExprIf:
		v, _ := d.ex.If(id)
		out["condition"] = d.node(v.Cond)
		out["then"] = d.node(v.Then)
		out["otherwise"] = d.node(v.Else)
	case ast.ExprFunction:
		v, _ := d.ex.Function(id)
		params := make([]param, len(v.Params))
		for i, p := range v.Params {
			params[i] = param{Text: p.Name, Location: d.loc(p.Span)}
		}
		out["parameters"] = params
		out["value"] = d.node(v.Body)
	case ast.ExprCall:
		v, _ := d.ex.Call(id)
		out["callee"] = d.node(v.Callee)
		args := make([]map[string]any, len(v.Args))
		for i, a := range v.Args {
			args[i] = d.node(a)
		}
		out["arguments"] = args
	case ast.ExprBinary:
		v, _ := d.ex.Binary(id)
		out["lhs"] = d.node(v.Left)
		out["op"] = v.Op.Name()
		out["rhs"] = d.node(v.Right)
	case ast.ExprPrint, ast.ExprFirst, ast.ExprSecond:
		v, _ := d.ex.Builtin(id)
		out["value"] = d.node(v.Arg)
	}
	return out
}
