package llvm

import "coral/internal/mir"

type builtinDecl struct {
	name   string
	ret    string
	params []string
}

func runtimeDecls() []builtinDecl {
	decls := []builtinDecl{
		{name: "coral_incref", ret: "void", params: []string{"ptr"}},
		{name: "coral_decref", ret: "void", params: []string{"ptr"}},
		{name: "coral_set_capture", ret: "void", params: []string{"ptr", "i64", "ptr"}},
		{name: "coral_capture", ret: "ptr", params: []string{"ptr", "i64"}},
		{name: "coral_check_call", ret: "ptr", params: []string{"ptr", "i64"}},
		{name: "coral_div_int", ret: "i64", params: []string{"i64", "i64"}},
		{name: "coral_rem_int", ret: "i64", params: []string{"i64", "i64"}},
		{name: "coral_scope_open", ret: "ptr", params: []string{"i64"}},
		{name: "coral_scope_track", ret: "void", params: []string{"ptr", "ptr"}},
		{name: "coral_scope_promote", ret: "void", params: []string{"ptr", "ptr"}},
		{name: "coral_scope_release", ret: "void", params: []string{"ptr"}},
		{name: "coral_finish", ret: "i32", params: []string{"i1"}},
	}
	for op := mir.RtNewString; op <= mir.RtPrint; op++ {
		decls = append(decls, runtimeOpDecl(op))
	}
	return decls
}

// runtimeOpDecl is the C prototype implementing op.
func runtimeOpDecl(op mir.RuntimeOp) builtinDecl {
	d := builtinDecl{name: op.Symbol(), ret: "ptr"}
	switch op {
	case mir.RtNewString:
		d.params = []string{"ptr", "i64"}
	case mir.RtBoxInt:
		d.params = []string{"i64"}
	case mir.RtBoxBool:
		d.params = []string{"i1"}
	case mir.RtUnboxInt:
		d.ret, d.params = "i64", []string{"ptr"}
	case mir.RtUnboxBool:
		d.ret, d.params = "i1", []string{"ptr"}
	case mir.RtNewFunction:
		// arity, entry, capture count; captures are stored one by one
		d.params = []string{"i64", "ptr", "i64"}
	case mir.RtPrint:
		d.ret, d.params = "void", []string{"ptr"}
	default:
		d.params = make([]string, op.Arity())
		for i := range d.params {
			d.params[i] = "ptr"
		}
	}
	return d
}

func runtimeSigMap() map[string]funcSig {
	decls := runtimeDecls()
	m := make(map[string]funcSig, len(decls))
	for _, d := range decls {
		m[d.name] = funcSig{ret: d.ret, params: d.params}
	}
	return m
}
