package llvm_test

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"coral/internal/ast"
	"coral/internal/backend/llvm"
	"coral/internal/diag"
	"coral/internal/lexer"
	"coral/internal/mir"
	"coral/internal/parser"
	"coral/internal/sema"
	"coral/internal/source"
	"coral/internal/symbols"
)

func lower(t *testing.T, src string) *mir.Module {
	t.Helper()
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("test.rinha", []byte(src))
	bag := diag.NewBag(32)
	rep := &diag.BagReporter{Bag: bag}
	lx := lexer.New(fs.Get(fileID), lexer.Options{Reporter: rep})
	b := ast.NewBuilder(ast.Hints{})
	pr := parser.ParseFile(fs, lx, b, parser.Options{Reporter: rep})
	if !pr.OK {
		t.Fatalf("parse failed: %+v", bag.Items())
	}
	syms := symbols.ResolveFile(b, pr.File, symbols.ResolveOptions{Reporter: rep})
	if !syms.OK {
		t.Fatalf("resolve failed: %+v", bag.Items())
	}
	res := sema.Check(b, pr.File, sema.Options{Reporter: rep, Symbols: &syms})
	m, err := mir.Lower(b, pr.File, &res, mir.LowerOptions{})
	if err != nil {
		t.Fatalf("lower failed: %v", err)
	}
	mir.SimplifyModule(m)
	if err := mir.Validate(m); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	return m
}

func emit(t *testing.T, src string, opts llvm.Options) string {
	t.Helper()
	ir, err := llvm.EmitModule(lower(t, src), opts)
	if err != nil {
		t.Fatalf("emit failed: %v", err)
	}
	return ir
}

// functionBody returns the text of the definition of name.
func functionBody(t *testing.T, ir, name string) string {
	t.Helper()
	start := strings.Index(ir, "@\""+name+"\"(")
	if start < 0 {
		t.Fatalf("no definition of %s in:\n%s", name, ir)
	}
	end := strings.Index(ir[start:], "\n}\n")
	if end < 0 {
		t.Fatalf("unterminated definition of %s", name)
	}
	return ir[start : start+end]
}

func TestEmitDeclaresRuntime(t *testing.T) {
	ir := emit(t, `print(1)`, llvm.Options{Triple: "x86_64-unknown-linux-gnu"})
	for _, want := range []string{
		`target triple = "x86_64-unknown-linux-gnu"`,
		"declare void @coral_incref(ptr)",
		"declare ptr @coral_check_call(ptr, i64)",
		"declare ptr @coral_scope_open(i64)",
		"declare i32 @coral_finish(i1)",
		"declare void @coral_print(ptr)",
		"define i32 @main()",
		`call void @"coral.main"()`,
		"call i32 @coral_finish(i1 false)",
	} {
		if !strings.Contains(ir, want) {
			t.Fatalf("missing %q in:\n%s", want, ir)
		}
	}
}

func TestEmitLeakCheckEntry(t *testing.T) {
	ir := emit(t, `print(1)`, llvm.Options{LeakCheck: true})
	be.True(t, strings.Contains(ir, "call i32 @coral_finish(i1 true)"))
}

func TestEmitSelfTailCallIsMusttail(t *testing.T) {
	ir := emit(t, `
let fib = fn (n, k1, k2) => if n == 0 { k1 } else if n == 1 { k2 } else { fib(n - 1, k2, k1 + k2) };
print(fib(10, 0, 1))`, llvm.Options{})
	body := functionBody(t, ir, "coral.fib")
	if !strings.Contains(body, `musttail call i64 @"coral.fib"(`) {
		t.Fatalf("expected a musttail self call:\n%s", body)
	}
	be.True(t, strings.Contains(body, "icmp eq i64"))
	be.True(t, strings.Contains(body, "call ptr @coral_scope_open(i64"))
}

func TestEmitStringConstants(t *testing.T) {
	ir := emit(t, `let a = print("hi\n"); print("hi\n" + "x")`, llvm.Options{})
	if !strings.Contains(ir, `@.str.0 = private unnamed_addr constant [4 x i8] c"hi\0A\00", align 1`) {
		t.Fatalf("missing string constant:\n%s", ir)
	}
	be.Equal(t, strings.Count(ir, `c"hi\0A\00"`), 1)
	be.True(t, strings.Contains(ir, "call ptr @coral_new_string(ptr @.str.0, i64 3)"))
}

func TestEmitDynamicCall(t *testing.T) {
	ir := emit(t, `
let apply = fn (f, x) => f(x);
let inc = fn (n) => n + 1;
let dec = fn (n) => n - 1;
let a = print(apply(inc, 1));
print(apply(dec, 1))`, llvm.Options{})
	body := functionBody(t, ir, "coral.apply")
	for _, want := range []string{
		"call ptr @coral_check_call(ptr",
		", i64 1)",
		"call void @coral_decref(ptr",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q in:\n%s", want, body)
		}
	}
	be.True(t, strings.Contains(body, "= call ptr %t"))
	be.True(t, strings.Contains(ir, `@"coral.inc.dyn"`))
	be.True(t, strings.Contains(ir, "call ptr @coral_new_function(i64 1, ptr @\"coral.inc.dyn\", i64 0)"))
}

func TestEmitClosureCaptures(t *testing.T) {
	ir := emit(t, `
let add = fn (x) => fn (y) => x + y;
let inc = add(1);
print(inc(41))`, llvm.Options{})
	be.True(t, strings.Contains(ir, "call void @coral_set_capture(ptr"))
	be.True(t, strings.Contains(ir, "call ptr @coral_capture(ptr %"))
}

func TestEmitRejectsMissingMain(t *testing.T) {
	_, err := llvm.EmitModule(&mir.Module{Main: mir.NoFuncID}, llvm.Options{})
	be.Err(t, err, "no main function")
}
