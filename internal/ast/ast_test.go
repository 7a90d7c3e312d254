package ast

import (
	"strings"
	"testing"

	"coral/internal/source"
	"coral/internal/token"
)

func TestArenaOneBased(t *testing.T) {
	a := NewArena[int](0)
	if a.Get(0) != nil || a.Get(1) != nil {
		t.Fatalf("empty arena must return nil")
	}
	id := a.Allocate(7)
	if id != 1 || *a.Get(id) != 7 || a.Len() != 1 {
		t.Fatalf("unexpected arena state id=%d len=%d", id, a.Len())
	}
}

func TestPayloadAccessorsCheckKind(t *testing.T) {
	ex := NewExprs(0)
	sp := source.Span{}
	one := ex.NewInt(sp, 1)
	x := ex.NewVar(sp, "x")
	sum := ex.NewBinary(sp, OpAdd, one, x)
	pr := ex.NewBuiltin(ExprPrint, sp, sum)

	if _, ok := ex.Var(one); ok {
		t.Fatalf("Var on Int must fail")
	}
	if b, ok := ex.Binary(sum); !ok || b.Left != one || b.Right != x {
		t.Fatalf("binary payload mismatch")
	}
	if b, ok := ex.Builtin(pr); !ok || b.Arg != sum {
		t.Fatalf("builtin payload mismatch")
	}
	if got := ex.Children(sum); len(got) != 2 || got[0] != one || got[1] != x {
		t.Fatalf("children = %v", got)
	}
}

func TestWalkPreOrder(t *testing.T) {
	ex := NewExprs(0)
	sp := source.Span{}
	body := ex.NewBinary(sp, OpMul, ex.NewVar(sp, "n"), ex.NewInt(sp, 2))
	fn := ex.NewFunction(sp, []Param{{Name: "n"}}, body)
	root := ex.NewLet(sp, "double", sp, fn, ex.NewCall(sp, ex.NewVar(sp, "double"), []ExprID{ex.NewInt(sp, 4)}))

	var kinds []string
	ex.Walk(root, func(id ExprID) bool {
		kinds = append(kinds, ex.Get(id).Kind.String())
		return true
	})
	want := "Let Function Binary Var Int Call Var Int"
	if got := strings.Join(kinds, " "); got != want {
		t.Fatalf("walk = %q, want %q", got, want)
	}

	var skipped int
	ex.Walk(root, func(id ExprID) bool {
		skipped++
		return ex.Get(id).Kind != ExprFunction
	})
	if skipped != 5 {
		t.Fatalf("walk with skip visited %d nodes, want 5", skipped)
	}
}

func TestDump(t *testing.T) {
	ex := NewExprs(0)
	sp := source.Span{}
	root := ex.NewBuiltin(ExprPrint, sp, ex.NewTuple(sp, ex.NewStr(sp, "a"), ex.NewBool(sp, true)))
	want := "Print\n  Tuple\n    Str \"a\"\n    Bool true\n"
	if got := ex.DumpString(root); got != want {
		t.Fatalf("dump = %q, want %q", got, want)
	}
}

func TestBinaryOpTables(t *testing.T) {
	for op := OpAdd; op <= OpOr; op++ {
		back, ok := BinaryOpByName(op.Name())
		if !ok || back != op {
			t.Fatalf("round trip failed for %s", op.Name())
		}
	}
	if op, ok := BinaryOpFromToken(token.LtEq); !ok || op != OpLte {
		t.Fatalf("LtEq maps to %v", op)
	}
	if _, ok := BinaryOpFromToken(token.Assign); ok {
		t.Fatalf("Assign is not a binary operator")
	}
	if !OpRem.IsArith() || !OpGte.IsCompare() || !OpNeq.IsEquality() || !OpOr.IsLogical() {
		t.Fatalf("operator classes wrong")
	}
}
