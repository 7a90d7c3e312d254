package types

import (
	"testing"

	"github.com/nalgeon/be"
)

func TestInternerBuiltins(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	for _, id := range []TypeID{b.Unknown, b.Dynamic, b.Bool, b.Int, b.Str} {
		if id == NoTypeID {
			t.Fatalf("builtins not initialized")
		}
	}
	be.Equal(t, in.KindOf(b.Int), KindInt)
	be.Equal(t, in.KindOf(NoTypeID), KindInvalid)
}

func TestInternerDeduplicatesDescriptors(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	p1 := in.Pair(b.Int, b.Str)
	p2 := in.Pair(b.Int, b.Str)
	be.Equal(t, p1, p2)
	if in.Pair(b.Str, b.Int) == p1 {
		t.Fatalf("member order must affect identity")
	}
	be.Equal(t, in.Function(2), in.Function(2))
	if in.Function(1) == in.Function(2) {
		t.Fatalf("arity must affect identity")
	}
}

func TestJoin(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	be.Equal(t, in.Join(b.Unknown, b.Int), b.Int)
	be.Equal(t, in.Join(b.Str, b.Unknown), b.Str)
	be.Equal(t, in.Join(b.Int, b.Int), b.Int)
	be.Equal(t, in.Join(b.Int, b.Str), b.Dynamic)
	be.Equal(t, in.Join(b.Dynamic, b.Int), b.Dynamic)
	be.Equal(t, in.Join(in.Function(1), in.Function(2)), b.Dynamic)

	got := in.Join(in.Pair(b.Int, b.Str), in.Pair(b.Int, b.Int))
	be.Equal(t, Label(in, got), "Pair(Int, Dynamic)")
	got = in.Join(in.Pair(b.Unknown, b.Int), in.Pair(b.Bool, b.Int))
	be.Equal(t, Label(in, got), "Pair(Bool, Int)")
	be.Equal(t, in.Join(in.Pair(b.Int, b.Int), b.Int), b.Dynamic)
}

func TestResolveAndHasUnknown(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	p := in.Pair(b.Unknown, in.Pair(b.Int, b.Unknown))
	be.True(t, in.HasUnknown(p))
	r := in.Resolve(p)
	be.Equal(t, Label(in, r), "Pair(Dynamic, Pair(Int, Dynamic))")
	be.True(t, !in.HasUnknown(r))
	be.Equal(t, in.Resolve(b.Unknown), b.Dynamic)
	be.Equal(t, in.Resolve(b.Int), b.Int)
}

func TestWiden(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	deep := in.Pair(b.Int, in.Pair(b.Int, in.Pair(b.Int, b.Int)))
	be.Equal(t, in.Depth(deep), 3)
	be.Equal(t, Label(in, in.Widen(deep, 2)), "Pair(Int, Pair(Int, Dynamic))")
	be.Equal(t, in.Widen(deep, 3), deep)
}

func TestRuntimeName(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	name, ok := RuntimeName(in, in.Pair(b.Int, b.Int))
	be.True(t, ok)
	be.Equal(t, name, "tuple")
	_, ok = RuntimeName(in, b.Dynamic)
	be.True(t, !ok)
	be.Equal(t, Label(in, in.Function(3)), "Function/3")
}
