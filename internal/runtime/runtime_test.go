package runtime

import (
	"bytes"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/nalgeon/be"
)

func expectFatal(t *testing.T, kind FatalKind, fn func()) *Fatal {
	t.Helper()
	var got *Fatal
	func() {
		defer func() {
			if r := recover(); r != nil {
				f, ok := r.(*Fatal)
				if !ok {
					panic(r)
				}
				got = f
			}
		}()
		fn()
	}()
	if got == nil {
		t.Fatalf("expected %v fatal, got none", kind)
	}
	be.Equal(t, got.Kind, kind)
	return got
}

func TestDivModTruncateTowardZero(t *testing.T) {
	rt := New(&bytes.Buffer{})
	r := rand.New(rand.NewPCG(1, 2))
	edge := []int64{0, 1, -1, 7, -7, 3, -3, math.MaxInt64, math.MinInt64}
	for i := 0; i < 2000; i++ {
		a := r.Int64N(2001) - 1000
		b := r.Int64N(201) - 100
		if i < len(edge)*len(edge) {
			a, b = edge[i/len(edge)], edge[i%len(edge)]
		}
		if b == 0 {
			continue
		}
		q := rt.Div(IntValue(a), IntValue(b)).Int()
		m := rt.Mod(IntValue(a), IntValue(b)).Int()
		if a != b*q+m {
			t.Fatalf("%d / %d: q=%d r=%d breaks a == b*q + r", a, b, q, m)
		}
		if m != 0 && (m < 0) != (a < 0) {
			t.Fatalf("%d %% %d = %d: remainder must take the dividend's sign", a, b, m)
		}
	}
	be.Equal(t, rt.Div(IntValue(-7), IntValue(2)).Int(), int64(-3))
	be.Equal(t, rt.Mod(IntValue(-7), IntValue(2)).Int(), int64(-1))
	be.Equal(t, rt.Div(IntValue(math.MinInt64), IntValue(-1)).Int(), int64(math.MinInt64))

	f := expectFatal(t, FatalDivision, func() { rt.Div(IntValue(1), IntValue(0)) })
	be.Equal(t, f.Error(), "DivisionError: division by zero")
	expectFatal(t, FatalDivision, func() { rt.Mod(IntValue(1), IntValue(0)) })
}

func TestConcat(t *testing.T) {
	rt := New(&bytes.Buffer{})
	foo := rt.NewString("foo", false)
	bar := rt.NewString("bar", false)

	cases := []struct {
		a, b Value
		want string
	}{
		{foo, bar, "foobar"},
		{IntValue(1), bar, "1bar"},
		{bar, IntValue(1), "bar1"},
		{IntValue(-12), foo, "-12foo"},
	}
	for _, tc := range cases {
		got := rt.Add(tc.a, tc.b)
		be.Equal(t, got.Tag, TagStr)
		be.Equal(t, rt.Get(got).Str, tc.want)
		be.True(t, rt.Eq(got, rt.NewString(tc.want, false)).Bool())
	}
	be.Equal(t, rt.Add(IntValue(2), IntValue(3)), IntValue(5))
}

func TestTypeMismatchIsAlwaysFatal(t *testing.T) {
	rt := New(&bytes.Buffer{})
	for range 3 {
		f := expectFatal(t, FatalType, func() { rt.Add(BoolValue(true), IntValue(1)) })
		be.Equal(t, f.Error(), "TypeError: '+' cannot be applied between bool and int")
	}
	pair := rt.NewPair(IntValue(1), IntValue(2))
	f := expectFatal(t, FatalType, func() { rt.Eq(IntValue(1), rt.NewString("1", false)) })
	be.Equal(t, f.Msg, "equality cannot be applied between int and string")
	f = expectFatal(t, FatalType, func() { rt.Eq(pair, pair) })
	be.Equal(t, f.Msg, "equality cannot be applied between tuple and tuple")
	f = expectFatal(t, FatalType, func() { rt.Lt(IntValue(1), BoolValue(false)) })
	be.Equal(t, f.Msg, "'<' cannot be applied between int and bool")
	f = expectFatal(t, FatalType, func() { rt.First(IntValue(3)) })
	be.Equal(t, f.Msg, "'first' cannot be applied to int")
	f = expectFatal(t, FatalType, func() { rt.UnboxBool(IntValue(3)) })
	be.Equal(t, f.Msg, "expected a bool, but got int")
	f = expectFatal(t, FatalType, func() { rt.UnboxInt(pair) })
	be.Equal(t, f.Msg, "expected an int, but got tuple")
}

func TestEquality(t *testing.T) {
	rt := New(&bytes.Buffer{})
	be.True(t, rt.Eq(IntValue(4), IntValue(4)).Bool())
	be.True(t, rt.Ne(BoolValue(true), BoolValue(false)).Bool())
	be.True(t, !rt.Eq(rt.NewString("ab", false), rt.NewString("abc", false)).Bool())
	be.True(t, rt.Eq(rt.NewString("", false), rt.NewString("", false)).Bool())
	be.True(t, rt.And(BoolValue(true), BoolValue(true)).Bool())
	be.True(t, !rt.Or(BoolValue(false), BoolValue(false)).Bool())
}

func TestPairProjection(t *testing.T) {
	rt := New(&bytes.Buffer{})
	p := rt.NewPair(IntValue(1), IntValue(2))
	be.Equal(t, rt.First(p), IntValue(1))
	be.Equal(t, rt.Second(p), IntValue(2))

	s := rt.NewString("x", false)
	q := rt.NewPair(s, p)
	first := rt.First(q)
	be.Equal(t, first, s)
	be.Equal(t, rt.RefCount(s), int64(3)) // owner, pair member, projection
	rt.Decref(first)
}

func TestCall(t *testing.T) {
	rt := New(&bytes.Buffer{})
	fn := rt.NewFunction(2, 7, nil)
	be.Equal(t, rt.CheckCall(fn, 2).Entry, int32(7))
	f := expectFatal(t, FatalArity, func() { rt.CheckCall(fn, 1) })
	be.Equal(t, f.Error(), "ArityError: function expects 2 arguments, but got 1")
	f = expectFatal(t, FatalType, func() { rt.CheckCall(IntValue(1), 0) })
	be.Equal(t, f.Msg, "int is not a callable")
}

func TestReprAndPrint(t *testing.T) {
	var out bytes.Buffer
	rt := New(&out)
	inner := rt.NewPair(BoolValue(true), rt.NewString("s", false))
	p := rt.NewPair(IntValue(-1), inner)
	rt.Print(p)
	rt.Print(rt.NewFunction(0, 0, nil))
	rt.Print(IntValue(42))
	be.Equal(t, out.String(), "(-1, (true, \"s\"))\n<#closure>\n42\n")
}

func TestIncrefDecrefRoundTrip(t *testing.T) {
	rt := New(&bytes.Buffer{})
	v := rt.NewString("abc", true)
	rt.Incref(v)
	rt.Decref(v)
	be.Equal(t, rt.RefCount(v), int64(1))
	be.Equal(t, rt.Get(v).Str, "abc")

	const n = 5
	for range n {
		rt.Incref(v)
	}
	for range n {
		rt.Decref(v)
		be.True(t, rt.IsAlive(v))
	}
	rt.Decref(v)
	be.True(t, !rt.IsAlive(v))
	be.Equal(t, rt.Stats().Frees, uint64(1))

	expectFatal(t, FatalDoubleFree, func() { rt.Decref(v) })
	expectFatal(t, FatalUseAfterFree, func() { rt.Get(v) })

	// a reused slot does not resurrect the stale handle
	w := rt.NewString("new", true)
	be.Equal(t, w.H, v.H)
	expectFatal(t, FatalDoubleFree, func() { rt.Decref(v) })
	be.Equal(t, rt.Get(w).Str, "new")

	rt.Incref(IntValue(1))
	rt.Decref(BoolValue(true))
}

func TestDestructionReleasesChildren(t *testing.T) {
	rt := New(&bytes.Buffer{})
	s := rt.NewString("a", false)
	p := rt.NewPair(s, IntValue(1))
	fn := rt.NewFunction(1, 0, []Value{p, s})
	rt.Decref(s)
	rt.Decref(p)
	be.Equal(t, rt.Stats().Live, int64(3))
	rt.Decref(fn)
	be.Equal(t, rt.Stats().Live, int64(0))
	be.Equal(t, rt.Stats().PeakLive, int64(3))
	rt.CheckLeaks()
}

func TestReleaseAllAnyOrder(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	for round := 0; round < 50; round++ {
		rt := New(&bytes.Buffer{})
		var made []Value
		for i := 0; i < 12; i++ {
			var v Value
			switch {
			case i < 3 || r.IntN(3) == 0:
				v = rt.NewString("s", true)
			case r.IntN(2) == 0:
				v = rt.NewPair(made[r.IntN(len(made))], made[r.IntN(len(made))])
			default:
				v = rt.NewFunction(1, 0, []Value{made[r.IntN(len(made))], IntValue(int64(i))})
			}
			made = append(made, v)
		}
		r.Shuffle(len(made), func(i, j int) { made[i], made[j] = made[j], made[i] })
		scope := rt.OpenScope(len(made))
		for _, v := range made {
			scope.Track(v)
		}
		scope.ReleaseAll()
		be.Equal(t, rt.Stats().Live, int64(0))
	}
}

func TestScope(t *testing.T) {
	rt := New(&bytes.Buffer{})
	scope := rt.OpenScope(2)
	a := rt.NewString("a", true)
	scope.Track(a)
	scope.Track(IntValue(3))
	be.Equal(t, scope.Len(), 1)

	// promoting a tracked value moves the reference out
	scope.Promote(a)
	be.Equal(t, scope.Len(), 0)
	be.Equal(t, rt.RefCount(a), int64(1))

	// promoting an untracked value takes a new reference
	scope.Promote(a)
	be.Equal(t, rt.RefCount(a), int64(2))

	b := rt.NewString("b", true)
	scope.Track(b)
	scope.Track(a)
	expectFatal(t, FatalScope, func() { scope.Track(rt.NewString("c", true)) })
	scope.ReleaseAll()
	be.True(t, !rt.IsAlive(b))
	be.Equal(t, rt.RefCount(a), int64(1))
	expectFatal(t, FatalScope, func() { scope.ReleaseAll() })
	expectFatal(t, FatalScope, func() { scope.Track(a) })
}

func TestCheckLeaks(t *testing.T) {
	rt := New(&bytes.Buffer{})
	rt.NewString("leak", true)
	f := expectFatal(t, FatalLeak, rt.CheckLeaks)
	be.Equal(t, f.Error(), "MemoryError: heap leak detected: 1 live objects")
}
