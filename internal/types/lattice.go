package types

// Join returns the least upper bound of a and b.
//
//   - Unknown is the identity.
//   - equal types join to themselves.
//   - pairs join member-wise, so Pair(Int, Str) ⊔ Pair(Int, Int) is Pair(Int, Dynamic).
//   - anything else joins to Dynamic.
func (in *Interner) Join(a, b TypeID) TypeID {
	if a == b {
		return a
	}
	if a == in.builtins.Unknown || a == NoTypeID {
		return b
	}
	if b == in.builtins.Unknown || b == NoTypeID {
		return a
	}
	ta, tb := in.MustLookup(a), in.MustLookup(b)
	if ta.Kind == KindPair && tb.Kind == KindPair {
		return in.Pair(in.Join(ta.First, tb.First), in.Join(ta.Second, tb.Second))
	}
	return in.builtins.Dynamic
}

// Resolve replaces every Unknown inside id with Dynamic.
func (in *Interner) Resolve(id TypeID) TypeID {
	if id == NoTypeID || id == in.builtins.Unknown {
		return in.builtins.Dynamic
	}
	tt := in.MustLookup(id)
	if tt.Kind != KindPair {
		return id
	}
	first, second := in.Resolve(tt.First), in.Resolve(tt.Second)
	if first == tt.First && second == tt.Second {
		return id
	}
	return in.Pair(first, second)
}

// HasUnknown reports whether Unknown occurs anywhere inside id.
func (in *Interner) HasUnknown(id TypeID) bool {
	if id == in.builtins.Unknown {
		return true
	}
	tt, ok := in.Lookup(id)
	if !ok {
		return true
	}
	if tt.Kind == KindPair {
		return in.HasUnknown(tt.First) || in.HasUnknown(tt.Second)
	}
	return false
}

// IsDynamic reports whether id is the Dynamic type.
func (in *Interner) IsDynamic(id TypeID) bool {
	return id == in.builtins.Dynamic
}

// Depth returns the nesting depth of pairs inside id; scalars are 0.
func (in *Interner) Depth(id TypeID) int {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindPair {
		return 0
	}
	return 1 + max(in.Depth(tt.First), in.Depth(tt.Second))
}

// Widen caps pair nesting at maxDepth by replacing deeper members with
// Dynamic. Inference uses it so recursive pair construction converges.
func (in *Interner) Widen(id TypeID, maxDepth int) TypeID {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindPair {
		return id
	}
	if maxDepth <= 0 {
		return in.builtins.Dynamic
	}
	return in.Pair(in.Widen(tt.First, maxDepth-1), in.Widen(tt.Second, maxDepth-1))
}
