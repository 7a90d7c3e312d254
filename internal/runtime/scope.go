package runtime

// Scope is the deferred-release list of one function activation. It owns
// one reference of every tracked value until ReleaseAll.
type Scope struct {
	heap     *Heap
	entries  []Value
	capacity int
	released bool
}

// OpenScope starts a scope that can hold capacity tracked values.
func (h *Heap) OpenScope(capacity int) *Scope {
	return &Scope{heap: h, entries: make([]Value, 0, capacity), capacity: capacity}
}

// Len is the number of tracked values.
func (s *Scope) Len() int { return len(s.entries) }

// Capacity is the static bound the scope was opened with.
func (s *Scope) Capacity() int { return s.capacity }

// Released reports whether ReleaseAll already ran.
func (s *Scope) Released() bool { return s.released }

// Track takes ownership of one reference of v. Inline values are ignored.
func (s *Scope) Track(v Value) {
	if !v.IsHeap() {
		return
	}
	s.checkOpen("track")
	if len(s.entries) >= s.capacity {
		Fatalf(FatalScope, "scope overflow: capacity %d exceeded", s.capacity)
	}
	s.entries = append(s.entries, v)
}

// Promote hands one reference of v to the caller. A tracked occurrence is
// removed without touching the count; an untracked v is increffed so the
// outgoing reference is still owned.
func (s *Scope) Promote(v Value) {
	if !v.IsHeap() {
		return
	}
	s.checkOpen("promote")
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i] == v {
			last := len(s.entries) - 1
			s.entries[i] = s.entries[last]
			s.entries = s.entries[:last]
			return
		}
	}
	s.heap.Incref(v)
}

// ReleaseAll decrefs every tracked value. It runs once per activation.
func (s *Scope) ReleaseAll() {
	s.checkOpen("release")
	s.released = true
	for _, v := range s.entries {
		s.heap.Decref(v)
	}
	s.entries = s.entries[:0]
}

func (s *Scope) checkOpen(op string) {
	if s.released {
		Fatalf(FatalScope, "%s after the scope was released", op)
	}
}
