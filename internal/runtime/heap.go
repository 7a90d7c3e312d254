package runtime

import (
	"fmt"

	"fortio.org/safecast"
)

// Object is a heap cell. A slot is reused after free with Gen bumped, so a
// stale Value never aliases the new occupant.
type Object struct {
	Kind  Tag
	RC    int64
	Gen   uint32
	Alive bool

	// TagStr
	Str  string
	Owns bool // false for literals backed by static storage
	// TagPair
	First, Second Value
	// TagFunction
	Arity    int
	Entry    int32
	Captured []Value
}

// Stats are process-lifetime heap counters.
type Stats struct {
	Allocs   uint64
	Frees    uint64
	Live     int64
	PeakLive int64
}

// HeapObserver receives allocation events, used for tracing.
type HeapObserver interface {
	HeapAlloc(v Value, obj *Object)
	HeapFree(v Value, obj *Object)
}

// Heap owns every refcounted object of one program run.
type Heap struct {
	objs     []Object // index 0 is never used
	free     []Handle
	stats    Stats
	observer HeapObserver
}

// NewHeap creates an empty heap.
func NewHeap() *Heap {
	return &Heap{objs: make([]Object, 1, 64)}
}

// SetObserver installs o; nil removes it.
func (h *Heap) SetObserver(o HeapObserver) { h.observer = o }

// Stats returns the current counters.
func (h *Heap) Stats() Stats { return h.stats }

func (h *Heap) alloc(kind Tag) (Value, *Object) {
	var handle Handle
	if n := len(h.free); n > 0 {
		handle = h.free[n-1]
		h.free = h.free[:n-1]
	} else {
		idx, err := safecast.Conv[uint32](len(h.objs))
		if err != nil {
			panic(fmt.Errorf("heap overflow: %w", err))
		}
		handle = Handle(idx)
		h.objs = append(h.objs, Object{})
	}
	obj := &h.objs[handle]
	gen := obj.Gen
	*obj = Object{Kind: kind, RC: 1, Gen: gen, Alive: true}

	h.stats.Allocs++
	h.stats.Live++
	h.stats.PeakLive = max(h.stats.PeakLive, h.stats.Live)
	v := Value{Tag: kind, H: handle, Gen: gen}
	if h.observer != nil {
		h.observer.HeapAlloc(v, obj)
	}
	return v, obj
}

// Get returns the live object behind v.
func (h *Heap) Get(v Value) *Object {
	if !v.IsHeap() || v.H == 0 || int(v.H) >= len(h.objs) {
		Fatalf(FatalUseAfterFree, "invalid handle %d for %s", v.H, v.TypeName())
	}
	obj := &h.objs[v.H]
	if !obj.Alive || obj.Gen != v.Gen {
		Fatalf(FatalUseAfterFree, "use after free: %s handle %d", v.TypeName(), v.H)
	}
	return obj
}

// RefCount reports the count of a live object, 0 for inline values.
func (h *Heap) RefCount(v Value) int64 {
	if !v.IsHeap() {
		return 0
	}
	return h.Get(v).RC
}

// IsAlive reports whether v still names its object.
func (h *Heap) IsAlive(v Value) bool {
	if !v.IsHeap() {
		return true
	}
	if v.H == 0 || int(v.H) >= len(h.objs) {
		return false
	}
	obj := &h.objs[v.H]
	return obj.Alive && obj.Gen == v.Gen
}

// Incref is a no-op for inline values.
func (h *Heap) Incref(v Value) {
	if !v.IsHeap() {
		return
	}
	h.Get(v).RC++
}

// Decref drops one reference and destroys the object at zero, releasing
// its children first.
func (h *Heap) Decref(v Value) {
	if !v.IsHeap() {
		return
	}
	if !h.IsAlive(v) {
		Fatalf(FatalDoubleFree, "double free: %s handle %d", v.TypeName(), v.H)
	}
	obj := &h.objs[v.H]
	if obj.RC <= 0 {
		Fatalf(FatalDoubleFree, "double free: %s handle %d has no references", v.TypeName(), v.H)
	}
	obj.RC--
	if obj.RC > 0 {
		return
	}

	// slices and members are read before the slot can be reused
	first, second, captured := obj.First, obj.Second, obj.Captured
	if h.observer != nil {
		h.observer.HeapFree(v, obj)
	}
	obj.Alive = false
	obj.Gen++
	obj.Str, obj.Captured = "", nil
	obj.First, obj.Second = Value{}, Value{}
	h.free = append(h.free, v.H)
	h.stats.Frees++
	h.stats.Live--

	switch v.Tag {
	case TagPair:
		h.Decref(first)
		h.Decref(second)
	case TagFunction:
		for _, c := range captured {
			h.Decref(c)
		}
	}
}

// CheckLeaks fails when objects are still alive.
func (h *Heap) CheckLeaks() {
	if h.stats.Live != 0 {
		Fatalf(FatalLeak, "heap leak detected: %d live objects", h.stats.Live)
	}
}

// NewString allocates a string. Literal strings do not own their storage.
func (h *Heap) NewString(s string, owns bool) Value {
	v, obj := h.alloc(TagStr)
	obj.Str = s
	obj.Owns = owns
	return v
}

// NewPair allocates a pair; members are increffed, not consumed.
func (h *Heap) NewPair(first, second Value) Value {
	h.Incref(first)
	h.Incref(second)
	v, obj := h.alloc(TagPair)
	obj.First, obj.Second = first, second
	return v
}

// NewFunction allocates a closure. Captured values are increffed.
func (h *Heap) NewFunction(arity int, entry int32, captured []Value) Value {
	for _, c := range captured {
		h.Incref(c)
	}
	v, obj := h.alloc(TagFunction)
	obj.Arity = arity
	obj.Entry = entry
	obj.Captured = append([]Value(nil), captured...)
	return v
}
