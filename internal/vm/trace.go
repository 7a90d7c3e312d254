package vm

import (
	"strconv"

	"coral/internal/mir"
	"coral/internal/runtime"
	"coral/internal/trace"
)

func (vm *VM) point(scope trace.Scope, name, detail string, extra map[string]string) {
	trace.Point(vm.opts.Tracer, scope, name, detail, vm.opts.ParentSpan, extra)
}

func (vm *VM) traceCall(kind string, from, to *mir.Func) {
	if !vm.opts.Tracer.Enabled() {
		return
	}
	vm.point(trace.ScopeNode, "vm:"+kind, from.Name+" -> "+to.Name, map[string]string{
		"depth": strconv.Itoa(len(vm.Stack)),
	})
}

func (vm *VM) traceExit() {
	if !vm.opts.Tracer.Enabled() {
		return
	}
	s := vm.Stats()
	vm.point(trace.ScopeModule, "vm:exit", "", map[string]string{
		"steps":        strconv.FormatUint(s.Steps, 10),
		"calls":        strconv.FormatUint(s.Calls, 10),
		"tail_calls":   strconv.FormatUint(s.TailCalls, 10),
		"peak_frames":  strconv.Itoa(s.PeakFrames),
		"peak_tracked": strconv.Itoa(s.PeakScopeEntries),
		"allocs":       strconv.FormatUint(s.Heap.Allocs, 10),
		"frees":        strconv.FormatUint(s.Heap.Frees, 10),
		"live":         strconv.FormatInt(s.Heap.Live, 10),
	})
}

// heapTracer reports every allocation and free as a node event.
type heapTracer struct {
	vm *VM
}

func (h *heapTracer) HeapAlloc(v runtime.Value, _ *runtime.Object) {
	h.vm.point(trace.ScopeNode, "heap:alloc", v.TypeName(), map[string]string{"handle": strconv.FormatUint(uint64(v.H), 10)})
}

func (h *heapTracer) HeapFree(v runtime.Value, _ *runtime.Object) {
	h.vm.point(trace.ScopeNode, "heap:free", v.TypeName(), map[string]string{"handle": strconv.FormatUint(uint64(v.H), 10)})
}
