package trace

import (
	"io"
	"sync"
)

// StreamTracer writes each event to w as it arrives. Write errors are
// dropped so tracing never fails the traced work.
type StreamTracer struct {
	mu     sync.Mutex
	w      io.Writer
	level  Level
	format Format
	buf    []byte
	count  int
	depth  map[uint64]int
	closed bool
}

// NewStreamTracer returns a tracer writing format to w.
func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	if format == FormatAuto {
		format = FormatText
	}
	t := &StreamTracer{w: w, level: level, format: format, depth: make(map[uint64]int)}
	if format == FormatChrome {
		_, _ = io.WriteString(w, "{\"traceEvents\":[\n")
	}
	return t
}

func (t *StreamTracer) Emit(ev *Event) {
	if !t.level.streams() {
		return
	}
	if ev.Kind != KindHeartbeat && !t.level.ShouldEmit(ev.Scope) {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	if ev.Seq == 0 {
		ev.Seq = NextSeq()
	}

	depth := 0
	if ev.ParentID != 0 {
		if d, ok := t.depth[ev.ParentID]; ok {
			depth = d + 1
		}
	}
	switch ev.Kind {
	case KindSpanBegin:
		t.depth[ev.SpanID] = depth
	case KindSpanEnd:
		delete(t.depth, ev.SpanID)
	case KindPoint:
		if ev.ParentID != 0 {
			depth = t.depth[ev.ParentID] + 1
		}
	}

	t.buf = t.buf[:0]
	if t.format == FormatChrome && t.count > 0 {
		t.buf = append(t.buf, ",\n"...)
	}
	t.buf = appendEvent(t.buf, ev, t.format, depth)
	t.count++
	_, _ = t.w.Write(t.buf)
}

// Flush flushes w when it buffers.
func (t *StreamTracer) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if f, ok := t.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// Close finishes the chrome document and closes w when it is a Closer.
// Calling Close twice is harmless.
func (t *StreamTracer) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	if t.format == FormatChrome {
		_, _ = io.WriteString(t.w, "\n]}\n")
	}
	t.mu.Unlock()

	if err := t.Flush(); err != nil {
		return err
	}
	if c, ok := t.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (t *StreamTracer) Level() Level  { return t.level }
func (t *StreamTracer) Enabled() bool { return t.level > LevelOff }
