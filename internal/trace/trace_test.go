package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/nalgeon/be"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"off": LevelOff, "ERROR": LevelError, "phase": LevelPhase, "Detail": LevelDetail, "debug": LevelDebug} {
		got, err := ParseLevel(in)
		be.Err(t, err, nil)
		be.Equal(t, got, want)
	}
	_, err := ParseLevel("loud")
	be.Err(t, err, "invalid trace level")
}

func TestShouldEmit(t *testing.T) {
	be.True(t, !LevelOff.ShouldEmit(ScopeDriver))
	be.True(t, LevelPhase.ShouldEmit(ScopePass))
	be.True(t, !LevelPhase.ShouldEmit(ScopeModule))
	be.True(t, LevelDetail.ShouldEmit(ScopeModule))
	be.True(t, !LevelDetail.ShouldEmit(ScopeNode))
	be.True(t, LevelDebug.ShouldEmit(ScopeNode))
}

func TestStreamTextNesting(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDetail, FormatText)
	outer := Begin(tr, ScopeDriver, "compile", 0)
	inner := Begin(tr, ScopePass, "sema", outer.ID())
	Point(tr, ScopeModule, "lower:main", "", inner.ID(), map[string]string{"b": "2", "a": "1"})
	Point(tr, ScopeNode, "vm:call", "", inner.ID(), nil)
	inner.End("ok")
	outer.WithExtra("path", "main.rinha").End("")
	be.Err(t, tr.Close(), nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	be.Equal(t, len(lines), 5)
	be.True(t, strings.Contains(lines[0], "] → compile"))
	be.True(t, strings.Contains(lines[1], "]   → sema"))
	be.True(t, strings.HasSuffix(lines[2], "    • lower:main {a=1, b=2}"))
	be.True(t, strings.HasSuffix(lines[3], "  ← sema (ok)"))
	be.True(t, strings.HasSuffix(lines[4], "← compile {path=main.rinha}"))
}

func TestStreamChromeIsValidJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatChrome)
	sp := Begin(tr, ScopePass, "parse", 0)
	sp.End("done")
	be.Err(t, tr.Close(), nil)
	be.Err(t, tr.Close(), nil)

	var doc struct {
		TraceEvents []map[string]any `json:"traceEvents"`
	}
	be.Err(t, json.Unmarshal(buf.Bytes(), &doc), nil)
	be.Equal(t, len(doc.TraceEvents), 2)
	be.Equal(t, doc.TraceEvents[0]["ph"], "B")
	be.Equal(t, doc.TraceEvents[1]["ph"], "E")
}

func TestNDJSON(t *testing.T) {
	line := FormatEvent(&Event{Time: time.Unix(0, 0).UTC(), Seq: 3, Kind: KindPoint, Scope: ScopeNode, Name: "heap:alloc"}, FormatNDJSON)
	var got map[string]any
	be.Err(t, json.Unmarshal(line, &got), nil)
	be.Equal(t, got["kind"], "point")
	be.Equal(t, got["scope"], "node")
	be.Equal(t, got["name"], "heap:alloc")
}

func TestRingWraps(t *testing.T) {
	r := NewRingTracer(3, LevelPhase)
	for _, name := range []string{"a", "b", "c", "d"} {
		r.Emit(&Event{Kind: KindPoint, Scope: ScopePass, Name: name})
	}
	r.Emit(&Event{Kind: KindPoint, Scope: ScopeNode, Name: "filtered"})
	var names []string
	for _, ev := range r.Snapshot() {
		names = append(names, ev.Name)
	}
	be.Equal(t, names, []string{"b", "c", "d"})

	var buf bytes.Buffer
	be.Err(t, r.Dump(&buf, FormatText), nil)
	be.Equal(t, strings.Count(buf.String(), "\n"), 3)
}

func TestErrorLevelOnlyRecordsInRing(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelError, Mode: ModeBoth, Output: &buf, Format: FormatText, RingSize: 8})
	be.Err(t, err, nil)
	Begin(tr, ScopePass, "sema", 0).End("")
	be.Equal(t, buf.Len(), 0)

	var dump bytes.Buffer
	be.Err(t, tr.(Dumper).Dump(&dump, FormatText), nil)
	be.True(t, strings.Contains(dump.String(), "sema"))
}

func TestNewOff(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	be.Err(t, err, nil)
	be.True(t, !tr.Enabled())
	sp := Begin(tr, ScopeDriver, "x", 0)
	be.Equal(t, sp.ID(), uint64(0))
	be.Equal(t, sp.WithExtra("k", "v").End(""), time.Duration(0))
}

func TestFormatForPath(t *testing.T) {
	be.Equal(t, FormatForPath("out.ndjson"), FormatNDJSON)
	be.Equal(t, FormatForPath("out.json"), FormatChrome)
	be.Equal(t, FormatForPath("-"), FormatText)
	_, err := ParseMode("disk")
	be.Err(t, err, "invalid trace mode")
}

func TestContext(t *testing.T) {
	be.Equal(t, FromContext(context.Background()), Nop)
	r := NewRingTracer(4, LevelDebug)
	ctx := WithTracer(context.Background(), r)
	be.Equal(t, FromContext(ctx), Tracer(r))

	sp := Begin(r, ScopeDriver, "run", 0)
	ctx = WithSpan(ctx, sp)
	be.Equal(t, CurrentSpan(ctx).SpanID, sp.ID())
	be.Equal(t, CurrentSpan(WithSpan(ctx, inert)).SpanID, sp.ID())
}

func TestHeartbeat(t *testing.T) {
	r := NewRingTracer(16, LevelPhase)
	h := StartHeartbeat(r, time.Millisecond)
	deadline := time.Now().Add(2 * time.Second)
	for len(r.Snapshot()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	h.Stop()
	h.Stop()
	be.True(t, len(r.Snapshot()) > 0)
	be.Equal(t, r.Snapshot()[0].Kind, KindHeartbeat)

	var nilBeat *Heartbeat
	nilBeat.Stop()
	be.True(t, StartHeartbeat(Nop, time.Second) == nil)
}
