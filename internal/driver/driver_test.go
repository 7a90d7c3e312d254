package driver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/nalgeon/be"

	"coral/internal/diag"
	"coral/internal/runtime"
	"coral/internal/source"
	"coral/internal/token"
	"coral/internal/trace"
	"coral/internal/vm"
)

const fibSource = `let fib = fn (n) => if n < 2 { n } else { fib(n - 1) + fib(n - 2) };
print(fib(10))
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func runModule(t *testing.T, res *Result) string {
	t.Helper()
	var out strings.Builder
	if err := vm.New(res.MIR, runtime.New(&out), res.FileSet, vm.Options{LeakCheck: true}).Run(); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	return out.String()
}

func TestCompileFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "fib.rinha", fibSource)
	res, err := Compile(context.Background(), path, &Options{})
	be.Err(t, err, nil)
	if !res.OK() {
		t.Fatalf("unexpected diagnostics: %+v", res.Bag.Items())
	}
	be.True(t, res.MIR != nil)
	be.Equal(t, res.MIR.Source, path)
	be.True(t, res.MIR.Func(res.MIR.Main) != nil)
	be.Equal(t, runModule(t, res), "55\n")
}

func TestCompileMissingFile(t *testing.T) {
	_, err := Compile(context.Background(), filepath.Join(t.TempDir(), "nope.rinha"), nil)
	be.Err(t, err, "failed to load")
}

func TestCompileStages(t *testing.T) {
	tests := []struct {
		stage      Stage
		wantSyms   bool
		wantSema   bool
		wantModule bool
	}{
		{StageSyntax, false, false, false},
		{StageSema, true, true, false},
		{StageLower, true, true, true},
	}
	for _, tt := range tests {
		res, err := CompileSource(context.Background(), "fib.rinha", []byte(fibSource), &Options{Stage: tt.stage})
		be.Err(t, err, nil)
		be.True(t, res.Builder != nil)
		be.Equal(t, res.Symbols != nil, tt.wantSyms)
		be.Equal(t, res.Sema != nil, tt.wantSema)
		be.Equal(t, res.MIR != nil, tt.wantModule)
	}
}

func TestCompileStopsOnErrors(t *testing.T) {
	res, err := CompileSource(context.Background(), "bad.rinha", []byte("print(missing)"), nil)
	be.Err(t, err, nil)
	be.True(t, !res.OK())
	be.True(t, res.Sema == nil)
	be.True(t, res.MIR == nil)
	be.Equal(t, res.Bag.Items()[0].Code, diag.SemaUnresolvedSymbol)
}

func TestCompileJSONInput(t *testing.T) {
	const program = `{
  "name": "seven.rinha",
  "expression": {
    "kind": "Print",
    "value": {"kind": "Int", "value": 7, "location": {"start": 6, "end": 7, "filename": "seven.rinha"}},
    "location": {"start": 0, "end": 8, "filename": "seven.rinha"}
  },
  "location": {"start": 0, "end": 8, "filename": "seven.rinha"}
}`
	dir := t.TempDir()
	path := writeFile(t, dir, "seven.json", program)
	res, err := Compile(context.Background(), path, nil)
	be.Err(t, err, nil)
	if !res.OK() {
		t.Fatalf("unexpected diagnostics: %+v", res.Bag.Items())
	}
	be.Equal(t, runModule(t, res), "7\n")

	// forced source format reads the same bytes as program text
	res, err = Compile(context.Background(), path, &Options{Format: FormatSource})
	be.Err(t, err, nil)
	be.True(t, !res.OK())
}

func TestTimingsDiagnostic(t *testing.T) {
	res, err := CompileSource(context.Background(), "fib.rinha", []byte(fibSource), &Options{EnableTimings: true})
	be.Err(t, err, nil)
	items := res.Bag.Items()
	last := items[len(items)-1]
	be.Equal(t, last.Code, diag.ObsTimings)
	be.Equal(t, last.Severity, diag.SevInfo)
	if len(last.Notes) != 1 {
		t.Fatalf("expected one note, got %d", len(last.Notes))
	}
	var payload timingPayload
	be.Err(t, json.Unmarshal([]byte(last.Notes[0].Msg), &payload), nil)
	be.Equal(t, payload.Kind, "compile")
	var names []string
	for _, p := range payload.Phases {
		names = append(names, p.Name)
	}
	be.Equal(t, names, []string{"parse", "symbols", "sema", "lower"})
	be.True(t, res.OK())
}

func TestTimingsSurviveFullBag(t *testing.T) {
	bag := diag.NewBag(1)
	bag.Add(diag.NewError(diag.SemaUnresolvedSymbol, source.Span{}, "x"))
	appendTimingDiagnostic(bag, timingPayload{TotalMS: 1})
	be.Equal(t, bag.Len(), 2)
	be.Equal(t, bag.Items()[1].Code, diag.ObsTimings)
}

func TestPhaseObserver(t *testing.T) {
	var events []PhaseEvent
	_, err := CompileSource(context.Background(), "fib.rinha", []byte(fibSource), &Options{
		PhaseObserver: func(ev PhaseEvent) { events = append(events, ev) },
	})
	be.Err(t, err, nil)
	if len(events) != 8 {
		t.Fatalf("expected 8 events, got %d: %+v", len(events), events)
	}
	for i := 0; i < len(events); i += 2 {
		be.Equal(t, events[i].Status, PhaseStart)
		be.Equal(t, events[i+1].Status, PhaseEnd)
		be.Equal(t, events[i].Name, events[i+1].Name)
	}
}

type collector struct {
	mu     sync.Mutex
	events []trace.Event
}

func (c *collector) Emit(ev *trace.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, *ev)
}
func (c *collector) Flush() error       { return nil }
func (c *collector) Close() error       { return nil }
func (c *collector) Level() trace.Level { return trace.LevelDebug }
func (c *collector) Enabled() bool      { return true }

func TestCompileTraceSpans(t *testing.T) {
	c := &collector{}
	ctx := trace.WithTracer(context.Background(), c)
	_, err := CompileSource(ctx, "fib.rinha", []byte(fibSource), nil)
	be.Err(t, err, nil)

	var root uint64
	children := map[string]uint64{}
	for _, ev := range c.events {
		if ev.Kind != trace.KindSpanBegin {
			continue
		}
		if ev.Name == "compile" {
			root = ev.SpanID
		} else if ev.Scope == trace.ScopePass {
			children[ev.Name] = ev.ParentID
		}
	}
	be.True(t, root != 0)
	for _, name := range []string{"parse", "symbols", "sema", "lower"} {
		if children[name] != root {
			t.Fatalf("phase %s: parent %d, want %d", name, children[name], root)
		}
	}
}

func TestTokenize(t *testing.T) {
	path := writeFile(t, t.TempDir(), "t.rinha", "let x = 1; // done\nx")
	res, err := Tokenize(path, 10)
	be.Err(t, err, nil)
	be.Equal(t, res.Bag.Len(), 0)
	be.Equal(t, res.Tokens[0].Kind, token.KwLet)
	be.Equal(t, res.Tokens[len(res.Tokens)-1].Kind, token.EOF)
}

func TestCheckDir(t *testing.T) {
	fs, results, err := CheckDir(context.Background(), "testdata/check", &Options{MaxDiagnostics: 10}, 2)
	be.Err(t, err, nil)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	be.Equal(t, filepath.Base(results[0].Path), "a.rinha")
	be.Equal(t, filepath.Base(results[1].Path), "b.rinha")
	be.True(t, results[0].Result.OK())
	be.True(t, !results[1].Result.OK())

	merged := MergeBags(results, 10)
	be.True(t, merged.HasErrors())
	d := merged.Items()[0]
	f := fs.Get(d.Primary.File)
	be.True(t, f != nil)
	be.True(t, strings.HasSuffix(f.Path, "b.rinha"))
}

func TestCheckDirEmpty(t *testing.T) {
	_, results, err := CheckDir(context.Background(), t.TempDir(), nil, 0)
	be.Err(t, err, nil)
	be.Equal(t, len(results), 0)
}

func TestCheckDirCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := CheckDir(ctx, "testdata/check", nil, 1)
	be.Err(t, err, context.Canceled)
}

func TestResultOKNil(t *testing.T) {
	var r *Result
	be.True(t, !r.OK())
	be.True(t, !(&Result{}).OK())
}
