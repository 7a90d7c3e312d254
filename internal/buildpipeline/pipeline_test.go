package buildpipeline

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/nalgeon/be"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) OnEvent(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// fileStages lists "stage:status" of the per-file events.
func (r *recorder) fileStages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, ev := range r.events {
		if ev.File != "" {
			out = append(out, string(ev.Stage)+":"+string(ev.Status))
		}
	}
	return out
}

func program(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.rinha")
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatalf("write program: %v", err)
	}
	return path
}

const fib = `let fib = fn (n) => if n < 2 { n } else { fib(n - 1) + fib(n - 2) };
print(fib(15))
`

func TestCompileProgress(t *testing.T) {
	rec := &recorder{}
	res, err := Compile(context.Background(), &CompileRequest{TargetPath: program(t, fib), Progress: rec, DisplayName: "main.rinha"})
	be.Err(t, err, nil)
	be.True(t, res.MIR != nil)
	be.Equal(t, rec.fileStages(), []string{
		"parse:queued",
		"parse:working",
		"sema:working",
		"lower:working",
		"lower:done",
	})
	be.True(t, res.Timings.Has(StageParse))
	be.True(t, res.Timings.Has(StageSema))
	be.True(t, res.Timings.Has(StageLower))
}

func TestCompileDiagnostics(t *testing.T) {
	rec := &recorder{}
	res, err := Compile(context.Background(), &CompileRequest{TargetPath: program(t, "print(nope)"), Progress: rec})
	if !errors.Is(err, ErrDiagnostics) {
		t.Fatalf("expected ErrDiagnostics, got %v", err)
	}
	be.True(t, res.Result.Bag.HasErrors())
	stages := rec.fileStages()
	be.Equal(t, stages[len(stages)-1], "sema:error")
}

func TestCompileRequestValidation(t *testing.T) {
	_, err := Compile(context.Background(), nil)
	be.Err(t, err, "missing compile request")
	_, err = Compile(context.Background(), &CompileRequest{})
	be.Err(t, err, "missing target path")
}

func TestRunVM(t *testing.T) {
	var out strings.Builder
	res, err := Run(context.Background(), &RunRequest{
		CompileRequest: CompileRequest{TargetPath: program(t, fib)},
		LeakCheck:      true,
		Stdout:         &out,
	})
	be.Err(t, err, nil)
	be.Equal(t, out.String(), "610\n")
	be.Equal(t, res.ExitCode, 0)
	be.True(t, res.Failure == nil)
	be.Equal(t, res.Stats.Heap.Live, int64(0))
	be.True(t, res.Timings.Has(StageRun))
}

func TestRunVMFailure(t *testing.T) {
	var out strings.Builder
	rec := &recorder{}
	res, err := Run(context.Background(), &RunRequest{
		CompileRequest: CompileRequest{TargetPath: program(t, `let a = print("x"); print(1 / 0)`), Progress: rec},
		Stdout:         &out,
	})
	be.Err(t, err, nil)
	be.Equal(t, out.String(), "\"x\"\n")
	be.Equal(t, res.ExitCode, 1)
	if res.Failure == nil || !strings.Contains(res.Failure.Message, "division by zero") {
		t.Fatalf("unexpected failure: %v", res.Failure)
	}
	stages := rec.fileStages()
	be.Equal(t, stages[len(stages)-1], "run:error")
}

func TestRunUnknownBackend(t *testing.T) {
	_, err := Run(context.Background(), &RunRequest{CompileRequest: CompileRequest{TargetPath: "x.rinha"}, Backend: "jvm"})
	be.Err(t, err, "unsupported backend")
}

func TestBuildVMWrapper(t *testing.T) {
	root := t.TempDir()
	path := program(t, fib)
	res, err := Build(context.Background(), &BuildRequest{
		CompileRequest: CompileRequest{TargetPath: path},
		OutputRoot:     root,
		Backend:        BackendVM,
		LeakCheck:      true,
		EmitMIR:        true,
	})
	be.Err(t, err, nil)
	be.Equal(t, res.OutputPath, filepath.Join(root, "target", "debug", "main"))

	script, err := os.ReadFile(res.OutputPath)
	be.Err(t, err, nil)
	be.True(t, strings.HasPrefix(string(script), "#!/bin/sh\n"))
	be.True(t, strings.Contains(string(script), "exec coral run --backend=vm --leak-check "))
	be.True(t, strings.Contains(string(script), path))

	info, err := os.Stat(res.OutputPath)
	be.Err(t, err, nil)
	be.True(t, info.Mode().Perm()&0o100 != 0)

	dump, err := os.ReadFile(filepath.Join(res.TmpDir, "out.mir"))
	be.Err(t, err, nil)
	be.True(t, strings.Contains(string(dump), "fib"))
}

func TestBuildManifestWrapper(t *testing.T) {
	script := buildVMWrapperScript(true, "/work/app", "/work/app/main.rinha", false)
	be.Equal(t, script, "#!/bin/sh\nset -e\ncd \"/work/app\"\nexec coral run --backend=vm\n")
}

func TestBuildLLVM(t *testing.T) {
	if _, err := exec.LookPath("clang"); err != nil {
		t.Skip("clang not available")
	}
	if _, err := exec.LookPath("ar"); err != nil {
		t.Skip("ar not available")
	}
	var out, errOut strings.Builder
	res, err := Run(context.Background(), &RunRequest{
		CompileRequest: CompileRequest{TargetPath: program(t, fib)},
		Backend:        BackendLLVM,
		LeakCheck:      true,
		Stdout:         &out,
		Stderr:         &errOut,
	})
	be.Err(t, err, nil)
	be.Equal(t, res.ExitCode, 0)
	be.Equal(t, out.String(), "610\n")
	be.True(t, res.Timings.Has(StageLink))
}

func TestParseBackend(t *testing.T) {
	b, err := ParseBackend("")
	be.Err(t, err, nil)
	be.Equal(t, b, BackendVM)
	b, err = ParseBackend("llvm")
	be.Err(t, err, nil)
	be.Equal(t, b, BackendLLVM)
	_, err = ParseBackend("wasm")
	be.Err(t, err, "unsupported backend")
}

func TestTimings(t *testing.T) {
	var a, b Timings
	be.True(t, !a.Has(StageRun))
	be.Equal(t, a.Sum(StageRun), a.Duration(StageRun))
	a.Set(StageParse, 2)
	b.Set(StageRun, 3)
	a.Merge(b)
	be.Equal(t, int64(a.Sum(StageParse, StageRun)), int64(5))
}

func TestChannelSink(t *testing.T) {
	ch := make(chan Event, 1)
	ChannelSink{Ch: ch}.OnEvent(Event{Stage: StageRun})
	be.Equal(t, (<-ch).Stage, StageRun)
	ChannelSink{}.OnEvent(Event{})

	var got []Stage
	FuncSink(func(ev Event) { got = append(got, ev.Stage) }).OnEvent(Event{Stage: StageLink})
	be.Equal(t, got, []Stage{StageLink})
}

func TestExtractNativeRuntime(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "rt")
	sources, err := extractNativeRuntime(dir)
	be.Err(t, err, nil)
	be.True(t, len(sources) > 0)
	for _, src := range sources {
		be.Equal(t, filepath.Ext(src), ".c")
		be.Equal(t, filepath.Dir(src), dir)
	}
	_, err = os.Stat(filepath.Join(dir, "coral.h"))
	be.Err(t, err, nil)
}
