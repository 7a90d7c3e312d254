package buildpipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"coral/internal/runtime"
	"coral/internal/trace"
	"coral/internal/vm"
)

// RunRequest configures compiling and executing a program.
type RunRequest struct {
	CompileRequest
	Backend   Backend
	LeakCheck bool
	MaxFrames int
	Stdout    io.Writer
	Stderr    io.Writer
	// Args are passed to native executables.
	Args          []string
	PrintCommands bool
}

// RunResult describes a finished run. A program that fails at runtime is
// not a pipeline error: Failure and ExitCode describe it instead.
type RunResult struct {
	Compile  CompileResult
	Timings  Timings
	ExitCode int
	// Failure is set when the VM backend stopped with a runtime failure.
	Failure *vm.VMError
	// Stats is only collected by the VM backend.
	Stats *vm.Stats
}

// Run compiles the target and executes it on the selected backend.
func Run(ctx context.Context, req *RunRequest) (RunResult, error) {
	var result RunResult
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		return result, fmt.Errorf("missing run request")
	}
	stdout, stderr := req.Stdout, req.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	backend, err := ParseBackend(string(req.Backend))
	if err != nil {
		return result, err
	}
	file := req.DisplayName
	if file == "" {
		file = req.TargetPath
	}

	if backend == BackendLLVM {
		return runNative(ctx, req, file, stdout, stderr)
	}

	compileRes, err := Compile(ctx, &req.CompileRequest)
	result.Compile = compileRes
	result.Timings = compileRes.Timings
	if err != nil {
		return result, err
	}

	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "run", trace.CurrentSpan(ctx).SpanID).WithExtra("backend", string(backend))
	emitStage(req.Progress, file, StageRun, StatusWorking, nil, 0)
	start := time.Now()

	rt := runtime.New(stdout)
	machine := vm.New(compileRes.MIR, rt, compileRes.Result.FileSet, vm.Options{
		MaxFrames:  req.MaxFrames,
		LeakCheck:  req.LeakCheck,
		Tracer:     tracer,
		ParentSpan: span.ID(),
	})
	vmErr := machine.Run()
	stats := machine.Stats()
	result.Stats = &stats
	result.Timings.Set(StageRun, time.Since(start))

	if vmErr != nil {
		span.End(vmErr.Code.String())
		result.Failure = vmErr
		result.ExitCode = 1
		emitStage(req.Progress, file, StageRun, StatusError, vmErr, result.Timings.Duration(StageRun))
		return result, nil
	}
	span.End("ok")
	emitStage(req.Progress, file, StageRun, StatusDone, nil, result.Timings.Duration(StageRun))
	return result, nil
}

func runNative(ctx context.Context, req *RunRequest, file string, stdout, stderr io.Writer) (RunResult, error) {
	var result RunResult
	root, err := os.MkdirTemp("", "coral-run-*")
	if err != nil {
		return result, err
	}
	defer func() {
		_ = os.RemoveAll(root)
	}()

	buildRes, err := Build(ctx, &BuildRequest{
		CompileRequest: req.CompileRequest,
		OutputName:     "program",
		OutputRoot:     root,
		Backend:        BackendLLVM,
		LeakCheck:      req.LeakCheck,
		PrintCommands:  req.PrintCommands,
		CommandLog:     stderr,
	})
	result.Compile = buildRes.Compile
	result.Timings = buildRes.Timings
	if err != nil {
		return result, err
	}

	emitStage(req.Progress, file, StageRun, StatusWorking, nil, 0)
	start := time.Now()
	// #nosec G204 -- the executable was just produced by Build
	cmd := exec.CommandContext(ctx, buildRes.OutputPath, req.Args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.Stdin = os.Stdin
	runErr := cmd.Run()
	result.Timings.Set(StageRun, time.Since(start))

	var exitErr *exec.ExitError
	switch {
	case runErr == nil:
		emitStage(req.Progress, file, StageRun, StatusDone, nil, result.Timings.Duration(StageRun))
	case errors.As(runErr, &exitErr):
		result.ExitCode = exitErr.ExitCode()
		emitStage(req.Progress, file, StageRun, StatusError, runErr, result.Timings.Duration(StageRun))
	default:
		emitStage(req.Progress, file, StageRun, StatusError, runErr, 0)
		return result, fmt.Errorf("failed to start %s: %w", buildRes.OutputPath, runErr)
	}
	return result, nil
}
