package buildpipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coral/internal/driver"
	"coral/internal/mir"
	"coral/internal/observ"
)

// ErrDiagnostics reports that compilation produced error diagnostics. The
// diagnostics themselves are in CompileResult.Result.Bag.
var ErrDiagnostics = errors.New("diagnostics reported errors")

// CompileRequest configures the shared compilation pipeline.
type CompileRequest struct {
	TargetPath     string
	MaxDiagnostics int
	Format         driver.InputFormat
	MaxRounds      int
	EnableTimings  bool
	Cache          *driver.DiskCache
	Progress       ProgressSink
	// DisplayName labels progress events; defaults to TargetPath.
	DisplayName string
}

// CompileResult captures compilation artefacts and stage timings.
type CompileResult struct {
	Result  *driver.Result
	MIR     *mir.Module
	Timings Timings
}

// Compile runs the front end and lowering into MIR.
func Compile(ctx context.Context, req *CompileRequest) (CompileResult, error) {
	var result CompileResult
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		return result, fmt.Errorf("missing compile request")
	}
	if req.TargetPath == "" {
		return result, fmt.Errorf("missing target path")
	}
	file := req.DisplayName
	if file == "" {
		file = req.TargetPath
	}
	emitQueued(req.Progress, file)

	phases := &phaseObserver{sink: req.Progress, file: file}
	res, err := driver.Compile(ctx, req.TargetPath, &driver.Options{
		Format:         req.Format,
		MaxDiagnostics: req.MaxDiagnostics,
		MaxRounds:      req.MaxRounds,
		EnableTimings:  req.EnableTimings,
		PhaseObserver:  phases.OnPhase,
		Cache:          req.Cache,
	})
	result.Result = res
	if res != nil {
		recordCompileTimings(&result, res.TimingReport)
	}
	if err != nil {
		emitStage(req.Progress, file, phases.current(), StatusError, err, 0)
		return result, err
	}
	if !res.OK() {
		emitStage(req.Progress, file, phases.current(), StatusError, ErrDiagnostics, 0)
		return result, ErrDiagnostics
	}
	result.MIR = res.MIR
	emitStage(req.Progress, file, StageLower, StatusDone, nil, result.Timings.Sum(StageParse, StageSema, StageLower))
	return result, nil
}

// phaseObserver maps driver phases onto pipeline stages.
type phaseObserver struct {
	sink  ProgressSink
	file  string
	stage Stage
}

func stageOf(phase string) Stage {
	switch phase {
	case "cache", "parse", "load_json":
		return StageParse
	case "symbols", "sema":
		return StageSema
	}
	return StageLower
}

func (p *phaseObserver) OnPhase(ev driver.PhaseEvent) {
	if p == nil || ev.Status != driver.PhaseStart {
		return
	}
	stage := stageOf(ev.Name)
	if stage == p.stage {
		return
	}
	p.stage = stage
	emitStage(p.sink, p.file, stage, StatusWorking, nil, 0)
}

func (p *phaseObserver) current() Stage {
	if p.stage == "" {
		return StageParse
	}
	return p.stage
}

func recordCompileTimings(result *CompileResult, report observ.Report) {
	if result == nil {
		return
	}
	for _, phase := range report.Phases {
		stage := stageOf(phase.Name)
		result.Timings.Set(stage, result.Timings.Duration(stage)+durationFromMillis(phase.DurationMS))
	}
}

func durationFromMillis(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

func emitQueued(sink ProgressSink, file string) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{File: file, Stage: StageParse, Status: StatusQueued})
}

func emitStage(sink ProgressSink, file string, stage Stage, status Status, err error, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{Stage: stage, Status: status, Err: err, Elapsed: elapsed})
	if file != "" {
		sink.OnEvent(Event{File: file, Stage: stage, Status: status, Err: err, Elapsed: elapsed})
	}
}
