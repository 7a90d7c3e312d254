package buildpipeline

import (
	"fmt"
	"time"
)

// Stage describes a high-level pipeline phase.
type Stage string

const (
	StageParse Stage = "parse"
	StageSema  Stage = "sema"
	StageLower Stage = "lower"
	StageBuild Stage = "build"
	StageLink  Stage = "link"
	StageRun   Stage = "run"
)

// Status captures progress state within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports progress for a file, or for the whole pipeline when File
// is empty.
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}

// Backend selects how a program is executed.
type Backend string

const (
	// BackendVM interprets MIR in process.
	BackendVM Backend = "vm"
	// BackendLLVM emits LLVM IR and links it with the C runtime.
	BackendLLVM Backend = "llvm"
)

// ParseBackend accepts "vm" and "llvm"; empty means vm.
func ParseBackend(s string) (Backend, error) {
	switch Backend(s) {
	case "", BackendVM:
		return BackendVM, nil
	case BackendLLVM:
		return BackendLLVM, nil
	}
	return "", fmt.Errorf("unsupported backend: %s (supported: vm, llvm)", s)
}

// Timings holds stage durations.
type Timings struct {
	stages map[Stage]time.Duration
}

func (t *Timings) ensure() {
	if t.stages == nil {
		t.stages = make(map[Stage]time.Duration)
	}
}

// Set stores a duration for the given stage.
func (t *Timings) Set(stage Stage, dur time.Duration) {
	if t == nil {
		return
	}
	t.ensure()
	t.stages[stage] = dur
}

// Has reports whether a duration for stage is recorded.
func (t Timings) Has(stage Stage) bool {
	if t.stages == nil {
		return false
	}
	_, ok := t.stages[stage]
	return ok
}

func (t Timings) Duration(stage Stage) time.Duration {
	if t.stages == nil {
		return 0
	}
	return t.stages[stage]
}

// Sum adds the durations of stages.
func (t Timings) Sum(stages ...Stage) time.Duration {
	if t.stages == nil {
		return 0
	}
	var total time.Duration
	for _, stage := range stages {
		total += t.stages[stage]
	}
	return total
}

// Merge copies every stage recorded in other.
func (t *Timings) Merge(other Timings) {
	for stage, dur := range other.stages {
		t.Set(stage, dur)
	}
}
