package observ

import (
	"strings"
	"testing"
	"time"

	"github.com/nalgeon/be"
)

func TestTimerPhases(t *testing.T) {
	tm := NewTimer()
	a := tm.Begin("parse")
	time.Sleep(time.Millisecond)
	tm.End(a, "exprs=3")
	b := tm.Begin("sema")
	tm.End(b, "")
	tm.End(42, "ignored")

	be.Equal(t, tm.Len(), 2)
	be.Equal(t, tm.Phase(a).Name, "parse")
	be.Equal(t, tm.Phase(a).Note, "exprs=3")
	be.True(t, tm.Phase(a).Dur >= time.Millisecond)
	be.Equal(t, tm.Phase(-1), Phase{})

	rep := tm.Report()
	if len(rep.Phases) != 2 {
		t.Fatalf("expected 2 phases, got %d", len(rep.Phases))
	}
	be.True(t, rep.TotalMS >= rep.Phases[0].DurationMS)
}

func TestEmptyReport(t *testing.T) {
	rep := NewTimer().Report()
	be.Equal(t, rep.TotalMS, 0.0)
	be.Equal(t, len(rep.Phases), 0)
}

func TestSummaryFormat(t *testing.T) {
	rep := Report{
		TotalMS: 3,
		Phases: []PhaseReport{
			{Name: "parse", DurationMS: 1, Note: "ok"},
			{Name: "lower", DurationMS: 2},
		},
	}
	out := rep.String()
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	be.Equal(t, len(lines), 4)
	be.Equal(t, lines[0], "timings:")
	be.True(t, strings.HasSuffix(lines[1], "1.00 ms  // ok"))
	be.True(t, strings.HasPrefix(lines[3], "  total"))
}

func TestMerge(t *testing.T) {
	var rep Report
	rep.Merge("a.rinha", Report{TotalMS: 1, Phases: []PhaseReport{{Name: "parse", DurationMS: 1}}})
	rep.Merge("", Report{TotalMS: 2, Phases: []PhaseReport{{Name: "run", DurationMS: 2}}})
	be.Equal(t, rep.TotalMS, 3.0)
	be.Equal(t, rep.Phases[0].Name, "a.rinha/parse")
	be.Equal(t, rep.Phases[1].Name, "run")
}
