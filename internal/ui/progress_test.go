package ui

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/nalgeon/be"

	"coral/internal/buildpipeline"
)

func apply(m *progressModel, events ...buildpipeline.Event) {
	for _, ev := range events {
		m.applyEvent(ev)
	}
}

func TestProgressTracksFiles(t *testing.T) {
	m := NewProgressModel("build", []string{"a.rinha"}, nil).(*progressModel)
	apply(m,
		buildpipeline.Event{File: "a.rinha", Stage: buildpipeline.StageParse, Status: buildpipeline.StatusWorking},
		buildpipeline.Event{File: "b.rinha", Stage: buildpipeline.StageParse, Status: buildpipeline.StatusQueued},
		buildpipeline.Event{Stage: buildpipeline.StageSema, Status: buildpipeline.StatusWorking},
	)
	be.Equal(t, len(m.items), 2)
	be.Equal(t, m.items[0].status, "parsing")
	be.Equal(t, m.items[1].status, "queued")
	be.Equal(t, m.stage, "checking")

	view := m.View()
	be.True(t, strings.Contains(view, "build (checking)"))
	be.True(t, strings.Contains(view, "parsing a.rinha"))
	be.True(t, strings.Contains(view, "queued b.rinha"))
}

func TestProgressPercent(t *testing.T) {
	m := NewProgressModel("run", []string{"a", "b"}, nil).(*progressModel)
	be.Equal(t, m.percent(), 0.0)
	apply(m,
		buildpipeline.Event{File: "a", Stage: buildpipeline.StageRun, Status: buildpipeline.StatusDone},
		buildpipeline.Event{File: "b", Stage: buildpipeline.StageSema, Status: buildpipeline.StatusWorking},
	)
	be.Equal(t, m.percent(), (1.0+0.3)/2)
}

func TestProgressFailure(t *testing.T) {
	m := NewProgressModel("run", nil, nil).(*progressModel)
	apply(m, buildpipeline.Event{File: "a", Stage: buildpipeline.StageRun, Status: buildpipeline.StatusError, Err: errors.New("boom"), Elapsed: 2 * time.Millisecond})
	m.done = true
	view := m.View()
	be.True(t, strings.HasPrefix(view, "failed: run"))
	be.True(t, strings.Contains(view, "error a 2.0ms"))
}

func TestProgressQuitsWhenEventsClose(t *testing.T) {
	events := make(chan buildpipeline.Event)
	close(events)
	m := NewProgressModel("x", nil, events).(*progressModel)
	msg := m.listenForEvent()()
	_, ok := msg.(doneMsg)
	be.True(t, ok)
	next, cmd := m.Update(msg)
	be.True(t, next.(*progressModel).done)
	be.True(t, cmd != nil)
}

func TestTruncate(t *testing.T) {
	be.Equal(t, truncate("short", 10), "short")
	be.Equal(t, truncate("abcdefghij", 6), "abc...")
	be.Equal(t, truncate("日本語テキスト", 7), "日本...")
	be.Equal(t, truncate("abcdef", 2), "ab")
}

func TestFormatDuration(t *testing.T) {
	be.Equal(t, formatDuration(500*time.Microsecond), "500µs")
	be.Equal(t, formatDuration(1500*time.Microsecond), "1.5ms")
	be.Equal(t, formatDuration(2*time.Second), "2.00s")
}

func TestRunWithProgressReturnsWorkError(t *testing.T) {
	want := errors.New("compile failed")
	err := RunWithProgress("build", []string{"a"}, io.Discard, func(sink buildpipeline.ProgressSink) error {
		sink.OnEvent(buildpipeline.Event{File: "a", Stage: buildpipeline.StageParse, Status: buildpipeline.StatusWorking})
		return want
	})
	be.Err(t, err, want)
}
