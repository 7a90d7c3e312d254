package prof

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nalgeon/be"
)

func TestStartNothing(t *testing.T) {
	s, err := Start(Options{})
	be.Err(t, err, nil)
	be.True(t, s == nil)
	be.Err(t, s.Stop(), nil)
}

func TestProfilesWritten(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		CPU:   filepath.Join(dir, "cpu.pprof"),
		Mem:   filepath.Join(dir, "mem.pprof"),
		Trace: filepath.Join(dir, "rt.trace"),
	}
	s, err := Start(opts)
	be.Err(t, err, nil)
	be.Err(t, s.Stop(), nil)
	be.Err(t, s.Stop(), nil)

	for _, path := range []string{opts.CPU, opts.Mem, opts.Trace} {
		info, err := os.Stat(path)
		be.Err(t, err, nil)
		be.True(t, info.Size() > 0)
	}
}

func TestStartBadPath(t *testing.T) {
	_, err := Start(Options{CPU: filepath.Join(t.TempDir(), "missing", "cpu.pprof")})
	be.Err(t, err, "cpu profile")
}
