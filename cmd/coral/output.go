package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"coral/internal/buildpipeline"
	"coral/internal/diag"
	"coral/internal/diagfmt"
	"coral/internal/driver"
	"coral/internal/source"
)

type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func readUIMode(value string) (uiMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return uiModeAuto, nil
	case "on":
		return uiModeOn, nil
	case "off":
		return uiModeOff, nil
	}
	return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
}

// shouldUseTUI reports whether a live view may take over out.
func shouldUseTUI(mode uiMode, out io.Writer) bool {
	switch mode {
	case uiModeOn:
		return true
	case uiModeOff:
		return false
	}
	f, ok := out.(*os.File)
	return ok && isTerminal(f)
}

// useColor resolves --color against the writer diagnostics go to.
func useColor(cmd *cobra.Command, out io.Writer) bool {
	mode, _ := cmd.Root().PersistentFlags().GetString("color")
	switch mode {
	case "on", "always":
		return true
	case "off", "never":
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := out.(*os.File)
	return ok && isTerminal(f)
}

func rootBool(cmd *cobra.Command, name string) bool {
	v, _ := cmd.Root().PersistentFlags().GetBool(name)
	return v
}

func maxDiagnostics(cmd *cobra.Command) int {
	v, _ := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	return v
}

// openCache returns the user compilation cache unless --no-cache is set.
// A cache that cannot be opened is skipped with a note on stderr.
func openCache(cmd *cobra.Command) *driver.DiskCache {
	if rootBool(cmd, "no-cache") {
		return nil
	}
	c, err := driver.OpenDiskCache("coral")
	if err != nil {
		if !rootBool(cmd, "quiet") {
			fmt.Fprintf(cmd.ErrOrStderr(), "note: compilation cache disabled: %v\n", err)
		}
		return nil
	}
	return c
}

// printDiagnostics renders bag in the requested format. Pretty output goes
// to stderr, JSON to stdout.
func printDiagnostics(cmd *cobra.Command, bag *diag.Bag, fs *source.FileSet, format string) error {
	if bag == nil || fs == nil {
		return nil
	}
	bag.Sort()
	switch format {
	case "json":
		return diagfmt.JSON(cmd.OutOrStdout(), bag, fs, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         diagfmt.PathModeRelative,
			Max:              maxDiagnostics(cmd),
			IncludeNotes:     true,
		})
	case "", "pretty":
		if bag.Len() == 0 {
			return nil
		}
		out := cmd.ErrOrStderr()
		diagfmt.Pretty(out, bag, fs, diagfmt.PrettyOpts{
			Color:     useColor(cmd, out),
			Context:   1,
			PathMode:  diagfmt.PathModeRelative,
			ShowNotes: true,
		})
		return nil
	}
	return fmt.Errorf("unknown diagnostics format %q (expected pretty|json)", format)
}

// reportCompile prints whatever diagnostics a compile produced and converts
// ErrDiagnostics into exit status 1.
func reportCompile(cmd *cobra.Command, res *driver.Result, err error) error {
	if res != nil {
		if perr := printDiagnostics(cmd, res.Bag, res.FileSet, "pretty"); perr != nil {
			return perr
		}
	}
	if errors.Is(err, buildpipeline.ErrDiagnostics) {
		return &exitError{code: 1}
	}
	return err
}

func printStageTimings(out io.Writer, timings buildpipeline.Timings, includeBuilt, includeRun bool) {
	if out == nil {
		return
	}
	if timings.Has(buildpipeline.StageParse) {
		fmt.Fprintf(out, "parsed %.1f ms\n", toMillis(timings.Duration(buildpipeline.StageParse)))
	}
	if timings.Has(buildpipeline.StageSema) {
		fmt.Fprintf(out, "checked %.1f ms\n", toMillis(timings.Duration(buildpipeline.StageSema)))
	}
	if includeBuilt && (timings.Has(buildpipeline.StageLower) || timings.Has(buildpipeline.StageBuild) || timings.Has(buildpipeline.StageLink)) {
		built := timings.Sum(buildpipeline.StageLower, buildpipeline.StageBuild, buildpipeline.StageLink)
		fmt.Fprintf(out, "built %.1f ms\n", toMillis(built))
	}
	if includeRun && timings.Has(buildpipeline.StageRun) {
		fmt.Fprintf(out, "ran %.1f ms\n", toMillis(timings.Duration(buildpipeline.StageRun)))
	}
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
