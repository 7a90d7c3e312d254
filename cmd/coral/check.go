package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"coral/internal/diag"
	"coral/internal/driver"
	"coral/internal/source"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [flags] [file|dir]",
		Short: "Report diagnostics without running the program",
		Long: `Parse, resolve and check programs. A directory is searched recursively
for .rinha files, which are checked in parallel.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCheck,
	}
	cmd.Flags().String("format", "pretty", "diagnostics format (pretty|json)")
	cmd.Flags().String("stage", "sema", "last stage to run (syntax|sema|lower)")
	cmd.Flags().Int("jobs", runtime.NumCPU(), "files checked in parallel")
	cmd.Flags().String("min-severity", "info", "lowest severity reported (info|warning|error)")
	return cmd
}

func parseStage(s string) (driver.Stage, error) {
	switch s {
	case "syntax":
		return driver.StageSyntax, nil
	case "sema", "":
		return driver.StageSema, nil
	case "lower", "all":
		return driver.StageLower, nil
	}
	return 0, fmt.Errorf("unknown stage %q (expected syntax|sema|lower)", s)
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	stageName, _ := cmd.Flags().GetString("stage")
	jobs, _ := cmd.Flags().GetInt("jobs")
	stage, err := parseStage(stageName)
	if err != nil {
		return err
	}
	minSeverity, _ := cmd.Flags().GetString("min-severity")
	floor, err := diag.ParseSeverity(minSeverity)
	if err != nil {
		return err
	}
	opts := &driver.Options{
		Stage:          stage,
		MaxDiagnostics: maxDiagnostics(cmd),
		EnableTimings:  rootBool(cmd, "timings"),
	}

	path := "."
	if len(args) == 1 {
		path = args[0]
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var (
		bag   *diag.Bag
		fs    *source.FileSet
		files int
	)
	if info.IsDir() {
		var results []driver.CheckDirResult
		fs, results, err = driver.CheckDir(cmd.Context(), path, opts, jobs)
		if err != nil {
			return err
		}
		bag = driver.MergeBags(results, maxDiagnostics(cmd))
		files = len(results)
	} else {
		opts.Format = formatOf(path)
		res, compileErr := driver.Compile(cmd.Context(), path, opts)
		if compileErr != nil {
			return compileErr
		}
		bag, fs, files = res.Bag, res.FileSet, 1
	}

	errs, warns := countSeverities(bag)
	if err := printDiagnostics(cmd, bag.Filter(floor), fs, format); err != nil {
		return err
	}
	if format != "json" && !rootBool(cmd, "quiet") {
		fmt.Fprintf(cmd.ErrOrStderr(), "checked %d %s: %d %s, %d %s\n",
			files, plural(files, "file", "files"),
			errs, plural(errs, "error", "errors"),
			warns, plural(warns, "warning", "warnings"))
	}
	if errs > 0 {
		return &exitError{code: 1}
	}
	return nil
}

func countSeverities(bag *diag.Bag) (errs, warns int) {
	for _, d := range bag.Items() {
		switch d.Severity {
		case diag.SevError:
			errs++
		case diag.SevWarning:
			warns++
		}
	}
	return errs, warns
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
