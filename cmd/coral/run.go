package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"coral/internal/buildpipeline"
	"coral/internal/trace"
	"coral/internal/vm"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [flags] [file.rinha|file.json|dir] [-- args...]",
		Short: "Compile and execute a coral program",
		Long: `Compile a program and execute it. Without a file argument the entry of
the nearest coral.toml is run. The vm backend interprets MIR directly; the
llvm backend builds a native executable with clang and runs it.`,
		Args: cobra.ArbitraryArgs,
		RunE: runExecution,
	}
	cmd.Flags().String("backend", "vm", "execution backend (vm|llvm)")
	cmd.Flags().Bool("leak-check", false, "fail when heap values are still live at exit")
	cmd.Flags().Int("max-frames", 0, "maximum call depth before a stack overflow (0 = default)")
	cmd.Flags().Bool("stats", false, "print VM execution statistics to stderr")
	cmd.Flags().Bool("print-commands", false, "print external toolchain commands (llvm backend)")
	return cmd
}

func runExecution(cmd *cobra.Command, args []string) error {
	var programArgs []string
	if at := cmd.ArgsLenAtDash(); at >= 0 {
		programArgs = args[at:]
		args = args[:at]
	}
	if len(args) > 1 {
		return fmt.Errorf("expected at most one program, got %d", len(args))
	}
	tgt, err := resolveTarget(args)
	if err != nil {
		return err
	}

	backend, _ := cmd.Flags().GetString("backend")
	leakCheck, _ := cmd.Flags().GetBool("leak-check")
	maxFrames, _ := cmd.Flags().GetInt("max-frames")
	showStats, _ := cmd.Flags().GetBool("stats")
	printCommands, _ := cmd.Flags().GetBool("print-commands")
	if m := tgt.manifest; m != nil {
		if !cmd.Flags().Changed("backend") {
			backend = m.Config.Run.Backend
		}
		if !cmd.Flags().Changed("leak-check") {
			leakCheck = m.Config.Run.LeakCheck
		}
		if !cmd.Flags().Changed("max-frames") {
			maxFrames = m.Config.Run.MaxFrames
		}
	}
	kind, err := buildpipeline.ParseBackend(backend)
	if err != nil {
		return err
	}

	timings := rootBool(cmd, "timings")
	res, err := buildpipeline.Run(cmd.Context(), &buildpipeline.RunRequest{
		CompileRequest: buildpipeline.CompileRequest{
			TargetPath:     tgt.path,
			Format:         tgt.format,
			MaxDiagnostics: maxDiagnostics(cmd),
			EnableTimings:  timings,
			Cache:          openCache(cmd),
			DisplayName:    tgt.displayName(),
		},
		Backend:       kind,
		LeakCheck:     leakCheck,
		MaxFrames:     maxFrames,
		Stdout:        cmd.OutOrStdout(),
		Stderr:        cmd.ErrOrStderr(),
		Args:          programArgs,
		PrintCommands: printCommands,
	})
	if err != nil {
		return reportCompile(cmd, res.Compile.Result, err)
	}
	if cr := res.Compile.Result; cr != nil && cr.Bag.Len() > 0 && !rootBool(cmd, "quiet") {
		if err := printDiagnostics(cmd, cr.Bag, cr.FileSet, "pretty"); err != nil {
			return err
		}
	}

	stderr := cmd.ErrOrStderr()
	if res.Failure != nil {
		fmt.Fprint(stderr, res.Failure.FormatWithFiles(res.Compile.Result.FileSet))
		dumpTraceRing(cmd)
	}
	if showStats && res.Stats != nil {
		printVMStats(cmd, res.Stats)
	}
	if timings {
		printStageTimings(stderr, res.Timings, true, true)
	}
	if res.ExitCode != 0 {
		return &exitError{code: res.ExitCode}
	}
	return nil
}

func printVMStats(cmd *cobra.Command, s *vm.Stats) {
	fmt.Fprintf(cmd.ErrOrStderr(),
		"steps %d, calls %d (tail %d), peak frames %d, peak scope entries %d\nheap: allocs %d, frees %d, live %d, peak live %d\n",
		s.Steps, s.Calls, s.TailCalls, s.PeakFrames, s.PeakScopeEntries,
		s.Heap.Allocs, s.Heap.Frees, s.Heap.Live, s.Heap.PeakLive)
}

// dumpTraceRing writes the in-memory trace after a failed run.
func dumpTraceRing(cmd *cobra.Command) {
	d, ok := trace.FromContext(cmd.Context()).(trace.Dumper)
	if !ok {
		return
	}
	out := cmd.ErrOrStderr()
	fmt.Fprintln(out, "--- trace ---")
	if err := d.Dump(out, trace.FormatText); err != nil {
		fmt.Fprintf(out, "trace: dump error: %v\n", err)
	}
}
