package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"coral/internal/buildpipeline"
	"coral/internal/ui"
)

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [flags] [file.rinha|file.json|dir]",
		Short: "Build a coral program into target/<profile>/",
		Long: `Build a program. The llvm backend emits LLVM IR, compiles the C runtime
and links a native executable with clang. The vm backend writes a small
launcher script that runs the program with "coral run".`,
		Args: cobra.MaximumNArgs(1),
		RunE: runBuild,
	}
	cmd.Flags().String("backend", "llvm", "build backend (vm|llvm)")
	cmd.Flags().String("profile", "debug", "output profile directory under target/")
	cmd.Flags().StringP("output", "o", "", "output file name (defaults to the program or package name)")
	cmd.Flags().Bool("leak-check", false, "make the executable fail when heap values are still live at exit")
	cmd.Flags().Bool("emit-mir", false, "keep the MIR dump in the temporary build directory")
	cmd.Flags().Bool("emit-llvm", false, "keep the LLVM IR in the temporary build directory")
	cmd.Flags().Bool("keep-tmp", false, "keep the temporary build directory")
	cmd.Flags().Bool("print-commands", false, "print the clang/ar/llc commands")
	cmd.Flags().String("ui", "auto", "progress view (auto|on|off)")
	return cmd
}

func runBuild(cmd *cobra.Command, args []string) error {
	tgt, err := resolveTarget(args)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	backend, _ := flags.GetString("backend")
	profile, _ := flags.GetString("profile")
	output, _ := flags.GetString("output")
	leakCheck, _ := flags.GetBool("leak-check")
	emitMIR, _ := flags.GetBool("emit-mir")
	emitLLVM, _ := flags.GetBool("emit-llvm")
	keepTmp, _ := flags.GetBool("keep-tmp")
	printCommands, _ := flags.GetBool("print-commands")
	uiValue, _ := flags.GetString("ui")
	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}

	req := &buildpipeline.BuildRequest{
		CompileRequest: buildpipeline.CompileRequest{
			TargetPath:     tgt.path,
			Format:         tgt.format,
			MaxDiagnostics: maxDiagnostics(cmd),
			EnableTimings:  rootBool(cmd, "timings"),
			Cache:          openCache(cmd),
			DisplayName:    tgt.displayName(),
		},
		OutputName:    output,
		Profile:       profile,
		LeakCheck:     leakCheck,
		EmitMIR:       emitMIR,
		EmitLLVM:      emitLLVM,
		KeepTmp:       keepTmp,
		PrintCommands: printCommands,
		CommandLog:    cmd.ErrOrStderr(),
	}
	if m := tgt.manifest; m != nil {
		req.ManifestFound = true
		req.ManifestRoot = m.Root
		req.OutputRoot = m.Root
		if output == "" {
			req.OutputName = m.Config.Build.Output
		}
		if !flags.Changed("emit-llvm") {
			req.EmitLLVM = m.Config.Build.EmitLLVM
		}
		if !flags.Changed("leak-check") {
			req.LeakCheck = m.Config.Run.LeakCheck
		}
	}
	kind, err := buildpipeline.ParseBackend(backend)
	if err != nil {
		return err
	}
	req.Backend = kind

	var res buildpipeline.BuildResult
	work := func(sink buildpipeline.ProgressSink) error {
		req.Progress = sink
		var buildErr error
		res, buildErr = buildpipeline.Build(cmd.Context(), req)
		return buildErr
	}
	if shouldUseTUI(mode, cmd.OutOrStdout()) && !rootBool(cmd, "quiet") {
		err = ui.RunWithProgress("coral build", []string{tgt.displayName()}, cmd.OutOrStdout(), work)
	} else {
		err = work(nil)
	}
	if err != nil {
		return reportCompile(cmd, res.Compile.Result, err)
	}
	if cr := res.Compile.Result; cr != nil && !rootBool(cmd, "quiet") {
		if err := printDiagnostics(cmd, cr.Bag, cr.FileSet, "pretty"); err != nil {
			return err
		}
	}

	if rootBool(cmd, "timings") {
		printStageTimings(cmd.ErrOrStderr(), res.Timings, true, false)
	}
	if !rootBool(cmd, "quiet") {
		out := res.OutputPath
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			if rel, relErr := filepath.Rel(cwd, out); relErr == nil && !strings.HasPrefix(rel, "..") {
				out = rel
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "built %s\n", out)
		if emitMIR || emitLLVM || keepTmp {
			fmt.Fprintf(cmd.OutOrStdout(), "artifacts in %s\n", res.TmpDir)
		}
	}
	return nil
}
