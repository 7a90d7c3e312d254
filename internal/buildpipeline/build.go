// Package buildpipeline turns a program file into MIR, a native
// executable or a finished run, reporting progress along the way.
package buildpipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"coral/internal/backend/llvm"
	"coral/internal/mir"
)

// BuildRequest configures output generation for a compilation.
type BuildRequest struct {
	CompileRequest
	OutputName string
	OutputRoot string
	Profile    string
	Backend    Backend
	// LeakCheck makes native executables fail when objects outlive the
	// program.
	LeakCheck     bool
	EmitMIR       bool
	EmitLLVM      bool
	KeepTmp       bool
	PrintCommands bool
	// CommandLog receives printed commands; defaults to stderr.
	CommandLog    io.Writer
	ManifestRoot  string
	ManifestFound bool
}

// BuildResult captures build artefacts and timings.
type BuildResult struct {
	OutputPath string
	TmpDir     string
	Timings    Timings
	Compile    CompileResult
}

// Build compiles the target and writes target/<profile>/<name>: a native
// executable for llvm, or a wrapper script around "coral run" for vm.
func Build(ctx context.Context, req *BuildRequest) (BuildResult, error) {
	var result BuildResult
	if req == nil {
		return result, fmt.Errorf("missing build request")
	}
	reqCopy := *req
	req = &reqCopy

	if req.OutputName == "" {
		req.OutputName = strings.TrimSuffix(filepath.Base(req.TargetPath), filepath.Ext(req.TargetPath))
	}
	if req.Profile == "" {
		req.Profile = "debug"
	}
	if req.Backend == "" {
		req.Backend = BackendVM
	}
	if req.Backend != BackendVM && req.Backend != BackendLLVM {
		return result, fmt.Errorf("unsupported backend: %s (supported: vm, llvm)", req.Backend)
	}

	compileRes, err := Compile(ctx, &req.CompileRequest)
	result.Compile = compileRes
	result.Timings = compileRes.Timings
	if err != nil {
		return result, err
	}
	file := req.DisplayName
	if file == "" {
		file = req.TargetPath
	}

	outputRoot := req.OutputRoot
	if outputRoot == "" {
		cwd, cwdErr := os.Getwd()
		if cwdErr != nil {
			cwd = "."
		}
		outputRoot = cwd
	}
	outputDir := filepath.Join(outputRoot, "target", req.Profile)
	outputPath := filepath.Join(outputDir, req.OutputName)
	tmpDir := filepath.Join(outputDir, ".tmp", req.OutputName)
	result.OutputPath = outputPath
	result.TmpDir = tmpDir

	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		return result, fmt.Errorf("failed to create output dir: %w", err)
	}

	keepTmp := req.KeepTmp || req.EmitMIR || req.EmitLLVM
	if req.Backend == BackendLLVM || keepTmp {
		if err := os.MkdirAll(tmpDir, 0o750); err != nil {
			return result, fmt.Errorf("failed to create tmp dir: %w", err)
		}
	}

	if req.EmitMIR {
		if err := writeMIRDump(filepath.Join(tmpDir, "out.mir"), compileRes.MIR); err != nil {
			emitStage(req.Progress, file, StageBuild, StatusError, err, 0)
			return result, err
		}
	}

	buildStart := time.Now()
	emitStage(req.Progress, file, StageBuild, StatusWorking, nil, 0)

	switch req.Backend {
	case BackendVM:
		script := buildVMWrapperScript(req.ManifestFound, req.ManifestRoot, req.TargetPath, req.LeakCheck)
		if err := os.WriteFile(outputPath, []byte(script), 0o600); err != nil {
			err = fmt.Errorf("failed to write build output %q: %w", outputPath, err)
			emitStage(req.Progress, file, StageBuild, StatusError, err, 0)
			return result, err
		}
		// #nosec G302 -- wrapper script must be executable by the current user
		if err := os.Chmod(outputPath, 0o700); err != nil {
			err = fmt.Errorf("failed to mark build output executable: %w", err)
			emitStage(req.Progress, file, StageBuild, StatusError, err, 0)
			return result, err
		}
		result.Timings.Set(StageBuild, time.Since(buildStart))

	case BackendLLVM:
		tc, err := newToolchain(ctx, req.PrintCommands, req.CommandLog)
		if err != nil {
			emitStage(req.Progress, file, StageBuild, StatusError, err, 0)
			return result, err
		}
		llvmIR, err := llvm.EmitModule(compileRes.MIR, llvm.Options{
			Triple:    tc.triple,
			LeakCheck: req.LeakCheck,
		})
		if err != nil {
			err = fmt.Errorf("LLVM emit failed: %w", err)
			emitStage(req.Progress, file, StageBuild, StatusError, err, 0)
			return result, err
		}
		if err := os.WriteFile(filepath.Join(tmpDir, "out.ll"), []byte(llvmIR), 0o600); err != nil {
			err = fmt.Errorf("failed to write LLVM IR: %w", err)
			emitStage(req.Progress, file, StageBuild, StatusError, err, 0)
			return result, err
		}
		result.Timings.Set(StageBuild, time.Since(buildStart))

		linkStart := time.Now()
		emitStage(req.Progress, file, StageLink, StatusWorking, nil, 0)
		if err := tc.link(tmpDir, outputPath); err != nil {
			emitStage(req.Progress, file, StageLink, StatusError, err, 0)
			return result, err
		}
		result.Timings.Set(StageLink, time.Since(linkStart))
	}

	if !keepTmp {
		if err := os.RemoveAll(tmpDir); err != nil {
			return result, fmt.Errorf("failed to clean tmp dir: %w", err)
		}
	}

	emitStage(req.Progress, file, StageBuild, StatusDone, nil, result.Timings.Sum(StageBuild, StageLink))
	return result, nil
}

func writeMIRDump(targetPath string, mod *mir.Module) (err error) {
	if mod == nil {
		return fmt.Errorf("missing MIR module")
	}
	// #nosec G304 -- path is derived from build output configuration
	file, err := os.Create(targetPath)
	if err != nil {
		return fmt.Errorf("failed to write MIR dump: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	if err := mir.DumpModule(file, mod, mir.DumpOptions{}); err != nil {
		return fmt.Errorf("failed to dump MIR: %w", err)
	}
	return nil
}

func buildVMWrapperScript(manifestFound bool, manifestRoot, targetPath string, leakCheck bool) string {
	flags := "--backend=vm"
	if leakCheck {
		flags += " --leak-check"
	}
	if manifestFound {
		return fmt.Sprintf("#!/bin/sh\nset -e\ncd %q\nexec coral run %s\n", manifestRoot, flags)
	}
	absPath := targetPath
	if !filepath.IsAbs(absPath) {
		if abs, err := filepath.Abs(targetPath); err == nil {
			absPath = abs
		}
	}
	return fmt.Sprintf("#!/bin/sh\nset -e\nexec coral run %s %q\n", flags, absPath)
}

