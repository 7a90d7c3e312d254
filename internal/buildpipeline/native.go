package buildpipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	runtimeembed "coral/runtime"
)

const clangHint = "install clang and llvm (e.g. apt-get install clang llvm)"

// toolchain runs the external C and LLVM tools that turn out.ll into an
// executable.
type toolchain struct {
	ctx    context.Context
	triple string
	// log is nil unless commands are printed.
	log   io.Writer
	logMu sync.Mutex
}

func newToolchain(ctx context.Context, printCommands bool, log io.Writer) (*toolchain, error) {
	if _, err := exec.LookPath("clang"); err != nil {
		return nil, fmt.Errorf("clang not found; %s", clangHint)
	}
	tc := &toolchain{ctx: ctx}
	if printCommands {
		tc.log = log
		if tc.log == nil {
			tc.log = os.Stderr
		}
	}
	if out, err := exec.CommandContext(ctx, "clang", "-dumpmachine").Output(); err == nil {
		tc.triple = strings.TrimSpace(string(out))
	}
	return tc, nil
}

// link builds the runtime archive next to out.ll and links the program.
func (tc *toolchain) link(tmpDir, outputPath string) error {
	runtimeDir := filepath.Join(tmpDir, "native_runtime")
	sources, err := extractNativeRuntime(runtimeDir)
	if err != nil {
		return err
	}
	lib, err := tc.runtimeArchive(runtimeDir, sources)
	if err != nil {
		return err
	}
	obj := filepath.Join(tmpDir, "out.o")
	if err := tc.compileIR(filepath.Join(tmpDir, "out.ll"), obj); err != nil {
		return err
	}
	return tc.run("clang", obj, lib, "-o", outputPath)
}

// runtimeArchive compiles the runtime sources in parallel and bundles them
// into libcoral_runtime.a.
func (tc *toolchain) runtimeArchive(dir string, sources []string) (string, error) {
	if _, err := exec.LookPath("ar"); err != nil {
		return "", fmt.Errorf("ar not found; %s", clangHint)
	}
	objs := make([]string, len(sources))
	g, _ := errgroup.WithContext(tc.ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, src := range sources {
		objs[i] = strings.TrimSuffix(src, filepath.Ext(src)) + ".o"
		g.Go(func() error {
			return tc.run("clang", "-c", "-std=c11", "-O2", "-I", dir, src, "-o", objs[i])
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}
	lib := filepath.Join(dir, "libcoral_runtime.a")
	if err := tc.run("ar", append([]string{"rcs", lib}, objs...)...); err != nil {
		return "", err
	}
	return lib, nil
}

// compileIR lowers LLVM IR to an object with clang, falling back to llc
// for IR that the installed clang front end rejects.
func (tc *toolchain) compileIR(llPath, objPath string) error {
	clangErr := tc.run("clang", "-c", "-O2", "-x", "ir", llPath, "-o", objPath)
	if clangErr == nil {
		return nil
	}
	llc, err := exec.LookPath("llc")
	if err != nil {
		return fmt.Errorf("compiling IR: %w (llc not found for fallback)", clangErr)
	}
	args := []string{"-filetype=obj", llPath, "-o", objPath}
	if tc.triple != "" {
		args = append([]string{"-mtriple=" + tc.triple}, args...)
	}
	if err := tc.run(llc, args...); err != nil {
		return errors.Join(clangErr, err)
	}
	tc.note("clang rejected the IR; compiled with llc")
	return nil
}

func (tc *toolchain) note(msg string) {
	if tc.log == nil {
		return
	}
	tc.logMu.Lock()
	defer tc.logMu.Unlock()
	fmt.Fprintln(tc.log, "note: "+msg)
}

// run executes one tool. Its stderr is folded into the returned error.
func (tc *toolchain) run(name string, args ...string) error {
	if tc.log != nil {
		tc.logMu.Lock()
		fmt.Fprintln(tc.log, name+" "+strings.Join(args, " "))
		tc.logMu.Unlock()
	}
	// #nosec G204 -- tool names are fixed and arguments are build paths
	cmd := exec.CommandContext(tc.ctx, name, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %s", filepath.Base(name), msg)
		}
		return fmt.Errorf("%s: %w", filepath.Base(name), err)
	}
	return nil
}

// extractNativeRuntime copies the embedded C runtime into dir and returns
// its .c files in a stable order.
func extractNativeRuntime(dir string) ([]string, error) {
	fsys := runtimeembed.NativeRuntimeFS()
	var sources []string
	err := fs.WalkDir(fsys, "native", func(entry string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, ok := strings.CutPrefix(entry, "native/")
		if !ok {
			return fmt.Errorf("unexpected embedded runtime path: %s", entry)
		}
		dst := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
			return err
		}
		data, err := fs.ReadFile(fsys, entry)
		if err != nil {
			return err
		}
		if err := os.WriteFile(dst, data, 0o600); err != nil {
			return err
		}
		if filepath.Ext(dst) == ".c" {
			sources = append(sources, dst)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to extract the native runtime: %w", err)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("embedded runtime has no C sources")
	}
	slices.Sort(sources)
	return sources, nil
}
