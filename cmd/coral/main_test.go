package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

type cliResult struct {
	stdout string
	stderr string
	err    error
}

// code is the process exit status main would use.
func (r cliResult) code() int {
	if r.err == nil {
		return 0
	}
	var exit *exitError
	if errors.As(r.err, &exit) {
		return exit.code
	}
	return 1
}

func runCLI(t *testing.T, args ...string) cliResult {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	c := newCLI()
	var stdout, stderr bytes.Buffer
	c.root.SetOut(&stdout)
	c.root.SetErr(&stderr)
	c.root.SetArgs(args)
	err := c.execute(context.Background())
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func writeProgram(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const fibProgram = `let fib = fn (n) => if n < 2 { n } else { fib(n - 1) + fib(n - 2) };
print(fib(15))
`

func TestRunPrintsOutput(t *testing.T) {
	path := writeProgram(t, t.TempDir(), "fib.rinha", fibProgram)
	res := runCLI(t, "run", "--leak-check", path)
	be.Err(t, res.err, nil)
	be.Equal(t, res.stdout, "610\n")
}

func TestRunStats(t *testing.T) {
	path := writeProgram(t, t.TempDir(), "fib.rinha", fibProgram)
	res := runCLI(t, "run", "--stats", "--timings", path)
	be.Err(t, res.err, nil)
	be.True(t, strings.Contains(res.stderr, "heap: allocs"))
	be.True(t, strings.Contains(res.stderr, "ran "))
}

func TestRunRuntimeFailure(t *testing.T) {
	path := writeProgram(t, t.TempDir(), "div.rinha", "let a = print(1);\nprint(1 / 0)\n")
	res := runCLI(t, "run", path)
	be.Equal(t, res.code(), 1)
	be.Equal(t, res.stdout, "1\n")
	if !strings.Contains(res.stderr, "division by zero") {
		t.Fatalf("stderr missing failure:\n%s", res.stderr)
	}
}

func TestRunDiagnosticsExit(t *testing.T) {
	path := writeProgram(t, t.TempDir(), "bad.rinha", "print(missing)\n")
	res := runCLI(t, "run", path)
	be.Equal(t, res.code(), 1)
	be.Equal(t, res.stdout, "")
	be.True(t, strings.Contains(res.stderr, "SEM3002"))
}

func TestRunUnknownBackend(t *testing.T) {
	path := writeProgram(t, t.TempDir(), "fib.rinha", fibProgram)
	res := runCLI(t, "run", "--backend", "jvm", path)
	be.Err(t, res.err, "unsupported backend")
}

func TestCheckDirectory(t *testing.T) {
	dir := t.TempDir()
	writeProgram(t, dir, "ok.rinha", "print(1)\n")
	writeProgram(t, dir, "nested/bad.rinha", "let x = 1;\nprint(y)\n")
	res := runCLI(t, "check", dir)
	be.Equal(t, res.code(), 1)
	be.True(t, strings.Contains(res.stderr, "SEM3002"))
	be.True(t, strings.Contains(res.stderr, "checked 2 files: 1 error, 0 warnings"))
}

func TestCheckJSON(t *testing.T) {
	path := writeProgram(t, t.TempDir(), "bad.rinha", "let f = fn (a) => a;\nprint(f(1, 2))\n")
	res := runCLI(t, "check", "--format", "json", path)
	be.Equal(t, res.code(), 1)
	var out struct {
		Diagnostics []struct {
			Code string `json:"code"`
		} `json:"diagnostics"`
		Count int `json:"count"`
	}
	be.Err(t, json.Unmarshal([]byte(res.stdout), &out), nil)
	be.True(t, out.Count >= 1)
	be.Equal(t, out.Diagnostics[0].Code, "SEM3003")
}

func TestCheckClean(t *testing.T) {
	path := writeProgram(t, t.TempDir(), "ok.rinha", fibProgram)
	res := runCLI(t, "check", "--quiet", path)
	be.Err(t, res.err, nil)
	be.Equal(t, res.stderr, "")
}

func TestParseJSONRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := writeProgram(t, dir, "fib.rinha", fibProgram)
	parsed := runCLI(t, "parse", "--format", "json", path)
	be.Err(t, parsed.err, nil)
	be.True(t, strings.Contains(parsed.stdout, `"kind"`))

	jsonPath := writeProgram(t, dir, "fib.json", parsed.stdout)
	res := runCLI(t, "run", jsonPath)
	be.Err(t, res.err, nil)
	be.Equal(t, res.stdout, "610\n")
}

func TestParseTree(t *testing.T) {
	path := writeProgram(t, t.TempDir(), "p.rinha", "print(1 + 2)\n")
	res := runCLI(t, "parse", path)
	be.Err(t, res.err, nil)
	be.True(t, res.stdout != "")
}

func TestParseSyntaxError(t *testing.T) {
	path := writeProgram(t, t.TempDir(), "p.rinha", "let = 1;\nprint(1)\n")
	res := runCLI(t, "parse", path)
	be.Equal(t, res.code(), 1)
	be.True(t, strings.Contains(res.stderr, "SYN"))
}

func TestTokenizeJSON(t *testing.T) {
	path := writeProgram(t, t.TempDir(), "p.rinha", "print(1)")
	res := runCLI(t, "tokenize", "--format", "json", path)
	be.Err(t, res.err, nil)
	var toks []map[string]any
	be.Err(t, json.Unmarshal([]byte(res.stdout), &toks), nil)
	be.True(t, len(toks) >= 5)
}

func TestIRMIR(t *testing.T) {
	path := writeProgram(t, t.TempDir(), "fib.rinha", fibProgram)
	res := runCLI(t, "ir", path)
	be.Err(t, res.err, nil)
	be.True(t, strings.HasPrefix(res.stdout, "module "))
	be.True(t, strings.Contains(res.stdout, "fn fib"))
}

func TestIRLLVM(t *testing.T) {
	path := writeProgram(t, t.TempDir(), "fib.rinha", fibProgram)
	res := runCLI(t, "ir", "--format", "llvm", path)
	be.Err(t, res.err, nil)
	be.True(t, strings.Contains(res.stdout, "define "))
}

func TestInitThenRun(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "demo")
	res := runCLI(t, "init", dir)
	be.Err(t, res.err, nil)
	be.True(t, strings.Contains(res.stdout, "coral.toml"))

	again := runCLI(t, "init", dir)
	be.Err(t, again.err, "already initialized")

	t.Chdir(dir)
	run := runCLI(t, "run")
	be.Err(t, run.err, nil)
	be.True(t, strings.Contains(run.stdout, "fib(10) = 55"))
}

func TestBuildVMWrapper(t *testing.T) {
	dir := t.TempDir()
	path := writeProgram(t, dir, "fib.rinha", fibProgram)
	t.Chdir(dir)
	res := runCLI(t, "build", "--backend", "vm", "--ui", "off", path)
	be.Err(t, res.err, nil)
	be.True(t, strings.Contains(res.stdout, "built "))
	_, err := os.Stat(filepath.Join(dir, "target", "debug", "fib"))
	be.Err(t, err, nil)
}

func TestTraceFile(t *testing.T) {
	dir := t.TempDir()
	path := writeProgram(t, dir, "fib.rinha", fibProgram)
	tracePath := filepath.Join(dir, "trace.ndjson")
	res := runCLI(t, "--trace", tracePath, "--no-cache", "run", path)
	be.Err(t, res.err, nil)
	data, err := os.ReadFile(tracePath)
	be.Err(t, err, nil)
	be.True(t, strings.Contains(string(data), `"name":"compile"`))
	be.True(t, strings.Contains(string(data), `"name":"sema"`))
}

func TestVersionJSON(t *testing.T) {
	res := runCLI(t, "version", "--format", "json")
	be.Err(t, res.err, nil)
	var v versionPayload
	be.Err(t, json.Unmarshal([]byte(res.stdout), &v), nil)
	be.Equal(t, v.Tool, "coral")
	be.True(t, v.Version != "")
}

func TestCacheDir(t *testing.T) {
	res := runCLI(t, "cache", "dir")
	be.Err(t, res.err, nil)
	be.True(t, strings.HasSuffix(strings.TrimSpace(res.stdout), "coral"))
}
