package driver

import (
	"context"
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"coral/internal/diag"
	"coral/internal/runtime"
	"coral/internal/testkit"
	"coral/internal/vm"
)

func TestScenarios(t *testing.T) {
	scenarios, err := testkit.LoadScenarios("testdata/scenarios")
	if err != nil {
		t.Fatalf("load scenarios: %v", err)
	}
	be.True(t, len(scenarios) > 0)
	for _, sc := range scenarios {
		t.Run(sc.Name, func(t *testing.T) {
			runScenario(t, sc)
		})
	}
}

func runScenario(t *testing.T, sc testkit.Scenario) {
	t.Helper()
	res, err := CompileSource(context.Background(), sc.Name+".rinha", []byte(sc.Program), &Options{})
	if err != nil {
		t.Fatalf("%s:%d: compile: %v", sc.File, sc.Line, err)
	}
	if sc.Diagnostics != nil {
		got := reportedCodes(res.Bag)
		for _, want := range sc.Diagnostics {
			if !strings.Contains(got, want) {
				t.Fatalf("%s:%d: expected %s among diagnostics %q", sc.File, sc.Line, want, got)
			}
		}
		return
	}
	if !res.OK() {
		t.Fatalf("%s:%d: unexpected diagnostics: %q", sc.File, sc.Line, reportedCodes(res.Bag))
	}

	var out strings.Builder
	machine := vm.New(res.MIR, runtime.New(&out), res.FileSet, vm.Options{LeakCheck: sc.Fatal == ""})
	vmErr := machine.Run()
	switch {
	case sc.Fatal == "" && vmErr != nil:
		t.Fatalf("%s:%d: unexpected failure: %v\noutput:\n%s", sc.File, sc.Line, vmErr, out.String())
	case sc.Fatal != "" && vmErr == nil:
		t.Fatalf("%s:%d: expected failure %q, program succeeded", sc.File, sc.Line, sc.Fatal)
	case sc.Fatal != "" && !strings.Contains(vmErr.Message, sc.Fatal):
		t.Fatalf("%s:%d: expected failure %q, got %q", sc.File, sc.Line, sc.Fatal, vmErr.Message)
	}
	if sc.HasOutput {
		be.Equal(t, out.String(), sc.Output)
	}
}

func reportedCodes(bag *diag.Bag) string {
	var ids []string
	for _, d := range bag.Items() {
		if d.Severity >= diag.SevWarning {
			ids = append(ids, d.Code.ID())
		}
	}
	return strings.Join(ids, " ")
}
