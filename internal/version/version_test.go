package version

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func override(t *testing.T, v, commit, date string) {
	t.Helper()
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	t.Cleanup(func() {
		Version, GitCommit, BuildDate = origVersion, origCommit, origDate
	})
	Version, GitCommit, BuildDate = v, commit, date
}

func TestVersionDefault(t *testing.T) {
	if Version == "" {
		t.Fatal("Version should have a default value")
	}
}

func TestSummary(t *testing.T) {
	override(t, "1.2.3", "abc123def4567890", "2024-01-15T10:30:00Z")
	got := Summary(false)
	want := "coral 1.2.3 (abc123def456) built 2024-01-15T10:30:00Z"
	if got != want {
		t.Fatalf("Summary() = %q, want %q", got, want)
	}
}

func TestSummaryWithoutMetadata(t *testing.T) {
	override(t, "0.9.0", "", "")
	if got := Summary(false); got != "coral 0.9.0" {
		t.Fatalf("Summary() = %q", got)
	}
}

func TestColoredKeepsSuffix(t *testing.T) {
	override(t, "0.1.0-dev", "", "")
	prev := color.NoColor
	color.NoColor = false
	t.Cleanup(func() { color.NoColor = prev })

	got := Colored()
	if !strings.HasSuffix(got, "-dev") {
		t.Fatalf("Colored() = %q, want -dev suffix", got)
	}
	if !strings.Contains(got, "\x1b[") {
		t.Fatalf("Colored() = %q, want escape codes", got)
	}
}

func TestColoredMalformedVersion(t *testing.T) {
	override(t, "nightly", "", "")
	if got := Colored(); got != "nightly" {
		t.Fatalf("Colored() = %q", got)
	}
}
