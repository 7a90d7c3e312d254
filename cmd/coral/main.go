// Command coral compiles and runs programs written in the coral language.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"coral/internal/prof"
	"coral/internal/version"
)

// exitError carries a process exit code out of a command without printing
// anything further.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// cli owns the root command and the tracer and profiles it starts, which
// must be stopped whether or not the command succeeded.
type cli struct {
	root      *cobra.Command
	stopTrace func()
	profiles  *prof.Session
}

func newCLI() *cli {
	c := &cli{}
	root := &cobra.Command{
		Use:           "coral",
		Short:         "coral language compiler and toolchain",
		Long:          `coral compiles small functional programs to MIR, interprets them or links them into native executables.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if c.profiles, err = setupProfiling(cmd); err != nil {
				return err
			}
			c.stopTrace, err = setupTracing(cmd)
			return err
		},
	}

	flags := root.PersistentFlags()
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.Bool("quiet", false, "suppress non-essential output")
	flags.Bool("timings", false, "show timing information")
	flags.Int("max-diagnostics", 100, "maximum number of diagnostics to show")
	flags.Bool("no-cache", false, "do not read or write the compilation cache")
	flags.String("trace", "", "write trace events to a file (- for stderr)")
	flags.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	flags.String("trace-mode", "stream", "trace storage (stream|ring|both)")
	flags.String("trace-format", "auto", "trace encoding (auto|text|ndjson|chrome)")
	flags.Int("trace-ring-size", 4096, "events kept in ring mode")
	flags.Duration("trace-heartbeat", 0, "emit a heartbeat event at this interval")
	flags.String("cpu-profile", "", "write a CPU profile of the toolchain to this file")
	flags.String("mem-profile", "", "write a heap profile of the toolchain to this file")
	flags.String("runtime-trace", "", "write a Go runtime trace of the toolchain to this file")

	root.AddCommand(
		newRunCmd(),
		newBuildCmd(),
		newCheckCmd(),
		newIRCmd(),
		newTokenizeCmd(),
		newParseCmd(),
		newInitCmd(),
		newVersionCmd(),
		newCacheCmd(),
	)
	c.root = root
	return c
}

func (c *cli) execute(ctx context.Context) error {
	err := c.root.ExecuteContext(ctx)
	if c.stopTrace != nil {
		c.stopTrace()
		c.stopTrace = nil
	}
	if perr := c.profiles.Stop(); perr != nil {
		fmt.Fprintf(c.root.ErrOrStderr(), "profile: %v\n", perr)
	}
	c.profiles = nil
	return err
}

func main() {
	if err := newCLI().execute(context.Background()); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
