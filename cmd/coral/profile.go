package main

import (
	"github.com/spf13/cobra"

	"coral/internal/prof"
)

// setupProfiling starts the profiles requested by the root flags.
func setupProfiling(cmd *cobra.Command) (*prof.Session, error) {
	flags := cmd.Root().PersistentFlags()
	cpu, _ := flags.GetString("cpu-profile")
	mem, _ := flags.GetString("mem-profile")
	rt, _ := flags.GetString("runtime-trace")
	return prof.Start(prof.Options{CPU: cpu, Mem: mem, Trace: rt})
}
