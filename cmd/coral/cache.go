package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"coral/internal/driver"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the compilation cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "dir",
		Short: "Print the cache directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := driver.OpenDiskCache("coral")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.Dir())
			return nil
		},
	}, &cobra.Command{
		Use:   "clean",
		Short: "Remove every cached module",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := driver.OpenDiskCache("coral")
			if err != nil {
				return err
			}
			if err := c.DropAll(); err != nil {
				return fmt.Errorf("failed to clean cache: %w", err)
			}
			if !rootBool(cmd, "quiet") {
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", c.Dir())
			}
			return nil
		},
	})
	return cmd
}
