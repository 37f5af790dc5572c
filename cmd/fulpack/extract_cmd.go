package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fulpack/fulpack/internal/safety"
	"github.com/fulpack/fulpack/pkg/fulpack"
)

func extractCmd() *cobra.Command {
	var destination string
	var overwrite string
	var noVerify bool
	var noPermissions bool
	var maxSize int64
	var maxEntries int
	var includePatterns []string
	var quiet bool

	cmd := &cobra.Command{
		Use:   "extract [archive]",
		Short: "Extract an archive into a destination directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := &fulpack.ExtractOptions{
				Overwrite:           fulpack.OverwritePolicy(overwrite),
				VerifyChecksums:     !noVerify,
				PreservePermissions: !noPermissions,
				MaxSize:             maxSize,
				MaxEntries:          maxEntries,
				IncludePatterns:     includePatterns,
			}

			var wait func()
			if !quiet {
				cb, progress := fulpack.ProgressBarCallback()
				opts.Progress = cb
				wait = progress.Wait
			}

			result, err := fulpack.Extract(cmd.Context(), args[0], destination, opts)
			if wait != nil {
				wait()
			}

			if result != nil {
				fmt.Println()
				fmt.Print(result.Summary())
			}
			if err != nil {
				return err
			}
			if result != nil && !result.Success() {
				fmt.Fprintf(os.Stderr, "\nfinished with %d errors\n", result.ErrorCount)
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&destination, "destination", "d", ".", "Destination directory")
	cmd.Flags().StringVar(&overwrite, "overwrite", "error", "Existing-file policy: error, skip or overwrite")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "Skip checksum verification")
	cmd.Flags().BoolVar(&noPermissions, "no-permissions", false, "Do not apply stored permission bits")
	cmd.Flags().Int64Var(&maxSize, "max-size", safety.DefaultMaxBytes, "Max cumulative extracted bytes")
	cmd.Flags().IntVar(&maxEntries, "max-entries", safety.DefaultMaxEntries, "Max archive entry count")
	cmd.Flags().StringSliceVar(&includePatterns, "include", nil, "Glob patterns to extract")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Minimal output, no progress bars")

	return cmd
}
