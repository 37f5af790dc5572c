package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fulpack/fulpack/pkg/fulpack"
)

func verifyCmd() *cobra.Command {
	var noChecksums bool
	var maxEntries int

	cmd := &cobra.Command{
		Use:   "verify [archive]",
		Short: "Validate archive structure and safety",
		Long: `Validate an archive without extracting it.

Checks structural soundness, path traversal, symlink target safety and the
archive-level compression ratio. Embedded checksums are verified when
present unless --no-checksums is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := &fulpack.VerifyOptions{
				VerifyChecksums: !noChecksums,
				MaxEntries:      maxEntries,
			}

			result, err := fulpack.Verify(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}

			fmt.Print(result.Summary())

			if !result.Valid {
				return fmt.Errorf("archive verification failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noChecksums, "no-checksums", false, "Skip checksum verification")
	cmd.Flags().IntVar(&maxEntries, "max-entries", 0, "Max archive entry count (0 = default)")

	return cmd
}
