package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fulpack/fulpack/pkg/fulpack"
)

func infoCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "info [archive]",
		Short: "Show aggregate archive metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := fulpack.Info(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}

			fmt.Printf("Format:       %s\n", info.Format)
			fmt.Printf("Compression:  %s\n", info.Compression)
			fmt.Printf("Entries:      %d\n", info.EntryCount)
			fmt.Printf("Total size:   %s\n", fulpack.FormatSize(info.TotalSize))
			fmt.Printf("Archive size: %s\n", fulpack.FormatSize(info.CompressedSize))
			fmt.Printf("Ratio:        %.2f:1\n", info.CompressionRatio)
			fmt.Printf("Checksums:    %v\n", info.HasChecksums)
			fmt.Printf("Created:      %s\n", info.Created.Format("2006-01-02 15:04:05"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit metadata as JSON")

	return cmd
}
