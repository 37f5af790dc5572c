package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fulpack/fulpack/pkg/fulpack"
)

func scanCmd() *cobra.Command {
	var asJSON bool
	var noMetadata bool
	var entryTypes []string
	var maxDepth int
	var maxEntries int

	cmd := &cobra.Command{
		Use:   "scan [archive]",
		Short: "List archive entries without extracting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := &fulpack.ScanOptions{
				IncludeMetadata: !noMetadata,
				MaxDepth:        maxDepth,
				MaxEntries:      maxEntries,
			}
			for _, t := range entryTypes {
				opts.EntryTypes = append(opts.EntryTypes, fulpack.EntryType(t))
			}

			entries, err := fulpack.Scan(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}

			for _, e := range entries {
				marker := " "
				if e.Unsafe {
					marker = "!"
				}
				switch e.Type {
				case fulpack.EntryDir:
					fmt.Printf("%s d %10s  %s/\n", marker, "-", e.Path)
				case fulpack.EntrySymlink:
					fmt.Printf("%s l %10s  %s -> %s\n", marker, "-", e.Path, e.SymlinkTarget)
				default:
					fmt.Printf("%s f %10s  %s\n", marker, fulpack.FormatSize(e.Size), e.Path)
				}
			}
			fmt.Printf("\n%d entries\n", len(entries))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit entries as JSON")
	cmd.Flags().BoolVar(&noMetadata, "no-metadata", false, "Skip mode, checksum and timestamp fields")
	cmd.Flags().StringSliceVar(&entryTypes, "type", nil, "Restrict to entry types: file, directory, symlink")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "Drop entries nested deeper than this (0 = unlimited)")
	cmd.Flags().IntVar(&maxEntries, "max-entries", 0, "Max archive entry count (0 = default)")

	return cmd
}
