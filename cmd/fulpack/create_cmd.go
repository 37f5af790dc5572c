package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/fulpack/fulpack/pkg/fulpack"
)

func createCmd() *cobra.Command {
	var outputPath string
	var formatName string
	var level int
	var checksum string
	var followSymlinks bool
	var noPermissions bool
	var includePatterns, excludePatterns []string
	var threads int
	var quiet bool

	cmd := &cobra.Command{
		Use:   "create [sources...]",
		Short: "Create an archive from files or directories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format := fulpack.Format(formatName)
			if formatName == "" {
				detected, err := fulpack.DetectFormat(outputPath)
				if err != nil {
					return fmt.Errorf("cannot detect format from output name; use --format: %w", err)
				}
				format = detected
			} else {
				parsed, err := fulpack.ParseFormat(formatName)
				if err != nil {
					return err
				}
				format = parsed
			}

			opts := &fulpack.CreateOptions{
				CompressionLevel:    level,
				ChecksumAlgorithm:   checksum,
				PreservePermissions: !noPermissions,
				FollowSymlinks:      followSymlinks,
				IncludePatterns:     includePatterns,
				ExcludePatterns:     excludePatterns,
				Threads:             threads,
			}

			var wait func()
			if !quiet {
				cb, progress := fulpack.ProgressBarCallback()
				opts.Progress = cb
				wait = progress.Wait
			}

			info, err := fulpack.Create(cmd.Context(), args, outputPath, format, opts)
			if wait != nil {
				wait()
			}
			if err != nil {
				return err
			}

			fmt.Printf("Created %s\n", outputPath)
			fmt.Printf("  Format:      %s\n", info.Format)
			fmt.Printf("  Entries:     %d\n", info.EntryCount)
			fmt.Printf("  Total size:  %s\n", fulpack.FormatSize(info.TotalSize))
			fmt.Printf("  Archive:     %s\n", fulpack.FormatSize(info.CompressedSize))
			fmt.Printf("  Ratio:       %.2f:1\n", info.CompressionRatio)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output archive file (required)")
	cmd.Flags().StringVarP(&formatName, "format", "f", "", "Archive format (tar, tar.gz, zip, gz, ...); detected from output name when omitted")
	cmd.Flags().IntVarP(&level, "level", "l", 0, "Compression level 1-9 (codec default when 0)")
	cmd.Flags().StringVar(&checksum, "checksum", "sha256", "Checksum algorithm: sha256, blake3 or none")
	cmd.Flags().BoolVar(&followSymlinks, "follow-symlinks", false, "Archive symlink targets instead of skipping links")
	cmd.Flags().BoolVar(&noPermissions, "no-permissions", false, "Do not store POSIX permission bits")
	cmd.Flags().StringSliceVar(&includePatterns, "include", nil, "Glob patterns to include")
	cmd.Flags().StringSliceVar(&excludePatterns, "exclude", nil, "Glob patterns to exclude")
	cmd.Flags().IntVarP(&threads, "threads", "t", runtime.NumCPU(), "Max concurrent compression threads")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Minimal output, no progress bars")

	_ = cmd.MarkFlagRequired("output")

	return cmd
}
