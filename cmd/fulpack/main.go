package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:     "fulpack",
	Short:   "fulpack - hardened archive operations",
	Long:    "fulpack creates, extracts, inspects and validates archives with security-hardened defaults.",
	Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(
		versionCmd(),
		createCmd(),
		extractCmd(),
		scanCmd(),
		verifyCmd(),
		infoCmd(),
	)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("fulpack %s\ncommit: %s\nbuilt: %s\n", version, commit, date)
		},
	}
}
