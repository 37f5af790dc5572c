package fulpack

import (
	"fmt"
	"strings"
)

// ExtractResult reports the outcome of one extraction. Per-entry failures
// are collected here instead of aborting the run; only resource-guard
// violations abort early, and even then the counters reflect the entries
// completed before the abort.
type ExtractResult struct {
	ExtractedCount int `json:"extracted_count"`
	SkippedCount   int `json:"skipped_count"`
	ErrorCount     int `json:"error_count"`

	// Errors lists non-fatal per-entry failures in encounter order.
	Errors []*Error `json:"errors,omitempty"`

	// Warnings lists advisory notes (skipped symlinks, filtered
	// entries) in encounter order.
	Warnings []string `json:"warnings,omitempty"`
}

// Success reports whether every entry extracted cleanly.
func (r *ExtractResult) Success() bool {
	return r.ErrorCount == 0
}

// Summary returns a human-readable report.
func (r *ExtractResult) Summary() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Extracted: %d\n", r.ExtractedCount)
	fmt.Fprintf(&sb, "Skipped:   %d\n", r.SkippedCount)
	fmt.Fprintf(&sb, "Errors:    %d\n", r.ErrorCount)

	if len(r.Warnings) > 0 {
		fmt.Fprintf(&sb, "\nWarnings (%d):\n", len(r.Warnings))
		for _, w := range r.Warnings {
			fmt.Fprintf(&sb, "  - %s\n", w)
		}
	}

	if len(r.Errors) > 0 {
		fmt.Fprintf(&sb, "\nErrors (%d):\n", len(r.Errors))
		for i, e := range r.Errors {
			if i >= 10 {
				fmt.Fprintf(&sb, "  ... and %d more errors\n", len(r.Errors)-10)
				break
			}
			fmt.Fprintf(&sb, "  - %v\n", e)
		}
	}

	return sb.String()
}

// Check names one of the standard verification checks.
type Check string

const (
	CheckStructureValid      Check = "structure_valid"
	CheckNoPathTraversal     Check = "no_path_traversal"
	CheckSymlinksSafe        Check = "symlinks_safe"
	CheckNoDecompressionBomb Check = "no_decompression_bomb"
	CheckChecksumsVerified   Check = "checksums_verified"
)

// ValidationResult reports the outcome of Verify. ChecksPerformed lists the
// checks that actually ran, in a fixed order; a check appears only when its
// precondition existed (checksums_verified needs at least one entry with an
// embedded digest, symlinks_safe at least one symlink).
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []*Error `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`

	EntryCount        int     `json:"entry_count"`
	ChecksumsVerified int     `json:"checksums_verified"`
	ChecksPerformed   []Check `json:"checks_performed"`
}

// Summary returns a human-readable report.
func (r *ValidationResult) Summary() string {
	status := "VALID"
	if !r.Valid {
		status = "INVALID"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Status:  %s\n", status)
	fmt.Fprintf(&sb, "Entries: %d\n", r.EntryCount)
	if r.ChecksumsVerified > 0 {
		fmt.Fprintf(&sb, "Checksums verified: %d\n", r.ChecksumsVerified)
	}

	fmt.Fprintf(&sb, "Checks:  ")
	for i, c := range r.ChecksPerformed {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(string(c))
	}
	sb.WriteString("\n")

	if len(r.Warnings) > 0 {
		fmt.Fprintf(&sb, "\nWarnings (%d):\n", len(r.Warnings))
		for _, w := range r.Warnings {
			fmt.Fprintf(&sb, "  - %s\n", w)
		}
	}

	if len(r.Errors) > 0 {
		fmt.Fprintf(&sb, "\nErrors (%d):\n", len(r.Errors))
		for _, e := range r.Errors {
			fmt.Fprintf(&sb, "  - %v\n", e)
		}
	}

	return sb.String()
}
