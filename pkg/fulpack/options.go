package fulpack

import (
	"errors"
	"runtime"

	"github.com/fulpack/fulpack/internal/safety"
)

// OverwritePolicy controls what Extract does when a destination file
// already exists.
type OverwritePolicy string

const (
	// OverwriteError fails the entry (the default).
	OverwriteError OverwritePolicy = "error"

	// OverwriteSkip leaves the existing file untouched and counts the
	// entry as skipped.
	OverwriteSkip OverwritePolicy = "skip"

	// OverwriteReplace replaces the existing file.
	OverwriteReplace OverwritePolicy = "overwrite"
)

var (
	// ErrInvalidLevel is returned when the compression level is out of range.
	ErrInvalidLevel = errors.New("compression level must be between 1 and 9")

	// ErrInvalidOverwrite is returned for an unknown overwrite policy.
	ErrInvalidOverwrite = errors.New(`overwrite policy must be "error", "skip" or "overwrite"`)

	// ErrInvalidChecksum is returned for an unknown checksum algorithm.
	ErrInvalidChecksum = errors.New(`checksum algorithm must be "sha256", "blake3" or "none"`)
)

// CreateOptions configures archive creation.
type CreateOptions struct {
	// CompressionLevel is the 1-9 compression level. Ignored for
	// uncompressed tar. Default: codec default.
	CompressionLevel int

	// ChecksumAlgorithm annotates created entries with digests:
	// "sha256" (default), "blake3", or "none" to disable.
	ChecksumAlgorithm string

	// PreservePermissions stores POSIX mode bits. Default: true.
	PreservePermissions bool

	// FollowSymlinks archives the content a link points to instead of
	// skipping the link. Links are skipped by default as a security
	// measure; link semantics are never preserved.
	FollowSymlinks bool

	// IncludePatterns / ExcludePatterns are glob filters applied to
	// entry paths before the codec sees them.
	IncludePatterns []string
	ExcludePatterns []string

	// Threads enables parallel compression implementations when > 1.
	// Default: runtime.NumCPU().
	Threads int

	// Progress receives progress events when non-nil.
	Progress ProgressCallback
}

// DefaultCreateOptions returns creation options with the documented defaults.
func DefaultCreateOptions() *CreateOptions {
	return &CreateOptions{
		ChecksumAlgorithm:   ChecksumSHA256,
		PreservePermissions: true,
		FollowSymlinks:      false,
		Threads:             runtime.NumCPU(),
	}
}

// Validate checks the options and fills defaults in place.
func (o *CreateOptions) Validate() error {
	if o.CompressionLevel != 0 && (o.CompressionLevel < 1 || o.CompressionLevel > 9) {
		return ErrInvalidLevel
	}
	if o.ChecksumAlgorithm == "" {
		o.ChecksumAlgorithm = ChecksumSHA256
	}
	switch o.ChecksumAlgorithm {
	case ChecksumSHA256, ChecksumBlake3, ChecksumNone:
	default:
		return ErrInvalidChecksum
	}
	if o.Threads <= 0 {
		o.Threads = runtime.NumCPU()
	}
	return nil
}

// ExtractOptions configures extraction.
type ExtractOptions struct {
	// Overwrite is the policy for existing destination files.
	// Default: OverwriteError.
	Overwrite OverwritePolicy

	// VerifyChecksums recomputes digests for entries that carry one and
	// reports mismatches. Default: true.
	VerifyChecksums bool

	// PreservePermissions applies stored POSIX mode bits. Default: true.
	PreservePermissions bool

	// MaxSize is the ceiling on cumulative extracted bytes.
	// Default: 1 GiB.
	MaxSize int64

	// MaxEntries is the ceiling on archive entry count.
	// Default: 100,000.
	MaxEntries int

	// IncludePatterns extracts only matching entries when non-empty.
	IncludePatterns []string

	// Progress receives progress events when non-nil.
	Progress ProgressCallback
}

// DefaultExtractOptions returns extraction options with the documented
// defaults.
func DefaultExtractOptions() *ExtractOptions {
	return &ExtractOptions{
		Overwrite:           OverwriteError,
		VerifyChecksums:     true,
		PreservePermissions: true,
		MaxSize:             safety.DefaultMaxBytes,
		MaxEntries:          safety.DefaultMaxEntries,
	}
}

// Validate checks the options and fills defaults in place.
func (o *ExtractOptions) Validate() error {
	if o.Overwrite == "" {
		o.Overwrite = OverwriteError
	}
	switch o.Overwrite {
	case OverwriteError, OverwriteSkip, OverwriteReplace:
	default:
		return ErrInvalidOverwrite
	}
	if o.MaxSize <= 0 {
		o.MaxSize = safety.DefaultMaxBytes
	}
	if o.MaxEntries <= 0 {
		o.MaxEntries = safety.DefaultMaxEntries
	}
	return nil
}

// ScanOptions configures archive enumeration.
type ScanOptions struct {
	// IncludeMetadata populates mode, checksum and timestamp fields.
	// Default: true.
	IncludeMetadata bool

	// EntryTypes restricts the result to the given types when non-empty.
	EntryTypes []EntryType

	// MaxDepth drops entries nested deeper than this many path
	// segments. 0 means unlimited.
	MaxDepth int

	// MaxEntries is the ceiling on archive entry count; crossing it is
	// fatal since unbounded entry lists are themselves a resource risk.
	// Default: 100,000.
	MaxEntries int
}

// DefaultScanOptions returns scan options with the documented defaults.
func DefaultScanOptions() *ScanOptions {
	return &ScanOptions{
		IncludeMetadata: true,
		MaxEntries:      safety.DefaultMaxEntries,
	}
}

// Validate checks the options and fills defaults in place.
func (o *ScanOptions) Validate() error {
	if o.MaxEntries <= 0 {
		o.MaxEntries = safety.DefaultMaxEntries
	}
	if o.MaxDepth < 0 {
		o.MaxDepth = 0
	}
	return nil
}

// VerifyOptions configures verification.
type VerifyOptions struct {
	// VerifyChecksums recomputes digests for entries that carry one.
	// Default: true.
	VerifyChecksums bool

	// MaxEntries is the ceiling on archive entry count.
	// Default: 100,000.
	MaxEntries int
}

// DefaultVerifyOptions returns verify options with the documented defaults.
func DefaultVerifyOptions() *VerifyOptions {
	return &VerifyOptions{
		VerifyChecksums: true,
		MaxEntries:      safety.DefaultMaxEntries,
	}
}

// Validate checks the options and fills defaults in place.
func (o *VerifyOptions) Validate() error {
	if o.MaxEntries <= 0 {
		o.MaxEntries = safety.DefaultMaxEntries
	}
	return nil
}
