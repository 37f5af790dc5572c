package fulpack

import "time"

// EntryType classifies an archive member.
type EntryType string

const (
	EntryFile    EntryType = "file"
	EntryDir     EntryType = "directory"
	EntrySymlink EntryType = "symlink"
)

// ArchiveEntry is one member of an archive as reported by Scan. Paths are
// normalized relative forward-slash paths; entries whose raw path fails
// validation are still listed during scans but carry Unsafe = true so
// Verify can flag them.
type ArchiveEntry struct {
	Path           string    `json:"path"`
	Type           EntryType `json:"type"`
	Size           int64     `json:"size"`
	CompressedSize int64     `json:"compressed_size,omitempty"`
	Modified       time.Time `json:"modified"`

	// Checksum is "<algorithm>:<hex>", present only when the archive
	// embeds a digest for this entry.
	Checksum string `json:"checksum,omitempty"`

	// Mode holds the POSIX permission bits as an octal string ("0644"),
	// empty when the format did not record them.
	Mode string `json:"mode,omitempty"`

	// SymlinkTarget is set only for symlink entries. The engine records
	// it and never dereferences it.
	SymlinkTarget string `json:"symlink_target,omitempty"`

	// Unsafe marks entries whose path contains a traversal, detected
	// during a scan. Absolute paths are tolerated there (inspection
	// mode); extraction rejects both.
	Unsafe bool `json:"unsafe,omitempty"`
}

// ArchiveInfo is the aggregate metadata for one archive.
type ArchiveInfo struct {
	Format      Format `json:"format"`
	Compression string `json:"compression"`
	EntryCount  int    `json:"entry_count"`

	// TotalSize is the sum of uncompressed entry sizes.
	TotalSize int64 `json:"total_size"`

	// CompressedSize is the archive file size on disk.
	CompressedSize int64 `json:"compressed_size"`

	// CompressionRatio is TotalSize / CompressedSize, defined as 1.0
	// when TotalSize is zero.
	CompressionRatio float64 `json:"compression_ratio"`

	HasChecksums bool      `json:"has_checksums"`
	Created      time.Time `json:"created"`
}

// compressionRatio computes total/compressed with the documented empty-
// archive convention.
func compressionRatio(total, compressed int64) float64 {
	if total == 0 {
		return 1.0
	}
	if compressed <= 0 {
		return 1.0
	}
	return float64(total) / float64(compressed)
}
