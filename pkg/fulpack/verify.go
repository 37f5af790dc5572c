package fulpack

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fulpack/fulpack/internal/codec"
	"github.com/fulpack/fulpack/internal/safety"
)

// Verify validates an archive without extracting it: structural soundness,
// path safety, symlink target safety, compression-ratio sanity and, when
// the archive embeds digests, checksum integrity.
//
// ChecksPerformed lists only the checks whose precondition existed:
// symlinks_safe needs at least one symlink entry, checksums_verified at
// least one embedded digest. Ratio violations are warnings, never hard
// failures, since sparse or repetitive payloads legitimately exceed the
// threshold.
func Verify(ctx context.Context, archive string, opts *VerifyOptions) (*ValidationResult, error) {
	const op = "verify"

	if opts == nil {
		opts = DefaultVerifyOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, newError(op, CodeInvalidOptions, "%v", err)
	}

	result := &ValidationResult{}

	entries, err := Scan(ctx, archive, &ScanOptions{
		IncludeMetadata: true,
		MaxEntries:      opts.MaxEntries,
	})
	if err != nil {
		var fe *Error
		if errors.As(err, &fe) {
			switch fe.Code {
			case CodeArchiveCorrupt, CodeDecompressionBomb:
				// Structure could be inspected but failed; that is a
				// verify finding, not a precondition failure.
				fe.Op = op
				result.Valid = false
				result.Errors = append(result.Errors, fe)
				result.ChecksPerformed = append(result.ChecksPerformed, CheckStructureValid)
				return result, nil
			}
			fe.Op = op
		}
		return nil, err
	}

	result.EntryCount = len(entries)
	result.ChecksPerformed = append(result.ChecksPerformed, CheckStructureValid)

	// Path safety: inspect mode tolerates absolute paths but still
	// rejects traversal.
	result.ChecksPerformed = append(result.ChecksPerformed, CheckNoPathTraversal)
	hasSymlinks := false
	hasChecksums := false
	for _, entry := range entries {
		if err := safety.CheckPath(entry.Path, true); err != nil {
			e := newError(op, CodePathTraversal, "entry escapes extraction root: %v", err)
			e.Path = entry.Path
			e.Archive = archive
			result.Errors = append(result.Errors, e)
		} else if err := safety.CheckPath(entry.Path, false); err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("absolute entry path %s (rejected on extract)", entry.Path))
		}
		if entry.Type == EntrySymlink {
			hasSymlinks = true
		}
		if entry.Checksum != "" {
			hasChecksums = true
		}
	}

	if hasSymlinks {
		result.ChecksPerformed = append(result.ChecksPerformed, CheckSymlinksSafe)
		for _, entry := range entries {
			if entry.Type != EntrySymlink {
				continue
			}
			if err := safety.CheckLinkTarget(entry.Path, entry.SymlinkTarget); err != nil {
				e := newError(op, CodeSymlinkEscape, "symlink target escapes extraction root: %s -> %s",
					entry.Path, entry.SymlinkTarget)
				e.Path = entry.Path
				e.Archive = archive
				result.Errors = append(result.Errors, e)
			}
		}
	}

	// Archive-level compression ratio. A ratio past the threshold is a
	// bomb heuristic, reported as a warning only.
	if stat, err := os.Stat(archive); err == nil && stat.Size() > 0 {
		result.ChecksPerformed = append(result.ChecksPerformed, CheckNoDecompressionBomb)
		var totalSize int64
		for _, entry := range entries {
			totalSize += entry.Size
		}
		if safety.RatioExceeded(totalSize, stat.Size()) {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("compression ratio %.0f:1 exceeds %.0f:1; possible decompression bomb",
					float64(totalSize)/float64(stat.Size()), safety.RatioWarnThreshold))
		}
	}

	if hasChecksums && opts.VerifyChecksums {
		result.ChecksPerformed = append(result.ChecksPerformed, CheckChecksumsVerified)
		verified, checkErrs := verifyChecksums(ctx, op, archive)
		result.ChecksumsVerified = verified
		result.Errors = append(result.Errors, checkErrs...)
	}

	result.Valid = len(result.Errors) == 0
	return result, nil
}

// verifyChecksums re-decodes the archive and hashes entry content against
// the embedded digests. Content is streamed, never buffered.
func verifyChecksums(ctx context.Context, op, archive string) (int, []*Error) {
	_, c, f, err := openArchive(op, archive)
	if err != nil {
		var fe *Error
		if errors.As(err, &fe) {
			return 0, []*Error{fe}
		}
		return 0, []*Error{wrapError(op, err, archive)}
	}
	defer f.Close()

	verified := 0
	var errs []*Error

	entryCorrupt := func(path string, cause error) {
		e := newError(op, CodeArchiveCorrupt, "reading entry content: %v", cause)
		e.Path = path
		e.Archive = archive
		e.Err = cause
		errs = append(errs, e)
	}

	decodeErr := c.Decode(ctx, f, func(entry codec.Entry) error {
		algo, digest, ok := splitChecksum(entry.Checksum)
		if !ok || !entry.IsRegular() || entry.Open == nil {
			return nil
		}

		h, err := newChecksumHash(algo)
		if err != nil {
			return nil
		}

		rc, err := entry.Open()
		if err != nil {
			entryCorrupt(entry.Path, err)
			return nil
		}
		defer rc.Close()

		if _, err := io.Copy(h, rc); err != nil {
			entryCorrupt(entry.Path, err)
			return nil
		}

		if hex.EncodeToString(h.Sum(nil)) != digest {
			e := newError(op, CodeChecksumMismatch, "checksum mismatch: archive records %s:%s", algo, digest)
			e.Path = entry.Path
			e.Archive = archive
			errs = append(errs, e)
			return nil
		}

		verified++
		return nil
	})
	if decodeErr != nil {
		// A checksum pass that dies partway is itself a finding; without
		// this, ChecksumsVerified would silently undercount.
		e := newError(op, CodeArchiveCorrupt, "checksum pass aborted: %v", decodeErr)
		e.Archive = archive
		e.Err = decodeErr
		errs = append(errs, e)
	}

	return verified, errs
}
