package fulpack

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fulpack/fulpack/internal/codec"
	"github.com/fulpack/fulpack/internal/safety"
)

// Scan enumerates the archive without writing anything to disk and returns
// its entries in archive order.
//
// Scan inspects rather than enforces: entries with traversal-looking paths
// are included in the result with Unsafe set so Verify can flag them. The
// entry-count ceiling is still fatal, since an unbounded entry list is
// itself a resource risk.
func Scan(ctx context.Context, archive string, opts *ScanOptions) ([]ArchiveEntry, error) {
	const op = "scan"

	if opts == nil {
		opts = DefaultScanOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, newError(op, CodeInvalidOptions, "%v", err)
	}

	format, c, f, err := openArchive(op, archive)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	guard := safety.NewGuard(0, opts.MaxEntries)
	var entries []ArchiveEntry
	var fatal *Error

	decodeErr := c.Decode(ctx, f, func(entry codec.Entry) error {
		if err := guard.AddEntry(); err != nil {
			fatal = newError(op, CodeDecompressionBomb, "entry count limit exceeded: %v", err)
			fatal.Archive = archive
			fatal.Err = err
			return fatal
		}

		name := entry.Path
		if name == "" && format.SingleFile() {
			name = singleFileName(archive)
		}

		ae := toArchiveEntry(name, entry, opts.IncludeMetadata)

		if opts.MaxDepth > 0 && pathDepth(name) > opts.MaxDepth {
			return nil
		}
		if len(opts.EntryTypes) > 0 && !containsType(opts.EntryTypes, ae.Type) {
			return nil
		}

		// Sizing single-file archives means decompressing; cap the
		// read at the default byte ceiling so a bomb cannot run away.
		if entry.Size < 0 && opts.IncludeMetadata && entry.Open != nil {
			ae.Size = measureStream(entry)
		}

		entries = append(entries, ae)
		return nil
	})

	if fatal != nil {
		return nil, fatal
	}
	if decodeErr != nil {
		if errors.Is(decodeErr, context.Canceled) || errors.Is(decodeErr, context.DeadlineExceeded) {
			return nil, wrapError(op, decodeErr, archive)
		}
		e := newError(op, CodeArchiveCorrupt, "decoding archive: %v", decodeErr)
		e.Archive = archive
		e.Err = decodeErr
		return nil, e
	}

	return entries, nil
}

func toArchiveEntry(name string, entry codec.Entry, includeMetadata bool) ArchiveEntry {
	ae := ArchiveEntry{
		Path: name,
		Size: entry.Size,
	}
	if ae.Size < 0 {
		ae.Size = 0
	}

	switch {
	case entry.IsDir():
		ae.Type = EntryDir
		ae.Size = 0
	case entry.IsSymlink():
		ae.Type = EntrySymlink
		ae.Size = 0
		ae.SymlinkTarget = entry.LinkTarget
	default:
		ae.Type = EntryFile
	}

	// Inspection mode: traversal-able paths are listed, not dropped,
	// but flagged so downstream consumers refuse to trust them.
	if err := safety.CheckPath(name, true); err != nil {
		ae.Unsafe = true
	}

	if includeMetadata {
		ae.Modified = entry.ModTime
		if ae.Modified.IsZero() {
			// xz and zstd record no timestamp; fall back to now.
			ae.Modified = time.Now()
		}
		ae.Checksum = entry.Checksum
		ae.CompressedSize = entry.CompressedSize
		if perm := entry.Mode.Perm(); perm != 0 {
			ae.Mode = fmt.Sprintf("%04o", uint32(perm))
		}
	}

	return ae
}

// measureStream counts the uncompressed bytes of an entry whose format does
// not record a size, reading at most the default guard ceiling.
func measureStream(entry codec.Entry) int64 {
	rc, err := entry.Open()
	if err != nil {
		return 0
	}
	defer rc.Close()

	var cw countingWriter
	io.Copy(&cw, io.LimitReader(rc, safety.DefaultMaxBytes))
	return cw.count
}

func pathDepth(name string) int {
	name = strings.Trim(name, "/")
	if name == "" {
		return 0
	}
	return strings.Count(name, "/") + 1
}

func containsType(types []EntryType, t EntryType) bool {
	for _, want := range types {
		if want == t {
			return true
		}
	}
	return false
}
