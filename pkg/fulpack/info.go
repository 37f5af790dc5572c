package fulpack

import (
	"context"
	"errors"
	"os"
)

// Info returns the aggregate metadata of an archive. It is the fast
// metadata path: no security checks run here, only enumeration and
// aggregation. Callers that need safety guarantees call Verify.
func Info(ctx context.Context, archive string) (*ArchiveInfo, error) {
	const op = "info"

	entries, err := Scan(ctx, archive, nil)
	if err != nil {
		var fe *Error
		if errors.As(err, &fe) {
			fe.Op = op
		}
		return nil, err
	}

	stat, err := os.Stat(archive)
	if err != nil {
		return nil, wrapError(op, err, archive)
	}

	format, err := DetectFormat(archive)
	if err != nil {
		e := newError(op, CodeInvalidArchiveFormat, "%v", err)
		e.Archive = archive
		return nil, e
	}

	var totalSize int64
	hasChecksums := false
	for _, e := range entries {
		totalSize += e.Size
		if e.Checksum != "" {
			hasChecksums = true
		}
	}

	return &ArchiveInfo{
		Format:           format,
		Compression:      format.Compression(),
		EntryCount:       len(entries),
		TotalSize:        totalSize,
		CompressedSize:   stat.Size(),
		CompressionRatio: compressionRatio(totalSize, stat.Size()),
		HasChecksums:     hasChecksums,
		Created:          stat.ModTime(),
	}, nil
}
