package codec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// SingleCodec handles single-file compressed archives (.gz, .xz, .zst):
// exactly one regular file in, one compressed stream out. Multi-file input
// and directories are rejected upstream; the codec re-checks to keep its
// contract honest.
type SingleCodec struct {
	Compression Compression
}

var _ Codec = SingleCodec{}

// ErrSingleFileOnly is returned when a single-file codec is given anything
// other than exactly one regular file.
var ErrSingleFileOnly = errors.New("format holds exactly one regular file")

func (s SingleCodec) Name() string { return s.Compression.Name() }

func (s SingleCodec) Encode(ctx context.Context, w io.Writer, entries []Entry, opts EncodeOptions) error {
	if len(entries) != 1 || !entries[0].IsRegular() {
		return ErrSingleFileOnly
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	entry := entries[0]
	wc, err := s.Compression.NewWriter(w, opts.Level, opts.Threads)
	if err != nil {
		return fmt.Errorf("open compressor: %w", err)
	}
	defer wc.Close()

	if meta, ok := wc.(entryMetaWriter); ok {
		meta.SetEntryMeta(entry.Path, entry.ModTime)
	}

	rc, err := entry.Open()
	if err != nil {
		return fmt.Errorf("file %s: open: %w", entry.Path, err)
	}
	defer rc.Close()

	if _, err := io.Copy(wc, rc); err != nil {
		return fmt.Errorf("file %s: writing data: %w", entry.Path, err)
	}

	return wc.Close()
}

func (s SingleCodec) Decode(ctx context.Context, r io.Reader, fn EntryFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rc, err := s.Compression.NewReader(r)
	if err != nil {
		return fmt.Errorf("open decompressor: %w", err)
	}
	defer rc.Close()

	entry := Entry{
		// The format does not record the uncompressed size up front;
		// callers that need it count while reading.
		Size: -1,
		Mode: 0o644,
		Open: func() (io.ReadCloser, error) { return io.NopCloser(rc), nil },
	}

	// gzip records the original name and mtime in its header.
	if meta, ok := rc.(entryMeta); ok {
		entry.Path = meta.EntryName()
		if mt := meta.EntryModTime(); !mt.Equal(time.Time{}) {
			entry.ModTime = mt
		}
	}

	if err := fn(entry); err != nil && !errors.Is(err, ErrStopDecode) {
		return err
	}
	return nil
}
