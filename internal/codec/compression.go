package codec

import (
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/ulikunitz/xz"
)

// Compression is one stream-compression layer (gzip, xz, zstd). The tar
// codec composes with it to form tar.gz/tar.xz/tar.zst, and the single-file
// codec exposes it directly for .gz/.xz/.zst archives.
type Compression interface {
	// Name returns the canonical extension without a dot, e.g. "gz".
	Name() string

	// NewReader wraps r with a decompressor.
	NewReader(r io.Reader) (io.ReadCloser, error)

	// NewWriter wraps w with a compressor at the given level (1-9 scale;
	// ignored by codecs without levels). threads > 1 may select a
	// parallel implementation.
	NewWriter(w io.Writer, level, threads int) (io.WriteCloser, error)
}

// entryMeta is implemented by decompressing readers whose underlying format
// records the original file name and modification time (gzip does).
type entryMeta interface {
	EntryName() string
	EntryModTime() time.Time
}

// entryMetaWriter is implemented by compressing writers whose format can
// record the original file name and modification time (gzip does).
type entryMetaWriter interface {
	SetEntryMeta(name string, mod time.Time)
}

// Gzip is the gzip compression layer. Decoding stops at the first complete
// gzip member so trailing garbage bytes do not fail the read.
type Gzip struct{}

func (Gzip) Name() string { return "gz" }

type gzipReader struct {
	*gzip.Reader
}

func (r gzipReader) EntryName() string       { return r.Header.Name }
func (r gzipReader) EntryModTime() time.Time { return r.Header.ModTime }

func (Gzip) NewReader(r io.Reader) (io.ReadCloser, error) {
	gr, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	gr.Multistream(false) // truncate at the first complete member
	return gzipReader{gr}, nil
}

type gzipWriter struct {
	*gzip.Writer
}

func (w gzipWriter) SetEntryMeta(name string, mod time.Time) {
	w.Header.Name = name
	w.Header.ModTime = mod
}

type pgzipWriter struct {
	*pgzip.Writer
}

func (w pgzipWriter) SetEntryMeta(name string, mod time.Time) {
	w.Header.Name = name
	w.Header.ModTime = mod
}

func (Gzip) NewWriter(w io.Writer, level, threads int) (io.WriteCloser, error) {
	if level == 0 {
		level = gzip.DefaultCompression
	}
	if threads > 1 {
		// pgzip splits input into blocks compressed in parallel; only
		// worth it for large payloads, which is the caller's call.
		pw, err := pgzip.NewWriterLevel(w, level)
		if err != nil {
			return nil, err
		}
		return pgzipWriter{pw}, nil
	}
	gw, err := gzip.NewWriterLevel(w, level)
	if err != nil {
		return nil, err
	}
	return gzipWriter{gw}, nil
}

// Xz is the xz compression layer. The xz package has no level tuning, so
// the requested level is ignored.
type Xz struct{}

func (Xz) Name() string { return "xz" }

func (Xz) NewReader(r io.Reader) (io.ReadCloser, error) {
	xr, err := xz.NewReader(r)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(xr), nil
}

func (Xz) NewWriter(w io.Writer, level, threads int) (io.WriteCloser, error) {
	return xz.NewWriter(w)
}

// Zstd is the zstd compression layer.
type Zstd struct{}

func (Zstd) Name() string { return "zst" }

type zstdReader struct {
	*zstd.Decoder
}

func (r zstdReader) Close() error {
	r.Decoder.Close()
	return nil
}

func (Zstd) NewReader(r io.Reader) (io.ReadCloser, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	return zstdReader{zr}, nil
}

func (Zstd) NewWriter(w io.Writer, level, threads int) (io.WriteCloser, error) {
	if level == 0 {
		level = 5
	}
	zw, err := zstd.NewWriter(w,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)),
		zstd.WithEncoderConcurrency(max(threads, 1)),
	)
	if err != nil {
		return nil, fmt.Errorf("zstd writer: %w", err)
	}
	return zw, nil
}
