// Package codec implements the per-format archive adapters. Every adapter
// exposes the same encode/decode contract over its container primitive so
// the operations layer never branches on format strings: it selects one
// Codec up front and streams entries through it.
package codec

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"time"
)

// ChecksumPAXRecord is the PAX key under which tar archives carry per-entry
// digests, with values of the form "<algorithm>:<hex>". Zip archives store
// the same string in the per-file comment field.
const ChecksumPAXRecord = "FULPACK.checksum"

// ErrStopDecode can be returned by an EntryFunc to stop decoding early
// without surfacing an error to the caller.
var ErrStopDecode = errors.New("stop decoding")

// Entry is one archive member flowing through a codec, either gathered from
// disk for encoding or produced by a decoder. Content is exposed as a
// sub-stream via Open, never buffered whole.
type Entry struct {
	// Path of the member inside the archive, forward slashes.
	Path string

	// Size is the uncompressed byte length. Decoders set -1 when the
	// format does not record it (single-file gzip); callers that need
	// the size must count while reading.
	Size int64

	// CompressedSize is set by decoders for formats that record it
	// (zip); 0 otherwise.
	CompressedSize int64

	Mode    fs.FileMode
	ModTime time.Time

	// LinkTarget is set for symlink entries. The codec records it
	// verbatim and never resolves it.
	LinkTarget string

	// Checksum is "<algorithm>:<hex>" when the archive embeds a digest
	// for this entry, empty otherwise.
	Checksum string

	// Open returns a reader over the entry content. Nil for directories
	// and symlinks. Decoder-produced readers are only valid until the
	// next entry is decoded.
	Open func() (io.ReadCloser, error)
}

// IsDir reports whether the entry is a directory.
func (e Entry) IsDir() bool { return e.Mode.IsDir() }

// IsSymlink reports whether the entry is a symbolic link.
func (e Entry) IsSymlink() bool { return e.Mode&fs.ModeSymlink != 0 }

// IsRegular reports whether the entry is a regular file.
func (e Entry) IsRegular() bool { return e.Mode.IsRegular() }

// EntryFunc handles one decoded entry. Returning ErrStopDecode stops the
// decode loop cleanly; any other error aborts it.
type EntryFunc func(Entry) error

// EncodeOptions tunes an encoder.
type EncodeOptions struct {
	// Level is the compression level on the 1-9 scale. 0 means the
	// codec default. Ignored by uncompressed tar.
	Level int

	// Threads enables parallel compression implementations when > 1.
	Threads int
}

// Codec is one archive format adapter: a uniform encode/decode pair over an
// underlying container or compression primitive.
type Codec interface {
	// Name returns the canonical extension without the leading dot,
	// e.g. "tar.gz".
	Name() string

	// Encode writes entries to w in insertion order. Directories must be
	// supplied before their children; the codec does not reorder.
	Encode(ctx context.Context, w io.Writer, entries []Entry, opts EncodeOptions) error

	// Decode reads the archive from r and calls fn once per entry, in
	// archive order. Zip requires r to also implement io.ReaderAt and
	// io.Seeker.
	Decode(ctx context.Context, r io.Reader, fn EntryFunc) error
}

// ForName returns the codec registered under the canonical extension name
// ("tar", "tar.gz", "zip", "gz", ...).
func ForName(name string) (Codec, bool) {
	c, ok := codecs[name]
	return c, ok
}

var codecs = map[string]Codec{
	"tar":     TarCodec{},
	"tar.gz":  TarCodec{Compression: Gzip{}},
	"tar.xz":  TarCodec{Compression: Xz{}},
	"tar.zst": TarCodec{Compression: Zstd{}},
	"zip":     ZipCodec{},
	"gz":      SingleCodec{Compression: Gzip{}},
	"xz":      SingleCodec{Compression: Xz{}},
	"zst":     SingleCodec{Compression: Zstd{}},
}
