package codec

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// TarCodec encodes and decodes tar containers, optionally piped through a
// Compression layer (tar.gz, tar.xz, tar.zst). Entries stream in insertion
// order; nothing is buffered beyond the 512-byte header blocks.
type TarCodec struct {
	// Compression wraps the byte stream when non-nil. Nil means plain
	// uncompressed tar.
	Compression Compression
}

var _ Codec = TarCodec{}

func (t TarCodec) Name() string {
	if t.Compression == nil {
		return "tar"
	}
	return "tar." + t.Compression.Name()
}

func (t TarCodec) Encode(ctx context.Context, w io.Writer, entries []Entry, opts EncodeOptions) error {
	var wc io.WriteCloser
	if t.Compression != nil {
		var err error
		wc, err = t.Compression.NewWriter(w, opts.Level, opts.Threads)
		if err != nil {
			return fmt.Errorf("open compressor: %w", err)
		}
		w = wc
	}

	tw := tar.NewWriter(w)

	for _, entry := range entries {
		err := ctx.Err()
		if err == nil {
			err = writeTarEntry(tw, entry)
		}
		if err != nil {
			tw.Close()
			if wc != nil {
				wc.Close()
			}
			return err
		}
	}

	// Close in order: the tar trailer first, then the compression layer.
	// Closing the compressor flushes the compressed stream, so its error
	// must be returned, not dropped in a defer.
	if err := tw.Close(); err != nil {
		if wc != nil {
			wc.Close()
		}
		return err
	}
	if wc != nil {
		return wc.Close()
	}
	return nil
}

func writeTarEntry(tw *tar.Writer, entry Entry) error {
	hdr := &tar.Header{
		Name:    entry.Path,
		Mode:    int64(entry.Mode.Perm()),
		Size:    entry.Size,
		ModTime: entry.ModTime,
	}

	switch {
	case entry.IsDir():
		hdr.Typeflag = tar.TypeDir
		hdr.Size = 0
		if !strings.HasSuffix(hdr.Name, "/") {
			hdr.Name += "/"
		}
	case entry.IsSymlink():
		hdr.Typeflag = tar.TypeSymlink
		hdr.Size = 0
		hdr.Linkname = entry.LinkTarget
	default:
		hdr.Typeflag = tar.TypeReg
	}

	if entry.Checksum != "" {
		hdr.PAXRecords = map[string]string{ChecksumPAXRecord: entry.Checksum}
		hdr.Format = tar.FormatPAX
	}

	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("file %s: writing header: %w", entry.Path, err)
	}

	// Only regular files carry a body.
	if hdr.Typeflag != tar.TypeReg {
		return nil
	}

	rc, err := entry.Open()
	if err != nil {
		return fmt.Errorf("file %s: open: %w", entry.Path, err)
	}
	defer rc.Close()

	if _, err := io.Copy(tw, rc); err != nil {
		return fmt.Errorf("file %s: writing data: %w", entry.Path, err)
	}

	return nil
}

func (t TarCodec) Decode(ctx context.Context, r io.Reader, fn EntryFunc) error {
	if t.Compression != nil {
		rc, err := t.Compression.NewReader(r)
		if err != nil {
			return fmt.Errorf("open decompressor: %w", err)
		}
		defer rc.Close()
		r = rc
	}

	tr := tar.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("advancing to next tar entry: %w", err)
		}

		// Ignore the pax global header from git-generated tarballs.
		if hdr.Typeflag == tar.TypeXGlobalHeader {
			continue
		}

		entry := Entry{
			Path:       strings.TrimSuffix(hdr.Name, "/"),
			Size:       hdr.Size,
			Mode:       hdr.FileInfo().Mode(),
			ModTime:    hdr.ModTime,
			LinkTarget: hdr.Linkname,
			Checksum:   hdr.PAXRecords[ChecksumPAXRecord],
			Open:       func() (io.ReadCloser, error) { return io.NopCloser(tr), nil },
		}

		if err := fn(entry); err != nil {
			if errors.Is(err, ErrStopDecode) {
				return nil
			}
			return err
		}
	}
}
