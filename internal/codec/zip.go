package codec

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/klauspost/compress/flate"
)

// ZipCodec encodes and decodes zip containers. Creation is sequential and
// streaming; decoding needs random access (the central directory lives at
// the end), so Decode requires a reader that also implements io.ReaderAt
// and io.Seeker, which *os.File does.
type ZipCodec struct{}

var _ Codec = ZipCodec{}

func (ZipCodec) Name() string { return "zip" }

func (ZipCodec) Encode(ctx context.Context, w io.Writer, entries []Entry, opts EncodeOptions) error {
	zw := zip.NewWriter(w)
	defer zw.Close()

	// archive/zip's built-in deflate has no level knob; register the
	// klauspost implementation at the requested level instead.
	level := opts.Level
	if level == 0 {
		level = flate.DefaultCompression
	}
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeZipEntry(zw, entry); err != nil {
			return err
		}
	}

	return zw.Close()
}

func writeZipEntry(zw *zip.Writer, entry Entry) error {
	hdr := &zip.FileHeader{
		Name:     entry.Path,
		Method:   zip.Deflate,
		Modified: entry.ModTime,
		Comment:  entry.Checksum,
	}
	hdr.SetMode(entry.Mode)

	if entry.IsDir() {
		// Stored directory names end with a separator per zip convention.
		if !strings.HasSuffix(hdr.Name, "/") {
			hdr.Name += "/"
		}
		hdr.Method = zip.Store
	}

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("file %s: creating header: %w", entry.Path, err)
	}

	if entry.IsDir() || entry.IsSymlink() {
		return nil
	}

	rc, err := entry.Open()
	if err != nil {
		return fmt.Errorf("file %s: open: %w", entry.Path, err)
	}
	defer rc.Close()

	if _, err := io.Copy(w, rc); err != nil {
		return fmt.Errorf("file %s: writing data: %w", entry.Path, err)
	}

	return nil
}

// sizedReaderAt is what zip decoding actually needs from its input.
type sizedReaderAt interface {
	io.ReaderAt
	io.Seeker
}

func (ZipCodec) Decode(ctx context.Context, r io.Reader, fn EntryFunc) error {
	sra, ok := r.(sizedReaderAt)
	if !ok {
		return fmt.Errorf("zip decoding requires a seekable input")
	}

	size, err := sra.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("seek to end: %w", err)
	}

	zr, err := zip.NewReader(sra, size)
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}

	for _, zf := range zr.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		mode := zf.Mode()
		entry := Entry{
			Path:           strings.TrimSuffix(zf.Name, "/"),
			Size:           int64(zf.UncompressedSize64),
			CompressedSize: int64(zf.CompressedSize64),
			Mode:           mode,
			ModTime:        zf.Modified,
			Checksum:       zf.Comment,
			Open:           zf.Open,
		}
		if strings.HasSuffix(zf.Name, "/") && !mode.IsDir() {
			// Some writers store directories without the mode bit.
			entry.Mode |= fs.ModeDir
		}

		if entry.IsSymlink() {
			// Zip stores the target as the file body.
			target, err := readLinkTarget(zf)
			if err != nil {
				return fmt.Errorf("file %s: reading link target: %w", zf.Name, err)
			}
			entry.LinkTarget = target
			entry.Size = 0
			entry.Open = nil
		}

		if err := fn(entry); err != nil {
			if errors.Is(err, ErrStopDecode) {
				return nil
			}
			return err
		}
	}

	return nil
}

func readLinkTarget(zf *zip.File) (string, error) {
	rc, err := zf.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	// Link targets are short; cap the read.
	buf, err := io.ReadAll(io.LimitReader(rc, 4096))
	if err != nil {
		return "", err
	}
	return string(buf), nil
}
