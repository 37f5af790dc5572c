package fulpack

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fulpack/fulpack/internal/codec"
	"github.com/fulpack/fulpack/internal/safety"
)

// Extract unpacks the archive into destination.
//
// Per-entry failures (existing files under the default overwrite policy,
// permission errors, checksum mismatches) are collected in the result and
// do not abort the run. Resource-guard violations do: continuing would mean
// trusting an archive already shown to be adversarial. In that case the
// partial result is returned together with a DECOMPRESSION_BOMB error, and
// the in-flight destination file is removed.
func Extract(ctx context.Context, archive, destination string, opts *ExtractOptions) (*ExtractResult, error) {
	const op = "extract"

	if opts == nil {
		opts = DefaultExtractOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, newError(op, CodeInvalidOptions, "%v", err)
	}

	format, c, f, err := openArchive(op, archive)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := os.MkdirAll(destination, 0o755); err != nil {
		return nil, wrapError(op, fmt.Errorf("creating destination: %w", err), archive)
	}

	guard := safety.NewGuard(opts.MaxSize, opts.MaxEntries)
	filter := newPatternFilter(opts.IncludePatterns, nil)
	result := &ExtractResult{}

	ex := &extractor{
		op:          op,
		archive:     archive,
		destination: destination,
		format:      format,
		opts:        opts,
		guard:       guard,
		filter:      filter,
		result:      result,
	}

	decodeErr := c.Decode(ctx, f, ex.handle)
	if ex.fatal != nil {
		return result, ex.fatal
	}
	if decodeErr != nil {
		if errors.Is(decodeErr, context.Canceled) || errors.Is(decodeErr, context.DeadlineExceeded) {
			return result, wrapError(op, decodeErr, archive)
		}
		e := newError(op, CodeArchiveCorrupt, "decoding archive: %v", decodeErr)
		e.Archive = archive
		e.Err = decodeErr
		return result, e
	}

	if opts.Progress != nil {
		opts.Progress(ProgressEvent{Type: EventComplete, Current: int64(result.ExtractedCount)})
	}

	return result, nil
}

// extractor carries the per-call state threaded through the decode loop.
type extractor struct {
	op          string
	archive     string
	destination string
	format      Format
	opts        *ExtractOptions
	guard       *safety.Guard
	filter      *patternFilter
	result      *ExtractResult

	// fatal is set when a guard violation aborts the run.
	fatal *Error
}

func (ex *extractor) handle(entry codec.Entry) error {
	if err := ex.guard.AddEntry(); err != nil {
		ex.fatal = ex.bombError(err, entry.Path)
		return ex.fatal
	}

	name := entry.Path
	if name == "" && ex.format.SingleFile() {
		name = singleFileName(ex.archive)
	}

	if !ex.filter.Match(name, entry.IsDir()) {
		ex.result.SkippedCount++
		return nil
	}

	// Enforce, don't just inspect: extraction rejects unsafe paths.
	if err := safety.CheckPath(name, false); err != nil {
		ex.entryError(name, pathCode(err), "unsafe entry path: %v", err)
		return nil
	}

	switch {
	case entry.IsSymlink():
		// Symlink entries are never materialized; that is the
		// security default, reported as a warning.
		ex.result.SkippedCount++
		ex.result.Warnings = append(ex.result.Warnings,
			fmt.Sprintf("skipped symlink entry %s -> %s", name, entry.LinkTarget))
		return nil

	case entry.IsDir():
		target := filepath.Join(ex.destination, filepath.FromSlash(name))
		if err := os.MkdirAll(target, dirMode(entry, ex.opts.PreservePermissions)); err != nil {
			ex.entryError(name, CodeExtractionFailed, "creating directory: %v", err)
			return nil
		}
		ex.result.ExtractedCount++
		return nil

	default:
		return ex.extractFile(name, entry)
	}
}

func (ex *extractor) extractFile(name string, entry codec.Entry) error {
	target := filepath.Join(ex.destination, filepath.FromSlash(name))

	if _, err := os.Lstat(target); err == nil {
		switch ex.opts.Overwrite {
		case OverwriteSkip:
			ex.result.SkippedCount++
			return nil
		case OverwriteError:
			ex.entryError(name, CodeExtractionFailed, "file exists (overwrite policy is %q)", OverwriteError)
			return nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		ex.entryError(name, CodeExtractionFailed, "creating parent directory: %v", err)
		return nil
	}

	rc, err := entry.Open()
	if err != nil {
		ex.entryError(name, CodeExtractionFailed, "opening entry: %v", err)
		return nil
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fileMode(entry, ex.opts.PreservePermissions))
	if err != nil {
		ex.entryError(name, fsCode(err), "creating file: %v", err)
		return nil
	}

	if ex.opts.Progress != nil {
		ex.opts.Progress(ProgressEvent{Type: EventEntryStart, Path: name, Total: entry.Size})
	}

	var w io.Writer = out
	var tee *checksumTee
	algo, digest, hasChecksum := splitChecksum(entry.Checksum)
	if ex.opts.VerifyChecksums && hasChecksum {
		tee, err = newChecksumTee(w, algo)
		if err == nil {
			w = tee
		}
	}
	if ex.opts.Progress != nil {
		var written int64
		w = &progressWriter{w: w, onWrite: func(n int) {
			written += int64(n)
			ex.opts.Progress(ProgressEvent{Type: EventEntryProgress, Path: name, Current: written, Total: entry.Size})
		}}
	}

	// Byte accounting interleaves with the copy so an oversized stream
	// aborts mid-flight instead of after the damage is done.
	_, copyErr := io.Copy(&guardedWriter{w: w, guard: ex.guard}, rc)
	closeErr := out.Close()

	if copyErr != nil {
		os.Remove(target) // never leave a partial or oversized file
		if errors.Is(copyErr, safety.ErrSizeExceeded) {
			ex.fatal = ex.bombError(copyErr, name)
			return ex.fatal
		}
		ex.entryError(name, fsCode(copyErr), "writing file: %v", copyErr)
		return nil
	}
	if closeErr != nil {
		os.Remove(target)
		ex.entryError(name, fsCode(closeErr), "closing file: %v", closeErr)
		return nil
	}

	if tee != nil && tee.Sum() != digest {
		os.Remove(target)
		ex.entryError(name, CodeChecksumMismatch, "checksum mismatch: archive records %s:%s", algo, digest)
		return nil
	}

	ex.result.ExtractedCount++
	if ex.opts.Progress != nil {
		ex.opts.Progress(ProgressEvent{Type: EventEntryComplete, Path: name, Total: entry.Size})
	}
	return nil
}

func (ex *extractor) entryError(path string, code Code, format string, args ...any) {
	e := newError(ex.op, code, format, args...)
	e.Path = path
	e.Archive = ex.archive
	ex.result.Errors = append(ex.result.Errors, e)
	ex.result.ErrorCount++
	if ex.opts.Progress != nil {
		ex.opts.Progress(ProgressEvent{Type: EventError, Path: path})
	}
}

func (ex *extractor) bombError(cause error, path string) *Error {
	e := newError(ex.op, CodeDecompressionBomb, "resource limit exceeded: %v", cause)
	e.Path = path
	e.Archive = ex.archive
	e.Err = cause
	e.Details = map[string]any{
		"entries_seen":    ex.guard.Entries(),
		"bytes_extracted": ex.guard.Bytes(),
		"max_bytes":       ex.guard.MaxBytes(),
	}
	return e
}

// guardedWriter feeds the resource guard as bytes stream through.
type guardedWriter struct {
	w     io.Writer
	guard *safety.Guard
}

func (gw *guardedWriter) Write(p []byte) (int, error) {
	n, err := gw.w.Write(p)
	if err != nil {
		return n, err
	}
	if gerr := gw.guard.AddBytes(int64(n)); gerr != nil {
		return n, gerr
	}
	return n, nil
}

// openArchive resolves the archive format by suffix and opens the file.
func openArchive(op, archive string) (Format, codec.Codec, *os.File, error) {
	if _, err := os.Stat(archive); err != nil {
		e := newError(op, CodeArchiveNotFound, "archive does not exist: %s", archive)
		e.Archive = archive
		e.Err = err
		return "", nil, nil, e
	}

	format, err := DetectFormat(archive)
	if err != nil {
		e := newError(op, CodeInvalidArchiveFormat, "%v", err)
		e.Archive = archive
		return "", nil, nil, e
	}

	c, ok := codec.ForName(string(format))
	if !ok {
		e := newError(op, CodeInvalidArchiveFormat, "unsupported archive format %q", format)
		e.Archive = archive
		return "", nil, nil, e
	}

	f, err := os.Open(archive)
	if err != nil {
		return "", nil, nil, wrapError(op, err, archive)
	}
	return format, c, f, nil
}

// singleFileName derives the output name for a single-file archive whose
// header does not record one: the archive base name minus its suffix.
func singleFileName(archive string) string {
	base := filepath.Base(archive)
	if i := strings.LastIndex(base, "."); i > 0 {
		return base[:i]
	}
	return base
}

func pathCode(err error) Code {
	if errors.Is(err, safety.ErrAbsolutePath) {
		return CodeAbsolutePath
	}
	return CodePathTraversal
}

func fsCode(err error) Code {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return CodePermissionDenied
	case isDiskFull(err):
		return CodeDiskFull
	}
	return CodeExtractionFailed
}

func dirMode(entry codec.Entry, preserve bool) fs.FileMode {
	if preserve && entry.Mode.Perm() != 0 {
		return entry.Mode.Perm()
	}
	return 0o755
}

func fileMode(entry codec.Entry, preserve bool) fs.FileMode {
	if preserve && entry.Mode.Perm() != 0 {
		return entry.Mode.Perm()
	}
	return 0o644
}
