package fulpack

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/fulpack/fulpack/internal/codec"
)

// Create archives the given sources into output using the requested format
// and returns the aggregate metadata of the new archive.
//
// Sources are walked in lexical order with directories emitted before their
// children. A single directory source is archived relative to itself (its
// children sit at the archive root); multiple sources keep their base names
// as archive prefixes. Symbolic links are skipped unless FollowSymlinks is
// set, in which case the target content is archived under the link's path.
func Create(ctx context.Context, sources []string, output string, format Format, opts *CreateOptions) (*ArchiveInfo, error) {
	const op = "create"

	if opts == nil {
		opts = DefaultCreateOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, newError(op, CodeInvalidOptions, "%v", err)
	}
	if len(sources) == 0 {
		return nil, newError(op, CodeInvalidOptions, "at least one source is required")
	}

	c, ok := codec.ForName(string(format))
	if !ok {
		return nil, newError(op, CodeInvalidArchiveFormat, "unsupported archive format %q", format)
	}

	for _, src := range sources {
		if _, err := os.Lstat(src); err != nil {
			e := newError(op, CodeSourceNotFound, "source does not exist: %s", src)
			e.Path = src
			e.Err = err
			return nil, e
		}
	}

	filter := newPatternFilter(opts.IncludePatterns, opts.ExcludePatterns)
	entries, totalSize, err := gatherSources(sources, filter, opts)
	if err != nil {
		return nil, wrapError(op, err, output)
	}

	if format.SingleFile() {
		if err := requireSingleFile(entries); err != nil {
			return nil, newError(op, CodeInvalidOptions, "%s archives %v", format, err)
		}
	}

	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, wrapError(op, fmt.Errorf("creating output directory: %w", err), output)
		}
	}

	out, err := os.Create(output)
	if err != nil {
		return nil, wrapError(op, fmt.Errorf("creating archive: %w", err), output)
	}

	if opts.Progress != nil {
		opts.Progress(ProgressEvent{Type: EventStart, Total: int64(len(entries))})
		entries = wrapProgress(entries, opts.Progress)
	}

	encodeErr := c.Encode(ctx, out, entries, codec.EncodeOptions{
		Level:   opts.CompressionLevel,
		Threads: opts.Threads,
	})
	closeErr := out.Close()
	if encodeErr == nil {
		encodeErr = closeErr
	}
	if encodeErr != nil {
		os.Remove(output) // do not leave a truncated archive behind
		return nil, wrapError(op, encodeErr, output)
	}

	stat, err := os.Stat(output)
	if err != nil {
		return nil, wrapError(op, err, output)
	}

	if opts.Progress != nil {
		opts.Progress(ProgressEvent{Type: EventComplete, Total: int64(len(entries))})
	}

	return &ArchiveInfo{
		Format:           format,
		Compression:      format.Compression(),
		EntryCount:       len(entries),
		TotalSize:        totalSize,
		CompressedSize:   stat.Size(),
		CompressionRatio: compressionRatio(totalSize, stat.Size()),
		HasChecksums:     opts.ChecksumAlgorithm != ChecksumNone,
		Created:          time.Now(),
	}, nil
}

func requireSingleFile(entries []codec.Entry) error {
	files := 0
	for _, e := range entries {
		if e.IsDir() {
			return fmt.Errorf("hold exactly one file, got a directory")
		}
		files++
	}
	if files != 1 {
		return fmt.Errorf("hold exactly one file, got %d", files)
	}
	return nil
}

// gatherSources walks the source paths and builds the entry list in archive
// order: lexical, directories before children.
func gatherSources(sources []string, filter *patternFilter, opts *CreateOptions) ([]codec.Entry, int64, error) {
	var entries []codec.Entry
	var totalSize int64

	add := func(e codec.Entry) {
		entries = append(entries, e)
		if e.IsRegular() {
			totalSize += e.Size
		}
	}

	// A single directory source is archived relative to itself.
	rootRelative := false
	if len(sources) == 1 {
		if info, err := os.Stat(sources[0]); err == nil && info.IsDir() {
			rootRelative = true
		}
	}

	// Resolved directories already walked, so symlink cycles terminate.
	visited := make(map[string]bool)

	for _, src := range sources {
		info, err := os.Lstat(src)
		if err != nil {
			return nil, 0, err
		}

		walkRoot := src
		if info.Mode()&fs.ModeSymlink != 0 {
			if !opts.FollowSymlinks {
				continue // security default: links are not archived
			}
			// WalkDir lstats its root, so a link must be resolved
			// before walking or the target tree is never entered.
			walkRoot, err = filepath.EvalSymlinks(src)
			if err != nil {
				return nil, 0, fmt.Errorf("resolving symlink %s: %w", src, err)
			}
			info, err = os.Stat(walkRoot)
			if err != nil {
				return nil, 0, err
			}
		}

		if !info.IsDir() {
			e, err := fileEntry(walkRoot, filepath.Base(src), info, opts)
			if err != nil {
				return nil, 0, err
			}
			add(e)
			continue
		}

		prefix := filepath.Base(src)
		if rootRelative {
			prefix = ""
		}
		if err := walkDir(walkRoot, prefix, filter, opts, visited, add); err != nil {
			return nil, 0, err
		}
	}

	return entries, totalSize, nil
}

func walkDir(root, prefix string, filter *patternFilter, opts *CreateOptions, visited map[string]bool, add func(codec.Entry)) error {
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		if visited[resolved] {
			return nil
		}
		visited[resolved] = true
	}

	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil // the root itself is not an entry
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		name := path.Join(filepath.ToSlash(prefix), filepath.ToSlash(rel))

		if d.IsDir() {
			if !filter.Match(name, true) {
				return fs.SkipDir
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			add(dirEntry(name, info, opts))
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			if !opts.FollowSymlinks {
				return nil
			}
			resolved, err := filepath.EvalSymlinks(p)
			if err != nil {
				return fmt.Errorf("resolving symlink %s: %w", p, err)
			}
			target, err := os.Stat(resolved)
			if err != nil {
				return fmt.Errorf("resolving symlink %s: %w", p, err)
			}
			if target.IsDir() {
				// Archive the directory the link points to under
				// the link's own path. Walking the resolved path,
				// not the link, is what makes WalkDir descend.
				add(dirEntry(name, target, opts))
				return walkDir(resolved, name, filter, opts, visited, add)
			}
			if !filter.Match(name, false) {
				return nil
			}
			e, err := fileEntry(p, name, target, opts)
			if err != nil {
				return err
			}
			add(e)
			return nil
		}

		if !filter.Match(name, false) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		e, err := fileEntry(p, name, info, opts)
		if err != nil {
			return err
		}
		add(e)
		return nil
	})
}

func dirEntry(name string, info fs.FileInfo, opts *CreateOptions) codec.Entry {
	return codec.Entry{
		Path:    name,
		Mode:    entryMode(info, opts) | fs.ModeDir,
		ModTime: info.ModTime(),
	}
}

func fileEntry(onDisk, name string, info fs.FileInfo, opts *CreateOptions) (codec.Entry, error) {
	e := codec.Entry{
		Path:    name,
		Size:    info.Size(),
		Mode:    entryMode(info, opts),
		ModTime: info.ModTime(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(onDisk)
		},
	}

	if opts.ChecksumAlgorithm != ChecksumNone {
		sum, err := fileChecksum(onDisk, opts.ChecksumAlgorithm)
		if err != nil {
			return codec.Entry{}, fmt.Errorf("checksumming %s: %w", onDisk, err)
		}
		e.Checksum = sum
	}

	return e, nil
}

func entryMode(info fs.FileInfo, opts *CreateOptions) fs.FileMode {
	if opts.PreservePermissions {
		return info.Mode().Perm()
	}
	if info.IsDir() {
		return 0o755
	}
	return 0o644
}

// wrapProgress decorates entry readers with per-entry progress reporting.
func wrapProgress(entries []codec.Entry, cb ProgressCallback) []codec.Entry {
	wrapped := make([]codec.Entry, len(entries))
	for i, e := range entries {
		e := e
		if e.Open != nil {
			open := e.Open
			e.Open = func() (io.ReadCloser, error) {
				rc, err := open()
				if err != nil {
					cb(ProgressEvent{Type: EventError, Path: e.Path})
					return nil, err
				}
				cb(ProgressEvent{Type: EventEntryStart, Path: e.Path, Total: e.Size})
				var read int64
				return &progressReadCloser{
					rc: rc,
					onRead: func(n int) {
						read += int64(n)
						cb(ProgressEvent{Type: EventEntryProgress, Path: e.Path, Current: read, Total: e.Size})
					},
					onClose: func() {
						cb(ProgressEvent{Type: EventEntryComplete, Path: e.Path, Total: e.Size})
					},
				}, nil
			}
		}
		wrapped[i] = e
	}
	return wrapped
}

type progressReadCloser struct {
	rc      io.ReadCloser
	onRead  func(n int)
	onClose func()
}

func (pr *progressReadCloser) Read(p []byte) (n int, err error) {
	n, err = pr.rc.Read(p)
	if n > 0 && pr.onRead != nil {
		pr.onRead(n)
	}
	return n, err
}

func (pr *progressReadCloser) Close() error {
	if pr.onClose != nil {
		pr.onClose()
	}
	return pr.rc.Close()
}
