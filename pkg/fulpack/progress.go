package fulpack

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// ProgressCallback receives progress events during Create and Extract.
type ProgressCallback func(event ProgressEvent)

// ProgressEvent is one progress notification.
type ProgressEvent struct {
	Type    EventType
	Path    string
	Current int64
	Total   int64
}

// EventType indicates the kind of progress event.
type EventType int

const (
	EventStart EventType = iota
	EventEntryStart
	EventEntryProgress
	EventEntryComplete
	EventComplete
	EventError
)

// ProgressBarCallback creates a progress callback rendering multi-progress
// bars. Call Wait() on the returned container after the operation finishes.
func ProgressBarCallback() (ProgressCallback, *mpb.Progress) {
	progress := mpb.New(
		mpb.WithWidth(60),
		mpb.WithRefreshRate(100),
	)

	var overallBar *mpb.Bar
	var entryBars sync.Map // map[string]*mpb.Bar

	callback := func(event ProgressEvent) {
		switch event.Type {
		case EventStart:
			overallBar = progress.AddBar(event.Total,
				mpb.PrependDecorators(
					decor.Name("Total", decor.WC{C: decor.DindentRight | decor.DextraSpace}),
					decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
				),
				mpb.AppendDecorators(
					decor.Percentage(decor.WC{W: 5}),
				),
				mpb.BarPriority(1000), // high priority = bottom
			)

		case EventEntryStart:
			// Zero-size entries complete instantly; no bar for them.
			if event.Total == 0 {
				return
			}
			shortName := truncateLeft(event.Path, 30)
			bar := progress.AddBar(event.Total,
				mpb.PrependDecorators(
					decor.Name(shortName, decor.WC{C: decor.DindentRight | decor.DextraSpace, W: 32}),
				),
				mpb.AppendDecorators(
					decor.CountersKibiByte("% .1f / % .1f", decor.WC{W: 18}),
					decor.Percentage(decor.WC{W: 5}),
				),
				mpb.BarRemoveOnComplete(),
			)
			entryBars.Store(event.Path, bar)

		case EventEntryProgress:
			if bar, ok := entryBars.Load(event.Path); ok {
				bar.(*mpb.Bar).SetCurrent(event.Current)
			}

		case EventEntryComplete:
			if bar, ok := entryBars.Load(event.Path); ok {
				b := bar.(*mpb.Bar)
				if event.Total > 0 {
					b.SetCurrent(event.Total)
				} else {
					b.Abort(true)
				}
				entryBars.Delete(event.Path)
			}
			if overallBar != nil {
				overallBar.Increment()
			}

		case EventError:
			if bar, ok := entryBars.Load(event.Path); ok {
				bar.(*mpb.Bar).Abort(true)
				entryBars.Delete(event.Path)
			}
			if overallBar != nil {
				overallBar.Increment()
			}
		}
	}

	return callback, progress
}

// progressWriter wraps an io.Writer and reports bytes written.
type progressWriter struct {
	w       io.Writer
	onWrite func(n int)
}

func (pw *progressWriter) Write(p []byte) (n int, err error) {
	n, err = pw.w.Write(p)
	if n > 0 && pw.onWrite != nil {
		pw.onWrite(n)
	}
	return n, err
}

// countingWriter discards data while counting bytes, used to size streams
// whose format does not record an uncompressed length.
type countingWriter struct {
	count int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	cw.count += int64(len(p))
	return len(p), nil
}

// FormatSize formats bytes into a human-readable string.
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// truncateLeft truncates a path from the left to fit maxLen, preserving the
// filename.
func truncateLeft(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}

	filename := filepath.Base(path)
	if len(filename) >= maxLen-3 {
		return "..." + filename[len(filename)-(maxLen-3):]
	}

	return "..." + path[len(path)-(maxLen-3):]
}
