package safety

import (
	"errors"
	"fmt"
)

const (
	// DefaultMaxBytes is the default ceiling on cumulative extracted
	// bytes: 1 GiB.
	DefaultMaxBytes int64 = 1 << 30

	// DefaultMaxEntries is the default ceiling on archive entry count.
	DefaultMaxEntries = 100_000

	// RatioWarnThreshold is the uncompressed/compressed ratio above which
	// an archive is flagged as a potential decompression bomb. Ratios
	// past this point produce a warning, never a hard failure, since
	// sparse or highly repetitive payloads exceed it legitimately.
	RatioWarnThreshold = 100.0
)

var (
	// ErrTooManyEntries is returned when an archive exceeds the entry
	// count ceiling.
	ErrTooManyEntries = errors.New("archive entry count exceeds limit")

	// ErrSizeExceeded is returned when cumulative extracted bytes exceed
	// the configured ceiling.
	ErrSizeExceeded = errors.New("extracted size exceeds limit")
)

// Guard tracks cumulative extracted bytes and entry counts for one
// operation. Each operation owns its own Guard; there is no shared state
// between concurrent calls.
type Guard struct {
	maxBytes   int64
	maxEntries int

	entries int
	bytes   int64
}

// NewGuard returns a guard with the given ceilings. Non-positive values
// fall back to the defaults.
func NewGuard(maxBytes int64, maxEntries int) *Guard {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Guard{maxBytes: maxBytes, maxEntries: maxEntries}
}

// AddEntry records one more archive entry and reports whether the entry
// ceiling was crossed.
func (g *Guard) AddEntry() error {
	g.entries++
	if g.entries > g.maxEntries {
		return fmt.Errorf("%w: %d > %d", ErrTooManyEntries, g.entries, g.maxEntries)
	}
	return nil
}

// AddBytes records n more extracted bytes and reports whether the byte
// ceiling was crossed. It is called incrementally as chunks stream out of
// the decoder, not after full buffering; that mid-stream accounting is the
// anti-bomb property.
func (g *Guard) AddBytes(n int64) error {
	g.bytes += n
	if g.bytes > g.maxBytes {
		return fmt.Errorf("%w: %d > %d bytes", ErrSizeExceeded, g.bytes, g.maxBytes)
	}
	return nil
}

// Entries returns the number of entries observed so far.
func (g *Guard) Entries() int { return g.entries }

// Bytes returns the cumulative extracted bytes observed so far.
func (g *Guard) Bytes() int64 { return g.bytes }

// MaxBytes returns the configured byte ceiling.
func (g *Guard) MaxBytes() int64 { return g.maxBytes }

// RatioExceeded reports whether an archive-level uncompressed/compressed
// ratio crosses the warning threshold. A zero compressed size never warns.
func RatioExceeded(uncompressed, compressed int64) bool {
	if compressed <= 0 {
		return false
	}
	return float64(uncompressed)/float64(compressed) > RatioWarnThreshold
}
