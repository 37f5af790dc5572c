package fulpack

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/zeebo/blake3"
)

// Supported checksum algorithms.
const (
	ChecksumSHA256 = "sha256"
	ChecksumBlake3 = "blake3"
	ChecksumNone   = "none"
)

// newChecksumHash returns a fresh hash for the named algorithm.
func newChecksumHash(algorithm string) (hash.Hash, error) {
	switch algorithm {
	case ChecksumSHA256:
		return sha256.New(), nil
	case ChecksumBlake3:
		return blake3.New(), nil
	default:
		return nil, fmt.Errorf("unsupported checksum algorithm %q", algorithm)
	}
}

// fileChecksum digests a file on disk and returns the "<algo>:<hex>" form
// stored in archives.
func fileChecksum(path, algorithm string) (string, error) {
	h, err := newChecksumHash(algorithm)
	if err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return algorithm + ":" + hex.EncodeToString(h.Sum(nil)), nil
}

// splitChecksum separates a stored "<algo>:<hex>" value. ok is false when
// the value does not look like an embedded digest (zip comments can hold
// arbitrary text).
func splitChecksum(stored string) (algorithm, digest string, ok bool) {
	algorithm, digest, found := strings.Cut(stored, ":")
	if !found || digest == "" {
		return "", "", false
	}
	switch algorithm {
	case ChecksumSHA256, ChecksumBlake3:
		return algorithm, digest, true
	}
	return "", "", false
}

// checksumTee wraps a writer and hashes everything written through it, used
// to verify embedded digests while streaming instead of re-reading the file.
type checksumTee struct {
	w io.Writer
	h hash.Hash
}

func newChecksumTee(w io.Writer, algorithm string) (*checksumTee, error) {
	h, err := newChecksumHash(algorithm)
	if err != nil {
		return nil, err
	}
	return &checksumTee{w: w, h: h}, nil
}

func (t *checksumTee) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	if n > 0 {
		t.h.Write(p[:n])
	}
	return n, err
}

func (t *checksumTee) Sum() string {
	return hex.EncodeToString(t.h.Sum(nil))
}
