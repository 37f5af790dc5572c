// Package safety holds the pure guard logic applied to untrusted archive
// contents: lexical path validation and streaming resource ceilings.
// Nothing in this package touches the filesystem.
package safety

import (
	"errors"
	"path"
	"strings"
)

var (
	// ErrPathTraversal is returned for entry paths that escape the
	// destination via ".." segments.
	ErrPathTraversal = errors.New("path traversal detected")

	// ErrAbsolutePath is returned for absolute entry paths (POSIX or
	// Windows drive-letter form) when they are not allowed.
	ErrAbsolutePath = errors.New("absolute path not allowed")
)

// CheckPath validates an archive entry path lexically. Validation happens on
// the normalized, forward-slash form so encoded or mixed-separator tricks
// cannot smuggle a ".." segment past the check. When allowAbsolute is true,
// absolute paths are tolerated (inspection mode) but traversal is still
// rejected.
func CheckPath(entryPath string, allowAbsolute bool) error {
	// Normalize to forward slashes before any inspection. Windows
	// archives legitimately contain backslashes; adversarial ones rely
	// on them being ignored.
	normalized := strings.ReplaceAll(entryPath, `\`, "/")

	if !allowAbsolute {
		if strings.HasPrefix(normalized, "/") || hasDrivePrefix(normalized) {
			return ErrAbsolutePath
		}
	}

	// Strip the root before cleaning: path.Clean silently swallows ".."
	// segments at the root of an absolute path, which would hide the
	// traversal attempt in inspection mode.
	rel := normalized
	if hasDrivePrefix(rel) {
		rel = rel[2:]
	}
	rel = strings.TrimPrefix(rel, "/")

	// path.Clean collapses "a/./b" and resolves in-tree ".." segments.
	// Any ".." that survives cleaning escapes the root.
	cleaned := path.Clean(rel)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return ErrPathTraversal
	}

	return nil
}

// CheckLinkTarget validates a symlink target recorded in an archive. Targets
// are never dereferenced by the engine, but verify flags the ones that would
// escape the extraction root: absolute targets, or relative targets whose
// ".." segments climb above the link's own directory.
func CheckLinkTarget(entryPath, target string) error {
	normalized := strings.ReplaceAll(target, `\`, "/")
	if strings.HasPrefix(normalized, "/") || hasDrivePrefix(normalized) {
		return ErrAbsolutePath
	}

	// Resolve the target relative to the directory containing the link
	// and see whether it stays inside the tree.
	base := path.Dir(strings.ReplaceAll(entryPath, `\`, "/"))
	resolved := path.Join(base, normalized)
	if resolved == ".." || strings.HasPrefix(resolved, "../") {
		return ErrPathTraversal
	}

	return nil
}

// hasDrivePrefix reports whether p starts with a Windows drive letter,
// like "C:" or "d:/x".
func hasDrivePrefix(p string) bool {
	if len(p) < 2 || p[1] != ':' {
		return false
	}
	c := p[0]
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
