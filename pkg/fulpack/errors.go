package fulpack

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
)

// Code is a stable string identifier for an error condition. Codes survive
// serialization and never change meaning between releases.
type Code string

const (
	CodeInvalidArchiveFormat Code = "INVALID_ARCHIVE_FORMAT"
	CodeInvalidPath          Code = "INVALID_PATH"
	CodeInvalidOptions       Code = "INVALID_OPTIONS"
	CodePathTraversal        Code = "PATH_TRAVERSAL"
	CodeAbsolutePath         Code = "ABSOLUTE_PATH"
	CodeSymlinkEscape        Code = "SYMLINK_ESCAPE"
	CodeDecompressionBomb    Code = "DECOMPRESSION_BOMB"
	CodeChecksumMismatch     Code = "CHECKSUM_MISMATCH"
	CodeArchiveNotFound      Code = "ARCHIVE_NOT_FOUND"
	CodeArchiveCorrupt       Code = "ARCHIVE_CORRUPT"
	CodeExtractionFailed     Code = "EXTRACTION_FAILED"
	CodePermissionDenied     Code = "PERMISSION_DENIED"
	CodeDiskFull             Code = "DISK_FULL"
	CodeSourceNotFound       Code = "SOURCE_NOT_FOUND"
)

// Error is the single error shape used across all archive operations.
// Callers never see raw I/O errors; everything is wrapped with operation
// context before surfacing.
type Error struct {
	// Code identifies the error condition.
	Code Code `json:"code"`

	// Message is the human-readable description.
	Message string `json:"message"`

	// Op is the operation that produced the error: create, extract,
	// scan, verify or info.
	Op string `json:"operation"`

	// Path is the entry or filesystem path involved, when relevant.
	Path string `json:"path,omitempty"`

	// Archive is the archive file involved, when relevant.
	Archive string `json:"archive,omitempty"`

	// Details carries free-form diagnostic values.
	Details map[string]any `json:"details,omitempty"`

	// Err is the wrapped cause, if any.
	Err error `json:"-"`
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Path != "" {
		msg += fmt.Sprintf(" (path: %s)", e.Path)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// newError builds an *Error for the given operation.
func newError(op string, code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Op:      op,
	}
}

// wrapError converts an arbitrary error into an *Error with operation
// context. Already-structured errors pass through untouched; filesystem
// errors map onto the permission/disk-space codes.
func wrapError(op string, err error, archive string) *Error {
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}

	code := CodeExtractionFailed
	switch {
	case errors.Is(err, fs.ErrPermission):
		code = CodePermissionDenied
	case isDiskFull(err):
		code = CodeDiskFull
	case errors.Is(err, fs.ErrNotExist):
		code = CodeArchiveNotFound
	}

	return &Error{
		Code:    code,
		Message: err.Error(),
		Op:      op,
		Archive: archive,
		Err:     err,
	}
}

// isDiskFull reports whether err is an out-of-space condition.
func isDiskFull(err error) bool {
	return errors.Is(err, syscall.ENOSPC)
}

// CodeOf returns the structured code carried by err, or an empty Code when
// err is not a *fulpack.Error.
func CodeOf(err error) Code {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}
