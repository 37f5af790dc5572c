// Package fulpack creates, extracts, enumerates and validates container
// archives (tar, tar.gz, zip, single-file gzip, plus xz and zstd variants)
// with security-hardened defaults.
//
// Untrusted archive contents are treated as adversarial throughout: entry
// paths are validated against traversal and absolute forms before anything
// touches the filesystem, symlink entries are never materialized, and a
// per-operation resource guard aborts extraction mid-stream when cumulative
// size or entry count exceeds its ceilings.
//
// The five operations are Create, Extract, Scan, Verify and Info. Each is a
// self-contained call: options are per-call structs with explicit defaults,
// results are fresh values, and no state is shared between concurrent calls
// on different archives. All operations honor context cancellation.
package fulpack
