package fulpack

import (
	"archive/tar"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func hasCheck(result *ValidationResult, c Check) bool {
	for _, got := range result.ChecksPerformed {
		if got == c {
			return true
		}
	}
	return false
}

func TestVerifyCleanArchive(t *testing.T) {
	src := writeTree(t)
	archive := filepath.Join(t.TempDir(), "a.tar.gz")
	if _, err := Create(context.Background(), []string{src}, archive, FormatTarGz, nil); err != nil {
		t.Fatal(err)
	}

	result, err := Verify(context.Background(), archive, nil)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !result.Valid {
		t.Fatalf("Valid = false, errors: %v", result.Errors)
	}
	if result.EntryCount != 3 {
		t.Errorf("EntryCount = %d, want 3", result.EntryCount)
	}
	if result.ChecksumsVerified != 2 {
		t.Errorf("ChecksumsVerified = %d, want 2", result.ChecksumsVerified)
	}

	for _, c := range []Check{CheckStructureValid, CheckNoPathTraversal, CheckNoDecompressionBomb, CheckChecksumsVerified} {
		if !hasCheck(result, c) {
			t.Errorf("check %s missing from ChecksPerformed", c)
		}
	}
	// No symlinks in the archive, so that check has no precondition.
	if hasCheck(result, CheckSymlinksSafe) {
		t.Error("symlinks_safe listed without any symlink entries")
	}
}

func TestVerifyChecksWithoutChecksums(t *testing.T) {
	src := writeTree(t)
	archive := filepath.Join(t.TempDir(), "a.tar")
	opts := DefaultCreateOptions()
	opts.ChecksumAlgorithm = ChecksumNone
	if _, err := Create(context.Background(), []string{src}, archive, FormatTar, opts); err != nil {
		t.Fatal(err)
	}

	result, err := Verify(context.Background(), archive, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Valid {
		t.Fatalf("Valid = false, errors: %v", result.Errors)
	}
	if hasCheck(result, CheckChecksumsVerified) {
		t.Error("checksums_verified listed for an archive without digests")
	}
}

func TestVerifyPathTraversalFails(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "evil.tar")
	writeRawTar(t, archive,
		[]*tar.Header{{Name: "../../escape", Typeflag: tar.TypeReg, Mode: 0o644}},
		[]string{"x"},
	)

	result, err := Verify(context.Background(), archive, nil)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if result.Valid {
		t.Fatal("Valid = true for a traversal entry")
	}
	if len(result.Errors) != 1 || result.Errors[0].Code != CodePathTraversal {
		t.Fatalf("want one PATH_TRAVERSAL error, got %+v", result.Errors)
	}
}

func TestVerifyAbsolutePathIsWarning(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "abs.tar")
	writeRawTar(t, archive,
		[]*tar.Header{{Name: "/etc/motd", Typeflag: tar.TypeReg, Mode: 0o644}},
		[]string{"x"},
	)

	result, err := Verify(context.Background(), archive, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Valid {
		t.Fatalf("absolute paths are a warning, not an error: %v", result.Errors)
	}
	if len(result.Warnings) == 0 {
		t.Error("expected a warning for the absolute entry path")
	}
}

func TestVerifySymlinkEscape(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "links.tar")
	writeRawTar(t, archive,
		[]*tar.Header{
			{Name: "inside", Typeflag: tar.TypeSymlink, Linkname: "a.txt", Mode: 0o777},
			{Name: "outside", Typeflag: tar.TypeSymlink, Linkname: "../../etc/passwd", Mode: 0o777},
		},
		[]string{"", ""},
	)

	result, err := Verify(context.Background(), archive, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !hasCheck(result, CheckSymlinksSafe) {
		t.Fatal("symlinks_safe missing despite symlink entries")
	}
	if result.Valid {
		t.Fatal("Valid = true for an escaping symlink")
	}
	if len(result.Errors) != 1 || result.Errors[0].Code != CodeSymlinkEscape {
		t.Fatalf("want one SYMLINK_ESCAPE error, got %+v", result.Errors)
	}
	if result.Errors[0].Path != "outside" {
		t.Errorf("flagged path = %s, want outside", result.Errors[0].Path)
	}
}

func TestVerifyHighRatioWarns(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "zeros.bin")
	if err := os.WriteFile(src, make([]byte, 1<<20), 0o644); err != nil {
		t.Fatal(err)
	}
	archive := filepath.Join(dir, "zeros.tar.gz")
	if _, err := Create(context.Background(), []string{src}, archive, FormatTarGz, nil); err != nil {
		t.Fatal(err)
	}

	result, err := Verify(context.Background(), archive, nil)
	if err != nil {
		t.Fatal(err)
	}
	// A megabyte of zeros compresses far past 100:1. Still valid.
	if !result.Valid {
		t.Fatalf("ratio violations must stay warnings: %v", result.Errors)
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "compression ratio") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a ratio warning, got %v", result.Warnings)
	}
}

func TestVerifyCorruptArchiveIsFinding(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "bad.tar.gz")
	if err := os.WriteFile(archive, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := Verify(context.Background(), archive, nil)
	if err != nil {
		t.Fatalf("corruption is a verify finding, not a call failure: %v", err)
	}
	if result.Valid {
		t.Fatal("Valid = true for a corrupt archive")
	}
	if len(result.Errors) != 1 || result.Errors[0].Code != CodeArchiveCorrupt {
		t.Fatalf("want one ARCHIVE_CORRUPT error, got %+v", result.Errors)
	}
	if !hasCheck(result, CheckStructureValid) {
		t.Error("structure_valid should be listed; the check ran and failed")
	}
}

func TestVerifyTamperedChecksum(t *testing.T) {
	src := writeTree(t)
	dir := t.TempDir()
	archive := filepath.Join(dir, "a.tar")
	if _, err := Create(context.Background(), []string{src}, archive, FormatTar, nil); err != nil {
		t.Fatal(err)
	}

	// Flip a content byte without touching the header. "hello world" is the
	// first file body; tar stores it after the 512-byte header block.
	data, err := os.ReadFile(archive)
	if err != nil {
		t.Fatal(err)
	}
	at := -1
	for i := range data {
		if i+11 <= len(data) && string(data[i:i+11]) == "hello world" {
			at = i
			break
		}
	}
	if at < 0 {
		t.Fatal("file body not found in raw tar")
	}
	data[at] = 'j'
	if err := os.WriteFile(archive, data, 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := Verify(context.Background(), archive, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Valid {
		t.Fatal("Valid = true for tampered content")
	}
	foundMismatch := false
	for _, e := range result.Errors {
		if e.Code == CodeChecksumMismatch {
			foundMismatch = true
		}
	}
	if !foundMismatch {
		t.Fatalf("want a CHECKSUM_MISMATCH error, got %+v", result.Errors)
	}
}

func TestVerifyReportsUnreadableEntryContent(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(src, []byte(strings.Repeat("some moderately compressible text. ", 20)), 0o644); err != nil {
		t.Fatal(err)
	}
	archive := filepath.Join(dir, "a.zip")
	if _, err := Create(context.Background(), []string{src}, archive, FormatZip, nil); err != nil {
		t.Fatal(err)
	}

	// Corrupt the deflate stream behind the first local header. The
	// central directory at the end stays intact, so enumeration succeeds
	// and only the content pass sees the damage.
	data, err := os.ReadFile(archive)
	if err != nil {
		t.Fatal(err)
	}
	nameLen := int(data[26]) | int(data[27])<<8
	extraLen := int(data[28]) | int(data[29])<<8
	data[30+nameLen+extraLen+5] ^= 0xFF
	if err := os.WriteFile(archive, data, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Scan(context.Background(), archive, nil); err != nil {
		t.Fatalf("enumeration should still succeed: %v", err)
	}

	result, err := Verify(context.Background(), archive, nil)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if result.Valid {
		t.Fatal("Valid = true for unreadable entry content")
	}
	if result.ChecksumsVerified != 0 {
		t.Errorf("ChecksumsVerified = %d, want 0", result.ChecksumsVerified)
	}
	found := false
	for _, e := range result.Errors {
		if e.Code == CodeArchiveCorrupt || e.Code == CodeChecksumMismatch {
			found = true
		}
	}
	if !found {
		t.Fatalf("want a corrupt or mismatch error, got %+v", result.Errors)
	}
}

func TestVerifyMissingArchive(t *testing.T) {
	_, err := Verify(context.Background(), "/no/such/archive.tar", nil)
	if CodeOf(err) != CodeArchiveNotFound {
		t.Fatalf("expected ARCHIVE_NOT_FOUND, got %v", err)
	}
}
