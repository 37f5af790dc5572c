package fulpack

import (
	"fmt"
	"strings"
)

// Format identifies one supported archive format. Dispatch over formats is
// closed: the facade selects one codec per call and nothing below it
// branches on extension strings.
type Format string

const (
	FormatTar    Format = "tar"
	FormatTarGz  Format = "tar.gz"
	FormatTarXz  Format = "tar.xz"
	FormatTarZst Format = "tar.zst"
	FormatZip    Format = "zip"
	FormatGz     Format = "gz"
	FormatXz     Format = "xz"
	FormatZst    Format = "zst"
)

// suffixes maps filename suffixes to formats, longest match first.
var suffixes = []struct {
	ext    string
	format Format
}{
	{".tar.gz", FormatTarGz},
	{".tgz", FormatTarGz},
	{".tar.xz", FormatTarXz},
	{".txz", FormatTarXz},
	{".tar.zst", FormatTarZst},
	{".tzst", FormatTarZst},
	{".tar", FormatTar},
	{".zip", FormatZip},
	{".gz", FormatGz},
	{".xz", FormatXz},
	{".zst", FormatZst},
}

// ParseFormat converts a format name ("tar.gz", "zip", ...) into a Format.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(name, ".")))
	switch f {
	case FormatTar, FormatTarGz, FormatTarXz, FormatTarZst, FormatZip, FormatGz, FormatXz, FormatZst:
		return f, nil
	case "tgz":
		return FormatTarGz, nil
	case "txz":
		return FormatTarXz, nil
	case "tzst":
		return FormatTarZst, nil
	}
	return "", fmt.Errorf("unknown archive format %q", name)
}

// DetectFormat resolves a format from a filename suffix. The .gz suffix is
// never ambiguous here because .tar.gz is matched first.
func DetectFormat(filename string) (Format, error) {
	lower := strings.ToLower(filename)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s.ext) {
			return s.format, nil
		}
	}
	return "", fmt.Errorf("unrecognized archive suffix in %q", filename)
}

// Compression returns the compression layer name for the format, or "none".
func (f Format) Compression() string {
	switch f {
	case FormatTarGz, FormatGz:
		return "gzip"
	case FormatTarXz, FormatXz:
		return "xz"
	case FormatTarZst, FormatZst:
		return "zstd"
	default:
		return "none"
	}
}

// SingleFile reports whether the format holds exactly one file.
func (f Format) SingleFile() bool {
	switch f {
	case FormatGz, FormatXz, FormatZst:
		return true
	}
	return false
}

func (f Format) String() string { return string(f) }
