package fulpack

import "testing"

func TestDetectFormat(t *testing.T) {
	for _, tc := range []struct {
		filename string
		want     Format
		wantErr  bool
	}{
		{filename: "backup.tar", want: FormatTar},
		{filename: "backup.tar.gz", want: FormatTarGz},
		{filename: "backup.tgz", want: FormatTarGz},
		{filename: "backup.tar.xz", want: FormatTarXz},
		{filename: "backup.txz", want: FormatTarXz},
		{filename: "backup.tar.zst", want: FormatTarZst},
		{filename: "backup.zip", want: FormatZip},
		{filename: "notes.txt.gz", want: FormatGz},
		{filename: "notes.xz", want: FormatXz},
		{filename: "BACKUP.TAR.GZ", want: FormatTarGz},
		{filename: "/some/dir/archive.zip", want: FormatZip},
		{filename: "archive.rar", wantErr: true},
		{filename: "plain.txt", wantErr: true},
		{filename: "archive", wantErr: true},
	} {
		got, err := DetectFormat(tc.filename)
		if tc.wantErr {
			if err == nil {
				t.Errorf("DetectFormat(%q): expected error, got %v", tc.filename, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("DetectFormat(%q): %v", tc.filename, err)
			continue
		}
		if got != tc.want {
			t.Errorf("DetectFormat(%q) = %v, want %v", tc.filename, got, tc.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	for _, tc := range []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{name: "tar", want: FormatTar},
		{name: "tar.gz", want: FormatTarGz},
		{name: "tgz", want: FormatTarGz},
		{name: "ZIP", want: FormatZip},
		{name: ".zip", want: FormatZip},
		{name: "gz", want: FormatGz},
		{name: "7z", wantErr: true},
		{name: "", wantErr: true},
	} {
		got, err := ParseFormat(tc.name)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseFormat(%q): expected error, got %v", tc.name, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFormat(%q): %v", tc.name, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestCompressionRatio(t *testing.T) {
	for _, tc := range []struct {
		total, compressed int64
		want              float64
	}{
		{0, 100, 1.0}, // empty archive convention
		{0, 0, 1.0},
		{100, 0, 1.0},
		{1000, 500, 2.0},
		{500, 1000, 0.5},
	} {
		if got := compressionRatio(tc.total, tc.compressed); got != tc.want {
			t.Errorf("compressionRatio(%d, %d) = %v, want %v", tc.total, tc.compressed, got, tc.want)
		}
	}
}
