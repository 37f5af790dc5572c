package codec

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func stringEntry(path, content string) Entry {
	return Entry{
		Path:    path,
		Size:    int64(len(content)),
		Mode:    0o644,
		ModTime: time.Unix(1700000000, 0),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func dirTestEntry(path string) Entry {
	return Entry{
		Path:    path,
		Mode:    0o755 | os.ModeDir,
		ModTime: time.Unix(1700000000, 0),
	}
}

func TestForName(t *testing.T) {
	for _, tc := range []struct {
		name string
		ok   bool
	}{
		{"tar", true},
		{"tar.gz", true},
		{"tar.xz", true},
		{"tar.zst", true},
		{"zip", true},
		{"gz", true},
		{"xz", true},
		{"zst", true},
		{"rar", false},
		{"", false},
	} {
		c, ok := ForName(tc.name)
		if ok != tc.ok {
			t.Errorf("ForName(%q): ok = %v, want %v", tc.name, ok, tc.ok)
			continue
		}
		if ok && c.Name() != tc.name {
			t.Errorf("ForName(%q).Name() = %q", tc.name, c.Name())
		}
	}
}

func TestTarRoundTrip(t *testing.T) {
	for _, name := range []string{"tar", "tar.gz", "tar.xz", "tar.zst"} {
		t.Run(name, func(t *testing.T) {
			c, ok := ForName(name)
			if !ok {
				t.Fatalf("codec %q not registered", name)
			}

			in := []Entry{
				stringEntry("a.txt", "hello world"),
				dirTestEntry("sub"),
				stringEntry("sub/b.txt", "bytes"),
			}

			var buf bytes.Buffer
			if err := c.Encode(context.Background(), &buf, in, EncodeOptions{}); err != nil {
				t.Fatalf("Encode: %v", err)
			}

			var got []Entry
			contents := map[string]string{}
			err := c.Decode(context.Background(), bytes.NewReader(buf.Bytes()), func(e Entry) error {
				got = append(got, e)
				if e.IsRegular() {
					rc, err := e.Open()
					if err != nil {
						return err
					}
					defer rc.Close()
					data, err := io.ReadAll(rc)
					if err != nil {
						return err
					}
					contents[e.Path] = string(data)
				}
				return nil
			})
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}

			if len(got) != 3 {
				t.Fatalf("decoded %d entries, want 3", len(got))
			}
			if got[0].Path != "a.txt" || got[1].Path != "sub" || got[2].Path != "sub/b.txt" {
				t.Errorf("entry order = %q, %q, %q", got[0].Path, got[1].Path, got[2].Path)
			}
			if !got[1].IsDir() {
				t.Errorf("entry %q should be a directory", got[1].Path)
			}
			if contents["a.txt"] != "hello world" || contents["sub/b.txt"] != "bytes" {
				t.Errorf("contents = %v", contents)
			}
		})
	}
}

func TestTarChecksumPAXRecord(t *testing.T) {
	c, _ := ForName("tar")
	entry := stringEntry("a.txt", "hello world")
	entry.Checksum = "sha256:deadbeef"

	var buf bytes.Buffer
	if err := c.Encode(context.Background(), &buf, []Entry{entry}, EncodeOptions{}); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var decoded Entry
	err := c.Decode(context.Background(), bytes.NewReader(buf.Bytes()), func(e Entry) error {
		decoded = e
		return nil
	})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Checksum != "sha256:deadbeef" {
		t.Errorf("Checksum = %q, want %q", decoded.Checksum, "sha256:deadbeef")
	}
}

func TestZipRoundTrip(t *testing.T) {
	c, _ := ForName("zip")

	in := []Entry{
		dirTestEntry("docs"),
		stringEntry("docs/readme.md", "content here"),
	}
	in[1].Checksum = "sha256:cafe"

	path := filepath.Join(t.TempDir(), "test.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Encode(context.Background(), f, in, EncodeOptions{Level: 6}); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	rf, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer rf.Close()

	var got []Entry
	err = c.Decode(context.Background(), rf, func(e Entry) error {
		got = append(got, e)
		return nil
	})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("decoded %d entries, want 2", len(got))
	}
	if !got[0].IsDir() || got[0].Path != "docs" {
		t.Errorf("first entry = %q (dir=%v), want docs dir", got[0].Path, got[0].IsDir())
	}
	if got[1].Checksum != "sha256:cafe" {
		t.Errorf("Checksum = %q, want sha256:cafe", got[1].Checksum)
	}

	rc, err := got[1].Open()
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "content here" {
		t.Errorf("content = %q", data)
	}
}

func TestZipDecodeRequiresSeekable(t *testing.T) {
	c, _ := ForName("zip")
	err := c.Decode(context.Background(), strings.NewReader("PK"), func(Entry) error { return nil })
	// strings.Reader is seekable but not a zip; a true stream is rejected
	// earlier. Either way decode must fail cleanly.
	if err == nil {
		t.Fatal("expected an error for a non-zip input")
	}
}

func TestSingleFileRoundTrip(t *testing.T) {
	for _, name := range []string{"gz", "xz", "zst"} {
		t.Run(name, func(t *testing.T) {
			c, _ := ForName(name)

			var buf bytes.Buffer
			err := c.Encode(context.Background(), &buf, []Entry{stringEntry("data.txt", "payload")}, EncodeOptions{})
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}

			var got Entry
			var content string
			err = c.Decode(context.Background(), bytes.NewReader(buf.Bytes()), func(e Entry) error {
				got = e
				rc, err := e.Open()
				if err != nil {
					return err
				}
				defer rc.Close()
				data, err := io.ReadAll(rc)
				content = string(data)
				return err
			})
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}

			if content != "payload" {
				t.Errorf("content = %q, want %q", content, "payload")
			}
			if name == "gz" && got.Path != "data.txt" {
				t.Errorf("gzip header name = %q, want data.txt", got.Path)
			}
		})
	}
}

func TestSingleFileRejectsMultiple(t *testing.T) {
	c, _ := ForName("gz")

	var buf bytes.Buffer
	err := c.Encode(context.Background(), &buf, []Entry{
		stringEntry("a.txt", "x"),
		stringEntry("b.txt", "y"),
	}, EncodeOptions{})
	if err == nil {
		t.Fatal("expected error for multi-file input")
	}

	err = c.Encode(context.Background(), &buf, []Entry{dirTestEntry("d")}, EncodeOptions{})
	if err == nil {
		t.Fatal("expected error for directory input")
	}
}

func TestGzipToleratesTrailingGarbage(t *testing.T) {
	c, _ := ForName("gz")

	var buf bytes.Buffer
	if err := c.Encode(context.Background(), &buf, []Entry{stringEntry("a.txt", "clean payload")}, EncodeOptions{}); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	buf.WriteString("trailing garbage that is not gzip")

	var content string
	err := c.Decode(context.Background(), bytes.NewReader(buf.Bytes()), func(e Entry) error {
		rc, err := e.Open()
		if err != nil {
			return err
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		content = string(data)
		return err
	})
	if err != nil {
		t.Fatalf("Decode with trailing garbage: %v", err)
	}
	if content != "clean payload" {
		t.Errorf("content = %q, want %q", content, "clean payload")
	}
}

// limitedWriter accepts the first n bytes and then fails every write, like
// a disk filling up mid-stream.
type limitedWriter struct {
	n int
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	if len(p) > w.n {
		n := w.n
		w.n = 0
		return n, errors.New("no space left on device")
	}
	w.n -= len(p)
	return len(p), nil
}

func TestEncodeReportsFlushFailure(t *testing.T) {
	for _, name := range []string{"tar.gz", "tar.xz", "tar.zst"} {
		t.Run(name, func(t *testing.T) {
			c, _ := ForName(name)
			entry := stringEntry("a.txt", strings.Repeat("data ", 100))

			err := c.Encode(context.Background(), &limitedWriter{n: 64}, []Entry{entry}, EncodeOptions{})
			if err == nil {
				t.Fatal("Encode returned nil even though flushing the compressed stream failed")
			}
		})
	}
}

func TestEncodeHonorsContext(t *testing.T) {
	c, _ := ForName("tar")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := c.Encode(ctx, &buf, []Entry{stringEntry("a.txt", "x")}, EncodeOptions{})
	if err == nil {
		t.Fatal("expected context error")
	}
}
