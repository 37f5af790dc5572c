package safety

import (
	"errors"
	"testing"
)

func TestCheckPath(t *testing.T) {
	for _, tc := range []struct {
		name          string
		path          string
		allowAbsolute bool
		want          error
	}{
		{name: "plain relative", path: "a/b/c.txt", want: nil},
		{name: "dot segment", path: "a/./b", want: nil},
		{name: "traversal prefix", path: "../../etc/passwd", want: ErrPathTraversal},
		{name: "traversal inside", path: "a/../../b", want: ErrPathTraversal},
		{name: "traversal suffix", path: "a/b/..", want: nil}, // resolves to a, stays inside
		{name: "bare dotdot", path: "..", want: ErrPathTraversal},
		{name: "backslash traversal", path: `..\..\etc\passwd`, want: ErrPathTraversal},
		{name: "mixed separators", path: `a\..\..\b`, want: ErrPathTraversal},
		{name: "absolute posix", path: "/etc/passwd", want: ErrAbsolutePath},
		{name: "absolute windows", path: `C:\Windows\system32`, want: ErrAbsolutePath},
		{name: "absolute windows forward", path: "c:/windows", want: ErrAbsolutePath},
		{name: "absolute allowed", path: "/etc/passwd", allowAbsolute: true, want: nil},
		{name: "absolute allowed traversal still rejected", path: "/a/../../b", allowAbsolute: true, want: ErrPathTraversal},
		{name: "dotdot in filename", path: "a/..b/c..txt", want: nil},
		{name: "empty", path: "", want: nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckPath(tc.path, tc.allowAbsolute)
			if !errors.Is(err, tc.want) {
				t.Errorf("CheckPath(%q, %v) = %v, want %v", tc.path, tc.allowAbsolute, err, tc.want)
			}
		})
	}
}

func TestCheckLinkTarget(t *testing.T) {
	for _, tc := range []struct {
		name   string
		path   string
		target string
		want   error
	}{
		{name: "sibling", path: "a/link", target: "file.txt", want: nil},
		{name: "parent within tree", path: "a/b/link", target: "../c.txt", want: nil},
		{name: "escape root", path: "a/link", target: "../../etc/passwd", want: ErrPathTraversal},
		{name: "top level escape", path: "link", target: "../outside", want: ErrPathTraversal},
		{name: "absolute", path: "a/link", target: "/etc/passwd", want: ErrAbsolutePath},
		{name: "windows absolute", path: "a/link", target: `C:\x`, want: ErrAbsolutePath},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckLinkTarget(tc.path, tc.target)
			if !errors.Is(err, tc.want) {
				t.Errorf("CheckLinkTarget(%q, %q) = %v, want %v", tc.path, tc.target, err, tc.want)
			}
		})
	}
}
