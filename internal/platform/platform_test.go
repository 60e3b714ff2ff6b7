//go:build !ios && !android && (amd64 || arm64)

package platform

import (
	"runtime"
	"strings"
	"testing"
)

func TestIs64Bit(t *testing.T) {
	if !Is64Bit {
		t.Error("Platform should be 64-bit")
	}
}

func TestLibraryExtension(t *testing.T) {
	switch runtime.GOOS {
	case "darwin":
		if LibraryExtension != ".dylib" {
			t.Errorf("expected .dylib, got %s", LibraryExtension)
		}
	case "windows":
		if LibraryExtension != ".dll" {
			t.Errorf("expected .dll, got %s", LibraryExtension)
		}
	default:
		if LibraryExtension != ".so" {
			t.Errorf("expected .so, got %s", LibraryExtension)
		}
	}
}

func TestFormatLibraryName(t *testing.T) {
	got := FormatLibraryName("c", 6)
	switch runtime.GOOS {
	case "darwin":
		if got != "libc.6.dylib" {
			t.Errorf("got %s", got)
		}
	case "windows":
		if got != "c-6.dll" {
			t.Errorf("got %s", got)
		}
	default:
		if got != "libc.so.6" {
			t.Errorf("got %s", got)
		}
	}

	if unversioned := FormatLibraryName("c", 0); !strings.HasSuffix(unversioned, LibraryExtension) {
		t.Errorf("unversioned name %s lacks extension %s", unversioned, LibraryExtension)
	}
	if got, want := FormatLibraryName("c", -1), FormatLibraryName("c", 0); got != want {
		t.Errorf("negative version: got %s want %s", got, want)
	}
}

func TestLibraryNaming(t *testing.T) {
	cases := []struct {
		goos, prefix, ext string
	}{
		{"linux", "lib", ".so"},
		{"freebsd", "lib", ".so"},
		{"darwin", "lib", ".dylib"},
		{"windows", "", ".dll"},
	}
	for _, tc := range cases {
		prefix, ext := libraryNaming(tc.goos)
		if prefix != tc.prefix || ext != tc.ext {
			t.Errorf("%s: got (%q, %q) want (%q, %q)", tc.goos, prefix, ext, tc.prefix, tc.ext)
		}
	}
}

func TestLibcCandidates(t *testing.T) {
	c := LibcCandidates()
	if len(c) == 0 {
		t.Fatal("LibcCandidates returned nothing")
	}
	if runtime.GOOS == "linux" && c[0] != "libc.so.6" {
		t.Errorf("first linux candidate: got %s want libc.so.6", c[0])
	}
}
