//go:build !ios && !android && (amd64 || arm64)

// Package platform knows how shared libraries are named on each supported
// operating system.
package platform

import (
	"fmt"
	"runtime"
	"unsafe"
)

// Is64Bit indicates whether the platform is 64-bit. purego, and therefore
// the C heap support, only works on 64-bit platforms.
const Is64Bit = unsafe.Sizeof(uintptr(0)) == 8

// LibraryPrefix and LibraryExtension surround a shared library's base name
// on this platform.
var LibraryPrefix, LibraryExtension = libraryNaming(runtime.GOOS)

func libraryNaming(goos string) (prefix, ext string) {
	switch goos {
	case "darwin":
		return "lib", ".dylib"
	case "windows":
		return "", ".dll"
	default: // linux, freebsd
		return "lib", ".so"
	}
}

// FormatLibraryName builds a shared library filename from a base name and
// an optional ABI version (0 for none): libc.so.6, libSystem.B.dylib,
// ucrtbase.dll.
func FormatLibraryName(name string, version int) string {
	base := LibraryPrefix + name
	if version <= 0 {
		return base + LibraryExtension
	}
	switch runtime.GOOS {
	case "darwin":
		return fmt.Sprintf("%s.%d%s", base, version, LibraryExtension)
	case "windows":
		return fmt.Sprintf("%s-%d%s", base, version, LibraryExtension)
	default:
		return fmt.Sprintf("%s%s.%d", base, LibraryExtension, version)
	}
}

// LibcCandidates returns the C runtime library names to try, most specific
// first.
func LibcCandidates() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{
			"/usr/lib/" + FormatLibraryName("System.B", 0),
			FormatLibraryName("System.B", 0),
		}
	case "windows":
		return []string{
			FormatLibraryName("ucrtbase", 0),
			FormatLibraryName("msvcrt", 0),
		}
	case "freebsd":
		return []string{
			FormatLibraryName("c", 7),
			FormatLibraryName("c", 0),
		}
	default:
		return []string{
			FormatLibraryName("c", 6),
			FormatLibraryName("c", 0),
		}
	}
}
