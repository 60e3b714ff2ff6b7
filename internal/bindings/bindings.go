//go:build !ios && !android && (amd64 || arm64)

// Package bindings loads the C runtime with purego and exposes the raw
// allocation functions used by package cmem.
package bindings

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/obinnaokechukwu/refptr/internal/platform"
)

// LibcEnv names the environment variable that overrides the C runtime path.
const LibcEnv = "REFPTR_LIBC"

// ErrNotLoaded is returned when C heap functions are used before Load.
var ErrNotLoaded = errors.New("refptr: C runtime not loaded")

// ErrLibraryNotFound is returned when no C runtime library can be opened.
var ErrLibraryNotFound = errors.New("refptr: C runtime library not found")

var (
	libc     uintptr
	libcPath string

	loaded   bool
	loadOnce sync.Once
	loadErr  error
)

// Function bindings
var (
	cMalloc func(size uintptr) unsafe.Pointer
	cCalloc func(n, size uintptr) unsafe.Pointer
	cFree   func(ptr unsafe.Pointer)
)

// IsLoaded returns true if the C runtime has been loaded.
func IsLoaded() bool {
	return loaded
}

// Load opens the C runtime and registers the allocation functions.
// It is safe to call multiple times; subsequent calls return the first result.
func Load() error {
	loadOnce.Do(func() {
		loadErr = doLoad()
		if loadErr == nil {
			loaded = true
		}
	})
	return loadErr
}

func doLoad() error {
	if !platform.Is64Bit {
		return fmt.Errorf("%w: 64-bit platform required", ErrLibraryNotFound)
	}

	candidates := platform.LibcCandidates()
	if p := os.Getenv(LibcEnv); p != "" {
		candidates = append([]string{p}, candidates...)
	}

	var lastErr error
	for _, name := range candidates {
		lib, err := tryOpen(name)
		if err != nil {
			lastErr = err
			continue
		}
		libc, libcPath = lib, name
		break
	}
	if libc == 0 {
		return fmt.Errorf("%w: %v", ErrLibraryNotFound, lastErr)
	}

	purego.RegisterLibFunc(&cMalloc, libc, "malloc")
	purego.RegisterLibFunc(&cCalloc, libc, "calloc")
	purego.RegisterLibFunc(&cFree, libc, "free")
	return nil
}

func tryOpen(path string) (uintptr, error) {
	lib, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return 0, err
	}
	return lib, nil
}

// LibcPath returns the name the C runtime was loaded from, or "".
func LibcPath() string {
	if !loaded {
		return ""
	}
	return libcPath
}

// Malloc calls the C malloc. It returns nil if the runtime is not loaded.
func Malloc(size uintptr) unsafe.Pointer {
	if cMalloc == nil {
		return nil
	}
	return cMalloc(size)
}

// Calloc calls the C calloc. It returns nil if the runtime is not loaded.
func Calloc(n, size uintptr) unsafe.Pointer {
	if cCalloc == nil {
		return nil
	}
	return cCalloc(n, size)
}

// Free calls the C free. Safe to call with nil.
func Free(ptr unsafe.Pointer) {
	if ptr == nil || cFree == nil {
		return
	}
	cFree(ptr)
}
