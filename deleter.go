package refptr

import (
	"io"

	"github.com/obinnaokechukwu/refptr/control"
)

// Deleter releases the pointee of a handle. It is called exactly once, by
// whichever goroutine drops the last strong reference.
type Deleter[T any] func(p *T)

// Destroyer is implemented by pointees that hold resources needing explicit
// release. DefaultDelete prefers it over io.Closer.
type Destroyer interface {
	Destroy()
}

// DefaultDelete is the scalar release policy. It calls Destroy or Close on
// the pointee if it implements either, then zeroes it so it no longer keeps
// other objects reachable.
func DefaultDelete[T any](p *T) {
	if p == nil {
		return
	}
	destroy(p)
	var zero T
	*p = zero
}

// DefaultDeleteSlice is the sequence release policy: each element is
// released as by DefaultDelete, then the slice is dropped.
func DefaultDeleteSlice[E any](p *[]E) {
	if p == nil {
		return
	}
	s := *p
	for i := range s {
		DefaultDelete(&s[i])
	}
	*p = nil
}

// destroy checks *T first, then T itself, so both Shared[File] and
// Shared[*os.File] style pointees are released.
func destroy[T any](p *T) {
	if releaseValue(p) {
		return
	}
	releaseValue(*p)
}

func releaseValue(v any) bool {
	switch d := v.(type) {
	case Destroyer:
		d.Destroy()
	case io.Closer:
		if err := d.Close(); err != nil {
			control.Logf(control.LogWarning, "refptr: closing %T: %v", v, err)
		}
	default:
		return false
	}
	return true
}
