//go:build !ios && !android && (amd64 || arm64)

package cmem

import (
	"unsafe"

	"github.com/obinnaokechukwu/refptr"
)

// Deleter returns the scalar release policy for a *T obtained from New.
func Deleter[T any]() refptr.Deleter[T] {
	return func(p *T) {
		Free(unsafe.Pointer(p))
	}
}

// SliceDeleter returns the sequence release policy for a []E obtained from
// NewSlice.
func SliceDeleter[E any]() refptr.Deleter[[]E] {
	return func(p *[]E) {
		FreeSlice(*p)
		*p = nil
	}
}

// MakeShared copies v into a new C heap allocation owned by the returned
// handle. On failure no memory and no control block are left behind.
func MakeShared[T any](v T) (*refptr.Shared[T], error) {
	p, err := New[T]()
	if err != nil {
		return nil, err
	}
	*p = v
	return refptr.NewSharedWithDeleter(p, Deleter[T]()), nil
}

// MakeSharedSlice allocates a zeroed C heap array of n elements owned by the
// returned handle. Elements are reached with refptr.At.
func MakeSharedSlice[E any](n int) (*refptr.Shared[[]E], error) {
	s, err := NewSlice[E](n)
	if err != nil {
		return nil, err
	}
	return refptr.NewSharedWithDeleter(&s, SliceDeleter[E]()), nil
}
