//go:build !ios && !android && (amd64 || arm64)

// Package arena is a linear (bump) allocator over one C heap region.
//
// Allocate hands out consecutive slices of the region; Deallocate is a
// no-op. The region is returned to the C heap when the last Arena copy and
// the last value made with MakeShared have all been released, which is
// tracked with a refptr.Shared over the region itself.
package arena

import (
	"errors"
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/docker/go-units"
	"github.com/obinnaokechukwu/refptr"
	"github.com/obinnaokechukwu/refptr/cmem"
)

// Alignment of every allocation.
const Alignment = 16

// Common errors
var (
	// ErrExhausted indicates the region has no room for the request.
	ErrExhausted = errors.New("refptr: arena exhausted")

	// ErrReleased indicates the Arena handle has been released.
	ErrReleased = errors.New("refptr: arena released")
)

// Allocator is the storage contract consumed by containers: Allocate
// returns n bytes, Deallocate gives them back. Deallocate may be a no-op.
type Allocator interface {
	Allocate(n uintptr) (unsafe.Pointer, error)
	Deallocate(p unsafe.Pointer, n uintptr)
}

type region struct {
	base   unsafe.Pointer
	size   uintptr
	used   atomic.Uintptr
	allocs atomic.Int64
}

// Arena is one handle to a shared region. Copies made with Clone share the
// region and compare Equal. Allocate is safe for concurrent use; Clone and
// Release on a single Arena are not.
type Arena struct {
	r *refptr.Shared[region]
}

var _ Allocator = (*Arena)(nil)

// New reserves size bytes from the C heap.
func New(size uintptr) (*Arena, error) {
	if size == 0 {
		return nil, fmt.Errorf("refptr: arena size must be positive")
	}
	base, err := cmem.Malloc(size)
	if err != nil {
		return nil, fmt.Errorf("allocating arena region: %w", err)
	}
	reg := &region{base: base, size: size}
	sp := refptr.NewSharedWithDeleter(reg, func(r *region) {
		cmem.Free(r.base)
		r.base = nil
	})
	return &Arena{r: sp}, nil
}

// Clone returns another handle to the same region.
func (a *Arena) Clone() *Arena {
	return &Arena{r: a.r.Clone()}
}

// Release drops this handle. The region is freed once nothing else holds it.
func (a *Arena) Release() {
	a.r.Reset()
}

// Equal reports whether a and b allocate from the same region.
func (a *Arena) Equal(b *Arena) bool {
	return a.r.SameOwner(b.r)
}

// Allocate returns n bytes aligned to Alignment.
func (a *Arena) Allocate(n uintptr) (unsafe.Pointer, error) {
	reg := a.r.Get()
	if reg == nil {
		return nil, ErrReleased
	}
	if n > reg.size {
		return nil, fmt.Errorf("%w: need %d bytes, region is %d", ErrExhausted, n, reg.size)
	}
	need := (n + Alignment - 1) &^ (Alignment - 1)
	for {
		used := reg.used.Load()
		if need > reg.size-used {
			return nil, fmt.Errorf("%w: need %d bytes, %d free", ErrExhausted, need, reg.size-used)
		}
		if reg.used.CompareAndSwap(used, used+need) {
			reg.allocs.Add(1)
			return unsafe.Add(reg.base, used), nil
		}
	}
}

// Deallocate does nothing: a bump arena only reclaims memory as a whole.
func (a *Arena) Deallocate(p unsafe.Pointer, n uintptr) {}

// Stats describes how much of the region is in use.
type Stats struct {
	Size        uintptr
	Used        uintptr
	Allocations int64
}

func (s Stats) String() string {
	return fmt.Sprintf("%s of %s used, %d allocations",
		units.BytesSize(float64(s.Used)), units.BytesSize(float64(s.Size)), s.Allocations)
}

// Stats returns a snapshot of the region usage, or zero Stats once released.
func (a *Arena) Stats() Stats {
	reg := a.r.Get()
	if reg == nil {
		return Stats{}
	}
	return Stats{
		Size:        reg.size,
		Used:        reg.used.Load(),
		Allocations: reg.allocs.Load(),
	}
}

// Alloc places a zeroed T in the arena. T must not contain Go pointers.
func Alloc[T any](a Allocator) (*T, error) {
	if err := cmem.CheckType[T](); err != nil {
		return nil, err
	}
	var zero T
	p, err := a.Allocate(unsafe.Sizeof(zero))
	if err != nil {
		return nil, err
	}
	clear(unsafe.Slice((*byte)(p), unsafe.Sizeof(zero)))
	return (*T)(p), nil
}

// AllocSlice places a zeroed []E of length n in the arena.
func AllocSlice[E any](a Allocator, n int) ([]E, error) {
	if err := cmem.CheckType[E](); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}
	var zero E
	elem := unsafe.Sizeof(zero)
	if elem != 0 && uintptr(n) > ^uintptr(0)/elem {
		return nil, fmt.Errorf("%w: %d elements of %d bytes", ErrExhausted, n, elem)
	}
	size := elem * uintptr(n)
	p, err := a.Allocate(size)
	if err != nil {
		return nil, err
	}
	clear(unsafe.Slice((*byte)(p), size))
	return unsafe.Slice((*E)(p), n), nil
}

// MakeShared copies v into the arena and returns the only handle to it.
// The handle keeps the region alive: the arena's memory is not returned to
// the C heap until the value's deletion policy has run, even if every Arena
// handle was released first.
func MakeShared[T any](a *Arena, v T) (*refptr.Shared[T], error) {
	p, err := Alloc[T](a)
	if err != nil {
		return nil, err
	}
	*p = v
	keep := a.Clone()
	size := unsafe.Sizeof(v)
	return refptr.NewSharedWithDeleter(p, func(p *T) {
		keep.Deallocate(unsafe.Pointer(p), size)
		keep.Release()
	}), nil
}
