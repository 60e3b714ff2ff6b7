//go:build !ios && !android && (amd64 || arm64)

// Package cmem allocates values on the C heap through purego and hands them
// out under refptr handles whose deletion policy returns the memory with
// free.
//
// C memory is invisible to the garbage collector, so only pointer-free types
// may live there; New, NewSlice and the MakeShared helpers reject anything
// else with ErrPointerType.
package cmem

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/docker/go-units"
	"github.com/obinnaokechukwu/refptr/internal/bindings"
)

// Common errors
var (
	// ErrOutOfMemory indicates the C allocator returned NULL.
	ErrOutOfMemory = errors.New("refptr: out of memory")

	// ErrNotLoaded indicates the C runtime could not be loaded.
	ErrNotLoaded = bindings.ErrNotLoaded

	// ErrLimitExceeded indicates an allocation would exceed SetMemoryLimit.
	ErrLimitExceeded = errors.New("refptr: C heap memory limit exceeded")

	// ErrPointerType indicates a type containing Go pointers was requested.
	ErrPointerType = errors.New("refptr: type contains Go pointers")
)

// headerSize precedes every block so Free knows how many bytes it returns.
// 16 keeps the payload aligned for any scalar type.
const headerSize = 16

var (
	limitBytes  atomic.Int64
	usedBytes   atomic.Int64
	allocations atomic.Int64
	limitMu     sync.Mutex
)

// Init loads the C runtime. It is called by every allocating function and
// can be called explicitly to check for errors. Safe to call multiple times.
func Init() error {
	if err := bindings.Load(); err != nil {
		return fmt.Errorf("%w: %v", ErrNotLoaded, err)
	}
	return nil
}

// Usage reports outstanding C heap allocations made through this package.
type Usage struct {
	Allocations int
	Bytes       int64
}

func (u Usage) String() string {
	return fmt.Sprintf("%d allocations, %s", u.Allocations, units.BytesSize(float64(u.Bytes)))
}

// MemoryUsage returns the current outstanding allocations.
func MemoryUsage() Usage {
	return Usage{
		Allocations: int(allocations.Load()),
		Bytes:       usedBytes.Load(),
	}
}

// SetMemoryLimit sets a best-effort cap on outstanding bytes.
// A limit <= 0 disables enforcement.
func SetMemoryLimit(bytes int64) {
	limitBytes.Store(bytes)
}

// Malloc allocates n uninitialised bytes.
func Malloc(n uintptr) (unsafe.Pointer, error) {
	return alloc(n, false)
}

// Calloc allocates n*size zeroed bytes.
func Calloc(n, size uintptr) (unsafe.Pointer, error) {
	if size != 0 && n > maxAlloc/size {
		return nil, ErrOutOfMemory
	}
	return alloc(n*size, true)
}

// maxAlloc is the largest request whose size, header included, still fits
// the signed usage counters.
const maxAlloc = math.MaxInt64 - headerSize

func alloc(n uintptr, zero bool) (unsafe.Pointer, error) {
	if n > maxAlloc {
		return nil, ErrOutOfMemory
	}
	if err := Init(); err != nil {
		return nil, err
	}
	if err := reserve(int64(n)); err != nil {
		return nil, err
	}

	var raw unsafe.Pointer
	if zero {
		raw = bindings.Calloc(1, n+headerSize)
	} else {
		raw = bindings.Malloc(n + headerSize)
	}
	if raw == nil {
		unreserve(int64(n))
		return nil, ErrOutOfMemory
	}
	*(*uintptr)(raw) = n
	allocations.Add(1)
	return unsafe.Add(raw, headerSize), nil
}

func reserve(n int64) error {
	limitMu.Lock()
	defer limitMu.Unlock()
	if lim := limitBytes.Load(); lim > 0 && usedBytes.Load()+n > lim {
		return ErrLimitExceeded
	}
	usedBytes.Add(n)
	return nil
}

func unreserve(n int64) {
	usedBytes.Add(-n)
}

// Free releases memory returned by Malloc, Calloc, New or NewSlice.
// Safe to call with nil.
func Free(p unsafe.Pointer) {
	if p == nil {
		return
	}
	raw := unsafe.Add(p, -headerSize)
	n := *(*uintptr)(raw)
	bindings.Free(raw)
	unreserve(int64(n))
	allocations.Add(-1)
}

// New allocates a zeroed T on the C heap. T must not contain Go pointers.
func New[T any]() (*T, error) {
	var zero T
	if err := CheckType[T](); err != nil {
		return nil, err
	}
	p, err := Calloc(1, unsafe.Sizeof(zero))
	if err != nil {
		return nil, err
	}
	return (*T)(p), nil
}

// NewSlice allocates a zeroed []E of length n on the C heap. A zero length
// returns a nil slice without allocating.
func NewSlice[E any](n int) ([]E, error) {
	var zero E
	if err := CheckType[E](); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("refptr: negative slice length %d", n)
	}
	if n == 0 {
		return nil, nil
	}
	p, err := Calloc(uintptr(n), unsafe.Sizeof(zero))
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*E)(p), n), nil
}

// FreeSlice releases a slice returned by NewSlice.
func FreeSlice[E any](s []E) {
	if cap(s) == 0 {
		return
	}
	Free(unsafe.Pointer(unsafe.SliceData(s)))
}

// CheckType returns ErrPointerType if T contains Go pointers and so cannot
// be stored outside the Go heap.
func CheckType[T any]() error {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if hasPointers(t) {
		return fmt.Errorf("%w: %s", ErrPointerType, t)
	}
	return nil
}

func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return t.Len() > 0 && hasPointers(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return true
	}
}
