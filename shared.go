package refptr

import (
	"fmt"

	"github.com/obinnaokechukwu/refptr/control"
)

// Shared is a strong, owning handle to a *T. Every Shared that shares a
// control block keeps the pointee alive; when the last one is reset, the
// block's Deleter runs.
//
// The zero value is an empty handle. A Shared must not be copied by value;
// use Clone, Move or Assign so the counts stay correct. Distinct handles may
// be used from different goroutines at once, even when they share a pointee,
// but a single handle is not safe for concurrent use.
type Shared[T any] struct {
	ptr  *T
	ctrl *control.Block
}

// NewShared takes ownership of p with DefaultDelete as its deletion policy.
// A nil p yields an empty handle.
func NewShared[T any](p *T) *Shared[T] {
	return NewSharedWithDeleter(p, DefaultDelete[T])
}

// NewSharedWithDeleter takes ownership of p; del runs once when the last
// strong handle lets go. A nil del means DefaultDelete. p must not already
// be owned by another control block.
func NewSharedWithDeleter[T any](p *T, del Deleter[T]) *Shared[T] {
	if p == nil {
		return &Shared[T]{}
	}
	return &Shared[T]{ptr: p, ctrl: newBlock(p, del)}
}

func newBlock[T any](p *T, del Deleter[T]) *control.Block {
	if del == nil {
		del = DefaultDelete[T]
	}
	return control.New(func() { del(p) })
}

// NewSharedSlice takes ownership of s with DefaultDeleteSlice as its
// deletion policy.
func NewSharedSlice[E any](s []E) *Shared[[]E] {
	return NewSharedWithDeleter(&s, DefaultDeleteSlice[E])
}

// Make allocates a T holding v and returns the only handle to it. The
// pointee is never reachable without an owner.
func Make[T any](v T) *Shared[T] {
	p := new(T)
	*p = v
	return NewShared(p)
}

// MakeSlice allocates a zeroed []E of length n owned by a new handle.
func MakeSlice[E any](n int) *Shared[[]E] {
	return NewSharedSlice(make([]E, n))
}

// Alias returns a handle that shares owner's control block but points at p,
// typically a field of owner's pointee or a view of it under another type.
// The block's original deletion policy still governs cleanup. If owner is
// empty or p is nil, the result is empty.
func Alias[T, U any](owner *Shared[T], p *U) *Shared[U] {
	if owner == nil || owner.ctrl == nil || p == nil {
		return &Shared[U]{}
	}
	owner.ctrl.AddStrong()
	return &Shared[U]{ptr: p, ctrl: owner.ctrl}
}

// FromWeak returns a new strong handle to w's pointee, or ErrExpired if it
// has already been released. Unlike Lock it distinguishes "expired" with an
// error.
func FromWeak[T any](w *Weak[T]) (*Shared[T], error) {
	if w == nil || w.ctrl == nil || !w.ctrl.TryAddStrong() {
		return nil, ErrExpired
	}
	return &Shared[T]{ptr: w.ptr, ctrl: w.ctrl}, nil
}

// Clone returns another strong handle to the same pointee.
func (p *Shared[T]) Clone() *Shared[T] {
	if p == nil || p.ctrl == nil {
		return &Shared[T]{}
	}
	p.ctrl.AddStrong()
	return &Shared[T]{ptr: p.ptr, ctrl: p.ctrl}
}

// Move transfers ownership to a new handle and leaves p empty. Counts are
// not touched.
func (p *Shared[T]) Move() *Shared[T] {
	if p == nil {
		return &Shared[T]{}
	}
	out := &Shared[T]{ptr: p.ptr, ctrl: p.ctrl}
	p.ptr, p.ctrl = nil, nil
	return out
}

// Assign makes p share src's pointee, releasing whatever p held before.
// Assigning a handle to itself, or to a co-owner, is safe.
func (p *Shared[T]) Assign(src *Shared[T]) {
	if p == src {
		return
	}
	var ptr *T
	var ctrl *control.Block
	if src != nil && src.ctrl != nil {
		// Take the new reference before dropping the old one so a co-owned
		// pointee never passes through zero.
		src.ctrl.AddStrong()
		ptr, ctrl = src.ptr, src.ctrl
	}
	p.Reset()
	p.ptr, p.ctrl = ptr, ctrl
}

// AssignMove releases what p held and takes over src's ownership, leaving
// src empty.
func (p *Shared[T]) AssignMove(src *Shared[T]) {
	if p == src {
		return
	}
	var ptr *T
	var ctrl *control.Block
	if src != nil {
		ptr, ctrl = src.ptr, src.ctrl
		src.ptr, src.ctrl = nil, nil
	}
	p.Reset()
	p.ptr, p.ctrl = ptr, ctrl
}

// Reset drops p's strong reference and leaves p empty. If it was the last
// one, the pointee's Deleter runs before Reset returns.
func (p *Shared[T]) Reset() {
	if p == nil || p.ctrl == nil {
		return
	}
	ctrl := p.ctrl
	p.ptr, p.ctrl = nil, nil
	ctrl.RemoveStrong()
}

// ResetTo releases p's current pointee, then takes ownership of ptr under a
// fresh control block. An optional Deleter replaces DefaultDelete.
func (p *Shared[T]) ResetTo(ptr *T, del ...Deleter[T]) {
	p.Reset()
	if ptr == nil {
		return
	}
	var d Deleter[T]
	if len(del) > 0 {
		d = del[0]
	}
	p.ptr, p.ctrl = ptr, newBlock(ptr, d)
}

// Swap exchanges the contents of p and o without touching counts. It does
// nothing if either handle is nil.
func (p *Shared[T]) Swap(o *Shared[T]) {
	if p == nil || o == nil {
		return
	}
	p.ptr, o.ptr = o.ptr, p.ptr
	p.ctrl, o.ctrl = o.ctrl, p.ctrl
}

// Get returns the pointee, or nil for an empty handle. The pointer is only
// valid while some strong handle is alive.
func (p *Shared[T]) Get() *T {
	if p == nil {
		return nil
	}
	return p.ptr
}

// Deref returns the pointee and panics with ErrEmpty if p is empty.
func (p *Shared[T]) Deref() *T {
	if p == nil || p.ptr == nil {
		panic(ErrEmpty)
	}
	return p.ptr
}

// Valid reports whether p holds a pointee.
func (p *Shared[T]) Valid() bool {
	return p != nil && p.ptr != nil
}

// UseCount returns the number of strong handles sharing p's pointee, or 0
// for an empty handle. Other goroutines may change it at any time.
func (p *Shared[T]) UseCount() int {
	if p == nil || p.ctrl == nil {
		return 0
	}
	return p.ctrl.StrongCount()
}

// WeakCount returns the number of weak handles observing p's pointee.
func (p *Shared[T]) WeakCount() int {
	if p == nil || p.ctrl == nil {
		return 0
	}
	return p.ctrl.WeakCount()
}

// SameOwner reports whether p and o share a control block. Aliases of one
// owner compare equal even when they point at different objects.
func (p *Shared[T]) SameOwner(o *Shared[T]) bool {
	return p.block() != nil && p.block() == o.block()
}

// BlockID returns the tracking id of p's control block, or 0 if p is empty
// or the block was created while tracking was off.
func (p *Shared[T]) BlockID() uintptr {
	if b := p.block(); b != nil {
		return b.ID()
	}
	return 0
}

func (p *Shared[T]) block() *control.Block {
	if p == nil {
		return nil
	}
	return p.ctrl
}

func (p *Shared[T]) String() string {
	if !p.Valid() {
		return "refptr.Shared(empty)"
	}
	return fmt.Sprintf("refptr.Shared(%p, use=%d)", p.ptr, p.UseCount())
}

// At returns a pointer to element i of a slice pointee. It panics if p is
// empty or i is out of range.
func At[E any](p *Shared[[]E], i int) *E {
	s := *p.Deref()
	return &s[i]
}
