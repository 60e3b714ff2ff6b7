package refptr

import (
	"fmt"

	"github.com/obinnaokechukwu/refptr/control"
)

// Weak observes a pointee owned by Shared handles without keeping it alive.
// It keeps the control block alive, so Expired and Lock stay answerable after
// the pointee is gone.
//
// The zero value is an empty handle. Like Shared, a Weak must not be copied
// by value and a single Weak is not safe for concurrent use.
type Weak[T any] struct {
	// ptr is never dereferenced through a Weak; it is handed to the Shared
	// that Lock returns.
	ptr  *T
	ctrl *control.Block
}

// NewWeak returns a weak handle observing sp's pointee. An empty sp yields
// an empty Weak.
func NewWeak[T any](sp *Shared[T]) *Weak[T] {
	if sp == nil || sp.ctrl == nil {
		return &Weak[T]{}
	}
	sp.ctrl.AddWeak()
	return &Weak[T]{ptr: sp.ptr, ctrl: sp.ctrl}
}

// Clone returns another weak handle observing the same pointee.
func (w *Weak[T]) Clone() *Weak[T] {
	if w == nil || w.ctrl == nil {
		return &Weak[T]{}
	}
	w.ctrl.AddWeak()
	return &Weak[T]{ptr: w.ptr, ctrl: w.ctrl}
}

// Move transfers the observation to a new handle and leaves w empty.
func (w *Weak[T]) Move() *Weak[T] {
	if w == nil {
		return &Weak[T]{}
	}
	out := &Weak[T]{ptr: w.ptr, ctrl: w.ctrl}
	w.ptr, w.ctrl = nil, nil
	return out
}

// Assign makes w observe what src observes.
func (w *Weak[T]) Assign(src *Weak[T]) {
	if w == src {
		return
	}
	var ptr *T
	var ctrl *control.Block
	if src != nil && src.ctrl != nil {
		src.ctrl.AddWeak()
		ptr, ctrl = src.ptr, src.ctrl
	}
	w.Reset()
	w.ptr, w.ctrl = ptr, ctrl
}

// AssignShared makes w observe sp's pointee.
func (w *Weak[T]) AssignShared(sp *Shared[T]) {
	var ptr *T
	var ctrl *control.Block
	if sp != nil && sp.ctrl != nil {
		sp.ctrl.AddWeak()
		ptr, ctrl = sp.ptr, sp.ctrl
	}
	w.Reset()
	w.ptr, w.ctrl = ptr, ctrl
}

// AssignMove takes over src's observation, leaving src empty.
func (w *Weak[T]) AssignMove(src *Weak[T]) {
	if w == src {
		return
	}
	var ptr *T
	var ctrl *control.Block
	if src != nil {
		ptr, ctrl = src.ptr, src.ctrl
		src.ptr, src.ctrl = nil, nil
	}
	w.Reset()
	w.ptr, w.ctrl = ptr, ctrl
}

// Reset stops observing and leaves w empty. If w was the last reference of
// any kind, the control block is freed.
func (w *Weak[T]) Reset() {
	if w == nil || w.ctrl == nil {
		return
	}
	ctrl := w.ctrl
	w.ptr, w.ctrl = nil, nil
	ctrl.RemoveWeak()
}

// Swap exchanges the contents of w and o. It does nothing if either is nil.
func (w *Weak[T]) Swap(o *Weak[T]) {
	if w == nil || o == nil {
		return
	}
	w.ptr, o.ptr = o.ptr, w.ptr
	w.ctrl, o.ctrl = o.ctrl, w.ctrl
}

// Expired reports whether the pointee has been released, or w is empty.
// Once true it stays true.
func (w *Weak[T]) Expired() bool {
	return w == nil || w.ctrl == nil || w.ctrl.IsZero()
}

// Lock returns a strong handle to the pointee, or an empty handle if it has
// already been released. The liveness check and the increment are a single
// compare-and-swap, so a pointee that is being released is never revived.
func (w *Weak[T]) Lock() *Shared[T] {
	if w == nil || w.ctrl == nil || !w.ctrl.TryAddStrong() {
		return &Shared[T]{}
	}
	return &Shared[T]{ptr: w.ptr, ctrl: w.ctrl}
}

// UseCount returns the number of strong handles keeping the pointee alive.
func (w *Weak[T]) UseCount() int {
	if w == nil || w.ctrl == nil {
		return 0
	}
	return w.ctrl.StrongCount()
}

// SameOwner reports whether w observes the pointee owned by sp.
func (w *Weak[T]) SameOwner(sp *Shared[T]) bool {
	return w != nil && w.ctrl != nil && w.ctrl == sp.block()
}

func (w *Weak[T]) String() string {
	if w == nil || w.ctrl == nil {
		return "refptr.Weak(empty)"
	}
	if w.Expired() {
		return "refptr.Weak(expired)"
	}
	return fmt.Sprintf("refptr.Weak(%p, use=%d)", w.ptr, w.UseCount())
}
