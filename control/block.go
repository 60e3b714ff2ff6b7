// Package control implements the shared bookkeeping behind refptr handles:
// a pair of atomic reference counts and the type-erased release function for
// one pointee.
//
// A Block moves through three states and never back:
//
//	ALIVE     strong > 0               pointee usable
//	CONDEMNED strong == 0, weak > 0    pointee released, block still observed
//	FREED     strong == 0, weak == 0   block released
//
// The caller whose decrement observes a transition performs its side effect,
// so the release function runs exactly once and the block is freed exactly
// once, after the release function has returned.
//
// Most users want the handle types in package refptr rather than Block.
package control

import (
	"sync/atomic"

	"github.com/obinnaokechukwu/refptr/internal/handles"
)

// Block holds the strong and weak counts for one pointee.
//
// All methods are safe for concurrent use. No lock is taken; every counter
// update is a single atomic read-modify-write or a compare-and-swap loop.
type Block struct {
	strong atomic.Uint64

	// weak counts observers plus one unit held collectively by the strong
	// references while strong > 0. That unit is dropped by whoever takes
	// strong to zero, after release has run.
	weak atomic.Uint64

	release func()
	id      uintptr
}

// InvariantError is the panic value for misuse of a Block, such as
// decrementing a count that is already zero.
type InvariantError struct {
	Op  string
	Msg string
}

func (e *InvariantError) Error() string {
	return "refptr: " + e.Op + ": " + e.Msg
}

func violate(op, msg string) {
	err := &InvariantError{Op: op, Msg: msg}
	logf(LogPanic, "%s", err.Error())
	panic(err)
}

// New returns a block with a strong count of one and no observers.
// release is invoked once, when the strong count reaches zero; it may be nil.
func New(release func()) *Block {
	b := &Block{release: release}
	b.strong.Store(1)
	b.weak.Store(1)
	if tracking.Load() {
		b.id = handles.Register(b)
	}
	blocksCreated.Add(1)
	logf(LogDebug, "refptr: block %p created", b)
	return b
}

// tryIncrement adds one to c unless c is zero. It is the only way a count
// may grow once other goroutines can see the block.
func tryIncrement(c *atomic.Uint64) bool {
	for {
		cur := c.Load()
		if cur == 0 {
			return false
		}
		if c.CompareAndSwap(cur, cur+1) {
			return true
		}
	}
}

// decrement subtracts one from c and returns the new value. It panics
// instead of wrapping when c is already zero.
func decrement(c *atomic.Uint64, op string) uint64 {
	for {
		cur := c.Load()
		if cur == 0 {
			violate(op, "count is already zero")
		}
		if c.CompareAndSwap(cur, cur-1) {
			return cur - 1
		}
	}
}

// AddStrong adds a strong reference. The caller must already hold one.
func (b *Block) AddStrong() {
	if !tryIncrement(&b.strong) {
		violate("AddStrong", "strong count is zero, pointee already released")
	}
	logf(LogTrace, "refptr: block %p strong+1", b)
}

// TryAddStrong adds a strong reference only if the pointee is still alive.
// It reports whether the reference was taken. Holding just a weak reference
// is enough to call it.
func (b *Block) TryAddStrong() bool {
	ok := tryIncrement(&b.strong)
	if ok {
		logf(LogTrace, "refptr: block %p strong+1 (try)", b)
	}
	return ok
}

// RemoveStrong drops a strong reference. It reports whether this call took
// the count to zero, in which case it has already run the release function
// and, if no observers remain, freed the block.
func (b *Block) RemoveStrong() bool {
	if decrement(&b.strong, "RemoveStrong") != 0 {
		return false
	}
	defer b.dropWeak("RemoveStrong")
	release := b.release
	b.release = nil
	logf(LogDebug, "refptr: block %p releasing pointee", b)
	if release != nil {
		release()
	}
	pointeesDestroyed.Add(1)
	return true
}

// AddWeak adds an observer. The caller must hold a strong or weak reference.
func (b *Block) AddWeak() {
	if !tryIncrement(&b.weak) {
		violate("AddWeak", "block already freed")
	}
	logf(LogTrace, "refptr: block %p weak+1", b)
}

// RemoveWeak drops an observer and reports whether that freed the block.
func (b *Block) RemoveWeak() bool {
	for {
		cur := b.weak.Load()
		// A single remaining unit while strong > 0 belongs to the strong
		// owners, not to an observer.
		if cur == 0 || (cur == 1 && b.strong.Load() > 0) {
			violate("RemoveWeak", "no weak reference to remove")
		}
		if b.weak.CompareAndSwap(cur, cur-1) {
			if cur == 1 {
				b.free()
				return true
			}
			return false
		}
	}
}

func (b *Block) dropWeak(op string) {
	if decrement(&b.weak, op) == 0 {
		b.free()
	}
}

func (b *Block) free() {
	if b.id != 0 {
		handles.Unregister(b.id)
	}
	blocksFreed.Add(1)
	logf(LogDebug, "refptr: block %p freed", b)
}

// IsZero reports whether the strong count is zero: the pointee has been
// released or is being released.
func (b *Block) IsZero() bool {
	return b.strong.Load() == 0
}

// IsZeroWeak reports whether both counts are zero: the block has been freed.
func (b *Block) IsZeroWeak() bool {
	return b.strong.Load() == 0 && b.weak.Load() == 0
}

// StrongCount returns a snapshot of the strong count.
func (b *Block) StrongCount() int {
	return int(b.strong.Load())
}

// WeakCount returns a snapshot of the number of observers. Under concurrent
// release it may be off by one for a moment.
func (b *Block) WeakCount() int {
	w := b.weak.Load()
	if w > 0 && b.strong.Load() > 0 {
		w--
	}
	return int(w)
}

// ID returns the tracking id, or 0 if the block was created while tracking
// was off.
func (b *Block) ID() uintptr {
	return b.id
}
