package refptr

import (
	"errors"
	"slices"
	"testing"
)

func TestWeakExpiresWithLastOwner(t *testing.T) {
	a := Make(42)
	w := NewWeak(a)
	defer w.Reset()

	if w.Expired() {
		t.Fatal("weak expired while owner alive")
	}
	if a.WeakCount() != 1 {
		t.Errorf("WeakCount: got %d want 1", a.WeakCount())
	}

	a.Reset()
	if !w.Expired() {
		t.Fatal("weak should expire after the last owner is reset")
	}
	l := w.Lock()
	if l.Valid() || l.UseCount() != 0 {
		t.Fatal("Lock on an expired weak should return an empty handle")
	}
	if w.UseCount() != 0 {
		t.Errorf("Lock on expired weak changed the count: %d", w.UseCount())
	}
	if !w.Expired() {
		t.Error("weak must stay expired")
	}
}

func TestWeakLockWhileCoOwned(t *testing.T) {
	a := Make(42)
	w := NewWeak(a)
	defer w.Reset()

	b := a.Clone()
	a.Reset()
	if w.Expired() {
		t.Fatal("weak expired while b still owns the pointee")
	}

	l := w.Lock()
	if !l.Valid() {
		t.Fatal("Lock failed on a live pointee")
	}
	// b and the locked handle.
	if l.UseCount() != 2 || b.UseCount() != 2 {
		t.Fatalf("UseCount after Lock: got %d want 2", l.UseCount())
	}
	if l.Get() != b.Get() || !l.SameOwner(b) {
		t.Error("Lock should alias the original pointee")
	}
	if *l.Deref() != 42 {
		t.Errorf("value: got %d want 42", *l.Get())
	}

	b.Reset()
	if w.Expired() {
		t.Fatal("locked handle should keep the pointee alive")
	}
	l.Reset()
	if !w.Expired() {
		t.Fatal("weak should expire after the locked handle is reset")
	}
}

func TestEmptyWeak(t *testing.T) {
	var w Weak[int]
	if !w.Expired() {
		t.Error("empty weak should be expired")
	}
	if w.Lock().Valid() {
		t.Error("Lock on empty weak should be empty")
	}
	w.Reset()

	fromEmpty := NewWeak(&Shared[int]{})
	if !fromEmpty.Expired() || fromEmpty.UseCount() != 0 {
		t.Error("NewWeak of an empty Shared should be empty")
	}
	var nilW *Weak[int]
	if !nilW.Expired() || nilW.Lock().Valid() {
		t.Error("nil *Weak should behave as empty")
	}
}

func TestFromWeak(t *testing.T) {
	a := Make("v")
	w := NewWeak(a)
	defer w.Reset()

	sp, err := FromWeak(w)
	if err != nil {
		t.Fatalf("FromWeak: %v", err)
	}
	if sp.UseCount() != 2 {
		t.Errorf("UseCount: got %d want 2", sp.UseCount())
	}
	sp.Reset()
	a.Reset()

	sp, err = FromWeak(w)
	if !errors.Is(err, ErrExpired) || sp != nil {
		t.Fatalf("FromWeak on expired: sp=%v err=%v", sp, err)
	}
	if w.UseCount() != 0 {
		t.Error("failed FromWeak must not revive the pointee")
	}
}

func TestWeakCopyMoveAssign(t *testing.T) {
	a := Make(1)
	w1 := NewWeak(a)
	w2 := w1.Clone()
	if a.WeakCount() != 2 {
		t.Fatalf("WeakCount after Clone: got %d want 2", a.WeakCount())
	}

	w3 := w2.Move()
	if !w2.Expired() || a.WeakCount() != 2 {
		t.Fatal("Move should empty the source without touching counts")
	}

	var w4 Weak[int]
	w4.Assign(w3)
	if a.WeakCount() != 3 || !w4.SameOwner(a) {
		t.Fatalf("Assign: WeakCount %d", a.WeakCount())
	}
	w4.Assign(&w4)
	if a.WeakCount() != 3 {
		t.Fatal("self Assign changed counts")
	}

	var w5 Weak[int]
	w5.AssignMove(&w4)
	if !w4.Expired() || a.WeakCount() != 3 {
		t.Fatal("AssignMove should transfer the observation")
	}

	b := Make(2)
	w5.AssignShared(b)
	if a.WeakCount() != 2 || b.WeakCount() != 1 {
		t.Fatalf("AssignShared: a=%d b=%d", a.WeakCount(), b.WeakCount())
	}

	w1.Swap(&w5)
	if !w1.SameOwner(b) || !w5.SameOwner(a) {
		t.Error("Swap did not exchange observations")
	}
	w1.Swap(nil)
	if !w1.SameOwner(b) {
		t.Error("Swap with nil should leave the handle unchanged")
	}

	for _, w := range []*Weak[int]{w1, w2, w3, &w4, &w5} {
		w.Reset()
	}
	if a.WeakCount() != 0 || b.WeakCount() != 0 {
		t.Fatalf("WeakCount after resets: a=%d b=%d", a.WeakCount(), b.WeakCount())
	}
	a.Reset()
	b.Reset()
}

func TestWeakOutlivesOwnerThenFreesBlock(t *testing.T) {
	SetTracking(true)
	defer SetTracking(false)

	before := LiveBlocks()
	var d countingDeleter[int]
	x := 3
	a := NewSharedWithDeleter(&x, d.delete)
	w := NewWeak(a)

	a.Reset()
	if d.calls != 1 {
		t.Fatalf("deleter ran %d times", d.calls)
	}
	if LiveBlocks() != before+1 {
		t.Fatal("control block freed while a weak handle remains")
	}

	w.Reset()
	if LiveBlocks() != before {
		t.Fatalf("LiveBlocks: got %d want %d", LiveBlocks(), before)
	}
}

func TestLiveBlockIDs(t *testing.T) {
	SetTracking(true)
	defer SetTracking(false)

	a := Make(1)
	w := NewWeak(a)
	id := a.BlockID()
	if id == 0 {
		t.Fatal("tracked handle has no block id")
	}
	if !slices.Contains(LiveBlockIDs(), id) {
		t.Fatalf("id %d missing from LiveBlockIDs", id)
	}

	a.Reset()
	if a.BlockID() != 0 {
		t.Error("empty handle should report id 0")
	}
	if !slices.Contains(LiveBlockIDs(), id) {
		t.Fatal("block observed by a weak handle should still be listed")
	}
	w.Reset()
	if slices.Contains(LiveBlockIDs(), id) {
		t.Errorf("freed block %d still listed", id)
	}

	ids := LiveBlockIDs()
	if !slices.IsSorted(ids) {
		t.Errorf("LiveBlockIDs not in creation order: %v", ids)
	}
}

func TestWeakString(t *testing.T) {
	var empty Weak[int]
	if empty.String() != "refptr.Weak(empty)" {
		t.Errorf("String: %q", empty.String())
	}
	a := Make(1)
	w := NewWeak(a)
	defer w.Reset()
	a.Reset()
	if w.String() != "refptr.Weak(expired)" {
		t.Errorf("String: %q", w.String())
	}
}
