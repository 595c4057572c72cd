package spin

import (
	"fmt"
	"runtime"
	"sync/atomic"
)

// spinsBeforeYield is how many failed acquire attempts a waiter makes before
// handing its time slice back to the Go scheduler.
const spinsBeforeYield = 128

// noCopy may be embedded into structs which must not be copied after first
// use. See https://golang.org/issues/8005#issuecomment-190753527.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Lock is a test-and-set spin lock around a value of type T.
// The zero value is an unlocked lock around the zero T.
type Lock[T any] struct {
	_      noCopy
	locked atomic.Bool
	value  T
}

// New returns an unlocked lock wrapping value.
func New[T any](value T) *Lock[T] {
	return &Lock[T]{value: value}
}

// Lock spins until the lock is acquired and returns the guard for it.
// It never fails and never times out.
func (l *Lock[T]) Lock() *Guard[T] {
	spins := 0
	for l.locked.Swap(true) {
		// Wait on a plain load so contended waiters do not hammer the line
		// with writes.
		for l.locked.Load() {
			spins = relax(spins)
		}
	}
	return &Guard[T]{lock: l}
}

// TryLock makes exactly one attempt to acquire the lock.
func (l *Lock[T]) TryLock() (*Guard[T], bool) {
	if l.locked.Swap(true) {
		return nil, false
	}
	return &Guard[T]{lock: l}, true
}

// IsLocked reports the current flag state. The answer may be stale by the
// time the caller looks at it; use it for diagnostics only.
func (l *Lock[T]) IsLocked() bool {
	return l.locked.Load()
}

// With runs fn with the lock held. The lock is released on every exit path,
// including a panic inside fn.
func (l *Lock[T]) With(fn func(*T)) {
	g := l.Lock()
	defer g.Unlock()
	fn(g.Get())
}

// Value returns the protected value without locking. Only valid while the
// caller is the sole owner of l, e.g. during construction.
func (l *Lock[T]) Value() *T {
	return &l.value
}

func (l *Lock[T]) String() string {
	g, ok := l.TryLock()
	if !ok {
		return "SpinLock{locked: true}"
	}
	defer g.Unlock()
	return fmt.Sprintf("SpinLock{locked: false, value: %v}", l.value)
}

func (l *Lock[T]) unlock() {
	l.locked.Store(false)
}

// relax is the spin-loop hint. Go exposes no PAUSE instruction, so after a
// bounded burst the waiter yields its time slice instead.
func relax(spins int) int {
	spins++
	if spins%spinsBeforeYield == 0 {
		runtime.Gosched()
	}
	return spins
}

// Guard grants exclusive access to the value of a held Lock.
type Guard[T any] struct {
	_       noCopy
	lock    *Lock[T]
	restore func()
}

// Get returns the protected value. The pointer must not outlive the guard.
func (g *Guard[T]) Get() *T {
	if g.lock == nil {
		panic("spin: use of released guard")
	}
	return &g.lock.value
}

// Unlock releases the lock. Releasing a guard twice panics, since the second
// release could free a lock that another context now holds.
func (g *Guard[T]) Unlock() {
	l := g.lock
	if l == nil {
		panic("spin: unlock of released guard")
	}
	g.lock = nil
	l.unlock()
	if g.restore != nil {
		restore := g.restore
		g.restore = nil
		restore()
	}
}
