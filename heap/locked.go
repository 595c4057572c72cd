package heap

import (
	"github.com/joshuapare/kheap/mem"
	"github.com/joshuapare/kheap/spin"
)

// Locked is a FixedSizeBlock behind a spin lock. Its zero value is an
// uninitialized allocator, suitable for a package-level singleton. Each
// method holds the lock for exactly its own body.
//
// An interrupt handler that allocates while the code it interrupted holds
// this lock deadlocks. Callers that can be interrupted by such a handler
// must mask interrupts around their allocations.
type Locked struct {
	inner spin.Lock[FixedSizeBlock]
}

var _ GlobalAlloc = (*Locked)(nil)

// Lock acquires the allocator for a multi-step operation such as Init.
func (l *Locked) Lock() *spin.Guard[FixedSizeBlock] {
	return l.inner.Lock()
}

// IsLocked reports whether some context currently holds the allocator.
func (l *Locked) IsLocked() bool { return l.inner.IsLocked() }

// Init hands [start, start+size) to the fallback allocator.
func (l *Locked) Init(start mem.VirtAddr, size uint64, m Memory) error {
	g := l.inner.Lock()
	defer g.Unlock()
	return g.Get().Init(start, size, m)
}

// Alloc implements GlobalAlloc.
func (l *Locked) Alloc(layout Layout) mem.VirtAddr {
	g := l.inner.Lock()
	defer g.Unlock()
	return g.Get().Alloc(layout)
}

// Dealloc implements GlobalAlloc.
func (l *Locked) Dealloc(addr mem.VirtAddr, layout Layout) {
	g := l.inner.Lock()
	defer g.Unlock()
	g.Get().Dealloc(addr, layout)
}

// AllocZeroed returns a cleared block, or null.
func (l *Locked) AllocZeroed(layout Layout) mem.VirtAddr {
	g := l.inner.Lock()
	defer g.Unlock()
	return g.Get().AllocZeroed(layout)
}

// Realloc resizes a block, see FixedSizeBlock.Realloc.
func (l *Locked) Realloc(addr mem.VirtAddr, layout Layout, newSize uint64) mem.VirtAddr {
	g := l.inner.Lock()
	defer g.Unlock()
	return g.Get().Realloc(addr, layout, newSize)
}

// Stats returns a snapshot of the allocator's counters.
func (l *Locked) Stats() Stats {
	g := l.inner.Lock()
	defer g.Unlock()
	return g.Get().Stats()
}

// Reset discards all allocator state, returning it to the uninitialized
// zero value. Every outstanding block is forgotten.
func (l *Locked) Reset() {
	g := l.inner.Lock()
	defer g.Unlock()
	*g.Get() = FixedSizeBlock{}
}
