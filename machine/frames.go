package machine

import (
	"fmt"

	"github.com/joshuapare/kheap/mem"
)

// FrameAllocator hands out physical frames.
type FrameAllocator interface {
	// AllocateFrame returns a free frame, or false when none are left.
	AllocateFrame() (mem.Frame, bool)
}

// FrameDeallocator takes back frames that are no longer in use.
type FrameDeallocator interface {
	DeallocateFrame(f mem.Frame)
}

// BootFrameAllocator is the early-boot physical allocator. It hands out
// frames in ascending order and cannot free them; once the kernel is up the
// untouched tail is handed to a FreeListFrameAllocator via Handoff.
type BootFrameAllocator struct {
	next  uint64 // next frame number to hand out
	limit uint64 // one past the last usable frame number

	allocated int
}

// NewBootFrameAllocator returns an allocator over the frames of phys, skipping
// the first reserved frames (frame 0 is never handed out so that physical
// address 0 can keep meaning "none").
func NewBootFrameAllocator(phys *PhysMemory, reserved int) *BootFrameAllocator {
	first := uint64(max(reserved, 1))
	return &BootFrameAllocator{
		next:  first,
		limit: uint64(phys.Frames()),
	}
}

// AllocateFrame returns the next unused frame.
func (a *BootFrameAllocator) AllocateFrame() (mem.Frame, bool) {
	if a.next >= a.limit {
		return mem.Frame{}, false
	}
	f := mem.FrameFromNumber(a.next)
	a.next++
	a.allocated++
	return f, true
}

// Allocated returns how many frames have been handed out.
func (a *BootFrameAllocator) Allocated() int { return a.allocated }

// Remaining returns how many frames are still available.
func (a *BootFrameAllocator) Remaining() int {
	if a.next >= a.limit {
		return 0
	}
	return int(a.limit - a.next)
}

// Handoff gives every remaining frame to dst and leaves a exhausted.
func (a *BootFrameAllocator) Handoff(dst FrameDeallocator) int {
	n := 0
	for ; a.next < a.limit; a.next++ {
		dst.DeallocateFrame(mem.FrameFromNumber(a.next))
		n++
	}
	return n
}

// FreeListFrameAllocator keeps free frames on a singly linked list threaded
// through the first word of each free frame. A zero link ends the list;
// frame 0 is never placed on it.
type FreeListFrameAllocator struct {
	phys *PhysMemory
	head mem.PhysAddr
	free int
}

// NewFreeListFrameAllocator returns an empty allocator over phys.
func NewFreeListFrameAllocator(phys *PhysMemory) *FreeListFrameAllocator {
	return &FreeListFrameAllocator{phys: phys}
}

// DeallocateFrame pushes f onto the free list. Freeing frame 0 or a frame
// outside installed RAM is a kernel bug and panics.
func (a *FreeListFrameAllocator) DeallocateFrame(f mem.Frame) {
	if f.Number() == 0 || !a.phys.Contains(f) {
		panic(fmt.Sprintf("machine: free of invalid %s", f))
	}
	pa := f.StartAddress()
	a.phys.WriteU64(pa, uint64(a.head))
	a.head = pa
	a.free++
}

// AllocateFrame pops a frame and zeroes it.
func (a *FreeListFrameAllocator) AllocateFrame() (mem.Frame, bool) {
	if a.head == 0 {
		return mem.Frame{}, false
	}
	pa := a.head
	a.head = mem.PhysAddr(a.phys.ReadU64(pa))
	a.free--
	f := mem.FrameContaining(pa)
	a.phys.ZeroFrame(f)
	return f, true
}

// Free returns the number of frames on the list.
func (a *FreeListFrameAllocator) Free() int { return a.free }
