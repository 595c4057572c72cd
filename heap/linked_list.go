package heap

import (
	"fmt"

	"github.com/joshuapare/kheap/internal/buf"
	"github.com/joshuapare/kheap/mem"
)

const (
	// holeAlign is the alignment of every hole and every size handed out.
	holeAlign = 8

	// minHoleSize is the smallest hole that can hold its own header
	// (size word + next word).
	minHoleSize = 16

	// Hole header layout.
	holeSizeOff = 0
	holeNextOff = 8
)

// LinkedList is a first-fit allocator over an address-ordered list of holes
// kept inside the managed memory. The zero value is an empty heap that fails
// every allocation until Init is called.
type LinkedList struct {
	m      Memory
	first  mem.VirtAddr // address of the lowest hole, 0 when none
	bottom mem.VirtAddr
	size   uint64
	used   uint64
}

// Init makes [start, start+size) available. The region must be mapped and
// writable, and must not overlap any other heap.
func (h *LinkedList) Init(start mem.VirtAddr, size uint64, m Memory) error {
	if start == 0 {
		return ErrNullRegion
	}
	aligned := start.AlignUp(holeAlign)
	pad := uint64(aligned - start)
	if size < pad || mem.AlignDown(size-pad, holeAlign) < minHoleSize {
		return fmt.Errorf("%w: %d bytes at %s", ErrHeapTooSmall, size, start)
	}
	size = mem.AlignDown(size-pad, holeAlign)

	h.m = m
	h.bottom = aligned
	h.size = size
	h.used = 0
	h.first = aligned
	h.writeHole(aligned, size, 0)
	return nil
}

// Bottom returns the first usable address.
func (h *LinkedList) Bottom() mem.VirtAddr { return h.bottom }

// Top returns one past the last usable address.
func (h *LinkedList) Top() mem.VirtAddr { return h.bottom.Add(h.size) }

// Size returns the number of managed bytes.
func (h *LinkedList) Size() uint64 { return h.size }

// Used returns the bytes currently handed out, after rounding.
func (h *LinkedList) Used() uint64 { return h.used }

// Free returns the bytes currently in holes.
func (h *LinkedList) Free() uint64 { return h.size - h.used }

// Holes returns the number of holes.
func (h *LinkedList) Holes() int {
	n := 0
	for cur := h.first; cur != 0; cur = h.holeNext(cur) {
		n++
	}
	return n
}

// LargestHole returns the size of the biggest hole.
func (h *LinkedList) LargestHole() uint64 {
	var largest uint64
	for cur := h.first; cur != 0; cur = h.holeNext(cur) {
		largest = max(largest, h.holeSize(cur))
	}
	return largest
}

// adjust rounds a request to what is actually carved out of a hole. It
// reports false when the rounded size does not fit in the address space.
func adjust(l Layout) (size, align uint64, ok bool) {
	padded, ok := buf.AddU64OverflowSafe(max(l.size, minHoleSize), holeAlign-1)
	if !ok {
		return 0, 0, false
	}
	return mem.AlignDown(padded, holeAlign), max(l.align, holeAlign), true
}

// AllocateFirstFit carves l out of the lowest hole that can hold it.
func (h *LinkedList) AllocateFirstFit(l Layout) (mem.VirtAddr, error) {
	size, align, ok := adjust(l)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNoSpace, l)
	}

	var prev mem.VirtAddr // 0 means the list head
	for cur := h.first; cur != 0; prev, cur = cur, h.holeNext(cur) {
		holeSize := h.holeSize(cur)
		holeEnd := cur.Add(holeSize)

		addr := cur.AlignUp(align)
		if addr != cur && uint64(addr-cur) < minHoleSize {
			// Front padding must be able to stand as a hole of its own.
			addr = cur.Add(minHoleSize).AlignUp(align)
		}
		end := addr.Add(size)
		if end < addr || end > holeEnd {
			continue
		}
		back := uint64(holeEnd - end)
		if back != 0 && back < minHoleSize {
			continue
		}

		next := h.holeNext(cur)
		if back != 0 {
			h.writeHole(end, back, next)
			next = end
		}
		if addr != cur {
			h.writeHole(cur, uint64(addr-cur), next)
		} else {
			h.setNext(prev, next)
		}
		h.used += size
		return addr, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrNoSpace, l)
}

// Deallocate returns a block obtained from AllocateFirstFit with the same
// layout. Freeing a range that overlaps an existing hole panics: the heap is
// already corrupt at that point.
func (h *LinkedList) Deallocate(addr mem.VirtAddr, l Layout) {
	size, _, ok := adjust(l)
	end := addr.Add(size)
	if !ok || end < addr || addr < h.bottom || end > h.Top() {
		panic(fmt.Sprintf("heap: free of %s outside heap [%s, %s)", addr, h.bottom, h.Top()))
	}

	var prev mem.VirtAddr
	cur := h.first
	for cur != 0 && cur < addr {
		prev, cur = cur, h.holeNext(cur)
	}
	if prev != 0 && prev.Add(h.holeSize(prev)) > addr {
		panic(fmt.Sprintf("heap: free of %s overlaps hole at %s", addr, prev))
	}
	if cur != 0 && end > cur {
		panic(fmt.Sprintf("heap: free of %s overlaps hole at %s", addr, cur))
	}
	h.used -= size

	// Merge with the following hole.
	next := cur
	if cur != 0 && end == cur {
		size += h.holeSize(cur)
		next = h.holeNext(cur)
	}

	// Merge with the preceding hole.
	if prev != 0 && prev.Add(h.holeSize(prev)) == addr {
		h.writeHole(prev, h.holeSize(prev)+size, next)
		return
	}
	h.writeHole(addr, size, next)
	h.setNext(prev, addr)
}

func (h *LinkedList) holeSize(hole mem.VirtAddr) uint64 {
	return h.m.ReadU64(hole.Add(holeSizeOff))
}

func (h *LinkedList) holeNext(hole mem.VirtAddr) mem.VirtAddr {
	return mem.VirtAddr(h.m.ReadU64(hole.Add(holeNextOff)))
}

func (h *LinkedList) writeHole(hole mem.VirtAddr, size uint64, next mem.VirtAddr) {
	h.m.WriteU64(hole.Add(holeSizeOff), size)
	h.m.WriteU64(hole.Add(holeNextOff), uint64(next))
}

// setNext points prev (or the list head when prev is 0) at next.
func (h *LinkedList) setNext(prev, next mem.VirtAddr) {
	if prev == 0 {
		h.first = next
		return
	}
	h.m.WriteU64(prev.Add(holeNextOff), uint64(next))
}
