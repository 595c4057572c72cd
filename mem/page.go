package mem

import (
	"fmt"
	"iter"
)

// Page is a PageSize-aligned region of virtual memory, identified by its
// start address.
type Page struct {
	start VirtAddr
}

// PageContaining returns the page that contains addr.
func PageContaining(addr VirtAddr) Page {
	return Page{start: VirtAddr(AlignDown(uint64(addr), PageSize))}
}

// PageFromStart returns the page starting at addr, or ErrUnaligned.
func PageFromStart(addr VirtAddr) (Page, error) {
	if !addr.IsAligned(PageSize) {
		return Page{}, fmt.Errorf("%w: %s", ErrUnaligned, addr)
	}
	return Page{start: addr}, nil
}

// StartAddress returns the first address of the page.
func (p Page) StartAddress() VirtAddr { return p.start }

// Next returns the page immediately after p.
func (p Page) Next() Page { return Page{start: p.start + PageSize} }

func (p Page) String() string { return fmt.Sprintf("Page[%s]", p.start) }

// PageRangeInclusive yields every page from start to end, both included,
// in ascending address order. It yields nothing when end < start.
func PageRangeInclusive(start, end Page) iter.Seq[Page] {
	return func(yield func(Page) bool) {
		if end.start < start.start {
			return
		}
		for p := start; ; p = p.Next() {
			if !yield(p) || p == end {
				return
			}
		}
	}
}

// PageCount returns the number of pages in the inclusive range.
func PageCount(start, end Page) int {
	if end.start < start.start {
		return 0
	}
	return int((end.start-start.start)/PageSize) + 1
}

// Frame is a PageSize-aligned region of physical memory.
type Frame struct {
	start PhysAddr
}

// FrameContaining returns the frame that contains addr.
func FrameContaining(addr PhysAddr) Frame {
	return Frame{start: PhysAddr(AlignDown(uint64(addr), PageSize))}
}

// FrameFromNumber returns the n-th frame of physical memory.
func FrameFromNumber(n uint64) Frame {
	return Frame{start: PhysAddr(n << PageShift)}
}

// StartAddress returns the first physical address of the frame.
func (f Frame) StartAddress() PhysAddr { return f.start }

// Number returns the frame index (start address / PageSize).
func (f Frame) Number() uint64 { return uint64(f.start) >> PageShift }

func (f Frame) String() string { return fmt.Sprintf("Frame[%s]", f.start) }
