package kalloc

import (
	"fmt"
	"log/slog"

	"github.com/joshuapare/kheap/heap"
	"github.com/joshuapare/kheap/machine"
	"github.com/joshuapare/kheap/mem"
)

const (
	// HeapStart is the first virtual address of the kernel heap.
	HeapStart = mem.VirtAddr(0x_4444_4444_0000)

	// HeapSize is the size of the kernel heap in bytes.
	HeapSize = 100 * 1024
)

// Allocator is the kernel's global allocator. Every kernel allocation goes
// through it.
var Allocator heap.Locked

var logger = slog.New(slog.DiscardHandler)

// SetLogger sets the logger used while bootstrapping the heap. A nil
// logger discards.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	logger = l
}

// PageMapper maps pages into the address space the heap lives in and gives
// access to that address space's memory.
type PageMapper interface {
	heap.Memory
	MapTo(page mem.Page, frame mem.Frame, flags mem.PageTableFlags, frames machine.FrameAllocator) (machine.Flush, error)
}

// InitHeap maps every page of the heap range to a fresh frame, writable,
// then initializes Allocator over the range.
//
// Pages are mapped in ascending order. If frames run out partway through,
// the pages mapped so far stay mapped and the allocator is left
// uninitialized.
func InitHeap(mapper PageMapper, frames machine.FrameAllocator) error {
	first := mem.PageContaining(HeapStart)
	last := mem.PageContaining(HeapStart.Add(HeapSize - 1))
	flags := mem.Present | mem.Writable

	mapped := 0
	for page := range mem.PageRangeInclusive(first, last) {
		frame, ok := frames.AllocateFrame()
		if !ok {
			return fmt.Errorf("kalloc: map heap page %s after %d pages: %w",
				page.StartAddress(), mapped, machine.ErrFrameAllocationFailed)
		}
		flush, err := mapper.MapTo(page, frame, flags, frames)
		if err != nil {
			return fmt.Errorf("kalloc: map heap page %s: %w", page.StartAddress(), err)
		}
		flush.Flush()
		mapped++
	}

	logger.Debug("heap mapped",
		"start", HeapStart.String(),
		"size", HeapSize,
		"pages", mapped)

	g := Allocator.Lock()
	defer g.Unlock()
	if err := g.Get().Init(HeapStart, HeapSize, mapper); err != nil {
		return fmt.Errorf("kalloc: init allocator: %w", err)
	}
	return nil
}

// Alloc returns a block of at least size bytes aligned to align, or the
// null address when the heap is exhausted, uninitialized, or the request is
// malformed.
func Alloc(size, align uint64) mem.VirtAddr {
	l, err := heap.NewLayout(size, align)
	if err != nil {
		return 0
	}
	return Allocator.Alloc(l)
}

// Dealloc returns a block obtained from Alloc with the same size and align.
func Dealloc(addr mem.VirtAddr, size, align uint64) {
	Allocator.Dealloc(addr, heap.MustLayout(size, align))
}

func reset() {
	Allocator.Reset()
}
