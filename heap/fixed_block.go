package heap

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joshuapare/kheap/mem"
)

// Runtime debug flag for allocation logging - controlled by KHEAP_LOG_ALLOC env var.
var logAlloc = os.Getenv("KHEAP_LOG_ALLOC") != ""

var logger = slog.New(slog.DiscardHandler)

// SetLogger replaces the logger used for allocation diagnostics.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	logger = l
}

// SetLogAlloc turns per-request diagnostics on or off.
func SetLogAlloc(on bool) { logAlloc = on }

// FixedSizeBlock serves small requests from per-class free lists and
// everything else from a LinkedList fallback. The zero value is ready to use
// and fails every allocation until Init is called.
type FixedSizeBlock struct {
	m         Memory
	listHeads [NumClasses]mem.VirtAddr
	listLens  [NumClasses]int
	fallback  LinkedList

	stats allocatorStats
}

// allocatorStats holds internal allocator statistics.
type allocatorStats struct {
	AllocCalls    int // Total Alloc() calls
	AllocFastPath int // Served by popping a free list
	AllocRefill   int // Class block carved fresh from the fallback
	AllocLarge    int // Request too large for any class, sent to the fallback
	AllocFailed   int // Fallback exhausted, null returned
	FreeCalls     int // Total Dealloc() calls
	FreeToList    int // Block pushed onto a free list
	FreeToLarge   int // Block handed back to the fallback
}

// Stats is a snapshot of allocator state.
type Stats struct {
	AllocCalls    int `json:"alloc_calls"`
	AllocFastPath int `json:"alloc_fast_path"`
	AllocRefill   int `json:"alloc_refill"`
	AllocLarge    int `json:"alloc_large"`
	AllocFailed   int `json:"alloc_failed"`
	FreeCalls     int `json:"free_calls"`
	FreeToList    int `json:"free_to_list"`
	FreeToLarge   int `json:"free_to_large"`

	FreeListLens  [NumClasses]int `json:"free_list_lens"`
	HeapBottom    mem.VirtAddr    `json:"heap_bottom"`
	HeapSize      uint64          `json:"heap_size"`
	FallbackUsed  uint64          `json:"fallback_used"`
	FallbackFree  uint64          `json:"fallback_free"`
	FallbackHoles int             `json:"fallback_holes"`
}

// Init hands [start, start+size) to the fallback. The region must already be
// mapped writable. Calling Init twice, or allocating before it, is undefined.
func (a *FixedSizeBlock) Init(start mem.VirtAddr, size uint64, m Memory) error {
	if err := a.fallback.Init(start, size, m); err != nil {
		return err
	}
	a.m = m
	return nil
}

// Alloc returns a block for l, or the null address when memory is exhausted.
func (a *FixedSizeBlock) Alloc(l Layout) mem.VirtAddr {
	a.stats.AllocCalls++

	idx, ok := listIndex(l)
	if !ok {
		a.stats.AllocLarge++
		return a.fallbackAlloc(l)
	}

	if head := a.listHeads[idx]; head != 0 {
		a.listHeads[idx] = mem.VirtAddr(a.m.ReadU64(head))
		a.listLens[idx]--
		a.stats.AllocFastPath++
		return head
	}

	// No block of this class on hand; carve one with the class size as both
	// size and alignment so it can be recycled for any request in the class.
	a.stats.AllocRefill++
	bs := blockSizes[idx]
	return a.fallbackAlloc(Layout{size: bs, align: bs})
}

func (a *FixedSizeBlock) fallbackAlloc(l Layout) mem.VirtAddr {
	addr, err := a.fallback.AllocateFirstFit(l)
	if err != nil {
		a.stats.AllocFailed++
		if logAlloc {
			logger.Debug("fallback allocation failed",
				"layout", l.String(),
				"free", a.fallback.Free(),
				"largest_hole", a.fallback.LargestHole(),
				"err", err)
		}
		return 0
	}
	return addr
}

// Dealloc releases addr, which must have come from Alloc with the same l.
func (a *FixedSizeBlock) Dealloc(addr mem.VirtAddr, l Layout) {
	a.stats.FreeCalls++

	idx, ok := listIndex(l)
	if !ok {
		a.stats.FreeToLarge++
		a.fallback.Deallocate(addr, l)
		return
	}

	bs := blockSizes[idx]
	if linkSize > bs || linkAlign > bs {
		panic(fmt.Sprintf("heap: block size %d cannot hold a free-list link", bs))
	}
	a.m.WriteU64(addr, uint64(a.listHeads[idx]))
	a.listHeads[idx] = addr
	a.listLens[idx]++
	a.stats.FreeToList++
}

// AllocZeroed is Alloc followed by clearing the block.
func (a *FixedSizeBlock) AllocZeroed(l Layout) mem.VirtAddr {
	addr := a.Alloc(l)
	if addr != 0 && l.size > 0 {
		a.m.Zero(addr, int(l.size))
	}
	return addr
}

// Realloc moves the block at addr (allocated with l) into a block of
// newSize bytes with the same alignment, copying the common prefix. On
// failure it returns null and the original block is untouched.
func (a *FixedSizeBlock) Realloc(addr mem.VirtAddr, l Layout, newSize uint64) mem.VirtAddr {
	nl, err := NewLayout(newSize, l.align)
	if err != nil {
		return 0
	}
	naddr := a.Alloc(nl)
	if naddr == 0 {
		return 0
	}
	if n := min(l.size, newSize); n > 0 {
		tmp := make([]byte, n)
		a.m.Read(addr, tmp)
		a.m.Write(naddr, tmp)
	}
	a.Dealloc(addr, l)
	return naddr
}

// FreeListLen returns the number of blocks on class's free list.
func (a *FixedSizeBlock) FreeListLen(class int) int {
	return a.listLens[class]
}

// Fallback exposes the fallback allocator for inspection.
func (a *FixedSizeBlock) Fallback() *LinkedList { return &a.fallback }

// Stats returns a snapshot of counters and occupancy.
func (a *FixedSizeBlock) Stats() Stats {
	s := a.stats
	return Stats{
		AllocCalls:    s.AllocCalls,
		AllocFastPath: s.AllocFastPath,
		AllocRefill:   s.AllocRefill,
		AllocLarge:    s.AllocLarge,
		AllocFailed:   s.AllocFailed,
		FreeCalls:     s.FreeCalls,
		FreeToList:    s.FreeToList,
		FreeToLarge:   s.FreeToLarge,
		FreeListLens:  a.listLens,
		HeapBottom:    a.fallback.Bottom(),
		HeapSize:      a.fallback.Size(),
		FallbackUsed:  a.fallback.Used(),
		FallbackFree:  a.fallback.Free(),
		FallbackHoles: a.fallback.Holes(),
	}
}
