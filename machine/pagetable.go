package machine

import (
	"fmt"

	"github.com/joshuapare/kheap/mem"
)

const (
	entrySize   = 8
	levels      = 4
	tableFlags  = mem.Present | mem.Writable
	entryUnused = 0
)

// PageTable is a four-level x86_64 page table hierarchy whose tables live in
// PhysMemory. The zero value is not usable; use NewPageTable.
type PageTable struct {
	phys *PhysMemory
	root mem.Frame
	tlb  *TLB

	tables int // frames used by tables, including the root
	mapped int // present 4KiB leaf mappings
}

// NewPageTable allocates an empty level-4 table from frames.
func NewPageTable(phys *PhysMemory, frames FrameAllocator) (*PageTable, error) {
	root, ok := frames.AllocateFrame()
	if !ok {
		return nil, fmt.Errorf("machine: allocate root table: %w", ErrFrameAllocationFailed)
	}
	phys.ZeroFrame(root)
	return &PageTable{phys: phys, root: root, tlb: NewTLB(), tables: 1}, nil
}

// Root returns the frame holding the level-4 table (the CR3 value).
func (pt *PageTable) Root() mem.Frame { return pt.root }

// TLB returns the translation cache bound to this hierarchy.
func (pt *PageTable) TLB() *TLB { return pt.tlb }

// Tables returns the number of frames used for tables.
func (pt *PageTable) Tables() int { return pt.tables }

// Mapped returns the number of present leaf mappings.
func (pt *PageTable) Mapped() int { return pt.mapped }

func entryAddr(table mem.Frame, index int) mem.PhysAddr {
	return table.StartAddress().Add(uint64(index) * entrySize)
}

func entryFrame(e uint64) mem.Frame {
	return mem.FrameContaining(mem.PhysAddr(e & mem.AddrMask))
}

func entryFlags(e uint64) mem.PageTableFlags {
	return mem.PageTableFlags(e & mem.FlagMask)
}

// MapTo maps page to frame with flags. Missing intermediate tables are taken
// from frames. The page must not already be mapped.
func (pt *PageTable) MapTo(page mem.Page, frame mem.Frame, flags mem.PageTableFlags, frames FrameAllocator) (Flush, error) {
	fail := func(err error) (Flush, error) {
		return Flush{}, &MapToError{Err: err, Page: page, Frame: frame}
	}
	if !pt.phys.Contains(frame) {
		return fail(ErrPhysOutOfRange)
	}

	va := page.StartAddress()
	parentFlags := tableFlags | (flags & mem.UserAccessible)
	table := pt.root
	for level := levels - 1; level > 0; level-- {
		ea := entryAddr(table, va.TableIndex(level))
		e := pt.phys.ReadU64(ea)
		if e == entryUnused {
			next, ok := frames.AllocateFrame()
			if !ok {
				return fail(ErrFrameAllocationFailed)
			}
			pt.phys.ZeroFrame(next)
			pt.phys.WriteU64(ea, uint64(next.StartAddress())|uint64(parentFlags))
			pt.tables++
			table = next
			continue
		}
		if entryFlags(e).Has(mem.HugePage) {
			return fail(ErrParentEntryHugePage)
		}
		if !entryFlags(e).Has(parentFlags) {
			pt.phys.WriteU64(ea, e|uint64(parentFlags))
		}
		table = entryFrame(e)
	}

	ea := entryAddr(table, va.P1Index())
	if pt.phys.ReadU64(ea) != entryUnused {
		return fail(ErrPageAlreadyMapped)
	}
	pt.phys.WriteU64(ea, uint64(frame.StartAddress())|uint64(flags|mem.Present))
	pt.mapped++
	return NewFlush(pt.tlb, page), nil
}

// Unmap removes the mapping of page and returns the frame it pointed to.
// Intermediate tables are left in place.
func (pt *PageTable) Unmap(page mem.Page) (mem.Frame, Flush, error) {
	ea, ok := pt.leaf(page.StartAddress())
	if !ok {
		return mem.Frame{}, Flush{}, fmt.Errorf("unmap %s: %w", page, ErrPageNotMapped)
	}
	e := pt.phys.ReadU64(ea)
	pt.phys.WriteU64(ea, entryUnused)
	pt.mapped--
	return entryFrame(e), NewFlush(pt.tlb, page), nil
}

// Translate walks the tables for va, bypassing the TLB.
func (pt *PageTable) Translate(va mem.VirtAddr) (mem.PhysAddr, mem.PageTableFlags, error) {
	ea, ok := pt.leaf(va)
	if !ok {
		return 0, 0, fmt.Errorf("translate %s: %w", va, ErrPageNotMapped)
	}
	e := pt.phys.ReadU64(ea)
	return entryFrame(e).StartAddress().Add(va.PageOffset()), entryFlags(e), nil
}

// leaf returns the address of the present level-1 entry for va.
func (pt *PageTable) leaf(va mem.VirtAddr) (mem.PhysAddr, bool) {
	if !va.IsCanonical() {
		return 0, false
	}
	table := pt.root
	for level := levels - 1; level > 0; level-- {
		e := pt.phys.ReadU64(entryAddr(table, va.TableIndex(level)))
		flags := entryFlags(e)
		if !flags.Has(mem.Present) || flags.Has(mem.HugePage) {
			return 0, false
		}
		table = entryFrame(e)
	}
	ea := entryAddr(table, va.P1Index())
	if !entryFlags(pt.phys.ReadU64(ea)).Has(mem.Present) {
		return 0, false
	}
	return ea, true
}
