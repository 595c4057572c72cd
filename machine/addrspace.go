package machine

import (
	"github.com/joshuapare/kheap/internal/buf"
	"github.com/joshuapare/kheap/mem"
)

// AddressSpace is the virtual memory view of the running CPU. It satisfies
// the heap's Memory interface and the bootstrap's page mapper.
type AddressSpace struct {
	phys *PhysMemory
	pt   *PageTable
}

// NewAddressSpace binds a view to the hierarchy pt over phys.
func NewAddressSpace(phys *PhysMemory, pt *PageTable) *AddressSpace {
	return &AddressSpace{phys: phys, pt: pt}
}

// PageTable returns the active hierarchy.
func (as *AddressSpace) PageTable() *PageTable { return as.pt }

// MapTo installs a mapping in the active hierarchy.
func (as *AddressSpace) MapTo(page mem.Page, frame mem.Frame, flags mem.PageTableFlags, frames FrameAllocator) (Flush, error) {
	return as.pt.MapTo(page, frame, flags, frames)
}

// Unmap removes a mapping from the active hierarchy.
func (as *AddressSpace) Unmap(page mem.Page) (mem.Frame, Flush, error) {
	return as.pt.Unmap(page)
}

// translate resolves va for an access, consulting the TLB first.
// It panics with *PageFault when the access is not permitted.
func (as *AddressSpace) translate(va mem.VirtAddr, write bool) mem.PhysAddr {
	page := mem.PageContaining(va)
	e, ok := as.pt.tlb.lookup(page)
	if !ok {
		ea, present := as.pt.leaf(va)
		if !present {
			panic(&PageFault{Addr: va, Write: write})
		}
		raw := as.phys.ReadU64(ea)
		e = tlbEntry{frame: entryFrame(raw), flags: entryFlags(raw)}
		as.pt.tlb.fill(page, e)
	}
	if write && !e.flags.Has(mem.Writable) {
		panic(&PageFault{Addr: va, Write: true, Present: true})
	}
	return e.frame.StartAddress().Add(va.PageOffset())
}

// ReadU64 reads the word at va.
func (as *AddressSpace) ReadU64(va mem.VirtAddr) uint64 {
	if va.PageOffset() <= mem.PageSize-8 {
		return as.phys.ReadU64(as.translate(va, false))
	}
	var w [8]byte
	as.Read(va, w[:])
	return buf.U64LE(w[:])
}

// WriteU64 writes v at va.
func (as *AddressSpace) WriteU64(va mem.VirtAddr, v uint64) {
	if va.PageOffset() <= mem.PageSize-8 {
		as.phys.WriteU64(as.translate(va, true), v)
		return
	}
	var w [8]byte
	buf.PutU64LE(w[:], v)
	as.Write(va, w[:])
}

// Read copies len(p) bytes starting at va into p.
func (as *AddressSpace) Read(va mem.VirtAddr, p []byte) {
	as.walk(va, len(p), false, func(b []byte, off int) { copy(p[off:], b) })
}

// Write copies p into memory starting at va.
func (as *AddressSpace) Write(va mem.VirtAddr, p []byte) {
	as.walk(va, len(p), true, func(b []byte, off int) { copy(b, p[off:]) })
}

// Zero clears n bytes starting at va.
func (as *AddressSpace) Zero(va mem.VirtAddr, n int) {
	as.walk(va, n, true, func(b []byte, _ int) { buf.Zero(b) })
}

// walk splits [va, va+n) at page boundaries and hands each physical piece
// to fn together with its offset from va.
func (as *AddressSpace) walk(va mem.VirtAddr, n int, write bool, fn func(b []byte, off int)) {
	off := 0
	for off < n {
		cur := va.Add(uint64(off))
		chunk := min(n-off, int(mem.PageSize-cur.PageOffset()))
		pa := as.translate(cur, write)
		b, err := as.phys.Slice(pa, chunk)
		if err != nil {
			panic(err)
		}
		fn(b, off)
		off += chunk
	}
}
