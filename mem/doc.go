// Package mem defines the address, page and frame vocabulary shared by the
// simulated machine and the kernel heap.
//
// # Addresses
//
// VirtAddr and PhysAddr are plain 64-bit integers. Virtual addresses follow
// the x86_64 four-level paging rules: bits 48..63 must be a sign extension of
// bit 47 ("canonical" form). NewVirtAddr rejects anything else.
//
// # Pages and Frames
//
// A Page is a PageSize-aligned chunk of virtual address space, a Frame the
// PageSize-aligned chunk of physical memory it maps to. PageRangeInclusive
// iterates pages in ascending address order:
//
//	start := mem.PageContaining(heapStart)
//	end := mem.PageContaining(heapStart + heapSize - 1)
//	for page := range mem.PageRangeInclusive(start, end) {
//	    // map page
//	}
package mem
