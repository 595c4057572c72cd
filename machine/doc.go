// Package machine simulates the parts of an x86_64 machine the kernel heap
// depends on: physical RAM, physical frame allocators, four-level page
// tables, the translation lookaside buffer and the interrupt flag.
//
// # Physical memory
//
// PhysMemory is a contiguous run of frames starting at physical address 0,
// backed by an anonymous mapping outside the Go heap (internal/mmfile).
//
// # Paging
//
// PageTable keeps real page tables inside PhysMemory. Each level is one
// frame of 512 eight-byte entries, so mapping a page may consume up to three
// extra frames for intermediate tables. MapTo returns a Flush token that
// must be flushed (or explicitly ignored) before the mapping is relied on.
//
// # Address spaces
//
// AddressSpace is the CPU's view of memory: every access translates the
// virtual address, first through the TLB and then by walking the tables.
// Touching an unmapped page, or writing to a read-only one, panics with a
// *PageFault. The kernel has no page fault handler for its own heap, so a
// fault there is fatal.
package machine
