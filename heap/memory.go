package heap

import "github.com/joshuapare/kheap/mem"

// Memory is the allocator's only access path to heap memory.
type Memory interface {
	ReadU64(addr mem.VirtAddr) uint64
	WriteU64(addr mem.VirtAddr, v uint64)
	Read(addr mem.VirtAddr, p []byte)
	Write(addr mem.VirtAddr, p []byte)
	Zero(addr mem.VirtAddr, n int)
}

// GlobalAlloc is the interface the rest of the kernel allocates through.
type GlobalAlloc interface {
	// Alloc returns a block satisfying l, or the null address.
	Alloc(l Layout) mem.VirtAddr

	// Dealloc releases a block previously returned by Alloc with the same l.
	Dealloc(addr mem.VirtAddr, l Layout)
}
