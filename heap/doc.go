// Package heap implements the kernel's dynamic memory allocator: a
// segregated fixed-size block allocator in front of a first-fit linked-list
// allocator.
//
// # Overview
//
// Requests are routed by max(size, align) to the smallest of nine block
// sizes (8 to 2048 bytes). Each block size has a singly linked free list
// whose links live inside the freed blocks themselves, so a block is either
// on exactly one free list or owned by a caller and nothing else records its
// state:
//
//	Class 0:    8 bytes
//	Class 1:   16 bytes
//	Class 2:   32 bytes
//	...
//	Class 8: 2048 bytes
//
// A pop from a non-empty list is O(1) and never touches the fallback. An
// empty list is refilled one block at a time from the fallback, using the
// block size as both size and alignment. Requests larger than 2048 bytes go
// straight to the fallback.
//
// # Fallback
//
// LinkedList is a first-fit allocator over an address-ordered list of holes.
// Each hole stores its size and the address of the next hole in its first
// two words. Freed ranges are merged with adjacent holes.
//
// # Memory access
//
// The allocator never dereferences heap addresses itself; every read and
// write of a link or hole header goes through the Memory interface. A link
// is only written while its block is free and only read while popping it.
//
// # Thread Safety
//
// FixedSizeBlock and LinkedList are not thread-safe. Locked wraps a
// FixedSizeBlock in a spin lock and is what the rest of the kernel uses.
//
// # Failure
//
// Exhaustion is reported as the null address, never as a panic. Releasing a
// block with a layout other than the one it was allocated with is undefined.
package heap
