// Package kalloc binds the process-wide kernel heap.
//
// The heap occupies the fixed virtual range [HeapStart, HeapStart+HeapSize).
// InitHeap backs that range with freshly allocated physical frames and then
// hands it to Allocator. Until InitHeap succeeds every allocation returns
// the null address.
package kalloc
