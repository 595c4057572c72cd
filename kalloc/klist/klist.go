// Package klist is a singly linked stack of words whose nodes are blocks in
// the kernel heap.
package klist

import (
	"errors"

	"github.com/joshuapare/kheap/heap"
	"github.com/joshuapare/kheap/mem"
)

// ErrOutOfMemory is returned by Push when the allocator has no block for a
// new node.
var ErrOutOfMemory = errors.New("klist: out of memory")

// A node is two words: the element, then the address of the next node.
const (
	elemOffset = 0
	nextOffset = 8
	nodeSize   = 16
)

var nodeLayout = heap.MustLayout(nodeSize, 8)

// List is a LIFO list. The zero value is not usable; use New.
type List struct {
	alloc heap.GlobalAlloc
	m     heap.Memory
	head  mem.VirtAddr
	n     int
}

// New returns an empty list whose nodes come from alloc and are accessed
// through m.
func New(alloc heap.GlobalAlloc, m heap.Memory) *List {
	return &List{alloc: alloc, m: m}
}

// Len returns the number of elements.
func (l *List) Len() int { return l.n }

// Push adds v to the front of the list.
func (l *List) Push(v uint64) error {
	node := l.alloc.Alloc(nodeLayout)
	if node.IsNull() {
		return ErrOutOfMemory
	}
	l.m.WriteU64(node.Add(elemOffset), v)
	l.m.WriteU64(node.Add(nextOffset), uint64(l.head))
	l.head = node
	l.n++
	return nil
}

// Pop removes and returns the front element.
func (l *List) Pop() (uint64, bool) {
	if l.head.IsNull() {
		return 0, false
	}
	node := l.head
	v := l.m.ReadU64(node.Add(elemOffset))
	l.head = mem.VirtAddr(l.m.ReadU64(node.Add(nextOffset)))
	l.n--
	l.alloc.Dealloc(node, nodeLayout)
	return v, true
}

// Peek returns the front element without removing it.
func (l *List) Peek() (uint64, bool) {
	if l.head.IsNull() {
		return 0, false
	}
	return l.m.ReadU64(l.head.Add(elemOffset)), true
}

// SetFront replaces the front element in place. It reports false on an
// empty list.
func (l *List) SetFront(v uint64) bool {
	if l.head.IsNull() {
		return false
	}
	l.m.WriteU64(l.head.Add(elemOffset), v)
	return true
}

// All yields the elements front to back. The list must not be modified
// during iteration.
func (l *List) All(yield func(uint64) bool) {
	for node := l.head; !node.IsNull(); node = mem.VirtAddr(l.m.ReadU64(node.Add(nextOffset))) {
		if !yield(l.m.ReadU64(node.Add(elemOffset))) {
			return
		}
	}
}

// Free releases every node back to the allocator, leaving the list empty.
func (l *List) Free() {
	for node := l.head; !node.IsNull(); {
		next := mem.VirtAddr(l.m.ReadU64(node.Add(nextOffset)))
		l.alloc.Dealloc(node, nodeLayout)
		node = next
	}
	l.head = 0
	l.n = 0
}
