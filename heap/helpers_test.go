package heap

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/kheap/internal/buf"
	"github.com/joshuapare/kheap/mem"
)

const (
	testHeapStart = mem.VirtAddr(0x4444_4444_0000)
	testHeapSize  = 100 * 1024
)

// arena is a Memory over a plain byte slice mapped at base. Out-of-range
// accesses panic like a page fault would.
type arena struct {
	base mem.VirtAddr
	data []byte
}

var _ Memory = (*arena)(nil)

func newArena(base mem.VirtAddr, size int) *arena {
	return &arena{base: base, data: make([]byte, size)}
}

func (a *arena) slice(addr mem.VirtAddr, n int) []byte {
	if addr < a.base {
		panic(fmt.Sprintf("arena: access below base at %s", addr))
	}
	b, ok := buf.Slice(a.data, int(addr-a.base), n)
	if !ok {
		panic(fmt.Sprintf("arena: access past end at %s+%d", addr, n))
	}
	return b
}

func (a *arena) ReadU64(addr mem.VirtAddr) uint64     { return buf.U64LE(a.slice(addr, 8)) }
func (a *arena) WriteU64(addr mem.VirtAddr, v uint64) { buf.PutU64LE(a.slice(addr, 8), v) }
func (a *arena) Read(addr mem.VirtAddr, p []byte)     { copy(p, a.slice(addr, len(p))) }
func (a *arena) Write(addr mem.VirtAddr, p []byte)    { copy(a.slice(addr, len(p)), p) }
func (a *arena) Zero(addr mem.VirtAddr, n int)        { buf.Zero(a.slice(addr, n)) }

// newTestAllocator returns an initialized FixedSizeBlock over a fresh arena.
func newTestAllocator(t testing.TB) (*FixedSizeBlock, *arena) {
	t.Helper()
	m := newArena(testHeapStart, testHeapSize)
	fa := &FixedSizeBlock{}
	require.NoError(t, fa.Init(testHeapStart, testHeapSize, m))
	return fa, m
}

// newTestLinkedList returns an initialized fallback over a fresh arena.
func newTestLinkedList(t testing.TB, size int) (*LinkedList, *arena) {
	t.Helper()
	m := newArena(testHeapStart, size)
	h := &LinkedList{}
	require.NoError(t, h.Init(testHeapStart, uint64(size), m))
	return h, m
}

// span is an allocated [addr, addr+size) range.
type span struct {
	addr mem.VirtAddr
	size uint64
}

func (s span) end() mem.VirtAddr { return s.addr.Add(s.size) }

// requireDisjoint fails if any two spans overlap.
func requireDisjoint(t testing.TB, spans []span) {
	t.Helper()
	for i := range spans {
		for j := i + 1; j < len(spans); j++ {
			a, b := spans[i], spans[j]
			overlap := a.addr < b.end() && b.addr < a.end()
			require.False(t, overlap, "blocks %s+%d and %s+%d overlap", a.addr, a.size, b.addr, b.size)
		}
	}
}
