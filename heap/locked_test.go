package heap

import (
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/kheap/mem"
)

func newTestLocked(t testing.TB) (*Locked, *arena) {
	t.Helper()
	m := newArena(testHeapStart, testHeapSize)
	var l Locked
	require.NoError(t, l.Init(testHeapStart, testHeapSize, m))
	return &l, m
}

func Test_Locked_ZeroValueFails(t *testing.T) {
	var l Locked
	require.Zero(t, l.Alloc(MustLayout(16, 8)))
	require.False(t, l.IsLocked())
}

func Test_Locked_ReleasesLockAfterEachCall(t *testing.T) {
	l, _ := newTestLocked(t)
	addr := l.Alloc(MustLayout(16, 8))
	require.NotZero(t, addr)
	require.False(t, l.IsLocked())
	l.Dealloc(addr, MustLayout(16, 8))
	require.False(t, l.IsLocked())

	g := l.Lock()
	require.True(t, l.IsLocked())
	require.Equal(t, 1, g.Get().FreeListLen(1))
	g.Unlock()
	require.False(t, l.IsLocked())
}

func Test_Locked_Reset(t *testing.T) {
	l, _ := newTestLocked(t)
	require.NotZero(t, l.Alloc(MustLayout(64, 8)))

	l.Reset()
	require.Zero(t, l.Alloc(MustLayout(64, 8)), "reset allocator is uninitialized")
	require.Equal(t, 1, l.Stats().AllocFailed)
}

// Test_Locked_Concurrent has every goroutine stamp its blocks with its own
// pattern and check nobody else wrote over them before freeing.
func Test_Locked_Concurrent(t *testing.T) {
	l, m := newTestLocked(t)
	const (
		workers = 8
		rounds  = 200
	)
	sizes := []uint64{8, 24, 64, 200, 1000, 3000}

	// The arena itself is not synchronized; every access goes through mu,
	// separate from the allocator lock under test.
	var mu sync.Mutex
	stamp := func(addr mem.VirtAddr, size uint64, pat byte) {
		mu.Lock()
		defer mu.Unlock()
		p := make([]byte, size)
		for i := range p {
			p[i] = pat
		}
		m.Write(addr, p)
	}
	check := func(addr mem.VirtAddr, size uint64, pat byte) bool {
		mu.Lock()
		defer mu.Unlock()
		p := make([]byte, size)
		m.Read(addr, p)
		for _, b := range p {
			if b != pat {
				return false
			}
		}
		return true
	}

	var wg sync.WaitGroup
	errs := make(chan string, workers)
	for w := range workers {
		wg.Add(1)
		go func(pat byte) {
			defer wg.Done()
			for r := range rounds {
				size := sizes[r%len(sizes)]
				lay := MustLayout(size, 8)
				addr := l.Alloc(lay)
				if addr == 0 {
					errs <- "allocation failed"
					return
				}
				stamp(addr, size, pat)
				if !check(addr, size, pat) {
					errs <- "block overwritten by another worker"
					return
				}
				l.Dealloc(addr, lay)
			}
		}(byte(w + 1))
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Fatal(e)
	}

	s := l.Stats()
	require.Equal(t, workers*rounds, s.AllocCalls)
	require.Equal(t, workers*rounds, s.FreeCalls)
	require.False(t, l.IsLocked())
}

// Test_FixedSizeBlock_RandomOps runs a seeded mix of allocations and frees
// and checks that live blocks never overlap, honor their alignment, and keep
// their contents.
func Test_FixedSizeBlock_RandomOps(t *testing.T) {
	fa, m := newTestAllocator(t)
	rng := rand.New(rand.NewPCG(1, 2))

	type live struct {
		span
		layout Layout
		tag    uint64
	}
	var blocks []live
	var tag uint64

	for range 5000 {
		if len(blocks) > 0 && rng.IntN(3) == 0 {
			i := rng.IntN(len(blocks))
			b := blocks[i]
			require.Equal(t, b.tag, m.ReadU64(b.addr), "block %s lost its contents", b.addr)
			fa.Dealloc(b.addr, b.layout)
			blocks[i] = blocks[len(blocks)-1]
			blocks = blocks[:len(blocks)-1]
			continue
		}

		size := uint64(8 + rng.IntN(4000))
		align := uint64(1) << rng.IntN(7)
		lay := MustLayout(size, align)
		addr := fa.Alloc(lay)
		if addr == 0 {
			continue
		}
		require.True(t, addr.IsAligned(align), "%s not aligned to %d", addr, align)
		tag++
		m.WriteU64(addr, tag)
		blocks = append(blocks, live{span: span{addr, size}, layout: lay, tag: tag})
	}

	spans := make([]span, len(blocks))
	for i, b := range blocks {
		spans[i] = b.span
	}
	requireDisjoint(t, spans)

	for _, b := range blocks {
		require.Equal(t, b.tag, m.ReadU64(b.addr))
		fa.Dealloc(b.addr, b.layout)
	}
}

func Benchmark_Locked_SmallFastPath(b *testing.B) {
	l, _ := newTestLocked(b)
	lay := MustLayout(32, 8)
	l.Dealloc(l.Alloc(lay), lay)

	b.ReportAllocs()
	for b.Loop() {
		l.Dealloc(l.Alloc(lay), lay)
	}
}

func Benchmark_LinkedList_FirstFit(b *testing.B) {
	h, _ := newTestLinkedList(b, testHeapSize)
	lay := MustLayout(4096, 8)

	b.ReportAllocs()
	for b.Loop() {
		addr, err := h.AllocateFirstFit(lay)
		if err != nil {
			b.Fatal(err)
		}
		h.Deallocate(addr, lay)
	}
}
