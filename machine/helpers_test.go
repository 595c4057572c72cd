package machine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/kheap/mem"
)

// testHeapBase is a canonical address in the lower half with non-zero
// indices at every level.
const testHeapBase = mem.VirtAddr(0x4444_4444_0000)

type testMachine struct {
	phys   *PhysMemory
	frames *BootFrameAllocator
	pt     *PageTable
	as     *AddressSpace
}

func newTestMachine(t testing.TB, nframes int) *testMachine {
	t.Helper()
	phys, err := NewPhysMemory(nframes)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, phys.Close()) })

	frames := NewBootFrameAllocator(phys, 1)
	pt, err := NewPageTable(phys, frames)
	require.NoError(t, err)
	return &testMachine{phys: phys, frames: frames, pt: pt, as: NewAddressSpace(phys, pt)}
}

// mapPages maps n consecutive pages at base to fresh frames.
func (m *testMachine) mapPages(t testing.TB, base mem.VirtAddr, n int, flags mem.PageTableFlags) {
	t.Helper()
	page := mem.PageContaining(base)
	for range n {
		frame, ok := m.frames.AllocateFrame()
		require.True(t, ok)
		flush, err := m.pt.MapTo(page, frame, flags, m.frames)
		require.NoError(t, err)
		flush.Flush()
		page = page.Next()
	}
}

// faultOf runs fn and returns the *PageFault it panicked with, or nil.
func faultOf(fn func()) (pf *PageFault) {
	defer func() {
		if r := recover(); r != nil {
			if f, ok := r.(*PageFault); ok {
				pf = f
				return
			}
			panic(r)
		}
	}()
	fn()
	return nil
}
