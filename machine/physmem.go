package machine

import (
	"fmt"

	"github.com/joshuapare/kheap/internal/buf"
	"github.com/joshuapare/kheap/internal/mmfile"
	"github.com/joshuapare/kheap/mem"
)

// PhysMemory is simulated RAM: frames [0, Frames()) starting at physical 0.
type PhysMemory struct {
	data    []byte
	cleanup func() error
}

// NewPhysMemory installs frames*PageSize bytes of zeroed RAM.
func NewPhysMemory(frames int) (*PhysMemory, error) {
	if frames <= 0 {
		return nil, fmt.Errorf("machine: need at least one frame, got %d", frames)
	}
	size, ok := buf.MulU64OverflowSafe(uint64(frames), mem.PageSize)
	if !ok || size > uint64(int(^uint(0)>>1)) {
		return nil, fmt.Errorf("machine: %d frames overflow the address space", frames)
	}
	data, cleanup, err := mmfile.MapAnon(int(size))
	if err != nil {
		return nil, fmt.Errorf("machine: install RAM: %w", err)
	}
	return &PhysMemory{data: data, cleanup: cleanup}, nil
}

// Frames returns the number of installed frames.
func (m *PhysMemory) Frames() int { return len(m.data) / mem.PageSize }

// Size returns the installed RAM in bytes.
func (m *PhysMemory) Size() uint64 { return uint64(len(m.data)) }

// Contains reports whether frame f is backed by RAM.
func (m *PhysMemory) Contains(f mem.Frame) bool {
	return f.Number() < uint64(m.Frames())
}

// Slice returns the n bytes at addr.
func (m *PhysMemory) Slice(addr mem.PhysAddr, n int) ([]byte, error) {
	if uint64(addr) > uint64(len(m.data)) {
		return nil, fmt.Errorf("%w: %s", ErrPhysOutOfRange, addr)
	}
	b, ok := buf.Slice(m.data, int(addr), n)
	if !ok {
		return nil, fmt.Errorf("%w: %s+%d", ErrPhysOutOfRange, addr, n)
	}
	return b, nil
}

// ReadU64 reads the little-endian word at addr. A read past installed RAM is
// a machine check and panics.
func (m *PhysMemory) ReadU64(addr mem.PhysAddr) uint64 {
	return buf.U64LE(m.mustSlice(addr, 8))
}

// WriteU64 writes v at addr. A write past installed RAM panics.
func (m *PhysMemory) WriteU64(addr mem.PhysAddr, v uint64) {
	buf.PutU64LE(m.mustSlice(addr, 8), v)
}

// ZeroFrame clears every byte of f.
func (m *PhysMemory) ZeroFrame(f mem.Frame) {
	buf.Zero(m.mustSlice(f.StartAddress(), mem.PageSize))
}

// Close releases the backing mapping. The memory must not be used afterwards.
func (m *PhysMemory) Close() error {
	if m.cleanup == nil {
		return nil
	}
	err := m.cleanup()
	m.cleanup = nil
	m.data = nil
	return err
}

func (m *PhysMemory) mustSlice(addr mem.PhysAddr, n int) []byte {
	b, err := m.Slice(addr, n)
	if err != nil {
		panic(err)
	}
	return b
}
