package mem

import "fmt"

const (
	// PageShift is log2(PageSize).
	PageShift = 12

	// PageSize is the size of a 4KiB page and frame.
	PageSize = 1 << PageShift

	// entriesPerTable is the number of entries in each level of page table.
	entriesPerTable = 512

	// canonicalBits is the number of significant virtual address bits.
	canonicalBits = 48
)

// VirtAddr is a canonical 64-bit virtual address.
type VirtAddr uint64

// PhysAddr is a 64-bit physical address.
type PhysAddr uint64

// NewVirtAddr validates that addr is canonical.
func NewVirtAddr(addr uint64) (VirtAddr, error) {
	if VirtAddr(addr).IsCanonical() {
		return VirtAddr(addr), nil
	}
	return 0, fmt.Errorf("%w: 0x%x", ErrNonCanonical, addr)
}

// IsCanonical reports whether bits 48..63 sign-extend bit 47.
func (a VirtAddr) IsCanonical() bool {
	upper := uint64(a) >> (canonicalBits - 1)
	return upper == 0 || upper == (1<<(64-canonicalBits+1))-1
}

// IsNull reports whether a is the null address.
func (a VirtAddr) IsNull() bool { return a == 0 }

// Add returns a+n.
func (a VirtAddr) Add(n uint64) VirtAddr { return a + VirtAddr(n) }

// AlignUp rounds a up to align.
func (a VirtAddr) AlignUp(align uint64) VirtAddr { return VirtAddr(AlignUp(uint64(a), align)) }

// IsAligned reports whether a is a multiple of align.
func (a VirtAddr) IsAligned(align uint64) bool { return IsAligned(uint64(a), align) }

// PageOffset returns the low 12 bits of a.
func (a VirtAddr) PageOffset() uint64 { return uint64(a) & (PageSize - 1) }

// P4Index returns the level-4 table index of a.
func (a VirtAddr) P4Index() int { return tableIndex(a, 3) }

// P3Index returns the level-3 table index of a.
func (a VirtAddr) P3Index() int { return tableIndex(a, 2) }

// P2Index returns the level-2 table index of a.
func (a VirtAddr) P2Index() int { return tableIndex(a, 1) }

// P1Index returns the level-1 table index of a.
func (a VirtAddr) P1Index() int { return tableIndex(a, 0) }

// TableIndex returns the index into the page table at the given level
// (0 for P1, 3 for P4).
func (a VirtAddr) TableIndex(level int) int { return tableIndex(a, level) }

func tableIndex(a VirtAddr, level int) int {
	return int((uint64(a) >> (PageShift + 9*uint(level))) & (entriesPerTable - 1))
}

func (a VirtAddr) String() string { return fmt.Sprintf("0x%x", uint64(a)) }

// Add returns a+n.
func (a PhysAddr) Add(n uint64) PhysAddr { return a + PhysAddr(n) }

// IsAligned reports whether a is a multiple of align.
func (a PhysAddr) IsAligned(align uint64) bool { return IsAligned(uint64(a), align) }

func (a PhysAddr) String() string { return fmt.Sprintf("0x%x", uint64(a)) }
