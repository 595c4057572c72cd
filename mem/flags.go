package mem

import "strings"

// PageTableFlags are the x86_64 page table entry bits.
type PageTableFlags uint64

const (
	Present        PageTableFlags = 1 << 0
	Writable       PageTableFlags = 1 << 1
	UserAccessible PageTableFlags = 1 << 2
	WriteThrough   PageTableFlags = 1 << 3
	NoCache        PageTableFlags = 1 << 4
	Accessed       PageTableFlags = 1 << 5
	Dirty          PageTableFlags = 1 << 6
	HugePage       PageTableFlags = 1 << 7
	Global         PageTableFlags = 1 << 8
	NoExecute      PageTableFlags = 1 << 63
)

// AddrMask selects the physical address bits (12..51) of an entry.
const AddrMask uint64 = 0x000f_ffff_ffff_f000

// FlagMask selects the flag bits of an entry.
const FlagMask = ^AddrMask

var flagNames = []struct {
	f    PageTableFlags
	name string
}{
	{Present, "PRESENT"},
	{Writable, "WRITABLE"},
	{UserAccessible, "USER_ACCESSIBLE"},
	{WriteThrough, "WRITE_THROUGH"},
	{NoCache, "NO_CACHE"},
	{Accessed, "ACCESSED"},
	{Dirty, "DIRTY"},
	{HugePage, "HUGE_PAGE"},
	{Global, "GLOBAL"},
	{NoExecute, "NO_EXECUTE"},
}

// Has reports whether all bits in o are set.
func (f PageTableFlags) Has(o PageTableFlags) bool { return f&o == o }

func (f PageTableFlags) String() string {
	if f == 0 {
		return "(empty)"
	}
	var parts []string
	for _, n := range flagNames {
		if f.Has(n.f) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, " | ")
}
