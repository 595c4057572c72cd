package machine

import (
	"errors"
	"fmt"

	"github.com/joshuapare/kheap/mem"
)

var (
	// ErrFrameAllocationFailed indicates the frame allocator ran out of frames.
	ErrFrameAllocationFailed = errors.New("machine: frame allocation failed")

	// ErrParentEntryHugePage indicates a higher-level entry maps a huge page,
	// so no lower-level table exists to hold the mapping.
	ErrParentEntryHugePage = errors.New("machine: parent entry is a huge page")

	// ErrPageAlreadyMapped indicates the page already has a present mapping.
	ErrPageAlreadyMapped = errors.New("machine: page already mapped")

	// ErrPageNotMapped indicates the page has no present mapping.
	ErrPageNotMapped = errors.New("machine: page not mapped")

	// ErrPhysOutOfRange indicates a physical address beyond installed RAM.
	ErrPhysOutOfRange = errors.New("machine: physical address out of range")
)

// MapToError describes a failed MapTo call.
type MapToError struct {
	Err   error
	Page  mem.Page
	Frame mem.Frame
}

func (e *MapToError) Error() string {
	return fmt.Sprintf("map %s -> %s: %v", e.Page, e.Frame, e.Err)
}

func (e *MapToError) Unwrap() error { return e.Err }

// PageFault is raised (via panic) when an AddressSpace access cannot be
// translated or violates the page's permissions.
type PageFault struct {
	Addr    mem.VirtAddr
	Write   bool
	Present bool // the page was present, so this is a protection violation
}

func (f *PageFault) Error() string {
	access := "read"
	if f.Write {
		access = "write"
	}
	cause := "page not present"
	if f.Present {
		cause = "protection violation"
	}
	return fmt.Sprintf("page fault: %s at %s (%s)", access, f.Addr, cause)
}
