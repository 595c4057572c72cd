package heap

import "errors"

var (
	// ErrNoSpace indicates that no hole large enough was found.
	ErrNoSpace = errors.New("heap: no hole large enough")

	// ErrBadLayout indicates a zero or non power-of-two alignment, or a size
	// that overflows when rounded up to its alignment.
	ErrBadLayout = errors.New("heap: invalid layout")

	// ErrHeapTooSmall indicates Init was given a region that cannot hold a
	// single hole.
	ErrHeapTooSmall = errors.New("heap: region too small")

	// ErrNullRegion indicates Init was given a region starting at address 0,
	// which is reserved as the null address.
	ErrNullRegion = errors.New("heap: region starts at null")
)
