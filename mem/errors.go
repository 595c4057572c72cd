package mem

import "errors"

var (
	// ErrNonCanonical indicates a virtual address whose upper 16 bits are not
	// a sign extension of bit 47.
	ErrNonCanonical = errors.New("mem: non-canonical virtual address")

	// ErrUnaligned indicates an address that must be page aligned but is not.
	ErrUnaligned = errors.New("mem: address not page aligned")
)
