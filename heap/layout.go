package heap

import (
	"fmt"
	"math"

	"github.com/joshuapare/kheap/mem"
)

// Layout is the size and alignment of an allocation request.
type Layout struct {
	size  uint64
	align uint64
}

// NewLayout validates size and align. align must be a power of two and
// size rounded up to align must not exceed math.MaxInt64.
func NewLayout(size, align uint64) (Layout, error) {
	if !mem.IsPowerOfTwo(align) {
		return Layout{}, fmt.Errorf("%w: align %d is not a power of two", ErrBadLayout, align)
	}
	if align > math.MaxInt64 || size > math.MaxInt64-(align-1) {
		return Layout{}, fmt.Errorf("%w: size %d overflows at align %d", ErrBadLayout, size, align)
	}
	return Layout{size: size, align: align}, nil
}

// MustLayout is NewLayout for arguments known to be valid.
func MustLayout(size, align uint64) Layout {
	l, err := NewLayout(size, align)
	if err != nil {
		panic(err)
	}
	return l
}

// Size returns the requested size in bytes.
func (l Layout) Size() uint64 { return l.size }

// Align returns the requested alignment in bytes.
func (l Layout) Align() uint64 { return l.align }

func (l Layout) String() string {
	return fmt.Sprintf("Layout{size: %d, align: %d}", l.size, l.align)
}
