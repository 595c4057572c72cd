package heap

import "fmt"

const (
	// linkSize and linkAlign describe a free-list link (one address word).
	linkSize  = 8
	linkAlign = 8

	// smallestBlock is the first entry of blockSizes.
	smallestBlock = 8

	// NumClasses is the number of block sizes.
	NumClasses = len(blockSizes)
)

// Every block must be able to hold a free-list link. These fail to compile
// if smallestBlock is ever lowered below the link's size or alignment.
const (
	_ uint = smallestBlock - linkSize
	_ uint = smallestBlock - linkAlign
)

// blockSizes are the block sizes served from free lists, ascending. Each is
// also used as the block's alignment, so each must be a power of two.
var blockSizes = [...]uint64{smallestBlock, 16, 32, 64, 128, 256, 512, 1024, 2048}

// BlockSizes returns a copy of the block size table, indexed by class.
func BlockSizes() [NumClasses]uint64 { return blockSizes }

func init() {
	for i, s := range blockSizes {
		if s&(s-1) != 0 {
			panic(fmt.Sprintf("heap: block size %d is not a power of two", s))
		}
		if i > 0 && s <= blockSizes[i-1] {
			panic(fmt.Sprintf("heap: block sizes not strictly increasing at %d", s))
		}
	}
}

// listIndex returns the smallest class whose block size is at least
// max(size, align), or false when the request must go to the fallback.
func listIndex(l Layout) (int, bool) {
	required := max(l.size, l.align)
	for i, s := range blockSizes {
		if s >= required {
			return i, true
		}
	}
	return 0, false
}

// ClassFor reports which class would serve l.
func ClassFor(l Layout) (class int, ok bool) {
	return listIndex(l)
}
