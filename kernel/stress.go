package kernel

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/joshuapare/kheap/kalloc"
	"github.com/joshuapare/kheap/mem"
)

// StressReport summarizes a Stress run.
type StressReport struct {
	Ops      int `json:"ops"`
	Allocs   int `json:"allocs"`
	Frees    int `json:"frees"`
	Failed   int `json:"failed"`
	PeakLive int `json:"peak_live"`
}

type liveBlock struct {
	addr        mem.VirtAddr
	size, align uint64
	tag         uint64
}

func (b liveBlock) end() mem.VirtAddr { return b.addr.Add(b.size) }

// maxStressSize keeps most requests inside the size classes while still
// sending some to the fallback.
const maxStressSize = 3000

// Stress runs ops random allocations and frees against the global heap.
// Every live block is tagged through the address space; the run fails with
// ErrCorruption if two live blocks overlap or a tag changes. Blocks still
// live at the end are freed.
func (k *Kernel) Stress(ctx context.Context, ops int, seed uint64) (StressReport, error) {
	var rep StressReport
	if k.down {
		return rep, ErrShutdown
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	var live []liveBlock
	defer func() {
		for _, b := range live {
			kalloc.Dealloc(b.addr, b.size, b.align)
		}
	}()

	var tag uint64
	for i := range ops {
		if i%64 == 0 {
			if err := ctx.Err(); err != nil {
				return rep, err
			}
		}
		rep.Ops++

		if len(live) > 0 && rng.IntN(5) < 2 {
			j := rng.IntN(len(live))
			b := live[j]
			if got := k.as.ReadU64(b.addr); got != b.tag {
				return rep, fmt.Errorf("%w: block %s tag %d, want %d", ErrCorruption, b.addr, got, b.tag)
			}
			kalloc.Dealloc(b.addr, b.size, b.align)
			live[j] = live[len(live)-1]
			live = live[:len(live)-1]
			rep.Frees++
			continue
		}

		b := liveBlock{
			size:  uint64(8 + rng.IntN(maxStressSize)),
			align: uint64(1) << rng.IntN(7),
		}
		b.addr = kalloc.Alloc(b.size, b.align)
		if b.addr.IsNull() {
			rep.Failed++
			continue
		}
		if !b.addr.IsAligned(b.align) {
			return rep, fmt.Errorf("%w: block %s not aligned to %d", ErrCorruption, b.addr, b.align)
		}
		for _, o := range live {
			if b.addr < o.end() && o.addr < b.end() {
				return rep, fmt.Errorf("%w: block %s+%d overlaps %s+%d", ErrCorruption, b.addr, b.size, o.addr, o.size)
			}
		}
		tag++
		b.tag = tag
		k.as.WriteU64(b.addr, b.tag)
		live = append(live, b)
		rep.Allocs++
		rep.PeakLive = max(rep.PeakLive, len(live))
	}

	k.log.Debug("stress run finished",
		"ops", rep.Ops, "allocs", rep.Allocs, "frees", rep.Frees,
		"failed", rep.Failed, "peak_live", rep.PeakLive)
	return rep, nil
}
