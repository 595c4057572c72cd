package machine

import (
	"github.com/joshuapare/kheap/mem"
	"github.com/joshuapare/kheap/spin"
)

type tlbEntry struct {
	frame mem.Frame
	flags mem.PageTableFlags
}

// TLB caches page translations. Like the hardware it models it is not kept
// coherent with the page tables: after changing a present mapping the
// affected page must be flushed or the old translation stays in use.
type TLB struct {
	entries *spin.Lock[map[mem.Page]tlbEntry]

	hits, misses, flushes uint64
}

// NewTLB returns an empty TLB.
func NewTLB() *TLB {
	return &TLB{entries: spin.New(make(map[mem.Page]tlbEntry))}
}

func (t *TLB) lookup(p mem.Page) (tlbEntry, bool) {
	g := t.entries.Lock()
	defer g.Unlock()
	e, ok := (*g.Get())[p]
	if ok {
		t.hits++
	} else {
		t.misses++
	}
	return e, ok
}

func (t *TLB) fill(p mem.Page, e tlbEntry) {
	g := t.entries.Lock()
	(*g.Get())[p] = e
	g.Unlock()
}

// Flush drops the cached translation for p (invlpg).
func (t *TLB) Flush(p mem.Page) {
	g := t.entries.Lock()
	delete(*g.Get(), p)
	t.flushes++
	g.Unlock()
}

// FlushAll drops every cached translation (mov cr3).
func (t *TLB) FlushAll() {
	g := t.entries.Lock()
	clear(*g.Get())
	t.flushes++
	g.Unlock()
}

// TLBStats reports cache activity.
type TLBStats struct {
	Entries int    `json:"entries"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Flushes uint64 `json:"flushes"`
}

// Stats returns a snapshot of the cache counters.
func (t *TLB) Stats() TLBStats {
	g := t.entries.Lock()
	defer g.Unlock()
	return TLBStats{
		Entries: len(*g.Get()),
		Hits:    t.hits,
		Misses:  t.misses,
		Flushes: t.flushes,
	}
}

// Flush is returned by page table updates. The new mapping is only
// guaranteed to be visible once Flush has been called.
type Flush struct {
	tlb  *TLB
	page mem.Page
}

// NewFlush returns a token that flushes page from tlb.
func NewFlush(tlb *TLB, page mem.Page) Flush {
	return Flush{tlb: tlb, page: page}
}

// Flush invalidates the TLB entry of the updated page.
func (f Flush) Flush() {
	if f.tlb != nil {
		f.tlb.Flush(f.page)
	}
}

// Ignore discards the token without flushing. Only correct when the page
// is known not to be cached, e.g. before paging is switched on.
func (f Flush) Ignore() {}

// Page returns the page whose mapping changed.
func (f Flush) Page() mem.Page { return f.page }
