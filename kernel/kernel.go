// Package kernel boots the simulated machine: it installs RAM, builds the
// page tables, maps and initializes the kernel heap, and hands the leftover
// frames to the runtime frame allocator.
package kernel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/joshuapare/kheap/console"
	"github.com/joshuapare/kheap/heap"
	"github.com/joshuapare/kheap/kalloc"
	"github.com/joshuapare/kheap/machine"
	"github.com/joshuapare/kheap/mem"
)

var booted atomic.Bool

// Kernel is a booted machine. Only one may exist at a time.
type Kernel struct {
	cfg Config
	log *slog.Logger

	cpu     *machine.CPU
	serial  *console.Writer
	display *console.Writer
	phys    *machine.PhysMemory
	boot    *machine.BootFrameAllocator
	frames  *machine.FreeListFrameAllocator
	pt      *machine.PageTable
	as      *machine.AddressSpace

	down bool
}

// Stats is a snapshot of the machine and its heap.
type Stats struct {
	Heap         heap.Stats       `json:"heap"`
	PhysFrames   int              `json:"phys_frames"`
	BootFrames   int              `json:"boot_frames"`
	FreeFrames   int              `json:"free_frames"`
	PagesMapped  int              `json:"pages_mapped"`
	PageTables   int              `json:"page_tables"`
	TLB          machine.TLBStats `json:"tlb"`
	InterruptsOn bool             `json:"interrupts_on"`
}

// Boot brings up a machine described by cfg and initializes the global
// heap on it.
func Boot(ctx context.Context, cfg Config) (*Kernel, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !booted.CompareAndSwap(false, true) {
		return nil, ErrAlreadyBooted
	}

	k, err := boot(cfg)
	if err != nil {
		kalloc.Allocator.Reset()
		booted.Store(false)
		return nil, err
	}
	return k, nil
}

func boot(cfg Config) (*Kernel, error) {
	out := cfg.LogOutput
	if out == nil {
		out = io.Discard
	}
	screen := cfg.Display
	if screen == nil {
		screen = io.Discard
	}
	cpu := machine.NewCPU()
	serial := console.NewSerial(out, cpu)
	display := console.NewDisplay(screen, cpu)
	log := console.NewLogger(serial, cfg.LogLevel)

	heap.SetLogger(log)
	heap.SetLogAlloc(cfg.LogAlloc)
	kalloc.SetLogger(log)

	phys, err := machine.NewPhysMemory(cfg.PhysFrames)
	if err != nil {
		return nil, fmt.Errorf("kernel: install RAM: %w", err)
	}
	bootFrames := machine.NewBootFrameAllocator(phys, cfg.ReservedFrames)
	pt, err := machine.NewPageTable(phys, bootFrames)
	if err != nil {
		return nil, errors.Join(err, phys.Close())
	}
	as := machine.NewAddressSpace(phys, pt)

	if err := kalloc.InitHeap(as, bootFrames); err != nil {
		log.Error("heap initialization failed", "err", err, "frames", cfg.PhysFrames)
		return nil, errors.Join(fmt.Errorf("kernel: %w", err), phys.Close())
	}

	frames := machine.NewFreeListFrameAllocator(phys)
	spare := bootFrames.Handoff(frames)

	log.Info("kernel booted",
		"ram_frames", cfg.PhysFrames,
		"boot_frames", bootFrames.Allocated(),
		"spare_frames", spare,
		"heap_start", kalloc.HeapStart.String(),
		"heap_size", kalloc.HeapSize)

	fmt.Fprintf(display, "kheap: %d KiB heap at %s\n", kalloc.HeapSize/1024, kalloc.HeapStart)

	return &Kernel{
		cfg:     cfg,
		log:     log,
		cpu:     cpu,
		serial:  serial,
		display: display,
		phys:    phys,
		boot:    bootFrames,
		frames:  frames,
		pt:      pt,
		as:      as,
	}, nil
}

// Memory returns the kernel address space.
func (k *Kernel) Memory() *machine.AddressSpace { return k.as }

// CPU returns the interrupt controller.
func (k *Kernel) CPU() *machine.CPU { return k.cpu }

// Serial returns the serial console.
func (k *Kernel) Serial() *console.Writer { return k.serial }

// Display returns the text screen. It shares no lock with Serial.
func (k *Kernel) Display() *console.Writer { return k.display }

// Logger returns the kernel logger, which writes to the serial console.
func (k *Kernel) Logger() *slog.Logger { return k.log }

// Stats returns a snapshot of the machine and heap.
func (k *Kernel) Stats() Stats {
	return Stats{
		Heap:         kalloc.Allocator.Stats(),
		PhysFrames:   k.phys.Frames(),
		BootFrames:   k.boot.Allocated(),
		FreeFrames:   k.frames.Free(),
		PagesMapped:  k.pt.Mapped(),
		PageTables:   k.pt.Tables(),
		TLB:          k.pt.TLB().Stats(),
		InterruptsOn: k.cpu.Enabled(),
	}
}

// MapRegion maps n pages starting at the page containing start to spare
// frames. On failure the pages mapped so far are unmapped again.
func (k *Kernel) MapRegion(start mem.VirtAddr, n int, flags mem.PageTableFlags) error {
	if k.down {
		return ErrShutdown
	}
	page := mem.PageContaining(start)
	for i := range n {
		frame, ok := k.frames.AllocateFrame()
		if !ok {
			k.unmapN(mem.PageContaining(start), i)
			return fmt.Errorf("kernel: map %s: %w", page, machine.ErrFrameAllocationFailed)
		}
		flush, err := k.as.MapTo(page, frame, flags, k.frames)
		if err != nil {
			k.frames.DeallocateFrame(frame)
			k.unmapN(mem.PageContaining(start), i)
			return fmt.Errorf("kernel: %w", err)
		}
		flush.Flush()
		page = page.Next()
	}
	return nil
}

// UnmapRegion unmaps n pages starting at the page containing start and
// returns their frames to the spare pool.
func (k *Kernel) UnmapRegion(start mem.VirtAddr, n int) error {
	if k.down {
		return ErrShutdown
	}
	page := mem.PageContaining(start)
	for range n {
		frame, flush, err := k.as.Unmap(page)
		if err != nil {
			return fmt.Errorf("kernel: %w", err)
		}
		flush.Flush()
		k.frames.DeallocateFrame(frame)
		page = page.Next()
	}
	return nil
}

func (k *Kernel) unmapN(start mem.Page, n int) {
	page := start
	for range n {
		if frame, flush, err := k.as.Unmap(page); err == nil {
			flush.Flush()
			k.frames.DeallocateFrame(frame)
		}
		page = page.Next()
	}
}

// Shutdown forgets the heap and releases simulated RAM. Every address
// obtained from the heap becomes invalid.
func (k *Kernel) Shutdown() error {
	if k.down {
		return nil
	}
	k.down = true
	kalloc.Allocator.Reset()
	err := k.phys.Close()
	booted.Store(false)
	k.log.Info("kernel shut down")
	return err
}
