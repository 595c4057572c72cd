package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/kheap/kalloc"
	"github.com/joshuapare/kheap/kernel"
)

func init() {
	rootCmd.AddCommand(newBootCmd())
}

func newBootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "boot",
		Short: "Boot the machine and report heap state",
		Long: `The boot command installs RAM, builds the page tables, maps the kernel
heap, and prints the resulting machine and allocator state.

Example:
  kheapctl boot
  kheapctl boot --frames 64 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBoot(cmd.Context())
		},
	}
}

func runBoot(ctx context.Context) (err error) {
	cfg, err := machineConfig()
	if err != nil {
		return err
	}
	printVerbose("Booting with %d frames (%d reserved)\n", cfg.PhysFrames, cfg.ReservedFrames)

	k, err := kernel.Boot(ctx, cfg)
	if err != nil {
		return fmt.Errorf("boot failed: %w", err)
	}
	defer func() {
		err = errors.Join(err, k.Shutdown())
	}()

	s := k.Stats()
	if jsonOut {
		return printJSON(s)
	}

	printInfo("Machine\n")
	printInfo("  RAM:          %d frames (%d KiB)\n", s.PhysFrames, s.PhysFrames*4)
	printInfo("  Boot frames:  %d\n", s.BootFrames)
	printInfo("  Spare frames: %d\n", s.FreeFrames)
	printInfo("  Page tables:  %d\n", s.PageTables)
	printInfo("  Pages mapped: %d\n", s.PagesMapped)
	printInfo("\nHeap\n")
	printInfo("  Range: %s - %s\n", kalloc.HeapStart, kalloc.HeapStart.Add(kalloc.HeapSize))
	printInfo("  Size:  %d bytes\n", s.Heap.HeapSize)
	printInfo("  Free:  %d bytes in %d hole(s)\n", s.Heap.FallbackFree, s.Heap.FallbackHoles)
	return nil
}
