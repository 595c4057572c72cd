package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuapare/kheap/kernel"
)

var (
	stressOps  int
	stressSeed uint64
)

func init() {
	cmd := newStressCmd()
	cmd.Flags().IntVarP(&stressOps, "ops", "n", 100000, "Number of allocate/free operations")
	cmd.Flags().Uint64Var(&stressSeed, "seed", 1, "Random seed")
	rootCmd.AddCommand(cmd)
}

func newStressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stress",
		Short: "Run a randomized allocation workload",
		Long: `The stress command boots the machine and runs a seeded mix of
allocations and frees against the kernel heap, checking that live blocks
never overlap and never lose their contents.

Example:
  kheapctl stress -n 1000000 --seed 7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress(cmd.Context())
		},
	}
}

type stressOutput struct {
	kernel.StressReport
	Seed     uint64       `json:"seed"`
	Duration string       `json:"duration"`
	Final    kernel.Stats `json:"final"`
}

func runStress(ctx context.Context) (err error) {
	cfg, err := machineConfig()
	if err != nil {
		return err
	}
	k, err := kernel.Boot(ctx, cfg)
	if err != nil {
		return fmt.Errorf("boot failed: %w", err)
	}
	defer func() {
		err = errors.Join(err, k.Shutdown())
	}()

	printVerbose("Running %d operations with seed %d\n", stressOps, stressSeed)
	start := time.Now()
	rep, err := k.Stress(ctx, stressOps, stressSeed)
	if err != nil {
		return fmt.Errorf("stress failed after %d operations: %w", rep.Ops, err)
	}
	out := stressOutput{
		StressReport: rep,
		Seed:         stressSeed,
		Duration:     time.Since(start).String(),
		Final:        k.Stats(),
	}

	if jsonOut {
		return printJSON(out)
	}
	h := out.Final.Heap
	printInfo("Operations: %d (%d allocs, %d frees, %d failed)\n", rep.Ops, rep.Allocs, rep.Frees, rep.Failed)
	printInfo("Peak live:  %d blocks\n", rep.PeakLive)
	printInfo("Fast path:  %d, refills: %d, large: %d\n", h.AllocFastPath, h.AllocRefill, h.AllocLarge)
	printInfo("Duration:   %s\n", out.Duration)
	return nil
}
