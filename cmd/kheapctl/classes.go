package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/kheap/heap"
)

func init() {
	rootCmd.AddCommand(newClassesCmd())
}

func newClassesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classes",
		Short: "List the allocator's block size classes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClasses()
		},
	}
}

type classInfo struct {
	Class int    `json:"class"`
	Size  uint64 `json:"size"`
}

func runClasses() error {
	sizes := heap.BlockSizes()
	classes := make([]classInfo, len(sizes))
	for i, bs := range sizes {
		classes[i] = classInfo{Class: i, Size: bs}
	}

	if jsonOut {
		return printJSON(classes)
	}
	printInfo("CLASS  BLOCK SIZE\n")
	for _, c := range classes {
		printInfo("%5d  %10d\n", c.Class, c.Size)
	}
	printVerbose("Larger requests, or alignments above %d, go to the fallback heap\n",
		sizes[len(sizes)-1])
	return nil
}
