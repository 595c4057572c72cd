package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/kheap/kernel"
)

var (
	// Global flags
	verbose    bool
	quiet      bool
	jsonOut    bool
	physFrames int
	logAlloc   bool
)

var rootCmd = &cobra.Command{
	Use:   "kheapctl",
	Short: "Boot and exercise the simulated kernel heap",
	Long: `kheapctl boots a simulated x86_64 machine, maps the kernel heap into
its page tables, and lets you inspect and exercise the segregated
fixed-size block allocator that serves it.`,
	Version: "0.1.0",
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().
		IntVar(&physFrames, "frames", 0, "Installed RAM in 4KiB frames (default from "+kernel.EnvPhysFrames+" or 256)")
	rootCmd.PersistentFlags().
		BoolVar(&logAlloc, "log-alloc", false, "Log allocator failures to the serial console")
}

func execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// machineConfig builds the kernel config from the environment and flags.
func machineConfig() (kernel.Config, error) {
	cfg, err := kernel.ConfigFromEnv()
	if err != nil {
		return cfg, err
	}
	if physFrames > 0 {
		cfg.PhysFrames = physFrames
	}
	if logAlloc {
		cfg.LogAlloc = true
	}
	if verbose && !quiet {
		cfg.LogOutput = os.Stderr
	}
	return cfg, nil
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
