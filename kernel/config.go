package kernel

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
)

// Environment overrides read by ConfigFromEnv.
const (
	EnvLogAlloc   = "KHEAP_LOG_ALLOC"
	EnvPhysFrames = "KHEAP_PHYS_FRAMES"
)

// Config describes the simulated machine and the kernel's diagnostics.
type Config struct {
	PhysFrames     int // installed RAM in 4KiB frames
	ReservedFrames int // low frames never handed to allocators (firmware, kernel image)

	LogLevel  slog.Level
	LogOutput io.Writer // serial console sink; nil discards
	Display   io.Writer // VGA text screen sink (CP437); nil discards
	LogAlloc  bool      // log allocator failures
}

// DefaultConfig returns a machine with 1MiB of RAM, enough for the heap,
// its page tables, and a pool of spare frames.
func DefaultConfig() Config {
	return Config{
		PhysFrames:     256,
		ReservedFrames: 16,
		LogLevel:       slog.LevelInfo,
	}
}

// ConfigFromEnv returns DefaultConfig with environment overrides applied.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if os.Getenv(EnvLogAlloc) != "" {
		cfg.LogAlloc = true
	}
	if v := os.Getenv(EnvPhysFrames); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("kernel: %s=%q: %w", EnvPhysFrames, v, err)
		}
		cfg.PhysFrames = n
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.PhysFrames <= 0 {
		return fmt.Errorf("%w: %d physical frames", ErrBadConfig, c.PhysFrames)
	}
	if c.ReservedFrames < 0 || c.ReservedFrames >= c.PhysFrames {
		return fmt.Errorf("%w: %d reserved of %d frames", ErrBadConfig, c.ReservedFrames, c.PhysFrames)
	}
	return nil
}
