package kernel

import "errors"

var (
	// ErrBadConfig indicates an unusable machine configuration.
	ErrBadConfig = errors.New("kernel: bad config")

	// ErrAlreadyBooted indicates Boot was called while another kernel is
	// running. The heap is process-wide, so only one kernel can own it.
	ErrAlreadyBooted = errors.New("kernel: already booted")

	// ErrShutdown indicates use of a kernel after Shutdown.
	ErrShutdown = errors.New("kernel: shut down")

	// ErrCorruption indicates the stress workload found overlapping blocks
	// or a block whose contents changed while it was live.
	ErrCorruption = errors.New("kernel: heap corruption")
)
