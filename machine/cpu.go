package machine

import "sync/atomic"

// CPU models the interrupt flag (RFLAGS.IF) of the executing processor.
type CPU struct {
	interrupts atomic.Bool
}

// NewCPU returns a CPU with interrupts enabled.
func NewCPU() *CPU {
	c := &CPU{}
	c.interrupts.Store(true)
	return c
}

// Disable masks interrupts and reports whether they were enabled (cli).
func (c *CPU) Disable() bool { return c.interrupts.Swap(false) }

// Enable unmasks interrupts (sti).
func (c *CPU) Enable() { c.interrupts.Store(true) }

// Enabled reports the current interrupt flag.
func (c *CPU) Enabled() bool { return c.interrupts.Load() }

// WithoutInterrupts runs fn with interrupts masked and then restores the
// previous state.
func (c *CPU) WithoutInterrupts(fn func()) {
	was := c.Disable()
	defer func() {
		if was {
			c.Enable()
		}
	}()
	fn()
}
