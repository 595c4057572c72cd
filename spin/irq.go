package spin

// Interrupts is the interrupt flag of the executing CPU.
type Interrupts interface {
	// Disable masks interrupts and reports whether they were enabled before.
	Disable() (wasEnabled bool)

	// Enable unmasks interrupts.
	Enable()
}

// LockIRQ masks interrupts on irq, then acquires the lock. Releasing the
// guard drops the lock first and then restores the interrupt state that was
// in effect before the call.
func (l *Lock[T]) LockIRQ(irq Interrupts) *Guard[T] {
	wasEnabled := irq.Disable()
	g := l.Lock()
	if wasEnabled {
		g.restore = irq.Enable
	}
	return g
}

// WithIRQ runs fn with interrupts masked and the lock held.
func (l *Lock[T]) WithIRQ(irq Interrupts, fn func(*T)) {
	g := l.LockIRQ(irq)
	defer g.Unlock()
	fn(g.Get())
}
