// Package spin provides a busy-wait mutual exclusion lock usable before any
// scheduler exists and from interrupt context.
//
// # Usage
//
//	var counter = spin.New(0)
//
//	g := counter.Lock()
//	defer g.Unlock()
//	*g.Get()++
//
// The Guard returned by Lock and TryLock is the only way to reach the
// protected value. Releasing it resets the flag; at most one live Guard
// exists per Lock.
//
// # Hazards
//
// Lock is not reentrant. Taking the same lock twice from one execution
// context without releasing it in between spins forever. Interrupt handlers
// that may contend for a lock held by the code they interrupt must be kept
// out with LockIRQ, which masks interrupts for the length of the critical
// section.
//
// The lock protects the value only against paths that go through it. Any
// pointer obtained from Get must not be retained past Unlock.
package spin
