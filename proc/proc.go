package proc

import "context"

// Callback notifies interested parties about a process lifecycle event.
type Callback func(Process)

// Process is the contract the scheduler requires from a spawnable unit of
// work. Implementations own the actual OS surface: spawning, stream wiring,
// signalling and timeout enforcement. The scheduler only starts a process,
// reads its identifier and polls liveness/timeout.
type Process interface {
	// Start launches the process. onComplete, when non-nil, is invoked
	// exactly once after the process stops running; env entries override
	// the process environment for this start. Spawn failures are reported
	// as *StartError.
	Start(ctx context.Context, onComplete Callback, env map[string]string) error

	// Pid returns the OS process identifier. ok is false when the process
	// has not been started yet or already exited - very short-lived work
	// may legitimately finish before its identifier can be observed.
	Pid() (pid int, ok bool)

	// IsRunning reports whether the process is still running.
	IsRunning() bool

	// CheckTimeout verifies the process against its configured timeout and
	// returns *TimeoutError when exceeded. Implementations may terminate
	// the process as a side effect; that policy is theirs.
	CheckTimeout() error
}
