package proc

import (
	"errors"
	"fmt"
	"time"
)

// StartError indicates the OS failed to spawn a process. The queued entry
// was already consumed when the error surfaced; resubmission is up to the
// caller.
type StartError struct {
	Name string
	Err  error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("failed to start %v: %v", e.Name, e.Err)
}

func (e *StartError) Unwrap() error { return e.Err }

// TimeoutError indicates a running process exceeded its configured timeout.
type TimeoutError struct {
	Name    string
	Pid     int
	Limit   time.Duration
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("process %v (pid %v) timed out after %s (limit %s)", e.Name, e.Pid, e.Elapsed, e.Limit)
}

// IsTimeout reports whether err wraps a *TimeoutError.
func IsTimeout(err error) bool {
	var timeout *TimeoutError
	return errors.As(err, &timeout)
}

// IsStartFailure reports whether err wraps a *StartError.
func IsStartFailure(err error) bool {
	var start *StartError
	return errors.As(err, &start)
}
