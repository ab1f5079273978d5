// Package spawnq bounds the number of externally spawned child processes
// running concurrently. Submitted work is queued in strict FIFO order and
// dispatched as capacity frees up; completion is detected by cooperative
// polling, never by blocking on the processes themselves.
//
// The Scheduler only decides which processes may exist concurrently - the
// actual spawning, stream wiring and timeout enforcement belong to the
// proc.Process collaborator (see proc.Command for the os/exec
// implementation and the shell package for session-based execution).
//
// Typical usage:
//
//	s := spawnq.New(spawnq.WithParallelism(4))
//	_ = s.Submit(ctx, proc.NewCommand("make", "build"), nil, nil)
//	_ = s.Submit(ctx, proc.NewCommand("make", "test"), nil, nil)
//	_ = s.WaitAll(ctx)
//
// The scheduler is single-threaded by contract: one logical caller drives
// it at a time. See the Scheduler type for details.
package spawnq
