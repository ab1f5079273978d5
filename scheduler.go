package spawnq

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spawnq/spawnq/event"
	"github.com/spawnq/spawnq/internal/clock"
	"github.com/spawnq/spawnq/internal/fifo"
	"github.com/spawnq/spawnq/internal/idgen"
	"github.com/spawnq/spawnq/proc"
	"github.com/spawnq/spawnq/tracing"
)

// Hook is a scheduler-level lifecycle callback. The start hook runs before a
// process is started, the finish hook after a process was observed no longer
// running. Hooks run synchronously on the scheduler's own call stack.
type Hook func(proc.Process)

// pendingEntry is a submitted, not yet started unit of work. It is consumed
// exactly once, when dispatched.
type pendingEntry struct {
	id         string
	handle     proc.Process
	onComplete proc.Callback
	env        map[string]string
}

// runningEntry tracks a started, not yet finished process.
type runningEntry struct {
	id     string
	handle proc.Process
	span   *tracing.Span
}

// Scheduler bounds the number of concurrently running OS processes. Work is
// queued in submission order and dispatched as capacity frees up; completion
// is detected by polling, and each observed completion immediately considers
// starting the next queued item.
//
// The scheduler is single-threaded and cooperative: all state transitions
// happen on the call stack of whichever public operation was invoked. Only
// one logical caller may drive it at a time; wrap calls in a mutex when
// multiple goroutines need access.
type Scheduler struct {
	parallelism  int
	pollInterval time.Duration
	startDelay   time.Duration
	onStart      Hook
	onFinish     Hook
	events       *event.Service
	pending      *fifo.Queue[*pendingEntry]
	running      map[int]*runningEntry
}

// New creates a scheduler with the supplied options applied on top of
// DefaultConfig values.
func New(options ...Option) *Scheduler {
	defaults := DefaultConfig().Scheduler
	s := &Scheduler{
		parallelism:  defaults.Parallelism,
		pollInterval: time.Duration(defaults.PollIntervalMs) * time.Millisecond,
		startDelay:   time.Duration(defaults.StartDelayMs) * time.Millisecond,
		pending:      fifo.New[*pendingEntry](),
		running:      make(map[int]*runningEntry),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Submit enqueues a process with optional per-process completion callback
// and environment overrides, attempts one dispatch and then polls all
// running work once. A spawn failure surfaces as *proc.StartError; the
// failed entry was already consumed and is not requeued.
func (s *Scheduler) Submit(ctx context.Context, process proc.Process, onComplete proc.Callback, env map[string]string) error {
	s.pending.Push(&pendingEntry{
		id:         idgen.New(),
		handle:     process,
		onComplete: onComplete,
		env:        env,
	})
	if _, err := s.TryDispatchNext(ctx); err != nil {
		return err
	}
	return s.PollAll(ctx)
}

// TryDispatchNext starts the head of the pending queue when capacity allows.
// It performs a single dispatch; completions and parallelism increases call
// it again, once per freed or added slot. The returned bool reports whether
// a process was started.
func (s *Scheduler) TryDispatchNext(ctx context.Context) (bool, error) {
	if len(s.running) >= s.parallelism || s.pending.Len() == 0 {
		return false, nil
	}
	// Pacing: space out starts even when capacity is available.
	if err := clock.Sleep(ctx, s.startDelay); err != nil {
		return false, err
	}
	entry, _ := s.pending.Pop()
	if s.onStart != nil {
		s.onStart(entry.handle)
	}

	_, span := tracing.StartSpan(ctx, "process.run", "INTERNAL")
	span.WithAttributes(map[string]string{"submission.id": entry.id})
	if err := entry.handle.Start(ctx, entry.onComplete, entry.env); err != nil {
		tracing.EndSpan(span, err)
		return false, err
	}

	running := &runningEntry{id: entry.id, handle: entry.handle, span: span}
	pid, ok := entry.handle.Pid()
	if !ok {
		// The process exited before its identifier could be observed.
		// Never indexed; run the completion check right away so the
		// finish hook still fires exactly once and dispatch chains on.
		s.publish(ctx, event.ProcessStarted, 0, entry.id)
		return true, s.checkOne(ctx, 0, false, running)
	}
	span.WithAttributes(map[string]string{"pid": strconv.Itoa(pid)})
	s.running[pid] = running
	s.publish(ctx, event.ProcessStarted, pid, entry.id)
	return true, nil
}

// checkOne verifies a single process: timeout first, then liveness. An
// observed completion fires the finish hook, deindexes the process and
// chains into the next dispatch. indexed is false for processes that never
// made it into the running set (see TryDispatchNext).
func (s *Scheduler) checkOne(ctx context.Context, pid int, indexed bool, entry *runningEntry) error {
	if err := entry.handle.CheckTimeout(); err != nil {
		s.publish(ctx, event.ProcessTimeout, pid, entry.id)
		return err
	}
	if entry.handle.IsRunning() {
		return nil
	}
	if s.onFinish != nil {
		s.onFinish(entry.handle)
	}
	if indexed {
		delete(s.running, pid)
	}
	tracing.EndSpan(entry.span, nil)
	s.publish(ctx, event.ProcessFinished, pid, entry.id)
	_, err := s.TryDispatchNext(ctx)
	return err
}

// PollAll checks every running process once, in ascending pid order, over a
// stable snapshot of the running set - chained dispatches mutate the set
// mid-pass. The first timeout failure aborts the pass; processes not yet
// checked stay unexamined until the next poll.
func (s *Scheduler) PollAll(ctx context.Context) error {
	pids := make([]int, 0, len(s.running))
	for pid := range s.running {
		pids = append(pids, pid)
	}
	sort.Ints(pids)
	for _, pid := range pids {
		entry, ok := s.running[pid]
		if !ok {
			continue
		}
		if err := s.checkOne(ctx, pid, true, entry); err != nil {
			return err
		}
	}
	return nil
}

// WaitAll blocks until both the pending queue and the running set are empty:
// sleep the poll interval, poll, repeat. It returns immediately, without
// sleeping, when already drained. Latency to observe a completion is bounded
// by the poll interval. Context cancellation interrupts the wait but never
// the processes themselves.
func (s *Scheduler) WaitAll(ctx context.Context) error {
	for s.HasUnfinishedProcesses() {
		if err := clock.Sleep(ctx, s.pollInterval); err != nil {
			return err
		}
		if err := s.PollAll(ctx); err != nil {
			return err
		}
	}
	return nil
}

// HasUnfinishedProcesses reports whether any work is pending or running.
func (s *Scheduler) HasUnfinishedProcesses() bool {
	return s.pending.Len() > 0 || len(s.running) > 0
}

// Pending returns the number of submitted, not yet started processes.
func (s *Scheduler) Pending() int {
	return s.pending.Len()
}

// Running returns the number of started, not yet finished processes.
func (s *Scheduler) Running() int {
	return len(s.running)
}

// SetParallelism updates the concurrency limit. Raising it dispatches
// additional pending work immediately, one item per added slot, without
// waiting for the next poll cycle.
func (s *Scheduler) SetParallelism(ctx context.Context, n int) error {
	if n < 1 {
		return fmt.Errorf("parallelism must be >= 1, had %v", n)
	}
	previous := s.parallelism
	s.parallelism = n
	if n <= previous {
		return nil
	}
	for {
		dispatched, err := s.TryDispatchNext(ctx)
		if err != nil {
			return err
		}
		if !dispatched {
			return nil
		}
	}
}

// SetPollInterval updates the sleep between completion checks in WaitAll.
func (s *Scheduler) SetPollInterval(interval time.Duration) *Scheduler {
	s.pollInterval = interval
	return s
}

// SetStartDelay updates the pacing gap enforced before each dispatch.
func (s *Scheduler) SetStartDelay(delay time.Duration) *Scheduler {
	s.startDelay = delay
	return s
}

// SetStartCallback replaces the start hook; nil disables it.
func (s *Scheduler) SetStartCallback(hook Hook) *Scheduler {
	s.onStart = hook
	return s
}

// SetFinishCallback replaces the finish hook; nil disables it.
func (s *Scheduler) SetFinishCallback(hook Hook) *Scheduler {
	s.onFinish = hook
	return s
}

// publish is fire-and-forget: a full event buffer drops the notification
// rather than stalling the dispatch path.
func (s *Scheduler) publish(_ context.Context, kind event.Kind, pid int, submissionID string) {
	if s.events == nil {
		return
	}
	attributes := map[string]string{"submission.id": submissionID}
	_ = s.events.TryPublish(event.NewEvent(kind, pid, attributes))
}
