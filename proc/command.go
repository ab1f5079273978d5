package proc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/spawnq/spawnq/internal/clock"
)

// Command is an os/exec backed Process running a single OS command.
// Name/Args/Dir/Env/Timeout may be set freely before Start; afterwards the
// command is owned by its completion goroutine and must not be reconfigured.
type Command struct {
	Name string
	Args []string
	// Dir is the working directory; empty means the calling process' one.
	Dir string
	// Env holds per-command environment overrides applied on top of
	// os.Environ(). Per-start overrides passed to Start win over these.
	Env map[string]string
	// Timeout bounds the process runtime; zero disables the check.
	Timeout time.Duration

	mu        sync.Mutex
	cmd       *exec.Cmd
	startedAt time.Time
	started   bool
	finished  bool
	timedOut  bool
	exitCode  int
	waitErr   error
}

// NewCommand returns a Command for the supplied binary and arguments.
func NewCommand(name string, args ...string) *Command {
	return &Command{Name: name, Args: args}
}

// Start spawns the command and arranges for onComplete to fire once the
// process exits. A command can be started at most once.
func (c *Command) Start(ctx context.Context, onComplete Callback, env map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return &StartError{Name: c.Name, Err: errors.New("already started")}
	}
	if err := ctx.Err(); err != nil {
		return &StartError{Name: c.Name, Err: err}
	}

	cmd := exec.Command(c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = mergeEnv(os.Environ(), c.Env, env)
	if err := cmd.Start(); err != nil {
		return &StartError{Name: c.Name, Err: err}
	}
	c.cmd = cmd
	c.started = true
	c.startedAt = clock.Now()

	go func() {
		err := cmd.Wait()
		c.mu.Lock()
		c.finished = true
		c.waitErr = err
		if cmd.ProcessState != nil {
			c.exitCode = cmd.ProcessState.ExitCode()
		}
		c.mu.Unlock()
		if onComplete != nil {
			onComplete(c)
		}
	}()
	return nil
}

// Pid returns the OS pid while the process is running.
func (c *Command) Pid() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started || c.finished {
		return 0, false
	}
	return c.cmd.Process.Pid, true
}

// IsRunning reports whether the process has started and not yet exited.
func (c *Command) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started && !c.finished
}

// CheckTimeout kills the process and returns *TimeoutError once the
// configured timeout is exceeded. It is a no-op for finished processes and
// commands without a timeout.
func (c *Command) CheckTimeout() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started || c.finished || c.Timeout <= 0 {
		return nil
	}
	elapsed := clock.Now().Sub(c.startedAt)
	if elapsed <= c.Timeout {
		return nil
	}
	c.timedOut = true
	_ = c.cmd.Process.Kill()
	return &TimeoutError{Name: c.Name, Pid: c.cmd.Process.Pid, Limit: c.Timeout, Elapsed: elapsed}
}

// ExitCode returns the exit code once the process finished.
func (c *Command) ExitCode() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.finished {
		return 0, false
	}
	return c.exitCode, true
}

// Err returns the wait error, if any, once the process finished.
func (c *Command) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waitErr
}

// TimedOut reports whether CheckTimeout terminated the process.
func (c *Command) TimedOut() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timedOut
}

func (c *Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return fmt.Sprintf("%v %v", c.Name, strings.Join(c.Args, " "))
}

// mergeEnv flattens base entries and override maps into exec.Cmd form;
// later overrides win.
func mergeEnv(base []string, overrides ...map[string]string) []string {
	merged := make(map[string]string, len(base))
	var order []string
	for _, entry := range base {
		if idx := strings.Index(entry, "="); idx != -1 {
			key := entry[:idx]
			if _, seen := merged[key]; !seen {
				order = append(order, key)
			}
			merged[key] = entry[idx+1:]
		}
	}
	for _, override := range overrides {
		for key, value := range override {
			if _, seen := merged[key]; !seen {
				order = append(order, key)
			}
			merged[key] = value
		}
	}
	result := make([]string, 0, len(order))
	for _, key := range order {
		result = append(result, key+"="+merged[key])
	}
	return result
}

var _ Process = (*Command)(nil)
