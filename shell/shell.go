// Package shell provides a Process implementation that runs a list of shell
// commands through a gosh session, locally or over ssh. It covers targets
// where no raw os/exec surface is available (remote hosts, shared login
// shells); for plain local commands prefer proc.Command.
package shell

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/viant/afs/url"
	"github.com/viant/gosh"
	"github.com/viant/gosh/runner"
	"github.com/viant/gosh/runner/local"
	rssh "github.com/viant/gosh/runner/ssh"
	"github.com/viant/scy/cred/secret"
	"golang.org/x/crypto/ssh"

	"github.com/spawnq/spawnq/internal/clock"
	"github.com/spawnq/spawnq/proc"
)

// Host identifies the target system. URL uses bash://localhost/ for local
// execution or an ssh-reachable host; Credentials names a scy secret
// resource providing ssh credentials.
type Host struct {
	URL         string
	Credentials string
}

// Run holds the outcome of a single command within a session.
type Run struct {
	Command string
	Output  string
	Status  int
}

// sessions are numbered from a process-wide counter; the gosh transport
// exposes no OS pid, so the session id stands in for it.
var sessionSeq int64

// Process runs Commands sequentially through one gosh session and
// implements the scheduler's proc.Process contract.
type Process struct {
	Host      *Host
	Commands  []string
	Directory string
	// Env holds session environment overrides; per-start overrides win.
	Env map[string]string
	// Timeout bounds the whole session runtime; zero disables the check.
	Timeout time.Duration
	// AbortOnError stops the session on the first non-zero exit status.
	AbortOnError bool

	mu        sync.Mutex
	session   *gosh.Service
	id        int
	startedAt time.Time
	started   bool
	finished  bool
	timedOut  bool
	runs      []*Run
	runErr    error
}

// New returns a local shell process for the supplied commands.
func New(commands ...string) *Process {
	return &Process{
		Host:         &Host{URL: "bash://localhost/"},
		Commands:     commands,
		AbortOnError: true,
	}
}

// Start opens the session and launches the command loop. onComplete fires
// exactly once, after the last command finished or the session aborted.
func (p *Process) Start(ctx context.Context, onComplete proc.Callback, env map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return &proc.StartError{Name: p.name(), Err: fmt.Errorf("already started")}
	}
	if p.Host == nil || p.Host.URL == "" {
		p.Host = &Host{URL: "bash://localhost/"}
	}

	session, err := p.newSession(ctx, mergeEnv(p.Env, env))
	if err != nil {
		return &proc.StartError{Name: p.name(), Err: err}
	}
	p.session = session
	p.id = int(atomic.AddInt64(&sessionSeq, 1))
	p.started = true
	p.startedAt = clock.Now()

	go func() {
		runErr := p.runAll(ctx)
		p.mu.Lock()
		p.finished = true
		p.runErr = runErr
		_ = p.session.Close()
		p.mu.Unlock()
		if onComplete != nil {
			onComplete(p)
		}
	}()
	return nil
}

// Pid returns the synthetic session identifier while the session runs.
func (p *Process) Pid() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started || p.finished {
		return 0, false
	}
	return p.id, true
}

// IsRunning reports whether the session has started and not yet finished.
func (p *Process) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started && !p.finished
}

// CheckTimeout closes the session and returns *proc.TimeoutError once the
// configured timeout is exceeded. Closing the session is the only
// termination lever the transport offers.
func (p *Process) CheckTimeout() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started || p.finished || p.Timeout <= 0 {
		return nil
	}
	elapsed := clock.Now().Sub(p.startedAt)
	if elapsed <= p.Timeout {
		return nil
	}
	p.timedOut = true
	_ = p.session.Close()
	return &proc.TimeoutError{Name: p.name(), Pid: p.id, Limit: p.Timeout, Elapsed: elapsed}
}

// Runs returns per-command results collected so far.
func (p *Process) Runs() []*Run {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Run, len(p.runs))
	copy(out, p.runs)
	return out
}

// Err returns the session error, if any, once the session finished.
func (p *Process) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.runErr
}

// TimedOut reports whether CheckTimeout terminated the session.
func (p *Process) TimedOut() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.timedOut
}

func (p *Process) String() string { return p.name() }

func (p *Process) name() string {
	if len(p.Commands) == 0 {
		return "shell"
	}
	return p.Commands[0]
}

func (p *Process) runAll(ctx context.Context) error {
	if p.Directory != "" {
		if _, _, err := p.session.Run(ctx, fmt.Sprintf("cd %s", p.Directory)); err != nil {
			return fmt.Errorf("failed to change directory: %w", err)
		}
	}
	timeoutMs := int(p.Timeout.Milliseconds())
	for _, command := range p.Commands {
		var options []runner.Option
		if timeoutMs > 0 {
			options = append(options, runner.WithTimeout(timeoutMs))
		}
		output, status, err := p.session.Run(ctx, command, options...)
		p.mu.Lock()
		p.runs = append(p.runs, &Run{Command: command, Output: strings.TrimSpace(output), Status: status})
		p.mu.Unlock()
		if err != nil {
			return fmt.Errorf("command %v failed: %w", command, err)
		}
		if status != 0 && p.AbortOnError {
			return fmt.Errorf("command %v exited with status %v", command, status)
		}
	}
	return nil
}

// newSession opens a local or ssh backed gosh session for the host.
func (p *Process) newSession(ctx context.Context, env map[string]string) (*gosh.Service, error) {
	var envOptions []runner.Option
	if len(env) > 0 {
		envOptions = append(envOptions, runner.WithEnvironment(env))
	}
	if url.Host(p.Host.URL) == "localhost" {
		return gosh.New(ctx, local.New(envOptions...))
	}
	config, err := p.sshConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get SSH config: %w", err)
	}
	sshHost := url.Host(p.Host.URL)
	if !strings.Contains(sshHost, ":") {
		sshHost += ":22"
	}
	return gosh.New(ctx, rssh.New(sshHost, config, envOptions...))
}

func (p *Process) sshConfig(ctx context.Context) (*ssh.ClientConfig, error) {
	credentials := p.Host.Credentials
	if credentials == "" {
		credentials = "localhost"
	}
	secrets := secret.New()
	generic, err := secrets.GetCredentials(ctx, credentials)
	if err != nil {
		return nil, err
	}
	return generic.SSH.Config(ctx)
}

func mergeEnv(base, overrides map[string]string) map[string]string {
	if len(base) == 0 && len(overrides) == 0 {
		return nil
	}
	merged := make(map[string]string, len(base)+len(overrides))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

var _ proc.Process = (*Process)(nil)
