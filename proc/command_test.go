package proc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandLifecycle(t *testing.T) {
	ctx := context.Background()
	cmd := NewCommand("sh", "-c", "sleep 0.2")

	done := make(chan Process, 1)
	err := cmd.Start(ctx, func(p Process) { done <- p }, nil)
	require.NoError(t, err)

	pid, ok := cmd.Pid()
	assert.True(t, ok)
	assert.Greater(t, pid, 0)
	assert.True(t, cmd.IsRunning())
	assert.NoError(t, cmd.CheckTimeout())

	select {
	case p := <-done:
		assert.Same(t, cmd, p)
	case <-time.After(5 * time.Second):
		t.Fatal("completion callback never fired")
	}

	assert.False(t, cmd.IsRunning())
	_, ok = cmd.Pid()
	assert.False(t, ok)
	code, ok := cmd.ExitCode()
	assert.True(t, ok)
	assert.Equal(t, 0, code)
	assert.NoError(t, cmd.Err())
}

func TestCommandStartError(t *testing.T) {
	cmd := NewCommand("/no/such/binary-spawnq")
	err := cmd.Start(context.Background(), nil, nil)
	require.Error(t, err)
	assert.True(t, IsStartFailure(err))
	assert.False(t, cmd.IsRunning())
}

func TestCommandStartedOnce(t *testing.T) {
	ctx := context.Background()
	cmd := NewCommand("sh", "-c", "sleep 0.2")
	require.NoError(t, cmd.Start(ctx, nil, nil))

	err := cmd.Start(ctx, nil, nil)
	require.Error(t, err)
	assert.True(t, IsStartFailure(err))
}

func TestCommandEnvOverride(t *testing.T) {
	ctx := context.Background()
	cmd := NewCommand("sh", "-c", `test "$SPAWNQ_MODE" = override`)
	cmd.Env = map[string]string{"SPAWNQ_MODE": "base"}

	done := make(chan struct{})
	err := cmd.Start(ctx, func(Process) { close(done) }, map[string]string{"SPAWNQ_MODE": "override"})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("command never completed")
	}
	code, ok := cmd.ExitCode()
	require.True(t, ok)
	assert.Equal(t, 0, code, "per-start env override should win over the base env")
}

func TestCommandTimeout(t *testing.T) {
	ctx := context.Background()
	cmd := NewCommand("sh", "-c", "sleep 30")
	cmd.Timeout = 20 * time.Millisecond

	done := make(chan struct{})
	require.NoError(t, cmd.Start(ctx, func(Process) { close(done) }, nil))
	time.Sleep(50 * time.Millisecond)

	err := cmd.CheckTimeout()
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	var timeout *TimeoutError
	require.True(t, errors.As(err, &timeout))
	assert.Equal(t, 20*time.Millisecond, timeout.Limit)
	assert.True(t, cmd.TimedOut())

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("killed process never reaped")
	}
	assert.False(t, cmd.IsRunning())
}

func TestMergeEnv(t *testing.T) {
	merged := mergeEnv(
		[]string{"A=1", "B=2"},
		map[string]string{"B": "3"},
		map[string]string{"C": "4"},
	)
	assert.ElementsMatch(t, []string{"A=1", "B=3", "C=4"}, merged)
}
