package event

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueuePublishConsume(t *testing.T) {
	ctx := context.Background()
	queue := NewQueue(Config{QueueBuffer: 2})

	evt := NewEvent(ProcessStarted, 42, map[string]string{"submission.id": "s-1"})
	require.NoError(t, queue.Publish(ctx, evt))
	assert.Equal(t, 1, queue.Size())

	got, err := queue.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, evt.ID, got.ID)
	assert.Equal(t, ProcessStarted, got.Kind)
	assert.Equal(t, 42, got.Pid)
	assert.Equal(t, "s-1", got.Attributes["submission.id"])
	assert.Equal(t, 0, queue.Size())
}

func TestQueueContextCancellation(t *testing.T) {
	queue := NewQueue(DefaultConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := queue.Consume(ctx)
	assert.Error(t, err)
}

func TestServiceListener(t *testing.T) {
	service := New()
	defer service.Close()

	received := make(chan *Event, 3)
	service.SetListener(func(e *Event) { received <- e })

	ctx := context.Background()
	require.NoError(t, service.Publish(ctx, NewEvent(ProcessStarted, 7, nil)))
	require.NoError(t, service.Publish(ctx, NewEvent(ProcessFinished, 7, nil)))

	var kinds []Kind
	for i := 0; i < 2; i++ {
		select {
		case e := <-received:
			kinds = append(kinds, e.Kind)
		case <-time.After(2 * time.Second):
			t.Fatal("listener never received event")
		}
	}
	assert.Equal(t, []Kind{ProcessStarted, ProcessFinished}, kinds)
}
