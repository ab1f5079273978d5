package event

import "context"

// Config for the in-memory event queue.
type Config struct {
	// QueueBuffer caps the number of undelivered events.
	QueueBuffer int
}

// DefaultConfig returns a standard queue configuration.
func DefaultConfig() Config {
	return Config{QueueBuffer: 100}
}

// Queue is an in-memory event queue. Publishing blocks when the buffer is
// full, consuming blocks when it is empty; both honour context cancellation.
type Queue struct {
	messages chan *Event
}

// NewQueue creates a new in-memory queue.
func NewQueue(config Config) *Queue {
	if config.QueueBuffer <= 0 {
		config.QueueBuffer = DefaultConfig().QueueBuffer
	}
	return &Queue{messages: make(chan *Event, config.QueueBuffer)}
}

// Publish adds a new event to the queue.
func (q *Queue) Publish(ctx context.Context, event *Event) error {
	select {
	case q.messages <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryPublish adds an event without blocking; it reports false when the
// buffer is full and the event was dropped.
func (q *Queue) TryPublish(event *Event) bool {
	select {
	case q.messages <- event:
		return true
	default:
		return false
	}
}

// Consume retrieves a single event from the queue.
func (q *Queue) Consume(ctx context.Context) (*Event, error) {
	select {
	case event := <-q.messages:
		return event, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Size returns the current number of undelivered events.
func (q *Queue) Size() int {
	return len(q.messages)
}
