package event

import (
	"context"
	"errors"
	"log"
	"sync"
)

// Service fans scheduler lifecycle events out to an optional listener.
// Publishing is decoupled from listening through the in-memory queue so a
// slow listener never stalls the scheduler's dispatch path.
type Service struct {
	queue  *Queue
	mux    sync.Mutex
	cancel context.CancelFunc
}

// Option customises a Service.
type Option func(s *Service)

// WithQueue sets the backing queue.
func WithQueue(queue *Queue) Option {
	return func(s *Service) { s.queue = queue }
}

// New creates a new event service.
func New(opts ...Option) *Service {
	ret := &Service{}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.queue == nil {
		ret.queue = NewQueue(DefaultConfig())
	}
	return ret
}

// Publish enqueues an event for delivery.
func (s *Service) Publish(ctx context.Context, event *Event) error {
	return s.queue.Publish(ctx, event)
}

// TryPublish enqueues an event without blocking, dropping it when the
// buffer is full. Suited for fire-and-forget notification paths.
func (s *Service) TryPublish(event *Event) bool {
	return s.queue.TryPublish(event)
}

// Consume retrieves a single undelivered event. It is mutually exclusive
// with SetListener usage on the same service.
func (s *Service) Consume(ctx context.Context) (*Event, error) {
	return s.queue.Consume(ctx)
}

// SetListener replaces the active listener; events are delivered to the
// handler from a background goroutine until Close or the next SetListener.
func (s *Service) SetListener(handler func(*Event)) {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go func() {
		for {
			event, err := s.queue.Consume(ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					log.Printf("error consuming event: %v", err)
				}
				return
			}
			handler(event)
		}
	}()
}

// Close stops the active listener, if any.
func (s *Service) Close() {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
