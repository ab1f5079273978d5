// Package fifo provides a typed first-in-first-out queue on top of the
// eapache ring buffer. Ordering is strict: Pop always returns the oldest
// element still queued.
package fifo

import "github.com/eapache/queue"

// Queue is a FIFO of T. The zero value is not usable; call New.
type Queue[T any] struct {
	ring *queue.Queue
}

// New returns an empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{ring: queue.New()}
}

// Push appends an element at the tail.
func (q *Queue[T]) Push(item T) {
	q.ring.Add(item)
}

// Pop removes and returns the head element; ok is false when empty.
func (q *Queue[T]) Pop() (T, bool) {
	var zero T
	if q.ring.Length() == 0 {
		return zero, false
	}
	return q.ring.Remove().(T), true
}

// Peek returns the head element without removing it; ok is false when empty.
func (q *Queue[T]) Peek() (T, bool) {
	var zero T
	if q.ring.Length() == 0 {
		return zero, false
	}
	return q.ring.Peek().(T), true
}

// Len returns the number of queued elements.
func (q *Queue[T]) Len() int {
	return q.ring.Length()
}
