package fifo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueueOrdering(t *testing.T) {
	q := New[int]()
	assert.Equal(t, 0, q.Len())

	_, ok := q.Pop()
	assert.False(t, ok)
	_, ok = q.Peek()
	assert.False(t, ok)

	for i := 1; i <= 5; i++ {
		q.Push(i)
	}
	assert.Equal(t, 5, q.Len())

	head, ok := q.Peek()
	assert.True(t, ok)
	assert.Equal(t, 1, head)
	assert.Equal(t, 5, q.Len())

	for i := 1; i <= 5; i++ {
		v, ok := q.Pop()
		assert.True(t, ok)
		assert.Equal(t, i, v)
	}
	assert.Equal(t, 0, q.Len())
}

func TestQueueInterleaved(t *testing.T) {
	q := New[string]()
	q.Push("a")
	q.Push("b")

	v, _ := q.Pop()
	assert.Equal(t, "a", v)

	q.Push("c")
	v, _ = q.Pop()
	assert.Equal(t, "b", v)
	v, _ = q.Pop()
	assert.Equal(t, "c", v)
}
