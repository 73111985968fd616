package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestId_Valid(t *testing.T) {
	assert.False(t, Invalid.Valid())
	assert.True(t, Bootstrap.Valid())
	assert.True(t, Id(42).Valid())
}

func TestMessage_Stamp(t *testing.T) {
	msg := NewMessage([]byte("hello"))
	assert.False(t, msg.Stamped())

	stamped := msg.Stamp(Id(2), Id(3))
	assert.True(t, stamped.Stamped())
	assert.Equal(t, Id(2), stamped.Source)
	assert.Equal(t, Id(3), stamped.Destination)

	// the original is untouched.
	assert.False(t, msg.Stamped())
}

func TestQueue_Fifo(t *testing.T) {
	q := NewQueue()
	assert.True(t, q.Empty())

	q.Push(NewMessage([]byte("a")))
	q.Push(NewMessage([]byte("b")))
	q.Push(NewMessage([]byte("c")))
	assert.Equal(t, 3, q.Len())

	for _, expected := range []string{"a", "b", "c"} {
		msg, ok := q.Pop()
		assert.True(t, ok)
		assert.Equal(t, expected, string(msg.Payload))
	}

	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestQueue_Clear(t *testing.T) {
	q := NewQueue()
	q.Push(NewMessage(nil))
	q.Push(NewMessage(nil))

	assert.Equal(t, 2, q.Clear())
	assert.True(t, q.Empty())
}

func TestQueue_Swap(t *testing.T) {
	q := NewQueue()
	q.Push(NewMessage([]byte("a")))

	o := NewQueue()
	q.Swap(o)

	assert.True(t, q.Empty())
	assert.Equal(t, 1, o.Len())
}
