package wire

import "github.com/emirpasic/gods/queues/linkedlistqueue"

// A Queue is a simple fifo of messages.  It is NOT safe for concurrent
// use; callers are expected to guard it with their own lock.  Endpoints
// use the queue to stage writes that arrive before a channel has been
// attached.
type Queue struct {
	raw *linkedlistqueue.Queue
}

func NewQueue() *Queue {
	return &Queue{linkedlistqueue.New()}
}

func (q *Queue) Push(m Message) {
	q.raw.Enqueue(m)
}

func (q *Queue) Pop() (Message, bool) {
	raw, ok := q.raw.Dequeue()
	if !ok {
		return Message{}, false
	}
	return raw.(Message), true
}

func (q *Queue) Empty() bool {
	return q.raw.Empty()
}

func (q *Queue) Len() int {
	return q.raw.Size()
}

// Clear drops everything in the queue, returning the number of messages
// discarded.
func (q *Queue) Clear() int {
	num := q.raw.Size()
	q.raw.Clear()
	return num
}

// Swap exchanges the contents of the two queues.  The typical use is to
// take ownership of a queue's contents while holding a lock, so the
// messages can be processed after the lock is released.
func (q *Queue) Swap(o *Queue) {
	q.raw, o.raw = o.raw, q.raw
}
