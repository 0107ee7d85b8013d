// Package queue adapts callback-driven MIDI drivers to the poll-style
// fetch contract: the driver pushes from its own thread, the tick pops.
package queue

import (
	"sync/atomic"
)

// DefaultSize is used when a non-positive size is requested.
const DefaultSize = 1024

type entry struct {
	stamp float64
	data  []byte
}

// Queue is a bounded FIFO that never blocks either side.
type Queue struct {
	ch      chan entry
	dropped atomic.Uint64
	closed  atomic.Bool
}

// New creates a queue holding at most size messages.
func New(size int) *Queue {
	if size <= 0 {
		size = DefaultSize
	}
	return &Queue{ch: make(chan entry, size)}
}

// Push copies data into the queue. It reports false when the queue is full
// or closed and the message was dropped.
func (q *Queue) Push(data []byte, stamp float64) bool {
	if q.closed.Load() || len(data) == 0 {
		return false
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	select {
	case q.ch <- entry{stamp: stamp, data: cp}:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// Fetch pops the oldest message into buf. It returns n == 0 when the queue
// is empty. Messages longer than buf are truncated.
func (q *Queue) Fetch(buf []byte) (int, float64) {
	select {
	case e := <-q.ch:
		return copy(buf, e.data), e.stamp
	default:
		return 0, 0
	}
}

// Len returns the number of pending messages.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Dropped returns how many messages were discarded because the queue was full.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}

// Close stops accepting messages and discards pending ones.
func (q *Queue) Close() {
	if q.closed.Swap(true) {
		return
	}
	for {
		select {
		case <-q.ch:
		default:
			return
		}
	}
}
