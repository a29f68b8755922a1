// Package logstream delivers log lines of a running job to a consumer, such as
// a UI polling on a timer, through a bounded queue.
package logstream

import (
	"sync"
	"sync/atomic"
)

// DefaultQueueSize is the number of undelivered lines a queue holds.
const DefaultQueueSize = 1024

// Queue is a bounded, non-blocking line queue. Producers never wait: when the
// queue is full new lines are dropped and counted.
type Queue struct {
	mu      sync.RWMutex
	ch      chan string
	closed  bool
	dropped atomic.Int64
}

func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{ch: make(chan string, size)}
}

// Push enqueues line and reports whether it was accepted.
func (q *Queue) Push(line string) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return false
	}
	select {
	case q.ch <- line:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// Drain returns up to max queued lines without blocking. A max of 0 or less
// drains everything currently queued. done is true once the queue is closed
// and empty.
func (q *Queue) Drain(max int) (lines []string, done bool) {
	for max <= 0 || len(lines) < max {
		select {
		case line, ok := <-q.ch:
			if !ok {
				return lines, true
			}
			lines = append(lines, line)
		default:
			return lines, false
		}
	}
	return lines, false
}

// Close stops accepting lines. Queued lines remain available to Drain.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
}

// Dropped returns how many lines were discarded because the queue was full.
func (q *Queue) Dropped() int64 {
	return q.dropped.Load()
}
