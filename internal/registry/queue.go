package registry

import (
	"sync"

	"github.com/pablitocbr/commenter-edge/internal/frame"
)

// Queue is the unbounded outbound FIFO owned by one connection. It is a
// condition-variable-backed growable buffer rather than a fixed-capacity Go
// channel: Push from the broadcast hot path must never block, no matter how
// far behind the draining connection has fallen.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    []frame.ServerFrame
	closed bool
}

// NewQueue allocates an empty outbound queue.
func NewQueue() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push enqueues f. It never blocks and never drops: it reports false only
// when the queue has already been closed (the connection is tearing down),
// matching the best-effort delivery contract of distribution.Broadcast.
func (q *Queue) Push(f frame.ServerFrame) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.buf = append(q.buf, f)
	q.cond.Signal()
	return true
}

// Pop blocks until a frame is available or the queue is closed. ok is false
// only once the queue is closed and fully drained — the egress task uses
// this to know the connection is done.
func (q *Queue) Pop() (f frame.ServerFrame, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.buf) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.buf) == 0 {
		return frame.ServerFrame{}, false
	}

	f = q.buf[0]
	q.buf = q.buf[1:]
	return f, true
}

// Close marks the queue closed. Pending buffered frames are still drained by
// Pop; once empty, Pop reports !ok.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Len reports the number of buffered frames, used for diagnostics/metrics.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}
