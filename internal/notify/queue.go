package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fairyhunter13/property-admin-console/internal/obs"
)

// flushInterval bounds how long a notice waits when the output was full.
const flushInterval = 50 * time.Millisecond

// Queue holds notices until workers take them. Enqueue never blocks: notices
// wait in an unbounded backlog and a broker goroutine moves them into the
// buffered output as room frees up.
type Queue struct {
	mu      sync.Mutex
	backlog []Notice
	wake    chan struct{}
	out     chan Notice
	closed  atomic.Bool

	accepted  atomic.Uint64
	delivered atomic.Uint64
}

// QueueStats is a point-in-time view of a Queue.
type QueueStats struct {
	Accepted  uint64
	Delivered uint64
	Backlog   int
	Buffered  int
}

// Idle reports whether every accepted notice has been delivered.
func (s QueueStats) Idle() bool {
	return s.Backlog == 0 && s.Buffered == 0 && s.Accepted == s.Delivered
}

// NewQueue creates a Queue whose output holds up to outBuffer notices.
func NewQueue(outBuffer int) *Queue {
	if outBuffer <= 0 {
		outBuffer = 64
	}
	return &Queue{
		wake: make(chan struct{}, 1),
		out:  make(chan Notice, outBuffer),
	}
}

// Start runs the broker until ctx ends. A positive highWatermark logs a
// warning whenever the backlog grows past it.
func (q *Queue) Start(ctx context.Context, highWatermark int) {
	go q.broker(ctx, highWatermark)
}

func (q *Queue) broker(ctx context.Context, highWatermark int) {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()
	for {
		if left := q.flush(); highWatermark > 0 && left > highWatermark {
			obs.Logger.Warn("notice_backlog_high", "backlog", left, "high_watermark", highWatermark)
		}
		select {
		case <-ctx.Done():
			return
		case <-q.wake:
		case <-ticker.C:
		}
	}
}

// flush moves as many notices as fit into the output and returns what is
// left in the backlog.
func (q *Queue) flush() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for n < len(q.backlog) && len(q.out) < cap(q.out) {
		q.out <- q.backlog[n]
		n++
	}
	q.backlog = q.backlog[n:]
	return len(q.backlog)
}

// Enqueue accepts n. It returns false once intake is closed.
func (q *Queue) Enqueue(n Notice) bool {
	if q.closed.Load() {
		return false
	}
	q.accepted.Add(1)
	q.mu.Lock()
	q.backlog = append(q.backlog, n)
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

// Out is where workers receive notices.
func (q *Queue) Out() <-chan Notice { return q.out }

// MarkDelivered counts one notice as handled by a worker.
func (q *Queue) MarkDelivered() { q.delivered.Add(1) }

// Stats returns the current counters.
func (q *Queue) Stats() QueueStats {
	q.mu.Lock()
	backlog := len(q.backlog)
	q.mu.Unlock()
	return QueueStats{
		Accepted:  q.accepted.Load(),
		Delivered: q.delivered.Load(),
		Backlog:   backlog,
		Buffered:  len(q.out),
	}
}

// CloseIntake rejects every later Enqueue.
func (q *Queue) CloseIntake() { q.closed.Store(true) }
