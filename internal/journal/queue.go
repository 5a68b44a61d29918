package journal

import "sync"

// recordQueue is an unbounded FIFO between transition listeners and the
// writer goroutine. signal has capacity one so repeated enqueues coalesce
// into a single wake-up.
type recordQueue struct {
	mu      sync.Mutex
	records []Record
	closed  bool
	signal  chan struct{}
}

func newRecordQueue() *recordQueue {
	return &recordQueue{
		records: make([]Record, 0, 64),
		signal:  make(chan struct{}, 1),
	}
}

// Enqueue appends r. Returns false once the queue is closed.
func (q *recordQueue) Enqueue(r Record) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.records = append(q.records, r)
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// Drain removes and returns everything queued.
func (q *recordQueue) Drain() []Record {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.records) == 0 {
		return nil
	}
	out := q.records
	q.records = make([]Record, 0, cap(out))
	return out
}

// Wait returns a channel that fires when records may be available. It is
// closed by Close.
func (q *recordQueue) Wait() <-chan struct{} {
	return q.signal
}

func (q *recordQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.records)
}

// Close stops further enqueues and wakes the writer.
func (q *recordQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
