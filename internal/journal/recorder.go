package journal

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/reactive-graph/reactive-graph-sub007/internal/behaviour"
)

// Recorder journals behaviour transitions. Transitioned may be called from
// any goroutine; Run is the single writer.
type Recorder struct {
	journal *Journal
	seq     Sequencer
	queue   *recordQueue

	// mu keeps sequence order and queue order identical.
	mu      sync.Mutex
	closed  bool
	dropped atomic.Int64
}

// NewRecorder returns a recorder writing to j, numbering records with seq.
func NewRecorder(j *Journal, seq Sequencer) *Recorder {
	return &Recorder{
		journal: j,
		seq:     seq,
		queue:   newRecordQueue(),
	}
}

// Transitioned implements behaviour.Listener.
func (r *Recorder) Transitioned(ev behaviour.TransitionEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		r.dropped.Add(1)
		return
	}
	r.queue.Enqueue(FromEvent(r.seq.Next(), ev))
}

// Dropped returns the number of transitions seen after Close.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Pending returns the number of queued, unwritten records.
func (r *Recorder) Pending() int {
	return r.queue.Len()
}

// Run writes queued records until Close is called or ctx is done. Records
// still queued at that point are written before Run returns.
func (r *Recorder) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			r.flush(context.WithoutCancel(ctx))
			return ctx.Err()
		case _, ok := <-r.queue.Wait():
			r.flush(ctx)
			if !ok {
				return nil
			}
		}
	}
}

// Close stops accepting transitions. Run drains what is queued and returns.
// Transitions seen after Close take no sequence number.
func (r *Recorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.queue.Close()
}

func (r *Recorder) flush(ctx context.Context) {
	records := r.queue.Drain()
	if len(records) == 0 {
		return
	}
	if err := r.journal.Append(ctx, records...); err != nil {
		slog.Error("failed to journal transitions",
			"first_seq", records[0].Seq,
			"count", len(records),
			"error", err)
	}
}

var _ behaviour.Listener = (*Recorder)(nil)
