package anchor

import "sync"

// Scheduler runs the two continuations of a placement: a zero-delay
// deferral that lets the host settle after insertion, and a rendering
// frame callback for measurement.
type Scheduler interface {
	Defer(fn func())
	NextFrame(fn func())
}

// Queue is a Scheduler drained explicitly by the host loop. Deferred
// callbacks run before frame callbacks; callbacks queued while flushing
// run in the same Flush.
type Queue struct {
	mu       sync.Mutex
	deferred []func()
	frames   []func()
}

func (q *Queue) Defer(fn func()) {
	q.mu.Lock()
	q.deferred = append(q.deferred, fn)
	q.mu.Unlock()
}

func (q *Queue) NextFrame(fn func()) {
	q.mu.Lock()
	q.frames = append(q.frames, fn)
	q.mu.Unlock()
}

// Pending reports how many callbacks are waiting.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.deferred) + len(q.frames)
}

// Flush runs queued callbacks until none are left.
func (q *Queue) Flush() {
	for {
		q.mu.Lock()
		batch := q.deferred
		q.deferred = nil
		if len(batch) == 0 {
			batch = q.frames
			q.frames = nil
		}
		q.mu.Unlock()

		if len(batch) == 0 {
			return
		}
		for _, fn := range batch {
			fn()
		}
	}
}
