package topology

import (
	"sync"
	"time"

	"github.com/acoburn/trellis-rosid/internal/quad"
)

// Window coalesces TOPIC_RECACHE records into a tumbling time window that
// keeps only the first value seen per key within the window and emits it
// once the window closes, so a burst of writes to one resource triggers at
// most one cache regeneration per window.
type Window struct {
	mu       sync.Mutex
	delay    time.Duration
	pending  map[quad.IRI]Record
	order    []quad.IRI
	emit     func(quad.IRI, Record)
	timer    *time.Timer
	stopped  bool
	capacity int
}

// NewWindow constructs a Window that flushes every delay and emits via emit.
// capacity caps how many distinct keys may be pending before the oldest is
// force-flushed, bounding memory under sustained write pressure.
func NewWindow(delay time.Duration, capacity int, emit func(quad.IRI, Record)) *Window {
	if capacity <= 0 {
		capacity = 1000
	}
	w := &Window{
		delay:    delay,
		pending:  make(map[quad.IRI]Record),
		emit:     emit,
		capacity: capacity,
	}
	return w
}

// Offer adds rec to the window for key, keeping the first value seen per
// key within the current window (later offers for the same key before
// flush are dropped, per "coalesce" semantics).
func (w *Window) Offer(key quad.IRI, rec Record) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if _, exists := w.pending[key]; !exists {
		if len(w.order) >= w.capacity {
			w.flushOldestLocked()
		}
		w.pending[key] = rec
		w.order = append(w.order, key)
	}
	if w.timer == nil {
		w.timer = time.AfterFunc(w.delay, w.flush)
	}
}

func (w *Window) flushOldestLocked() {
	if len(w.order) == 0 {
		return
	}
	key := w.order[0]
	w.order = w.order[1:]
	rec := w.pending[key]
	delete(w.pending, key)
	go w.emit(key, rec)
}

func (w *Window) flush() {
	w.mu.Lock()
	pending := w.pending
	order := w.order
	w.pending = make(map[quad.IRI]Record)
	w.order = nil
	w.timer = nil
	w.mu.Unlock()

	for _, key := range order {
		w.emit(key, pending[key])
	}
}

// Stop prevents further offers from being accepted. Already-scheduled
// flushes still run.
func (w *Window) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
}
