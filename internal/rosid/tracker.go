package rosid

import (
	"sync"
	"time"
)

// operationStatus is the lifecycle of one tracked call.
type operationStatus string

const (
	statusRunning   operationStatus = "running"
	statusCompleted operationStatus = "completed"
	statusFailed    operationStatus = "failed"
)

// operation is a single tracked in-flight or recently-finished call, kept
// for diagnostics only. It plays no part in write correctness, which is the
// lock's job.
type operation struct {
	Resource    string
	Kind        string
	Status      operationStatus
	StartedAt   time.Time
	CompletedAt time.Time
	Err         string
}

// tracker is a bounded, mutex-guarded map of recent operations, evicting
// the oldest entry at capacity and copying on read.
type tracker struct {
	mu    sync.Mutex
	ops   map[int64]*operation
	order []int64
	max   int
	seq   int64
}

func newTracker(max int) *tracker {
	if max <= 0 {
		max = 1000
	}
	return &tracker{ops: make(map[int64]*operation), max: max}
}

func (t *tracker) start(resource, kind string) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.ops) >= t.max && len(t.order) > 0 {
		oldest := t.order[0]
		t.order = t.order[1:]
		delete(t.ops, oldest)
	}

	t.seq++
	id := t.seq
	t.ops[id] = &operation{Resource: resource, Kind: kind, Status: statusRunning, StartedAt: time.Now()}
	t.order = append(t.order, id)
	return id
}

func (t *tracker) complete(id int64, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	op, ok := t.ops[id]
	if !ok {
		return
	}
	op.CompletedAt = time.Now()
	if err != nil {
		op.Status = statusFailed
		op.Err = err.Error()
		return
	}
	op.Status = statusCompleted
}

// Snapshot returns a copy of every tracked operation, for diagnostics
// endpoints.
func (t *tracker) Snapshot() []operation {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]operation, 0, len(t.ops))
	for _, id := range t.order {
		out = append(out, *t.ops[id])
	}
	return out
}
