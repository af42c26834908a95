package topology

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acoburn/trellis-rosid/internal/quad"
)

func TestWindowCoalescesOfferForSameKey(t *testing.T) {
	var mu sync.Mutex
	var flushes []Record

	w := NewWindow(20*time.Millisecond, 1000, func(key quad.IRI, rec Record) {
		mu.Lock()
		defer mu.Unlock()
		flushes = append(flushes, rec)
	})

	id := quad.IRI("info:trellis/repository/item")
	w.Offer(id, Record{Resource: id, Hop: 1})
	w.Offer(id, Record{Resource: id, Hop: 2})
	w.Offer(id, Record{Resource: id, Hop: 3})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(flushes) == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, flushes[0].Hop, "first offer within the window wins, later ones are dropped")
}

func TestWindowFlushesDistinctKeysIndependently(t *testing.T) {
	var mu sync.Mutex
	seen := map[quad.IRI]bool{}

	w := NewWindow(10*time.Millisecond, 1000, func(key quad.IRI, rec Record) {
		mu.Lock()
		defer mu.Unlock()
		seen[key] = true
	})

	a := quad.IRI("info:trellis/repository/a")
	b := quad.IRI("info:trellis/repository/b")
	w.Offer(a, Record{Resource: a})
	w.Offer(b, Record{Resource: b})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestWindowForceFlushesOldestAtCapacity(t *testing.T) {
	var mu sync.Mutex
	var order []quad.IRI

	w := NewWindow(time.Hour, 2, func(key quad.IRI, rec Record) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, key)
	})

	a := quad.IRI("info:trellis/repository/a")
	b := quad.IRI("info:trellis/repository/b")
	c := quad.IRI("info:trellis/repository/c")
	w.Offer(a, Record{Resource: a})
	w.Offer(b, Record{Resource: b})
	// capacity is 2; offering a third distinct key force-flushes the oldest
	// (a) immediately rather than waiting out the hour-long delay.
	w.Offer(c, Record{Resource: c})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, a, order[0])
}

func TestWindowStopPreventsFurtherOffers(t *testing.T) {
	var mu sync.Mutex
	flushed := 0

	w := NewWindow(5*time.Millisecond, 1000, func(key quad.IRI, rec Record) {
		mu.Lock()
		defer mu.Unlock()
		flushed++
	})
	w.Stop()

	id := quad.IRI("info:trellis/repository/item")
	w.Offer(id, Record{Resource: id})

	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, flushed)
}
