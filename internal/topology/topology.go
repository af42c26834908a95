package topology

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/acoburn/trellis-rosid/internal/quad"
)

// MaxDeleteHops bounds how many times a record may be republished on
// TOPIC_DELETE before the topology drops it. This resolves the open
// question about the visible TOPIC_DELETE republish loop: a delete is
// allowed exactly one residual audit republish, never more.
const MaxDeleteHops = 1

// Mutator is the callback the topology uses to append containment or
// inbound-reference quads to a resource's journal; it mirrors
// rosid.Service.Write without importing that package, keeping the topology
// decoupled from the service that drives it.
type Mutator func(ctx context.Context, id quad.IRI, remove, add []quad.Quad, at time.Time) error

// Recacher materializes the latest cache for a resource; called at most
// once per resource per coalescing window.
type Recacher func(ctx context.Context, id quad.IRI) error

// Publisher hands a Record to a named topic on an external transport. The
// topology only publishes TOPIC_EVENT through it; the other TOPIC_*
// branches are routed in process through Submit.
type Publisher interface {
	Publish(ctx context.Context, topic Topic, rec Record) error
}

// Config tunes the recache coalescing window.
type Config struct {
	WindowDelay    time.Duration
	WindowCapacity int
}

// DefaultConfig returns the settings a single-process deployment starts from.
func DefaultConfig() Config {
	return Config{WindowDelay: 5 * time.Second, WindowCapacity: 1000}
}

// Topology routes mutation records through the containment, inbound and
// recache branches over a set of per-resource-IRI goroutine lanes, so
// ordering is preserved within a resource while unrelated resources process
// concurrently.
type Topology struct {
	cfg      Config
	mutate   Mutator
	recache  Recacher
	notify   Publisher
	log      *logrus.Entry
	window   *Window

	mu    sync.Mutex
	lanes map[quad.IRI]chan Record
}

// New constructs a Topology. mutate appends journal patches for the
// container/inbound branches; recache materializes a resource's cache;
// notify publishes to TOPIC_EVENT.
func New(cfg Config, mutate Mutator, recache Recacher, notify Publisher, log *logrus.Entry) *Topology {
	t := &Topology{
		cfg:     cfg,
		mutate:  mutate,
		recache: recache,
		notify:  notify,
		log:     log,
		lanes:   make(map[quad.IRI]chan Record),
	}
	t.window = NewWindow(cfg.WindowDelay, cfg.WindowCapacity, t.onWindowFlush)
	return t
}

// lane returns (creating if needed) the single-goroutine channel that all
// records for key must pass through.
func (t *Topology) lane(ctx context.Context, key quad.IRI) chan Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ch, ok := t.lanes[key]; ok {
		return ch
	}
	ch := make(chan Record, 64)
	t.lanes[key] = ch
	go t.runLane(ctx, key, ch)
	return ch
}

func (t *Topology) runLane(ctx context.Context, key quad.IRI, ch chan Record) {
	for rec := range ch {
		if err := t.dispatch(ctx, rec); err != nil {
			t.log.WithError(err).WithField("resource", key).Warn("topology: record processing failed")
		}
	}
}

// Submit routes rec onto topic, via the resource's ordered lane.
func (t *Topology) Submit(ctx context.Context, topic Topic, rec Record) {
	rec.topic = topic
	t.lane(ctx, rec.Resource) <- rec
}

func (t *Topology) dispatch(ctx context.Context, rec Record) error {
	switch rec.topic {
	case TopicUpdate:
		return t.onUpdate(ctx, rec)
	case TopicDelete:
		return t.onDelete(ctx, rec)
	case TopicContainerAdd:
		return t.onContainerAdd(ctx, rec)
	case TopicContainerDelete:
		return t.onContainerDelete(ctx, rec)
	case TopicInboundAdd, TopicInboundDelete:
		return t.onInbound(ctx, rec)
	case TopicRecache:
		t.window.Offer(rec.Resource, rec)
		return nil
	case TopicEvent:
		return t.notify.Publish(ctx, TopicEvent, rec)
	}
	return nil
}

func (t *Topology) onUpdate(ctx context.Context, rec Record) error {
	if parent, ok := rec.ContainsContainment(); ok {
		rec.Parent = parent
		t.Submit(ctx, TopicContainerAdd, rec)
	}
	if rec.HasInboundChange() {
		t.Submit(ctx, TopicInboundAdd, rec)
	}
	t.Submit(ctx, TopicRecache, rec)
	return nil
}

// onDelete branches if/elseif/else: a direct TOPIC_EVENT for the original
// resource only fires in the final else, when neither the container-delete
// nor the inbound-delete branch fired. The container-delete branch
// recaches the parent, whose window flush emits the event; the
// inbound-delete branch mutates its target and emits no event.
func (t *Topology) onDelete(ctx context.Context, rec Record) error {
	var published bool

	if parent, ok := rec.RemovesContainment(); ok {
		rec.Parent = parent
		t.Submit(ctx, TopicContainerDelete, rec)
		published = true
	} else if rec.HasInboundChange() {
		t.Submit(ctx, TopicInboundDelete, rec)
		published = true
	}

	if rec.Hop < MaxDeleteHops {
		rec.Hop++
		t.Submit(ctx, TopicDelete, rec)
	} else {
		t.log.WithField("resource", rec.Resource).Debug("topology: dropping delete record past max republish hops")
	}

	if !published {
		return t.notify.Publish(ctx, TopicEvent, rec)
	}
	return nil
}

func (t *Topology) onContainerAdd(ctx context.Context, rec Record) error {
	contains := quad.Make(rec.Parent, quad.LDPContains, rec.Resource, quad.PreferServerManaged.Graph())
	if err := t.mutate(ctx, rec.Parent, nil, []quad.Quad{contains}, rec.At); err != nil {
		return err
	}
	rec.Resource = rec.Parent
	t.Submit(ctx, TopicRecache, rec)
	return nil
}

func (t *Topology) onContainerDelete(ctx context.Context, rec Record) error {
	contains := quad.Make(rec.Parent, quad.LDPContains, rec.Resource, quad.PreferServerManaged.Graph())
	if err := t.mutate(ctx, rec.Parent, []quad.Quad{contains}, nil, rec.At); err != nil {
		return err
	}
	rec.Resource = rec.Parent
	t.Submit(ctx, TopicRecache, rec)
	return nil
}

func (t *Topology) onInbound(ctx context.Context, rec Record) error {
	return t.mutate(ctx, rec.Resource, rec.Remove, rec.Add, rec.At)
}

func (t *Topology) onWindowFlush(key quad.IRI, rec Record) {
	ctx := context.Background()
	if err := t.recache(ctx, key); err != nil {
		t.log.WithError(err).WithField("resource", key).Warn("topology: cache regeneration failed")
		return
	}
	if err := t.notify.Publish(ctx, TopicEvent, rec); err != nil {
		// Event publish failure is logged, not propagated: the cache
		// already reflects reality by this point.
		t.log.WithError(err).WithField("resource", key).Warn("topology: event publish failed")
	}
}

// Close stops the coalescing window from accepting new records. Lane
// goroutines are not stopped: their channels are never closed, and runLane
// does not watch the context, which only reaches the callbacks it is
// passed to.
func (t *Topology) Close() { t.window.Stop() }
