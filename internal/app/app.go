// Package app wires the storage engine's packages into one running
// instance from a resolved internal/config.Config: logger, lock store,
// notification sink, resource service, and (in asynchronous mode) the
// stream topology that maintains containment/inbound references and
// coalesces cache regeneration off the write path. cmd/rosidctl is the
// only caller; every other package stays ignorant of how the others are
// assembled.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/acoburn/trellis-rosid/internal/bootstrap"
	"github.com/acoburn/trellis-rosid/internal/config"
	"github.com/acoburn/trellis-rosid/internal/lock"
	"github.com/acoburn/trellis-rosid/internal/notify"
	"github.com/acoburn/trellis-rosid/internal/quad"
	"github.com/acoburn/trellis-rosid/internal/resource"
	"github.com/acoburn/trellis-rosid/internal/rosid"
	"github.com/acoburn/trellis-rosid/internal/rosidlog"
	"github.com/acoburn/trellis-rosid/internal/topology"
)

// App is one assembled storage-engine instance.
type App struct {
	Config   config.Config
	Log      *logrus.Logger
	Service  *rosid.Service
	Topology *topology.Topology // nil in synchronous mode

	redisClient *redis.Client
	locksCloser interface{ Close() error }
}

// loggingPublisher stands in for topology.Publisher when no Redis endpoint
// is configured: TOPIC_EVENT records are just logged, matching a
// single-process deployment with no external event log to fan out to.
type loggingPublisher struct{ log *logrus.Entry }

func (p loggingPublisher) Publish(ctx context.Context, topic topology.Topic, rec topology.Record) error {
	p.log.WithField("topic", topic).WithField("resource", rec.Resource).Debug("app: topology event (no external transport configured)")
	return nil
}

// New assembles an App from cfg. The caller owns the returned App and must
// call Close when done.
func New(cfg config.Config) (*App, error) {
	log := rosidlog.New(rosidlog.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	entry := logrus.NewEntry(log)

	var locks lock.Store
	var sink notify.Sink
	var publisher topology.Publisher = loggingPublisher{log: entry}
	var redisClient *redis.Client
	var locksCloser interface{ Close() error }

	if cfg.RedisURL != "" {
		redisLock, err := lock.NewRedis(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("app: connect lock store: %w", err)
		}
		locks = redisLock
		locksCloser = redisLock

		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("app: parse redis url: %w", err)
		}
		redisClient = redis.NewClient(opts)
		sink = notify.NewRedis(redisClient, "rosid:events")
		publisher = topology.NewRedisPublisher(redisClient, "rosid:")
	} else {
		locks = lock.NewLocal()
	}

	svcCfg := rosid.Config{Root: cfg.Root, Async: cfg.Async, LockTimeout: cfg.LockTimeout}
	ids := bootstrap.UUIDSkolemizer{}

	var recacheFn func(ctx context.Context, id quad.IRI) error
	if cfg.Async {
		// Cache regeneration happens off the write path, triggered by the
		// topology's coalescing window instead of inline on every Write.
		recacheFn = func(ctx context.Context, id quad.IRI) error { return nil }
	}

	svc := rosid.New(svcCfg, locks, sink, ids, entry, recacheFn)

	index, err := resource.RebuildIndex(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("app: rebuild list index: %w", err)
	}
	svc.WithIndex(index)

	a := &App{
		Config:      cfg,
		Log:         log,
		Service:     svc,
		redisClient: redisClient,
		locksCloser: locksCloser,
	}

	if cfg.Async {
		topoCfg := topology.Config{WindowDelay: cfg.WindowDelay, WindowCapacity: cfg.WindowCapacity}
		a.Topology = topology.New(topoCfg, svc.Write, svc.Recache, publisher, entry)
	}

	return a, nil
}

// Dispatch submits a write's resulting Record onto the topology for
// asynchronous containment/inbound maintenance and cache regeneration. It
// is a no-op in synchronous mode: there Service.Write has already
// regenerated the cache inline, and no containment/inbound maintenance runs.
func (a *App) Dispatch(ctx context.Context, topic topology.Topic, rec topology.Record) {
	if a.Topology == nil {
		return
	}
	a.Topology.Submit(ctx, topic, rec)
}

// EnsureRoot initializes partition's root resource, a thin pass-through to
// internal/bootstrap kept on App so cmd/rosidctl doesn't need to know about
// the admin agent-class IRI convention.
func (a *App) EnsureRoot(ctx context.Context, partition string) error {
	admin := quad.IRI("info:trellis/" + partition + "/admin")
	return bootstrap.EnsureRoot(ctx, a.Service, partition, admin, bootstrap.UUIDSkolemizer{})
}

// Close releases the App's external connections. Pending topology windows
// are stopped, not flushed early; in-flight writes already committed to the
// journal are unaffected.
func (a *App) Close() error {
	if a.Topology != nil {
		a.Topology.Close()
	}
	if a.locksCloser != nil {
		_ = a.locksCloser.Close()
	}
	if a.redisClient != nil {
		return a.redisClient.Close()
	}
	return nil
}

// Ping checks that the service's storage root accepts a writable probe,
// used by cmd/rosidctl's "serve" startup check. The probe is a single write
// attempt; timeout only sets the deadline of the context handed to
// Service.Ping, which does not consult it.
func (a *App) Ping(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return a.Service.Ping(ctx)
}
