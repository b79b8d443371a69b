// Package pool keeps a small cache of warm backing-store connections.
//
// The cache bounds idle reuse, not concurrency: when it is empty Acquire
// dials a new connection, so the number of live connections can exceed the
// cache capacity under load. Wrap a Pool in a Limiter when the backing store
// needs admission control.
//
// Every connection has exactly one owner at a time, either the cache or the
// caller that acquired it.
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/himanishpuri/fpstore/pkg/logger"
)

// DefaultCapacity is the number of idle connections kept warm.
const DefaultCapacity = 5

var (
	// ErrClosed is returned by Acquire after Close.
	ErrClosed = errors.New("pool: closed")
	// ErrDial wraps failures to open a new connection.
	ErrDial = errors.New("pool: dial failed")
)

// Conn is anything the pool can probe and close.
type Conn interface {
	Ping(ctx context.Context) error
	Close() error
}

// DialFunc opens a new connection.
type DialFunc[C Conn] func(ctx context.Context) (C, error)

// Source hands out connections and takes them back.
type Source[C Conn] interface {
	Acquire(ctx context.Context) (C, error)
	Release(conn C)
}

// Stats is a snapshot of pool counters.
type Stats struct {
	Capacity      int
	Idle          int
	Opened        int64
	Closed        int64
	Reused        int64
	ProbeFailures int64
}

type Pool[C Conn] struct {
	dial     DialFunc[C]
	capacity int
	log      *logger.Logger

	cache  atomic.Pointer[chan C]
	closed atomic.Bool

	opened        atomic.Int64
	closedCount   atomic.Int64
	reused        atomic.Int64
	probeFailures atomic.Int64
}

type Option func(*config)

type config struct {
	capacity int
	log      *logger.Logger
}

// WithCapacity sets how many idle connections are cached.
func WithCapacity(n int) Option {
	return func(c *config) {
		c.capacity = n
	}
}

func WithLogger(log *logger.Logger) Option {
	return func(c *config) {
		c.log = log
	}
}

// New creates an empty pool. Connections are dialed lazily.
func New[C Conn](dial DialFunc[C], opts ...Option) *Pool[C] {
	cfg := config{capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.capacity < 1 {
		cfg.capacity = DefaultCapacity
	}
	if cfg.log == nil {
		cfg.log = logger.Discard()
	}

	p := &Pool[C]{
		dial:     dial,
		capacity: cfg.capacity,
		log:      cfg.log,
	}
	cache := make(chan C, cfg.capacity)
	p.cache.Store(&cache)
	return p
}

// Acquire returns a live connection, reusing an idle one when available.
// A cached connection that fails its probe is closed and replaced.
func (p *Pool[C]) Acquire(ctx context.Context) (C, error) {
	var zero C
	if p.closed.Load() {
		return zero, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	cache := *p.cache.Load()
	select {
	case conn := <-cache:
		if err := conn.Ping(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				// the caller gave up; the connection is not at fault
				p.Release(conn)
				return zero, ctxErr
			}
			p.probeFailures.Add(1)
			p.log.Warnf("discarding dead pooled connection: %v", err)
			p.close(conn)
			return p.open(ctx)
		}
		p.reused.Add(1)
		return conn, nil
	default:
		return p.open(ctx)
	}
}

// Release returns conn to the idle cache, or closes it when the cache is full.
// It never blocks.
func (p *Pool[C]) Release(conn C) {
	if p.closed.Load() {
		p.close(conn)
		return
	}

	ptr := p.cache.Load()
	select {
	case *ptr <- conn:
	default:
		p.log.Debugf("idle cache full (%d), closing connection", p.capacity)
		p.close(conn)
		return
	}

	// A Reset or Close may have swapped the cache between our load and the
	// send; whatever landed in the stale cache is ours to close.
	if p.cache.Load() != ptr || p.closed.Load() {
		p.drain(*ptr)
	}
}

// Reset discards every idle connection by swapping in a fresh cache.
// Connections currently held by callers are unaffected and are cached again
// on Release. Hosts call it after spawning worker processes so inherited
// handles are never reused.
func (p *Pool[C]) Reset() {
	fresh := make(chan C, p.capacity)
	old := p.cache.Swap(&fresh)
	n := p.drain(*old)
	p.log.Infof("connection pool reset, discarded %d idle connections", n)
}

// Close discards idle connections. Connections released afterwards are
// closed instead of cached.
func (p *Pool[C]) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	p.drain(*p.cache.Load())
	return nil
}

func (p *Pool[C]) Stats() Stats {
	return Stats{
		Capacity:      p.capacity,
		Idle:          len(*p.cache.Load()),
		Opened:        p.opened.Load(),
		Closed:        p.closedCount.Load(),
		Reused:        p.reused.Load(),
		ProbeFailures: p.probeFailures.Load(),
	}
}

func (p *Pool[C]) open(ctx context.Context) (C, error) {
	conn, err := p.dial(ctx)
	if err != nil {
		var zero C
		return zero, fmt.Errorf("%w: %w", ErrDial, err)
	}
	p.opened.Add(1)
	return conn, nil
}

func (p *Pool[C]) close(conn C) {
	p.closedCount.Add(1)
	if err := conn.Close(); err != nil {
		p.log.Warnf("closing pooled connection: %v", err)
	}
}

func (p *Pool[C]) drain(cache chan C) int {
	n := 0
	for {
		select {
		case conn := <-cache:
			p.close(conn)
			n++
		default:
			return n
		}
	}
}
