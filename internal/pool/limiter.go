package pool

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// Limiter caps the number of connections checked out at once. It composes
// with a Pool rather than changing the pool's idle-cache semantics.
type Limiter[C Conn] struct {
	src Source[C]
	sem *semaphore.Weighted
	max int64
}

// NewLimiter admits at most n concurrent holders of src.
func NewLimiter[C Conn](src Source[C], n int) *Limiter[C] {
	if n < 1 {
		n = 1
	}
	return &Limiter[C]{src: src, sem: semaphore.NewWeighted(int64(n)), max: int64(n)}
}

// Acquire waits for a slot, then takes a connection from the source.
func (l *Limiter[C]) Acquire(ctx context.Context) (C, error) {
	var zero C
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return zero, fmt.Errorf("pool: waiting for connection slot: %w", err)
	}
	conn, err := l.src.Acquire(ctx)
	if err != nil {
		l.sem.Release(1)
		return zero, err
	}
	return conn, nil
}

func (l *Limiter[C]) Release(conn C) {
	l.src.Release(conn)
	l.sem.Release(1)
}

// Max is the admission limit.
func (l *Limiter[C]) Max() int {
	return int(l.max)
}
