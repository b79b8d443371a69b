//go:build !js && !wasm
// +build !js,!wasm

package storage

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/himanishpuri/fpstore/internal/pool"
	"github.com/himanishpuri/fpstore/pkg/logger"
	"github.com/himanishpuri/fpstore/pkg/models"
	"github.com/himanishpuri/fpstore/pkg/utils"
	"golang.org/x/sync/semaphore"
)

// DBClient is the fingerprint store. Every operation runs in its own scoped
// session on a pooled connection; the client itself holds no connection.
type DBClient struct {
	opts   Options
	pool   *pool.Pool[*Conn]
	src    pool.Source[*Conn]
	writer *semaphore.Weighted
	log    *logger.Logger
	closed atomic.Bool
}

// NewDBClient opens the database named by ACOUSTIC_DB_PATH, or DefaultDBFile.
func NewDBClient() (*DBClient, error) {
	dbPath := os.Getenv("ACOUSTIC_DB_PATH")
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return NewDBClientWithPath(dbPath)
}

func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	opts := DefaultOptions()
	opts.Path = dbPath
	return NewDBClientWithOptions(context.Background(), opts)
}

// NewDBClientWithOptions validates opts, creates the schema and returns a
// client with a warm connection in its pool.
func NewDBClientWithOptions(ctx context.Context, opts Options) (*DBClient, error) {
	if err := opts.Validate(); err != nil {
		return nil, wrapError("open", err)
	}
	if err := utils.EnsureParentDir(opts.Path); err != nil {
		return nil, wrapError("open", fmt.Errorf("%w: creating db dir: %w", ErrConnection, err))
	}

	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}

	c := &DBClient{
		opts:   opts,
		writer: semaphore.NewWeighted(1),
		log:    log.With("component", "storage"),
	}
	c.pool = pool.New(c.dial, pool.WithCapacity(opts.PoolSize), pool.WithLogger(c.log))
	c.src = c.pool
	if opts.MaxConns > 0 {
		c.src = pool.NewLimiter[*Conn](c.pool, opts.MaxConns)
	}

	if err := c.CreateSchema(ctx); err != nil {
		c.pool.Close()
		return nil, err
	}

	c.log.Infof("opened fingerprint store at %s (pool %d, batch %d)", opts.Path, opts.PoolSize, opts.BatchSize)
	return c, nil
}

// Close discards idle connections. Connections still held by running
// sessions are closed when those sessions end.
func (c *DBClient) Close() error {
	if c == nil || c.pool == nil {
		return nil
	}
	if c.closed.Swap(true) {
		return nil
	}
	return c.pool.Close()
}

// ResetPool discards every idle connection. Hosts that spawn worker
// processes call it in the child so inherited handles are never reused.
func (c *DBClient) ResetPool() {
	if c == nil || c.pool == nil {
		return
	}
	c.pool.Reset()
}

func (c *DBClient) PoolStats() models.PoolStats {
	if c == nil || c.pool == nil {
		return models.PoolStats{}
	}
	s := c.pool.Stats()
	return models.PoolStats{
		Capacity:      s.Capacity,
		Idle:          s.Idle,
		Opened:        s.Opened,
		Closed:        s.Closed,
		Reused:        s.Reused,
		ProbeFailures: s.ProbeFailures,
	}
}

// BatchSize reports the configured chunk size.
func (c *DBClient) BatchSize() int {
	return c.opts.BatchSize
}

// Path reports the database file.
func (c *DBClient) Path() string {
	return c.opts.Path
}
