package storage

import (
	"fmt"
	"time"

	"github.com/himanishpuri/fpstore/internal/pool"
	"github.com/himanishpuri/fpstore/pkg/logger"
	"gorm.io/gorm"
)

const (
	DefaultDBFile = "acousticdna.sqlite3"

	// DefaultBatchSize is the number of rows per INSERT and hashes per lookup.
	DefaultBatchSize = 1000

	// MaxBatchSize keeps a multi-row fingerprint INSERT (three parameters per
	// row) under SQLite's default limit of 32766 bound variables.
	MaxBatchSize = maxVariables / 3

	maxVariables = 32766
)

// Options configures a DBClient.
type Options struct {
	// Path is the SQLite database file. Parent directories are created.
	Path string

	// PoolSize is the number of idle connections kept warm.
	PoolSize int

	// MaxConns caps connections checked out at once. Zero means no cap.
	MaxConns int

	// BatchSize bounds rows per INSERT and hashes per IN-list.
	BatchSize int

	// BusyTimeout is how long a connection waits on a locked database.
	BusyTimeout time.Duration

	// OnConnect runs once on every new connection, after it has been opened
	// and probed.
	OnConnect func(db *gorm.DB) error

	Logger *logger.Logger
}

func DefaultOptions() Options {
	return Options{
		Path:        DefaultDBFile,
		PoolSize:    pool.DefaultCapacity,
		BatchSize:   DefaultBatchSize,
		BusyTimeout: 5 * time.Second,
	}
}

// Validate checks that options are usable.
func (o Options) Validate() error {
	if o.Path == "" {
		return fmt.Errorf("%w: path is required", ErrInvalidConfig)
	}
	if o.Path == ":memory:" {
		return fmt.Errorf("%w: in-memory databases are private to one connection; use a file path", ErrInvalidConfig)
	}
	if o.PoolSize < 1 {
		return fmt.Errorf("%w: pool size must be at least 1, got %d", ErrInvalidConfig, o.PoolSize)
	}
	if o.MaxConns < 0 {
		return fmt.Errorf("%w: max conns must not be negative, got %d", ErrInvalidConfig, o.MaxConns)
	}
	if o.BusyTimeout < 0 {
		return fmt.Errorf("%w: busy timeout must not be negative", ErrInvalidConfig)
	}
	return validateBatchSize(o.BatchSize)
}

func validateBatchSize(n int) error {
	if n < 1 || n > MaxBatchSize {
		return fmt.Errorf("%w: batch size must be between 1 and %d, got %d", ErrCapacity, MaxBatchSize, n)
	}
	return nil
}
