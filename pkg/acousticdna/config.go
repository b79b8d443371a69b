package acousticdna

import (
	"os"

	"github.com/himanishpuri/fpstore/internal/storage"
)

type Config struct {
	DBPath    string
	PoolSize  int
	MaxConns  int
	BatchSize int
	Logger    Logger
	Storage   Storage
}

type Option func(*Config)

func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

// WithPoolSize sets how many idle connections are kept warm.
func WithPoolSize(n int) Option {
	return func(c *Config) {
		c.PoolSize = n
	}
}

// WithMaxConns caps connections in use at once. Zero leaves it uncapped.
func WithMaxConns(n int) Option {
	return func(c *Config) {
		c.MaxConns = n
	}
}

// WithBatchSize sets rows per INSERT and hashes per lookup.
func WithBatchSize(n int) Option {
	return func(c *Config) {
		c.BatchSize = n
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func WithStorage(storage Storage) Option {
	return func(c *Config) {
		c.Storage = storage
	}
}

func defaultConfig() *Config {
	dbPath := os.Getenv("ACOUSTIC_DB_PATH")
	if dbPath == "" {
		dbPath = storage.DefaultDBFile
	}
	defaults := storage.DefaultOptions()
	return &Config{
		DBPath:    dbPath,
		PoolSize:  defaults.PoolSize,
		BatchSize: defaults.BatchSize,
		Logger:    nil,
	}
}
