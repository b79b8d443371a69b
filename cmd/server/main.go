//go:build !js && !wasm

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/himanishpuri/fpstore/internal/storage"
	"github.com/himanishpuri/fpstore/pkg/acousticdna"
	"github.com/himanishpuri/fpstore/pkg/logger"
)

var (
	port           int
	dbPath         string
	allowedOrigins string
	poolSize       int
	maxConns       int
	batchSize      int
	logLevel       string
	accessLog      bool
	requestTimeout time.Duration
)

func init() {
	flag.IntVar(&port, "port", 8080, "HTTP server port")
	flag.StringVar(&dbPath, "db", getEnvOrDefault("ACOUSTIC_DB_PATH", storage.DefaultDBFile), "Path to SQLite database")
	flag.StringVar(&allowedOrigins, "origins", "*", "Comma-separated list of allowed CORS origins (use * for all)")
	flag.IntVar(&poolSize, "pool-size", storage.DefaultOptions().PoolSize, "Idle connections kept warm")
	flag.IntVar(&maxConns, "max-conns", 0, "Maximum connections in use at once (0 = uncapped)")
	flag.IntVar(&batchSize, "batch-size", storage.DefaultBatchSize, "Rows per INSERT and hashes per lookup")
	flag.StringVar(&logLevel, "log-level", defaultLogLevel(), "Log level (debug, info, warn, fatal)")
	flag.BoolVar(&accessLog, "access-log", false, "Log every request")
	flag.DurationVar(&requestTimeout, "timeout", time.Minute, "Per-request storage timeout")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// defaultLogLevel follows LOG_LEVEL, the variable the logger itself reads.
func defaultLogLevel() string {
	return getEnvOrDefault("LOG_LEVEL", "info")
}

func parseOrigins(raw string) []string {
	if raw == "*" {
		return []string{"*"}
	}
	origins := strings.Split(raw, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return origins
}

func main() {
	flag.Parse()
	logger.SetLevel(logger.ParseLevel(logLevel))

	service, err := acousticdna.NewService(
		acousticdna.WithDBPath(dbPath),
		acousticdna.WithPoolSize(poolSize),
		acousticdna.WithMaxConns(maxConns),
		acousticdna.WithBatchSize(batchSize),
		acousticdna.WithLogger(logger.GetLogger()),
	)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}
	defer service.Close()

	config := &ServerConfig{
		Port:           port,
		DBPath:         dbPath,
		AllowedOrigins: parseOrigins(allowedOrigins),
		RequestTimeout: requestTimeout,
		AccessLog:      accessLog,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := NewServer(service, config)
	if err := server.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		service.Close()
		log.Fatalf("Server failed: %v", err)
	}
}
