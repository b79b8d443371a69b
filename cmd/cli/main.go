package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/himanishpuri/fpstore/internal/storage"
	"github.com/himanishpuri/fpstore/pkg/acousticdna"
	"github.com/himanishpuri/fpstore/pkg/logger"
	"github.com/spf13/cobra"
)

// Global flags
var (
	dbPath     string
	configPath string
	poolSize   int
	maxConns   int
	batchSize  int
	logLevel   string
)

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "fpstore",
		Short:         "Fingerprint store CLI",
		Long:          `Ingest fingerprint hashes into a SQLite store and resolve query hashes into offset deltas.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return applyConfig(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&dbPath, "db", getEnvOrDefault("ACOUSTIC_DB_PATH", storage.DefaultDBFile), "Path to the SQLite database file")
	pf.StringVar(&configPath, "config", os.Getenv("FPSTORE_CONFIG"), "Path to a YAML config file")
	pf.IntVar(&poolSize, "pool-size", storage.DefaultOptions().PoolSize, "Idle connections kept warm")
	pf.IntVar(&maxConns, "max-conns", 0, "Maximum connections in use at once (0 = unlimited)")
	pf.IntVar(&batchSize, "batch-size", storage.DefaultBatchSize, "Rows per INSERT and hashes per lookup")
	pf.StringVar(&logLevel, "log-level", getEnvOrDefault("LOG_LEVEL", "info"), "Log level (debug, info, warn, fatal)")

	root.AddCommand(
		newInitCmd(),
		newIngestCmd(),
		newMatchCmd(),
		newSongsCmd(),
		newDeleteCmd(),
		newStatsCmd(),
		newPurgeCmd(),
		newExportCmd(),
		newEmptyCmd(),
	)
	return root
}

// createService creates a new service with configured options
func createService() (acousticdna.Service, error) {
	return acousticdna.NewService(
		acousticdna.WithDBPath(dbPath),
		acousticdna.WithPoolSize(poolSize),
		acousticdna.WithMaxConns(maxConns),
		acousticdna.WithBatchSize(batchSize),
		acousticdna.WithLogger(logger.GetLogger()),
	)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.GetLogger().Errorf("command failed: %v", err)
		os.Exit(1)
	}
}
