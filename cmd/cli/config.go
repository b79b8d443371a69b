package main

import (
	"fmt"
	"os"

	"github.com/himanishpuri/fpstore/pkg/logger"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// fileConfig is the optional YAML config file. Flags set on the command
// line win over values from the file.
type fileConfig struct {
	Database struct {
		Path      string `yaml:"path"`
		PoolSize  int    `yaml:"pool_size"`
		MaxConns  int    `yaml:"max_conns"`
		BatchSize int    `yaml:"batch_size"`
	} `yaml:"database"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

func loadConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

func applyConfig(cmd *cobra.Command) error {
	if configPath != "" {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if cfg.Database.Path != "" && !flags.Changed("db") {
			dbPath = cfg.Database.Path
		}
		if cfg.Database.PoolSize != 0 && !flags.Changed("pool-size") {
			poolSize = cfg.Database.PoolSize
		}
		if cfg.Database.MaxConns != 0 && !flags.Changed("max-conns") {
			maxConns = cfg.Database.MaxConns
		}
		if cfg.Database.BatchSize != 0 && !flags.Changed("batch-size") {
			batchSize = cfg.Database.BatchSize
		}
		if cfg.Log.Level != "" && !flags.Changed("log-level") {
			logLevel = cfg.Log.Level
		}
		if cfg.Log.Format == "json" {
			logger.GetLogger().SetJSON(true)
		}
	}

	logger.SetLevel(logger.ParseLevel(logLevel))
	return nil
}
