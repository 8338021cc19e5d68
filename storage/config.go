package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Config holds buffer pool kernel configuration
type Config struct {
	// Buffer Pool Configuration
	PoolSize int `json:"pool_size"` // Number of frames in the buffer pool
	ReplacerPolicy string `json:"replacer_policy"` // Replacement policy (lru-k, lru)
	ReplacerK int `json:"replacer_k"` // History depth for LRU-K

	// Disk Configuration
	DataDirectory string `json:"data_directory"` // Directory for data files
	UseMmap bool `json:"use_mmap"` // Memory-mapped disk manager
	PageCompression bool `json:"page_compression"` // Frame pages through the codec
	CompressionAlg string `json:"compression_alg"` // Compression algorithm (none, lz4, snappy)

	// WAL Configuration
	WALEnabled bool `json:"wal_enabled"` // Whether the pool holds a log manager
	WALDirectory string `json:"wal_directory"` // Directory for WAL files

	// Observability
	EnableMetrics bool `json:"enable_metrics"` // Whether to collect performance metrics
	LogLevel string `json:"log_level"` // Log level (debug, info, warn, error)
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		PoolSize: 64,
		ReplacerPolicy: "lru-k",
		ReplacerK: 2,
		DataDirectory: "./data",
		UseMmap: false,
		PageCompression: false,
		CompressionAlg: "none",
		WALEnabled: false,
		WALDirectory: "./wal",
		EnableMetrics: true,
		LogLevel: "info",
	}
}

// LoadConfigFromFile loads configuration from a JSON file
func LoadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// LoadConfigFromEnv loads configuration from environment variables.
// Falls back to default values if environment variables are not set.
func LoadConfigFromEnv() *Config {
	config := DefaultConfig()

	if val := os.Getenv("MARROW_POOL_SIZE"); val != "" {
		if size, err := strconv.Atoi(val); err == nil {
			config.PoolSize = size
		}
	}

	if val := os.Getenv("MARROW_REPLACER_POLICY"); val != "" {
		config.ReplacerPolicy = val
	}

	if val := os.Getenv("MARROW_REPLACER_K"); val != "" {
		if k, err := strconv.Atoi(val); err == nil {
			config.ReplacerK = k
		}
	}

	if val := os.Getenv("MARROW_DATA_DIRECTORY"); val != "" {
		config.DataDirectory = val
	}

	if val := os.Getenv("MARROW_USE_MMAP"); val != "" {
		config.UseMmap = val == "true" || val == "1"
	}

	if val := os.Getenv("MARROW_PAGE_COMPRESSION"); val != "" {
		config.PageCompression = val == "true" || val == "1"
	}

	if val := os.Getenv("MARROW_COMPRESSION_ALG"); val != "" {
		config.CompressionAlg = val
	}

	if val := os.Getenv("MARROW_WAL_ENABLED"); val != "" {
		config.WALEnabled = val == "true" || val == "1"
	}

	if val := os.Getenv("MARROW_WAL_DIRECTORY"); val != "" {
		config.WALDirectory = val
	}

	if val := os.Getenv("MARROW_ENABLE_METRICS"); val != "" {
		config.EnableMetrics = val == "true" || val == "1"
	}

	if val := os.Getenv("MARROW_LOG_LEVEL"); val != "" {
		config.LogLevel = val
	}

	return config
}

// SaveToFile saves the configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	data, err := json.MarshalIndent(c, "", " ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.PoolSize <= 0 {
		return fmt.Errorf("pool size must be greater than 0")
	}

	if c.ReplacerPolicy != "lru-k" && c.ReplacerPolicy != "lru" {
		return fmt.Errorf("invalid replacer policy: %s (must be lru-k or lru)", c.ReplacerPolicy)
	}

	if c.ReplacerK <= 0 {
		return fmt.Errorf("replacer k must be greater than 0")
	}

	if c.DataDirectory == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	if c.PageCompression {
		switch c.CompressionAlg {
		case "none", "lz4", "snappy":
		default:
			return fmt.Errorf("invalid compression algorithm: %s (must be none, lz4, or snappy)", c.CompressionAlg)
		}
	}

	if c.WALEnabled && c.WALDirectory == "" {
		return fmt.Errorf("WAL directory cannot be empty when WAL is enabled")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info": true,
		"warn": true,
		"error": true,
	}

	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// Clone creates a copy of the configuration
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
