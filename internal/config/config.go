package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultCorpusURL is the ConvoKit distribution of the Cornell
// movie-dialogs corpus.
const DefaultCorpusURL = "https://zissou.infosci.cornell.edu/convokit/datasets/movie-corpus/movie-corpus.zip"

// Config holds all application configuration.
type Config struct {
	// Database
	DatabasePath string

	// Corpus
	CorpusDir string
	CorpusURL string

	// Classification overrides; empty means curated defaults.
	RobotNames    []string
	RobotKeywords []string

	// Pipeline
	BatchSize int

	// Logging
	LogLevel string

	// Synopses
	SynopsisFile string
}

// Load reads configuration from environment variables.
// It automatically loads .env file if present.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		DatabasePath:  getEnv("DATABASE_PATH", "data/robodialog.db"),
		CorpusDir:     getEnv("CORPUS_DIR", "data/movie-corpus"),
		CorpusURL:     getEnv("CORPUS_URL", DefaultCorpusURL),
		RobotNames:    splitList(getEnv("ROBOT_NAMES", "")),
		RobotKeywords: splitList(getEnv("ROBOT_KEYWORDS", "")),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		SynopsisFile:  getEnv("SYNOPSIS_FILE", ""),
	}

	batchSize, err := strconv.Atoi(getEnv("BATCH_SIZE", "500"))
	if err != nil {
		return nil, fmt.Errorf("invalid BATCH_SIZE: %w", err)
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("invalid BATCH_SIZE: must be positive, got %d", batchSize)
	}
	cfg.BatchSize = batchSize

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	return nil
}

// ValidateForExtraction checks configuration needed for dialogue
// extraction.
func (c *Config) ValidateForExtraction() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.CorpusDir == "" {
		return fmt.Errorf("CORPUS_DIR is required for extraction")
	}
	return nil
}

// ValidateForDownload checks configuration needed for corpus download.
func (c *Config) ValidateForDownload() error {
	if c.CorpusDir == "" {
		return fmt.Errorf("CORPUS_DIR is required for download")
	}
	if c.CorpusURL == "" {
		return fmt.Errorf("CORPUS_URL is required for download")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// splitList parses a comma-separated env value into trimmed entries,
// dropping empties.
func splitList(val string) []string {
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
