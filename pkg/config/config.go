// Package config handles loading and managing bridgewatch configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/bridgewatch/bridgewatch/pkg/scoring"
)

// Config is the top-level configuration for bridgewatch.
type Config struct {
	Scoring    ScoringConfig    `yaml:"scoring"`
	Simulation SimulationConfig `yaml:"simulation"`
	Predictor  PredictorConfig  `yaml:"predictor"`
	Sorting    SortingConfig    `yaml:"sorting"`
	Cache      CacheConfig      `yaml:"cache"`
	Storage    StorageConfig    `yaml:"storage"`
}

// ScoringConfig overrides model constants by name. See scoring.WeightKeys.
type ScoringConfig struct {
	Weights map[string]float64 `yaml:"weights"`
}

// SimulationConfig controls the sensor simulator.
type SimulationConfig struct {
	IntervalMS int    `yaml:"interval_ms"`
	Seed       uint64 `yaml:"seed"` // 0 picks a random seed per session
}

// PredictorConfig points at the external deterioration predictor.
type PredictorConfig struct {
	URL     string `yaml:"url"`
	Timeout int    `yaml:"timeout"` // seconds
}

// SortingConfig controls string collation.
type SortingConfig struct {
	Locale string `yaml:"locale"`
}

// CacheConfig controls the predictor response cache.
type CacheConfig struct {
	TTL       int    `yaml:"ttl"` // seconds
	Size      int    `yaml:"size"`
	RedisAddr string `yaml:"redis_addr"`
}

// StorageConfig selects the photo storage backend.
type StorageConfig struct {
	Backend  string `yaml:"backend"` // local, s3 or gcs
	Dir      string `yaml:"dir"`
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Scoring: ScoringConfig{
			Weights: map[string]float64{},
		},
		Simulation: SimulationConfig{
			IntervalMS: 3000,
		},
		Predictor: PredictorConfig{
			Timeout: 30,
		},
		Sorting: SortingConfig{
			Locale: "en",
		},
		Cache: CacheConfig{
			TTL:  30,
			Size: 256,
		},
		Storage: StorageConfig{
			Backend: "local",
			Dir:     filepath.Join(DataDir(), "photos"),
		},
	}
}

// Load reads a config file from the given path.
// If the file does not exist, it returns the default config.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// FindConfigFile looks for .bridgewatch/config.yaml in the given directory
// and its parents, returning the path if found, or "" if not.
func FindConfigFile(dir string) string {
	for {
		candidate := filepath.Join(dir, ".bridgewatch", "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// Engine builds a scoring engine with the configured weight overrides.
func (c *Config) Engine() (*scoring.Engine, error) {
	w := scoring.Defaults()
	if err := w.Apply(c.Scoring.Weights); err != nil {
		return nil, fmt.Errorf("scoring weights: %w", err)
	}
	return scoring.NewEngine(w), nil
}

// SimulationInterval returns the tick interval.
func (c *Config) SimulationInterval() time.Duration {
	if c.Simulation.IntervalMS <= 0 {
		return 3 * time.Second
	}
	return time.Duration(c.Simulation.IntervalMS) * time.Millisecond
}

// PredictorTimeout returns the per-request predictor timeout.
func (c *Config) PredictorTimeout() time.Duration {
	return time.Duration(c.Predictor.Timeout) * time.Second
}

// CacheTTL returns how long predictor responses stay fresh.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTL) * time.Second
}

// Locale parses the collation locale.
func (c *Config) Locale() (language.Tag, error) {
	tag, err := language.Parse(c.Sorting.Locale)
	if err != nil {
		return language.Und, fmt.Errorf("sorting locale %q: %w", c.Sorting.Locale, err)
	}
	return tag, nil
}

// DataDir returns the per-user data directory, ~/.cache/bridgewatch.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to temp dir if HOME isn't available
		home = os.TempDir()
	}
	return filepath.Join(home, ".cache", "bridgewatch")
}

// RecordsPath returns the default record file used by the CLI.
func RecordsPath() string {
	return filepath.Join(DataDir(), "records.json")
}
