package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/bridgewatch/bridgewatch/pkg/infra"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Simulation.IntervalMS != 3000 {
		t.Errorf("expected default interval 3000, got %d", cfg.Simulation.IntervalMS)
	}
	if cfg.Cache.TTL != 30 {
		t.Errorf("expected default cache ttl 30, got %d", cfg.Cache.TTL)
	}
	if cfg.Storage.Backend != "local" {
		t.Errorf("expected default storage backend 'local', got %q", cfg.Storage.Backend)
	}
	if cfg.Scoring.Weights == nil {
		t.Error("expected Weights map to be initialized, got nil")
	}
	if got := cfg.SimulationInterval(); got != 3*time.Second {
		t.Errorf("SimulationInterval = %v, want 3s", got)
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		missing bool
		wantErr bool
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name:    "non-existent file returns defaults",
			missing: true,
			check: func(t *testing.T, cfg *Config) {
				if cfg.Predictor.Timeout != 30 {
					t.Errorf("expected default predictor timeout 30, got %d", cfg.Predictor.Timeout)
				}
				if cfg.Sorting.Locale != "en" {
					t.Errorf("expected default locale, got %q", cfg.Sorting.Locale)
				}
			},
		},
		{
			name: "valid YAML overrides defaults",
			yaml: `
simulation:
  interval_ms: 500
  seed: 42
predictor:
  url: "http://predictor:8090"
  timeout: 5
sorting:
  locale: de
storage:
  backend: s3
  bucket: photos
scoring:
  weights:
    age: 0.4
    bridge_base_cost: 200000
`,
			check: func(t *testing.T, cfg *Config) {
				if cfg.SimulationInterval() != 500*time.Millisecond {
					t.Errorf("expected 500ms interval, got %v", cfg.SimulationInterval())
				}
				if cfg.Simulation.Seed != 42 {
					t.Errorf("expected seed 42, got %d", cfg.Simulation.Seed)
				}
				if cfg.Predictor.URL != "http://predictor:8090" {
					t.Errorf("unexpected predictor url %q", cfg.Predictor.URL)
				}
				if cfg.PredictorTimeout() != 5*time.Second {
					t.Errorf("expected 5s timeout, got %v", cfg.PredictorTimeout())
				}
				if cfg.Storage.Backend != "s3" || cfg.Storage.Bucket != "photos" {
					t.Errorf("unexpected storage config %+v", cfg.Storage)
				}
				if cfg.Cache.TTL != 30 {
					t.Errorf("unset section should keep defaults, got ttl %d", cfg.Cache.TTL)
				}
				tag, err := cfg.Locale()
				if err != nil || tag != language.German {
					t.Errorf("Locale = %v, %v; want de", tag, err)
				}
				engine, err := cfg.Engine()
				if err != nil {
					t.Fatalf("Engine: %v", err)
				}
				if got := engine.EstimateCost(infra.Bridge, infra.RiskLow, 20); got != 200000 {
					t.Errorf("expected overridden base cost, got %f", got)
				}
			},
		},
		{
			name:    "invalid YAML returns error",
			yaml:    "{{invalid yaml",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")

			if !tc.missing {
				if err := os.WriteFile(path, []byte(tc.yaml), 0o644); err != nil {
					t.Fatalf("write test config: %v", err)
				}
			}

			cfg, err := Load(path)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.check != nil {
				tc.check(t, cfg)
			}
		})
	}
}

func TestEngineRejectsUnknownWeight(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scoring.Weights["coupling"] = 0.5
	if _, err := cfg.Engine(); err == nil {
		t.Fatal("expected error for unknown weight")
	}
}

func TestLocaleRejectsGarbage(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sorting.Locale = "not a locale!"
	if _, err := cfg.Locale(); err == nil {
		t.Fatal("expected error for invalid locale")
	}
}

func TestDataPaths(t *testing.T) {
	if !strings.HasSuffix(DataDir(), filepath.Join(".cache", "bridgewatch")) {
		t.Errorf("DataDir = %q", DataDir())
	}
	if filepath.Dir(RecordsPath()) != DataDir() {
		t.Errorf("RecordsPath should live in DataDir, got %q", RecordsPath())
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Run("found in current directory", func(t *testing.T) {
		root := t.TempDir()
		configDir := filepath.Join(root, ".bridgewatch")
		if err := os.MkdirAll(configDir, 0o755); err != nil {
			t.Fatalf("create config dir: %v", err)
		}
		configPath := filepath.Join(configDir, "config.yaml")
		if err := os.WriteFile(configPath, []byte("{}"), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}

		got := FindConfigFile(root)
		if got != configPath {
			t.Errorf("FindConfigFile = %q, want %q", got, configPath)
		}
	})

	t.Run("found in parent directory", func(t *testing.T) {
		root := t.TempDir()
		configDir := filepath.Join(root, ".bridgewatch")
		if err := os.MkdirAll(configDir, 0o755); err != nil {
			t.Fatalf("create config dir: %v", err)
		}
		configPath := filepath.Join(configDir, "config.yaml")
		if err := os.WriteFile(configPath, []byte("{}"), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}

		sub := filepath.Join(root, "a", "b", "c")
		if err := os.MkdirAll(sub, 0o755); err != nil {
			t.Fatalf("create sub: %v", err)
		}

		got := FindConfigFile(sub)
		if got != configPath {
			t.Errorf("FindConfigFile = %q, want %q", got, configPath)
		}
	})

	t.Run("not found", func(t *testing.T) {
		root := t.TempDir()
		got := FindConfigFile(root)
		if got != "" {
			t.Errorf("FindConfigFile = %q, want empty", got)
		}
	})
}
