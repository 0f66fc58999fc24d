// Command bridgewatchd is the bridgewatch API service.
// It serves the REST API, the live simulation WebSocket and a health check.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/bridgewatch/bridgewatch/internal/api"
	"github.com/bridgewatch/bridgewatch/internal/cache"
	"github.com/bridgewatch/bridgewatch/internal/catalog"
	"github.com/bridgewatch/bridgewatch/internal/photos"
	"github.com/bridgewatch/bridgewatch/internal/platform"
	"github.com/bridgewatch/bridgewatch/internal/predictor"
	"github.com/bridgewatch/bridgewatch/internal/store"
	"github.com/bridgewatch/bridgewatch/internal/telemetry"
	bwconfig "github.com/bridgewatch/bridgewatch/pkg/config"
)

type config struct {
	Port          string
	ConfigPath    string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	PredictorURL  string
	APIKey        string
	SimIntervalMS int
	Influx        telemetry.InfluxConfig
}

func loadConfig() config {
	interval, _ := strconv.Atoi(os.Getenv("SIM_INTERVAL_MS"))
	return config{
		Port:          envOrDefault("PORT", "8080"),
		ConfigPath:    os.Getenv("BRIDGEWATCH_CONFIG"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		PredictorURL:  os.Getenv("PREDICTOR_URL"),
		APIKey:        os.Getenv("API_KEY"),
		SimIntervalMS: interval,
		Influx: telemetry.InfluxConfig{
			URL:    os.Getenv("INFLUX_URL"),
			Token:  os.Getenv("INFLUX_TOKEN"),
			Org:    envOrDefault("INFLUX_ORG", "bridgewatch"),
			Bucket: envOrDefault("INFLUX_BUCKET", "simulation"),
		},
	}
}

// fileConfig loads the YAML config and applies the environment overrides.
func fileConfig(cfg config) (*bwconfig.Config, error) {
	path := cfg.ConfigPath
	if path == "" {
		if cwd, err := os.Getwd(); err == nil {
			path = bwconfig.FindConfigFile(cwd)
		}
	}
	fc := bwconfig.DefaultConfig()
	if path != "" {
		var err error
		if fc, err = bwconfig.Load(path); err != nil {
			return nil, err
		}
	}
	if cfg.PredictorURL != "" {
		fc.Predictor.URL = cfg.PredictorURL
	}
	if cfg.RedisAddr != "" {
		fc.Cache.RedisAddr = cfg.RedisAddr
	}
	if cfg.SimIntervalMS > 0 {
		fc.Simulation.IntervalMS = cfg.SimIntervalMS
	}
	storage := &fc.Storage
	storage.Backend = envOrDefault("PHOTO_BACKEND", storage.Backend)
	storage.Dir = envOrDefault("PHOTO_DIR", storage.Dir)
	storage.Bucket = envOrDefault("PHOTO_BUCKET", storage.Bucket)
	storage.Prefix = envOrDefault("PHOTO_PREFIX", storage.Prefix)
	storage.Region = envOrDefault("PHOTO_REGION", storage.Region)
	storage.Endpoint = envOrDefault("PHOTO_ENDPOINT", storage.Endpoint)
	return fc, nil
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	if err := run(loadConfig()); err != nil {
		slog.Error("bridgewatchd failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fc, err := fileConfig(cfg)
	if err != nil {
		return err
	}
	engine, err := fc.Engine()
	if err != nil {
		return err
	}
	locale, err := fc.Locale()
	if err != nil {
		return err
	}

	st, db, err := openStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	opts := catalog.Options{Engine: engine, CacheTTL: fc.CacheTTL()}
	if fc.Cache.RedisAddr != "" {
		client, err := cache.NewRedisClient(ctx, fc.Cache.RedisAddr, cfg.RedisPassword, 0)
		if err != nil {
			return err
		}
		defer client.Close()
		opts.Cache = cache.NewRedisCache(client, "bridgewatch:")
	} else {
		opts.Cache = cache.NewLRU(fc.Cache.Size)
	}
	if fc.Predictor.URL != "" {
		opts.Predictor = predictor.NewHTTPPredictor(fc.Predictor.URL, fc.PredictorTimeout())
	}
	if opts.Photos, err = photos.New(ctx, fc.Storage); err != nil {
		return err
	}

	svc := catalog.New(st, opts)
	if db == nil {
		n, err := svc.Seed(ctx)
		if err != nil {
			return err
		}
		slog.Info("seeded in-memory store", "records", n)
	}

	apiOpts := api.Options{
		Locale:      locale,
		SimInterval: fc.SimulationInterval(),
		SimSeed:     fc.Simulation.Seed,
	}
	if cfg.Influx.URL != "" {
		rec := telemetry.NewInfluxRecorder(cfg.Influx)
		defer rec.Close()
		apiOpts.Recorder = rec
		slog.Info("recording simulations", "influx", cfg.Influx.URL, "bucket", cfg.Influx.Bucket)
	}

	handler := api.NewHandler(svc, apiOpts)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.HandleFunc("GET /healthz", healthHandler(db))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.CORS(api.APIKeyAuth(cfg.APIKey)(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("starting bridgewatchd", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// Simulation sockets are hijacked and invisible to srv.Shutdown; they
	// must be stopped before the deferred recorder Close flushes.
	return errors.Join(srv.Shutdown(shutdownCtx), handler.Shutdown(shutdownCtx))
}

// openStore connects to Postgres and applies migrations. An empty URL
// selects the in-memory store and returns a nil db.
func openStore(ctx context.Context, url string) (store.Store, *sqlx.DB, error) {
	if url == "" {
		return store.NewMemoryStore(), nil, nil
	}
	db, err := sqlx.ConnectContext(ctx, "postgres", url)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	version, err := platform.AutoMigrate(db.DB)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	slog.Info("database migrated", "version", version)
	return store.NewPostgresStore(db), db, nil
}

func healthHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				http.Error(w, "database unreachable", http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
