package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/bridgewatch/bridgewatch/internal/cache"
	"github.com/bridgewatch/bridgewatch/internal/catalog"
	"github.com/bridgewatch/bridgewatch/internal/predictor"
	"github.com/bridgewatch/bridgewatch/internal/store"
	"github.com/bridgewatch/bridgewatch/pkg/config"
	"github.com/bridgewatch/bridgewatch/pkg/filter"
	"github.com/bridgewatch/bridgewatch/pkg/infra"
	"github.com/bridgewatch/bridgewatch/pkg/sorter"
)

type globalOpts struct {
	configPath   string
	recordsPath  string
	predictorURL string
}

// env is the loaded configuration and catalog shared by commands.
type env struct {
	cfg     *config.Config
	catalog *catalog.Service
	locale  language.Tag
}

func loadEnv(g *globalOpts) (*env, error) {
	path := g.configPath
	if path == "" {
		if cwd, err := os.Getwd(); err == nil {
			path = config.FindConfigFile(cwd)
		}
	}
	cfg := config.DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	if g.predictorURL != "" {
		cfg.Predictor.URL = g.predictorURL
	}

	engine, err := cfg.Engine()
	if err != nil {
		return nil, err
	}
	locale, err := cfg.Locale()
	if err != nil {
		return nil, err
	}

	records, err := loadRecords(g.recordsPath)
	if err != nil {
		return nil, err
	}

	opts := catalog.Options{
		Engine:   engine,
		Cache:    cache.NewLRU(cfg.Cache.Size),
		CacheTTL: cfg.CacheTTL(),
	}
	if cfg.Predictor.URL != "" {
		opts.Predictor = predictor.NewHTTPPredictor(cfg.Predictor.URL, cfg.PredictorTimeout())
	}

	return &env{
		cfg:     cfg,
		catalog: catalog.New(store.NewMemoryStore(records...), opts),
		locale:  locale,
	}, nil
}

// loadRecords reads the records file. When no path is given and the default
// file does not exist, the sample portfolio is used.
func loadRecords(path string) ([]infra.Infrastructure, error) {
	explicit := path != ""
	if !explicit {
		path = config.RecordsPath()
	}
	records, err := infra.LoadRecords(path)
	if err == nil {
		return records, nil
	}
	if !explicit && errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "No records file, using the sample portfolio (run 'bridgewatch init' to save it).")
		return store.SampleRecords(), nil
	}
	return nil, err
}

// queryFlags are the filter and sort flags shared by listing commands.
type queryFlags struct {
	risk, structureType, area, urgency string
	sortKey, dir                       string
}

func addQueryFlags(cmd *cobra.Command, q *queryFlags) {
	f := cmd.Flags()
	f.StringVar(&q.risk, "risk", filter.All, "Risk level: all, low, moderate, high")
	f.StringVar(&q.structureType, "type", filter.All, "Structure type: all, bridge, road")
	f.StringVar(&q.area, "area", filter.All, "Area name or all")
	f.StringVar(&q.urgency, "urgency", filter.All, "Urgency: all, monitorOnly, scheduledMaintenance, immediateRepair")
	f.StringVar(&q.sortKey, "sort", string(sorter.KeyRiskScore), "Sort key")
	f.StringVar(&q.dir, "dir", string(sorter.Desc), "Sort direction: asc or desc")
}

func (q queryFlags) build(locale language.Tag) (filter.Criteria, sorter.Sorter, error) {
	var c filter.Criteria
	fields := []struct{ field, value string }{
		{filter.FieldRiskLevel, q.risk},
		{filter.FieldStructureType, q.structureType},
		{filter.FieldArea, q.area},
		{filter.FieldUrgency, q.urgency},
	}
	for _, f := range fields {
		if err := c.Set(f.field, f.value); err != nil {
			return filter.Criteria{}, sorter.Sorter{}, err
		}
	}

	s := sorter.New(locale)
	k, err := sorter.ParseKey(q.sortKey)
	if err != nil {
		return filter.Criteria{}, sorter.Sorter{}, err
	}
	d, err := sorter.ParseDirection(q.dir)
	if err != nil {
		return filter.Criteria{}, sorter.Sorter{}, err
	}
	s.Key, s.Direction = k, d
	return c, s, nil
}
