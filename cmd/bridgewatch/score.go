package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bridgewatch/bridgewatch/internal/store"
	"github.com/bridgewatch/bridgewatch/pkg/config"
	"github.com/bridgewatch/bridgewatch/pkg/infra"
	"github.com/bridgewatch/bridgewatch/pkg/scoring"
	"github.com/bridgewatch/bridgewatch/pkg/surface"
)

func newInitCmd(g *globalOpts) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the sample portfolio to the records file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := g.recordsPath
			if path == "" {
				path = config.RecordsPath()
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			records := store.SampleRecords()
			if err := infra.SaveRecords(path, records); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Wrote %d records to %s\n", len(records), path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing records file")
	return cmd
}

func newScoreCmd(g *globalOpts) *cobra.Command {
	var (
		q         queryFlags
		outputFmt string
	)

	cmd := &cobra.Command{
		Use:   "score [id...]",
		Short: "Score structures for risk, health and cost",
		Long: `Computes the risk score, health score, risk level, estimated cost and
recommended action for each structure. With ids, only those structures are
scored; otherwise the filter and sort flags select the rows.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(cmd.Context(), cmd.OutOrStdout(), g, q, outputFmt, args)
		},
	}
	addQueryFlags(cmd, &q)
	cmd.Flags().StringVar(&outputFmt, "output", "text", "Output format: text, markdown or json")
	return cmd
}

func runScore(ctx context.Context, w io.Writer, g *globalOpts, q queryFlags, outputFmt string, ids []string) error {
	r, err := surface.New(outputFmt)
	if err != nil {
		return err
	}
	e, err := loadEnv(g)
	if err != nil {
		return err
	}

	var records []infra.Infrastructure
	if len(ids) > 0 {
		for _, id := range ids {
			rec, err := e.catalog.ByID(ctx, id)
			if err != nil {
				return err
			}
			records = append(records, rec)
		}
	} else {
		c, s, err := q.build(e.locale)
		if err != nil {
			return err
		}
		if records, err = e.catalog.Query(ctx, c, s); err != nil {
			return err
		}
	}

	engine := e.catalog.Engine()
	items := make([]scoring.Assessment, 0, len(records))
	for _, rec := range records {
		items = append(items, engine.Assess(rec))
	}
	return r.RenderAssessments(w, items)
}

func newReportCmd(g *globalOpts) *cobra.Command {
	var (
		q         queryFlags
		outputFmt string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Portfolio dashboard: health distribution, areas, costs and priorities",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := surface.New(outputFmt)
			if err != nil {
				return err
			}
			e, err := loadEnv(g)
			if err != nil {
				return err
			}
			c, s, err := q.build(e.locale)
			if err != nil {
				return err
			}
			d, err := e.catalog.Dashboard(cmd.Context(), c, s)
			if err != nil {
				return err
			}
			return r.RenderDashboard(cmd.OutOrStdout(), d)
		},
	}
	addQueryFlags(cmd, &q)
	cmd.Flags().StringVar(&outputFmt, "output", "text", "Output format: text, markdown or json")
	return cmd
}
