package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/bridgewatch/bridgewatch/pkg/aggregate"
	"github.com/bridgewatch/bridgewatch/pkg/infra"
	"github.com/bridgewatch/bridgewatch/pkg/scoring"
	"github.com/bridgewatch/bridgewatch/pkg/surface"
)

func newBudgetCmd(g *globalOpts) *cobra.Command {
	var outputFmt string

	cmd := &cobra.Command{
		Use:   "budget [id]",
		Short: "City maintenance budget, or the estimate for one structure",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputFmt != "text" && outputFmt != "json" {
				return fmt.Errorf("unknown output format %q (want text or json)", outputFmt)
			}
			e, err := loadEnv(g)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				return runStructureBudget(cmd.Context(), cmd.OutOrStdout(), e, args[0], outputFmt)
			}
			return runCityBudget(cmd.Context(), cmd.OutOrStdout(), e, outputFmt)
		},
	}
	cmd.Flags().StringVar(&outputFmt, "output", "text", "Output format: text or json")
	return cmd
}

func runStructureBudget(ctx context.Context, w io.Writer, e *env, id, outputFmt string) error {
	rec, err := e.catalog.ByID(ctx, id)
	if err != nil {
		return err
	}
	b, err := e.catalog.BudgetEstimate(ctx, id)
	if err != nil {
		return err
	}
	if outputFmt == "json" {
		return writeJSON(w, b)
	}

	fmt.Fprintf(w, "%s (%s, %s risk)\n", rec.Name, rec.StructureType.Label(), rec.RiskLevel.Label())
	fmt.Fprintf(w, "  Estimated cost: %s\n", scoring.FormatCurrency(b.EstimatedCost))
	fmt.Fprintf(w, "  Urgency:        %s\n", b.UrgencyLevel.Label())
	fmt.Fprintf(w, "  Action:         %s\n", b.RecommendedAction)
	return nil
}

func runCityBudget(ctx context.Context, w io.Writer, e *env, outputFmt string) error {
	sum, err := e.catalog.CityBudgetSummary(ctx)
	if err != nil {
		return err
	}
	byRisk := e.catalog.Aggregator().BudgetByRisk(sum.BreakdownByRiskLevel)

	if outputFmt == "json" {
		return writeJSON(w, struct {
			infra.CityBudgetSummary
			BudgetByRisk []aggregate.RiskBudget `json:"budgetByRisk"`
		}{sum, byRisk})
	}

	fmt.Fprintf(w, "Total estimated budget: %s\n\n", scoring.FormatCurrency(sum.TotalEstimatedBudget))
	fmt.Fprintln(w, "Allowance by risk level:")
	for _, b := range byRisk {
		fmt.Fprintf(w, "  %-9s %3.0f  %s\n", b.Level.Label(), b.Count, scoring.FormatCurrency(b.Amount))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Top priority structures:")
	for i, rec := range sum.TopPriorityStructures {
		fmt.Fprintf(w, "  %d. %s (%s, %.1f%%)\n", i+1, rec.Name, rec.RiskLevel.Label(), scoring.RiskPercent(rec.RiskScore))
	}
	return nil
}

func newForecastCmd(g *globalOpts) *cobra.Command {
	var outputFmt string

	cmd := &cobra.Command{
		Use:   "forecast <id>",
		Short: "Deterioration forecast from the predictor service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := surface.New(outputFmt)
			if err != nil {
				return err
			}
			e, err := loadEnv(g)
			if err != nil {
				return err
			}
			rec, err := e.catalog.ByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			f, err := e.catalog.Forecast(cmd.Context(), rec.ID, time.Now())
			if err != nil {
				return err
			}
			return r.RenderForecast(cmd.OutOrStdout(), rec.Name, f)
		},
	}
	cmd.Flags().StringVar(&outputFmt, "output", "text", "Output format: text, markdown or json")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
