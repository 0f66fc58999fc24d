// Package main provides the bridgewatch CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var g globalOpts

	rootCmd := &cobra.Command{
		Use:   "bridgewatch",
		Short: "Risk and budget scoring for bridges and roads",
		Long: `bridgewatch scores infrastructure records for risk, health and maintenance
cost, builds portfolio dashboards, and runs live sensor simulations.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "Path to config file (default: search for .bridgewatch/config.yaml)")
	pf.StringVar(&g.recordsPath, "records", "", "Path to records JSON file (default: ~/.cache/bridgewatch/records.json)")
	pf.StringVar(&g.predictorURL, "predictor-url", "", "Predictor service URL (overrides config)")

	rootCmd.AddCommand(
		newInitCmd(&g),
		newScoreCmd(&g),
		newReportCmd(&g),
		newBudgetCmd(&g),
		newForecastCmd(&g),
		newSimulateCmd(&g),
	)
	return rootCmd
}
