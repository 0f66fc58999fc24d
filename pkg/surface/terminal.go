package surface

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bridgewatch/bridgewatch/pkg/aggregate"
	"github.com/bridgewatch/bridgewatch/pkg/infra"
	"github.com/bridgewatch/bridgewatch/pkg/scoring"
	"github.com/bridgewatch/bridgewatch/pkg/simulator"
)

// TerminalRenderer renders results as colored terminal output.
type TerminalRenderer struct{}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

const barWidth = 30

func riskColor(l infra.RiskLevel) string {
	if noColor() {
		return ""
	}
	switch l {
	case infra.RiskHigh:
		return colorRed
	case infra.RiskModerate:
		return colorYellow
	case infra.RiskLow:
		return colorGreen
	default:
		return ""
	}
}

func noColor() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}

func bold(s string) string {
	if noColor() {
		return s
	}
	return colorBold + s + colorReset
}

func dim(s string) string {
	if noColor() {
		return s
	}
	return colorDim + s + colorReset
}

func colored(s, color string) string {
	if noColor() || color == "" {
		return s
	}
	return color + s + colorReset
}

func levelLabel(l infra.RiskLevel) string {
	// Pad before coloring so escape codes don't break alignment.
	return colored(fmt.Sprintf("%-8s", l.Label()), riskColor(l))
}

func (r *TerminalRenderer) RenderAssessments(w io.Writer, items []scoring.Assessment) error {
	fmt.Fprintf(w, "%s\n\n", bold(fmt.Sprintf("Infrastructure risk: %d structures", len(items))))
	if len(items) == 0 {
		fmt.Fprintln(w, "No structures.")
		return nil
	}

	fmt.Fprintf(w, "%-12s %-26s %-6s %-14s %4s %6s %6s %-8s %9s  %s\n",
		"ID", "NAME", "TYPE", "AREA", "AGE", "RISK", "HEALTH", "LEVEL", "COST", "ACTION")
	for _, a := range items {
		fmt.Fprintf(w, "%-12s %-26s %-6s %-14s %4d %5.1f%% %6d %s %9s  %s\n",
			truncate(a.ID, 12), truncate(a.Name, 26), a.StructureType.Label(), truncate(a.Area, 14),
			a.Age, scoring.RiskPercent(a.RiskScore), a.HealthScore, levelLabel(a.RiskLevel),
			scoring.FormatCurrency(a.EstimatedCost), a.RecommendedAction)
		if a.LocalRiskLevel != a.RiskLevel {
			fmt.Fprintf(w, "%12s %s\n", "", dim(fmt.Sprintf("local model says %s (%.1f%%)",
				a.LocalRiskLevel.Label(), scoring.RiskPercent(a.ComputedRiskScore))))
		}
	}
	fmt.Fprintln(w)
	return nil
}

func (r *TerminalRenderer) RenderDashboard(w io.Writer, d aggregate.Dashboard) error {
	s := d.Summary
	fmt.Fprintf(w, "%s\n\n", bold(fmt.Sprintf("Portfolio: %d structures, average health %.1f", s.Total, s.AverageHealth)))
	fmt.Fprintf(w, "Risk: %s %d  %s %d  %s %d\n\n",
		colored("high", riskColor(infra.RiskHigh)), s.ByRisk.High,
		colored("moderate", riskColor(infra.RiskModerate)), s.ByRisk.Moderate,
		colored("low", riskColor(infra.RiskLow)), s.ByRisk.Low)

	fmt.Fprintln(w, "Health distribution:")
	maxCount := 0
	for _, b := range d.Histogram {
		maxCount = max(maxCount, b.Count)
	}
	for _, b := range d.Histogram {
		fmt.Fprintf(w, "  %-7s %s %d\n", b.Label, bar(b.Count, maxCount), b.Count)
	}
	fmt.Fprintln(w)

	if len(d.Areas.Groups) > 0 {
		fmt.Fprintf(w, "Health by area %s:\n", dim(fmt.Sprintf("(mean %.1f)", d.Areas.OverallMean)))
		for _, g := range d.Areas.Groups {
			line := fmt.Sprintf("  %-18s %5.1f  (%d)", truncate(g.Area, 18), g.AverageHealth, g.Count)
			if g.BelowMean {
				line += " " + colored("below mean", colorRed)
			}
			fmt.Fprintln(w, line)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Estimated cost by type:")
	for _, tc := range d.CostByType {
		fmt.Fprintf(w, "  %-7s %9s  (%d)\n", tc.StructureType.Label(), scoring.FormatCurrency(tc.TotalCost), tc.Count)
	}
	fmt.Fprintln(w)

	if len(d.TopROI) > 0 {
		fmt.Fprintln(w, "Best risk reduction per dollar:")
		for i, e := range d.TopROI {
			fmt.Fprintf(w, "  %d. %s %s\n", i+1, bold(e.Name),
				dim(fmt.Sprintf("ROI %.1f, %s", e.ROI, scoring.FormatCurrency(e.Cost))))
		}
		fmt.Fprintln(w)
	}

	if len(d.Priority) > 0 {
		fmt.Fprintln(w, "Maintenance priority:")
		for _, p := range d.Priority {
			fmt.Fprintf(w, "  %2d. %-26s %s %9s  %s\n", p.Rank, truncate(p.Record.Name, 26),
				levelLabel(p.Record.RiskLevel), scoring.FormatCurrency(p.EstimatedCost), p.RecommendedAction)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total estimated budget: %s\n", bold(scoring.FormatCurrency(d.City.TotalEstimatedBudget)))
	for _, b := range d.BudgetByRisk {
		fmt.Fprintf(w, "  %s %3.0f x allowance = %s\n", levelLabel(b.Level), b.Count, scoring.FormatCurrency(b.Amount))
	}
	fmt.Fprintln(w)
	return nil
}

func (r *TerminalRenderer) RenderForecast(w io.Writer, name string, f scoring.Forecast) error {
	fmt.Fprintf(w, "%s\n\n", bold("Forecast: "+name))
	fmt.Fprintf(w, "Deterioration rate: %.3f per year\n", f.DeteriorationRate)
	fmt.Fprintf(w, "Maintenance due:    %d (in %d years)\n\n", f.MaintenanceYear, f.MaintenanceIn)
	for _, p := range f.Points {
		line := fmt.Sprintf("  %-9s %d  %4.2f", p.Label, p.Year, p.Rating)
		if p.Critical {
			line += " " + colored("critical", colorRed)
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w)
	return nil
}

// RenderState writes one line per simulator tick.
func RenderState(w io.Writer, st simulator.State) {
	status := "idle"
	if st.Active {
		status = "live"
	}
	fmt.Fprintf(w, "%s  #%-4d %-4s condition %.2f  traffic %.2f  risk %5.1f%%  health %3d\n",
		st.LastUpdated.Format("15:04:05"), st.Ticks, status,
		st.ConditionRating, st.TrafficLoad, scoring.RiskPercent(st.RiskScore), st.HealthScore)
}

func bar(n, top int) string {
	if top == 0 {
		return strings.Repeat(" ", barWidth)
	}
	filled := n * barWidth / top
	return strings.Repeat("#", filled) + strings.Repeat(" ", barWidth-filled)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}
