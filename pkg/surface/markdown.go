package surface

import (
	"fmt"
	"io"
	"strings"

	"github.com/bridgewatch/bridgewatch/pkg/aggregate"
	"github.com/bridgewatch/bridgewatch/pkg/infra"
	"github.com/bridgewatch/bridgewatch/pkg/scoring"
)

// MarkdownRenderer produces Markdown reports suitable for tickets and wikis.
type MarkdownRenderer struct{}

// maxPriorityRows caps the priority table in Markdown output.
const maxPriorityRows = 10

func riskIcon(l infra.RiskLevel) string {
	switch l {
	case infra.RiskHigh:
		return ":red_circle:"
	case infra.RiskModerate:
		return ":orange_circle:"
	case infra.RiskLow:
		return ":green_circle:"
	default:
		return ":white_circle:"
	}
}

// cell escapes pipes so free text can't break a table row.
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func (r *MarkdownRenderer) RenderAssessments(w io.Writer, items []scoring.Assessment) error {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Infrastructure risk (%d structures)\n\n", len(items)))
	sb.WriteString("| | Structure | Type | Area | Age | Risk | Health | Est. cost | Action |\n")
	sb.WriteString("|---|---|---|---|---|---|---|---|---|\n")
	for _, a := range items {
		sb.WriteString(fmt.Sprintf("| %s | **%s** | %s | %s | %d | %.1f%% | %d | %s | %s |\n",
			riskIcon(a.RiskLevel), cell(a.Name), a.StructureType.Label(), cell(a.Area), a.Age,
			scoring.RiskPercent(a.RiskScore), a.HealthScore,
			scoring.FormatCurrency(a.EstimatedCost), a.RecommendedAction))
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func (r *MarkdownRenderer) RenderDashboard(w io.Writer, d aggregate.Dashboard) error {
	var sb strings.Builder
	s := d.Summary

	sb.WriteString(fmt.Sprintf("## Portfolio: %d structures\n\n", s.Total))
	sb.WriteString("| Metric | Value |\n|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| High risk | %d |\n", s.ByRisk.High))
	sb.WriteString(fmt.Sprintf("| Moderate risk | %d |\n", s.ByRisk.Moderate))
	sb.WriteString(fmt.Sprintf("| Low risk | %d |\n", s.ByRisk.Low))
	sb.WriteString(fmt.Sprintf("| Average health | %.1f |\n", s.AverageHealth))
	sb.WriteString(fmt.Sprintf("| Total estimated budget | %s |\n", scoring.FormatCurrency(d.City.TotalEstimatedBudget)))
	sb.WriteString("\n")

	if len(d.Areas.Groups) > 0 {
		sb.WriteString("### Health by area\n\n")
		for _, g := range d.Areas.Groups {
			flag := ""
			if g.BelowMean {
				flag = " :warning: below mean"
			}
			sb.WriteString(fmt.Sprintf("- **%s**: %.1f (%d)%s\n", g.Area, g.AverageHealth, g.Count, flag))
		}
		sb.WriteString(fmt.Sprintf("\n_Mean across areas: %.1f_\n\n", d.Areas.OverallMean))
	}

	if len(d.Priority) > 0 {
		sb.WriteString("### Maintenance priority\n\n")
		sb.WriteString("| # | Structure | Risk | Est. cost | Action |\n|---|---|---|---|---|\n")
		for i, p := range d.Priority {
			if i >= maxPriorityRows {
				sb.WriteString(fmt.Sprintf("\n_... and %d more_\n", len(d.Priority)-maxPriorityRows))
				break
			}
			sb.WriteString(fmt.Sprintf("| %d | %s %s | %s | %s | %s |\n",
				p.Rank, riskIcon(p.Record.RiskLevel), cell(p.Record.Name), p.Record.RiskLevel.Label(),
				scoring.FormatCurrency(p.EstimatedCost), p.RecommendedAction))
		}
		sb.WriteString("\n")
	}

	if len(d.TopROI) > 0 {
		sb.WriteString("### Best value repairs\n\n")
		for _, e := range d.TopROI {
			sb.WriteString(fmt.Sprintf("- **%s**: ROI %.1f at %s\n", e.Name, e.ROI, scoring.FormatCurrency(e.Cost)))
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func (r *MarkdownRenderer) RenderForecast(w io.Writer, name string, f scoring.Forecast) error {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Forecast: %s\n\n", name))
	sb.WriteString(fmt.Sprintf("Deterioration rate %.3f per year. Maintenance due in %d.\n\n", f.DeteriorationRate, f.MaintenanceYear))
	sb.WriteString("| When | Year | Rating | |\n|---|---|---|---|\n")
	for _, p := range f.Points {
		mark := ""
		if p.Critical {
			mark = ":red_circle: critical"
		}
		sb.WriteString(fmt.Sprintf("| %s | %d | %.2f | %s |\n", p.Label, p.Year, p.Rating, mark))
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
