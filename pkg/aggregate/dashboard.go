package aggregate

import "github.com/bridgewatch/bridgewatch/pkg/infra"

// Dashboard bundles every view over one record set.
type Dashboard struct {
	Summary      Summary                 `json:"summary"`
	Histogram    []HistogramBin          `json:"histogram"`
	Areas        AreaReport              `json:"areas"`
	CostByType   []TypeCost              `json:"cost_by_type"`
	TopROI       []ROIEntry              `json:"top_roi"`
	Scatter      Scatter                 `json:"scatter"`
	Priority     []PriorityItem          `json:"priority"`
	City         infra.CityBudgetSummary `json:"city"`
	BudgetByRisk []RiskBudget            `json:"budget_by_risk"`
}

// Dashboard computes every view. The records are expected to be filtered
// and sorted by the caller; only views without their own order keep it.
func (a *Aggregator) Dashboard(records []infra.Infrastructure) Dashboard {
	city := a.CitySummary(records)
	return Dashboard{
		Summary:      a.SummaryStats(records),
		Histogram:    a.Histogram(records),
		Areas:        a.AreaHealth(records),
		CostByType:   a.CostByType(records),
		TopROI:       a.TopROI(records, DefaultROITop),
		Scatter:      a.AgeRiskScatter(records),
		Priority:     a.PriorityList(records, DefaultPriorityLimit),
		City:         city,
		BudgetByRisk: a.BudgetByRisk(city.BreakdownByRiskLevel),
	}
}
