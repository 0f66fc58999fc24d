package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/bridgewatch/bridgewatch/pkg/infra"
	"github.com/bridgewatch/bridgewatch/pkg/scoring"
)

const (
	DefaultPriorityLimit = 10
	CitySummaryTop       = 5
)

// RiskCounts is the number of records per risk level.
type RiskCounts struct {
	Low      int `json:"low"`
	Moderate int `json:"moderate"`
	High     int `json:"high"`
}

func (c *RiskCounts) add(l infra.RiskLevel) {
	switch l {
	case infra.RiskLow:
		c.Low++
	case infra.RiskModerate:
		c.Moderate++
	case infra.RiskHigh:
		c.High++
	default:
		panic("aggregate: unknown risk level " + string(l))
	}
}

// Summary is the headline statistics block.
type Summary struct {
	Total         int        `json:"total"`
	ByRisk        RiskCounts `json:"by_risk"`
	AverageHealth float64    `json:"average_health"` // record-weighted
}

// SummaryStats counts records per risk level and averages their health.
func (a *Aggregator) SummaryStats(records []infra.Infrastructure) Summary {
	var s Summary
	var health int
	for _, rec := range a.engine.EnrichAll(records) {
		s.Total++
		s.ByRisk.add(rec.RiskLevel)
		health += scoring.HealthScore(rec.RiskScore)
	}
	if s.Total > 0 {
		s.AverageHealth = float64(health) / float64(s.Total)
	}
	return s
}

// PriorityItem is one row of the maintenance priority list.
type PriorityItem struct {
	Rank              int                  `json:"rank"`
	Record            infra.Infrastructure `json:"record"`
	HealthScore       int                  `json:"health_score"`
	EstimatedCost     float64              `json:"estimated_cost"`
	Urgency           infra.UrgencyLevel   `json:"urgency"`
	RecommendedAction string               `json:"recommended_action"`
}

// PriorityList orders records by risk score, highest first, and keeps the
// first n. Ties keep input order. n <= 0 keeps all records.
func (a *Aggregator) PriorityList(records []infra.Infrastructure, n int) []PriorityItem {
	enriched := a.engine.EnrichAll(records)
	sort.SliceStable(enriched, func(i, j int) bool {
		return enriched[i].RiskScore > enriched[j].RiskScore
	})
	if n > 0 && len(enriched) > n {
		enriched = enriched[:n]
	}

	out := make([]PriorityItem, 0, len(enriched))
	for i, rec := range enriched {
		rc := scoring.RecommendedUrgency(rec.RiskLevel)
		out = append(out, PriorityItem{
			Rank:              i + 1,
			Record:            rec,
			HealthScore:       scoring.HealthScore(rec.RiskScore),
			EstimatedCost:     a.engine.EstimateCost(rec.StructureType, rec.RiskLevel, rec.Age),
			Urgency:           rc.Urgency,
			RecommendedAction: rc.Action,
		})
	}
	return out
}

// RiskBudget is the flat allowance for one risk level.
type RiskBudget struct {
	Level  infra.RiskLevel `json:"level"`
	Count  float64         `json:"count"`
	Amount float64         `json:"amount"`
}

// BudgetByRisk multiplies each breakdown count by its per-structure
// allowance, most severe level first.
func (a *Aggregator) BudgetByRisk(breakdown infra.RiskBreakdown) []RiskBudget {
	out := make([]RiskBudget, 0, len(infra.RiskLevels))
	for i := len(infra.RiskLevels) - 1; i >= 0; i-- {
		l := infra.RiskLevels[i]
		count := breakdown.Get(l)
		out = append(out, RiskBudget{Level: l, Count: count, Amount: count * a.engine.Allowance(l)})
	}
	return out
}

// CitySummary computes the city budget view locally: counts per risk
// level, the top priority structures and the total estimated cost.
func (a *Aggregator) CitySummary(records []infra.Infrastructure) infra.CityBudgetSummary {
	enriched := a.engine.EnrichAll(records)

	var breakdown infra.RiskBreakdown
	total := decimal.Zero
	for _, rec := range enriched {
		breakdown.Add(rec.RiskLevel, 1)
		cost := a.engine.EstimateCost(rec.StructureType, rec.RiskLevel, rec.Age)
		total = total.Add(decimal.NewFromFloat(cost))
	}

	top := make([]infra.Infrastructure, 0, CitySummaryTop)
	for _, item := range a.PriorityList(enriched, CitySummaryTop) {
		top = append(top, item.Record)
	}

	return infra.CityBudgetSummary{
		BreakdownByRiskLevel:  breakdown,
		TopPriorityStructures: top,
		TotalEstimatedBudget:  total.InexactFloat64(),
	}
}
