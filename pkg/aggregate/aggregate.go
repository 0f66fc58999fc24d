// Package aggregate reduces a collection of records into the derived views
// used by dashboards and reports.
//
// Every function is pure. Records that are not yet classified are enriched
// with the local risk model before they are reduced. Empty input yields
// zero counts and zero averages.
package aggregate

import (
	"math"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/bridgewatch/bridgewatch/pkg/infra"
	"github.com/bridgewatch/bridgewatch/pkg/scoring"
)

// Aggregator computes views with a fixed scoring engine.
type Aggregator struct {
	engine *scoring.Engine
}

// New creates an aggregator. A nil engine selects scoring.Default.
func New(e *scoring.Engine) *Aggregator {
	if e == nil {
		e = scoring.Default
	}
	return &Aggregator{engine: e}
}

// HistogramBin is one health-score bucket with inclusive bounds.
type HistogramBin struct {
	Label string `json:"label"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Count int    `json:"count"`
}

var healthBins = [...]struct{ min, max int }{
	{0, 20}, {21, 40}, {41, 60}, {61, 80}, {81, 100},
}

// HistogramFromScores buckets health scores into the five fixed bins.
// Counts always sum to len(scores).
func HistogramFromScores(scores []int) []HistogramBin {
	bins := make([]HistogramBin, len(healthBins))
	for i, b := range healthBins {
		bins[i] = HistogramBin{Label: binLabel(b.min, b.max), Min: b.min, Max: b.max}
	}
	for _, s := range scores {
		bins[binIndex(s)].Count++
	}
	return bins
}

func binIndex(score int) int {
	for i, b := range healthBins {
		if score <= b.max {
			return i
		}
	}
	return len(healthBins) - 1
}

func binLabel(min, max int) string {
	return strconv.Itoa(min) + "-" + strconv.Itoa(max)
}

// Histogram buckets the records' health scores.
func (a *Aggregator) Histogram(records []infra.Infrastructure) []HistogramBin {
	scores := make([]int, 0, len(records))
	for _, rec := range a.engine.EnrichAll(records) {
		scores = append(scores, scoring.HealthScore(rec.RiskScore))
	}
	return HistogramFromScores(scores)
}

// AreaGroup is the average health of one area.
type AreaGroup struct {
	Area          string  `json:"area"`
	Count         int     `json:"count"`
	AverageHealth float64 `json:"average_health"`
	BelowMean     bool    `json:"below_mean"`
}

// AreaReport groups records by area. OverallMean is the mean of the group
// averages, not of the records.
type AreaReport struct {
	Groups      []AreaGroup `json:"groups"`
	OverallMean float64     `json:"overall_mean"`
}

// AreaHealth groups records by exact area string and sorts the groups by
// average health, highest first. Ties keep first-seen order.
func (a *Aggregator) AreaHealth(records []infra.Infrastructure) AreaReport {
	type acc struct {
		sum   int
		count int
	}
	var order []string
	byArea := make(map[string]*acc)
	for _, rec := range a.engine.EnrichAll(records) {
		area := rec.Location.Area
		g, ok := byArea[area]
		if !ok {
			g = &acc{}
			byArea[area] = g
			order = append(order, area)
		}
		g.sum += scoring.HealthScore(rec.RiskScore)
		g.count++
	}

	report := AreaReport{Groups: make([]AreaGroup, 0, len(order))}
	for _, area := range order {
		g := byArea[area]
		report.Groups = append(report.Groups, AreaGroup{
			Area:          area,
			Count:         g.count,
			AverageHealth: round1(float64(g.sum) / float64(g.count)),
		})
	}
	sort.SliceStable(report.Groups, func(i, j int) bool {
		return report.Groups[i].AverageHealth > report.Groups[j].AverageHealth
	})

	if len(report.Groups) == 0 {
		return report
	}
	var total float64
	for _, g := range report.Groups {
		total += g.AverageHealth
	}
	report.OverallMean = total / float64(len(report.Groups))
	for i := range report.Groups {
		report.Groups[i].BelowMean = report.Groups[i].AverageHealth < report.OverallMean
	}
	return report
}

// TypeCost is the summed estimated cost of one structure type.
type TypeCost struct {
	StructureType infra.StructureType `json:"structure_type"`
	Count         int                 `json:"count"`
	TotalCost     float64             `json:"total_cost"`
}

// CostByType sums estimated cost per structure type. Every type is present.
func (a *Aggregator) CostByType(records []infra.Infrastructure) []TypeCost {
	totals := make(map[infra.StructureType]decimal.Decimal, len(infra.StructureTypes))
	counts := make(map[infra.StructureType]int, len(infra.StructureTypes))
	for _, rec := range a.engine.EnrichAll(records) {
		cost := a.engine.EstimateCost(rec.StructureType, rec.RiskLevel, rec.Age)
		totals[rec.StructureType] = totals[rec.StructureType].Add(decimal.NewFromFloat(cost))
		counts[rec.StructureType]++
	}

	out := make([]TypeCost, 0, len(infra.StructureTypes))
	for _, t := range infra.StructureTypes {
		out = append(out, TypeCost{
			StructureType: t,
			Count:         counts[t],
			TotalCost:     totals[t].InexactFloat64(),
		})
	}
	return out
}

// ScatterPoint is one record on the age/risk plot.
type ScatterPoint struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Age         int     `json:"age"`
	RiskPercent float64 `json:"risk_percent"`
}

// Scatter holds age/risk points partitioned by structure type.
type Scatter struct {
	Bridges []ScatterPoint `json:"bridges"`
	Roads   []ScatterPoint `json:"roads"`
}

// AgeRiskScatter partitions records into bridges and roads, in input order.
func (a *Aggregator) AgeRiskScatter(records []infra.Infrastructure) Scatter {
	s := Scatter{Bridges: []ScatterPoint{}, Roads: []ScatterPoint{}}
	for _, rec := range a.engine.EnrichAll(records) {
		p := ScatterPoint{ID: rec.ID, Name: rec.Name, Age: rec.Age, RiskPercent: scoring.RiskPercent(rec.RiskScore)}
		switch rec.StructureType {
		case infra.Bridge:
			s.Bridges = append(s.Bridges, p)
		case infra.Road:
			s.Roads = append(s.Roads, p)
		default:
			panic("aggregate: unknown structure type " + string(rec.StructureType))
		}
	}
	return s
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
