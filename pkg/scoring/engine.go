package scoring

import (
	"github.com/bridgewatch/bridgewatch/pkg/infra"
)

// Engine evaluates the risk and cost models with a fixed set of weights.
// It is safe for concurrent use.
type Engine struct {
	weights Weights
}

// NewEngine creates a scoring engine with the given weights.
func NewEngine(w Weights) *Engine {
	return &Engine{weights: w}
}

// Default is an engine with the default weights.
var Default = NewEngine(Defaults())

// Weights returns a copy of the engine's weights.
func (e *Engine) Weights() Weights {
	return e.weights
}

// Assess derives the full scoring view of a record.
func (e *Engine) Assess(rec infra.Infrastructure) Assessment {
	computed := e.RecordRiskScore(rec)

	score, level := computed, e.Classify(computed)
	if rec.Classified() {
		score, level = rec.RiskScore, rec.RiskLevel
	}

	cost := e.EstimateCost(rec.StructureType, level, rec.Age)
	rc := RecommendedUrgency(level)

	return Assessment{
		ID:                rec.ID,
		Name:              rec.Name,
		StructureType:     rec.StructureType,
		Area:              rec.Location.Area,
		Age:               rec.Age,
		RiskScore:         score,
		ComputedRiskScore: computed,
		HealthScore:       HealthScore(score),
		RiskLevel:         level,
		LocalRiskLevel:    e.Classify(computed),
		EstimatedCost:     cost,
		Urgency:           rc.Urgency,
		RecommendedAction: rc.Action,
		ROI:               e.ROIIndex(score, cost),
	}
}

// Enrich fills in RiskScore and RiskLevel on an unclassified record.
// Classified records are returned unchanged.
func (e *Engine) Enrich(rec infra.Infrastructure) infra.Infrastructure {
	if rec.Classified() {
		return rec
	}
	rec.RiskScore = e.RecordRiskScore(rec)
	rec.RiskLevel = e.Classify(rec.RiskScore)
	return rec
}

// EnrichAll returns a copy of records with every record enriched.
func (e *Engine) EnrichAll(records []infra.Infrastructure) []infra.Infrastructure {
	out := make([]infra.Infrastructure, len(records))
	for i, rec := range records {
		out[i] = e.Enrich(rec)
	}
	return out
}

// BudgetEstimate returns the cost, urgency and action for a record.
// The record is enriched first if it is unclassified.
func (e *Engine) BudgetEstimate(rec infra.Infrastructure) infra.BudgetEstimate {
	rec = e.Enrich(rec)
	rc := RecommendedUrgency(rec.RiskLevel)
	return infra.BudgetEstimate{
		UrgencyLevel:      rc.Urgency,
		RecommendedAction: rc.Action,
		EstimatedCost:     e.EstimateCost(rec.StructureType, rec.RiskLevel, rec.Age),
	}
}

// SuggestedConditionRating maps a risk score back to a 1-5 condition
// rating: clamp(health/100*5, 1, 5).
func (e *Engine) SuggestedConditionRating(riskScore float64) float64 {
	health := float64(HealthScore(riskScore))
	return clamp(health/100*e.weights.ConditionScale, 1, e.weights.ConditionScale)
}

// ComputeRiskScore evaluates the risk model with the default weights.
func ComputeRiskScore(age int, trafficLoad, environmentalFactor, conditionRating float64) float64 {
	return Default.RiskScore(age, trafficLoad, environmentalFactor, conditionRating)
}

// ClassifyRisk classifies a risk score with the default thresholds.
func ClassifyRisk(riskScore float64) infra.RiskLevel {
	return Default.Classify(riskScore)
}

// EstimateCost evaluates the cost model with the default weights.
func EstimateCost(t infra.StructureType, l infra.RiskLevel, age int) float64 {
	return Default.EstimateCost(t, l, age)
}
