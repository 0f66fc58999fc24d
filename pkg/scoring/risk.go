package scoring

import (
	"math"

	"github.com/bridgewatch/bridgewatch/pkg/infra"
)

// RiskScore computes the normalized risk score in [0,1].
// Inputs are not range checked; only the result is clamped.
func (e *Engine) RiskScore(age int, trafficLoad, environmentalFactor, conditionRating float64) float64 {
	w := e.weights
	ageFactor := float64(age) / w.AgeHorizonYears
	inverseCondition := 1 - conditionRating/w.ConditionScale

	// Explicit conversions keep each product rounded on its own so the sum
	// is the same on every architecture.
	raw := float64(ageFactor*w.AgeWeight) +
		float64(trafficLoad*w.TrafficWeight) +
		float64(environmentalFactor*w.EnvironmentWeight) +
		float64(inverseCondition*w.ConditionWeight)

	return clamp(raw, 0, 1)
}

// RecordRiskScore computes the risk score from a record's attributes.
func (e *Engine) RecordRiskScore(rec infra.Infrastructure) float64 {
	return e.RiskScore(rec.Age, rec.TrafficLoadFactor, rec.EnvironmentalExposureFactor, rec.StructuralConditionRating)
}

// Classify maps a risk score to the local three-way risk level.
// This is independent of any store-supplied level.
func (e *Engine) Classify(riskScore float64) infra.RiskLevel {
	pct := float64(riskScore * 100)
	switch {
	case pct >= e.weights.HighThreshold:
		return infra.RiskHigh
	case pct >= e.weights.ModerateThreshold:
		return infra.RiskModerate
	default:
		return infra.RiskLow
	}
}

// Gauge returns the dial reading for a risk score.
func (e *Engine) Gauge(riskScore float64) Gauge {
	return Gauge{
		Percent: int(math.Round(riskScore * 100)),
		Level:   e.Classify(riskScore),
	}
}

// HealthScore is the complement of the risk score on a 0-100 scale,
// rounded half away from zero.
func HealthScore(riskScore float64) int {
	return int(clamp(math.Round((1-riskScore)*100), 0, 100))
}

// RiskPercent returns riskScore*100 with one decimal.
func RiskPercent(riskScore float64) float64 {
	return math.Round(riskScore*1000) / 10
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
