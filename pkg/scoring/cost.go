package scoring

import (
	"fmt"

	"github.com/bridgewatch/bridgewatch/pkg/infra"
)

// EstimateCost returns the maintenance cost estimate:
// base(type) * multiplier(level) * age/CostAgeUnitYears.
// A new structure (age 0) costs nothing.
func (e *Engine) EstimateCost(t infra.StructureType, l infra.RiskLevel, age int) float64 {
	w := e.weights
	return float64(e.baseCost(t)*e.multiplier(l)) * (float64(age) / w.CostAgeUnitYears)
}

func (e *Engine) baseCost(t infra.StructureType) float64 {
	switch t {
	case infra.Bridge:
		return e.weights.BridgeBaseCost
	case infra.Road:
		return e.weights.RoadBaseCost
	}
	panic(fmt.Sprintf("scoring: unknown structure type %q", string(t)))
}

func (e *Engine) multiplier(l infra.RiskLevel) float64 {
	switch l {
	case infra.RiskHigh:
		return e.weights.HighMultiplier
	case infra.RiskModerate:
		return e.weights.ModerateMultiplier
	case infra.RiskLow:
		return e.weights.LowMultiplier
	}
	panic(fmt.Sprintf("scoring: unknown risk level %q", string(l)))
}

// Allowance returns the flat per-structure budget for a risk level,
// used by the budget-by-risk view.
func (e *Engine) Allowance(l infra.RiskLevel) float64 {
	switch l {
	case infra.RiskHigh:
		return e.weights.HighRiskAllowance
	case infra.RiskModerate:
		return e.weights.ModerateRiskAllowance
	case infra.RiskLow:
		return e.weights.LowRiskAllowance
	}
	panic(fmt.Sprintf("scoring: unknown risk level %q", string(l)))
}

// RecommendedUrgency maps a risk level to its urgency and action label.
func RecommendedUrgency(l infra.RiskLevel) Recommendation {
	switch l {
	case infra.RiskHigh:
		return Recommendation{Urgency: infra.ImmediateRepair, Action: "Immediate Repair"}
	case infra.RiskModerate:
		return Recommendation{Urgency: infra.ScheduledMaintenance, Action: "Schedule Maintenance"}
	case infra.RiskLow:
		return Recommendation{Urgency: infra.MonitorOnly, Action: "Monitor Only"}
	}
	panic(fmt.Sprintf("scoring: unknown risk level %q", string(l)))
}

// ROIIndex is the risk reduced per unit of spend:
// riskScore*100 / (cost/ROICostUnit). Zero cost yields zero.
func (e *Engine) ROIIndex(riskScore, cost float64) float64 {
	if cost <= 0 {
		return 0
	}
	return riskScore * 100 / (cost / e.weights.ROICostUnit)
}
