// Package scoring implements the risk and budget scoring engine.
// It turns raw structural attributes into risk, health, cost and urgency
// values. Every function here is pure and deterministic.
package scoring

import "github.com/bridgewatch/bridgewatch/pkg/infra"

// Assessment is the complete derived view of one record.
// Immutable once computed.
type Assessment struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	StructureType infra.StructureType `json:"structure_type"`
	Area          string              `json:"area"`
	Age           int                 `json:"age"`

	// RiskScore is the record's score when it is already classified,
	// otherwise the locally computed one.
	RiskScore         float64         `json:"risk_score"`
	ComputedRiskScore float64         `json:"computed_risk_score"`
	HealthScore       int             `json:"health_score"`
	RiskLevel         infra.RiskLevel `json:"risk_level"`       // authoritative
	LocalRiskLevel    infra.RiskLevel `json:"local_risk_level"` // advisory, from ComputedRiskScore

	EstimatedCost     float64            `json:"estimated_cost"`
	Urgency           infra.UrgencyLevel `json:"urgency"`
	RecommendedAction string             `json:"recommended_action"`
	ROI               float64            `json:"roi"`
}

// Recommendation is the urgency and action label for a risk level.
type Recommendation struct {
	Urgency infra.UrgencyLevel `json:"urgency"`
	Action  string             `json:"action"`
}

// Gauge is the percentage reading shown on a risk dial.
type Gauge struct {
	Percent int             `json:"percent"`
	Level   infra.RiskLevel `json:"level"`
}
