package scoring

import (
	"fmt"
	"sort"
)

// Weights holds every constant used by the risk and cost models.
type Weights struct {
	// Risk model
	AgeHorizonYears   float64 // age at which the age factor reaches 1
	ConditionScale    float64 // maximum structural condition rating
	AgeWeight         float64
	TrafficWeight     float64
	EnvironmentWeight float64
	ConditionWeight   float64

	// Local classification thresholds, on the 0-100 scale
	HighThreshold     float64
	ModerateThreshold float64

	// Cost model
	BridgeBaseCost     float64
	RoadBaseCost       float64
	HighMultiplier     float64
	ModerateMultiplier float64
	LowMultiplier      float64
	CostAgeUnitYears   float64 // cost scales by age / CostAgeUnitYears
	ROICostUnit        float64 // ROI divides cost by this unit

	// Flat per-structure allowances for the budget-by-risk view
	HighRiskAllowance     float64
	ModerateRiskAllowance float64
	LowRiskAllowance      float64
}

// Defaults returns the default model weights.
// The four risk weights sum to 0.80, not 1.0; the top of the scale is
// unreachable and this is kept as-is.
func Defaults() Weights {
	return Weights{
		AgeHorizonYears:   80,
		ConditionScale:    5,
		AgeWeight:         0.30,
		TrafficWeight:     0.25,
		EnvironmentWeight: 0.15,
		ConditionWeight:   0.10,

		HighThreshold:     67,
		ModerateThreshold: 34,

		BridgeBaseCost:     150000,
		RoadBaseCost:       50000,
		HighMultiplier:     2.5,
		ModerateMultiplier: 1.5,
		LowMultiplier:      1.0,
		CostAgeUnitYears:   20,
		ROICostUnit:        10000,

		HighRiskAllowance:     50000,
		ModerateRiskAllowance: 30000,
		LowRiskAllowance:      10000,
	}
}

func (w *Weights) fields() map[string]*float64 {
	return map[string]*float64{
		"age_horizon_years":       &w.AgeHorizonYears,
		"condition_scale":         &w.ConditionScale,
		"age":                     &w.AgeWeight,
		"traffic":                 &w.TrafficWeight,
		"environment":             &w.EnvironmentWeight,
		"condition":               &w.ConditionWeight,
		"high_threshold":          &w.HighThreshold,
		"moderate_threshold":      &w.ModerateThreshold,
		"bridge_base_cost":        &w.BridgeBaseCost,
		"road_base_cost":          &w.RoadBaseCost,
		"high_multiplier":         &w.HighMultiplier,
		"moderate_multiplier":     &w.ModerateMultiplier,
		"low_multiplier":          &w.LowMultiplier,
		"cost_age_unit_years":     &w.CostAgeUnitYears,
		"roi_cost_unit":           &w.ROICostUnit,
		"high_risk_allowance":     &w.HighRiskAllowance,
		"moderate_risk_allowance": &w.ModerateRiskAllowance,
		"low_risk_allowance":      &w.LowRiskAllowance,
	}
}

// WeightKeys returns the names accepted by Apply, sorted.
func WeightKeys() []string {
	var w Weights
	keys := make([]string, 0, len(w.fields()))
	for k := range w.fields() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Apply overrides weights by name. Unknown names are an error.
func (w *Weights) Apply(overrides map[string]float64) error {
	fields := w.fields()
	for k, v := range overrides {
		p, ok := fields[k]
		if !ok {
			return fmt.Errorf("unknown scoring weight %q", k)
		}
		*p = v
	}
	return w.validate()
}

func (w *Weights) validate() error {
	switch {
	case w.AgeHorizonYears <= 0:
		return fmt.Errorf("age_horizon_years must be > 0")
	case w.ConditionScale <= 0:
		return fmt.Errorf("condition_scale must be > 0")
	case w.CostAgeUnitYears <= 0:
		return fmt.Errorf("cost_age_unit_years must be > 0")
	case w.ROICostUnit <= 0:
		return fmt.Errorf("roi_cost_unit must be > 0")
	case w.ModerateThreshold > w.HighThreshold:
		return fmt.Errorf("moderate_threshold %g exceeds high_threshold %g", w.ModerateThreshold, w.HighThreshold)
	}
	// Costs are currency amounts and must not go negative.
	costs := []struct {
		name string
		v    float64
	}{
		{"bridge_base_cost", w.BridgeBaseCost},
		{"road_base_cost", w.RoadBaseCost},
		{"high_multiplier", w.HighMultiplier},
		{"moderate_multiplier", w.ModerateMultiplier},
		{"low_multiplier", w.LowMultiplier},
		{"high_risk_allowance", w.HighRiskAllowance},
		{"moderate_risk_allowance", w.ModerateRiskAllowance},
		{"low_risk_allowance", w.LowRiskAllowance},
	}
	for _, c := range costs {
		if c.v < 0 {
			return fmt.Errorf("%s must be >= 0, got %g", c.name, c.v)
		}
	}
	return nil
}
