package scoring_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bridgewatch/bridgewatch/pkg/infra"
	"github.com/bridgewatch/bridgewatch/pkg/scoring"
)

func TestComputeRiskScore(t *testing.T) {
	score := scoring.ComputeRiskScore(20, 0.5, 0.5, 3)
	assert.InDelta(t, 0.315, score, 1e-9)
	assert.Equal(t, 69, scoring.HealthScore(score))

	assert.Equal(t, 0.0, scoring.ComputeRiskScore(0, 0, 0, 5))
	assert.Equal(t, 1.0, scoring.ComputeRiskScore(200, 1, 1, 1), "result is clamped to 1")
}

func TestRiskScoreAlwaysInRange(t *testing.T) {
	for age := 0; age <= 200; age += 10 {
		for _, f := range []float64{0, 0.25, 0.5, 0.75, 1} {
			for _, c := range []float64{1, 2, 3, 4, 5} {
				s := scoring.ComputeRiskScore(age, f, 1-f, c)
				if s < 0 || s > 1 {
					t.Fatalf("risk score %g out of range for age=%d f=%g c=%g", s, age, f, c)
				}
				h := scoring.HealthScore(s)
				if h < 0 || h > 100 {
					t.Fatalf("health %d out of range", h)
				}
			}
		}
	}
}

func TestHealthScore(t *testing.T) {
	assert.Equal(t, 100, scoring.HealthScore(0))
	assert.Equal(t, 0, scoring.HealthScore(1))
	assert.Equal(t, 50, scoring.HealthScore(0.5))
}

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  infra.RiskLevel
	}{
		{0.67, infra.RiskHigh},
		{0.669999, infra.RiskModerate},
		{0.34, infra.RiskModerate},
		{0.339999, infra.RiskLow},
		{0, infra.RiskLow},
		{1, infra.RiskHigh},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, scoring.ClassifyRisk(tc.score), "score %g", tc.score)
	}
}

func TestGaugeClassifiesUnrounded(t *testing.T) {
	g := scoring.Default.Gauge(0.669999)
	assert.Equal(t, 67, g.Percent)
	assert.Equal(t, infra.RiskModerate, g.Level)
}

func TestEstimateCost(t *testing.T) {
	assert.Equal(t, 375000.0, scoring.EstimateCost(infra.Bridge, infra.RiskHigh, 20))
	assert.Equal(t, 0.0, scoring.EstimateCost(infra.Road, infra.RiskLow, 0))
	assert.Equal(t, 150000.0, scoring.EstimateCost(infra.Road, infra.RiskModerate, 40))
	assert.Panics(t, func() { scoring.EstimateCost(infra.Bridge, "", 10) })
}

func TestRecommendedUrgency(t *testing.T) {
	rc := scoring.RecommendedUrgency(infra.RiskHigh)
	assert.Equal(t, infra.ImmediateRepair, rc.Urgency)
	assert.Equal(t, "Immediate Repair", rc.Action)

	assert.Equal(t, "Schedule Maintenance", scoring.RecommendedUrgency(infra.RiskModerate).Action)
	assert.Equal(t, infra.MonitorOnly, scoring.RecommendedUrgency(infra.RiskLow).Urgency)

	for _, l := range infra.RiskLevels {
		assert.Equal(t, l, scoring.RecommendedUrgency(l).Urgency.RiskLevel())
	}
}

func TestROIIndex(t *testing.T) {
	assert.InDelta(t, 9.0, scoring.Default.ROIIndex(0.9, 100000), 1e-9)
	assert.Equal(t, 0.0, scoring.Default.ROIIndex(0.9, 0))
}

func TestWeightsApply(t *testing.T) {
	w := scoring.Defaults()
	require.NoError(t, w.Apply(map[string]float64{"age": 0.4, "bridge_base_cost": 200000}))
	assert.Equal(t, 0.4, w.AgeWeight)

	e := scoring.NewEngine(w)
	assert.Equal(t, 200000.0, e.EstimateCost(infra.Bridge, infra.RiskLow, 20))

	err := w.Apply(map[string]float64{"nope": 1})
	assert.ErrorContains(t, err, "unknown scoring weight")

	err = w.Apply(map[string]float64{"roi_cost_unit": 0})
	assert.Error(t, err)

	assert.Contains(t, scoring.WeightKeys(), "traffic")
}

func TestWeightsRejectNegativeCosts(t *testing.T) {
	for _, key := range []string{
		"bridge_base_cost", "road_base_cost",
		"high_multiplier", "moderate_multiplier", "low_multiplier",
		"high_risk_allowance", "moderate_risk_allowance", "low_risk_allowance",
	} {
		w := scoring.Defaults()
		err := w.Apply(map[string]float64{key: -1})
		assert.ErrorContains(t, err, key)
	}

	w := scoring.Defaults()
	require.NoError(t, w.Apply(map[string]float64{"low_multiplier": 0}))
	assert.Zero(t, scoring.NewEngine(w).EstimateCost(infra.Road, infra.RiskLow, 40))
}

func TestAssess(t *testing.T) {
	rec := infra.Infrastructure{
		ID:                          "r1",
		StructureType:               infra.Bridge,
		MaterialType:                infra.Concrete,
		Age:                         40,
		TrafficLoadFactor:           0.9,
		EnvironmentalExposureFactor: 0.7,
		StructuralConditionRating:   2,
	}

	a := scoring.Default.Assess(rec)
	assert.InDelta(t, 0.54, a.RiskScore, 1e-9)
	assert.Equal(t, infra.RiskModerate, a.RiskLevel)
	assert.Equal(t, infra.RiskModerate, a.LocalRiskLevel)
	assert.Equal(t, 450000.0, a.EstimatedCost)
	assert.Equal(t, infra.ScheduledMaintenance, a.Urgency)

	// A store-supplied classification wins, the local one stays advisory.
	rec.RiskScore, rec.RiskLevel = 0.8, infra.RiskHigh
	a = scoring.Default.Assess(rec)
	assert.Equal(t, 0.8, a.RiskScore)
	assert.Equal(t, infra.RiskHigh, a.RiskLevel)
	assert.Equal(t, infra.RiskModerate, a.LocalRiskLevel)
	assert.Equal(t, 20, a.HealthScore)
	assert.Equal(t, 750000.0, a.EstimatedCost)
}

func TestEnrich(t *testing.T) {
	rec := infra.Infrastructure{StructureType: infra.Road, MaterialType: infra.Asphalt, Age: 20, TrafficLoadFactor: 0.5, EnvironmentalExposureFactor: 0.5, StructuralConditionRating: 3}
	got := scoring.Default.Enrich(rec)
	assert.True(t, got.Classified())
	assert.Equal(t, infra.RiskLow, got.RiskLevel)

	rec.RiskLevel, rec.RiskScore = infra.RiskHigh, 0.9
	assert.Equal(t, rec, scoring.Default.Enrich(rec))

	be := scoring.Default.BudgetEstimate(rec)
	assert.Equal(t, infra.ImmediateRepair, be.UrgencyLevel)
	assert.Equal(t, 125000.0, be.EstimatedCost)
}

func TestSuggestedConditionRating(t *testing.T) {
	assert.InDelta(t, 3.45, scoring.Default.SuggestedConditionRating(0.315), 1e-9)
	assert.Equal(t, 1.0, scoring.Default.SuggestedConditionRating(1))
	assert.Equal(t, 5.0, scoring.Default.SuggestedConditionRating(0))
}

func TestBuildForecast(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	p := infra.Prediction{
		DeteriorationRate: -0.12,
		MaintenanceYear:   4,
		FutureConditionRatings: infra.FutureConditionRatings{
			Rating5:  3.456,
			Rating10: 2.9,
			Rating20: -0.4,
		},
	}

	f := scoring.BuildForecast(p, 4, now)
	assert.Equal(t, 2030, f.MaintenanceYear)
	require.Len(t, f.Points, 4)
	assert.Equal(t, 3.46, f.Points[1].Rating)
	assert.False(t, f.Points[1].Critical)
	assert.Equal(t, 0.0, f.Points[3].Rating)
	assert.True(t, f.Points[3].Critical)
	assert.Equal(t, 2046, f.Points[3].Year)

	first, ok := f.FirstCritical()
	require.True(t, ok)
	assert.Equal(t, "10 Years", first.Label)
}

func TestFormatCurrency(t *testing.T) {
	tests := map[float64]string{
		0:         "$0",
		950:       "$950",
		375000:    "$375K",
		2_400_000: "$2.4M",
		1_000_000: "$1.0M",
	}
	for in, want := range tests {
		assert.Equal(t, want, scoring.FormatCurrency(in))
	}
}

func TestSumCosts(t *testing.T) {
	assert.Equal(t, 0.3, scoring.SumCosts(0.1, 0.2))
	assert.Equal(t, 0.0, scoring.SumCosts())
}
