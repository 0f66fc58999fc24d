package filter_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bridgewatch/bridgewatch/pkg/filter"
	"github.com/bridgewatch/bridgewatch/pkg/infra"
)

func records() []infra.Infrastructure {
	mk := func(id string, t infra.StructureType, area string, l infra.RiskLevel) infra.Infrastructure {
		return infra.Infrastructure{ID: id, StructureType: t, Location: infra.Location{Area: area}, RiskLevel: l}
	}
	return []infra.Infrastructure{
		mk("1", infra.Bridge, "Downtown", infra.RiskHigh),
		mk("2", infra.Road, "Downtown", infra.RiskLow),
		mk("3", infra.Road, "Riverside", infra.RiskHigh),
		mk("4", infra.Bridge, "Riverside", infra.RiskModerate),
		mk("5", infra.Road, "Downtown", ""),
	}
}

func ids(recs []infra.Infrastructure) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ID)
	}
	return out
}

func TestIdentity(t *testing.T) {
	var c filter.Criteria
	assert.True(t, c.IsIdentity())
	in := records()
	assert.Equal(t, in, c.Apply(in))
}

func TestApply(t *testing.T) {
	tests := []struct {
		name string
		set  map[string]string
		want []string
	}{
		{name: "risk", set: map[string]string{"riskLevel": "high"}, want: []string{"1", "3"}},
		{name: "type", set: map[string]string{"structureType": "road"}, want: []string{"2", "3", "5"}},
		{name: "area", set: map[string]string{"area": "Riverside"}, want: []string{"3", "4"}},
		{name: "urgency maps to risk", set: map[string]string{"urgency": "scheduledMaintenance"}, want: []string{"4"}},
		{name: "combined", set: map[string]string{"riskLevel": "high", "structureType": "road"}, want: []string{"3"}},
		{name: "contradiction", set: map[string]string{"riskLevel": "high", "urgency": "monitorOnly"}, want: []string{}},
		{name: "all wildcard", set: map[string]string{"riskLevel": "all", "area": "all"}, want: []string{"1", "2", "3", "4", "5"}},
		{name: "area is exact match", set: map[string]string{"area": "downtown"}, want: []string{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var c filter.Criteria
			for f, v := range tc.set {
				require.NoError(t, c.Set(f, v))
			}
			assert.Equal(t, tc.want, ids(c.Apply(records())))
		})
	}
}

func TestSetRejectsUnknown(t *testing.T) {
	var c filter.Criteria
	assert.ErrorIs(t, c.Set("color", "red"), filter.ErrUnknownField)
	assert.ErrorIs(t, c.Set(filter.FieldRiskLevel, "extreme"), infra.ErrInvalidEnum)
	assert.True(t, c.IsIdentity(), "failed Set leaves criteria unchanged")
}

func TestReset(t *testing.T) {
	var c filter.Criteria
	require.NoError(t, c.Set(filter.FieldArea, "Downtown"))
	require.NoError(t, c.Set(filter.FieldUrgency, "immediateRepair"))
	c.Reset()
	assert.True(t, c.IsIdentity())
	assert.Len(t, c.Apply(records()), 5)
}

func TestFromQuery(t *testing.T) {
	c, err := filter.FromQuery(url.Values{"risk": {"moderate"}, "type": {"bridge"}, "area": {"all"}})
	require.NoError(t, err)
	assert.Equal(t, filter.Criteria{RiskLevel: infra.RiskModerate, StructureType: infra.Bridge}, c)

	_, err = filter.FromQuery(url.Values{"urgency": {"soon"}})
	assert.ErrorIs(t, err, infra.ErrInvalidEnum)
}

func TestAreas(t *testing.T) {
	assert.Equal(t, []string{"Downtown", "Riverside"}, filter.Areas(records()))
}
