package infra_test

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bridgewatch/bridgewatch/pkg/infra"
)

func validRecord() infra.Infrastructure {
	return infra.Infrastructure{
		ID:                          "br-1",
		Name:                        "Harbor Bridge",
		StructureType:               infra.Bridge,
		MaterialType:                infra.Steel,
		Location:                    infra.Location{Latitude: 41.88, Longitude: -87.63, Area: "Downtown"},
		Age:                         42,
		TrafficLoadFactor:           0.8,
		EnvironmentalExposureFactor: 0.6,
		StructuralConditionRating:   2.5,
		RiskScore:                   0.52,
		RiskLevel:                   infra.RiskModerate,
	}
}

func TestParseEnums(t *testing.T) {
	st, err := infra.ParseStructureType("road")
	require.NoError(t, err)
	assert.Equal(t, infra.Road, st)

	_, err = infra.ParseStructureType("tunnel")
	assert.ErrorIs(t, err, infra.ErrInvalidEnum)

	m, err := infra.ParseMaterialType("compositeMaterial")
	require.NoError(t, err)
	assert.Equal(t, infra.Composite, m)

	_, err = infra.ParseRiskLevel("")
	assert.ErrorIs(t, err, infra.ErrInvalidEnum)

	u, err := infra.ParseUrgencyLevel("immediateRepair")
	require.NoError(t, err)
	assert.Equal(t, infra.RiskHigh, u.RiskLevel())
	assert.Equal(t, infra.RiskModerate, infra.ScheduledMaintenance.RiskLevel())
	assert.Equal(t, infra.RiskLow, infra.MonitorOnly.RiskLevel())
}

func TestUnmarshalRejectsUnknownEnum(t *testing.T) {
	var rec infra.Infrastructure
	err := json.Unmarshal([]byte(`{"structureType":"tunnel"}`), &rec)
	require.Error(t, err)
	assert.True(t, errors.Is(err, infra.ErrInvalidEnum))
}

func TestUnmarshalEmptyRiskLevelIsUnclassified(t *testing.T) {
	var rec infra.Infrastructure
	err := json.Unmarshal([]byte(`{"structureType":"bridge","materialType":"steel","riskLevel":""}`), &rec)
	require.NoError(t, err)
	assert.False(t, rec.Classified())
}

func TestUnmarshalEmptyUrgencyIsUnestimated(t *testing.T) {
	var b infra.BudgetEstimate
	err := json.Unmarshal([]byte(`{"urgencyLevel":"","recommendedAction":"","estimatedCost":0}`), &b)
	require.NoError(t, err)
	assert.False(t, b.UrgencyLevel.Valid())

	err = json.Unmarshal([]byte(`{"urgencyLevel":"someday"}`), &b)
	assert.ErrorIs(t, err, infra.ErrInvalidEnum)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *infra.Infrastructure)
		wantErr bool
	}{
		{name: "valid", mutate: func(r *infra.Infrastructure) {}},
		{name: "negative age", mutate: func(r *infra.Infrastructure) { r.Age = -1 }, wantErr: true},
		{name: "traffic above one", mutate: func(r *infra.Infrastructure) { r.TrafficLoadFactor = 1.2 }, wantErr: true},
		{name: "condition below one", mutate: func(r *infra.Infrastructure) { r.StructuralConditionRating = 0.5 }, wantErr: true},
		{name: "unknown material", mutate: func(r *infra.Infrastructure) { r.MaterialType = "wood" }, wantErr: true},
		{name: "unclassified is fine", mutate: func(r *infra.Infrastructure) { r.RiskLevel = "" }},
		{name: "bad latitude", mutate: func(r *infra.Infrastructure) { r.Location.Latitude = 91 }, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := validRecord()
			tc.mutate(&rec)
			err := rec.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestInputRecordDecodesPhoto(t *testing.T) {
	in := infra.InfrastructureInput{
		Name:                      "Elm St",
		StructureType:             infra.Road,
		MaterialType:              infra.Asphalt,
		Age:                       10,
		StructuralConditionRating: 4,
		PhotoBase64:               base64.StdEncoding.EncodeToString([]byte("jpeg-bytes")),
	}
	rec, err := in.Record()
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), rec.Photo)
	assert.False(t, rec.Classified())

	in.PhotoBase64 = "%%%"
	_, err = in.Record()
	assert.Error(t, err)
}

func TestRiskBreakdown(t *testing.T) {
	var b infra.RiskBreakdown
	b.Add(infra.RiskHigh, 2)
	b.Add(infra.RiskLow, 1)
	assert.Equal(t, 2.0, b.Get(infra.RiskHigh))
	assert.Equal(t, 0.0, b.Get(infra.RiskModerate))
	assert.Panics(t, func() { b.Add("", 1) })
}

func TestSaveLoadRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "records.json")
	records := []infra.Infrastructure{validRecord()}

	require.NoError(t, infra.SaveRecords(path, records))
	got, err := infra.LoadRecords(path)
	require.NoError(t, err)
	assert.Equal(t, records, got)

	rec, ok := infra.FindByID(got, "br-1")
	assert.True(t, ok)
	assert.Equal(t, "Harbor Bridge", rec.Name)
	_, ok = infra.FindByID(got, "missing")
	assert.False(t, ok)
}

func TestLoadRecordsRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	bad := validRecord()
	bad.Age = -3
	data, err := json.Marshal([]infra.Infrastructure{bad})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = infra.LoadRecords(path)
	assert.Error(t, err)
}
