package infra

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// Location places a structure on the map. Area is free text and is
// compared by exact match when grouping or filtering.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Area      string  `json:"area"`
}

// Infrastructure is a single bridge or road record.
// RiskScore and RiskLevel are either supplied by the store or derived locally.
type Infrastructure struct {
	ID                          string        `json:"id"`
	Name                        string        `json:"name"`
	StructureType               StructureType `json:"structureType"`
	MaterialType                MaterialType  `json:"materialType"`
	Location                    Location      `json:"location"`
	Age                         int           `json:"age"`                         // years
	TrafficLoadFactor           float64       `json:"trafficLoadFactor"`           // 0-1
	EnvironmentalExposureFactor float64       `json:"environmentalExposureFactor"` // 0-1
	StructuralConditionRating   float64       `json:"structuralConditionRating"`   // 1-5
	Notes                       string        `json:"notes"`
	RiskScore                   float64       `json:"riskScore"` // 0-1
	RiskLevel                   RiskLevel     `json:"riskLevel"`
	PhotoRef                    string        `json:"photoRef,omitempty"`

	// Photo is the raw image, opaque to the engine.
	Photo []byte `json:"-"`
}

// Classified reports whether the record already carries a risk level.
func (i Infrastructure) Classified() bool {
	return i.RiskLevel.Valid()
}

// Validate checks the attribute ranges and enum membership of a record.
func (i Infrastructure) Validate() error {
	var errs []error
	if !i.StructureType.Valid() {
		errs = append(errs, fmt.Errorf("structureType %q: %w", string(i.StructureType), ErrInvalidEnum))
	}
	if !i.MaterialType.Valid() {
		errs = append(errs, fmt.Errorf("materialType %q: %w", string(i.MaterialType), ErrInvalidEnum))
	}
	if i.RiskLevel != "" && !i.RiskLevel.Valid() {
		errs = append(errs, fmt.Errorf("riskLevel %q: %w", string(i.RiskLevel), ErrInvalidEnum))
	}
	if i.Age < 0 {
		errs = append(errs, fmt.Errorf("age must be >= 0, got %d", i.Age))
	}
	if i.TrafficLoadFactor < 0 || i.TrafficLoadFactor > 1 {
		errs = append(errs, fmt.Errorf("trafficLoadFactor must be in [0,1], got %g", i.TrafficLoadFactor))
	}
	if i.EnvironmentalExposureFactor < 0 || i.EnvironmentalExposureFactor > 1 {
		errs = append(errs, fmt.Errorf("environmentalExposureFactor must be in [0,1], got %g", i.EnvironmentalExposureFactor))
	}
	if i.StructuralConditionRating < 1 || i.StructuralConditionRating > 5 {
		errs = append(errs, fmt.Errorf("structuralConditionRating must be in [1,5], got %g", i.StructuralConditionRating))
	}
	if i.Location.Latitude < -90 || i.Location.Latitude > 90 {
		errs = append(errs, fmt.Errorf("latitude out of range: %g", i.Location.Latitude))
	}
	if i.Location.Longitude < -180 || i.Location.Longitude > 180 {
		errs = append(errs, fmt.Errorf("longitude out of range: %g", i.Location.Longitude))
	}
	return errors.Join(errs...)
}

// InfrastructureInput is the write model accepted by add/update/analyze.
type InfrastructureInput struct {
	ID                          string        `json:"id"`
	Name                        string        `json:"name"`
	StructureType               StructureType `json:"structureType"`
	MaterialType                MaterialType  `json:"materialType"`
	Location                    Location      `json:"location"`
	Age                         int           `json:"age"`
	TrafficLoadFactor           float64       `json:"trafficLoadFactor"`
	EnvironmentalExposureFactor float64       `json:"environmentalExposureFactor"`
	StructuralConditionRating   float64       `json:"structuralConditionRating"`
	Notes                       string        `json:"notes"`
	PhotoBase64                 string        `json:"photoBase64,omitempty"`
}

// Record converts the input into an unclassified record.
func (in InfrastructureInput) Record() (Infrastructure, error) {
	rec := Infrastructure{
		ID:                          in.ID,
		Name:                        in.Name,
		StructureType:               in.StructureType,
		MaterialType:                in.MaterialType,
		Location:                    in.Location,
		Age:                         in.Age,
		TrafficLoadFactor:           in.TrafficLoadFactor,
		EnvironmentalExposureFactor: in.EnvironmentalExposureFactor,
		StructuralConditionRating:   in.StructuralConditionRating,
		Notes:                       in.Notes,
	}
	if in.PhotoBase64 != "" {
		photo, err := base64.StdEncoding.DecodeString(in.PhotoBase64)
		if err != nil {
			return Infrastructure{}, fmt.Errorf("decoding photo: %w", err)
		}
		rec.Photo = photo
	}
	if err := rec.Validate(); err != nil {
		return Infrastructure{}, err
	}
	return rec, nil
}

// FutureConditionRatings are the forecast condition ratings 5, 10 and 20
// years from now.
type FutureConditionRatings struct {
	Rating5  float64 `json:"rating5"`
	Rating10 float64 `json:"rating10"`
	Rating20 float64 `json:"rating20"`
}

// Prediction is the deterioration forecast returned by the external predictor.
type Prediction struct {
	DeteriorationRate      float64                `json:"deteriorationRate"` // per year, negative means degradation
	MaintenanceYear        int                    `json:"maintenanceYear"`   // offset from the current year
	FutureConditionRatings FutureConditionRatings `json:"futureConditionRatings"`
}

// BudgetEstimate is the maintenance cost and urgency for one structure.
type BudgetEstimate struct {
	UrgencyLevel      UrgencyLevel `json:"urgencyLevel"`
	RecommendedAction string       `json:"recommendedAction"`
	EstimatedCost     float64      `json:"estimatedCost"`
}

// RiskBreakdown holds one value per risk level.
type RiskBreakdown struct {
	Low      float64 `json:"low"`
	Moderate float64 `json:"moderate"`
	High     float64 `json:"high"`
}

// Get returns the value for a risk level.
func (b RiskBreakdown) Get(l RiskLevel) float64 {
	switch l {
	case RiskLow:
		return b.Low
	case RiskModerate:
		return b.Moderate
	case RiskHigh:
		return b.High
	}
	panic(fmt.Sprintf("infra: unknown risk level %q", string(l)))
}

// Add increments the value for a risk level.
func (b *RiskBreakdown) Add(l RiskLevel, v float64) {
	switch l {
	case RiskLow:
		b.Low += v
	case RiskModerate:
		b.Moderate += v
	case RiskHigh:
		b.High += v
	default:
		panic(fmt.Sprintf("infra: unknown risk level %q", string(l)))
	}
}

// CityBudgetSummary is the city-wide maintenance budget view.
type CityBudgetSummary struct {
	BreakdownByRiskLevel  RiskBreakdown    `json:"breakdownByRiskLevel"`
	TopPriorityStructures []Infrastructure `json:"topPriorityStructures"`
	TotalEstimatedBudget  float64          `json:"totalEstimatedBudget"`
}

// PredictionResult is the photo-aware analysis result: forecast, budget and
// risk in one response.
type PredictionResult struct {
	DeteriorationRate float64        `json:"deteriorationRate"`
	MaintenanceYear   int            `json:"maintenanceYear"`
	BudgetEstimate    BudgetEstimate `json:"budgetEstimate"`
	RiskLevel         RiskLevel      `json:"riskLevel"`
	RiskScore         float64        `json:"riskScore"`
}
