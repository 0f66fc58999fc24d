package scoring

import (
	"math"
	"time"

	"github.com/bridgewatch/bridgewatch/pkg/infra"
)

// CriticalRating is the condition rating below which a forecast point is
// flagged as critical.
const CriticalRating = 3.0

// ForecastPoint is one condition rating on the forecast timeline.
type ForecastPoint struct {
	Label    string  `json:"label"`
	Year     int     `json:"year"`
	Rating   float64 `json:"rating"`
	Critical bool    `json:"critical"`
}

// Forecast is a prediction prepared for display.
type Forecast struct {
	DeteriorationRate float64         `json:"deterioration_rate"`
	MaintenanceIn     int             `json:"maintenance_in_years"`
	MaintenanceYear   int             `json:"maintenance_year"` // calendar year
	Points            []ForecastPoint `json:"points"`
}

// BuildForecast turns a predictor response into a display timeline.
// Ratings are clamped to >= 0 and rounded to two decimals.
func BuildForecast(p infra.Prediction, currentRating float64, now time.Time) Forecast {
	year := now.Year()
	point := func(label string, offset int, rating float64) ForecastPoint {
		return ForecastPoint{
			Label:    label,
			Year:     year + offset,
			Rating:   round2(math.Max(0, rating)),
			Critical: rating < CriticalRating,
		}
	}

	return Forecast{
		DeteriorationRate: p.DeteriorationRate,
		MaintenanceIn:     p.MaintenanceYear,
		MaintenanceYear:   year + p.MaintenanceYear,
		Points: []ForecastPoint{
			point("Now", 0, currentRating),
			point("5 Years", 5, p.FutureConditionRatings.Rating5),
			point("10 Years", 10, p.FutureConditionRatings.Rating10),
			point("20 Years", 20, p.FutureConditionRatings.Rating20),
		},
	}
}

// FirstCritical returns the first point flagged critical, if any.
func (f Forecast) FirstCritical() (ForecastPoint, bool) {
	for _, p := range f.Points {
		if p.Critical {
			return p, true
		}
	}
	return ForecastPoint{}, false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
