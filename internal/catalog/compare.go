package catalog

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/bridgewatch/bridgewatch/pkg/infra"
	"github.com/bridgewatch/bridgewatch/pkg/scoring"
)

// MaxCompared is the largest number of records compared side by side.
const MaxCompared = 3

// ErrTooManyCompared is returned when more than MaxCompared distinct ids
// are requested.
var ErrTooManyCompared = fmt.Errorf("at most %d structures can be compared", MaxCompared)

// Comparison is one column of the comparison view.
type Comparison struct {
	Record      infra.Infrastructure `json:"record"`
	HealthScore int                  `json:"healthScore"`
	RiskLevel   infra.RiskLevel      `json:"riskLevel"`
	Prediction  *infra.Prediction    `json:"prediction,omitempty"`
	Budget      infra.BudgetEstimate `json:"budgetEstimate"`
}

// Compare fetches up to MaxCompared records concurrently. Duplicate ids
// are collapsed keeping first-seen order. Prediction is left empty when
// no predictor is configured; any other failure aborts the comparison.
func (s *Service) Compare(ctx context.Context, ids []string) ([]Comparison, error) {
	var unique []string
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}
	if len(unique) > MaxCompared {
		return nil, ErrTooManyCompared
	}

	out := make([]Comparison, len(unique))
	g, ctx := errgroup.WithContext(ctx)
	for i, id := range unique {
		g.Go(func() error {
			rec, err := s.ByID(ctx, id)
			if err != nil {
				return err
			}
			c := Comparison{
				Record:      rec,
				HealthScore: scoring.HealthScore(rec.RiskScore),
				RiskLevel:   rec.RiskLevel,
				Budget:      s.engine.BudgetEstimate(rec),
			}
			p, err := s.Predictions(ctx, id)
			switch {
			case err == nil:
				c.Prediction = &p
			case !errors.Is(err, ErrPredictorUnavailable):
				return err
			}
			out[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
