// Package catalog orchestrates the record store, the external predictor,
// the response cache and photo storage around the scoring engine. It is
// the single entry point used by the daemon and the CLI.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/bridgewatch/bridgewatch/internal/cache"
	"github.com/bridgewatch/bridgewatch/internal/photos"
	"github.com/bridgewatch/bridgewatch/internal/predictor"
	"github.com/bridgewatch/bridgewatch/internal/store"
	"github.com/bridgewatch/bridgewatch/pkg/aggregate"
	"github.com/bridgewatch/bridgewatch/pkg/filter"
	"github.com/bridgewatch/bridgewatch/pkg/infra"
	"github.com/bridgewatch/bridgewatch/pkg/scoring"
	"github.com/bridgewatch/bridgewatch/pkg/sorter"
)

// DefaultPredictionTTL is how long a prediction stays cached.
const DefaultPredictionTTL = 30 * time.Second

// ErrPredictorUnavailable is returned by prediction calls when no
// predictor is configured.
var ErrPredictorUnavailable = errors.New("predictor not configured")

// ErrInvalidInput wraps validation failures of an InfrastructureInput.
var ErrInvalidInput = errors.New("invalid infrastructure")

// Options configures optional collaborators. Nil fields disable the
// feature they back, except Cache and Engine which fall back to an
// in-process LRU and the default weights.
type Options struct {
	Predictor predictor.Predictor
	Cache     cache.Cache
	Photos    photos.Storage
	Engine    *scoring.Engine
	CacheTTL  time.Duration
	Logger    *slog.Logger
}

// Service is the catalog of infrastructure records.
type Service struct {
	store     store.Store
	predictor predictor.Predictor
	cache     cache.Cache
	photos    photos.Storage
	engine    *scoring.Engine
	agg       *aggregate.Aggregator
	ttl       time.Duration
	log       *slog.Logger
}

// New creates a Service over st.
func New(st store.Store, opts Options) *Service {
	s := &Service{
		store:     st,
		predictor: opts.Predictor,
		cache:     opts.Cache,
		photos:    opts.Photos,
		engine:    opts.Engine,
		ttl:       opts.CacheTTL,
		log:       opts.Logger,
	}
	if s.cache == nil {
		s.cache = cache.NewLRU(0)
	}
	if s.engine == nil {
		s.engine = scoring.Default
	}
	if s.ttl <= 0 {
		s.ttl = DefaultPredictionTTL
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	s.agg = aggregate.New(s.engine)
	return s
}

// Engine returns the scoring engine used for enrichment.
func (s *Service) Engine() *scoring.Engine { return s.engine }

// Aggregator returns the aggregator bound to the service's engine.
func (s *Service) Aggregator() *aggregate.Aggregator { return s.agg }

// All returns every record, enriched where the store left it unclassified.
func (s *Service) All(ctx context.Context) ([]infra.Infrastructure, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list infrastructure: %w", err)
	}
	return s.engine.EnrichAll(records), nil
}

// ByID returns one enriched record.
func (s *Service) ByID(ctx context.Context, id string) (infra.Infrastructure, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return infra.Infrastructure{}, fmt.Errorf("get infrastructure %s: %w", id, err)
	}
	return s.engine.Enrich(rec), nil
}

// Query filters then sorts the catalog.
func (s *Service) Query(ctx context.Context, c filter.Criteria, srt sorter.Sorter) ([]infra.Infrastructure, error) {
	records, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return srt.Sort(c.Apply(records)), nil
}

// Dashboard computes every aggregation view over the queried records.
func (s *Service) Dashboard(ctx context.Context, c filter.Criteria, srt sorter.Sorter) (aggregate.Dashboard, error) {
	records, err := s.Query(ctx, c, srt)
	if err != nil {
		return aggregate.Dashboard{}, err
	}
	return s.agg.Dashboard(records), nil
}

// predictionKey fingerprints the record so a forecast computed from an
// outdated version is never served for the current one.
func predictionKey(rec infra.Infrastructure) string {
	data, err := json.Marshal(rec)
	if err != nil {
		return "predictions:" + rec.ID
	}
	return fmt.Sprintf("predictions:%s:%016x", rec.ID, xxhash.Sum64(data))
}

// Predictions returns the deterioration forecast for a record. Responses
// are cached per id until the TTL lapses or the record changes.
func (s *Service) Predictions(ctx context.Context, id string) (infra.Prediction, error) {
	if s.predictor == nil {
		return infra.Prediction{}, ErrPredictorUnavailable
	}

	stored, err := s.store.Get(ctx, id)
	if err != nil {
		return infra.Prediction{}, fmt.Errorf("get infrastructure %s: %w", id, err)
	}

	key := predictionKey(stored)
	if data, ok, err := s.cache.Get(ctx, key); err != nil {
		s.log.Warn("prediction cache read failed", "id", id, "error", err)
	} else if ok {
		var p infra.Prediction
		if err := json.Unmarshal(data, &p); err == nil {
			return p, nil
		}
		s.log.Warn("discarding undecodable cached prediction", "id", id)
	}

	p, err := s.predictor.Predict(ctx, s.engine.Enrich(stored))
	if err != nil {
		return infra.Prediction{}, fmt.Errorf("predict %s: %w", id, err)
	}

	if data, err := json.Marshal(p); err == nil {
		if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
			s.log.Warn("prediction cache write failed", "id", id, "error", err)
		}
	}
	return p, nil
}

// Forecast post-processes the prediction for display.
func (s *Service) Forecast(ctx context.Context, id string, now time.Time) (scoring.Forecast, error) {
	rec, err := s.ByID(ctx, id)
	if err != nil {
		return scoring.Forecast{}, err
	}
	p, err := s.Predictions(ctx, id)
	if err != nil {
		return scoring.Forecast{}, err
	}
	return scoring.BuildForecast(p, rec.StructuralConditionRating, now), nil
}

// BudgetEstimate returns the cost and urgency of one record.
func (s *Service) BudgetEstimate(ctx context.Context, id string) (infra.BudgetEstimate, error) {
	rec, err := s.ByID(ctx, id)
	if err != nil {
		return infra.BudgetEstimate{}, err
	}
	return s.engine.BudgetEstimate(rec), nil
}

// CityBudgetSummary computes the city-wide budget view.
func (s *Service) CityBudgetSummary(ctx context.Context) (infra.CityBudgetSummary, error) {
	records, err := s.All(ctx)
	if err != nil {
		return infra.CityBudgetSummary{}, err
	}
	return s.agg.CitySummary(records), nil
}

// Add stores a new record. An empty id is replaced by a random one and a
// photo, if present, is moved to photo storage.
func (s *Service) Add(ctx context.Context, in infra.InfrastructureInput) (infra.Infrastructure, error) {
	rec, err := in.Record()
	if err != nil {
		return infra.Infrastructure{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if err := s.storePhoto(ctx, &rec); err != nil {
		return infra.Infrastructure{}, err
	}

	rec = s.engine.Enrich(rec)
	if err := s.store.Add(ctx, rec); err != nil {
		s.dropPhoto(ctx, rec.PhotoRef)
		return infra.Infrastructure{}, fmt.Errorf("add infrastructure %s: %w", rec.ID, err)
	}
	return rec, nil
}

// Update replaces the attributes of an existing record and reclassifies
// it. The stored photo is kept unless the input carries a new one.
func (s *Service) Update(ctx context.Context, id string, in infra.InfrastructureInput) (infra.Infrastructure, error) {
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return infra.Infrastructure{}, fmt.Errorf("update infrastructure %s: %w", id, err)
	}

	rec, err := in.Record()
	if err != nil {
		return infra.Infrastructure{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	rec.ID = id
	rec.PhotoRef = existing.PhotoRef
	if rec.Photo == nil {
		rec.Photo = existing.Photo
	} else if err := s.storePhoto(ctx, &rec); err != nil {
		return infra.Infrastructure{}, err
	}

	rec = s.engine.Enrich(rec)
	if err := s.store.Update(ctx, rec); err != nil {
		if rec.PhotoRef != existing.PhotoRef {
			s.dropPhoto(ctx, rec.PhotoRef)
		}
		return infra.Infrastructure{}, fmt.Errorf("update infrastructure %s: %w", id, err)
	}
	if rec.PhotoRef != existing.PhotoRef {
		s.dropPhoto(ctx, existing.PhotoRef)
	}
	s.invalidate(ctx, existing)
	return rec, nil
}

// Delete removes a record and its photo.
func (s *Service) Delete(ctx context.Context, id string) error {
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("delete infrastructure %s: %w", id, err)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete infrastructure %s: %w", id, err)
	}
	s.dropPhoto(ctx, existing.PhotoRef)
	s.invalidate(ctx, existing)
	return nil
}

// Photo returns the stored photo of a record.
func (s *Service) Photo(ctx context.Context, id string) ([]byte, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get infrastructure %s: %w", id, err)
	}
	if len(rec.Photo) > 0 {
		return rec.Photo, nil
	}
	if rec.PhotoRef == "" || s.photos == nil {
		return nil, fmt.Errorf("%s: %w", id, photos.ErrNotFound)
	}
	return s.photos.Get(ctx, rec.PhotoRef)
}

// AnalyzeAndPredict sends an input, photo included, to the predictor. A
// result without a usable risk level or budget is completed locally from
// the returned risk score.
func (s *Service) AnalyzeAndPredict(ctx context.Context, in infra.InfrastructureInput) (infra.PredictionResult, error) {
	if s.predictor == nil {
		return infra.PredictionResult{}, ErrPredictorUnavailable
	}
	rec, err := in.Record()
	if err != nil {
		return infra.PredictionResult{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	res, err := s.predictor.AnalyzeAndPredict(ctx, in)
	if err != nil {
		return infra.PredictionResult{}, fmt.Errorf("analyze: %w", err)
	}

	if !res.RiskLevel.Valid() {
		res.RiskLevel = s.engine.Classify(res.RiskScore)
	}
	if !res.BudgetEstimate.UrgencyLevel.Valid() {
		rc := scoring.RecommendedUrgency(res.RiskLevel)
		res.BudgetEstimate = infra.BudgetEstimate{
			UrgencyLevel:      rc.Urgency,
			RecommendedAction: rc.Action,
			EstimatedCost:     s.engine.EstimateCost(rec.StructureType, res.RiskLevel, rec.Age),
		}
	}
	return res, nil
}

// Seed loads the sample portfolio into an empty store.
func (s *Service) Seed(ctx context.Context) (int, error) {
	return store.Seed(ctx, s.store, s.engine.EnrichAll(store.SampleRecords()))
}

func (s *Service) storePhoto(ctx context.Context, rec *infra.Infrastructure) error {
	if s.photos == nil || len(rec.Photo) == 0 {
		return nil
	}
	ref, err := s.photos.Put(ctx, rec.ID, rec.Photo)
	if err != nil {
		return fmt.Errorf("store photo for %s: %w", rec.ID, err)
	}
	rec.PhotoRef = ref
	rec.Photo = nil
	return nil
}

func (s *Service) dropPhoto(ctx context.Context, ref string) {
	if s.photos == nil || ref == "" {
		return
	}
	if err := s.photos.Delete(ctx, ref); err != nil && !errors.Is(err, photos.ErrNotFound) {
		s.log.Warn("failed to delete photo", "ref", ref, "error", err)
	}
}

// invalidate drops the forecast cached for the replaced version of a record.
// A forecast still in flight for that version lands under its old key and
// ages out with the TTL.
func (s *Service) invalidate(ctx context.Context, old infra.Infrastructure) {
	if err := s.cache.Delete(ctx, predictionKey(old)); err != nil {
		s.log.Warn("prediction cache invalidation failed", "id", old.ID, "error", err)
	}
}
