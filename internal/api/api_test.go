package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bridgewatch/bridgewatch/internal/catalog"
	"github.com/bridgewatch/bridgewatch/internal/store"
	"github.com/bridgewatch/bridgewatch/pkg/aggregate"
	"github.com/bridgewatch/bridgewatch/pkg/infra"
	"github.com/bridgewatch/bridgewatch/pkg/scoring"
	"github.com/bridgewatch/bridgewatch/pkg/simulator"
)

type stubPredictor struct{}

func (stubPredictor) Predict(ctx context.Context, rec infra.Infrastructure) (infra.Prediction, error) {
	return infra.Prediction{
		DeteriorationRate:      -0.05,
		MaintenanceYear:        2,
		FutureConditionRatings: infra.FutureConditionRatings{Rating5: 3.2, Rating10: 2.9, Rating20: 2.1},
	}, nil
}

func (stubPredictor) AnalyzeAndPredict(ctx context.Context, in infra.InfrastructureInput) (infra.PredictionResult, error) {
	return infra.PredictionResult{RiskScore: 0.5, RiskLevel: infra.RiskModerate, MaintenanceYear: 4}, nil
}

func newTestServer(t *testing.T, withPredictor bool) *httptest.Server {
	t.Helper()
	opts := catalog.Options{}
	if withPredictor {
		opts.Predictor = stubPredictor{}
	}
	svc := catalog.New(store.NewMemoryStore(), opts)
	_, err := svc.Seed(context.Background())
	require.NoError(t, err)

	_, srv := serve(t, svc, Options{})
	return srv
}

// serve mounts a handler over svc with a fast simulation clock.
func serve(t *testing.T, svc *catalog.Service, opts Options) (*Handler, *httptest.Server) {
	t.Helper()
	opts.SimInterval = 10 * time.Millisecond
	opts.SimSeed = 7
	opts.Now = func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }

	h := NewHandler(svc, opts)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return h, srv
}

func do(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func newInput(id string) infra.InfrastructureInput {
	return infra.InfrastructureInput{
		ID:                          id,
		Name:                        "Canal Street Bridge",
		StructureType:               infra.Bridge,
		MaterialType:                infra.Steel,
		Location:                    infra.Location{Area: "Downtown"},
		Age:                         20,
		TrafficLoadFactor:           0.5,
		EnvironmentalExposureFactor: 0.5,
		StructuralConditionRating:   3,
	}
}

func TestListFilterAndSort(t *testing.T) {
	srv := newTestServer(t, false)

	resp := do(t, http.MethodGet, srv.URL+"/api/infrastructure?type=bridge&sort=age&dir=asc", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	records := decode[[]infra.Infrastructure](t, resp)
	require.Len(t, records, 5)
	for i, rec := range records {
		assert.Equal(t, infra.Bridge, rec.StructureType)
		if i > 0 {
			assert.LessOrEqual(t, records[i-1].Age, rec.Age)
		}
	}

	resp = do(t, http.MethodGet, srv.URL+"/api/infrastructure?risk=extreme", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = do(t, http.MethodGet, srv.URL+"/api/infrastructure?sort=color", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCRUD(t *testing.T) {
	srv := newTestServer(t, false)
	base := srv.URL + "/api/infrastructure"

	resp := do(t, http.MethodPost, base, newInput("br-canal"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[infra.Infrastructure](t, resp)
	assert.Equal(t, infra.RiskLow, created.RiskLevel)

	resp = do(t, http.MethodPost, base, newInput("br-canal"))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	bad := newInput("br-bad")
	bad.StructuralConditionRating = 9
	resp = do(t, http.MethodPost, base, bad)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodPost, base, "not an object")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	in := newInput("")
	in.Age = 90
	resp = do(t, http.MethodPut, base+"/br-canal", in)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[infra.Infrastructure](t, resp)
	assert.Equal(t, "br-canal", updated.ID)
	assert.Equal(t, 90, updated.Age)

	resp = do(t, http.MethodGet, base+"/br-canal", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, updated, decode[infra.Infrastructure](t, resp))

	resp = do(t, http.MethodDelete, base+"/br-canal", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = do(t, http.MethodGet, base+"/br-canal", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = do(t, http.MethodPut, base+"/br-canal", in)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAssessmentAndBudget(t *testing.T) {
	srv := newTestServer(t, false)
	base := srv.URL + "/api/infrastructure"
	resp := do(t, http.MethodPost, base, newInput("br-canal"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, http.MethodGet, base+"/br-canal/assessment", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	a := decode[assessmentResponse](t, resp)
	assert.Equal(t, 69, a.HealthScore)
	assert.Equal(t, infra.RiskLow, a.Gauge.Level)
	assert.InDelta(t, 31.5, a.Gauge.Percent, 1)

	resp = do(t, http.MethodGet, base+"/br-canal/budget", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	b := decode[infra.BudgetEstimate](t, resp)
	assert.Equal(t, infra.MonitorOnly, b.UrgencyLevel)
	assert.Equal(t, 150000.0, b.EstimatedCost)
}

func TestAssessmentGaugesRecordScore(t *testing.T) {
	// Stored classification disagrees with what the inputs compute locally.
	rec, err := newInput("br-canal").Record()
	require.NoError(t, err)
	rec.RiskScore, rec.RiskLevel = 0.8, infra.RiskHigh

	_, srv := serve(t, catalog.New(store.NewMemoryStore(rec), catalog.Options{}), Options{})
	resp := do(t, http.MethodGet, srv.URL+"/api/infrastructure/br-canal/assessment", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	a := decode[assessmentResponse](t, resp)

	assert.Equal(t, 80, a.Gauge.Percent)
	assert.Equal(t, infra.RiskHigh, a.Gauge.Level)
	assert.Equal(t, infra.RiskHigh, a.RiskLevel)
	assert.Equal(t, infra.RiskLow, a.LocalRiskLevel)
}

func TestPredictorRoutes(t *testing.T) {
	offline := newTestServer(t, false)
	resp := do(t, http.MethodGet, offline.URL+"/api/infrastructure/br-mill/predictions", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp = do(t, http.MethodPost, offline.URL+"/api/analyze", newInput(""))
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	srv := newTestServer(t, true)
	resp = do(t, http.MethodGet, srv.URL+"/api/infrastructure/br-mill/predictions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, decode[infra.Prediction](t, resp).MaintenanceYear)

	resp = do(t, http.MethodGet, srv.URL+"/api/infrastructure/br-mill/forecast", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	f := decode[scoring.Forecast](t, resp)
	assert.Equal(t, 2028, f.MaintenanceYear)
	pt, ok := f.FirstCritical()
	require.True(t, ok)
	assert.Equal(t, "Now", pt.Label, "br-mill is already below 3.0")

	resp = do(t, http.MethodPost, srv.URL+"/api/analyze", newInput(""))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res struct {
		RiskLevel                infra.RiskLevel      `json:"riskLevel"`
		BudgetEstimate           infra.BudgetEstimate `json:"budgetEstimate"`
		SuggestedConditionRating float64              `json:"suggestedConditionRating"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, infra.RiskModerate, res.RiskLevel)
	assert.Equal(t, infra.ScheduledMaintenance, res.BudgetEstimate.UrgencyLevel)
	assert.Equal(t, 2.5, res.SuggestedConditionRating)
}

func TestCompare(t *testing.T) {
	srv := newTestServer(t, true)

	resp := do(t, http.MethodGet, srv.URL+"/api/compare?ids=br-mill,%20rd-main,br-mill", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rows := decode[[]catalog.Comparison](t, resp)
	require.Len(t, rows, 2)
	assert.Equal(t, "br-mill", rows[0].Record.ID)
	assert.Equal(t, "rd-main", rows[1].Record.ID)
	assert.NotNil(t, rows[0].Prediction)

	resp = do(t, http.MethodGet, srv.URL+"/api/compare?ids=a,b,c,d", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = do(t, http.MethodGet, srv.URL+"/api/compare", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = do(t, http.MethodGet, srv.URL+"/api/compare?ids=nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDashboardAndSummary(t *testing.T) {
	srv := newTestServer(t, false)

	resp := do(t, http.MethodGet, srv.URL+"/api/analytics/dashboard?area=Downtown", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	d := decode[aggregate.Dashboard](t, resp)
	assert.Equal(t, 2, d.Summary.Total)
	require.Len(t, d.Areas.Groups, 1)
	assert.Equal(t, "Downtown", d.Areas.Groups[0].Area)

	resp = do(t, http.MethodGet, srv.URL+"/api/budget/summary", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sum := decode[infra.CityBudgetSummary](t, resp)
	assert.Len(t, sum.TopPriorityStructures, aggregate.CitySummaryTop)

	resp = do(t, http.MethodGet, srv.URL+"/api/areas", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"Waterfront", "Mill District", "Downtown", "Riverside", "Lakeshore"}, decode[[]string](t, resp))
}

func TestPhotoNotFound(t *testing.T) {
	srv := newTestServer(t, false)
	resp := do(t, http.MethodGet, srv.URL+"/api/infrastructure/br-mill/photo", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func readEvent(t *testing.T, conn *websocket.Conn) simEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var ev simEvent
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestSimulateWebSocket(t *testing.T) {
	srv := newTestServer(t, false)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/infrastructure/br-mill/simulate"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	initial := readEvent(t, conn)
	require.Equal(t, "state", initial.Type)
	require.NotNil(t, initial.State)
	assert.False(t, initial.State.Active)
	assert.Equal(t, 2.7, initial.State.ConditionRating)
	assert.NotEmpty(t, initial.Session)

	require.NoError(t, conn.WriteJSON(simMessage{Type: "toggle"}))
	var ticked simulator.State
	for ticked.Ticks == 0 {
		ev := readEvent(t, conn)
		require.NotNil(t, ev.State)
		ticked = *ev.State
	}
	assert.True(t, ticked.Active)
	assert.GreaterOrEqual(t, ticked.ConditionRating, 1.0)
	assert.LessOrEqual(t, ticked.ConditionRating, 5.0)

	require.NoError(t, conn.WriteJSON(simMessage{Type: "deactivate"}))
	var reset simulator.State
	for {
		ev := readEvent(t, conn)
		require.NotNil(t, ev.State)
		if !ev.State.Active {
			reset = *ev.State
			break
		}
	}
	assert.Equal(t, initial.State.ConditionRating, reset.ConditionRating)
	assert.Equal(t, initial.State.TrafficLoad, reset.TrafficLoad)
	assert.Equal(t, initial.State.RiskScore, reset.RiskScore)
	assert.Zero(t, reset.Ticks)

	require.NoError(t, conn.WriteJSON(simMessage{Type: "bogus"}))
	for {
		ev := readEvent(t, conn)
		if ev.Type == "error" {
			assert.Contains(t, ev.Error, "bogus")
			break
		}
	}
}

// tickCounter records every state a simulation session produces.
type tickCounter struct {
	ticks atomic.Int32
}

func (c *tickCounter) Session(id string) simulator.Observer {
	return simulator.ObserverFunc(func(st simulator.State) {
		if st.Active {
			c.ticks.Add(1)
		}
	})
}

func TestShutdownStopsSimulations(t *testing.T) {
	svc := catalog.New(store.NewMemoryStore(), catalog.Options{})
	_, err := svc.Seed(context.Background())
	require.NoError(t, err)
	counter := &tickCounter{}
	h, srv := serve(t, svc, Options{Recorder: counter})

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/infrastructure/br-mill/simulate"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	readEvent(t, conn)

	require.NoError(t, conn.WriteJSON(simMessage{Type: "activate"}))
	require.Eventually(t, func() bool { return counter.ticks.Load() > 2 }, 2*time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.Shutdown(ctx))

	stopped := counter.ticks.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stopped, counter.ticks.Load(), "ticks after shutdown")

	// The client sees the restored readings, then a going-away close.
	var last *simulator.State
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var ev simEvent
		if err := conn.ReadJSON(&ev); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "unexpected error: %v", err)
			break
		}
		if ev.State != nil {
			last = ev.State
		}
	}
	require.NotNil(t, last)
	assert.False(t, last.Active)
	assert.Equal(t, 2.7, last.ConditionRating)

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/infrastructure/br-mill/simulate", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSimulateUnknownStructure(t *testing.T) {
	srv := newTestServer(t, false)
	resp := do(t, http.MethodGet, srv.URL+"/api/infrastructure/nope/simulate", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
