// Package telemetry records simulator ticks as time series.
package telemetry

import (
	"log/slog"
	"sync"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/bridgewatch/bridgewatch/pkg/simulator"
)

// Measurement is the InfluxDB measurement simulator points are written to.
const Measurement = "sensor_simulation"

// InfluxConfig locates the bucket points are written to.
type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// InfluxRecorder writes simulator states through the non-blocking write
// API, so Observe never waits on the network.
type InfluxRecorder struct {
	client influxdb2.Client
	writer api.WriteAPI
	wg     sync.WaitGroup
}

// NewInfluxRecorder creates a recorder. Write failures are logged.
func NewInfluxRecorder(cfg InfluxConfig) *InfluxRecorder {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	r := &InfluxRecorder{
		client: client,
		writer: client.WriteAPI(cfg.Org, cfg.Bucket),
	}
	errs := r.writer.Errors()
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for err := range errs {
			slog.Warn("influx write failed", "error", err)
		}
	}()
	return r
}

// Session returns an observer that tags every point with a session id.
func (r *InfluxRecorder) Session(session string) simulator.Observer {
	return simulator.ObserverFunc(func(st simulator.State) {
		r.writer.WritePoint(Point(session, st))
	})
}

// Observe writes a point without a session tag.
func (r *InfluxRecorder) Observe(st simulator.State) {
	r.writer.WritePoint(Point("", st))
}

// Close flushes buffered points and releases the client.
func (r *InfluxRecorder) Close() {
	r.writer.Flush()
	r.client.Close()
	r.wg.Wait()
}

// Point converts a simulator state to a line-protocol point.
func Point(session string, st simulator.State) *write.Point {
	tags := map[string]string{"structure_id": st.StructureID}
	if session != "" {
		tags["session"] = session
	}
	fields := map[string]any{
		"condition_rating": st.ConditionRating,
		"traffic_load":     st.TrafficLoad,
		"risk_score":       st.RiskScore,
		"health_score":     st.HealthScore,
		"active":           st.Active,
		"ticks":            int64(st.Ticks),
	}
	return influxdb2.NewPoint(Measurement, tags, fields, st.LastUpdated)
}
