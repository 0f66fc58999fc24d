package surface

import (
	"encoding/json"
	"io"

	"github.com/bridgewatch/bridgewatch/pkg/aggregate"
	"github.com/bridgewatch/bridgewatch/pkg/scoring"
)

// JSONRenderer marshals results to indented JSON.
type JSONRenderer struct{}

func (r *JSONRenderer) RenderAssessments(w io.Writer, items []scoring.Assessment) error {
	if items == nil {
		items = []scoring.Assessment{}
	}
	return encode(w, items)
}

func (r *JSONRenderer) RenderDashboard(w io.Writer, d aggregate.Dashboard) error {
	return encode(w, d)
}

func (r *JSONRenderer) RenderForecast(w io.Writer, name string, f scoring.Forecast) error {
	return encode(w, struct {
		Name string `json:"name"`
		scoring.Forecast
	}{name, f})
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
