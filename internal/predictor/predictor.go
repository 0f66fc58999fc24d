// Package predictor is the client for the external deterioration predictor.
// The predictor owns the forecast model; this package only moves requests
// and responses.
package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bridgewatch/bridgewatch/pkg/infra"
)

// Predictor forecasts deterioration for a structure.
type Predictor interface {
	Predict(ctx context.Context, rec infra.Infrastructure) (infra.Prediction, error)
	AnalyzeAndPredict(ctx context.Context, in infra.InfrastructureInput) (infra.PredictionResult, error)
}

// StatusError is returned when the predictor answers with a non-200 status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("predictor returned status %d", e.Code)
	}
	return fmt.Sprintf("predictor returned status %d: %s", e.Code, e.Body)
}

// HTTPPredictor calls a predictor service over HTTP/JSON.
type HTTPPredictor struct {
	baseURL string
	client  *http.Client
}

// NewHTTPPredictor creates a client for the predictor at baseURL.
// A zero timeout selects 30 seconds.
func NewHTTPPredictor(baseURL string, timeout time.Duration) *HTTPPredictor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPPredictor{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Predict posts the record's attributes to /predict.
func (p *HTTPPredictor) Predict(ctx context.Context, rec infra.Infrastructure) (infra.Prediction, error) {
	var out infra.Prediction
	if err := p.post(ctx, "/predict", rec, &out); err != nil {
		return infra.Prediction{}, err
	}
	return out, nil
}

// AnalyzeAndPredict posts the input, photo included, to /analyze.
func (p *HTTPPredictor) AnalyzeAndPredict(ctx context.Context, in infra.InfrastructureInput) (infra.PredictionResult, error) {
	var out infra.PredictionResult
	if err := p.post(ctx, "/analyze", in, &out); err != nil {
		return infra.PredictionResult{}, err
	}
	return out, nil
}

func (p *HTTPPredictor) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal predictor request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create predictor request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("predictor request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode predictor response: %w", err)
	}
	return nil
}
