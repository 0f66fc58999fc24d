package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/bridgewatch/bridgewatch/internal/catalog"
	"github.com/bridgewatch/bridgewatch/pkg/filter"
	"github.com/bridgewatch/bridgewatch/pkg/infra"
	"github.com/bridgewatch/bridgewatch/pkg/scoring"
)

// maxBodyBytes bounds request bodies; inputs may carry a base64 photo.
const maxBodyBytes = 16 << 20

type assessmentResponse struct {
	scoring.Assessment
	Gauge scoring.Gauge `json:"gauge"`
}

func decodeInput(w http.ResponseWriter, r *http.Request) (infra.InfrastructureInput, bool) {
	var in infra.InfrastructureInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return infra.InfrastructureInput{}, false
	}
	return in, true
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	c, s, err := h.query(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	records, err := h.catalog.Query(r.Context(), c, s)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}
	rec, err := h.catalog.Add(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := h.catalog.ByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}
	rec, err := h.catalog.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) handleAssessment(w http.ResponseWriter, r *http.Request) {
	rec, err := h.catalog.ByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	e := h.catalog.Engine()
	a := e.Assess(rec)
	writeJSON(w, http.StatusOK, assessmentResponse{Assessment: a, Gauge: e.Gauge(a.RiskScore)})
}

func (h *Handler) handlePredictions(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.Predictions(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleBudget(w http.ResponseWriter, r *http.Request) {
	b, err := h.catalog.BudgetEstimate(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handler) handleForecast(w http.ResponseWriter, r *http.Request) {
	f, err := h.catalog.Forecast(r.Context(), r.PathValue("id"), h.now())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *Handler) handlePhoto(w http.ResponseWriter, r *http.Request) {
	data, err := h.catalog.Photo(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}
	res, err := h.catalog.AnalyzeAndPredict(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	type analyzeResponse struct {
		infra.PredictionResult
		SuggestedConditionRating float64 `json:"suggestedConditionRating"`
	}
	writeJSON(w, http.StatusOK, analyzeResponse{
		PredictionResult:         res,
		SuggestedConditionRating: h.catalog.Engine().SuggestedConditionRating(res.RiskScore),
	})
}

func (h *Handler) handleCitySummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.catalog.CityBudgetSummary(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (h *Handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	var ids []string
	for _, id := range strings.Split(r.URL.Query().Get("ids"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		writeError(w, http.StatusBadRequest, "ids is required")
		return
	}

	rows, err := h.catalog.Compare(r.Context(), ids)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if rows == nil {
		rows = []catalog.Comparison{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	c, s, err := h.query(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	d, err := h.catalog.Dashboard(r.Context(), c, s)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) handleAreas(w http.ResponseWriter, r *http.Request) {
	records, err := h.catalog.All(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	areas := filter.Areas(records)
	if areas == nil {
		areas = []string{}
	}
	writeJSON(w, http.StatusOK, areas)
}
