package http

import "net/http"

// Statistics handles GET /api/v1/analytics/statistics?pipeline_id={id}.
// Without the query parameter the totals cover all pipelines.
func (h *Handlers) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analytics.Statistics(r.Context(), r.URL.Query().Get("pipeline_id"))
	if err != nil {
		writeDomainError(w, err, "pipeline not found")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Forecast handles GET /api/v1/analytics/forecast?pipeline_id={id}. Open
// deals are grouped by expected close month and weighted by their stage's
// win probability.
func (h *Handlers) Forecast(w http.ResponseWriter, r *http.Request) {
	months, err := h.analytics.Forecast(r.Context(), r.URL.Query().Get("pipeline_id"))
	if err != nil {
		writeDomainError(w, err, "pipeline not found")
		return
	}
	writeJSON(w, http.StatusOK, months)
}

// ConversionRates handles GET /api/v1/pipelines/{id}/conversion.
func (h *Handlers) ConversionRates(w http.ResponseWriter, r *http.Request) {
	rates, err := h.analytics.Conversion(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "pipeline not found")
		return
	}
	writeJSON(w, http.StatusOK, rates)
}
