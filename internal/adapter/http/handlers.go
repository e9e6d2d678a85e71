package http

import (
	"net/http"

	"github.com/soladex/dealdesk/internal/service"
)

// Handlers bundles all HTTP handlers with their service dependencies.
type Handlers struct {
	pipelines  *service.PipelineService
	deals      *service.DealService
	activities *service.ActivityService
	analytics  *service.AnalyticsService
	converter  *service.ConvertService
}

// NewHandlers creates the handler set backing the REST API.
func NewHandlers(
	pipelines *service.PipelineService,
	deals *service.DealService,
	activities *service.ActivityService,
	analytics *service.AnalyticsService,
	converter *service.ConvertService,
) *Handlers {
	return &Handlers{
		pipelines:  pipelines,
		deals:      deals,
		activities: activities,
		analytics:  analytics,
		converter:  converter,
	}
}

// Health reports process liveness.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
