package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Pipelines
		r.Get("/pipelines", h.ListPipelines)
		r.Post("/pipelines", h.CreatePipeline)
		r.Put("/pipelines/reorder", h.ReorderPipelines)
		r.Get("/pipelines/{id}", h.GetPipeline)
		r.Put("/pipelines/{id}", h.UpdatePipeline)
		r.Delete("/pipelines/{id}", h.DeletePipeline)

		// Board (nested under pipelines)
		r.Get("/pipelines/{id}/board", h.Board)
		r.Get("/pipelines/{id}/conversion", h.ConversionRates)

		// Stages
		r.Post("/pipelines/{id}/stages", h.CreateStage)
		r.Put("/pipelines/{id}/stages/reorder", h.ReorderStages)
		r.Get("/stages/{id}", h.GetStage)
		r.Put("/stages/{id}", h.UpdateStage)
		r.Delete("/stages/{id}", h.DeleteStage)

		// Deals
		r.Get("/deals", h.ListDeals)
		r.Post("/deals", h.CreateDeal)
		r.Get("/deals/{id}", h.GetDeal)
		r.Put("/deals/{id}", h.UpdateDeal)
		r.Delete("/deals/{id}", h.DeleteDeal)
		r.Put("/deals/{id}/move", h.MoveDeal)
		r.Put("/deals/{id}/status", h.UpdateDealStatus)
		r.Post("/deals/{id}/convert", h.ConvertDeal)

		// Activities (nested under deals)
		r.Get("/deals/{id}/activities", h.ListDealActivities)
		r.Post("/deals/{id}/activities", h.CreateActivity)

		// Activities (direct access)
		r.Get("/activities/scheduled", h.ScheduledActivities)
		r.Get("/activities/{id}", h.GetActivity)
		r.Put("/activities/{id}", h.UpdateActivity)
		r.Delete("/activities/{id}", h.DeleteActivity)
		r.Post("/activities/{id}/complete", h.CompleteActivity)

		// Analytics
		r.Get("/analytics/statistics", h.Statistics)
		r.Get("/analytics/forecast", h.Forecast)

		// Clients (external directory references)
		r.Get("/clients/{id}/deals", h.ClientDeals)
	})
}
