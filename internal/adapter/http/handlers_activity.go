package http

import (
	"net/http"

	"github.com/soladex/dealdesk/internal/domain/activity"
)

// ListDealActivities handles GET /api/v1/deals/{id}/activities, newest first.
func (h *Handlers) ListDealActivities(w http.ResponseWriter, r *http.Request) {
	activities, err := h.activities.ListForDeal(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "deal not found")
		return
	}
	writeJSON(w, http.StatusOK, activities)
}

// CreateActivity handles POST /api/v1/deals/{id}/activities. Only
// user-creatable types are accepted; stage and status changes are system
// generated.
func (h *Handlers) CreateActivity(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	req, ok := readJSON[activity.CreateRequest](w, r)
	if !ok {
		return
	}
	req.DealID = urlParam(r, "id")
	if !requireField(w, req.Title, "title") {
		return
	}
	a, err := h.activities.Create(r.Context(), req, actor)
	if err != nil {
		writeDomainError(w, err, "deal not found")
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// GetActivity handles GET /api/v1/activities/{id}.
func (h *Handlers) GetActivity(w http.ResponseWriter, r *http.Request) {
	a, err := h.activities.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "activity not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// UpdateActivity handles PUT /api/v1/activities/{id}.
func (h *Handlers) UpdateActivity(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}
	req, ok := readJSON[activity.UpdateRequest](w, r)
	if !ok {
		return
	}
	a, err := h.activities.Update(r.Context(), urlParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err, "activity not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// CompleteActivity handles POST /api/v1/activities/{id}/complete. Completing
// an already completed activity is a no-op.
func (h *Handlers) CompleteActivity(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}
	a, err := h.activities.Complete(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "activity not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// DeleteActivity handles DELETE /api/v1/activities/{id}.
func (h *Handlers) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}
	if err := h.activities.Delete(r.Context(), urlParam(r, "id")); err != nil {
		writeDomainError(w, err, "activity not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ScheduledActivities handles GET /api/v1/activities/scheduled. Optional
// query parameters: created_by, days (default 7), limit (default 50).
func (h *Handlers) ScheduledActivities(w http.ResponseWriter, r *http.Request) {
	activities, err := h.activities.Scheduled(r.Context(),
		r.URL.Query().Get("created_by"),
		queryInt(r, "days", 0),
		queryInt(r, "limit", 0),
	)
	if err != nil {
		writeDomainError(w, err, "activities not found")
		return
	}
	writeJSON(w, http.StatusOK, activities)
}
