package http

import (
	"net/http"

	"github.com/soladex/dealdesk/internal/domain/deal"
)

// ListDeals handles GET /api/v1/deals?pipeline_id={id}. Without the query
// parameter all deals across pipelines are returned.
func (h *Handlers) ListDeals(w http.ResponseWriter, r *http.Request) {
	deals, err := h.deals.List(r.Context(), r.URL.Query().Get("pipeline_id"))
	if err != nil {
		writeDomainError(w, err, "deals not found")
		return
	}
	writeJSON(w, http.StatusOK, deals)
}

// GetDeal handles GET /api/v1/deals/{id}. Client and assignee references are
// resolved against the directory on a best-effort basis.
func (h *Handlers) GetDeal(w http.ResponseWriter, r *http.Request) {
	d, err := h.deals.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "deal not found")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// CreateDeal handles POST /api/v1/deals.
func (h *Handlers) CreateDeal(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	req, ok := readJSON[deal.CreateRequest](w, r)
	if !ok {
		return
	}
	if !requireField(w, req.PipelineID, "pipeline_id") ||
		!requireField(w, req.StageID, "stage_id") ||
		!requireField(w, req.Title, "title") {
		return
	}
	d, err := h.deals.Create(r.Context(), req, actor)
	if err != nil {
		writeDomainError(w, err, "stage not found")
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// UpdateDeal handles PUT /api/v1/deals/{id}. Stage, position and status are
// immutable here; clients use the move and status endpoints for those.
func (h *Handlers) UpdateDeal(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}
	req, ok := readJSON[deal.UpdateRequest](w, r)
	if !ok {
		return
	}
	d, err := h.deals.Update(r.Context(), urlParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err, "deal not found")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// MoveDeal handles PUT /api/v1/deals/{id}/move.
func (h *Handlers) MoveDeal(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	req, ok := readJSON[deal.MoveRequest](w, r)
	if !ok {
		return
	}
	if !requireField(w, req.StageID, "stage_id") {
		return
	}
	d, err := h.deals.Move(r.Context(), urlParam(r, "id"), req, actor)
	if err != nil {
		writeDomainError(w, err, "deal or stage not found")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// UpdateDealStatus handles PUT /api/v1/deals/{id}/status.
func (h *Handlers) UpdateDealStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	req, ok := readJSON[deal.StatusRequest](w, r)
	if !ok {
		return
	}
	d, err := h.deals.UpdateStatus(r.Context(), urlParam(r, "id"), req, actor)
	if err != nil {
		writeDomainError(w, err, "deal not found")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// DeleteDeal handles DELETE /api/v1/deals/{id}.
func (h *Handlers) DeleteDeal(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if err := h.deals.Delete(r.Context(), urlParam(r, "id"), actor); err != nil {
		writeDomainError(w, err, "deal not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ConvertDeal handles POST /api/v1/deals/{id}/convert. Only won deals
// convert, and only once.
func (h *Handlers) ConvertDeal(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	res, err := h.converter.Convert(r.Context(), urlParam(r, "id"), actor)
	if err != nil {
		writeDomainError(w, err, "deal not found")
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// Board handles GET /api/v1/pipelines/{id}/board. Optional query filters:
// status, priority, assigned_to, search.
func (h *Handlers) Board(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := deal.Filter{
		Status:     deal.Status(q.Get("status")),
		Priority:   deal.Priority(q.Get("priority")),
		AssignedTo: q.Get("assigned_to"),
		Search:     q.Get("search"),
	}
	columns, err := h.deals.Board(r.Context(), urlParam(r, "id"), f)
	if err != nil {
		writeDomainError(w, err, "pipeline not found")
		return
	}
	writeJSON(w, http.StatusOK, columns)
}

// ClientDeals handles GET /api/v1/clients/{id}/deals.
func (h *Handlers) ClientDeals(w http.ResponseWriter, r *http.Request) {
	deals, err := h.deals.ListForClient(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "client not found")
		return
	}
	writeJSON(w, http.StatusOK, deals)
}
