package http

import (
	"net/http"

	"github.com/soladex/dealdesk/internal/domain/pipeline"
)

// ListPipelines handles GET /api/v1/pipelines.
func (h *Handlers) ListPipelines(w http.ResponseWriter, r *http.Request) {
	pipelines, err := h.pipelines.List(r.Context())
	if err != nil {
		writeDomainError(w, err, "pipelines not found")
		return
	}
	writeJSON(w, http.StatusOK, pipelines)
}

// GetPipeline handles GET /api/v1/pipelines/{id}. The response embeds the
// pipeline's stages in position order.
func (h *Handlers) GetPipeline(w http.ResponseWriter, r *http.Request) {
	p, err := h.pipelines.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "pipeline not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CreatePipeline handles POST /api/v1/pipelines.
func (h *Handlers) CreatePipeline(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}
	req, ok := readJSON[pipeline.CreateRequest](w, r)
	if !ok {
		return
	}
	p, err := h.pipelines.Create(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "pipeline not found")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// UpdatePipeline handles PUT /api/v1/pipelines/{id}.
func (h *Handlers) UpdatePipeline(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}
	req, ok := readJSON[pipeline.UpdateRequest](w, r)
	if !ok {
		return
	}
	p, err := h.pipelines.Update(r.Context(), urlParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err, "pipeline not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeletePipeline handles DELETE /api/v1/pipelines/{id}. Deals and stages go
// with it.
func (h *Handlers) DeletePipeline(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}
	if err := h.pipelines.Delete(r.Context(), urlParam(r, "id")); err != nil {
		writeDomainError(w, err, "pipeline not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type reorderRequest struct {
	IDs []string `json:"ids"`
}

// ReorderPipelines handles PUT /api/v1/pipelines/reorder.
func (h *Handlers) ReorderPipelines(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}
	req, ok := readJSON[reorderRequest](w, r)
	if !ok {
		return
	}
	if err := h.pipelines.Reorder(r.Context(), req.IDs); err != nil {
		writeDomainError(w, err, "pipeline not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateStage handles POST /api/v1/pipelines/{id}/stages. The stage is
// appended after the pipeline's existing stages.
func (h *Handlers) CreateStage(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}
	req, ok := readJSON[pipeline.CreateStageRequest](w, r)
	if !ok {
		return
	}
	req.PipelineID = urlParam(r, "id")
	st, err := h.pipelines.CreateStage(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "pipeline not found")
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

// GetStage handles GET /api/v1/stages/{id}.
func (h *Handlers) GetStage(w http.ResponseWriter, r *http.Request) {
	st, err := h.pipelines.GetStage(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "stage not found")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// UpdateStage handles PUT /api/v1/stages/{id}.
func (h *Handlers) UpdateStage(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}
	req, ok := readJSON[pipeline.UpdateStageRequest](w, r)
	if !ok {
		return
	}
	st, err := h.pipelines.UpdateStage(r.Context(), urlParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err, "stage not found")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// DeleteStage handles DELETE /api/v1/stages/{id}?move_deals_to={stageID}.
// Deals in the stage are appended to the redirect stage, keeping their
// relative order.
func (h *Handlers) DeleteStage(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}
	moveTo := r.URL.Query().Get("move_deals_to")
	if !requireField(w, moveTo, "move_deals_to") {
		return
	}
	if err := h.pipelines.DeleteStage(r.Context(), urlParam(r, "id"), moveTo); err != nil {
		writeDomainError(w, err, "stage not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReorderStages handles PUT /api/v1/pipelines/{id}/stages/reorder.
func (h *Handlers) ReorderStages(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}
	req, ok := readJSON[reorderRequest](w, r)
	if !ok {
		return
	}
	if err := h.pipelines.ReorderStages(r.Context(), urlParam(r, "id"), req.IDs); err != nil {
		writeDomainError(w, err, "pipeline not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
