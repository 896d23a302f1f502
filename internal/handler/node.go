package handler

import (
	"log/slog"
	"net/http"

	"docshelf/internal/domain/models"
	"docshelf/internal/engine"
	"docshelf/internal/httputil"
)

// NodeHandler handles requests that apply to folders and documents
// alike: fetch, rename, access level, move, tags, delete, breadcrumb.
type NodeHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

// NewNodeHandler creates a new node handler.
func NewNodeHandler(eng *engine.Engine, logger *slog.Logger) *NodeHandler {
	return &NodeHandler{engine: eng, logger: logger}
}

// GetNode fetches a single node.
// GET /api/nodes/{id}
func (h *NodeHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "node ID is required")
		return
	}

	node, err := h.engine.Get(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, node)
}

// updateNodeRequest carries the PATCH-able node fields. Absent fields
// are left unchanged.
type updateNodeRequest struct {
	Name        *string `json:"name"`
	AccessLevel *string `json:"access_level"`
}

// UpdateNode renames a node and/or changes its access level.
// PATCH /api/nodes/{id}
func (h *NodeHandler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "node ID is required")
		return
	}

	var req updateNodeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == nil && req.AccessLevel == nil {
		httputil.RespondError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	var level *models.AccessLevel
	if req.AccessLevel != nil {
		l := models.AccessLevel(*req.AccessLevel)
		level = &l
	}

	node, err := h.engine.UpdateNode(r.Context(), id, req.Name, level)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, node)
}

// moveNodeRequest uses OptionalString so that an explicit null
// parent_id (move to top level) is distinguishable from an absent one.
type moveNodeRequest struct {
	ParentID httputil.OptionalString `json:"parent_id"`
}

// MoveNode reparents a node.
// POST /api/nodes/{id}/move
func (h *NodeHandler) MoveNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "node ID is required")
		return
	}

	var req moveNodeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !req.ParentID.Present {
		httputil.RespondError(w, http.StatusBadRequest, "parent_id is required (null for top level)")
		return
	}

	node, err := h.engine.Move(r.Context(), id, req.ParentID.Value)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, node)
}

// DeleteNode deletes a node; deleting a folder removes its subtree.
// DELETE /api/nodes/{id}
func (h *NodeHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "node ID is required")
		return
	}

	if err := h.engine.Delete(r.Context(), id); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type tagRequest struct {
	Tag string `json:"tag"`
}

// AddTag attaches a tag to a node.
// POST /api/nodes/{id}/tags
func (h *NodeHandler) AddTag(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "node ID is required")
		return
	}

	var req tagRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	node, err := h.engine.AddTag(r.Context(), id, req.Tag)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, node)
}

// RemoveTag detaches a tag from a node.
// DELETE /api/nodes/{id}/tags/{tag}
func (h *NodeHandler) RemoveTag(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	tag := r.PathValue("tag")
	if id == "" || tag == "" {
		httputil.RespondError(w, http.StatusBadRequest, "node ID and tag are required")
		return
	}

	node, err := h.engine.RemoveTag(r.Context(), id, tag)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, node)
}

// Breadcrumb returns the root-first ancestor chain for a node,
// including the node itself.
// GET /api/nodes/{id}/breadcrumb
func (h *NodeHandler) Breadcrumb(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "node ID is required")
		return
	}

	chain, err := h.engine.Breadcrumb(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]any{"breadcrumb": chain})
}
