package handler

import (
	"log/slog"
	"net/http"

	"docshelf/internal/engine"
	"docshelf/internal/httputil"
)

// FolderHandler handles folder HTTP requests.
type FolderHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

// NewFolderHandler creates a new folder handler.
func NewFolderHandler(eng *engine.Engine, logger *slog.Logger) *FolderHandler {
	return &FolderHandler{engine: eng, logger: logger}
}

// CreateFolder creates a new folder.
// POST /api/folders
func (h *FolderHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req engine.CreateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	folder, err := h.engine.CreateFolder(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, folder)
}

// ListContents lists a folder's immediate children, optionally filtered
// by name substring and tags.
// GET /api/folders/{id}/contents?name=...&tags=a,b
func (h *FolderHandler) ListContents(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "folder ID is required")
		return
	}

	nodes, err := h.engine.ListContents(r.Context(), &id, listFilterFromQuery(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, contentsResponse{Contents: nodes})
}

// ListRoot lists the top-level forest.
// GET /api/contents?name=...&tags=a,b
func (h *FolderHandler) ListRoot(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.engine.ListContents(r.Context(), nil, listFilterFromQuery(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, contentsResponse{Contents: nodes})
}

// ToggleExpand flips a folder's expanded flag.
// POST /api/folders/{id}/toggle
func (h *FolderHandler) ToggleExpand(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "folder ID is required")
		return
	}

	folder, err := h.engine.ToggleExpand(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, folder)
}
