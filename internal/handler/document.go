package handler

import (
	"log/slog"
	"net/http"

	"docshelf/internal/engine"
	"docshelf/internal/httputil"
)

// DocumentHandler handles document HTTP requests.
type DocumentHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(eng *engine.Engine, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{engine: eng, logger: logger}
}

// CreateDocument creates a new document.
// POST /api/documents
func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req engine.CreateDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := h.engine.CreateDocument(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, doc)
}

// UpdateDocument replaces a document's file description and metadata,
// bumping its version.
// PUT /api/documents/{id}
func (h *DocumentHandler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "document ID is required")
		return
	}

	var req engine.UpdateDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := h.engine.UpdateDocument(r.Context(), id, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}
