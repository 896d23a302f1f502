package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"docshelf/internal/domain/models"
	"docshelf/internal/engine"
	"docshelf/internal/httputil"
)

// TreeHandler serves the nested tree, forest-wide search and
// breadcrumb navigation.
type TreeHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

// NewTreeHandler creates a new tree handler.
func NewTreeHandler(eng *engine.Engine, logger *slog.Logger) *TreeHandler {
	return &TreeHandler{engine: eng, logger: logger}
}

// GetTree returns the full nested folder/document tree.
// GET /api/tree
func (h *TreeHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.engine.Tree(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, tree)
}

// Search scans the whole forest by name substring and tags.
// GET /api/search?q=...&tags=a,b&kind=document&limit=50
func (h *TreeHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := &models.SearchOptions{
		Query: q.Get("q"),
		Tags:  splitTags(q.Get("tags")),
		Kind:  models.Kind(q.Get("kind")),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			httputil.RespondError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		opts.Limit = limit
	}

	results, err := h.engine.Search(r.Context(), opts)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, results)
}

// navigateRequest carries the caller's current breadcrumb path and the
// clicked target.
type navigateRequest struct {
	CurrentPath []string `json:"current_path"`
	TargetID    string   `json:"target_id"`
}

// Navigate computes the next breadcrumb path after a jump.
// POST /api/navigate
func (h *TreeHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.TargetID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "target_id is required")
		return
	}

	path, err := h.engine.Navigate(req.CurrentPath, req.TargetID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]any{"path": path})
}
