package handler

import (
	"net/http"
	"strings"

	"docshelf/internal/domain/models"
)

type contentsResponse struct {
	Contents []*models.Node `json:"contents"`
}

// listFilterFromQuery builds a listing filter from ?name= and ?tags=
// (comma-separated). Returns nil when no filter was requested.
func listFilterFromQuery(r *http.Request) *models.ListFilter {
	q := r.URL.Query()
	filter := &models.ListFilter{
		NameContains: strings.TrimSpace(q.Get("name")),
		Tags:         splitTags(q.Get("tags")),
	}
	if filter.IsZero() {
		return nil
	}
	return filter
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
