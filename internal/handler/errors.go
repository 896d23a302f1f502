package handler

import (
	"errors"
	"net/http"

	"docshelf/internal/domain"
	"docshelf/internal/httputil"
)

// handleError converts domain errors to HTTP responses.
func handleError(w http.ResponseWriter, err error) {
	var httpErr domain.HTTPError
	if errors.As(err, &httpErr) {
		httputil.RespondError(w, httpErr.StatusCode(), httpErr.Error())
		return
	}

	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidParent),
		errors.Is(err, domain.ErrInvalidAccessLevel),
		errors.Is(err, domain.ErrInvalidMetadata):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrDuplicateID), errors.Is(err, domain.ErrCycle):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrStorageUnavailable):
		httputil.RespondError(w, http.StatusServiceUnavailable, "storage unavailable")
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}
