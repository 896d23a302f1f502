package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface keeps the transport layer free of
// per-error switch statements.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors for the repository engine - use with errors.Is().
var (
	// ErrNotFound indicates the referenced node does not exist.
	ErrNotFound = errors.New("node not found")

	// ErrDuplicateID indicates an id collision on insert.
	ErrDuplicateID = errors.New("duplicate node id")

	// ErrInvalidParent indicates the parent id is unknown or refers
	// to a document rather than a folder.
	ErrInvalidParent = errors.New("invalid parent folder")

	// ErrInvalidAccessLevel indicates an access level outside the enum.
	ErrInvalidAccessLevel = errors.New("invalid access level")

	// ErrInvalidMetadata indicates a document payload that fails validation.
	ErrInvalidMetadata = errors.New("invalid document metadata")

	// ErrCycle indicates a move that would make a node its own ancestor.
	ErrCycle = errors.New("cycle detected")

	// ErrStorageUnavailable indicates the persistence medium failed.
	// It is always propagated unchanged; the engine never retries.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrValidation indicates invalid caller input.
	ErrValidation = errors.New("validation failed")
)

// ConflictError carries the id of the node that caused a structural
// conflict so callers can surface the existing resource.
type ConflictError struct {
	Message  string
	NodeID   string
	NodeKind string
}

func (e *ConflictError) Error() string { return e.Message }

// StatusCode implements the HTTPError interface.
func (e *ConflictError) StatusCode() int { return http.StatusConflict }

// Is allows errors.Is() to match against ErrDuplicateID.
func (e *ConflictError) Is(target error) bool {
	return target == ErrDuplicateID
}
