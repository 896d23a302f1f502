package models

import "fmt"

// Default search configuration values
const (
	DefaultSearchLimit = 50
	MaxSearchLimit     = 500
)

// SearchOptions configures a forest-wide search. A node matches when its
// name contains Query (case-insensitive) or it carries any of Tags.
// Search is never folder-scoped; use ListFilter for that.
type SearchOptions struct {
	// Query is the case-insensitive name substring.
	Query string

	// Tags matches any-of, case-insensitively.
	Tags []string

	// Kind optionally restricts results to folders or documents.
	// Empty matches both.
	Kind Kind

	// Limit caps the number of results (default: 50).
	Limit int
}

// ApplyDefaults fills in default values for unset fields.
func (o *SearchOptions) ApplyDefaults() {
	if o.Limit <= 0 {
		o.Limit = DefaultSearchLimit
	}
}

// Validate checks that the options describe a runnable search. Empty
// Query and Tags are allowed; such a search matches nothing.
func (o *SearchOptions) Validate() error {
	if o.Limit > MaxSearchLimit {
		return fmt.Errorf("limit cannot exceed %d (requested: %d)", MaxSearchLimit, o.Limit)
	}
	if o.Kind != "" && o.Kind != KindFolder && o.Kind != KindDocument {
		return fmt.Errorf("unknown node kind: %q", o.Kind)
	}
	return nil
}

// SearchResults contains matched nodes plus truncation metadata.
type SearchResults struct {
	// Results is ordered by UpdatedAt descending.
	Results []*Node `json:"results"`

	// TotalCount is the number of matches before the limit was applied.
	TotalCount int `json:"total_count"`

	// Truncated indicates the limit cut off further matches.
	Truncated bool `json:"truncated"`
}
