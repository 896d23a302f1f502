package models

import "strings"

// ListFilter narrows a folder content listing. Zero value matches all.
type ListFilter struct {
	// NameContains matches node names by case-insensitive substring.
	NameContains string

	// Tags matches nodes carrying any of the given tags (any-of,
	// case-insensitive).
	Tags []string
}

// IsZero reports whether the filter matches everything.
func (f *ListFilter) IsZero() bool {
	return f == nil || (f.NameContains == "" && len(f.Tags) == 0)
}

// Matches reports whether the node passes the filter.
func (f *ListFilter) Matches(n *Node) bool {
	if f.IsZero() {
		return true
	}
	if f.NameContains != "" &&
		!strings.Contains(strings.ToLower(n.Name), strings.ToLower(f.NameContains)) {
		return false
	}
	if len(f.Tags) > 0 {
		any := false
		for _, t := range f.Tags {
			if n.HasTag(t) {
				any = true
				break
			}
		}
		if !any {
			return false
		}
	}
	return true
}
