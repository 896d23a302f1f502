package models

import (
	"sort"
	"strings"
	"time"
)

// Kind discriminates the two node variants in the repository forest.
type Kind string

const (
	KindFolder   Kind = "folder"
	KindDocument Kind = "document"
)

// AccessLevel is the clearance tier attached to a node. The engine stores
// it verbatim; filtering by requester clearance is a caller concern.
type AccessLevel string

const (
	AccessPublic     AccessLevel = "public"
	AccessRestricted AccessLevel = "restricted"
	AccessAdmin      AccessLevel = "admin"

	// DefaultAccessLevel is applied when a create request omits the level.
	DefaultAccessLevel = AccessRestricted
)

// Valid reports whether the level is one of the enumerated tiers.
func (l AccessLevel) Valid() bool {
	switch l {
	case AccessPublic, AccessRestricted, AccessAdmin:
		return true
	}
	return false
}

// Node is a single entry in the repository forest: either a folder or a
// document, discriminated by Kind. ParentID nil means top-level.
type Node struct {
	ID          string      `json:"id"`
	Kind        Kind        `json:"kind"`
	Name        string      `json:"name"`
	ParentID    *string     `json:"parent_id"`
	AccessLevel AccessLevel `json:"access_level"`
	Tags        []string    `json:"tags,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`

	// Folder-only fields. Expanded is a UI visibility hint and has no
	// bearing on data correctness. ChildCount mirrors the live count of
	// immediate children.
	Expanded   bool `json:"expanded,omitempty"`
	ChildCount int  `json:"child_count,omitempty"`

	// Document-only fields. Metadata is opaque to the engine and may
	// carry a reference to the byte payload in external storage.
	FileType string         `json:"file_type,omitempty"`
	ByteSize int64          `json:"byte_size,omitempty"`
	Version  string         `json:"version,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// IsFolder reports whether the node is a folder.
func (n *Node) IsFolder() bool { return n.Kind == KindFolder }

// HasTag reports whether the node carries the tag, case-insensitively.
func (n *Node) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// AddTag adds a tag, preserving set semantics and sorted order.
// Returns false if the tag was already present.
func (n *Node) AddTag(tag string) bool {
	if n.HasTag(tag) {
		return false
	}
	n.Tags = append(n.Tags, tag)
	sort.Strings(n.Tags)
	return true
}

// RemoveTag removes a tag case-insensitively.
// Returns false if the tag was not present.
func (n *Node) RemoveTag(tag string) bool {
	for i, t := range n.Tags {
		if strings.EqualFold(t, tag) {
			n.Tags = append(n.Tags[:i], n.Tags[i+1:]...)
			return true
		}
	}
	return false
}

// Clone returns a deep copy so cached nodes cannot be mutated by callers.
func (n *Node) Clone() *Node {
	cp := *n
	if n.ParentID != nil {
		pid := *n.ParentID
		cp.ParentID = &pid
	}
	if n.Tags != nil {
		cp.Tags = append([]string(nil), n.Tags...)
	}
	if n.Metadata != nil {
		cp.Metadata = make(map[string]any, len(n.Metadata))
		for k, v := range n.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}
