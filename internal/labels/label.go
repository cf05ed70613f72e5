// Package labels manages the label catalog: named, colored tags arranged in
// a one-level hierarchy. Labels are applied to dataset cells and rows by the
// assignments ledger.
package labels

import (
	"slices"
	"time"
)

// Label is a catalog entry. ParentID is a weak reference and may point at a
// label that no longer exists.
type Label struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	ParentID  *string   `json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateCommand describes a new label. An empty Color takes the catalog default.
type CreateCommand struct {
	Name     string  `json:"name"`
	Color    string  `json:"color"`
	ParentID *string `json:"parent_id,omitempty"`
}

// UpdateCommand carries a partial update. Nil fields are left unchanged.
// ClearParent removes the parent and takes precedence over ParentID.
type UpdateCommand struct {
	Name        *string `json:"name,omitempty"`
	Color       *string `json:"color,omitempty"`
	ParentID    *string `json:"parent_id,omitempty"`
	ClearParent bool    `json:"clear_parent,omitempty"`
}

// Hierarchy groups the catalog into top-level labels and their children.
// Labels whose parent does not exist are treated as roots.
type Hierarchy struct {
	Roots    []Label            `json:"roots"`
	Children map[string][]Label `json:"children"`
}

// Clone returns a copy that shares no slices or maps with h.
func (h Hierarchy) Clone() Hierarchy {
	out := Hierarchy{
		Roots:    slices.Clone(h.Roots),
		Children: make(map[string][]Label, len(h.Children)),
	}
	for parent, children := range h.Children {
		out.Children[parent] = slices.Clone(children)
	}
	return out
}

// BuildHierarchy arranges labels, preserving their input order within each group.
func BuildHierarchy(all []Label) Hierarchy {
	known := make(map[string]struct{}, len(all))
	for _, l := range all {
		known[l.ID] = struct{}{}
	}

	h := Hierarchy{
		Roots:    make([]Label, 0),
		Children: make(map[string][]Label),
	}

	for _, l := range all {
		if l.ParentID == nil || *l.ParentID == l.ID {
			h.Roots = append(h.Roots, l)
			continue
		}
		if _, ok := known[*l.ParentID]; !ok {
			h.Roots = append(h.Roots, l)
			continue
		}
		h.Children[*l.ParentID] = append(h.Children[*l.ParentID], l)
	}

	return h
}
