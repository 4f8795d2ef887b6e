package model

import "strconv"

// Resource is a schedulable room or a folder grouping rooms in the remote resource tree.
type Resource struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	IsFolder bool   `json:"isFolder"`
	// ParentID is nil for entries listed directly under the tree root.
	ParentID *int `json:"parentId"`
}

// String renders the resource as "name (#id)".
func (r Resource) String() string {
	return r.Name + " (#" + strconv.Itoa(r.ID) + ")"
}

// ChildEntry is one record scraped from a tree-listing response, before a parent is assigned.
type ChildEntry struct {
	ID       int
	Name     string
	IsFolder bool
}

// WithParent turns the entry into a Resource attached to parent (nil for root level).
func (c ChildEntry) WithParent(parent *int) Resource {
	r := Resource{ID: c.ID, Name: c.Name, IsFolder: c.IsFolder}
	if parent != nil {
		p := *parent
		r.ParentID = &p
	}
	return r
}

// CatalogStats summarises a crawled catalog.
type CatalogStats struct {
	Resources int `json:"resources"`
	Folders   int `json:"folders"`
	Rooms     int `json:"rooms"`
	MaxDepth  int `json:"maxDepth"`
}

// StatsOf computes CatalogStats for a catalog in parent-before-children order.
func StatsOf(catalog []Resource) CatalogStats {
	depth := make(map[int]int, len(catalog))
	var s CatalogStats
	for _, r := range catalog {
		s.Resources++
		if r.IsFolder {
			s.Folders++
		} else {
			s.Rooms++
		}
		d := 1
		if r.ParentID != nil {
			d = depth[*r.ParentID] + 1
		}
		depth[r.ID] = d
		if d > s.MaxDepth {
			s.MaxDepth = d
		}
	}
	return s
}
