package listings

import (
	"strings"

	"rentdesk/internal/domain/profiles"
)

// Sort names an allowed ordering. A leading "-" means descending.
type Sort string

const (
	SortNewest     Sort = "-created"
	SortOldest     Sort = "created"
	SortRentAsc    Sort = "rent"
	SortRentDesc   Sort = "-rent"
	SortSurfaceAsc Sort = "surface"
	SortSurfaceDsc Sort = "-surface"
	SortViewsAsc   Sort = "views"
	SortViewsDesc  Sort = "-views"

	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

func (s Sort) valid() bool {
	switch s {
	case SortNewest, SortOldest, SortRentAsc, SortRentDesc, SortSurfaceAsc, SortSurfaceDsc, SortViewsAsc, SortViewsDesc:
		return true
	}
	return false
}

// Descending reports whether the ordering is reversed.
func (s Sort) Descending() bool { return strings.HasPrefix(string(s), "-") }

// Field returns the ordering key without direction.
func (s Sort) Field() string { return strings.TrimPrefix(string(s), "-") }

type SearchParams struct {
	Available *bool
	City      string
	RoomCount int
	Owner     profiles.OwnerID
	Text      string
	Sort      Sort
	Limit     int
	Offset    int
}

// Normalized returns a sanitized copy of params.
func (p SearchParams) Normalized() SearchParams {
	n := p
	n.City = strings.TrimSpace(n.City)
	n.Text = strings.TrimSpace(n.Text)
	if !n.Sort.valid() {
		n.Sort = SortNewest
	}
	if n.Limit <= 0 {
		n.Limit = defaultSearchLimit
	}
	if n.Limit > maxSearchLimit {
		n.Limit = maxSearchLimit
	}
	if n.Offset < 0 {
		n.Offset = 0
	}
	if n.RoomCount < 0 {
		n.RoomCount = 0
	}
	return n
}

// Matches applies the filters to a single listing. Stores that cannot push filters down use it.
func (p SearchParams) Matches(l *Listing) bool {
	if p.Available != nil && l.Available != *p.Available {
		return false
	}
	if p.City != "" && !strings.EqualFold(l.Address.City, p.City) {
		return false
	}
	if p.RoomCount > 0 && l.RoomCount != p.RoomCount {
		return false
	}
	if p.Owner != "" && l.Owner != p.Owner {
		return false
	}
	if p.Text != "" {
		needle := strings.ToLower(p.Text)
		haystack := strings.ToLower(strings.Join([]string{l.Title, l.Description, l.Address.Street, l.Address.City}, " "))
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}

type SearchResult struct {
	Items  []*Listing
	Total  int
	Limit  int
	Offset int
}
