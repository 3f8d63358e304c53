package reservations

import (
	"strings"
	"time"

	"rentdesk/internal/domain/listings"
	"rentdesk/internal/domain/profiles"
	"rentdesk/internal/domain/shared/money"
)

type Sort string

const (
	SortReservedDesc Sort = "-reserved"
	SortReservedAsc  Sort = "reserved"
	SortStartAsc     Sort = "start"
	SortStartDesc    Sort = "-start"
	SortEndAsc       Sort = "end"
	SortEndDesc      Sort = "-end"
	SortTotalAsc     Sort = "total"
	SortTotalDesc    Sort = "-total"

	defaultPageSize = 20
	maxPageSize     = 100
)

func (s Sort) Descending() bool { return strings.HasPrefix(string(s), "-") }
func (s Sort) Field() string    { return strings.TrimPrefix(string(s), "-") }

func (s Sort) valid() bool {
	switch s {
	case SortReservedDesc, SortReservedAsc, SortStartAsc, SortStartDesc, SortEndAsc, SortEndDesc, SortTotalAsc, SortTotalDesc:
		return true
	}
	return false
}

// Filter narrows a reservation query. Zero fields do not filter. Scope fields (Owner,
// TenantID, TenantEmail, Party) are combined with AND.
type Filter struct {
	ListingID   listings.ListingID
	Owner       profiles.OwnerID
	TenantID    profiles.TenantID
	TenantEmail string
	Statuses    []Status
	Search      string

	// Party keeps the stays of one tenant, linked by profile or by snapshot email.
	Party *TenantParty

	// ActiveOn keeps stays with start <= day <= end.
	ActiveOn time.Time
	// StartsAfter keeps stays starting strictly after the day.
	StartsAfter time.Time
	// EndsBefore keeps stays ending strictly before the day.
	EndsBefore time.Time
	// EndsFrom keeps stays ending on or after the day.
	EndsFrom time.Time
	// PaidFrom and PaidUntil bound the payment timestamp, [from, until).
	PaidFrom  time.Time
	PaidUntil time.Time

	Sort   Sort
	Limit  int
	Offset int
}

func (f Filter) Normalized() Filter {
	n := f
	n.TenantEmail = strings.ToLower(strings.TrimSpace(n.TenantEmail))
	n.Search = strings.TrimSpace(n.Search)
	if n.Party != nil {
		party := TenantParty{TenantID: n.Party.TenantID, Email: strings.ToLower(strings.TrimSpace(n.Party.Email))}
		n.Party = &party
	}
	if !n.Sort.valid() {
		n.Sort = SortReservedDesc
	}
	if n.Limit <= 0 {
		n.Limit = defaultPageSize
	}
	if n.Limit > maxPageSize {
		n.Limit = maxPageSize
	}
	if n.Offset < 0 {
		n.Offset = 0
	}
	return n
}

// Matches evaluates every filter except Owner, which needs the listing.
func (f Filter) Matches(r *Reservation) bool {
	if f.ListingID != "" && r.ListingID != f.ListingID {
		return false
	}
	if f.TenantID != "" && r.TenantID != f.TenantID {
		return false
	}
	if f.TenantEmail != "" && r.Tenant.Email != f.TenantEmail {
		return false
	}
	if f.Party != nil && !f.Party.matches(r) {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, r.Status) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(r.Tenant.Name), needle) && !strings.Contains(r.Tenant.Email, needle) {
			return false
		}
	}
	if !f.ActiveOn.IsZero() && !r.Range.ContainsDay(f.ActiveOn) {
		return false
	}
	if !f.StartsAfter.IsZero() && !r.Range.StartsAfter(f.StartsAfter) {
		return false
	}
	if !f.EndsBefore.IsZero() && !r.Range.EndsBefore(f.EndsBefore) {
		return false
	}
	if !f.EndsFrom.IsZero() && r.Range.EndsBefore(f.EndsFrom) {
		return false
	}
	if !f.PaidFrom.IsZero() || !f.PaidUntil.IsZero() {
		if r.PaidAt == nil {
			return false
		}
		if !f.PaidFrom.IsZero() && r.PaidAt.Before(f.PaidFrom) {
			return false
		}
		if !f.PaidUntil.IsZero() && !r.PaidAt.Before(f.PaidUntil) {
			return false
		}
	}
	return true
}

// Less orders a before b according to s.
func (s Sort) Less(a, b *Reservation) bool {
	var less, equal bool
	switch s.Field() {
	case "start":
		less, equal = a.Range.Start.Before(b.Range.Start), a.Range.Start.Equal(b.Range.Start)
	case "end":
		less, equal = a.Range.End.Before(b.Range.End), a.Range.End.Equal(b.Range.End)
	case "total":
		less, equal = a.Total.Amount < b.Total.Amount, a.Total.Amount == b.Total.Amount
	default:
		less, equal = a.ReservedAt.Before(b.ReservedAt), a.ReservedAt.Equal(b.ReservedAt)
	}
	if equal {
		return a.ID < b.ID
	}
	if s.Descending() {
		return !less
	}
	return less
}

type TenantParty struct {
	TenantID profiles.TenantID
	Email    string
}

func (p TenantParty) matches(r *Reservation) bool {
	if p.TenantID != "" && r.TenantID == p.TenantID {
		return true
	}
	return p.Email != "" && r.Tenant.Email == p.Email
}

type Page struct {
	Items  []*Reservation
	Total  int
	Limit  int
	Offset int
}

// Summary is the count and summed total of the matching reservations.
type Summary struct {
	Count int
	Total money.Money
}
