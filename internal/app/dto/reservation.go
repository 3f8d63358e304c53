package dto

import (
	"time"

	domain "rentdesk/internal/domain/reservations"
)

const DateLayout = "2006-01-02"

type ReservationView struct {
	ID               string     `json:"id"`
	ListingID        string     `json:"listing_id"`
	ListingTitle     string     `json:"listing_title"`
	TenantID         string     `json:"tenant_id,omitempty"`
	TenantName       string     `json:"tenant_name"`
	TenantEmail      string     `json:"tenant_email"`
	TenantPhone      string     `json:"tenant_phone,omitempty"`
	StartDate        string     `json:"start_date"`
	EndDate          string     `json:"end_date"`
	Nights           int        `json:"duration_days"`
	Status           string     `json:"status"`
	Currency         string     `json:"currency"`
	TotalAmount      int64      `json:"total_amount"`
	CommissionAmount int64      `json:"commission_amount"`
	Notes            string     `json:"notes,omitempty"`
	ReservedAt       time.Time  `json:"reserved_at"`
	ConfirmedAt      *time.Time `json:"confirmed_at,omitempty"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
}

type ReservationList struct {
	Items  []ReservationView `json:"items"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

func MapReservation(r *domain.Reservation) ReservationView {
	return ReservationView{
		ID:               string(r.ID),
		ListingID:        string(r.ListingID),
		ListingTitle:     r.ListingTitle,
		TenantID:         string(r.TenantID),
		TenantName:       r.Tenant.Name,
		TenantEmail:      r.Tenant.Email,
		TenantPhone:      r.Tenant.Phone,
		StartDate:        r.Range.Start.Format(DateLayout),
		EndDate:          r.Range.End.Format(DateLayout),
		Nights:           r.Range.Days(),
		Status:           string(r.Status),
		Currency:         r.Total.Currency,
		TotalAmount:      r.Total.Amount,
		CommissionAmount: r.Commission.Amount,
		Notes:            r.Notes,
		ReservedAt:       r.ReservedAt,
		ConfirmedAt:      r.ConfirmedAt,
		PaidAt:           r.PaidAt,
	}
}

func MapReservationPage(page domain.Page) ReservationList {
	out := ReservationList{Items: make([]ReservationView, 0, len(page.Items)), Total: page.Total, Limit: page.Limit, Offset: page.Offset}
	for _, r := range page.Items {
		out.Items = append(out.Items, MapReservation(r))
	}
	return out
}

type AvailabilityView struct {
	ListingID string `json:"listing_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Available bool   `json:"available"`
	Message   string `json:"message"`
}
