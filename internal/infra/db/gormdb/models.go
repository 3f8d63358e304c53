package gormdb

import (
	"strings"
	"time"

	"rentdesk/internal/domain/favorites"
	"rentdesk/internal/domain/listings"
	"rentdesk/internal/domain/profiles"
	"rentdesk/internal/domain/reservations"
	"rentdesk/internal/domain/shared/daterange"
	"rentdesk/internal/domain/shared/money"
	domainuser "rentdesk/internal/domain/user"
)

type userModel struct {
	ID           string `gorm:"primaryKey;size:36"`
	Username     string `gorm:"size:150;not null"`
	UsernameKey  string `gorm:"size:150;not null;uniqueIndex"`
	Email        string `gorm:"size:254;not null;uniqueIndex"`
	FirstName    string `gorm:"size:150"`
	LastName     string `gorm:"size:150"`
	Phone        string `gorm:"size:20"`
	Address      string
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"size:10;not null;index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userModel) TableName() string { return "users" }

func newUserModel(u *domainuser.User) userModel {
	return userModel{
		ID:           string(u.ID),
		Username:     u.Username,
		UsernameKey:  strings.ToLower(strings.TrimSpace(u.Username)),
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Phone:        u.Phone,
		Address:      u.Address,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (m userModel) toDomain() *domainuser.User {
	return &domainuser.User{
		ID:           domainuser.ID(m.ID),
		Username:     m.Username,
		Email:        m.Email,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		Phone:        m.Phone,
		Address:      m.Address,
		PasswordHash: m.PasswordHash,
		Role:         domainuser.Role(m.Role),
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

type ownerModel struct {
	ID                string `gorm:"primaryKey;size:36"`
	UserID            string `gorm:"size:36;not null;uniqueIndex"`
	Siret             string `gorm:"size:14"`
	CompanyName       string `gorm:"size:200"`
	CommissionBP      int64  `gorm:"not null"`
	TotalListings     int    `gorm:"not null;default:0"`
	TotalReservations int    `gorm:"not null;default:0"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (ownerModel) TableName() string { return "owner_profiles" }

func newOwnerModel(o *profiles.OwnerProfile) ownerModel {
	return ownerModel{
		ID:                string(o.ID),
		UserID:            string(o.UserID),
		Siret:             o.Siret,
		CompanyName:       o.CompanyName,
		CommissionBP:      o.CommissionBP,
		TotalListings:     o.TotalListings,
		TotalReservations: o.TotalReservations,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
}

func (m ownerModel) toDomain() *profiles.OwnerProfile {
	return &profiles.OwnerProfile{
		ID:                profiles.OwnerID(m.ID),
		UserID:            domainuser.ID(m.UserID),
		Siret:             m.Siret,
		CompanyName:       m.CompanyName,
		CommissionBP:      m.CommissionBP,
		TotalListings:     m.TotalListings,
		TotalReservations: m.TotalReservations,
		CreatedAt:         m.CreatedAt.UTC(),
		UpdatedAt:         m.UpdatedAt.UTC(),
	}
}

type tenantModel struct {
	ID                string `gorm:"primaryKey;size:36"`
	UserID            string `gorm:"size:36;index"`
	Name              string `gorm:"size:100"`
	Email             string `gorm:"size:254;not null;uniqueIndex"`
	Phone             string `gorm:"size:20"`
	MaxBudget         *int64
	SearchCity        string `gorm:"size:100"`
	Currency          string `gorm:"size:3;not null"`
	TotalReservations int    `gorm:"not null;default:0"`
	TotalSpend        int64  `gorm:"not null;default:0"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (tenantModel) TableName() string { return "tenant_profiles" }

func newTenantModel(t *profiles.TenantProfile) tenantModel {
	m := tenantModel{
		ID:                string(t.ID),
		UserID:            string(t.UserID),
		Name:              t.Name,
		Email:             t.Email,
		Phone:             t.Phone,
		SearchCity:        t.SearchCity,
		Currency:          t.TotalSpend.Currency,
		TotalReservations: t.TotalReservations,
		TotalSpend:        t.TotalSpend.Amount,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
	if t.MaxBudget != nil {
		amount := t.MaxBudget.Amount
		m.MaxBudget = &amount
	}
	return m
}

func (m tenantModel) toDomain() *profiles.TenantProfile {
	t := &profiles.TenantProfile{
		ID:                profiles.TenantID(m.ID),
		UserID:            domainuser.ID(m.UserID),
		Name:              m.Name,
		Email:             m.Email,
		Phone:             m.Phone,
		SearchCity:        m.SearchCity,
		TotalReservations: m.TotalReservations,
		TotalSpend:        money.Money{Amount: m.TotalSpend, Currency: m.Currency},
		CreatedAt:         m.CreatedAt.UTC(),
		UpdatedAt:         m.UpdatedAt.UTC(),
	}
	if m.MaxBudget != nil {
		t.MaxBudget = &money.Money{Amount: *m.MaxBudget, Currency: m.Currency}
	}
	return t
}

type listingModel struct {
	ID            string `gorm:"primaryKey;size:36"`
	OwnerID       string `gorm:"size:36;index"`
	Title         string `gorm:"size:200;not null"`
	Description   string
	Street        string `gorm:"size:255;not null"`
	City          string `gorm:"size:100;not null;index"`
	PostalCode    string `gorm:"size:10"`
	Currency      string `gorm:"size:3;not null"`
	MonthlyRent   int64  `gorm:"not null"`
	Deposit       int64  `gorm:"not null;default:0"`
	SurfaceArea   *int
	RoomCount     int    `gorm:"not null"`
	Available     bool   `gorm:"not null;index"`
	Slug          string `gorm:"size:220;uniqueIndex"`
	PrimaryPhoto  string
	ViewCount     int `gorm:"not null;default:0"`
	FavoriteCount int `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (listingModel) TableName() string { return "listings" }

// listingWritable lists the columns Save may overwrite; the counters have their own writers.
var listingWritable = []string{
	"owner_id", "title", "description", "street", "city", "postal_code", "currency",
	"monthly_rent", "deposit", "surface_area", "room_count", "available", "slug",
	"primary_photo", "updated_at",
}

func newListingModel(l *listings.Listing) listingModel {
	return listingModel{
		ID:            string(l.ID),
		OwnerID:       string(l.Owner),
		Title:         l.Title,
		Description:   l.Description,
		Street:        l.Address.Street,
		City:          l.Address.City,
		PostalCode:    l.Address.PostalCode,
		Currency:      l.MonthlyRent.Currency,
		MonthlyRent:   l.MonthlyRent.Amount,
		Deposit:       l.Deposit.Amount,
		SurfaceArea:   l.SurfaceArea,
		RoomCount:     l.RoomCount,
		Available:     l.Available,
		Slug:          l.Slug,
		PrimaryPhoto:  l.PrimaryPhoto,
		ViewCount:     l.ViewCount,
		FavoriteCount: l.FavoriteCount,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
}

func (m listingModel) toDomain() *listings.Listing {
	l := &listings.Listing{
		ID:    listings.ListingID(m.ID),
		Owner: profiles.OwnerID(m.OwnerID),
		Title: m.Title,
		Address: listings.Address{
			Street:     m.Street,
			City:       m.City,
			PostalCode: m.PostalCode,
		},
		Description:   m.Description,
		MonthlyRent:   money.Money{Amount: m.MonthlyRent, Currency: m.Currency},
		Deposit:       money.Money{Amount: m.Deposit, Currency: m.Currency},
		RoomCount:     m.RoomCount,
		Available:     m.Available,
		Slug:          m.Slug,
		PrimaryPhoto:  m.PrimaryPhoto,
		ViewCount:     m.ViewCount,
		FavoriteCount: m.FavoriteCount,
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
	if m.SurfaceArea != nil {
		area := *m.SurfaceArea
		l.SurfaceArea = &area
	}
	return l
}

type photoModel struct {
	ID         string `gorm:"primaryKey;size:36"`
	ListingID  string `gorm:"size:36;not null;index"`
	ObjectKey  string
	URL        string `gorm:"not null"`
	Caption    string `gorm:"size:200"`
	Position   int    `gorm:"not null;default:0"`
	UploadedAt time.Time
}

func (photoModel) TableName() string { return "listing_photos" }

func (m photoModel) toDomain() listings.Photo {
	return listings.Photo{
		ID:         listings.PhotoID(m.ID),
		ListingID:  listings.ListingID(m.ListingID),
		ObjectKey:  m.ObjectKey,
		URL:        m.URL,
		Caption:    m.Caption,
		Position:   m.Position,
		UploadedAt: m.UploadedAt.UTC(),
	}
}

type reservationModel struct {
	ID               string    `gorm:"primaryKey;size:36"`
	ListingID        string    `gorm:"size:36;not null;index:idx_reservations_listing_dates,priority:1"`
	ListingTitle     string    `gorm:"size:200"`
	TenantID         string    `gorm:"size:36;index"`
	TenantName       string    `gorm:"size:100;not null"`
	TenantEmail      string    `gorm:"size:254;not null;index"`
	TenantPhone      string    `gorm:"size:20"`
	StartDate        time.Time `gorm:"not null;index:idx_reservations_listing_dates,priority:2"`
	EndDate          time.Time `gorm:"not null;index:idx_reservations_listing_dates,priority:3"`
	Status           string    `gorm:"size:10;not null;index"`
	Currency         string    `gorm:"size:3;not null"`
	TotalAmount      int64     `gorm:"not null"`
	CommissionAmount int64     `gorm:"not null;default:0"`
	Notes            string
	ReservedAt       time.Time `gorm:"not null"`
	ConfirmedAt      *time.Time
	PaidAt           *time.Time
	UpdatedAt        time.Time
}

func (reservationModel) TableName() string { return "reservations" }

func newReservationModel(r *reservations.Reservation) reservationModel {
	return reservationModel{
		ID:               string(r.ID),
		ListingID:        string(r.ListingID),
		ListingTitle:     r.ListingTitle,
		TenantID:         string(r.TenantID),
		TenantName:       r.Tenant.Name,
		TenantEmail:      r.Tenant.Email,
		TenantPhone:      r.Tenant.Phone,
		StartDate:        r.Range.Start.UTC(),
		EndDate:          r.Range.End.UTC(),
		Status:           string(r.Status),
		Currency:         r.Total.Currency,
		TotalAmount:      r.Total.Amount,
		CommissionAmount: r.Commission.Amount,
		Notes:            r.Notes,
		ReservedAt:       r.ReservedAt.UTC(),
		ConfirmedAt:      utcPtr(r.ConfirmedAt),
		PaidAt:           utcPtr(r.PaidAt),
		UpdatedAt:        r.UpdatedAt.UTC(),
	}
}

func (m reservationModel) toDomain() *reservations.Reservation {
	return &reservations.Reservation{
		ID:           reservations.ID(m.ID),
		ListingID:    listings.ListingID(m.ListingID),
		ListingTitle: m.ListingTitle,
		TenantID:     profiles.TenantID(m.TenantID),
		Tenant: reservations.TenantSnapshot{
			Name:  m.TenantName,
			Email: m.TenantEmail,
			Phone: m.TenantPhone,
		},
		Range:       daterange.DateRange{Start: daterange.Day(m.StartDate.UTC()), End: daterange.Day(m.EndDate.UTC())},
		Status:      reservations.Status(m.Status),
		Total:       money.Money{Amount: m.TotalAmount, Currency: m.Currency},
		Commission:  money.Money{Amount: m.CommissionAmount, Currency: m.Currency},
		Notes:       m.Notes,
		ReservedAt:  m.ReservedAt.UTC(),
		ConfirmedAt: utcPtr(m.ConfirmedAt),
		PaidAt:      utcPtr(m.PaidAt),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

type favoriteModel struct {
	TenantID  string `gorm:"primaryKey;size:36"`
	ListingID string `gorm:"primaryKey;size:36;index"`
	AddedAt   time.Time
}

func (favoriteModel) TableName() string { return "favorites" }

func (m favoriteModel) toDomain() favorites.Favorite {
	return favorites.Favorite{
		Tenant:    profiles.TenantID(m.TenantID),
		ListingID: listings.ListingID(m.ListingID),
		AddedAt:   m.AddedAt.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// allModels is the migration order.
var allModels = []any{
	&userModel{},
	&ownerModel{},
	&tenantModel{},
	&listingModel{},
	&photoModel{},
	&reservationModel{},
	&favoriteModel{},
}
