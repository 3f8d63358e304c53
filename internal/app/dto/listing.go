package dto

import (
	"time"

	domainlistings "rentdesk/internal/domain/listings"
	"rentdesk/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Display  string `json:"display"`
}

func MapMoney(m money.Money) MoneyDTO {
	return MoneyDTO{Amount: m.Amount, Currency: m.Currency, Display: m.Decimal()}
}

type AddressDTO struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
}

type PhotoDTO struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Caption  string `json:"caption,omitempty"`
	Position int    `json:"position"`
}

type ListingSummary struct {
	ID            string    `json:"id"`
	Slug          string    `json:"slug"`
	Title         string    `json:"title"`
	City          string    `json:"city"`
	MonthlyRent   MoneyDTO  `json:"monthly_rent"`
	RoomCount     int       `json:"room_count"`
	SurfaceArea   *int      `json:"surface_area,omitempty"`
	Available     bool      `json:"available"`
	PrimaryPhoto  string    `json:"primary_photo,omitempty"`
	ViewCount     int       `json:"view_count"`
	FavoriteCount int       `json:"favorite_count"`
	CreatedAt     time.Time `json:"created_at"`
}

type ListingDetail struct {
	ListingSummary
	OwnerID     string     `json:"owner_id,omitempty"`
	Description string     `json:"description"`
	Address     AddressDTO `json:"address"`
	Deposit     MoneyDTO   `json:"deposit"`
	Photos      []PhotoDTO `json:"photos"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type ListingCatalog struct {
	Items  []ListingSummary `json:"items"`
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

type PhotoUploadResult struct {
	ListingID    string     `json:"listing_id"`
	PrimaryPhoto string     `json:"primary_photo,omitempty"`
	Photos       []PhotoDTO `json:"photos"`
}

func MapListingSummary(l *domainlistings.Listing) ListingSummary {
	return ListingSummary{
		ID:            string(l.ID),
		Slug:          l.Slug,
		Title:         l.Title,
		City:          l.Address.City,
		MonthlyRent:   MapMoney(l.MonthlyRent),
		RoomCount:     l.RoomCount,
		SurfaceArea:   l.SurfaceArea,
		Available:     l.Available,
		PrimaryPhoto:  l.PrimaryPhoto,
		ViewCount:     l.ViewCount,
		FavoriteCount: l.FavoriteCount,
		CreatedAt:     l.CreatedAt,
	}
}

func MapListingDetail(l *domainlistings.Listing) ListingDetail {
	return ListingDetail{
		ListingSummary: MapListingSummary(l),
		OwnerID:        string(l.Owner),
		Description:    l.Description,
		Address:        AddressDTO{Street: l.Address.Street, City: l.Address.City, PostalCode: l.Address.PostalCode},
		Deposit:        MapMoney(l.Deposit),
		Photos:         MapPhotos(l.Photos),
		UpdatedAt:      l.UpdatedAt,
	}
}

func MapPhotos(photos []domainlistings.Photo) []PhotoDTO {
	out := make([]PhotoDTO, 0, len(photos))
	for _, p := range photos {
		out = append(out, PhotoDTO{ID: string(p.ID), URL: p.URL, Caption: p.Caption, Position: p.Position})
	}
	return out
}

func MapListingCatalog(res domainlistings.SearchResult) ListingCatalog {
	out := ListingCatalog{Items: make([]ListingSummary, 0, len(res.Items)), Total: res.Total, Limit: res.Limit, Offset: res.Offset}
	for _, l := range res.Items {
		out.Items = append(out.Items, MapListingSummary(l))
	}
	return out
}

type ListingDeleted struct {
	ID                  string `json:"id"`
	ReservationsRemoved int    `json:"reservations_removed"`
}
