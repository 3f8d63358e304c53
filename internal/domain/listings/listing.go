package listings

import (
	"context"
	"strings"
	"time"

	"rentdesk/internal/domain/profiles"
	"rentdesk/internal/domain/shared/apperr"
	"rentdesk/internal/domain/shared/money"
)

var (
	ErrTitleRequired   = apperr.New(apperr.ErrValidation, "listings: title is required")
	ErrAddressRequired = apperr.New(apperr.ErrValidation, "listings: street and city are required")
	ErrMonthlyRent     = apperr.New(apperr.ErrValidation, "listings: monthly rent must be positive")
	ErrDeposit         = apperr.New(apperr.ErrValidation, "listings: deposit cannot be negative")
	ErrRoomCount       = apperr.New(apperr.ErrValidation, "listings: room count must be at least 1")
	ErrSurfaceArea     = apperr.New(apperr.ErrValidation, "listings: surface area must be between 1 and 1000")
	ErrCurrency        = apperr.New(apperr.ErrValidation, "listings: rent and deposit must share a currency")
	ErrNotFound        = apperr.New(apperr.ErrNotFound, "listings: not found")
	ErrSlugTaken       = apperr.New(apperr.ErrConflict, "listings: slug already taken")
)

type ListingID string

type Address struct {
	Street     string
	City       string
	PostalCode string
}

func (a Address) Valid() bool {
	return strings.TrimSpace(a.Street) != "" && strings.TrimSpace(a.City) != ""
}

type PhotoID string

// Photo is a secondary picture; Position orders them on the listing page.
type Photo struct {
	ID         PhotoID
	ListingID  ListingID
	ObjectKey  string
	URL        string
	Caption    string
	Position   int
	UploadedAt time.Time
}

type Listing struct {
	ID           ListingID
	Owner        profiles.OwnerID
	Title        string
	Description  string
	Address      Address
	MonthlyRent  money.Money
	Deposit      money.Money
	SurfaceArea  *int
	RoomCount    int
	Available    bool
	Slug         string
	PrimaryPhoto string
	Photos       []Photo

	ViewCount     int
	FavoriteCount int

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Repository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	BySlug(ctx context.Context, slug string) (*Listing, error)
	// Lock loads the listing and holds a write lock on it until the unit of work ends.
	Lock(ctx context.Context, id ListingID) (*Listing, error)
	// Save writes everything except the view and favorite counters.
	Save(ctx context.Context, listing *Listing) error
	Delete(ctx context.Context, id ListingID) error
	SlugTaken(ctx context.Context, slug string, exclude ListingID) (bool, error)
	IncrementViews(ctx context.Context, id ListingID) error
	SetFavoriteCount(ctx context.Context, id ListingID, count int) error
	AddPhoto(ctx context.Context, photo Photo) error
	Search(ctx context.Context, params SearchParams) (SearchResult, error)
	IDsByOwner(ctx context.Context, owner profiles.OwnerID) ([]ListingID, error)
	TopCities(ctx context.Context, limit int) ([]CityCount, error)
}

type CityCount struct {
	City  string
	Count int
}

type CreateParams struct {
	ID          ListingID
	Owner       profiles.OwnerID
	Title       string
	Description string
	Address     Address
	MonthlyRent money.Money
	Deposit     money.Money
	SurfaceArea *int
	RoomCount   int
	Now         time.Time
}

// NewListing validates the input. The slug is assigned separately with AssignSlug.
func NewListing(params CreateParams) (*Listing, error) {
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	l := &Listing{
		ID:          params.ID,
		Owner:       params.Owner,
		Title:       strings.TrimSpace(params.Title),
		Description: strings.TrimSpace(params.Description),
		Address:     normalizeAddress(params.Address),
		MonthlyRent: params.MonthlyRent,
		Deposit:     params.Deposit,
		SurfaceArea: params.SurfaceArea,
		RoomCount:   params.RoomCount,
		Available:   true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if l.Deposit.Currency == "" {
		l.Deposit = money.Zero(l.MonthlyRent.Currency)
	}
	if err := l.validate(); err != nil {
		return nil, err
	}
	return l, nil
}

type UpdateParams struct {
	Title       *string
	Description *string
	Address     *Address
	MonthlyRent *money.Money
	Deposit     *money.Money
	SurfaceArea *int
	RoomCount   *int
}

// Update applies the non-nil fields. The slug is never recomputed.
func (l *Listing) Update(params UpdateParams, now time.Time) error {
	next := *l
	if params.Title != nil {
		next.Title = strings.TrimSpace(*params.Title)
	}
	if params.Description != nil {
		next.Description = strings.TrimSpace(*params.Description)
	}
	if params.Address != nil {
		next.Address = normalizeAddress(*params.Address)
	}
	if params.MonthlyRent != nil {
		next.MonthlyRent = *params.MonthlyRent
	}
	if params.Deposit != nil {
		next.Deposit = *params.Deposit
	}
	if params.SurfaceArea != nil {
		area := *params.SurfaceArea
		next.SurfaceArea = &area
	}
	if params.RoomCount != nil {
		next.RoomCount = *params.RoomCount
	}
	if err := next.validate(); err != nil {
		return err
	}
	next.UpdatedAt = now.UTC()
	*l = next
	return nil
}

// SetAvailability reports whether the flag changed.
func (l *Listing) SetAvailability(available bool, now time.Time) bool {
	if l.Available == available {
		return false
	}
	l.Available = available
	l.UpdatedAt = now.UTC()
	return true
}

// RecordView mirrors a counted view on the loaded copy; the store increments its own counter.
func (l *Listing) RecordView() { l.ViewCount++ }

func (l *Listing) SetFavoriteCount(count int) bool {
	if l.FavoriteCount == count {
		return false
	}
	l.FavoriteCount = count
	return true
}

func (l *Listing) SetPrimaryPhoto(url string, now time.Time) {
	l.PrimaryPhoto = strings.TrimSpace(url)
	l.UpdatedAt = now.UTC()
}

// NextPhotoPosition returns the position after the last secondary photo.
func (l *Listing) NextPhotoPosition() int {
	next := 0
	for _, p := range l.Photos {
		if p.Position >= next {
			next = p.Position + 1
		}
	}
	return next
}

func (l *Listing) HasOwner() bool { return l.Owner != "" }

func (l *Listing) validate() error {
	if l.Title == "" {
		return ErrTitleRequired
	}
	if !l.Address.Valid() {
		return ErrAddressRequired
	}
	if !l.MonthlyRent.IsPositive() {
		return ErrMonthlyRent
	}
	if l.Deposit.Amount < 0 {
		return ErrDeposit
	}
	if l.Deposit.Currency != l.MonthlyRent.Currency {
		return ErrCurrency
	}
	if l.RoomCount < 1 {
		return ErrRoomCount
	}
	if l.SurfaceArea != nil && (*l.SurfaceArea < 1 || *l.SurfaceArea > 1000) {
		return ErrSurfaceArea
	}
	return nil
}

func normalizeAddress(a Address) Address {
	return Address{
		Street:     strings.TrimSpace(a.Street),
		City:       strings.TrimSpace(a.City),
		PostalCode: strings.TrimSpace(a.PostalCode),
	}
}
