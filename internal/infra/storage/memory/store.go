package memory

import (
	"context"
	"errors"
	"maps"
	"strings"
	"sync"

	"rentdesk/internal/app/uow"
	"rentdesk/internal/domain/favorites"
	"rentdesk/internal/domain/listings"
	"rentdesk/internal/domain/profiles"
	"rentdesk/internal/domain/reservations"
	"rentdesk/internal/domain/user"
)

var (
	ErrReadOnly     = errors.New("memory: write in read-only unit of work")
	ErrUnitFinished = errors.New("memory: unit of work already finished")
)

type favoriteKey struct {
	tenant  profiles.TenantID
	listing listings.ListingID
}

// state is one consistent version of every table. Rows are stored by value.
type state struct {
	users        map[user.ID]user.User
	owners       map[profiles.OwnerID]profiles.OwnerProfile
	tenants      map[profiles.TenantID]profiles.TenantProfile
	listings     map[listings.ListingID]listings.Listing
	photos       map[listings.PhotoID]listings.Photo
	reservations map[reservations.ID]reservations.Reservation
	favorites    map[favoriteKey]favorites.Favorite
}

func newState() *state {
	return &state{
		users:        make(map[user.ID]user.User),
		owners:       make(map[profiles.OwnerID]profiles.OwnerProfile),
		tenants:      make(map[profiles.TenantID]profiles.TenantProfile),
		listings:     make(map[listings.ListingID]listings.Listing),
		photos:       make(map[listings.PhotoID]listings.Photo),
		reservations: make(map[reservations.ID]reservations.Reservation),
		favorites:    make(map[favoriteKey]favorites.Favorite),
	}
}

func (s *state) clone() *state {
	return &state{
		users:        maps.Clone(s.users),
		owners:       maps.Clone(s.owners),
		tenants:      maps.Clone(s.tenants),
		listings:     maps.Clone(s.listings),
		photos:       maps.Clone(s.photos),
		reservations: maps.Clone(s.reservations),
		favorites:    maps.Clone(s.favorites),
	}
}

// Store is an in-process entity store. Read-write units are serialized and work on a private
// copy that replaces the shared state on commit, so a rollback leaves no trace. Read-only
// units see the snapshot taken when they began.
type Store struct {
	mu       sync.Mutex
	writer   sync.Mutex
	data     *state
	currency string
}

func NewStore(currency string) *Store {
	return &Store{data: newState(), currency: strings.ToUpper(currency)}
}

func (s *Store) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.ReadOnly {
		s.mu.Lock()
		snapshot := s.data
		s.mu.Unlock()
		return &Unit{store: s, data: snapshot, readOnly: true}, nil
	}
	s.writer.Lock()
	s.mu.Lock()
	working := s.data.clone()
	s.mu.Unlock()
	return &Unit{store: s, data: working}, nil
}

// Unit is a uow.UnitOfWork over a Store.
type Unit struct {
	store    *Store
	data     *state
	readOnly bool
	done     bool
}

func (u *Unit) Users() user.Repository                { return userRepo{u} }
func (u *Unit) Profiles() profiles.Repository         { return profileRepo{u} }
func (u *Unit) Listings() listings.Repository         { return listingRepo{u} }
func (u *Unit) Reservations() reservations.Repository { return reservationRepo{u} }
func (u *Unit) Favorites() favorites.Repository       { return favoriteRepo{u} }

func (u *Unit) Commit(ctx context.Context) error {
	if u.done {
		return ErrUnitFinished
	}
	u.done = true
	if u.readOnly {
		return nil
	}
	u.store.mu.Lock()
	u.store.data = u.data
	u.store.mu.Unlock()
	u.store.writer.Unlock()
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	if !u.readOnly {
		u.store.writer.Unlock()
	}
	return nil
}

func (u *Unit) writable() error {
	if u.done {
		return ErrUnitFinished
	}
	if u.readOnly {
		return ErrReadOnly
	}
	return nil
}

var _ uow.UoWFactory = (*Store)(nil)
var _ uow.UnitOfWork = (*Unit)(nil)
