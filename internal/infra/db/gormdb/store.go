package gormdb

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"gorm.io/gorm"

	"rentdesk/internal/app/uow"
	"rentdesk/internal/domain/favorites"
	"rentdesk/internal/domain/listings"
	"rentdesk/internal/domain/profiles"
	"rentdesk/internal/domain/reservations"
	domainuser "rentdesk/internal/domain/user"
)

var ErrUnitFinished = errors.New("gormdb: unit of work already finished")

// Store starts database transactions as units of work.
type Store struct {
	db       *gorm.DB
	currency string
}

func NewStore(db *gorm.DB, currency string) *Store {
	return &Store{db: db, currency: strings.ToUpper(currency)}
}

func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	var txOpts *sql.TxOptions
	// SQLite has no read-only transactions; Postgres enforces them.
	if opts.ReadOnly && s.db.Dialector.Name() == DriverPostgres {
		txOpts = &sql.TxOptions{ReadOnly: true}
	}
	tx := s.db.WithContext(ctx).Begin(txOpts)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &Unit{tx: tx, currency: s.currency}, nil
}

// Ping backs the readiness check.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Unit wraps one transaction. Repositories issue their statements on it.
type Unit struct {
	tx       *gorm.DB
	currency string
	done     bool
}

func (u *Unit) Users() domainuser.Repository          { return userRepo{u} }
func (u *Unit) Profiles() profiles.Repository         { return profileRepo{u} }
func (u *Unit) Listings() listings.Repository         { return listingRepo{u} }
func (u *Unit) Reservations() reservations.Repository { return reservationRepo{u} }
func (u *Unit) Favorites() favorites.Repository       { return favoriteRepo{u} }

func (u *Unit) Commit(ctx context.Context) error {
	if u.done {
		return ErrUnitFinished
	}
	u.done = true
	return u.tx.Commit().Error
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	err := u.tx.Rollback().Error
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

func (u *Unit) db(ctx context.Context) *gorm.DB {
	return u.tx.WithContext(ctx)
}

var (
	_ uow.UoWFactory = (*Store)(nil)
	_ uow.UnitOfWork = (*Unit)(nil)
)
