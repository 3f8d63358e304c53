// Package apptest wires the command and query buses over the in-memory store for tests.
package apptest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rentdesk/internal/app/aggregates"
	"rentdesk/internal/app/availability"
	"rentdesk/internal/app/commands"
	"rentdesk/internal/app/dto"
	"rentdesk/internal/app/handlers/dashboard"
	"rentdesk/internal/app/handlers/favorites"
	"rentdesk/internal/app/handlers/listings"
	"rentdesk/internal/app/handlers/reservations"
	"rentdesk/internal/app/middleware"
	"rentdesk/internal/app/notifications"
	appoutbox "rentdesk/internal/app/outbox"
	"rentdesk/internal/app/policies"
	"rentdesk/internal/app/queries"
	"rentdesk/internal/app/services/auth"
	"rentdesk/internal/domain/shared/events"
	"rentdesk/internal/infra/security"
	"rentdesk/internal/infra/storage/s3"
	"rentdesk/internal/infra/storage/memory"
	"rentdesk/internal/infra/validation"
)

// Harness is a fully wired application without any network dependency.
type Harness struct {
	Store    *memory.Store
	Auth     *auth.Service
	Recalc   *aggregates.Recalculator
	Outbox   *memory.Outbox
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger

	mu       sync.Mutex
	notified []events.DomainEvent
	seq      atomic.Int64
}

type Options struct {
	HoldPolicy availability.HoldPolicy

	// Notifier replaces the recording notifier.
	Notifier policies.Notifier

	// Uploader receives listing photos. Uploads fail when it is nil.
	Uploader s3.Uploader
}

func New(t testing.TB, opts ...Options) *Harness {
	t.Helper()
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore("EUR")
	h := &Harness{Store: store, Logger: logger}

	notifier := o.Notifier
	if notifier == nil {
		notifier = policies.NotifierFunc(h.record)
	}
	dispatcher := &notifications.Dispatcher{Notifier: notifier, Logger: logger}
	h.Outbox = memory.NewOutbox(100, dispatcher.Deliver)

	h.Auth = &auth.Service{
		UoW:        store,
		Sessions:   memory.NewSessionStore(),
		Passwords:  security.BcryptHasher{Cost: 4},
		Tokens:     security.SessionTokens{},
		SessionTTL: time.Hour,
		Currency:   "EUR",
		Logger:     logger,
	}
	h.Recalc = &aggregates.Recalculator{UoW: store, Logger: logger, Currency: "EUR", MaxAttempts: 2, BaseDelay: time.Millisecond}

	engine := availability.Engine{Policy: o.HoldPolicy}
	cmdBus := commands.NewInMemoryBus()
	commands.RegisterHandler(cmdBus, listings.CreateListingKey, &listings.CreateListingHandler{Logger: logger, Currency: "EUR"})
	commands.RegisterHandler(cmdBus, listings.UpdateListingKey, &listings.UpdateListingHandler{Logger: logger})
	commands.RegisterHandler(cmdBus, listings.DeleteListingKey, &listings.DeleteListingHandler{Logger: logger})
	commands.RegisterHandler(cmdBus, listings.UploadPhotoKey, &listings.UploadPhotoHandler{Logger: logger, Uploader: o.Uploader})
	commands.RegisterHandler(cmdBus, reservations.CreateReservationKey, &reservations.CreateReservationHandler{
		Logger:       logger,
		Availability: engine,
		NewID:        h.nextID,
	})
	transitions := &reservations.Transitioner{Logger: logger, Availability: engine}
	commands.RegisterHandler(cmdBus, reservations.ConfirmReservationKey, reservations.ConfirmReservationHandler{Transitioner: transitions})
	commands.RegisterHandler(cmdBus, reservations.MarkPaidKey, reservations.MarkPaidHandler{Transitioner: transitions})
	commands.RegisterHandler(cmdBus, reservations.CancelReservationKey, reservations.CancelReservationHandler{Transitioner: transitions})
	commands.RegisterHandler(cmdBus, reservations.CompleteReservationKey, reservations.CompleteReservationHandler{Transitioner: transitions})
	commands.RegisterHandler(cmdBus, reservations.UpdateStatusKey, reservations.UpdateStatusHandler{Transitioner: transitions})
	commands.RegisterHandler(cmdBus, favorites.ToggleFavoriteKey, &favorites.ToggleFavoriteHandler{Logger: logger})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, listings.GetListingKey, &listings.GetListingHandler{UoW: store, Views: &memory.ViewGate{}, Logger: logger})
	queries.RegisterHandler(queryBus, listings.SearchListingsKey, &listings.SearchListingsHandler{UoW: store})
	queries.RegisterHandler(queryBus, reservations.GetReservationKey, &reservations.GetReservationHandler{UoW: store})
	queries.RegisterHandler(queryBus, reservations.ListReservationsKey, &reservations.ListReservationsHandler{UoW: store})
	queries.RegisterHandler(queryBus, reservations.ListingReservationsKey, &reservations.ListingReservationsHandler{UoW: store})
	queries.RegisterHandler(queryBus, reservations.CheckAvailabilityKey, &reservations.CheckAvailabilityHandler{UoW: store, Availability: engine})
	queries.RegisterHandler(queryBus, favorites.ListFavoritesKey, &favorites.ListFavoritesHandler{UoW: store})
	dash := &dashboard.Handler{UoW: store, Currency: "EUR"}
	queries.RegisterHandler(queryBus, dashboard.OwnerDashboardKey, dashboard.OwnerDashboardHandler{Handler: dash})
	queries.RegisterHandler(queryBus, dashboard.TenantDashboardKey, dashboard.TenantDashboardHandler{Handler: dash})
	queries.RegisterHandler(queryBus, dashboard.AdminStatsKey, dashboard.AdminStatsHandler{Handler: dash})

	v := validation.New()
	h.Commands = middleware.ChainCommands(
		cmdBus,
		middleware.Authentication(),
		middleware.Validation(v),
		middleware.Idempotency(memory.NewIdempotencyStore(time.Hour), nil),
		middleware.OutboxFlush(h.Outbox, appoutbox.JSONEventEncoder{}, logger),
		middleware.Aggregates(h.Recalc, logger),
		middleware.Transaction(store, nil),
	)
	h.Queries = middleware.ChainQueries(
		queryBus,
		middleware.QueryAuthentication(),
		middleware.QueryValidation(v),
	)
	return h
}

func (h *Harness) nextID() string {
	return fmt.Sprintf("res-%03d", h.seq.Add(1))
}

func (h *Harness) record(_ context.Context, ev events.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notified = append(h.notified, ev)
	return nil
}

// Notified returns the events handed to the notifier so far.
func (h *Harness) Notified() []events.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]events.DomainEvent(nil), h.notified...)
}

// Register signs up a user with the given role and returns its actor.
func (h *Harness) Register(t testing.TB, role, username string) policies.Actor {
	t.Helper()
	res, err := h.Auth.Register(context.Background(), auth.RegisterParams{
		Username:  username,
		Email:     username + "@example.com",
		Password:  "correct-horse",
		FirstName: username,
		Role:      role,
	})
	require.NoError(t, err)
	return res.Actor
}

// Admin bootstraps an administrator.
func (h *Harness) Admin(t testing.TB) policies.Actor {
	t.Helper()
	res, err := h.Auth.CreateAdmin(context.Background(), auth.RegisterParams{
		Username: "root",
		Email:    "root@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	return res.Actor
}

// Listing publishes a listing for owner.
func (h *Harness) Listing(t testing.TB, owner policies.Actor, title, city string, rent int64) *dto.ListingDetail {
	t.Helper()
	out, err := commands.Dispatch[listings.CreateListingCommand, *dto.ListingDetail](context.Background(), h.Commands, listings.CreateListingCommand{
		Actor:       owner,
		Title:       title,
		Street:      "12 Rue Centrale",
		City:        city,
		MonthlyRent: rent,
		Deposit:     rent,
		RoomCount:   2,
	})
	require.NoError(t, err)
	return out
}

// Reserve books listingID for the closed range [start, end] as tenant.
func (h *Harness) Reserve(ctx context.Context, tenant policies.Actor, listingID string, start, end time.Time) (*dto.ReservationView, error) {
	return commands.Dispatch[reservations.CreateReservationCommand, *dto.ReservationView](ctx, h.Commands, reservations.CreateReservationCommand{
		Actor:     tenant,
		ListingID: listingID,
		StartDate: start,
		EndDate:   end,
	})
}

// Day returns midnight UTC offset days from today.
func Day(offset int) time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day()+offset, 0, 0, 0, 0, time.UTC)
}
