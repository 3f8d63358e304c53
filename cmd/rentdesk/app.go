package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"rentdesk/internal/app/aggregates"
	"rentdesk/internal/app/availability"
	"rentdesk/internal/app/commands"
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
	"rentdesk/internal/app/uow"
	domainauth "rentdesk/internal/domain/auth"
	"rentdesk/internal/infra/broker/kafka"
	"rentdesk/internal/infra/cache/redis"
	"rentdesk/internal/infra/config"
	"rentdesk/internal/infra/db/gormdb"
	"rentdesk/internal/infra/db/mongo"
	ginserver "rentdesk/internal/infra/http/gin"
	"rentdesk/internal/infra/mail"
	"rentdesk/internal/infra/obs"
	infraoutbox "rentdesk/internal/infra/outbox"
	"rentdesk/internal/infra/security"
	"rentdesk/internal/infra/storage/memory"
	"rentdesk/internal/infra/storage/s3"
	"rentdesk/internal/infra/validation"
)

// application is the wired object graph shared by the subcommands.
type application struct {
	cfg    config.Config
	logger *slog.Logger

	store     uow.UoWFactory
	db        *gormdb.Store
	mongo     *mongo.Client
	redis     *goredis.Client
	validator *validation.StructValidator

	commands     commands.Bus
	queries      queries.Bus
	auth         *auth.Service
	recalc       *aggregates.Recalculator
	worker       *infraoutbox.Worker
	dependencies []obs.Dependency
	closers      []func(context.Context) error
}

func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	files, _ := cmd.Flags().GetStringSlice("env-file")
	cfg, err := config.Load(files...)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, obs.NewLogger(cfg.Env), nil
}

// openStore picks the unit of work backend. The memory store loses its data on exit.
func openStore(cfg config.Config, logger *slog.Logger) (uow.UoWFactory, *gormdb.Store, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres, config.StoreSQLite:
		db, err := gormdb.Open(cfg.StoreDriver, cfg.DatabaseDSN, logger)
		if err != nil {
			return nil, nil, err
		}
		store := gormdb.NewStore(db, cfg.Currency)
		return store, store, nil
	default:
		logger.Warn("using the in-memory store; data is lost on restart")
		return memory.NewStore(cfg.Currency), nil, nil
	}
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{cfg: cfg, logger: logger, validator: validation.New()}
	var err error
	if app.store, app.db, err = openStore(cfg, logger); err != nil {
		return nil, err
	}
	if app.db != nil {
		app.dependencies = append(app.dependencies, obs.Dependency{Name: "database", Check: app.db.Ping})
		app.closers = append(app.closers, func(context.Context) error {
			sqlDB, err := app.db.DB().DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		})
	}

	if cfg.MongoURI != "" {
		if app.mongo, err = mongo.New(ctx, cfg.MongoURI, cfg.MongoDB); err != nil {
			return nil, err
		}
		app.dependencies = append(app.dependencies, obs.Dependency{Name: "mongo", Check: app.mongo.Ping})
		app.closers = append(app.closers, app.mongo.Close)
	}
	if cfg.RedisURL != "" {
		if app.redis, err = redis.Connect(ctx, cfg.RedisURL); err != nil {
			return nil, err
		}
		app.dependencies = append(app.dependencies, obs.Dependency{Name: "redis", Check: func(ctx context.Context) error {
			return app.redis.Ping(ctx).Err()
		}})
		app.closers = append(app.closers, func(context.Context) error { return app.redis.Close() })
	}

	var sessions domainauth.SessionStore = memory.NewSessionStore()
	if app.redis != nil {
		sessions = &redis.SessionStore{Client: app.redis}
	}
	app.auth = &auth.Service{
		UoW:        app.store,
		Sessions:   sessions,
		Passwords:  security.BcryptHasher{},
		Tokens:     security.SessionTokens{},
		SessionTTL: cfg.SessionTTL,
		Currency:   cfg.Currency,
		Logger:     logger,
	}
	app.recalc = &aggregates.Recalculator{
		UoW:         app.store,
		Logger:      logger,
		Currency:    cfg.Currency,
		MaxAttempts: cfg.RecalcMaxAttempts,
		BaseDelay:   cfg.RecalcBaseDelay,
	}

	box, err := app.outbox(ctx)
	if err != nil {
		return nil, err
	}
	idempotency, err := app.idempotencyStore(ctx)
	if err != nil {
		return nil, err
	}
	uploader, err := app.uploader()
	if err != nil {
		return nil, err
	}

	engine := availability.Engine{Policy: cfg.HoldPolicy}
	commandBus := commands.NewInMemoryBus()
	registerCommands(commandBus, cfg, logger, engine, uploader)
	queryBus := queries.NewInMemoryBus()
	registerQueries(queryBus, cfg, logger, engine, app.store, app.viewGate())

	app.commands = middleware.ChainCommands(
		commandBus,
		middleware.Authentication(),
		middleware.Validation(app.validator),
		middleware.Idempotency(idempotency, nil),
		middleware.OutboxFlush(box, appoutbox.JSONEventEncoder{}, logger),
		middleware.Aggregates(app.recalc, logger),
		middleware.Transaction(app.store, nil),
	)
	app.queries = middleware.ChainQueries(
		queryBus,
		middleware.QueryAuthentication(),
		middleware.QueryValidation(app.validator),
	)
	return app, nil
}

func registerCommands(bus *commands.InMemoryBus, cfg config.Config, logger *slog.Logger, engine availability.Engine, uploader s3.Uploader) {
	commands.RegisterHandler(bus, listings.CreateListingKey, &listings.CreateListingHandler{Logger: logger, Currency: cfg.Currency})
	commands.RegisterHandler(bus, listings.UpdateListingKey, &listings.UpdateListingHandler{Logger: logger})
	commands.RegisterHandler(bus, listings.DeleteListingKey, &listings.DeleteListingHandler{Logger: logger})
	commands.RegisterHandler(bus, listings.UploadPhotoKey, &listings.UploadPhotoHandler{Logger: logger, Uploader: uploader})

	commands.RegisterHandler(bus, reservations.CreateReservationKey, &reservations.CreateReservationHandler{
		Logger:       logger,
		Availability: engine,
		NewID:        uuid.NewString,
	})
	transitions := &reservations.Transitioner{Logger: logger, Availability: engine}
	commands.RegisterHandler(bus, reservations.ConfirmReservationKey, reservations.ConfirmReservationHandler{Transitioner: transitions})
	commands.RegisterHandler(bus, reservations.MarkPaidKey, reservations.MarkPaidHandler{Transitioner: transitions})
	commands.RegisterHandler(bus, reservations.CancelReservationKey, reservations.CancelReservationHandler{Transitioner: transitions})
	commands.RegisterHandler(bus, reservations.CompleteReservationKey, reservations.CompleteReservationHandler{Transitioner: transitions})
	commands.RegisterHandler(bus, reservations.UpdateStatusKey, reservations.UpdateStatusHandler{Transitioner: transitions})

	commands.RegisterHandler(bus, favorites.ToggleFavoriteKey, &favorites.ToggleFavoriteHandler{Logger: logger})
}

func registerQueries(bus *queries.InMemoryBus, cfg config.Config, logger *slog.Logger, engine availability.Engine, store uow.UoWFactory, views listings.ViewGate) {
	queries.RegisterHandler(bus, listings.GetListingKey, &listings.GetListingHandler{UoW: store, Views: views, Logger: logger})
	queries.RegisterHandler(bus, listings.SearchListingsKey, &listings.SearchListingsHandler{UoW: store})

	queries.RegisterHandler(bus, reservations.GetReservationKey, &reservations.GetReservationHandler{UoW: store})
	queries.RegisterHandler(bus, reservations.ListReservationsKey, &reservations.ListReservationsHandler{UoW: store})
	queries.RegisterHandler(bus, reservations.ListingReservationsKey, &reservations.ListingReservationsHandler{UoW: store})
	queries.RegisterHandler(bus, reservations.CheckAvailabilityKey, &reservations.CheckAvailabilityHandler{UoW: store, Availability: engine})

	queries.RegisterHandler(bus, favorites.ListFavoritesKey, &favorites.ListFavoritesHandler{UoW: store})

	dash := &dashboard.Handler{UoW: store, Currency: cfg.Currency}
	queries.RegisterHandler(bus, dashboard.OwnerDashboardKey, dashboard.OwnerDashboardHandler{Handler: dash})
	queries.RegisterHandler(bus, dashboard.TenantDashboardKey, dashboard.TenantDashboardHandler{Handler: dash})
	queries.RegisterHandler(bus, dashboard.AdminStatsKey, dashboard.AdminStatsHandler{Handler: dash})
}

// outbox stores events in Mongo for the Kafka worker when a broker is configured, and
// otherwise delivers them in-process to the notifier.
func (a *application) outbox(ctx context.Context) (appoutbox.Outbox, error) {
	if !a.cfg.UsesBroker() {
		notifier, err := a.notifier()
		if err != nil {
			return nil, err
		}
		dispatcher := &notifications.Dispatcher{Notifier: notifier, Logger: a.logger}
		return memory.NewOutbox(100, dispatcher.Deliver), nil
	}
	store, err := infraoutbox.NewStore(ctx, a.mongo.DB)
	if err != nil {
		return nil, fmt.Errorf("outbox store: %w", err)
	}
	producer, err := kafka.NewProducer(a.cfg.KafkaBrokers, nil)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return producer.Close() })
	a.worker = &infraoutbox.Worker{
		Store:       store,
		Producer:    producer,
		Logger:      a.logger,
		Interval:    a.cfg.OutboxPollInterval,
		TopicPrefix: a.cfg.KafkaTopicPrefix,
		Backoff:     a.cfg.RetryBackoff,
	}
	return store, nil
}

func (a *application) notifier() (policies.Notifier, error) {
	if a.cfg.SMTPHost == "" {
		return notifications.LogNotifier{Logger: a.logger}, nil
	}
	return mail.New(mail.Options{
		Host:     a.cfg.SMTPHost,
		Port:     a.cfg.SMTPPort,
		Username: a.cfg.SMTPUsername,
		Password: a.cfg.SMTPPassword,
		From:     a.cfg.SMTPFrom,
	}, a.logger)
}

func (a *application) idempotencyStore(ctx context.Context) (middleware.IdempotencyStore, error) {
	if a.mongo == nil {
		return memory.NewIdempotencyStore(a.cfg.IdempotencyTTL), nil
	}
	return mongo.NewIdempotencyStore(ctx, a.mongo.DB, a.cfg.IdempotencyTTL)
}

func (a *application) uploader() (s3.Uploader, error) {
	if a.cfg.S3Endpoint == "" {
		a.logger.Info("photo uploads disabled; S3_ENDPOINT is not set")
		return s3.NoopUploader{}, nil
	}
	client, err := s3.New(s3.Options{
		Endpoint:       a.cfg.S3Endpoint,
		PublicEndpoint: a.cfg.S3PublicEndpoint,
		AccessKey:      a.cfg.S3AccessKey,
		SecretKey:      a.cfg.S3SecretKey,
		Bucket:         a.cfg.S3Bucket,
		UseSSL:         a.cfg.S3UseSSL,
	}, a.logger)
	if err != nil {
		return nil, err
	}
	a.dependencies = append(a.dependencies, obs.Dependency{Name: "s3", Check: client.Ping})
	return client, nil
}

func (a *application) viewGate() listings.ViewGate {
	if a.redis != nil {
		return &redis.ViewGate{Client: a.redis, Window: a.cfg.ViewDedupWindow}
	}
	return &memory.ViewGate{Window: a.cfg.ViewDedupWindow}
}

func (a *application) httpHandlers() ginserver.Handlers {
	return ginserver.Handlers{
		Auth:         &ginserver.AuthHandler{Service: a.auth, Validator: a.validator, Logger: a.logger},
		Listings:     &ginserver.ListingHandler{Commands: a.commands, Queries: a.queries, Logger: a.logger},
		Reservations: &ginserver.ReservationHandler{Commands: a.commands, Queries: a.queries, Logger: a.logger},
		Favorites:    &ginserver.FavoriteHandler{Commands: a.commands, Queries: a.queries, Logger: a.logger},
		Dashboard:    &ginserver.DashboardHandler{Queries: a.queries, Logger: a.logger},
		AuthMiddleware: ginserver.AuthMiddleware{
			Resolver: a.auth,
			Logger:   a.logger,
		}.Handle,
	}
}

func (a *application) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("shutdown incomplete", "error", err)
	}
}
