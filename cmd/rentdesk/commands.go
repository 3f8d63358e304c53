package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"rentdesk/internal/app/availability"
	"rentdesk/internal/app/commands"
	"rentdesk/internal/app/notifications"
	"rentdesk/internal/app/queries"
	"rentdesk/internal/app/services/auth"
	"rentdesk/internal/infra/broker/kafka"
	"rentdesk/internal/infra/config"
	"rentdesk/internal/infra/db/gormdb"
	"rentdesk/internal/infra/db/mongo"
	"rentdesk/internal/infra/inbox"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the SQL schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.StoreDriver == config.StoreMemory {
				return errors.New("migrate needs STORE_DRIVER=postgres or sqlite")
			}
			db, err := gormdb.Open(cfg.StoreDriver, cfg.DatabaseDSN, logger)
			if err != nil {
				return err
			}
			if err := gormdb.Migrate(db); err != nil {
				return err
			}
			logger.Info("schema migrated", "driver", cfg.StoreDriver)
			return nil
		},
	}
}

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute every owner, tenant and listing counter once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			app, err := buildApplication(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			started := time.Now()
			targets, err := app.recalc.RefreshAll(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "refreshed %d owners, %d tenants, %d listings in %s\n",
				len(targets.Owners), len(targets.Tenants), len(targets.Listings), time.Since(started).Round(time.Millisecond))
			return nil
		},
	}
}

func notifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notify",
		Short: "Consume reservation events from Kafka and send notification emails",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if !cfg.UsesBroker() {
				return errors.New("notify needs MONGO_URI and KAFKA_BROKERS")
			}
			ctx := cmd.Context()
			client, err := mongo.New(ctx, cfg.MongoURI, cfg.MongoDB)
			if err != nil {
				return err
			}
			defer client.Close(ctx)
			seen, err := inbox.NewStore(ctx, client.DB, cfg.KafkaGroupID, inbox.DefaultRetention)
			if err != nil {
				return err
			}

			app := &application{cfg: cfg, logger: logger}
			notifier, err := app.notifier()
			if err != nil {
				return err
			}
			dispatcher := &notifications.Dispatcher{Notifier: notifier, Logger: logger}
			handler := &kafka.EventHandler{
				Inbox:    seen,
				Deliver:  dispatcher.Deliver,
				Logger:   logger,
				Attempts: len(cfg.RetryBackoff) + 1,
				Backoff:  firstBackoff(cfg.RetryBackoff),
			}
			consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, nil, handler, logger)
			if err != nil {
				return err
			}
			defer consumer.Close()

			topic := cfg.KafkaTopicPrefix + "reservation.events.v1"
			logger.Info("notifier consuming", "topic", topic, "group", cfg.KafkaGroupID)
			return consumer.Run(ctx, []string{topic})
		},
	}
}

func createAdminCmd() *cobra.Command {
	var params auth.RegisterParams
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.StoreDriver == config.StoreMemory {
				return errors.New("create-admin needs a persistent STORE_DRIVER")
			}
			app, err := buildApplication(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.validator.Validate(cmd.Context(), params); err != nil {
				return err
			}
			res, err := app.auth.CreateAdmin(cmd.Context(), params)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s created (id %s)\n", res.User.Username, res.User.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&params.Username, "username", "", "login name")
	cmd.Flags().StringVar(&params.Email, "email", "", "email address")
	cmd.Flags().StringVar(&params.Password, "password", "", "initial password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// routesCmd prints the bus table. Nothing is opened; handlers are registered with empty
// dependencies and never called.
func routesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the registered command and query handlers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			commandBus := commands.NewInMemoryBus()
			registerCommands(commandBus, cfg, logger, availability.Engine{Policy: cfg.HoldPolicy}, nil)
			queryBus := queries.NewInMemoryBus()
			registerQueries(queryBus, cfg, logger, availability.Engine{Policy: cfg.HoldPolicy}, nil, nil)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tKEY\tMESSAGE\tRESULT")
			for _, r := range commandBus.Routes() {
				fmt.Fprintf(w, "command\t%s\t%s\t%s\n", r.Key, r.Command, r.Result)
			}
			for _, r := range queryBus.Routes() {
				fmt.Fprintf(w, "query\t%s\t%s\t%s\n", r.Key, r.Query, r.Result)
			}
			return w.Flush()
		},
	}
}

func firstBackoff(steps []time.Duration) time.Duration {
	if len(steps) == 0 {
		return time.Second
	}
	return steps[0]
}
