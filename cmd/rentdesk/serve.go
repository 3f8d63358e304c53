package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"rentdesk/internal/infra/db/gormdb"
	ginserver "rentdesk/internal/infra/http/gin"
	"rentdesk/internal/infra/obs"
	"rentdesk/internal/infra/schedule"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the outbox worker and the reconcile job",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := buildApplication(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			if migrate, _ := cmd.Flags().GetBool("migrate"); migrate && app.db != nil {
				if err := gormdb.Migrate(app.db.DB()); err != nil {
					return err
				}
				logger.Info("schema migrated")
			}

			if app.worker != nil {
				go func() {
					if err := app.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
						logger.Error("outbox worker stopped", "error", err)
					}
				}()
			}

			sched, err := schedule.New(logger)
			if err != nil {
				return err
			}
			if err := sched.AddReconcile(ctx, cfg.ReconcileInterval, app.recalc); err != nil {
				return err
			}
			sched.Start()
			defer func() {
				if err := sched.Shutdown(); err != nil {
					logger.Warn("scheduler shutdown failed", "error", err)
				}
			}()

			server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Dependencies: app.dependencies}, app.httpHandlers())
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					logger.Error("http shutdown failed", "error", err)
				}
			}()

			logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "store", cfg.StoreDriver, "broker", cfg.UsesBroker())
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logger.Info("HTTP server stopped")
			return nil
		},
	}
	cmd.Flags().Bool("migrate", false, "create or update the SQL schema before serving")
	return cmd
}
