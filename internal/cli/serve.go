package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/jobs"
	"github.com/amirhossein-jamali/unit-allocator/internal/infrastructure/adapter/api/handler"
	"github.com/amirhossein-jamali/unit-allocator/internal/infrastructure/adapter/api/routes"
	"github.com/amirhossein-jamali/unit-allocator/internal/infrastructure/config"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

// ServeOptions holds flags for the serve command
type ServeOptions struct {
	*RootOptions
	SkipMigrate bool
	NoScheduler bool
}

// NewServeCommand creates the serve command
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the job scheduler",
		Long: `Start the HTTP API and, unless disabled, the scheduler that runs the
periodic sweeps. The schema is migrated on startup.

Example:
  unit-allocator serve
  unit-allocator serve --env production --no-scheduler`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.SkipMigrate, "skip-migrate", false, "do not migrate the schema on startup")
	cmd.Flags().BoolVar(&opts.NoScheduler, "no-scheduler", false, "serve the API without running periodic jobs")

	return cmd
}

func runServe(ctx context.Context, opts *ServeOptions) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := opts.bootstrap(ctx, !opts.SkipMigrate)
	if err != nil {
		return err
	}
	defer app.Close()

	cfg := app.Config
	if cfg.Environment == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	routes.SetupMiddlewares(router, app.Logger, app.TimeProvider, cfg.Server.AllowedOrigins)
	routes.SetupRoutes(router, routes.Handlers{
		Reservations: handler.NewReservationHandler(app.Reservations, app.Logger),
		Bookings:     handler.NewBookingHandler(app.Bookings, app.Logger),
		Deposits:     handler.NewDepositHandler(app.Deposits, app.Logger),
		Admin:        handler.NewAdminHandler(app.Sync, app.Deposits, app.Dispatcher, app.Jobs, app.Logger),
		Health:       handler.NewHealthHandler(app.Health),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	var wg sync.WaitGroup
	schedulerCtx, stopScheduler := context.WithCancel(ctx)
	defer stopScheduler()
	if cfg.Scheduler.Enabled && !opts.NoScheduler {
		wg.Add(1)
		go func() {
			defer wg.Done()
			jobs.NewScheduler(app.Jobs, app.Logger).Run(schedulerCtx)
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		app.Logger.Info("Starting server", map[string]any{
			"addr": server.Addr,
			"env":  cfg.Environment,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			stopScheduler()
			wg.Wait()
			return fmt.Errorf("failed to start server: %w", err)
		}
	}

	app.Logger.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	stopScheduler()
	if err := server.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error("Server forced to shutdown", map[string]any{"error": err.Error()})
	}
	wg.Wait()

	app.Logger.Info("Server exited gracefully", nil)
	return nil
}
