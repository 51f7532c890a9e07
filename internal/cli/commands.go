package cli

import (
	"fmt"
	"strings"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/jobs"
	"github.com/amirhossein-jamali/unit-allocator/internal/infrastructure/adapter/api/dto"
	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Migrate the schema and seed missing settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if err := validateConfig(cfg); err != nil {
				return fmt.Errorf("configuration validation failed: %w", err)
			}

			app, err := NewApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
			return nil
		},
	}
}

// NewJobCommand creates the job command
func NewJobCommand(opts *RootOptions) *cobra.Command {
	names := []string{jobs.ReservationExpiry, jobs.OverduePayments, jobs.MissedTurns, jobs.BookingExpiry, jobs.Reconcile, lockCleanupJob}

	return &cobra.Command{
		Use:   "job <name>",
		Short: "Run one sweep once under its job lock",
		Long: fmt.Sprintf(`Run one sweep once. The run is skipped when another replica holds its lock.

Jobs: %s

Example:
  unit-allocator job reservation-expiry`, strings.Join(names, ", ")),
		Args:      cobra.ExactArgs(1),
		ValidArgs: names,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.bootstrap(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer app.Close()

			report, err := app.Jobs.RunOnce(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
}

// NewOpenProjectCommand creates the open-project command
func NewOpenProjectCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "open-project <project-id>",
		Short: "Open a project for sale and dispatch its reservation queues",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.bootstrap(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer app.Close()

			log, err := app.Dispatcher.OpenProject(cmd.Context(), args[0], opts.actor())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), dto.NewProcessingLogResponse(log))
		},
	}
}

// NewDispatchCommand creates the dispatch command
func NewDispatchCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dispatch <project-id>",
		Short: "Dispatch the reservation queues of a project that is already open",
		Long: `Runs the queue dispatch again for an open project. Use it when open-project committed the
phase change but the dispatch itself failed before recording a processing log.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.bootstrap(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer app.Close()

			log, err := app.Dispatcher.Redispatch(cmd.Context(), args[0], opts.actor())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), dto.NewProcessingLogResponse(log))
		},
	}
}

// NewRetryDispatchCommand creates the retry-dispatch command
func NewRetryDispatchCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "retry-dispatch <processing-log-id>",
		Short: "Re-drive the units that failed in a dispatcher run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.bootstrap(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer app.Close()

			log, err := app.Dispatcher.RetryFailed(cmd.Context(), args[0], opts.actor())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), dto.NewProcessingLogResponse(log))
		},
	}
}
