// Package cli exposes the allocation engine as the unit-allocator command.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
	"github.com/amirhossein-jamali/unit-allocator/internal/infrastructure/config"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands
type RootOptions struct {
	Env     string
	ActorID string

	// LoadConfig allows overriding configuration loading (for testing)
	LoadConfig func() (*config.Config, error)
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{LoadConfig: config.LoadConfig}

	cmd := &cobra.Command{
		Use:   "unit-allocator",
		Short: "Real-estate unit allocation engine",
		Long: `Allocates project units to sales agents through reservation queues,
bookings and deposits, and runs the sweeps that expire them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Env != "" {
				return os.Setenv(config.EnvPrefix+"_ENV", opts.Env)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Env, "env", "", "configuration environment (development|production|test), overrides UA_ENV")
	cmd.PersistentFlags().StringVar(&opts.ActorID, "actor", "", "administrator recorded on admin actions, defaults to the system actor")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewJobCommand(opts))
	cmd.AddCommand(NewOpenProjectCommand(opts))
	cmd.AddCommand(NewDispatchCommand(opts))
	cmd.AddCommand(NewRetryDispatchCommand(opts))

	return cmd
}

// actor returns the administrator the CLI acts as
func (o *RootOptions) actor() entity.Actor {
	if o.ActorID == "" {
		return entity.SystemActor()
	}
	return entity.Actor{ID: o.ActorID, Role: entity.RoleAdmin}
}

// bootstrap loads the configuration and returns a connected, wired App
func (o *RootOptions) bootstrap(ctx context.Context, migrate bool) (*App, error) {
	cfg, err := o.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	app, err := NewApp(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := app.Migrate(ctx); err != nil {
			_ = app.Close()
			return nil, err
		}
	}
	if err := app.Wire(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

// printJSON writes v as indented JSON
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
