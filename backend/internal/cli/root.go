// Package cli implements the circlectl operator commands
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"circle-media/backend/internal/engine"
	"circle-media/backend/internal/social"
	"circle-media/backend/internal/store"
	"circle-media/backend/pkg/config"
	"circle-media/backend/pkg/logger"
)

// RootOptions holds global flags for all commands
type RootOptions struct {
	Env    string
	Format string // "json" | "text"

	// OpenStore opens the store commands operate on. Defaults to the adapter
	// selected by the environment configuration.
	OpenStore func(ctx context.Context) (social.Store, error)
}

// ValidFormats defines the allowed output formats
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for circlectl
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{OpenStore: openConfiguredStore})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "circlectl",
		Short: "circlectl - Circle Media operator tool",
		Long:  "Maintenance commands for the Circle Media social graph: follow reconciliation and fixture seeding.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return logger.Init(opts.Env, "")
		},
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.Env, "env", "development", "environment (development|production)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	// Add subcommands
	cmd.AddCommand(NewReconcileCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))

	return cmd
}

func openConfiguredStore(ctx context.Context) (social.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return store.Open(ctx, cfg)
}

// withEngine opens the store, runs fn and closes the store
func (o *RootOptions) withEngine(ctx context.Context, fn func(*engine.Engine) error) error {
	st, err := o.OpenStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()
	return fn(engine.New(st))
}

func writeJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// isValidFormat checks if the format is one of the allowed values
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
