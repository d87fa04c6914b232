// Package cli implements movielistctl, the operator command line for the movielists service.
package cli

import (
	"fmt"
	"slices"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	DBURL   string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// environment is the subset of the server configuration the CLI reads when a
// flag is not given explicitly.
type environment struct {
	DBURL            string `envconfig:"DB_URL"`
	IdentityTokenKey string `envconfig:"IDENTITY_TOKEN_KEY"`
	IdentityTokenTTL string `envconfig:"IDENTITY_TOKEN_TTL" default:"24h"`
}

func loadEnvironment() (environment, error) {
	_ = godotenv.Load()

	var env environment
	if err := envconfig.Process("", &env); err != nil {
		return environment{}, fmt.Errorf("process env: %w", err)
	}
	return env, nil
}

// NewRootCommand creates the root command for movielistctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "movielistctl",
		Short: "movielistctl - operate the movielists service",
		Long:  "Operator tooling for the movielists service: schema migrations and identity tokens.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DBURL, "db-url", "", "Postgres connection string (defaults to DB_URL)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}
