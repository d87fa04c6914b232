package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Clark-Hu/movielists/db"
	"github.com/Clark-Hu/movielists/internal/logger"
	"github.com/Clark-Hu/movielists/internal/store"
)

const migrateTimeout = 2 * time.Minute

// MigrationStatus describes one embedded migration and whether it has been applied.
type MigrationStatus struct {
	Version   string     `json:"version"`
	Name      string     `json:"name"`
	Applied   bool       `json:"applied"`
	AppliedAt *time.Time `json:"appliedAt,omitempty"`
}

// NewMigrateCommand creates the migrate command group.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "up",
		Short:         "Apply every pending migration",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrateUp(cmd.Context(), rootOpts, cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "status",
		Short:         "Show which migrations have been applied",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrateStatus(cmd.Context(), rootOpts, cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "list",
		Short:         "List the migrations embedded in this binary",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrateList(rootOpts, cmd)
		},
	})

	return cmd
}

func openStore(ctx context.Context, opts *RootOptions, f *OutputFormatter) (*store.Store, error) {
	url := opts.DBURL
	if url == "" {
		env, err := loadEnvironment()
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "load environment", err)
		}
		url = env.DBURL
	}
	if url == "" {
		return nil, &ExitError{Code: ExitCommandError, Message: "no database: pass --db-url or set DB_URL"}
	}

	log := logger.Discard()
	if opts.Verbose {
		log = logger.New(logger.Config{Writer: f.ErrWriter, Level: logger.ParseLevel("debug")})
	}
	st, err := store.New(ctx, url, store.Options{MaxConns: 2, ConnTimeout: 10 * time.Second, StatementCacheCapacity: -1, Logger: log})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "connect database", err)
	}
	return st, nil
}

func runMigrateUp(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx, cancel := context.WithTimeout(contextOrBackground(ctx), migrateTimeout)
	defer cancel()

	st, err := openStore(ctx, opts, f)
	if err != nil {
		return err
	}
	defer st.Close()

	applied, err := db.Migrate(ctx, st.Pool())
	if err != nil {
		return WrapExitError(ExitFailure, "migrate", err)
	}
	f.VerboseLog("applied %d migration(s)", len(applied))

	if applied == nil {
		applied = []string{}
	}
	return f.Emit(map[string][]string{"applied": applied}, func(w io.Writer) {
		if len(applied) == 0 {
			fmt.Fprintln(w, "database is up to date")
			return
		}
		for _, v := range applied {
			fmt.Fprintf(w, "applied %s\n", v)
		}
	})
}

func runMigrateStatus(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx, cancel := context.WithTimeout(contextOrBackground(ctx), migrateTimeout)
	defer cancel()

	st, err := openStore(ctx, opts, f)
	if err != nil {
		return err
	}
	defer st.Close()

	migrations, err := db.Migrations()
	if err != nil {
		return WrapExitError(ExitFailure, "read migrations", err)
	}
	applied, err := db.Applied(ctx, st.Pool())
	if err != nil {
		return WrapExitError(ExitFailure, "read applied migrations", err)
	}

	appliedAt := make(map[string]time.Time, len(applied))
	for _, a := range applied {
		appliedAt[a.Version] = a.AppliedAt
	}

	statuses := make([]MigrationStatus, 0, len(migrations))
	for _, m := range migrations {
		s := MigrationStatus{Version: m.Version, Name: m.Name}
		if at, ok := appliedAt[m.Version]; ok {
			s.Applied = true
			s.AppliedAt = &at
		}
		statuses = append(statuses, s)
	}

	return f.Emit(statuses, func(w io.Writer) {
		for _, s := range statuses {
			state := "pending"
			if s.Applied {
				state = "applied " + s.AppliedAt.UTC().Format(time.RFC3339)
			}
			fmt.Fprintf(w, "%s_%s\t%s\n", s.Version, s.Name, state)
		}
	})
}

func runMigrateList(opts *RootOptions, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	migrations, err := db.Migrations()
	if err != nil {
		return WrapExitError(ExitFailure, "read migrations", err)
	}

	statuses := make([]MigrationStatus, 0, len(migrations))
	for _, m := range migrations {
		statuses = append(statuses, MigrationStatus{Version: m.Version, Name: m.Name})
	}
	return f.Emit(statuses, func(w io.Writer) {
		for _, s := range statuses {
			fmt.Fprintf(w, "%s_%s\n", s.Version, s.Name)
		}
	})
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
