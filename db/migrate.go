// Package db embeds the schema migrations and applies them to a Postgres database.
package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.up.sql
var migrationFS embed.FS

// advisoryLockKey serialises concurrent migration runs across processes.
const advisoryLockKey = 724_311_905

// Migration is a single forward-only schema change.
type Migration struct {
	Version string
	Name    string
	SQL     string
}

// AppliedMigration records when a version was applied.
type AppliedMigration struct {
	Version   string
	AppliedAt time.Time
}

// Migrations returns the embedded migrations sorted by version.
func Migrations() ([]Migration, error) {
	files, err := fs.Glob(migrationFS, "migrations/*_*.up.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	out := make([]Migration, 0, len(files))
	for _, file := range files {
		payload, err := migrationFS.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", file, err)
		}
		base := strings.TrimSuffix(path.Base(file), ".up.sql")
		version, name, _ := strings.Cut(base, "_")
		out = append(out, Migration{Version: version, Name: name, SQL: string(payload)})
	}
	return out, nil
}

// Migrate applies every embedded migration not yet recorded in schema_migrations.
// It returns the versions applied by this call.
func Migrate(ctx context.Context, pool *pgxpool.Pool) ([]string, error) {
	migrations, err := Migrations()
	if err != nil {
		return nil, err
	}

	var applied []string
	err = withMigrationLock(ctx, pool, func(conn *pgxpool.Conn) error {
		for _, m := range migrations {
			ok, err := applyOne(ctx, conn, m)
			if err != nil {
				return fmt.Errorf("apply migration %s_%s: %w", m.Version, m.Name, err)
			}
			if ok {
				applied = append(applied, m.Version)
			}
		}
		return nil
	})
	return applied, err
}

// Applied lists migrations already recorded in the database.
func Applied(ctx context.Context, pool *pgxpool.Pool) ([]AppliedMigration, error) {
	var out []AppliedMigration
	err := withMigrationLock(ctx, pool, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, `SELECT version, applied_at FROM schema_migrations ORDER BY version`)
		if err != nil {
			return fmt.Errorf("query schema_migrations: %w", err)
		}
		out, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (AppliedMigration, error) {
			var m AppliedMigration
			err := row.Scan(&m.Version, &m.AppliedAt)
			return m, err
		})
		return err
	})
	return out, err
}

// withMigrationLock holds a session-level advisory lock on one connection while
// schema_migrations is created and fn runs.
func withMigrationLock(ctx context.Context, pool *pgxpool.Pool, fn func(conn *pgxpool.Conn) error) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire migration connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock($1)`, advisoryLockKey); err != nil {
		return fmt.Errorf("take migration lock: %w", err)
	}
	defer func() {
		// The context may already be cancelled; the unlock must still reach the server.
		if _, err := conn.Exec(context.Background(), `SELECT pg_advisory_unlock($1)`, advisoryLockKey); err != nil {
			_ = conn.Conn().Close(context.Background())
		}
	}()

	if err := ensureTable(ctx, conn); err != nil {
		return err
	}
	return fn(conn)
}

func ensureTable(ctx context.Context, conn *pgxpool.Conn) error {
	const query = `
        CREATE TABLE IF NOT EXISTS schema_migrations (
            version     TEXT PRIMARY KEY,
            applied_at  TIMESTAMPTZ NOT NULL DEFAULT now()
        )
    `
	if _, err := conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	return nil
}

func applyOne(ctx context.Context, conn *pgxpool.Conn, m Migration) (bool, error) {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, m.Version).Scan(&exists); err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	if _, err := tx.Exec(ctx, m.SQL); err != nil {
		return false, err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.Version); err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}
