package providers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/do/v2"

	"github.com/Clark-Hu/movielists/db"
	"github.com/Clark-Hu/movielists/internal/config"
	"github.com/Clark-Hu/movielists/internal/store"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideStore connects to Postgres and, unless disabled, applies pending migrations.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	st, err := store.New(ctx, cfg.DBURL, StoreOptions(cfg, log))
	if err != nil {
		return nil, err
	}

	if cfg.DBAutoMigrate {
		applied, err := db.Migrate(ctx, st.Pool())
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		log.Info("database migrations applied", "count", len(applied), "versions", applied)
	}

	return &StoreHandle{Store: st}, nil
}

// StoreOptions maps configuration onto pool settings.
func StoreOptions(cfg *config.Config, log *slog.Logger) store.Options {
	return store.Options{
		MaxConns:               int32(cfg.DBMaxConns),
		MinConns:               int32(cfg.DBMinConns),
		MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		TxMaxAttempts:          cfg.DBTxMaxAttempts,
		Logger:                 log,
	}
}
