// Package providers contains dependency injection providers for the movielists server.
package providers

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/Clark-Hu/movielists/internal/config"
	"github.com/Clark-Hu/movielists/internal/logger"
	"github.com/Clark-Hu/movielists/internal/validation"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*slog.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.LogLevel),
		AddSource:   cfg.Environment == "development",
		Environment: cfg.Environment,
	})

	log.Info("starting movielists server",
		"environment", cfg.Environment,
		"log_level", cfg.LogLevel,
		"port", cfg.Port,
	)
	return log, nil
}

// ProvideValidator provides the shared request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}
