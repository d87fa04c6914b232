// Package di wires the movielists server together.
package di

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/Clark-Hu/movielists/internal/config"
	"github.com/Clark-Hu/movielists/internal/di/providers"
	"github.com/Clark-Hu/movielists/internal/identity"
	"github.com/Clark-Hu/movielists/internal/service"
	"github.com/Clark-Hu/movielists/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideValidator)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Identity and throttling
	do.Provide(injector, providers.ProvideTokens)
	do.Provide(injector, providers.ProvideRateLimiter)

	// Business services
	do.Provide(injector, providers.ProvideListEngine)
	do.Provide(injector, providers.ProvideEngagementService)
	do.Provide(injector, providers.ProvideReviewAggregator)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap eagerly builds every service so configuration and connectivity
// problems surface before the listener starts.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*slog.Logger](injector)
	_ = do.MustInvoke[*validation.Validator](injector)

	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*identity.Tokens](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*providers.RateLimiterHandle](injector)

	_ = do.MustInvoke[*service.ListEngine](injector)
	_ = do.MustInvoke[*service.EngagementService](injector)
	_ = do.MustInvoke[*service.ReviewAggregator](injector)

	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)
	return nil
}
