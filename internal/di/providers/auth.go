package providers

import (
	"github.com/samber/do/v2"

	"github.com/Clark-Hu/movielists/internal/config"
	"github.com/Clark-Hu/movielists/internal/identity"
	"github.com/Clark-Hu/movielists/internal/ratelimit"
)

// ProvideTokens provides the identity token issuer and verifier.
func ProvideTokens(i do.Injector) (*identity.Tokens, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return identity.NewTokens(cfg.IdentityTokenKey, cfg.IdentityTokenTTL)
}

// RateLimiterHandle stops the limiter's sweeper on shutdown.
type RateLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *RateLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideRateLimiter provides the per-caller limiter for mutating routes.
func ProvideRateLimiter(i do.Injector) (*RateLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return &RateLimiterHandle{KeyedRateLimiter: ratelimit.New(cfg.RateLimitRPS, cfg.RateLimitBurst)}, nil
}
