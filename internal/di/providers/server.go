package providers

import (
	"context"
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/Clark-Hu/movielists/internal/config"
	httpserver "github.com/Clark-Hu/movielists/internal/http"
	"github.com/Clark-Hu/movielists/internal/identity"
	"github.com/Clark-Hu/movielists/internal/service"
)

// HTTPServerHandle wraps the HTTP server with Shutdownable.
type HTTPServerHandle struct {
	*httpserver.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server. It is not listening until Start is called.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokens := do.MustInvoke[*identity.Tokens](i)
	limiter := do.MustInvoke[*RateLimiterHandle](i)

	services := httpserver.Services{
		Lists:      do.MustInvoke[*service.ListEngine](i),
		Engagement: do.MustInvoke[*service.EngagementService](i),
		Reviews:    do.MustInvoke[*service.ReviewAggregator](i),
	}

	srv := httpserver.New(*cfg, storeHandle.Store, services, tokens, limiter.KeyedRateLimiter, log)
	return &HTTPServerHandle{Server: srv}, nil
}
