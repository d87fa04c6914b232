package providers

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/Clark-Hu/movielists/internal/service"
	"github.com/Clark-Hu/movielists/internal/validation"
)

// ProvideListEngine provides the list membership engine.
func ProvideListEngine(i do.Injector) (*service.ListEngine, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*slog.Logger](i)
	return service.NewListEngine(storeHandle.Store, v, log), nil
}

// ProvideEngagementService provides the Seen/Watchlist toggle service.
func ProvideEngagementService(i do.Injector) (*service.EngagementService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	lists := do.MustInvoke[*service.ListEngine](i)
	log := do.MustInvoke[*slog.Logger](i)
	return service.NewEngagementService(storeHandle.Store, lists, log), nil
}

// ProvideReviewAggregator provides the review aggregator.
func ProvideReviewAggregator(i do.Injector) (*service.ReviewAggregator, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*slog.Logger](i)
	return service.NewReviewAggregator(storeHandle.Store, v, log), nil
}
