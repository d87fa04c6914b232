package service

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/Clark-Hu/movielists/internal/domain"
	domainerrors "github.com/Clark-Hu/movielists/internal/errors"
	"github.com/Clark-Hu/movielists/internal/repository"
	"github.com/Clark-Hu/movielists/internal/store"
)

// EngagementService flips movies in and out of the Seen Content and Watchlist system lists.
type EngagementService struct {
	store  *store.Store
	lists  *ListEngine
	logger *slog.Logger
}

// NewEngagementService creates an engagement service on top of the list engine.
func NewEngagementService(st *store.Store, lists *ListEngine, logger *slog.Logger) *EngagementService {
	return &EngagementService{
		store:  st,
		lists:  lists,
		logger: logger,
	}
}

// Toggle adds movieID to the caller's system list of the given kind when absent and
// removes it when present. The list is provisioned on first use.
func (s *EngagementService) Toggle(ctx context.Context, userID, movieID string, kind domain.SystemListKind) (domain.MembershipState, error) {
	if err := requireUser(userID); err != nil {
		return domain.MembershipState{}, err
	}
	if err := requireID("movieId", movieID); err != nil {
		return domain.MembershipState{}, err
	}
	if kind.Title() == "" {
		return domain.MembershipState{}, domainerrors.InvalidArgumentf("unknown system list kind %d", kind)
	}

	var state domain.MembershipState
	err := s.store.InTx(ctx, func(tx pgx.Tx) error {
		repo := repository.New(tx)
		if err := ensureMovie(ctx, repo, movieID); err != nil {
			return err
		}
		list, err := s.lists.systemList(ctx, repo, userID, kind)
		if err != nil {
			return err
		}

		removed, err := repo.Items.DeleteByListAndMovie(ctx, list.ID, movieID)
		if err != nil {
			return err
		}
		if removed {
			state = domain.MembershipState{Present: false}
			return nil
		}

		if _, _, err := s.lists.addItem(ctx, repo, list.ID, movieID); err != nil {
			return err
		}
		state = domain.MembershipState{Present: true}
		return nil
	})
	if err != nil {
		return domain.MembershipState{}, storeError("toggle "+kind.String(), err)
	}

	s.logger.Debug("engagement toggled",
		"user_id", userID,
		"movie_id", movieID,
		"kind", kind.String(),
		"present", state.Present,
	)
	return state, nil
}

// ToggleSeen toggles movieID in the caller's Seen Content list.
func (s *EngagementService) ToggleSeen(ctx context.Context, userID, movieID string) (domain.MembershipState, error) {
	return s.Toggle(ctx, userID, movieID, domain.KindSeen)
}

// ToggleWatchlist toggles movieID in the caller's Watchlist.
func (s *EngagementService) ToggleWatchlist(ctx context.Context, userID, movieID string) (domain.MembershipState, error) {
	return s.Toggle(ctx, userID, movieID, domain.KindWatchlist)
}

// Status reports whether movieID is in the caller's system lists. It never provisions
// lists; anonymous callers get an all-false status.
func (s *EngagementService) Status(ctx context.Context, userID, movieID string) (domain.EngagementStatus, error) {
	if err := requireID("movieId", movieID); err != nil {
		return domain.EngagementStatus{}, err
	}
	repo := repository.New(s.store.Pool())
	if err := ensureMovie(ctx, repo, movieID); err != nil {
		return domain.EngagementStatus{}, storeError("load engagement", err)
	}
	if requireUser(userID) != nil {
		return domain.EngagementStatus{}, nil
	}

	status, err := repo.Items.SystemMembership(ctx, userID, movieID)
	if err != nil {
		return domain.EngagementStatus{}, storeError("load engagement", err)
	}
	return status, nil
}

// Snapshot lists the movie ids in the caller's system lists. Anonymous callers get empty sets.
func (s *EngagementService) Snapshot(ctx context.Context, userID string) (domain.EngagementSnapshot, error) {
	snapshot := domain.EngagementSnapshot{
		SeenMovieIDs:      []string{},
		WatchlistMovieIDs: []string{},
	}
	if requireUser(userID) != nil {
		return snapshot, nil
	}

	repo := repository.New(s.store.Pool())
	seen, err := repo.Items.MovieIDsInSystemList(ctx, userID, domain.SeenListTitle)
	if err != nil {
		return domain.EngagementSnapshot{}, storeError("load seen list", err)
	}
	watchlist, err := repo.Items.MovieIDsInSystemList(ctx, userID, domain.WatchlistListTitle)
	if err != nil {
		return domain.EngagementSnapshot{}, storeError("load watchlist", err)
	}

	if len(seen) > 0 {
		snapshot.SeenMovieIDs = seen
	}
	if len(watchlist) > 0 {
		snapshot.WatchlistMovieIDs = watchlist
	}
	return snapshot, nil
}
