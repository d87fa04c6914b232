package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Clark-Hu/movielists/internal/domain"
	domainerrors "github.com/Clark-Hu/movielists/internal/errors"
	"github.com/Clark-Hu/movielists/internal/repository"
	"github.com/Clark-Hu/movielists/internal/store"
	"github.com/Clark-Hu/movielists/internal/validation"
)

// ListEngine owns the lifecycle of a user's lists and their items.
type ListEngine struct {
	store     *store.Store
	validator *validation.Validator
	logger    *slog.Logger
	now       Clock
}

// NewListEngine creates a list engine.
func NewListEngine(st *store.Store, v *validation.Validator, logger *slog.Logger) *ListEngine {
	return &ListEngine{
		store:     st,
		validator: v,
		logger:    logger,
		now:       systemClock,
	}
}

// SetClock replaces the clock used to stamp new lists and items.
func (e *ListEngine) SetClock(now Clock) {
	e.now = now
}

type createListInput struct {
	Title string `json:"title" validate:"required,max=200"`
}

// GetOrCreateSystemList returns the user's system list of the given kind, creating it on first use.
func (e *ListEngine) GetOrCreateSystemList(ctx context.Context, userID string, kind domain.SystemListKind) (domain.MovieList, error) {
	if err := requireUser(userID); err != nil {
		return domain.MovieList{}, err
	}
	if kind.Title() == "" {
		return domain.MovieList{}, domainerrors.InvalidArgumentf("unknown system list kind %d", kind)
	}

	var list domain.MovieList
	err := e.store.InTx(ctx, func(tx pgx.Tx) error {
		var err error
		list, err = e.systemList(ctx, repository.New(tx), userID, kind)
		return err
	})
	if err != nil {
		return domain.MovieList{}, storeError("resolve system list", err)
	}
	return list, nil
}

// systemList is the find-or-create primitive. Two transactions racing on the same
// (user, title) serialise on the partial unique index; the loser re-reads the winner's row.
func (e *ListEngine) systemList(ctx context.Context, repo *repository.Repository, userID string, kind domain.SystemListKind) (domain.MovieList, error) {
	title := kind.Title()

	list, err := repo.Lists.FindSystem(ctx, userID, title)
	if err == nil {
		return list, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return domain.MovieList{}, err
	}

	list, created, err := repo.Lists.InsertSystem(ctx, repository.ListCreateParams{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		CreatedAt: e.now(),
	})
	if err != nil {
		return domain.MovieList{}, err
	}
	if created {
		e.logger.Debug("system list provisioned", "user_id", userID, "list_id", list.ID, "kind", kind.String())
		return list, nil
	}

	list, err = repo.Lists.FindSystem(ctx, userID, title)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.MovieList{}, store.ErrConflict
	}
	return list, err
}

// CreateCustomList creates a non-system list. Titles are trimmed and need not be unique.
func (e *ListEngine) CreateCustomList(ctx context.Context, userID, title string) (domain.MovieList, error) {
	if err := requireUser(userID); err != nil {
		return domain.MovieList{}, err
	}
	input := createListInput{Title: strings.TrimSpace(title)}
	if err := e.validator.Validate(input); err != nil {
		return domain.MovieList{}, err
	}

	list, err := repository.New(e.store.Pool()).Lists.CreateCustom(ctx, repository.ListCreateParams{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     input.Title,
		CreatedAt: e.now(),
	})
	if err != nil {
		return domain.MovieList{}, storeError("create list", err)
	}

	e.logger.Debug("custom list created", "user_id", userID, "list_id", list.ID)
	return list, nil
}

// DeleteList removes a custom list owned by userID together with its items.
// System lists are never deleted.
func (e *ListEngine) DeleteList(ctx context.Context, userID, listID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if err := requireID("listId", listID); err != nil {
		return err
	}

	err := e.store.InTx(ctx, func(tx pgx.Tx) error {
		repo := repository.New(tx)
		list, err := repo.Lists.GetByIDForUpdate(ctx, listID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domainerrors.NotFoundf("list %s not found", listID)
			}
			return err
		}
		if !list.OwnedBy(userID) {
			return domainerrors.Forbidden("you do not own this list")
		}
		if list.IsSystem {
			return domainerrors.ProtectedResource("system lists cannot be deleted")
		}
		_, err = repo.Lists.Delete(ctx, listID)
		return err
	})
	if err != nil {
		return storeError("delete list", err)
	}

	e.logger.Debug("list deleted", "user_id", userID, "list_id", listID)
	return nil
}

// AddItem puts movieID in listID. Adding a movie that is already present returns the
// existing item with added=false and leaves its timestamp alone.
func (e *ListEngine) AddItem(ctx context.Context, listID, movieID string) (domain.ListItem, bool, error) {
	if err := requireID("listId", listID); err != nil {
		return domain.ListItem{}, false, err
	}
	if err := requireID("movieId", movieID); err != nil {
		return domain.ListItem{}, false, err
	}

	var (
		item  domain.ListItem
		added bool
	)
	err := e.store.InTx(ctx, func(tx pgx.Tx) error {
		repo := repository.New(tx)
		if _, err := repo.Lists.GetByIDForShare(ctx, listID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domainerrors.NotFoundf("list %s not found", listID)
			}
			return err
		}
		if err := ensureMovie(ctx, repo, movieID); err != nil {
			return err
		}
		var err error
		item, added, err = e.addItem(ctx, repo, listID, movieID)
		return err
	})
	if err != nil {
		return domain.ListItem{}, false, storeError("add list item", err)
	}
	return item, added, nil
}

// AddMovieToList is AddItem restricted to the list's owner.
func (e *ListEngine) AddMovieToList(ctx context.Context, userID, listID, movieID string) (domain.ListItem, bool, error) {
	if err := requireUser(userID); err != nil {
		return domain.ListItem{}, false, err
	}
	if err := requireID("listId", listID); err != nil {
		return domain.ListItem{}, false, err
	}
	if err := requireID("movieId", movieID); err != nil {
		return domain.ListItem{}, false, err
	}

	var (
		item  domain.ListItem
		added bool
	)
	err := e.store.InTx(ctx, func(tx pgx.Tx) error {
		repo := repository.New(tx)
		list, err := repo.Lists.GetByIDForShare(ctx, listID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domainerrors.NotFoundf("list %s not found", listID)
			}
			return err
		}
		if !list.OwnedBy(userID) {
			return domainerrors.Forbidden("you do not own this list")
		}
		if err := ensureMovie(ctx, repo, movieID); err != nil {
			return err
		}
		item, added, err = e.addItem(ctx, repo, listID, movieID)
		return err
	})
	if err != nil {
		return domain.ListItem{}, false, storeError("add movie to list", err)
	}

	if added {
		e.logger.Debug("movie added to list", "user_id", userID, "list_id", listID, "movie_id", movieID)
	}
	return item, added, nil
}

// addItem is the idempotent insert primitive. When the pair already exists the stored row wins.
func (e *ListEngine) addItem(ctx context.Context, repo *repository.Repository, listID, movieID string) (domain.ListItem, bool, error) {
	item, inserted, err := repo.Items.Insert(ctx, repository.ItemInsertParams{
		ID:        uuid.NewString(),
		ListID:    listID,
		MovieID:   movieID,
		DateAdded: e.now(),
	})
	if err != nil {
		return domain.ListItem{}, false, err
	}
	if inserted {
		return item, true, nil
	}

	item, err = repo.Items.FindByListAndMovie(ctx, listID, movieID)
	if errors.Is(err, repository.ErrNotFound) {
		// The conflicting row was removed between the insert and the read.
		return domain.ListItem{}, false, store.ErrConflict
	}
	if err != nil {
		return domain.ListItem{}, false, err
	}
	return item, false, nil
}

// RemoveItem deletes a list item. Only the owner of the containing list may remove it.
func (e *ListEngine) RemoveItem(ctx context.Context, listItemID, userID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if err := requireID("itemId", listItemID); err != nil {
		return err
	}

	err := e.store.InTx(ctx, func(tx pgx.Tx) error {
		repo := repository.New(tx)
		_, ownerID, err := repo.Items.GetWithOwnerForUpdate(ctx, listItemID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domainerrors.NotFoundf("list item %s not found", listItemID)
			}
			return err
		}
		if ownerID != userID {
			return domainerrors.Forbidden("you do not own this list")
		}
		_, err = repo.Items.Delete(ctx, listItemID)
		return err
	})
	if err != nil {
		return storeError("remove list item", err)
	}

	e.logger.Debug("list item removed", "user_id", userID, "item_id", listItemID)
	return nil
}

// RemoveFromList is RemoveItem with the caller first.
func (e *ListEngine) RemoveFromList(ctx context.Context, userID, listItemID string) error {
	return e.RemoveItem(ctx, listItemID, userID)
}

// ListContents returns the movies in a list, oldest addition first.
func (e *ListEngine) ListContents(ctx context.Context, listID string) ([]domain.ListEntry, error) {
	if err := requireID("listId", listID); err != nil {
		return nil, err
	}
	repo := repository.New(e.store.Pool())
	if _, err := repo.Lists.GetByID(ctx, listID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domainerrors.NotFoundf("list %s not found", listID)
		}
		return nil, storeError("load list", err)
	}
	entries, err := repo.Items.EntriesByList(ctx, listID)
	if err != nil {
		return nil, storeError("load list contents", err)
	}
	return entries, nil
}

// GetList returns one of the caller's lists with its contents.
func (e *ListEngine) GetList(ctx context.Context, userID, listID string) (domain.ListWithEntries, error) {
	if err := requireUser(userID); err != nil {
		return domain.ListWithEntries{}, err
	}
	if err := requireID("listId", listID); err != nil {
		return domain.ListWithEntries{}, err
	}

	repo := repository.New(e.store.Pool())
	list, err := repo.Lists.GetByID(ctx, listID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ListWithEntries{}, domainerrors.NotFoundf("list %s not found", listID)
		}
		return domain.ListWithEntries{}, storeError("load list", err)
	}
	if !list.OwnedBy(userID) {
		return domain.ListWithEntries{}, domainerrors.Forbidden("you do not own this list")
	}

	entries, err := repo.Items.EntriesByList(ctx, listID)
	if err != nil {
		return domain.ListWithEntries{}, storeError("load list contents", err)
	}
	return domain.ListWithEntries{List: list, Entries: entries}, nil
}

// GetLibrary returns every list the caller owns with its contents. Both system lists
// are provisioned first, so a new user always sees Seen Content and Watchlist.
func (e *ListEngine) GetLibrary(ctx context.Context, userID string) ([]domain.ListWithEntries, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	var library []domain.ListWithEntries
	err := e.store.InTx(ctx, func(tx pgx.Tx) error {
		repo := repository.New(tx)
		for _, kind := range []domain.SystemListKind{domain.KindSeen, domain.KindWatchlist} {
			if _, err := e.systemList(ctx, repo, userID, kind); err != nil {
				return err
			}
		}

		lists, err := repo.Lists.ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		entries, err := repo.Items.EntriesByUser(ctx, userID)
		if err != nil {
			return err
		}

		library = make([]domain.ListWithEntries, 0, len(lists))
		for _, list := range lists {
			contents := entries[list.ID]
			if contents == nil {
				contents = []domain.ListEntry{}
			}
			library = append(library, domain.ListWithEntries{List: list, Entries: contents})
		}
		return nil
	})
	if err != nil {
		return nil, storeError("load library", err)
	}
	return library, nil
}
