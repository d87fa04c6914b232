// Package service holds the list membership engine, the engagement toggles built on
// it and the review aggregator. Every mutation runs in a single store transaction.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	domainerrors "github.com/Clark-Hu/movielists/internal/errors"
	"github.com/Clark-Hu/movielists/internal/repository"
	"github.com/Clark-Hu/movielists/internal/store"
)

// Clock returns the current time. Services stamp rows with it.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

// requireUser rejects anonymous callers and identities that are not UUIDs.
func requireUser(userID string) error {
	if userID == "" {
		return domainerrors.Unauthenticated("authentication required")
	}
	if _, err := uuid.Parse(userID); err != nil {
		return domainerrors.Unauthenticated("invalid user identity")
	}
	return nil
}

func requireID(field, value string) error {
	if value == "" {
		return domainerrors.InvalidArgumentWithDetails("validation failed", map[string]string{field: "is required"})
	}
	if _, err := uuid.Parse(value); err != nil {
		return domainerrors.InvalidArgumentWithDetails("validation failed", map[string]string{field: "must be a valid UUID"})
	}
	return nil
}

func ensureMovie(ctx context.Context, repo *repository.Repository, movieID string) error {
	exists, err := repo.Movies.Exists(ctx, movieID)
	if err != nil {
		return err
	}
	if !exists {
		return domainerrors.NotFoundf("movie %s not found", movieID)
	}
	return nil
}

// Foreign keys whose violation means a referenced row is gone rather than a bug.
const (
	fkListOwner   = "movie_lists_user_id_fkey"
	fkReviewOwner = "reviews_user_id_fkey"
	fkItemList    = "movie_list_items_list_id_fkey"
	fkItemMovie   = "movie_list_items_movie_id_fkey"
	fkReviewMovie = "reviews_movie_id_fkey"
)

// missingParent maps a foreign key violation to the domain error for the row that
// disappeared: the caller's user record, a list deleted concurrently, or a movie.
func missingParent(err error) *domainerrors.Error {
	if !store.IsForeignKeyViolation(err) {
		return nil
	}
	switch store.ConstraintName(err) {
	case fkListOwner, fkReviewOwner:
		return domainerrors.Unauthenticated("unknown user").WithCause(err)
	case fkItemList:
		return domainerrors.NotFound("list not found").WithCause(err)
	case fkItemMovie, fkReviewMovie:
		return domainerrors.NotFound("movie not found").WithCause(err)
	}
	return nil
}

// storeError converts a failure escaping a repository or transaction into a domain error.
// Domain errors and context cancellation pass through untouched.
func storeError(msg string, err error) error {
	var domainErr *domainerrors.Error
	switch {
	case errors.As(err, &domainErr):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case missingParent(err) != nil:
		return missingParent(err)
	case errors.Is(err, store.ErrRetriesExhausted):
		return domainerrors.Internal(msg, domainerrors.Conflict("concurrent modification", err))
	default:
		return domainerrors.Internal(msg, err)
	}
}
