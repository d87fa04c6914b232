package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Clark-Hu/movielists/internal/domain"
	"github.com/Clark-Hu/movielists/internal/repository"
	"github.com/Clark-Hu/movielists/internal/store"
	"github.com/Clark-Hu/movielists/internal/validation"
)

// ReviewAggregator keeps at most one review per (user, movie) and aggregates ratings per movie.
type ReviewAggregator struct {
	store     *store.Store
	validator *validation.Validator
	logger    *slog.Logger
	now       Clock
}

// NewReviewAggregator creates a review aggregator.
func NewReviewAggregator(st *store.Store, v *validation.Validator, logger *slog.Logger) *ReviewAggregator {
	return &ReviewAggregator{
		store:     st,
		validator: v,
		logger:    logger,
		now:       systemClock,
	}
}

// SetClock replaces the clock used to stamp reviews.
func (a *ReviewAggregator) SetClock(now Clock) {
	a.now = now
}

type submitReviewInput struct {
	Rating  int    `json:"rating" validate:"gte=0,lte=10"`
	Comment string `json:"comment" validate:"max=4000"`
}

// SubmitRating records the caller's opinion of a movie. A non-zero rating creates or
// fully overwrites the review; zero deletes it (a no-op when there is none).
func (a *ReviewAggregator) SubmitRating(ctx context.Context, userID, movieID string, rating int, comment string) (domain.ReviewState, error) {
	if err := requireUser(userID); err != nil {
		return domain.ReviewState{}, err
	}
	input := submitReviewInput{Rating: rating, Comment: comment}
	if err := a.validator.Validate(input); err != nil {
		return domain.ReviewState{}, err
	}
	if err := requireID("movieId", movieID); err != nil {
		return domain.ReviewState{}, err
	}

	state := domain.ReviewState{}
	err := a.store.InTx(ctx, func(tx pgx.Tx) error {
		repo := repository.New(tx)
		if err := ensureMovie(ctx, repo, movieID); err != nil {
			return err
		}

		if rating == domain.NoRating {
			removed, err := repo.Reviews.Delete(ctx, userID, movieID)
			if err != nil {
				return err
			}
			if removed {
				a.logger.Debug("review deleted", "user_id", userID, "movie_id", movieID)
			}
			state = domain.ReviewState{}
			return nil
		}

		review, inserted, err := repo.Reviews.Upsert(ctx, repository.ReviewUpsertParams{
			ID:         uuid.NewString(),
			UserID:     userID,
			MovieID:    movieID,
			Rating:     rating,
			Comment:    comment,
			DatePosted: a.now(),
		})
		if err != nil {
			return err
		}
		a.logger.Debug("review saved",
			"user_id", userID,
			"movie_id", movieID,
			"rating", rating,
			"inserted", inserted,
		)
		state = review.State()
		return nil
	})
	if err != nil {
		return domain.ReviewState{}, storeError("submit review", err)
	}
	return state, nil
}

// SubmitReview is SubmitRating under its boundary name.
func (a *ReviewAggregator) SubmitReview(ctx context.Context, userID, movieID string, rating int, comment string) (domain.ReviewState, error) {
	return a.SubmitRating(ctx, userID, movieID, rating, comment)
}

// GetUserReview returns the caller's review of a movie, or the empty state when there is
// none. Anonymous callers and malformed ids also get the empty state; only store failures
// are reported.
func (a *ReviewAggregator) GetUserReview(ctx context.Context, userID, movieID string) (domain.ReviewState, error) {
	if requireUser(userID) != nil || requireID("movieId", movieID) != nil {
		return domain.ReviewState{}, nil
	}

	review, err := repository.New(a.store.Pool()).Reviews.Get(ctx, userID, movieID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ReviewState{}, nil
		}
		return domain.ReviewState{}, storeError("load review", err)
	}
	return review.State(), nil
}

// MovieSummary returns the average rating (one decimal) and review count for a movie.
func (a *ReviewAggregator) MovieSummary(ctx context.Context, movieID string) (domain.RatingSummary, error) {
	if err := requireID("movieId", movieID); err != nil {
		return domain.RatingSummary{}, err
	}
	repo := repository.New(a.store.Pool())
	if err := ensureMovie(ctx, repo, movieID); err != nil {
		return domain.RatingSummary{}, storeError("load movie", err)
	}
	summary, err := repo.Reviews.Summary(ctx, movieID)
	if err != nil {
		return domain.RatingSummary{}, storeError("summarize reviews", err)
	}
	return summary, nil
}

// MovieReviews returns every review of a movie, newest first.
func (a *ReviewAggregator) MovieReviews(ctx context.Context, movieID string) ([]domain.Review, error) {
	if err := requireID("movieId", movieID); err != nil {
		return nil, err
	}
	repo := repository.New(a.store.Pool())
	if err := ensureMovie(ctx, repo, movieID); err != nil {
		return nil, storeError("load movie", err)
	}
	reviews, err := repo.Reviews.ListByMovie(ctx, movieID)
	if err != nil {
		return nil, storeError("list reviews", err)
	}
	if reviews == nil {
		reviews = []domain.Review{}
	}
	return reviews, nil
}
