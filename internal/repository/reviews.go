package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Clark-Hu/movielists/internal/domain"
)

// ReviewsRepository provides helpers for movie reviews.
type ReviewsRepository struct {
	db DBTX
}

const reviewColumns = `id, user_id, movie_id, rating, comment, date_posted`

// ReviewUpsertParams captures the payload required to upsert a review.
type ReviewUpsertParams struct {
	ID         string
	UserID     string
	MovieID    string
	Rating     int
	Comment    string
	DatePosted time.Time
}

// Upsert inserts or replaces the caller's review and indicates whether it was newly created.
// On replace the original id is kept and date_posted moves to the new submission time.
func (r *ReviewsRepository) Upsert(ctx context.Context, params ReviewUpsertParams) (domain.Review, bool, error) {
	query := fmt.Sprintf(`
        INSERT INTO reviews (id, user_id, movie_id, rating, comment, date_posted)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (user_id, movie_id)
        DO UPDATE SET rating = EXCLUDED.rating, comment = EXCLUDED.comment, date_posted = EXCLUDED.date_posted
        RETURNING %s, (xmax = 0) AS inserted
    `, reviewColumns)

	var review domain.Review
	var inserted bool
	err := r.db.QueryRow(ctx, query,
		params.ID, params.UserID, params.MovieID, params.Rating, params.Comment, params.DatePosted,
	).Scan(
		&review.ID,
		&review.UserID,
		&review.MovieID,
		&review.Rating,
		&review.Comment,
		&review.DatePosted,
		&inserted,
	)
	if err != nil {
		return domain.Review{}, false, notFound(err)
	}
	return review, inserted, nil
}

// Get retrieves the review a user wrote for a movie.
func (r *ReviewsRepository) Get(ctx context.Context, userID, movieID string) (domain.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE user_id = $1 AND movie_id = $2`, reviewColumns)
	review, err := scanReview(r.db.QueryRow(ctx, query, userID, movieID))
	if err != nil {
		return domain.Review{}, notFound(err)
	}
	return review, nil
}

// Delete removes the review a user wrote for a movie and reports whether one existed.
func (r *ReviewsRepository) Delete(ctx context.Context, userID, movieID string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM reviews WHERE user_id = $1 AND movie_id = $2`, userID, movieID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Summary returns the rating average and count for a movie.
func (r *ReviewsRepository) Summary(ctx context.Context, movieID string) (domain.RatingSummary, error) {
	const query = `
        SELECT COALESCE(ROUND(AVG(rating)::numeric, 1), 0)::float4 AS average,
               COUNT(*)::int8 AS count
        FROM reviews
        WHERE movie_id = $1
    `

	var summary domain.RatingSummary
	err := r.db.QueryRow(ctx, query, movieID).Scan(&summary.Average, &summary.Count)
	if err != nil {
		return domain.RatingSummary{}, fmt.Errorf("summarize reviews: %w", err)
	}
	return summary, nil
}

// ListByMovie returns every review of a movie, newest first.
func (r *ReviewsRepository) ListByMovie(ctx context.Context, movieID string) ([]domain.Review, error) {
	query := fmt.Sprintf(`
        SELECT %s
        FROM reviews
        WHERE movie_id = $1
        ORDER BY date_posted DESC, id
    `, reviewColumns)
	rows, err := r.db.Query(ctx, query, movieID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Review, error) {
		return scanReview(row)
	})
}

func scanReview(row pgx.Row) (domain.Review, error) {
	var review domain.Review
	err := row.Scan(
		&review.ID,
		&review.UserID,
		&review.MovieID,
		&review.Rating,
		&review.Comment,
		&review.DatePosted,
	)
	if err != nil {
		return domain.Review{}, err
	}
	return review, nil
}
