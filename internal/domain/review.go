package domain

import "time"

// Rating bounds. A rating of NoRating means "no review".
const (
	NoRating  = 0
	MinRating = 1
	MaxRating = 10
)

// Review is the single opinion a user holds about a movie.
type Review struct {
	ID         string
	UserID     string
	MovieID    string
	Rating     int
	Comment    string
	DatePosted time.Time
}

// ReviewState is the caller-facing view of a review. Rating 0 means no review exists.
type ReviewState struct {
	Rating     int
	Comment    string
	DatePosted *time.Time
}

// State converts a stored review into its ReviewState.
func (r Review) State() ReviewState {
	posted := r.DatePosted
	return ReviewState{Rating: r.Rating, Comment: r.Comment, DatePosted: &posted}
}

// RatingSummary provides the average and count of a movie's ratings.
type RatingSummary struct {
	Average float32
	Count   int64
}
