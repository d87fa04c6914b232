package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/movielists/internal/domain"
	domainerrors "github.com/Clark-Hu/movielists/internal/errors"
	"github.com/Clark-Hu/movielists/internal/identity"
)

type toggleResponse struct {
	Present bool `json:"present"`
}

type engagementStatusResponse struct {
	Seen        bool `json:"seen"`
	InWatchlist bool `json:"inWatchlist"`
}

type engagementSnapshotResponse struct {
	SeenMovieIDs      []string `json:"seenMovieIds"`
	WatchlistMovieIDs []string `json:"watchlistMovieIds"`
}

type reviewRequest struct {
	Rating  *int   `json:"rating"`
	Comment string `json:"comment"`
}

type reviewStateResponse struct {
	Rating     int        `json:"rating"`
	Comment    string     `json:"comment"`
	DatePosted *time.Time `json:"datePosted,omitempty"`
}

type reviewResponse struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	DatePosted time.Time `json:"datePosted"`
}

type reviewListResponse struct {
	Items []reviewResponse `json:"items"`
}

type ratingSummaryResponse struct {
	Average float32 `json:"average"`
	Count   int64   `json:"count"`
}

func (s *Server) handleToggleSeen(w http.ResponseWriter, r *http.Request) {
	s.handleToggle(w, r, domain.KindSeen)
}

func (s *Server) handleToggleWatchlist(w http.ResponseWriter, r *http.Request) {
	s.handleToggle(w, r, domain.KindWatchlist)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request, kind domain.SystemListKind) {
	state, err := s.services.Engagement.Toggle(r.Context(), identity.UserID(r.Context()), chi.URLParam(r, "movieID"), kind)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toggleResponse{Present: state.Present})
}

func (s *Server) handleEngagementStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.services.Engagement.Status(r.Context(), identity.UserID(r.Context()), chi.URLParam(r, "movieID"))
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, engagementStatusResponse{Seen: status.Seen, InWatchlist: status.InWatchlist})
}

func (s *Server) handleEngagementSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.services.Engagement.Snapshot(r.Context(), identity.UserID(r.Context()))
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, engagementSnapshotResponse{
		SeenMovieIDs:      snapshot.SeenMovieIDs,
		WatchlistMovieIDs: snapshot.WatchlistMovieIDs,
	})
}

func (s *Server) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserID(r.Context())
	if userID == "" {
		s.respondDomainError(w, r, domainerrors.Unauthenticated("authentication required"))
		return
	}

	var req reviewRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if req.Rating == nil {
		s.respondDomainError(w, r, domainerrors.InvalidArgumentWithDetails("validation failed", map[string]string{"rating": "is required"}))
		return
	}

	state, err := s.services.Reviews.SubmitReview(r.Context(), userID, chi.URLParam(r, "movieID"), *req.Rating, req.Comment)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toReviewStateResponse(state))
}

func (s *Server) handleGetReview(w http.ResponseWriter, r *http.Request) {
	state, err := s.services.Reviews.GetUserReview(r.Context(), identity.UserID(r.Context()), chi.URLParam(r, "movieID"))
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toReviewStateResponse(state))
}

func (s *Server) handleRatingSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.services.Reviews.MovieSummary(r.Context(), chi.URLParam(r, "movieID"))
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, ratingSummaryResponse{
		Average: roundToOneDecimal(summary.Average),
		Count:   summary.Count,
	})
}

func (s *Server) handleMovieReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := s.services.Reviews.MovieReviews(r.Context(), chi.URLParam(r, "movieID"))
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}

	resp := reviewListResponse{Items: make([]reviewResponse, 0, len(reviews))}
	for _, rv := range reviews {
		resp.Items = append(resp.Items, reviewResponse{
			ID:         rv.ID,
			UserID:     rv.UserID,
			Rating:     rv.Rating,
			Comment:    rv.Comment,
			DatePosted: rv.DatePosted,
		})
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func toReviewStateResponse(state domain.ReviewState) reviewStateResponse {
	return reviewStateResponse{
		Rating:     state.Rating,
		Comment:    state.Comment,
		DatePosted: state.DatePosted,
	}
}
