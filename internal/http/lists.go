package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/movielists/internal/domain"
	domainerrors "github.com/Clark-Hu/movielists/internal/errors"
	"github.com/Clark-Hu/movielists/internal/identity"
)

type createListRequest struct {
	Title string `json:"title"`
}

type addListItemRequest struct {
	MovieID string `json:"movieId"`
}

type movieResponse struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Summary     *string         `json:"summary,omitempty"`
	Director    *string         `json:"director,omitempty"`
	PosterURL   *string         `json:"posterUrl,omitempty"`
	ReleaseDate *string         `json:"releaseDate,omitempty"`
	Runtime     *int            `json:"runtime,omitempty"`
	Genres      []genreResponse `json:"genres,omitempty"`
}

type genreResponse struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type listResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	IsSystem  bool      `json:"isSystem"`
	CreatedAt time.Time `json:"createdAt"`
}

type listItemResponse struct {
	ID        string    `json:"id"`
	ListID    string    `json:"listId"`
	MovieID   string    `json:"movieId"`
	DateAdded time.Time `json:"dateAdded"`
}

type listEntryResponse struct {
	ItemID    string        `json:"itemId"`
	DateAdded time.Time     `json:"dateAdded"`
	Movie     movieResponse `json:"movie"`
}

type listWithEntriesResponse struct {
	listResponse
	Items []listEntryResponse `json:"items"`
}

type libraryResponse struct {
	Lists []listWithEntriesResponse `json:"lists"`
}

type addListItemResponse struct {
	Added bool             `json:"added"`
	Item  listItemResponse `json:"item"`
}

type meResponse struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	id := identity.FromContext(r.Context())
	if !id.Authenticated() {
		s.respondDomainError(w, r, domainerrors.Unauthenticated("authentication required"))
		return
	}
	s.respondJSON(w, http.StatusOK, meResponse{UserID: id.UserID, Role: string(id.Role)})
}

func (s *Server) handleGetLibrary(w http.ResponseWriter, r *http.Request) {
	library, err := s.services.Lists.GetLibrary(r.Context(), identity.UserID(r.Context()))
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}

	resp := libraryResponse{Lists: make([]listWithEntriesResponse, 0, len(library))}
	for _, l := range library {
		resp.Lists = append(resp.Lists, toListWithEntriesResponse(l))
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateList(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserID(r.Context())
	if userID == "" {
		s.respondDomainError(w, r, domainerrors.Unauthenticated("authentication required"))
		return
	}

	var req createListRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	list, err := s.services.Lists.CreateCustomList(r.Context(), userID, req.Title)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, toListResponse(list))
}

func (s *Server) handleGetList(w http.ResponseWriter, r *http.Request) {
	list, err := s.services.Lists.GetList(r.Context(), identity.UserID(r.Context()), chi.URLParam(r, "listID"))
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toListWithEntriesResponse(list))
}

func (s *Server) handleDeleteList(w http.ResponseWriter, r *http.Request) {
	err := s.services.Lists.DeleteList(r.Context(), identity.UserID(r.Context()), chi.URLParam(r, "listID"))
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddListItem(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserID(r.Context())
	if userID == "" {
		s.respondDomainError(w, r, domainerrors.Unauthenticated("authentication required"))
		return
	}

	var req addListItemRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	item, added, err := s.services.Lists.AddMovieToList(r.Context(), userID, chi.URLParam(r, "listID"), req.MovieID)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}

	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	s.respondJSON(w, status, addListItemResponse{
		Added: added,
		Item: listItemResponse{
			ID:        item.ID,
			ListID:    item.ListID,
			MovieID:   item.MovieID,
			DateAdded: item.DateAdded,
		},
	})
}

func (s *Server) handleRemoveListItem(w http.ResponseWriter, r *http.Request) {
	err := s.services.Lists.RemoveFromList(r.Context(), identity.UserID(r.Context()), chi.URLParam(r, "itemID"))
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toListResponse(list domain.MovieList) listResponse {
	return listResponse{
		ID:        list.ID,
		Title:     list.Title,
		IsSystem:  list.IsSystem,
		CreatedAt: list.CreatedAt,
	}
}

func toListWithEntriesResponse(l domain.ListWithEntries) listWithEntriesResponse {
	resp := listWithEntriesResponse{
		listResponse: toListResponse(l.List),
		Items:        make([]listEntryResponse, 0, len(l.Entries)),
	}
	for _, e := range l.Entries {
		resp.Items = append(resp.Items, listEntryResponse{
			ItemID:    e.Item.ID,
			DateAdded: e.Item.DateAdded,
			Movie:     toMovieResponse(e.Movie),
		})
	}
	return resp
}

func toMovieResponse(movie domain.Movie) movieResponse {
	resp := movieResponse{
		ID:          movie.ID,
		Title:       movie.Title,
		Summary:     movie.Summary,
		Director:    movie.Director,
		PosterURL:   movie.PosterURL,
		ReleaseDate: movie.ReleaseDate,
		Runtime:     movie.Runtime,
	}
	for _, g := range movie.Genres {
		resp.Genres = append(resp.Genres, genreResponse{ID: g.ID, Name: g.Name})
	}
	return resp
}
