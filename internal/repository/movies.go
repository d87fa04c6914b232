package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Clark-Hu/movielists/internal/domain"
)

// MoviesRepository reads the catalog. The catalog is maintained elsewhere; nothing here writes to it.
type MoviesRepository struct {
	db DBTX
}

const movieColumns = `
    m.id,
    m.title,
    m.summary,
    m.director,
    m.poster_url,
    m.release_date,
    m.runtime,
    m.created_at,
    m.updated_at
`

// Exists reports whether a movie with the given id is in the catalog.
func (r *MoviesRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM movies WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check movie exists: %w", err)
	}
	return exists, nil
}

// GenresByMovies returns the genres of each movie keyed by movie id, ordered by name.
// Movies without genres are absent from the map.
func (r *MoviesRepository) GenresByMovies(ctx context.Context, movieIDs []string) (map[string][]domain.Genre, error) {
	return genresByMovies(ctx, r.db, movieIDs)
}

func genresByMovies(ctx context.Context, db DBTX, movieIDs []string) (map[string][]domain.Genre, error) {
	byMovie := make(map[string][]domain.Genre)
	if len(movieIDs) == 0 {
		return byMovie, nil
	}

	rows, err := db.Query(ctx, `
        SELECT mg.movie_id, g.id, g.name
        FROM movie_genres mg
        JOIN genres g ON g.id = mg.genre_id
        WHERE mg.movie_id = ANY($1::text[]::uuid[])
        ORDER BY mg.movie_id, g.name
    `, movieIDs)
	if err != nil {
		return nil, fmt.Errorf("query movie genres: %w", err)
	}

	var movieID string
	var g domain.Genre
	_, err = pgx.ForEachRow(rows, []any{&movieID, &g.ID, &g.Name}, func() error {
		byMovie[movieID] = append(byMovie[movieID], g)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan movie genres: %w", err)
	}
	return byMovie, nil
}

// attachGenres fills Movie.Genres on every entry with a single query.
func attachGenres(ctx context.Context, db DBTX, entries []domain.ListEntry) error {
	ids := make([]string, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.Movie.ID]; ok {
			continue
		}
		seen[e.Movie.ID] = struct{}{}
		ids = append(ids, e.Movie.ID)
	}

	genres, err := genresByMovies(ctx, db, ids)
	if err != nil {
		return err
	}
	for i := range entries {
		entries[i].Movie.Genres = genres[entries[i].Movie.ID]
	}
	return nil
}
