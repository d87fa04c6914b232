package domain

import "time"

// Genre is a catalog genre. Genres are maintained by the catalog, never by this service.
type Genre struct {
	ID   int
	Name string
}

// Movie is the read-only catalog record referenced by list items and reviews.
type Movie struct {
	ID          string
	Title       string
	Summary     *string
	Director    *string
	PosterURL   *string
	ReleaseDate *string
	Runtime     *int
	Genres      []Genre
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
