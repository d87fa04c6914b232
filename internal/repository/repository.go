package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("repository: not found")

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx, so the same repositories
// serve plain reads and transactional read-modify-write sequences.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository aggregates all domain-specific repositories.
type Repository struct {
	Movies  *MoviesRepository
	Lists   *ListsRepository
	Items   *ListItemsRepository
	Reviews *ReviewsRepository
}

// New constructs a Repository backed by db.
func New(db DBTX) *Repository {
	return &Repository{
		Movies:  &MoviesRepository{db: db},
		Lists:   &ListsRepository{db: db},
		Items:   &ListItemsRepository{db: db},
		Reviews: &ReviewsRepository{db: db},
	}
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
