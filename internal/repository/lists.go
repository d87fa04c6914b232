package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Clark-Hu/movielists/internal/domain"
)

// ListsRepository persists movie lists.
type ListsRepository struct {
	db DBTX
}

const listColumns = `id, user_id, title, is_system, created_at`

// ListCreateParams bundles the fields required to create a list.
type ListCreateParams struct {
	ID        string
	UserID    string
	Title     string
	CreatedAt time.Time
}

// InsertSystem creates the system list (userID, title) unless it already exists.
// created is false when another transaction got there first; the caller should
// then read the existing row with FindSystem.
func (r *ListsRepository) InsertSystem(ctx context.Context, params ListCreateParams) (list domain.MovieList, created bool, err error) {
	query := fmt.Sprintf(`
        INSERT INTO movie_lists (id, user_id, title, is_system, created_at)
        VALUES ($1, $2, $3, TRUE, $4)
        ON CONFLICT (user_id, title) WHERE is_system DO NOTHING
        RETURNING %s
    `, listColumns)

	list, err = scanList(r.db.QueryRow(ctx, query, params.ID, params.UserID, params.Title, params.CreatedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.MovieList{}, false, nil
		}
		return domain.MovieList{}, false, err
	}
	return list, true, nil
}

// FindSystem fetches the system list with the given title owned by userID.
func (r *ListsRepository) FindSystem(ctx context.Context, userID, title string) (domain.MovieList, error) {
	query := fmt.Sprintf(`SELECT %s FROM movie_lists WHERE user_id = $1 AND title = $2 AND is_system`, listColumns)
	list, err := scanList(r.db.QueryRow(ctx, query, userID, title))
	if err != nil {
		return domain.MovieList{}, notFound(err)
	}
	return list, nil
}

// CreateCustom inserts a non-system list.
func (r *ListsRepository) CreateCustom(ctx context.Context, params ListCreateParams) (domain.MovieList, error) {
	query := fmt.Sprintf(`
        INSERT INTO movie_lists (id, user_id, title, is_system, created_at)
        VALUES ($1, $2, $3, FALSE, $4)
        RETURNING %s
    `, listColumns)
	return scanList(r.db.QueryRow(ctx, query, params.ID, params.UserID, params.Title, params.CreatedAt))
}

// GetByID fetches a list by its identifier.
func (r *ListsRepository) GetByID(ctx context.Context, id string) (domain.MovieList, error) {
	query := fmt.Sprintf(`SELECT %s FROM movie_lists WHERE id = $1`, listColumns)
	list, err := scanList(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return domain.MovieList{}, notFound(err)
	}
	return list, nil
}

// GetByIDForUpdate fetches a list and locks its row until the surrounding transaction ends.
func (r *ListsRepository) GetByIDForUpdate(ctx context.Context, id string) (domain.MovieList, error) {
	query := fmt.Sprintf(`SELECT %s FROM movie_lists WHERE id = $1 FOR UPDATE`, listColumns)
	list, err := scanList(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return domain.MovieList{}, notFound(err)
	}
	return list, nil
}

// GetByIDForShare fetches a list and keeps it from being deleted until the surrounding
// transaction ends. Concurrent item inserts do not block each other.
func (r *ListsRepository) GetByIDForShare(ctx context.Context, id string) (domain.MovieList, error) {
	query := fmt.Sprintf(`SELECT %s FROM movie_lists WHERE id = $1 FOR SHARE`, listColumns)
	list, err := scanList(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return domain.MovieList{}, notFound(err)
	}
	return list, nil
}

// ListByUser returns every list owned by userID: system lists first, then custom
// lists in creation order.
func (r *ListsRepository) ListByUser(ctx context.Context, userID string) ([]domain.MovieList, error) {
	query := fmt.Sprintf(`
        SELECT %s
        FROM movie_lists
        WHERE user_id = $1
        ORDER BY is_system DESC, CASE WHEN is_system AND title = $2 THEN 0 ELSE 1 END, created_at, id
    `, listColumns)
	rows, err := r.db.Query(ctx, query, userID, domain.SeenListTitle)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.MovieList, error) {
		return scanList(row)
	})
}

// Delete removes a list; its items go with it through the foreign key cascade.
func (r *ListsRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM movie_lists WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanList(row pgx.Row) (domain.MovieList, error) {
	var list domain.MovieList
	err := row.Scan(&list.ID, &list.UserID, &list.Title, &list.IsSystem, &list.CreatedAt)
	if err != nil {
		return domain.MovieList{}, err
	}
	return list, nil
}
